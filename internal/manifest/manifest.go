// Package manifest reads the YAML export manifest: the storey, the units
// with their parts and placements, optional bulk groups, and an optional
// assembly hierarchy. It stands in for the visual host's node graph as the
// boundary that delivers geometry and parameters to the pipeline.
package manifest

import (
	"fmt"
	"io"
	"io/fs"

	"gopkg.in/yaml.v3"

	"panelforge/internal/assembly"
	"panelforge/internal/builder"
	"panelforge/internal/geometry"
	"panelforge/internal/unit"
)

// Manifest is one export job description.
type Manifest struct {
	Storey      string              `yaml:"storey"`
	ElevationMM float64             `yaml:"elevation_mm"`
	Output      string              `yaml:"output"`
	Units       []UnitSpec          `yaml:"units"`
	Bulk        []BulkSpec          `yaml:"bulk"`
	Hierarchy   map[string][]string `yaml:"hierarchy"`
	Wrap        *WrapSpec           `yaml:"wrap"`
}

// WrapSpec adds one outermost grouping level to every record, applied after
// the per-unit hierarchy.
type WrapSpec struct {
	Name      string `yaml:"name"`
	KeySuffix string `yaml:"key_suffix"`
}

// UnitSpec declares one prefabricated unit.
type UnitSpec struct {
	ID        string         `yaml:"id"`
	Category  string         `yaml:"category"`
	Placement *PlacementSpec `yaml:"placement"`
	Parts     []PartSpec     `yaml:"parts"`
}

// BulkSpec declares one loose group of parts outside any unit.
type BulkSpec struct {
	ContainerID string         `yaml:"container_id"`
	Category    string         `yaml:"category"`
	Placement   *PlacementSpec `yaml:"placement"`
	Parts       []PartSpec     `yaml:"parts"`
}

// PartSpec declares one part: a mesh file plus fabrication metadata.
type PartSpec struct {
	Name     string     `yaml:"name"`
	Mesh     string     `yaml:"mesh"`
	Material string     `yaml:"material"`
	Finish   FinishSpec `yaml:"finish"`
	Dims     DimsSpec   `yaml:"dims"`
	Color    string     `yaml:"color"`
}

type FinishSpec struct {
	Type        string  `yaml:"type"`
	ThicknessUM float64 `yaml:"thickness_um"`
}

type DimsSpec struct {
	L float64 `yaml:"l"`
	W float64 `yaml:"w"`
	R float64 `yaml:"r"`
}

// PlacementSpec is the YAML form of a placement frame. Missing axes default
// to the world frame.
type PlacementSpec struct {
	Origin [3]float64 `yaml:"origin"`
	ZAxis  [3]float64 `yaml:"z_axis"`
	XAxis  [3]float64 `yaml:"x_axis"`
}

// Load decodes and validates a manifest.
func Load(r io.Reader) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks the manifest shape without touching mesh files.
func (m *Manifest) Validate() error {
	if len(m.Units) == 0 && len(m.Bulk) == 0 {
		return fmt.Errorf("manifest declares no units and no bulk groups")
	}
	for i, u := range m.Units {
		if u.ID == "" {
			return fmt.Errorf("units[%d]: missing id", i)
		}
		if err := validateParts(u.Parts, "units", u.ID); err != nil {
			return err
		}
	}
	for i, b := range m.Bulk {
		if b.ContainerID == "" {
			return fmt.Errorf("bulk[%d]: missing container_id", i)
		}
		if b.Category == "" {
			return fmt.Errorf("bulk %q: missing category", b.ContainerID)
		}
		if err := validateParts(b.Parts, "bulk", b.ContainerID); err != nil {
			return err
		}
	}
	return nil
}

func validateParts(parts []PartSpec, kind, id string) error {
	if len(parts) == 0 {
		return fmt.Errorf("%s %q: no parts", kind, id)
	}
	for i, p := range parts {
		if p.Mesh == "" {
			return fmt.Errorf("%s %q parts[%d]: missing mesh file", kind, id, i)
		}
		if !geometry.IsSupportedExtension(p.Mesh) {
			return fmt.Errorf("%s %q parts[%d]: unsupported mesh format %q", kind, id, i, p.Mesh)
		}
	}
	return nil
}

// Resolve loads every referenced mesh from fsys and runs the build and
// annotate stages, producing the batch ready for export.
func (m *Manifest) Resolve(fsys fs.FS) (unit.Batch, error) {
	ids := make([]string, 0, len(m.Units))
	groups := make([][]unit.Part, 0, len(m.Units))
	placements := make([]geometry.Placement, 0, len(m.Units))

	for _, u := range m.Units {
		parts, err := loadParts(fsys, u.Parts)
		if err != nil {
			return nil, fmt.Errorf("unit %q: %w", u.ID, err)
		}
		ids = append(ids, u.ID)
		groups = append(groups, parts)
		placements = append(placements, u.Placement.toPlacement())
	}

	batch, err := builder.Build(ids, groups, placements)
	if err != nil {
		return nil, err
	}
	for i, u := range m.Units {
		if u.Category != "" {
			batch[i].Category = u.Category
		}
	}

	for _, b := range mergeBulk(m.Bulk) {
		parts, err := loadParts(fsys, b.Parts)
		if err != nil {
			return nil, fmt.Errorf("bulk %q: %w", b.ContainerID, err)
		}
		rec, err := builder.BuildBulk(b.ContainerID, b.Category, parts, b.Placement.toPlacement())
		if err != nil {
			return nil, err
		}
		batch = append(batch, rec)
	}

	if len(m.Hierarchy) > 0 {
		assembly.Annotate(batch, m.Hierarchy)
	}
	if m.Wrap != nil {
		assembly.Wrap(batch, m.Wrap.Name, m.Wrap.KeySuffix)
	}
	return batch, nil
}

// mergeBulk folds bulk groups sharing a container id into one spec, in first
// occurrence order; the first group's category and placement win. One
// container id means one physical container, however many sources feed it.
func mergeBulk(specs []BulkSpec) []BulkSpec {
	merged := make([]BulkSpec, 0, len(specs))
	index := make(map[string]int, len(specs))
	for _, b := range specs {
		if i, ok := index[b.ContainerID]; ok {
			merged[i].Parts = append(merged[i].Parts, b.Parts...)
			continue
		}
		index[b.ContainerID] = len(merged)
		b.Parts = append([]PartSpec(nil), b.Parts...)
		merged = append(merged, b)
	}
	return merged
}

func loadParts(fsys fs.FS, specs []PartSpec) ([]unit.Part, error) {
	parts := make([]unit.Part, 0, len(specs))
	for _, spec := range specs {
		mesh, err := loadMesh(fsys, spec.Mesh)
		if err != nil {
			return nil, err
		}
		name := spec.Name
		if name == "" {
			name = spec.Mesh
		}
		parts = append(parts, builder.NewPart(name, mesh, unit.Props{
			LengthMM:          spec.Dims.L,
			WidthMM:           spec.Dims.W,
			RadiusMM:          spec.Dims.R,
			Material:          spec.Material,
			FinishType:        spec.Finish.Type,
			FinishThicknessUM: spec.Finish.ThicknessUM,
			ColorCode:         spec.Color,
		}))
	}
	return parts, nil
}

func loadMesh(fsys fs.FS, name string) (*geometry.TriMesh, error) {
	reader, err := geometry.ForFile(name)
	if err != nil {
		return nil, err
	}
	f, err := fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open mesh %q: %w", name, err)
	}
	defer f.Close()
	mesh, err := reader.Read(f, name)
	if err != nil {
		return nil, fmt.Errorf("read mesh %q: %w", name, err)
	}
	return mesh, nil
}

func (p *PlacementSpec) toPlacement() geometry.Placement {
	if p == nil {
		return geometry.IdentityPlacement()
	}
	return geometry.Placement{
		Origin: geometry.Vec3{X: p.Origin[0], Y: p.Origin[1], Z: p.Origin[2]},
		ZAxis:  geometry.Vec3{X: p.ZAxis[0], Y: p.ZAxis[1], Z: p.ZAxis[2]},
		XAxis:  geometry.Vec3{X: p.XAxis[0], Y: p.XAxis[1], Z: p.XAxis[2]},
	}.Normalized()
}

// MeshFiles lists every mesh path the manifest references, in declaration
// order, without duplicates.
func (m *Manifest) MeshFiles() []string {
	seen := map[string]bool{}
	var out []string
	add := func(specs []PartSpec) {
		for _, p := range specs {
			if p.Mesh != "" && !seen[p.Mesh] {
				seen[p.Mesh] = true
				out = append(out, p.Mesh)
			}
		}
	}
	for _, u := range m.Units {
		add(u.Parts)
	}
	for _, b := range m.Bulk {
		add(b.Parts)
	}
	return out
}
