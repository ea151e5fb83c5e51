// Package ifc writes unit batches out as IFC4 STEP files.
//
// Each record becomes one IfcElementAssembly container under the storey
// ("Unit_<id>" or "Bulk_<id>"), each part one mesh-based product inside it.
// Assembly paths become chains of IfcElementAssembly nodes between container
// and products, reused by label key so identical paths share nodes.
package ifc

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"panelforge/internal/geometry"
	"panelforge/internal/unit"
)

// Products and assembly nodes sit at the container's frame; the mesh
// coordinates are already expressed relative to the unit placement.
var identityFrame = geometry.IdentityPlacement()

// Exporter drives one export run. The zero value exports to a storey named
// "Storey" at elevation 0.
type Exporter struct {
	Storey    string
	Elevation float64 // millimetres
}

// Result summarizes a completed export.
type Result struct {
	Path          string
	Elements      int
	Containers    int
	AssemblyNodes int
	Report        string // markdown run summary
}

// ExportError wraps any failure during export, annotated with the offending
// unit id when one is known. A failure on one unit aborts the whole batch.
type ExportError struct {
	UnitID string
	Err    error
}

func (e *ExportError) Error() string {
	if e.UnitID == "" {
		return "export: " + e.Err.Error()
	}
	return fmt.Sprintf("export unit %q: %s", e.UnitID, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

// Export writes one IFC file containing one container per record, in batch
// order. The file at the resolved path is silently overwritten.
func (ex *Exporter) Export(batch unit.Batch, outPath string) (*Result, error) {
	if len(batch) == 0 {
		return nil, &ExportError{Err: fmt.Errorf("batch is empty")}
	}

	storey := ex.Storey
	if storey == "" {
		storey = "Storey"
	}
	resolved, err := ResolveOutputPath(outPath, storey)
	if err != nil {
		return nil, &ExportError{Err: err}
	}

	m := newModel(storey, ex.Elevation, resolved)

	res := &Result{Path: resolved}
	var report strings.Builder
	fmt.Fprintf(&report, "# IFC export — %s\n\n", storey)
	fmt.Fprintf(&report, "- File: `%s`\n", resolved)
	fmt.Fprintf(&report, "- Storey elevation: %g mm\n", ex.Elevation)
	fmt.Fprintf(&report, "- Records: %d\n\n## Containers\n\n", len(batch))

	for _, rec := range batch {
		grouped, direct, nodes, err := ex.exportRecord(m, rec)
		if err != nil {
			return nil, err
		}
		res.Containers++
		res.Elements += grouped + direct
		res.AssemblyNodes += nodes
		fmt.Fprintf(&report, "- %s: parts=%d grouped=%d direct=%d assembly_nodes=%d\n",
			containerName(rec), len(rec.Parts), grouped, direct, nodes)
	}

	if err := writeFile(m.f, resolved); err != nil {
		return nil, &ExportError{Err: err}
	}

	fmt.Fprintf(&report, "\nCreated %d elements in %d containers (%d assembly nodes).\n",
		res.Elements, res.Containers, res.AssemblyNodes)
	res.Report = report.String()
	return res, nil
}

// exportRecord emits the container, assembly chain and products for one
// record. Returns counts of grouped/direct products and assembly nodes.
func (ex *Exporter) exportRecord(m *model, rec *unit.Record) (grouped, direct, nodes int, err error) {
	containerPl := m.localPlacement(m.storeyPlacement, rec.Placement)
	container := m.elementAssembly(containerName(rec), containerPl)
	m.containInStorey(container)

	if rec.Scope == unit.ScopeBulk {
		m.addPset(container, "Pset_Bulk", []psetProp{{"ContainerId", rec.ID}})
	} else {
		m.addPset(container, "Pset_Unit", []psetProp{{"UnitId", rec.ID}})
	}

	// Build or reuse the assembly chain; identical (parent, key) prefixes
	// share one node.
	cache := map[nodeKey]ref{}
	parent := container
	for depth, lvl := range rec.AssemblyPath {
		name, key := normalizeLevel(lvl)
		if key == "" {
			continue
		}
		k := nodeKey{parent: parent, key: key}
		if node, ok := cache[k]; ok {
			parent = node
			continue
		}
		nodePl := m.localPlacement(containerPl, identityFrame)
		node := m.elementAssembly(name, nodePl)
		m.aggregate(parent, node)

		props := []psetProp{
			{"ContainerId", rec.ID},
			{"Level", depth + 1},
			{"Name", name},
		}
		if key != name {
			props = append(props, psetProp{"Key", key})
		}
		m.addPset(node, "Pset_AssemblyNode", props)

		cache[k] = node
		nodes++
		parent = node
	}

	ifcClass := classForCategory(rec.Category)
	var products []ref
	for _, part := range rec.Parts {
		mesh, err := part.Shape.TriMesh()
		if err != nil {
			return 0, 0, 0, &ExportError{UnitID: rec.ID, Err: fmt.Errorf("part %q: %w", part.Name, err)}
		}
		partPl := m.localPlacement(containerPl, identityFrame)
		prod, err := m.meshProduct(ifcClass, part.Name, partPl, mesh)
		if err != nil {
			return 0, 0, 0, &ExportError{UnitID: rec.ID, Err: fmt.Errorf("part %q: %w", part.Name, err)}
		}
		addPartPsets(m, prod, rec, part)
		products = append(products, prod)
	}

	m.aggregate(parent, products...)
	if parent == container {
		direct = len(products)
	} else {
		grouped = len(products)
	}
	return grouped, direct, nodes, nil
}

type nodeKey struct {
	parent ref
	key    string
}

func containerName(rec *unit.Record) string {
	if rec.Scope == unit.ScopeBulk {
		return "Bulk_" + rec.ID
	}
	return "Unit_" + rec.ID
}

func normalizeLevel(lvl unit.PathLevel) (name, key string) {
	name = strings.TrimSpace(lvl.Name)
	key = strings.TrimSpace(lvl.Key)
	if key == "" {
		key = name
	}
	if name == "" {
		name = key
	}
	return name, key
}

// classForCategory maps an element category to its IFC product class.
func classForCategory(category string) string {
	switch strings.ToLower(strings.TrimSpace(category)) {
	case "vertical":
		return "IFCMEMBER"
	case "horizontal":
		return "IFCBEAM"
	default:
		return "IFCBUILDINGELEMENTPROXY"
	}
}

func addPartPsets(m *model, prod ref, rec *unit.Record, part unit.Part) {
	scope := "UNIT"
	if rec.Scope == unit.ScopeBulk {
		scope = "BULK"
	}
	m.addPset(prod, "Pset_CWIdentity", []psetProp{
		{"Scope", scope},
		{"UnitId", rec.ID},
		{"PartNo", part.Props.PartNo},
		{"Category", rec.Category},
		{"SourceGuid", part.Props.SourceGUID},
	})
	m.addPset(prod, "Pset_CWDimensions", []psetProp{
		{"Length_mm", part.Props.LengthMM},
		{"Width_mm", part.Props.WidthMM},
		{"Radius_mm", part.Props.RadiusMM},
	})
	m.addPset(prod, "Pset_CWMaterial", []psetProp{
		{"MaterialName", part.Props.Material},
	})
	m.addPset(prod, "Pset_CWSurfaceFinish", []psetProp{
		{"FinishType", part.Props.FinishType},
		{"FinishThickness_um", part.Props.FinishThicknessUM},
	})
	m.addPset(prod, "Pset_CWAppearance", []psetProp{
		{"ColorCode", part.Props.ColorCode},
	})
}

// ResolveOutputPath normalizes a caller-supplied output path. A directory or
// extension-less path gets the default file name; any other extension is
// rewritten to .ifc. Parent directories are created.
func ResolveOutputPath(outPath, storey string) (string, error) {
	p := strings.TrimSpace(strings.Trim(strings.TrimSpace(outPath), `"`))
	if p == "" {
		p = "."
	}

	ext := filepath.Ext(p)
	if ext == "" || isDir(p) {
		if err := os.MkdirAll(p, 0o755); err != nil {
			return "", fmt.Errorf("create output directory: %w", err)
		}
		return filepath.Join(p, storey+"_multi_units.ifc"), nil
	}

	if dir := filepath.Dir(p); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create output directory: %w", err)
		}
	}
	if !strings.EqualFold(ext, ".ifc") {
		p = strings.TrimSuffix(p, ext) + ".ifc"
	}
	return p, nil
}

func isDir(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && fi.IsDir()
}

func writeFile(f *stepFile, path string) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := f.WriteTo(out); err != nil {
		out.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
