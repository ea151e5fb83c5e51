package manifest

import (
	"strings"
	"testing"
	"testing/fstest"

	"panelforge/internal/unit"
)

const triangleOBJ = `v 0 0 0
v 100 0 0
v 0 100 0
f 1 2 3
`

func meshFS() fstest.MapFS {
	return fstest.MapFS{
		"meshes/mull.obj":  {Data: []byte(triangleOBJ)},
		"meshes/trans.obj": {Data: []byte(triangleOBJ)},
		"meshes/rail.obj":  {Data: []byte(triangleOBJ)},
	}
}

const sampleManifest = `
storey: Level2
elevation_mm: 3500
units:
  - id: U1
    category: vertical
    placement:
      origin: [1000, 0, 0]
    parts:
      - name: MULL-A_3f2c91
        mesh: meshes/mull.obj
        material: AL6063
        dims: {l: 2400, w: 60}
  - id: U2
    category: horizontal
    parts:
      - mesh: meshes/trans.obj
bulk:
  - container_id: SITE-A
    category: horizontal
    parts:
      - name: rail
        mesh: meshes/rail.obj
hierarchy:
  U1: [Facade, Level2]
`

func TestLoad_Valid(t *testing.T) {
	m, err := Load(strings.NewReader(sampleManifest))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Storey != "Level2" || m.ElevationMM != 3500 {
		t.Errorf("storey fields: %q / %v", m.Storey, m.ElevationMM)
	}
	if len(m.Units) != 2 || len(m.Bulk) != 1 {
		t.Fatalf("expected 2 units / 1 bulk, got %d / %d", len(m.Units), len(m.Bulk))
	}
	if m.Units[0].Parts[0].Dims.L != 2400 {
		t.Errorf("expected dims parsed, got %+v", m.Units[0].Parts[0].Dims)
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"empty", "storey: S\n"},
		{"missing id", "units:\n  - parts:\n      - mesh: a.obj\n"},
		{"no parts", "units:\n  - id: U1\n"},
		{"missing mesh", "units:\n  - id: U1\n    parts:\n      - name: p\n"},
		{"bad extension", "units:\n  - id: U1\n    parts:\n      - mesh: a.step\n"},
		{"bulk missing category", "bulk:\n  - container_id: B1\n    parts:\n      - mesh: a.obj\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(strings.NewReader(tc.yaml)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestResolve(t *testing.T) {
	m, err := Load(strings.NewReader(sampleManifest))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	batch, err := m.Resolve(meshFS())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(batch) != 3 {
		t.Fatalf("expected 3 records, got %d", len(batch))
	}

	u1 := batch[0]
	if u1.ID != "U1" || u1.Category != "vertical" {
		t.Errorf("U1: got id %q category %q", u1.ID, u1.Category)
	}
	if u1.Placement.Origin.X != 1000 {
		t.Errorf("U1: expected placement origin x=1000, got %v", u1.Placement.Origin)
	}
	if got := u1.Parts[0]; got.Name != "MULL-A" || got.Props.SourceGUID != "3f2c91" {
		t.Errorf("U1 part: expected name split, got %+v", got)
	}
	if u1.Parts[0].Props.Material != "AL6063" || u1.Parts[0].Props.LengthMM != 2400 {
		t.Errorf("U1 part props: %+v", u1.Parts[0].Props)
	}
	if len(u1.AssemblyPath) != 2 || u1.AssemblyPath[0].Key != "Facade" {
		t.Errorf("U1: expected hierarchy applied, got %v", u1.AssemblyPath)
	}

	u2 := batch[1]
	// A part with no name falls back to its mesh path.
	if u2.Parts[0].Name != "meshes/trans.obj" {
		t.Errorf("U2 part name fallback: got %q", u2.Parts[0].Name)
	}
	if len(u2.AssemblyPath) != 0 {
		t.Errorf("U2: expected no hierarchy, got %v", u2.AssemblyPath)
	}

	b := batch[2]
	if b.Scope != unit.ScopeBulk || b.ID != "SITE-A" {
		t.Errorf("bulk record: %+v", b)
	}
}

func TestResolve_MergesDuplicateBulk(t *testing.T) {
	src := `
bulk:
  - container_id: SITE-A
    category: horizontal
    parts:
      - name: rail
        mesh: meshes/rail.obj
  - container_id: SITE-A
    category: vertical
    parts:
      - name: post
        mesh: meshes/mull.obj
  - container_id: SITE-B
    category: horizontal
    parts:
      - name: rail2
        mesh: meshes/trans.obj
`
	m, err := Load(strings.NewReader(src))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	batch, err := m.Resolve(meshFS())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(batch) != 2 {
		t.Fatalf("expected duplicate container ids merged into 2 records, got %d", len(batch))
	}

	a := batch[0]
	if a.ID != "SITE-A" || len(a.Parts) != 2 {
		t.Errorf("SITE-A: expected 2 merged parts, got %+v", a)
	}
	// First group's category wins.
	if a.Category != "horizontal" {
		t.Errorf("SITE-A: expected category horizontal, got %q", a.Category)
	}
	if a.Parts[0].Name != "rail" || a.Parts[1].Name != "post" {
		t.Errorf("SITE-A: expected declaration order kept, got %v", a.Parts)
	}
	if batch[1].ID != "SITE-B" || len(batch[1].Parts) != 1 {
		t.Errorf("SITE-B: %+v", batch[1])
	}
}

func TestResolve_Wrap(t *testing.T) {
	src := sampleManifest + `wrap:
  name: Tower
  key_suffix: east
`
	m, err := Load(strings.NewReader(src))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	batch, err := m.Resolve(meshFS())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	for _, rec := range batch {
		if len(rec.AssemblyPath) == 0 || rec.AssemblyPath[0].Key != "Tower|east" {
			t.Errorf("%s: expected outermost Tower|east, got %v", rec.ID, rec.AssemblyPath)
		}
	}
	// U1 keeps its hierarchy below the wrap level.
	if u1 := batch[0]; len(u1.AssemblyPath) != 3 || u1.AssemblyPath[1].Key != "Facade" {
		t.Errorf("U1: expected [Tower|east Facade Level2], got %v", batch[0].AssemblyPath)
	}
}

func TestResolve_MissingMesh(t *testing.T) {
	m, err := Load(strings.NewReader(sampleManifest))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	fsys := meshFS()
	delete(fsys, "meshes/trans.obj")
	if _, err := m.Resolve(fsys); err == nil {
		t.Error("expected error for missing mesh file")
	} else if !strings.Contains(err.Error(), "U2") {
		t.Errorf("expected error naming the unit, got %v", err)
	}
}

func TestMeshFiles(t *testing.T) {
	m, err := Load(strings.NewReader(sampleManifest))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	got := m.MeshFiles()
	want := []string{"meshes/mull.obj", "meshes/trans.obj", "meshes/rail.obj"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("mesh %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestLoadHierarchyCSV(t *testing.T) {
	src := `unit_id,level1,level2
U1,Facade,Level2
U2,Facade
U3,
`
	h, err := LoadHierarchyCSV(strings.NewReader(src))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(h) != 2 {
		t.Fatalf("expected 2 entries, got %d (%v)", len(h), h)
	}
	if len(h["U1"]) != 2 || h["U1"][0] != "Facade" || h["U1"][1] != "Level2" {
		t.Errorf("U1: got %v", h["U1"])
	}
	if len(h["U2"]) != 1 || h["U2"][0] != "Facade" {
		t.Errorf("U2: got %v", h["U2"])
	}
	if _, ok := h["U3"]; ok {
		t.Error("expected label-less row dropped")
	}
}

func TestLoadHierarchyCSV_DuplicateID(t *testing.T) {
	src := "U1,Facade\nU1,Other\n"
	if _, err := LoadHierarchyCSV(strings.NewReader(src)); err == nil {
		t.Error("expected error for duplicate unit id")
	}
}
