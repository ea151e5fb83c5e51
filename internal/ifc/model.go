package ifc

import (
	"fmt"
	"path/filepath"

	"panelforge/internal/geometry"
)

// model wraps a stepFile with the spatial skeleton every export shares:
// project, units, representation contexts and the site/building/storey chain.
type model struct {
	f *stepFile

	bodyCtx         ref
	storey          ref
	storeyPlacement ref
}

func newModel(storeyName string, elevationMM float64, outPath string) *model {
	f := newStepFile("IFC4", filepath.Base(outPath), "panelforge")
	m := &model{f: f}

	origin := f.add("IFCCARTESIANPOINT", list(0., 0., 0.))
	worldAxis := f.add("IFCAXIS2PLACEMENT3D", origin, nil, nil)
	ctx := f.add("IFCGEOMETRICREPRESENTATIONCONTEXT", nil, "Model", 3, 1.0e-5, worldAxis, nil)
	m.bodyCtx = f.add("IFCGEOMETRICREPRESENTATIONSUBCONTEXT",
		"Body", "Model", star, star, star, star, ctx, nil, enum("MODEL_VIEW"), nil)

	lengthUnit := f.add("IFCSIUNIT", star, enum("LENGTHUNIT"), enum("MILLI"), enum("METRE"))
	areaUnit := f.add("IFCSIUNIT", star, enum("AREAUNIT"), nil, enum("SQUARE_METRE"))
	volumeUnit := f.add("IFCSIUNIT", star, enum("VOLUMEUNIT"), nil, enum("CUBIC_METRE"))
	units := f.add("IFCUNITASSIGNMENT", refs(lengthUnit, areaUnit, volumeUnit))

	project := f.add("IFCPROJECT", NewGUID(), nil, storeyName+"_Export",
		nil, nil, nil, nil, refs(ctx), units)

	sitePl := m.localPlacement(0, geometry.IdentityPlacement())
	site := f.add("IFCSITE", NewGUID(), nil, "Default Site", nil, nil, sitePl,
		nil, nil, enum("ELEMENT"), nil, nil, nil, nil, nil)

	buildingPl := m.localPlacement(sitePl, geometry.IdentityPlacement())
	building := f.add("IFCBUILDING", NewGUID(), nil, "Default Building", nil, nil, buildingPl,
		nil, nil, enum("ELEMENT"), nil, nil, nil)

	m.storeyPlacement = m.localPlacement(buildingPl, geometry.Placement{
		Origin: geometry.Vec3{Z: elevationMM},
	})
	m.storey = f.add("IFCBUILDINGSTOREY", NewGUID(), nil, storeyName, nil, nil, m.storeyPlacement,
		nil, nil, enum("ELEMENT"), elevationMM)

	m.aggregate(project, site)
	m.aggregate(site, building)
	m.aggregate(building, m.storey)

	return m
}

// localPlacement builds an IfcLocalPlacement for a frame, optionally relative
// to a parent placement (0 means world).
func (m *model) localPlacement(parent ref, pl geometry.Placement) ref {
	pl = pl.Normalized()
	point := m.f.add("IFCCARTESIANPOINT", list(pl.Origin.X, pl.Origin.Y, pl.Origin.Z))

	// Explicit axes only when the frame is rotated; unrotated frames rely
	// on the schema defaults.
	var axis, refDir any
	if pl.ZAxis != (geometry.Vec3{X: 0, Y: 0, Z: 1}) || pl.XAxis != (geometry.Vec3{X: 1, Y: 0, Z: 0}) {
		axis = m.f.add("IFCDIRECTION", list(pl.ZAxis.X, pl.ZAxis.Y, pl.ZAxis.Z))
		refDir = m.f.add("IFCDIRECTION", list(pl.XAxis.X, pl.XAxis.Y, pl.XAxis.Z))
	}
	axis2 := m.f.add("IFCAXIS2PLACEMENT3D", point, axis, refDir)

	var parentArg any
	if parent != 0 {
		parentArg = parent
	}
	return m.f.add("IFCLOCALPLACEMENT", parentArg, axis2)
}

// aggregate relates children to a parent via IfcRelAggregates.
func (m *model) aggregate(parent ref, children ...ref) {
	m.f.add("IFCRELAGGREGATES", NewGUID(), nil, nil, nil, parent, refs(children...))
}

// containInStorey assigns products to the storey's spatial structure.
func (m *model) containInStorey(products ...ref) {
	m.f.add("IFCRELCONTAINEDINSPATIALSTRUCTURE", NewGUID(), nil, nil, nil,
		refs(products...), m.storey)
}

// elementAssembly creates a named IfcElementAssembly at a placement.
func (m *model) elementAssembly(name string, placement ref) ref {
	return m.f.add("IFCELEMENTASSEMBLY", NewGUID(), nil, name, nil, nil,
		placement, nil, nil, nil, enum("NOTDEFINED"))
}

// meshProduct creates one product entity with a faceted-brep body built from
// the triangle mesh.
func (m *model) meshProduct(ifcClass, name string, placement ref, mesh *geometry.TriMesh) (ref, error) {
	if mesh.Empty() {
		return 0, fmt.Errorf("empty mesh")
	}
	if err := mesh.CheckFaces(); err != nil {
		return 0, err
	}

	points := make([]ref, len(mesh.Vertices))
	for i, v := range mesh.Vertices {
		points[i] = m.f.add("IFCCARTESIANPOINT", list(v.X, v.Y, v.Z))
	}

	faces := make([]ref, 0, len(mesh.Faces))
	for _, face := range mesh.Faces {
		loop := m.f.add("IFCPOLYLOOP", refs(points[face[0]], points[face[1]], points[face[2]]))
		bound := m.f.add("IFCFACEOUTERBOUND", loop, true)
		faces = append(faces, m.f.add("IFCFACE", refs(bound)))
	}

	shell := m.f.add("IFCCLOSEDSHELL", refs(faces...))
	brep := m.f.add("IFCFACETEDBREP", shell)
	rep := m.f.add("IFCSHAPEREPRESENTATION", m.bodyCtx, "Body", "Brep", refs(brep))
	shape := m.f.add("IFCPRODUCTDEFINITIONSHAPE", nil, nil, refs(rep))

	return m.f.add(ifcClass, NewGUID(), nil, name, nil, nil, placement, shape, nil, nil), nil
}

// psetProp is a name/value pair for a property set. Nil and empty values are
// skipped at emission.
type psetProp struct {
	name  string
	value any
}

// addPset attaches a property set to a product. Properties with empty values
// are dropped; a pset that ends up empty is not created at all.
func (m *model) addPset(product ref, name string, props []psetProp) bool {
	vals := make([]ref, 0, len(props))
	for _, p := range props {
		tv, ok := psetValue(p.value)
		if !ok {
			continue
		}
		vals = append(vals, m.f.add("IFCPROPERTYSINGLEVALUE", p.name, nil, tv, nil))
	}
	if len(vals) == 0 {
		return false
	}
	pset := m.f.add("IFCPROPERTYSET", NewGUID(), nil, name, nil, refs(vals...))
	m.f.add("IFCRELDEFINESBYPROPERTIES", NewGUID(), nil, nil, nil, refs(product), pset)
	return true
}

func psetValue(v any) (typed, bool) {
	switch x := v.(type) {
	case string:
		if x == "" {
			return typed{}, false
		}
		return typed{"IFCTEXT", x}, true
	case float64:
		if x == 0 {
			return typed{}, false
		}
		return typed{"IFCREAL", x}, true
	case int:
		if x == 0 {
			return typed{}, false
		}
		return typed{"IFCINTEGER", x}, true
	default:
		return typed{}, false
	}
}
