// Package unit defines the payload contract shared by the builder, the
// assembly annotator and the IFC exporter.
package unit

import (
	"fmt"
	"strings"

	"panelforge/internal/geometry"
)

// Scope classifies how a record's parts are containered in the IFC output:
// one prefabricated unit, or a loose bulk group.
type Scope string

const (
	ScopeUnit Scope = "unit"
	ScopeBulk Scope = "bulk"
)

// DefaultCategory is used when no element category is supplied.
const DefaultCategory = "Unspecified"

// PathLevel is one level of an assembly hierarchy path, root first. Key
// distinguishes same-named levels across units; it defaults to Name.
type PathLevel struct {
	Name string
	Key  string
}

// Props carries fabrication metadata for one part. Zero values are omitted
// from the exported property sets.
type Props struct {
	PartNo            string
	SourceGUID        string
	LengthMM          float64
	WidthMM           float64
	RadiusMM          float64
	Material          string
	FinishType        string
	FinishThicknessUM float64
	ColorCode         string
}

// Part is one named geometry reference within a record. The shape is
// externally owned and never copied.
type Part struct {
	Name  string
	Shape geometry.Meshable
	Props Props
}

// Record is the per-unit payload passed through the pipeline: the unit's
// identity and parts, the placement frame shared by all its geometry, and
// the assembly path set by the annotator (empty by default).
type Record struct {
	ID           string
	Name         string
	Category     string
	Scope        Scope
	Placement    geometry.Placement
	Parts        []Part
	AssemblyPath []PathLevel
}

// Batch is an ordered sequence of records, the sole unit of work passed to
// the exporter. Records are discarded after export; nothing persists between
// runs.
type Batch []*Record

// ValidationError reports a malformed record.
type ValidationError struct {
	ID     string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.ID == "" {
		return "invalid record: " + e.Reason
	}
	return fmt.Sprintf("invalid record %q: %s", e.ID, e.Reason)
}

// NewRecord constructs a unit-scoped record. It fails when the id is empty,
// the part list is empty, or a part carries no shape. Geometry is not
// validated beyond presence; mesh correctness is the caller's responsibility.
func NewRecord(id string, parts []Part, placement geometry.Placement) (*Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, &ValidationError{Reason: "empty unit id"}
	}
	if len(parts) == 0 {
		return nil, &ValidationError{ID: id, Reason: "no geometry"}
	}
	for i, p := range parts {
		if p.Shape == nil {
			return nil, &ValidationError{ID: id, Reason: fmt.Sprintf("part %d has no shape", i)}
		}
	}
	return &Record{
		ID:        id,
		Name:      id,
		Category:  DefaultCategory,
		Scope:     ScopeUnit,
		Placement: placement.Normalized(),
		Parts:     parts,
	}, nil
}
