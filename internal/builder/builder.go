// Package builder groups raw host inputs into per-unit records.
//
// Visual hosts deliver inputs as flattened parallel arrays (one list of ids,
// one list of part groups, one list of placements); the builder tolerates
// that calling convention but refuses to silently truncate when the lists
// disagree in length.
package builder

import (
	"fmt"
	"strings"

	"panelforge/internal/geometry"
	"panelforge/internal/unit"
)

// MismatchedLengthError reports parallel input lists of differing lengths.
type MismatchedLengthError struct {
	IDs        int
	PartGroups int
	Placements int
}

func (e *MismatchedLengthError) Error() string {
	return fmt.Sprintf("mismatched input lengths: %d ids, %d part groups, %d placements",
		e.IDs, e.PartGroups, e.Placements)
}

// Build groups parallel arrays into one record per unit. Output order matches
// input order. Ids must be unique within one call; geometry is not inspected
// beyond non-emptiness.
func Build(ids []string, partGroups [][]unit.Part, placements []geometry.Placement) (unit.Batch, error) {
	if len(ids) != len(partGroups) || len(ids) != len(placements) {
		return nil, &MismatchedLengthError{
			IDs:        len(ids),
			PartGroups: len(partGroups),
			Placements: len(placements),
		}
	}

	seen := make(map[string]struct{}, len(ids))
	batch := make(unit.Batch, 0, len(ids))
	for i, id := range ids {
		rec, err := unit.NewRecord(id, partGroups[i], placements[i])
		if err != nil {
			return nil, err
		}
		if _, dup := seen[rec.ID]; dup {
			return nil, &unit.ValidationError{ID: rec.ID, Reason: "duplicate unit id"}
		}
		seen[rec.ID] = struct{}{}
		batch = append(batch, rec)
	}
	return batch, nil
}

// BuildBulk groups loose parts that belong to no unit under a single bulk
// container record.
func BuildBulk(containerID, category string, parts []unit.Part, placement geometry.Placement) (*unit.Record, error) {
	containerID = strings.TrimSpace(containerID)
	if containerID == "" {
		return nil, &unit.ValidationError{Reason: "empty bulk container id"}
	}
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, &unit.ValidationError{ID: containerID, Reason: "bulk group requires a category"}
	}
	rec, err := unit.NewRecord(containerID, parts, placement)
	if err != nil {
		return nil, err
	}
	rec.Scope = unit.ScopeBulk
	rec.Category = category
	return rec, nil
}

// SplitPartName splits a raw part name following the "<PartNo>_<SourceGUID>"
// convention. Names without an underscore have no source GUID.
func SplitPartName(raw string) (partNo, sourceGUID string) {
	if i := strings.LastIndex(raw, "_"); i >= 0 {
		return raw[:i], raw[i+1:]
	}
	return raw, ""
}

// NewPart wraps a shape into a part, deriving PartNo and SourceGUID from the
// raw name.
func NewPart(rawName string, shape geometry.Meshable, props unit.Props) unit.Part {
	partNo, guid := SplitPartName(rawName)
	props.PartNo = partNo
	if guid != "" {
		props.SourceGUID = guid
	}
	return unit.Part{
		Name:  partNo,
		Shape: shape,
		Props: props,
	}
}
