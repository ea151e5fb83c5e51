package manifest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// LoadHierarchyCSV reads an assembly hierarchy from CSV rows of the form
// "unit_id,label,label,...", labels ordered root first. A header row whose
// first cell is "unit_id" is skipped. Rows with no labels are ignored.
func LoadHierarchyCSV(r io.Reader) (map[string][]string, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse hierarchy csv: %w", err)
	}

	hierarchy := make(map[string][]string)
	for i, row := range records {
		if len(row) == 0 {
			continue
		}
		id := strings.TrimSpace(row[0])
		if id == "" {
			continue
		}
		if i == 0 && strings.EqualFold(id, "unit_id") {
			continue
		}
		var labels []string
		for _, cell := range row[1:] {
			cell = strings.TrimSpace(cell)
			if cell != "" {
				labels = append(labels, cell)
			}
		}
		if len(labels) == 0 {
			continue
		}
		if _, dup := hierarchy[id]; dup {
			return nil, fmt.Errorf("hierarchy csv row %d: duplicate unit id %q", i+1, id)
		}
		hierarchy[id] = labels
	}
	return hierarchy, nil
}
