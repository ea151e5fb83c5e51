// Package assembly attaches parent/child hierarchy labels to unit records.
// Annotation is additive and optional: an unannotated batch exports fine.
package assembly

import (
	"strings"

	"panelforge/internal/unit"
)

// Annotate sets the assembly path on every record whose id appears in
// hierarchy, root label first. Records without an entry pass through
// unchanged; a missing id is not an error, since not every unit needs
// assembly metadata. Applying the same map twice yields the same paths.
func Annotate(batch unit.Batch, hierarchy map[string][]string) unit.Batch {
	for _, rec := range batch {
		labels, ok := hierarchy[rec.ID]
		if !ok {
			continue
		}
		path := make([]unit.PathLevel, 0, len(labels))
		for _, l := range labels {
			l = strings.TrimSpace(l)
			if l == "" {
				continue
			}
			path = append(path, unit.PathLevel{Name: l, Key: l})
		}
		rec.AssemblyPath = path
	}
	return batch
}

// Wrap adds one hierarchy level to every record in the batch. A record with
// an existing path gets the level prepended as the new outermost grouping;
// a record with an empty path gets it as its first level. An empty name is a
// no-op. The key suffix disambiguates same-named levels ("Frame|north").
func Wrap(batch unit.Batch, name, keySuffix string) unit.Batch {
	name = strings.TrimSpace(name)
	if name == "" {
		return batch
	}
	level := unit.PathLevel{Name: name, Key: buildKey(name, keySuffix)}
	for _, rec := range batch {
		rec.AssemblyPath = wrapOuter(rec.AssemblyPath, level)
	}
	return batch
}

func buildKey(name, suffix string) string {
	suffix = strings.TrimSpace(suffix)
	if suffix == "" {
		return name
	}
	return name + "|" + suffix
}

// wrapOuter makes level the outermost entry, stably: existing occurrences of
// the same key are removed first, then consecutive duplicate keys collapsed.
// Wrapping with the same level twice is therefore idempotent.
func wrapOuter(path []unit.PathLevel, level unit.PathLevel) []unit.PathLevel {
	out := make([]unit.PathLevel, 0, len(path)+1)
	out = append(out, level)
	for _, lvl := range path {
		if lvl.Key == level.Key {
			continue
		}
		if lvl.Key == out[len(out)-1].Key {
			continue
		}
		out = append(out, lvl)
	}
	return out
}
