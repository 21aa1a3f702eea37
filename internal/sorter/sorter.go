// Package sorter orders a schema's tables so that every foreign key's
// referenced table precedes the table that declares it (spec.md §4.3).
package sorter

import (
	"fmt"
	"sort"

	"github.com/fluxef/dbforge/internal/schema"
)

// CircularDependencyError reports that the foreign-key graph could not be
// linearised (spec.md §7, kind 4). No partial order is returned alongside
// this error.
type CircularDependencyError struct {
	Tables []string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("circular foreign-key dependency involving tables: %v", e.Tables)
}

// Sort returns a permutation of s.Tables such that for every foreign key
// T.col -> R.ref_col with R present in the schema, R precedes T in the
// result. Foreign keys that reference a table absent from the schema are
// ignored. On success the input schema is left untouched; the caller
// replaces Tables with the returned slice (spec.md §3, "Lifecycles").
func Sort(s *schema.Schema) ([]*schema.Table, error) {
	byName := make(map[string]*schema.Table, len(s.Tables))
	for _, t := range s.Tables {
		byName[t.Name] = t
	}

	// edges[parent] = children that must come after parent.
	edges := make(map[string][]string, len(s.Tables))
	indegree := make(map[string]int, len(s.Tables))
	for _, t := range s.Tables {
		indegree[t.Name] = 0
	}
	for _, t := range s.Tables {
		for _, fk := range t.ForeignKeys {
			if _, ok := byName[fk.ReferencedTable]; !ok {
				continue // reference to a table outside the schema: ignore the edge
			}
			edges[fk.ReferencedTable] = append(edges[fk.ReferencedTable], t.Name)
			indegree[t.Name]++
		}
	}

	// Deterministic order: process zero-indegree tables in schema order, so
	// that a schema with no foreign keys sorts as a no-op; the tables freed
	// by each processed table are appended in lexicographic name order.
	order := make([]string, 0, len(s.Tables))
	var queue []string
	for _, t := range s.Tables {
		if indegree[t.Name] == 0 {
			queue = append(queue, t.Name)
		}
	}

	remaining := map[string]int{}
	for k, v := range indegree {
		remaining[k] = v
	}

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		order = append(order, name)

		children := append([]string(nil), edges[name]...)
		sort.Strings(children) // stable regardless of map/edge insertion order
		for _, child := range children {
			remaining[child]--
			if remaining[child] == 0 {
				queue = append(queue, child)
			}
		}
	}

	if len(order) != len(s.Tables) {
		var stuck []string
		for name, deg := range remaining {
			if deg > 0 {
				stuck = append(stuck, name)
			}
		}
		sort.Strings(stuck)
		return nil, &CircularDependencyError{Tables: stuck}
	}

	result := make([]*schema.Table, len(order))
	for i, name := range order {
		result[i] = byName[name]
	}
	return result, nil
}
