package engine

import (
	"strings"
)

// ============================================================================
// FILTERS — Field-Based Filtering via RecordView
// ============================================================================
// Single-pass filter: checks ALL constraints per record in one loop.
// Returns a SubView (index list into parent) — zero data copy.
// ============================================================================

// Filters define which records to include.
// Keys are field names, values are allowed values (case-insensitive).
// OR within a field, AND across fields. Empty = all.
type Filters struct {
	Fields map[string][]string `json:"fields,omitempty" yaml:"fields,omitempty"`
	Range  *IntRange           `json:"range,omitempty" yaml:"range,omitempty"`
}

// IntRange keeps records whose Field parses as an integer within [Min, Max].
// A zero bound is open.
type IntRange struct {
	Field string `json:"field" yaml:"field"`
	Min   int    `json:"min,omitempty" yaml:"min,omitempty"`
	Max   int    `json:"max,omitempty" yaml:"max,omitempty"`
}

// HasFilter returns true if a specific field filter is set.
func (f Filters) HasFilter(field string) bool {
	if f.Fields == nil {
		return false
	}
	vals, ok := f.Fields[field]
	return ok && len(vals) > 0
}

// IsEmpty returns true if no filters are set.
func (f Filters) IsEmpty() bool {
	if f.Range != nil && f.Range.Field != "" {
		return false
	}
	for _, vals := range f.Fields {
		if len(vals) > 0 {
			return false
		}
	}
	return true
}

func (r *IntRange) contains(v string) bool {
	n, ok := ParseYear(v)
	if !ok {
		return false
	}
	if r.Min != 0 && n < r.Min {
		return false
	}
	if r.Max != 0 && n > r.Max {
		return false
	}
	return true
}

// ApplyFilters returns a view of records matching all filters.
// Empty filter = no restriction (returns original view).
func ApplyFilters(view RecordView, filters Filters) RecordView {
	if filters.IsEmpty() {
		return view
	}

	// Pre-build lowercase lookup sets for each field filter
	sets := make(map[string]map[string]bool)
	for field, allowed := range filters.Fields {
		if len(allowed) > 0 {
			sets[field] = toLowerSet(allowed)
		}
	}
	rng := filters.Range
	if rng != nil && rng.Field == "" {
		rng = nil
	}

	n := view.Len()
	indices := make([]int, 0, n)
	for i := 0; i < n; i++ {
		pass := true
		for field, set := range sets {
			val := strings.ToLower(strings.TrimSpace(view.Field(i, field)))
			if !set[val] {
				pass = false
				break
			}
		}
		if pass && rng != nil && !rng.contains(view.Field(i, rng.Field)) {
			pass = false
		}
		if pass {
			indices = append(indices, i)
		}
	}

	return newSubView(view, indices)
}

// toLowerSet converts a string slice to a lowercase lookup set.
func toLowerSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[strings.ToLower(strings.TrimSpace(item))] = true
	}
	return set
}
