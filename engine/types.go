package engine

// ============================================================================
// ENGINE TYPES — Records and categorical aggregates
// ============================================================================
// A Record is one normalized CSV row. Field names are data: the engine never
// assumes a particular schema, so the same code serves catalog exports and
// laureate listings whose headers change with the source file.
//
// Dependency: engine has ZERO external dependencies.
// ============================================================================

// Unspecified is the default bucket for empty or absent category values.
const Unspecified = "unspecified"

// ============================================================================
// RECORD — one row, field name → value
// ============================================================================

// Record maps a field name to its string value. Values are never nil-like:
// an absent field reads as "".
type Record map[string]string

// Get returns the value of field, or "" when the field is absent.
func (r Record) Get(field string) string {
	if r == nil {
		return ""
	}
	return r[field]
}

// Has reports whether the field exists in the record, even if empty.
func (r Record) Has(field string) bool {
	_, ok := r[field]
	return ok
}

// IsEmpty reports whether every value in the record is empty.
func (r Record) IsEmpty() bool {
	for _, v := range r {
		if v != "" {
			return false
		}
	}
	return true
}

// Clone returns a shallow copy so callers can attach derived fields
// without touching the loaded record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// ============================================================================
// AGGREGATION — frequency counts for one field
// ============================================================================

// Count is a single category bucket.
type Count struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Aggregation is a frequency table over one field.
// Counts is ordered by descending count; ties keep first-encountered order.
type Aggregation struct {
	Field  string  `json:"field"`
	Total  int     `json:"total"`
	Counts []Count `json:"counts"`
}

// Len returns the number of distinct categories.
func (a Aggregation) Len() int { return len(a.Counts) }

// Get returns the count for key (0 when absent).
func (a Aggregation) Get(key string) int {
	for _, c := range a.Counts {
		if c.Key == key {
			return c.Count
		}
	}
	return 0
}

// Sum adds every bucket. Equals Total for a full (untruncated) aggregation.
func (a Aggregation) Sum() int {
	n := 0
	for _, c := range a.Counts {
		n += c.Count
	}
	return n
}

// Map returns the aggregation as an unordered map.
func (a Aggregation) Map() map[string]int {
	m := make(map[string]int, len(a.Counts))
	for _, c := range a.Counts {
		m[c.Key] = c.Count
	}
	return m
}

// Keys returns category keys in aggregation order.
func (a Aggregation) Keys() []string {
	keys := make([]string, len(a.Counts))
	for i, c := range a.Counts {
		keys[i] = c.Key
	}
	return keys
}

// Top returns the n highest-count categories. Total is preserved so
// percentages stay relative to the full collection. n <= 0 returns a copy.
func (a Aggregation) Top(n int) Aggregation {
	out := Aggregation{Field: a.Field, Total: a.Total}
	counts := a.Counts
	if n > 0 && len(counts) > n {
		counts = counts[:n]
	}
	out.Counts = append([]Count(nil), counts...)
	return out
}

// Percent returns the share of key relative to Total, in percent.
func (a Aggregation) Percent(key string) float64 {
	return Percent(a.Get(key), a.Total)
}

// ============================================================================
// CROSS-TABULATION — primary × secondary counts
// ============================================================================

// CrossTabRow holds the secondary breakdown for one primary value.
// Total always equals the sum of Cells.
type CrossTabRow struct {
	Key   string  `json:"key"`
	Total int     `json:"total"`
	Cells []Count `json:"cells"`
}

// CrossTab is a two-dimensional frequency table.
// Rows are ordered like Frequency(primary); cells like first encounter.
type CrossTab struct {
	Primary   string        `json:"primary"`
	Secondary string        `json:"secondary"`
	Rows      []CrossTabRow `json:"rows"`
}

// Get returns the count for a (primary, secondary) pair.
func (c CrossTab) Get(primary, secondary string) int {
	for _, row := range c.Rows {
		if row.Key != primary {
			continue
		}
		for _, cell := range row.Cells {
			if cell.Key == secondary {
				return cell.Count
			}
		}
		return 0
	}
	return 0
}

// Row returns the row for a primary value.
func (c CrossTab) Row(primary string) (CrossTabRow, bool) {
	for _, row := range c.Rows {
		if row.Key == primary {
			return row, true
		}
	}
	return CrossTabRow{}, false
}

// Map returns the nested primary → secondary → count mapping.
func (c CrossTab) Map() map[string]map[string]int {
	m := make(map[string]map[string]int, len(c.Rows))
	for _, row := range c.Rows {
		inner := make(map[string]int, len(row.Cells))
		for _, cell := range row.Cells {
			inner[cell.Key] = cell.Count
		}
		m[row.Key] = inner
	}
	return m
}

// SecondaryKeys returns the distinct secondary values in first-seen order.
func (c CrossTab) SecondaryKeys() []string {
	seen := make(map[string]bool)
	var keys []string
	for _, row := range c.Rows {
		for _, cell := range row.Cells {
			if !seen[cell.Key] {
				seen[cell.Key] = true
				keys = append(keys, cell.Key)
			}
		}
	}
	return keys
}

// ============================================================================
// YEAR SPAN
// ============================================================================

// Span describes the numeric range covered by a chronological aggregation.
type Span struct {
	First int `json:"first"`
	Last  int `json:"last"`
	Years int `json:"span"`
}
