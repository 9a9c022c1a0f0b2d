package engine

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ============================================================================
// AGGREGATORS — Frequency, Cross-Tabulation and Ordering via RecordView
// ============================================================================
// Every record is counted exactly once per aggregation: empty or absent
// values land in the Unspecified bucket, so totals always equal view.Len().
// ============================================================================

// Frequency counts records by the value of field.
// Counts are ordered by descending count; ties keep first-encountered order.
func Frequency(view RecordView, field string, opts ...Option) Aggregation {
	cfg := applyOptions(opts)
	agg := Aggregation{Field: field, Total: view.Len()}
	if view.Len() == 0 {
		agg.Counts = []Count{}
		return agg
	}

	index := make(map[string]int)
	for i := 0; i < view.Len(); i++ {
		key := categoryValue(view, i, field, cfg)
		pos, exists := index[key]
		if !exists {
			pos = len(agg.Counts)
			index[key] = pos
			agg.Counts = append(agg.Counts, Count{Key: key})
		}
		agg.Counts[pos].Count++
	}

	SortCounts(agg.Counts, "count_desc")
	return agg
}

// CrossTabulate counts records by (primary, secondary) value pairs.
// For every primary value, the row total equals Frequency(view, primary).
func CrossTabulate(view RecordView, primary, secondary string, opts ...Option) CrossTab {
	cfg := applyOptions(opts)
	ct := CrossTab{Primary: primary, Secondary: secondary, Rows: []CrossTabRow{}}
	if view.Len() == 0 {
		return ct
	}

	rowIndex := make(map[string]int)
	cellIndex := make([]map[string]int, 0)
	for i := 0; i < view.Len(); i++ {
		p := categoryValue(view, i, primary, cfg)
		s := categoryValue(view, i, secondary, cfg)

		r, exists := rowIndex[p]
		if !exists {
			r = len(ct.Rows)
			rowIndex[p] = r
			ct.Rows = append(ct.Rows, CrossTabRow{Key: p})
			cellIndex = append(cellIndex, make(map[string]int))
		}
		row := &ct.Rows[r]
		c, exists := cellIndex[r][s]
		if !exists {
			c = len(row.Cells)
			cellIndex[r][s] = c
			row.Cells = append(row.Cells, Count{Key: s})
		}
		row.Cells[c].Count++
		row.Total++
	}

	sort.SliceStable(ct.Rows, func(i, j int) bool { return ct.Rows[i].Total > ct.Rows[j].Total })
	return ct
}

// CountNonEmpty counts records where field holds a non-blank value.
// Used for flag-style columns such as an award marker or a registry number.
func CountNonEmpty(view RecordView, field string) int {
	if field == "" {
		return 0
	}
	n := 0
	for i := 0; i < view.Len(); i++ {
		if strings.TrimSpace(view.Field(i, field)) != "" {
			n++
		}
	}
	return n
}

// DistinctValues returns distinct non-empty values for a field in first-seen order.
func DistinctValues(view RecordView, field string) []string {
	seen := make(map[string]bool)
	var result []string
	for i := 0; i < view.Len(); i++ {
		val := strings.TrimSpace(view.Field(i, field))
		if val != "" && !seen[val] {
			seen[val] = true
			result = append(result, val)
		}
	}
	return result
}

func categoryValue(view RecordView, i int, field string, cfg *config) string {
	if field == "" {
		return cfg.Unspecified
	}
	v := strings.TrimSpace(view.Field(i, field))
	if v == "" {
		return cfg.Unspecified
	}
	return v
}

// ============================================================================
// CHRONOLOGICAL ORDERING
// ============================================================================

// Chronological returns the buckets whose key is an integer (e.g. a year),
// sorted ascending by value. Non-numeric keys are left out of this ordering
// but remain in the aggregation itself.
func (a Aggregation) Chronological() []Count {
	out := make([]Count, 0, len(a.Counts))
	for _, c := range a.Counts {
		if _, ok := ParseYear(c.Key); ok {
			out = append(out, c)
		}
	}
	SortCounts(out, "chronological")
	return out
}

// YearSpan reports the first and last numeric key of an aggregation.
func YearSpan(a Aggregation) (Span, bool) {
	chrono := a.Chronological()
	if len(chrono) == 0 {
		return Span{}, false
	}
	first, _ := ParseYear(chrono[0].Key)
	last, _ := ParseYear(chrono[len(chrono)-1].Key)
	return Span{First: first, Last: last, Years: last - first + 1}, true
}

// RecentTotals sums each primary row of a cross-tab over its most recent
// numeric secondary keys (lastN distinct years, newest first) and returns the
// top rows with a positive total. Ties keep cross-tab order.
func RecentTotals(ct CrossTab, lastN, top int) []Count {
	years := RecentYears(ct, lastN)
	recent := make(map[int]bool, len(years))
	for _, y := range years {
		recent[y] = true
	}

	out := make([]Count, 0, len(ct.Rows))
	for _, row := range ct.Rows {
		total := 0
		for _, cell := range row.Cells {
			if y, ok := ParseYear(cell.Key); ok && recent[y] {
				total += cell.Count
			}
		}
		if total > 0 {
			out = append(out, Count{Key: row.Key, Count: total})
		}
	}
	SortCounts(out, "count_desc")
	if top > 0 && len(out) > top {
		out = out[:top]
	}
	return out
}

// RecentYears returns the lastN most recent numeric secondary keys of a
// cross-tab, newest first. lastN <= 0 returns all of them.
func RecentYears(ct CrossTab, lastN int) []int {
	years := make([]int, 0)
	seen := make(map[int]bool)
	for _, key := range ct.SecondaryKeys() {
		if y, ok := ParseYear(key); ok && !seen[y] {
			seen[y] = true
			years = append(years, y)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	if lastN > 0 && len(years) > lastN {
		years = years[:lastN]
	}
	return years
}

// ParseYear parses a key made only of ASCII digits.
func ParseYear(key string) (int, bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		return 0, false
	}
	for _, r := range key {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(key)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ============================================================================
// SORTING
// ============================================================================

// SortCounts sorts buckets in place. All modes are stable.
func SortCounts(counts []Count, sortBy string) {
	switch sortBy {
	case "count_desc":
		sort.SliceStable(counts, func(i, j int) bool { return counts[i].Count > counts[j].Count })
	case "count_asc":
		sort.SliceStable(counts, func(i, j int) bool { return counts[i].Count < counts[j].Count })
	case "chronological":
		sort.SliceStable(counts, func(i, j int) bool { return sortableYear(counts[i].Key) < sortableYear(counts[j].Key) })
	case "reverse_chronological":
		sort.SliceStable(counts, func(i, j int) bool { return sortableYear(counts[i].Key) > sortableYear(counts[j].Key) })
	case "key_asc":
		sort.SliceStable(counts, func(i, j int) bool { return strings.ToLower(counts[i].Key) < strings.ToLower(counts[j].Key) })
	default:
		// preserve encounter order
	}
}

func sortableYear(key string) int {
	if y, ok := ParseYear(key); ok {
		return y
	}
	return math.MinInt
}

// ============================================================================
// FORMATTING UTILITIES
// ============================================================================

// Percent returns part/total in percent, or 0 when total is 0.
func Percent(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// Ratio returns part/total, or 0 when total is 0.
func Ratio(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(part) / float64(total)
}

// FormatInt formats an integer with comma separators.
func FormatInt(n int) string {
	if n < 0 {
		return "-" + FormatInt(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s,%03d", FormatInt(n/1000), n%1000)
}

// RoundTo1 rounds to 1 decimal place.
func RoundTo1(v float64) float64 {
	return math.Round(v*10) / 10
}

// LabelForField returns a capitalized label for a field name.
func LabelForField(field string) string {
	if len(field) == 0 {
		return ""
	}
	field = strings.ReplaceAll(field, "_", " ")
	return strings.ToUpper(field[:1]) + field[1:]
}
