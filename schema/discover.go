package schema

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/spektr-org/opendata/engine"
)

// ============================================================================
// DISCOVERY — Column profiling for unfamiliar exports
// ============================================================================
// Inspects loaded records and describes each column so a mapping can be
// written by hand or accepted from SuggestMapping.
//
// Profiling pipeline per column:
//   1. Sample values → detect type (numeric, date, bool, string)
//   2. Distinct count → cardinality hint
//   3. Pattern matching → temporal columns (years, months, quarters)
//   4. Header substrings → suggested role
// ============================================================================

// DiscoverOptions controls profiling.
type DiscoverOptions struct {
	SampleSize int // max rows to inspect (0 = all). Default: 1000
	MaxSamples int // distinct example values kept per column. Default: 10
}

// DefaultDiscoverOptions returns sensible defaults.
func DefaultDiscoverOptions() DiscoverOptions {
	return DiscoverOptions{
		SampleSize: 1000,
		MaxSamples: 10,
	}
}

// ColumnProfile describes one column.
type ColumnProfile struct {
	Header          string   `json:"header"`
	Key             string   `json:"key"`
	DisplayName     string   `json:"displayName"`
	Type            string   `json:"type"` // string, numeric, date, bool
	Distinct        int      `json:"distinct"`
	Empty           int      `json:"empty"`
	EmptyRatio      float64  `json:"emptyRatio"`
	CardinalityHint string   `json:"cardinalityHint"` // low, medium, high
	IsTemporal      bool     `json:"isTemporal,omitempty"`
	TemporalFormat  string   `json:"temporalFormat,omitempty"`
	SampleValues    []string `json:"sampleValues"`
	Role            string   `json:"role,omitempty"` // suggested mapping role
}

// DatasetProfile is the result of Discover.
type DatasetProfile struct {
	Name      string          `json:"name"`
	Kind      string          `json:"kind"` // catalog or laureates
	Rows      int             `json:"rows"`
	Sampled   int             `json:"sampled"`
	Columns   []ColumnProfile `json:"columns"`
	Suggested FieldMapping    `json:"suggestedMapping"`
}

// Discover profiles the columns of header over the records in view.
func Discover(name string, header []string, view engine.RecordView, opts ...DiscoverOptions) *DatasetProfile {
	opt := DefaultDiscoverOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}
	if opt.MaxSamples <= 0 {
		opt.MaxSamples = 10
	}

	rows := view.Len()
	limit := rows
	if opt.SampleSize > 0 && opt.SampleSize < rows {
		limit = opt.SampleSize
	}

	suggested := SuggestMapping(header)
	roleOf := make(map[string]string)
	for _, r := range suggested.Roles() {
		if r.Field != "" {
			roleOf[r.Field] = r.Name
		}
	}

	profile := &DatasetProfile{
		Name:      name,
		Kind:      GuessKind(header),
		Rows:      rows,
		Sampled:   limit,
		Columns:   make([]ColumnProfile, len(header)),
		Suggested: suggested,
	}
	for i, h := range header {
		col := analyzeColumn(h, view, limit, opt.MaxSamples)
		col.Role = roleOf[h]
		profile.Columns[i] = col
	}
	return profile
}

// GuessKind reports KindCatalog when the header carries catalog text
// columns (title and description), KindLaureates otherwise.
func GuessKind(header []string) string {
	var title, desc bool
	for _, h := range header {
		switch Fold(h) {
		case "title", "titre":
			title = true
		case "description":
			desc = true
		}
	}
	if title && desc {
		return KindCatalog
	}
	return KindLaureates
}

// ============================================================================
// COLUMN ANALYSIS
// ============================================================================

type columnType int

const (
	typeString columnType = iota
	typeNumeric
	typeDate
	typeBool
)

func (t columnType) String() string {
	switch t {
	case typeNumeric:
		return "numeric"
	case typeDate:
		return "date"
	case typeBool:
		return "bool"
	default:
		return "string"
	}
}

// analyzeColumn inspects the first limit values of a column.
func analyzeColumn(header string, view engine.RecordView, limit, maxSamples int) ColumnProfile {
	col := ColumnProfile{
		Header:      header,
		Key:         toSnakeCase(Fold(header)),
		DisplayName: toDisplayName(header),
	}

	values := make([]string, 0, limit)
	uniqueSet := make(map[string]bool)
	for i := 0; i < limit; i++ {
		val := strings.TrimSpace(view.Field(i, header))
		if isNull(val) {
			col.Empty++
			continue
		}
		values = append(values, val)
		uniqueSet[val] = true
	}

	col.Distinct = len(uniqueSet)
	col.EmptyRatio = engine.RoundTo1(engine.Percent(col.Empty, limit)) / 100
	col.SampleValues = collectSamples(uniqueSet, maxSamples)

	ct := detectType(values)
	col.Type = ct.String()
	switch ct {
	case typeDate:
		col.IsTemporal = true
		col.TemporalFormat = detectTemporalFormat(col.SampleValues)
	case typeString, typeNumeric:
		col.IsTemporal, col.TemporalFormat = detectTemporalPattern(col.SampleValues)
	}

	switch {
	case col.Distinct <= 10:
		col.CardinalityHint = "low"
	case col.Distinct <= 100:
		col.CardinalityHint = "medium"
	default:
		col.CardinalityHint = "high"
	}
	return col
}

func isNull(v string) bool {
	switch v {
	case "", "null", "NULL", "N/A", "n/a":
		return true
	}
	return false
}

// ============================================================================
// TYPE DETECTION
// ============================================================================

// detectType inspects values to determine column type.
// Requires 80%+ of non-null values to match for numeric/date/bool.
func detectType(values []string) columnType {
	if len(values) == 0 {
		return typeString
	}

	numCount := 0
	dateCount := 0
	boolCount := 0

	for _, v := range values {
		if isNumeric(v) {
			numCount++
		}
		if isDate(v) {
			dateCount++
		}
		if isBool(v) {
			boolCount++
		}
	}

	threshold := int(float64(len(values)) * 0.8)

	if boolCount >= threshold {
		return typeBool
	}
	// A bare year parses as a date; keep it numeric so it reads as a year.
	if dateCount >= threshold && numCount < threshold {
		return typeDate
	}
	if numCount >= threshold {
		return typeNumeric
	}
	return typeString
}

func isNumeric(s string) bool {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "") // French thousands separator
	s = strings.Replace(s, ",", ".", 1)
	s = strings.TrimSuffix(s, "€")
	s = strings.TrimPrefix(s, "-")
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

var dateFormats = []string{
	"2006-01-02",
	"2006-01-02T15:04:05Z",
	"2006-01-02 15:04:05",
	"02/01/2006",
	"2006",
	"2 Jan 2006",
}

func isDate(s string) bool {
	s = strings.TrimSpace(s)
	for _, layout := range dateFormats {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

func isBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "false", "oui", "non", "yes", "no":
		return true
	}
	return false
}

// ============================================================================
// TEMPORAL PATTERNS
// ============================================================================

var temporalPatterns = []struct {
	re     *regexp.Regexp
	format string
}{
	{regexp.MustCompile(`^\d{4}$`), "yyyy"},                   // 2021
	{regexp.MustCompile(`^\d{4}-\d{2}$`), "yyyy-MM"},          // 2021-06
	{regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`), "yyyy-MM-dd"}, // 2021-06-30
	{regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`), "dd/MM/yyyy"}, // 30/06/2021
	{regexp.MustCompile(`^T[1-4]\s*\d{4}$`), "TN yyyy"},       // T2 2021
	{regexp.MustCompile(`^Q[1-4]-\d{4}$`), "QN-yyyy"},         // Q2-2021
}

// detectTemporalPattern checks if values match known year/month/quarter patterns.
func detectTemporalPattern(samples []string) (bool, string) {
	if len(samples) == 0 {
		return false, ""
	}

	for _, pattern := range temporalPatterns {
		matches := 0
		for _, s := range samples {
			if pattern.re.MatchString(strings.TrimSpace(s)) {
				matches++
			}
		}
		if float64(matches)/float64(len(samples)) >= 0.8 {
			return true, pattern.format
		}
	}

	return false, ""
}

func detectTemporalFormat(samples []string) string {
	_, format := detectTemporalPattern(samples)
	if format == "" {
		return "date"
	}
	return format
}

// ============================================================================
// STRING UTILITIES
// ============================================================================

// toSnakeCase converts "Column Name" or "columnName" → "column_name".
func toSnakeCase(s string) string {
	var result strings.Builder
	prev := rune(0)
	for _, r := range s {
		if unicode.IsUpper(r) && (unicode.IsLower(prev) || unicode.IsDigit(prev)) {
			result.WriteRune('_')
		}
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			result.WriteRune(unicode.ToLower(r))
		default:
			result.WriteRune('_')
		}
		prev = r
	}

	s = result.String()
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	return strings.Trim(s, "_")
}

// toDisplayName cleans a header for human display.
// "story_points" → "Story Points", "Région" → "Région"
func toDisplayName(s string) string {
	if strings.Contains(s, " ") {
		return strings.TrimSpace(s)
	}

	s = strings.ReplaceAll(s, "_", " ")

	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		words[i] = strings.ToUpper(string(r[:1])) + strings.ToLower(string(r[1:]))
	}
	return strings.Join(words, " ")
}

// collectSamples picks up to maxSamples representative values.
func collectSamples(uniqueSet map[string]bool, maxSamples int) []string {
	samples := make([]string, 0, len(uniqueSet))
	for v := range uniqueSet {
		samples = append(samples, v)
	}

	// Sort for deterministic output
	sort.Strings(samples)

	if len(samples) > maxSamples {
		samples = samples[:maxSamples]
	}
	return samples
}
