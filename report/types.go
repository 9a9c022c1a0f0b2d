package report

import (
	"time"

	"github.com/spektr-org/opendata/engine"
	"github.com/spektr-org/opendata/schema"
	"github.com/spektr-org/opendata/scoring"
)

// ============================================================================
// REPORT TYPES — Render-ready results
// ============================================================================
// A report is built once per run and handed unchanged to every renderer
// (JSON, CSV, text, chart data). Everything a renderer prints is derived
// from these fields.
// ============================================================================

// RelevanceReport summarises a scored catalog.
type RelevanceReport struct {
	RunID        string                 `json:"run_id"`
	GeneratedAt  time.Time              `json:"generated_at"`
	Sources      []string               `json:"sources,omitempty"`
	Total        int                    `json:"total_datasets"`
	Relevant     int                    `json:"relevant_datasets_count"`
	Rate         float64                `json:"relevance_rate"` // relevant/total, 0 when total is 0
	Distribution scoring.Distribution   `json:"distribution"`
	Top          []scoring.ScoredRecord `json:"top_datasets"`
	Categories   []CategorySample       `json:"categories"`
	Keywords     engine.Aggregation     `json:"keyword_frequency"`

	// Display is how many of Top the text report lists.
	Display int `json:"-"`
	// Fields names the catalog columns the renderers print.
	Fields scoring.TextFields `json:"-"`
}

// RatePercent returns the relevance rate in percent.
func (r *RelevanceReport) RatePercent() float64 {
	return engine.Percent(r.Relevant, r.Total)
}

// CategorySample groups top-ranked records by primary keyword.
type CategorySample struct {
	Category string                 `json:"category"`
	Count    int                    `json:"count"`
	Records  []scoring.ScoredRecord `json:"records"`
}

// LaureateReport describes a laureate collection. Sections whose role is
// not mapped are nil and left out of every rendering.
type LaureateReport struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Metadata    Metadata  `json:"metadata"`
	Overview    Overview  `json:"overview"`

	Gender      *engine.Aggregation `json:"gender_distribution,omitempty"`
	Year        *engine.Aggregation `json:"year_frequency,omitempty"`
	ByYear      []engine.Count      `json:"by_year,omitempty"` // numeric years, ascending
	YearRange   *engine.Span        `json:"year_range,omitempty"`
	Region      *engine.Aggregation `json:"by_region,omitempty"`
	Domain      *engine.Aggregation `json:"by_domain,omitempty"` // top DomainTop
	Candidature *engine.Aggregation `json:"by_candidature_type,omitempty"`
	Jury        *engine.Aggregation `json:"by_jury,omitempty"`

	GrandPrix       *int             `json:"grand_prix_winners,omitempty"`
	Company         CompanyInfo      `json:"company_info"`
	RepeatLaureates *int             `json:"repeat_laureates,omitempty"`
	RegionYear      *engine.CrossTab `json:"region_year_detail,omitempty"`
	Recent          *RecentActivity  `json:"recent_activity,omitempty"`

	// RegionTop is how many regions the text report lists.
	RegionTop int `json:"-"`
}

// Metadata identifies the analysed input.
type Metadata struct {
	TotalRecords int                 `json:"total_records"`
	Fields       []string            `json:"fields"`
	Sources      []string            `json:"sources,omitempty"`
	Mapping      schema.FieldMapping `json:"mapping"`
	Warnings     []string            `json:"warnings,omitempty"`
}

// Overview holds the headline numbers of the dashboard.
type Overview struct {
	Laureates  int     `json:"laureates"`
	Years      int     `json:"years"`
	Regions    int     `json:"regions"`
	Domains    int     `json:"domains"`
	AvgPerYear float64 `json:"avg_per_year"`
}

// CompanyInfo counts records carrying company identifiers.
type CompanyInfo struct {
	WithSIRET int `json:"with_siret"`
	WithSIREN int `json:"with_siren"`
}

// RecentActivity lists the busiest primary values over the latest years.
type RecentActivity struct {
	Years []int          `json:"years"` // newest first
	Top   []engine.Count `json:"top"`
}

// ============================================================================
// TABLE TYPES
// ============================================================================

// TableData is a render-ready table.
type TableData struct {
	Title   string     `json:"title"`
	Columns []Column   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Summary *Summary   `json:"summary,omitempty"`
}

// Column defines a table column.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`  // "text", "number", "percent"
	Align string `json:"align"` // "left", "right"
	Width int    `json:"width,omitempty"`
}

// Summary provides totals for a table.
type Summary struct {
	Label  string            `json:"label"`
	Values map[string]string `json:"values"`
}

// ============================================================================
// CHART TYPES
// ============================================================================

// ChartConfig is plain chart data for a dashboard front end.
type ChartConfig struct {
	ID         string        `json:"id"`
	ChartType  string        `json:"chartType"` // line, bar, pie, heatmap
	Title      string        `json:"title"`
	XAxis      string        `json:"xAxis,omitempty"`
	YAxis      string        `json:"yAxis,omitempty"`
	Series     []ChartSeries `json:"series"`
	Colors     []string      `json:"colors,omitempty"`
	ShowLegend bool          `json:"showLegend"`
	ShowGrid   bool          `json:"showGrid"`
}

// ChartSeries represents a data series in a chart.
type ChartSeries struct {
	Name  string       `json:"name"`
	Data  []ChartPoint `json:"data"`
	Color string       `json:"color,omitempty"`
}

// ChartPoint represents a single data point.
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}
