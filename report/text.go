package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/spektr-org/opendata/engine"
)

// ============================================================================
// TEXT RENDERER — Fixed-width plain-text reports
// ============================================================================
// Layout per report:
//   banner → executive summary → one section per breakdown → end banner
// Numbers go through a message.Printer so grouping follows the language
// (1,234 in English, 1 234 in French).
// ============================================================================

const ruleWidth = 100

// TextReport is implemented by the report types WriteText can render.
type TextReport interface {
	writeText(tw *textWriter)
}

// TextOption configures WriteText.
type TextOption func(*textWriter)

// WithLanguage sets the language used for number grouping and headings.
func WithLanguage(tag language.Tag) TextOption {
	return func(tw *textWriter) { tw.lang = tag }
}

// WriteText renders r as a plain-text report.
func WriteText(w io.Writer, r TextReport, opts ...TextOption) error {
	tw := newTextWriter(w, opts)
	r.writeText(tw)
	return tw.err
}

// WriteTable renders a single table in the fixed-width layout.
func WriteTable(w io.Writer, t *TableData, opts ...TextOption) error {
	tw := newTextWriter(w, opts)
	if t.Title != "" {
		tw.line(t.Title)
	}
	tw.table(t)
	return tw.err
}

// textWriter keeps the first write error and ignores later writes.
type textWriter struct {
	w     io.Writer
	lang  language.Tag
	p     *message.Printer
	upper cases.Caser
	err   error
}

func newTextWriter(w io.Writer, opts []TextOption) *textWriter {
	tw := &textWriter{w: w, lang: language.English}
	for _, opt := range opts {
		opt(tw)
	}
	tw.p = message.NewPrinter(tw.lang)
	tw.upper = cases.Upper(tw.lang)
	return tw
}

func (tw *textWriter) printf(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = tw.p.Fprintf(tw.w, format, args...)
}

func (tw *textWriter) line(s string) { tw.printf("%s\n", s) }

func (tw *textWriter) banner(title string) {
	tw.line(strings.Repeat("=", ruleWidth))
	tw.line(tw.upper.String(title))
	tw.line(strings.Repeat("=", ruleWidth))
}

func (tw *textWriter) section(title string) {
	tw.printf("\n%s\n%s\n", tw.upper.String(title), strings.Repeat("-", ruleWidth))
}

func (tw *textWriter) percent(part, total int) string {
	return tw.p.Sprintf("%.1f%%", engine.RoundTo1(engine.Percent(part, total)))
}

// table prints t with columns padded to their widest cell.
func (tw *textWriter) table(t *TableData) {
	widths := make([]int, len(t.Columns))
	for i, c := range t.Columns {
		widths[i] = max(c.Width, utf8.RuneCountInString(c.Label))
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], utf8.RuneCountInString(cell))
			}
		}
	}

	writeRow := func(cells []string) {
		parts := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			parts[i] = pad(cell, widths[i], c.Align == "right")
		}
		tw.line(strings.TrimRight(strings.Join(parts, "  "), " "))
	}

	labels := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		labels[i] = c.Label
	}
	writeRow(labels)
	for _, row := range t.Rows {
		writeRow(row)
	}
	if t.Summary != nil {
		cells := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			cells[i] = t.Summary.Values[c.Key]
		}
		cells[labelColumn(t)] = t.Summary.Label
		writeRow(cells)
	}
}

func labelColumn(t *TableData) int {
	for i, c := range t.Columns {
		if c.Type == "text" {
			return i
		}
	}
	return 0
}

func pad(s string, width int, right bool) string {
	n := width - utf8.RuneCountInString(s)
	if n <= 0 {
		return s
	}
	if right {
		return strings.Repeat(" ", n) + s
	}
	return s + strings.Repeat(" ", n)
}

// ============================================================================
// RELEVANCE REPORT
// ============================================================================

func (r *RelevanceReport) writeText(tw *textWriter) {
	f := r.Fields

	tw.banner("Open data relevance report")
	tw.printf("Generated: %s\n", r.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	tw.printf("Run: %s\n", r.RunID)

	tw.section("Executive summary")
	tw.printf("Total datasets analyzed: %d\n", r.Total)
	tw.printf("Datasets with relevance: %d\n", r.Relevant)
	tw.printf("Relevance rate: %s\n", tw.percent(r.Relevant, r.Total))

	tw.section("Relevance distribution")
	d := r.Distribution
	tw.printf("High relevance (50+ points):     %6d (%s)\n", d.High, tw.percent(d.High, r.Relevant))
	tw.printf("Medium relevance (20-49 points): %6d (%s)\n", d.Medium, tw.percent(d.Medium, r.Relevant))
	tw.printf("Low relevance (1-19 points):     %6d (%s)\n", d.Low, tw.percent(d.Low, r.Relevant))

	shown := r.Top
	if r.Display > 0 && len(shown) > r.Display {
		shown = shown[:r.Display]
	}
	tw.section(fmt.Sprintf("Top %d most relevant datasets", len(shown)))
	for i, rec := range shown {
		tw.printf("%d. [%d points] %s\n", i+1, rec.Score, rec.Record.Get(f.Title))
		tw.printf("   Organization: %s\n", rec.Record.Get(f.Organization))
		tw.printf("   URL: %s\n", rec.Record.Get(URLField))
		kw := rec.Keywords
		if len(kw) > 10 {
			kw = kw[:10]
		}
		tw.printf("   Keywords: %s\n\n", strings.Join(kw, ", "))
	}

	tw.section("Datasets by primary category")
	for _, c := range r.Categories {
		tw.printf("\n%s (%d datasets):\n", tw.upper.String(c.Category), c.Count)
		for _, rec := range c.Records {
			tw.printf("  - %s (score: %d)\n", rec.Record.Get(f.Title), rec.Score)
		}
	}

	if r.Keywords.Len() > 0 {
		tw.section("Most frequent keywords")
		tw.table(BreakdownTable("", "Keyword", r.Keywords.Top(20).Counts, r.Relevant, true))
	}

	tw.line("")
	tw.banner("End of report")
}

// ============================================================================
// LAUREATE REPORT
// ============================================================================

func (r *LaureateReport) writeText(tw *textWriter) {
	tw.banner("Laureates - comprehensive analysis report")
	tw.printf("Generated: %s\n", r.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	tw.printf("Total Records: %d\n", r.Metadata.TotalRecords)
	for _, w := range r.Metadata.Warnings {
		tw.printf("Warning: %s\n", w)
	}

	tw.section("Executive summary")
	if yr := r.YearRange; yr != nil {
		// Years are printed as their keys, never digit-grouped.
		tw.printf("Competition Period: %s - %s (%d years)\n", strconv.Itoa(yr.First), strconv.Itoa(yr.Last), yr.Years)
		tw.printf("Average per year: %.1f\n", r.Overview.AvgPerYear)
	}
	if r.GrandPrix != nil {
		tw.printf("Grand Prix Winners: %d\n", *r.GrandPrix)
	}
	if r.RepeatLaureates != nil {
		tw.printf("Repeat Laureates: %d\n", *r.RepeatLaureates)
	}
	tw.printf("Companies with SIRET: %d\n", r.Company.WithSIRET)
	tw.printf("Companies with SIREN: %d\n", r.Company.WithSIREN)
	if r.Region != nil {
		tw.printf("Regions: %d\n", r.Overview.Regions)
	}
	if r.Domain != nil {
		tw.printf("Domains: %d\n", r.Overview.Domains)
	}

	if r.Gender != nil {
		tw.section("Gender distribution")
		tw.table(AggregationTable("", *r.Gender, false))
	}

	if r.Year != nil {
		tw.section("Year distribution")
		for _, c := range r.ByYear {
			tw.printf("%s: %s %d\n", c.Key, strings.Repeat("█", c.Count/10), c.Count)
		}
		if other := r.Year.Total - sumCounts(r.ByYear); other > 0 {
			tw.printf("other: %d\n", other)
		}
	}

	if r.Region != nil {
		tw.section(fmt.Sprintf("Regional distribution (top %d)", r.RegionTop))
		tw.table(AggregationTable("", r.Region.Top(r.RegionTop), true))
	}

	if r.Domain != nil {
		tw.section(fmt.Sprintf("Technology domains (top %d)", len(r.Domain.Counts)))
		tw.table(AggregationTable("", *r.Domain, true))
	}

	if r.Candidature != nil {
		tw.section("Candidature type")
		tw.table(AggregationTable("", *r.Candidature, false))
	}

	if r.Jury != nil {
		tw.section("Jury level")
		tw.table(AggregationTable("", *r.Jury, false))
	}

	if rc := r.Recent; rc != nil && len(rc.Top) > 0 {
		tw.section(fmt.Sprintf("Top %d regions - recent activity (last %d years)", len(rc.Top), len(rc.Years)))
		for i, c := range rc.Top {
			tw.printf("%d. %s: %d laureates\n", i+1, c.Key, c.Count)
		}
	}

	tw.line("")
	tw.banner("End of report")
}

func sumCounts(counts []engine.Count) int {
	n := 0
	for _, c := range counts {
		n += c.Count
	}
	return n
}
