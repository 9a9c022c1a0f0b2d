package report

import (
	"strconv"
	"strings"

	"github.com/spektr-org/opendata/engine"
	"github.com/spektr-org/opendata/schema"
	"github.com/spektr-org/opendata/scoring"
)

// ============================================================================
// TABLE BUILDER — Produces TableData from aggregations and ranked records
// ============================================================================
// Percentages are computed from the counts and total passed in, so every
// cell can be re-derived from the aggregation it came from.
// ============================================================================

// BreakdownTable lists categories with their count and share of total.
// rank adds a leading position column.
func BreakdownTable(title, label string, counts []engine.Count, total int, rank bool) *TableData {
	columns := make([]Column, 0, 4)
	if rank {
		columns = append(columns, Column{Key: "rank", Label: "#", Type: "number", Align: "right"})
	}
	columns = append(columns,
		Column{Key: "group", Label: label, Type: "text", Align: "left"},
		Column{Key: "count", Label: "Count", Type: "number", Align: "right"},
		Column{Key: "percent", Label: "Share", Type: "percent", Align: "right"},
	)

	rows := make([][]string, 0, len(counts))
	sum := 0
	for i, c := range counts {
		row := make([]string, 0, len(columns))
		if rank {
			row = append(row, strconv.Itoa(i+1)+".")
		}
		row = append(row, c.Key, engine.FormatInt(c.Count), formatPercent(engine.Percent(c.Count, total)))
		rows = append(rows, row)
		sum += c.Count
	}

	return &TableData{
		Title:   title,
		Columns: columns,
		Rows:    rows,
		Summary: &Summary{
			Label: "Total",
			Values: map[string]string{
				"count":   engine.FormatInt(sum),
				"percent": formatPercent(engine.Percent(sum, total)),
			},
		},
	}
}

// AggregationTable is BreakdownTable over an aggregation, keeping its Total.
func AggregationTable(title string, a engine.Aggregation, rank bool) *TableData {
	return BreakdownTable(title, engine.LabelForField(a.Field), a.Counts, a.Total, rank)
}

// RankedTable lists scored records in rank order.
func RankedTable(title string, records []scoring.ScoredRecord, f scoring.TextFields) *TableData {
	columns := []Column{
		{Key: "rank", Label: "#", Type: "number", Align: "right"},
		{Key: "score", Label: "Score", Type: "number", Align: "right"},
		{Key: "title", Label: "Title", Type: "text", Align: "left"},
		{Key: "organization", Label: "Organization", Type: "text", Align: "left"},
		{Key: "keywords", Label: "Keywords", Type: "text", Align: "left"},
	}

	rows := make([][]string, 0, len(records))
	for i, r := range records {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			strconv.Itoa(r.Score),
			r.Record.Get(f.Title),
			r.Record.Get(f.Organization),
			strings.Join(r.Keywords, ", "),
		})
	}
	return &TableData{Title: title, Columns: columns, Rows: rows}
}

// CrossTabTable lays a cross-tab out with one row per primary value and
// one column per secondary key, in the order given.
func CrossTabTable(title string, ct engine.CrossTab, secondary []string) *TableData {
	columns := make([]Column, 0, len(secondary)+2)
	columns = append(columns, Column{Key: "group", Label: engine.LabelForField(ct.Primary), Type: "text", Align: "left"})
	for _, key := range secondary {
		columns = append(columns, Column{Key: key, Label: key, Type: "number", Align: "right"})
	}
	columns = append(columns, Column{Key: "total", Label: "Total", Type: "number", Align: "right"})

	rows := make([][]string, 0, len(ct.Rows))
	for _, row := range ct.Rows {
		cells := make(map[string]int, len(row.Cells))
		for _, c := range row.Cells {
			cells[c.Key] = c.Count
		}
		out := make([]string, 0, len(columns))
		out = append(out, row.Key)
		for _, key := range secondary {
			out = append(out, strconv.Itoa(cells[key]))
		}
		out = append(out, strconv.Itoa(row.Total))
		rows = append(rows, out)
	}
	return &TableData{Title: title, Columns: columns, Rows: rows}
}

func formatPercent(p float64) string {
	return strconv.FormatFloat(engine.RoundTo1(p), 'f', 1, 64) + "%"
}

// ProfileTable lists the columns of a profiled file with their suggested role.
func ProfileTable(p *schema.DatasetProfile) *TableData {
	columns := []Column{
		{Key: "header", Label: "Column", Type: "text", Align: "left"},
		{Key: "type", Label: "Type", Type: "text", Align: "left"},
		{Key: "distinct", Label: "Distinct", Type: "number", Align: "right"},
		{Key: "empty", Label: "Empty", Type: "percent", Align: "right"},
		{Key: "cardinality", Label: "Cardinality", Type: "text", Align: "left"},
		{Key: "role", Label: "Role", Type: "text", Align: "left"},
	}
	rows := make([][]string, 0, len(p.Columns))
	for _, c := range p.Columns {
		rows = append(rows, []string{
			c.Header,
			c.Type,
			strconv.Itoa(c.Distinct),
			formatPercent(c.EmptyRatio * 100),
			c.CardinalityHint,
			c.Role,
		})
	}
	return &TableData{Title: p.Name, Columns: columns, Rows: rows}
}
