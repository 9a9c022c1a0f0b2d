package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spektr-org/opendata/engine"
)

// ============================================================================
// RENDERERS — JSON and CSV outputs
// ============================================================================

// URLField is the catalog column written to the url column of the summary CSV.
const URLField = "url"

// SummaryColumns is the fixed header of WriteSummaryCSV.
var SummaryColumns = []string{"relevance_score", "title", "organization", "url", "tags", "matching_keywords"}

// WriteJSON encodes v as JSON. Non-ASCII text is written as is.
func WriteJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// WriteRecordsJSON writes the processed records as a JSON array.
func WriteRecordsJSON(w io.Writer, records []engine.Record, pretty bool) error {
	if records == nil {
		records = []engine.Record{}
	}
	return WriteJSON(w, records, pretty)
}

// WriteSummaryCSV writes the ranked records of r, one row each, under
// SummaryColumns. The header is written even when nothing is relevant.
func WriteSummaryCSV(w io.Writer, r *RelevanceReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(SummaryColumns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	f := r.Fields
	for _, rec := range r.Top {
		row := []string{
			strconv.Itoa(rec.Score),
			rec.Record.Get(f.Title),
			rec.Record.Get(f.Organization),
			rec.Record.Get(URLField),
			rec.Record.Get(f.Tags),
			strings.Join(rec.Keywords, ", "),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTableCSV writes a table with its column labels as header.
func WriteTableCSV(w io.Writer, t *TableData) error {
	cw := csv.NewWriter(w)
	header := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c.Label
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return nil
}

// WriteChartCSV writes chart data as a sheet: one label column, then one
// value column per series.
func WriteChartCSV(w io.Writer, c ChartConfig) error {
	cw := csv.NewWriter(w)
	if len(c.Series) == 0 {
		cw.Flush()
		return cw.Error()
	}

	xLabel := c.XAxis
	if xLabel == "" {
		xLabel = "Label"
	}
	header := []string{xLabel}
	if len(c.Series) == 1 {
		yLabel := c.YAxis
		if yLabel == "" {
			yLabel = "Value"
		}
		header = append(header, yLabel)
	} else {
		for _, s := range c.Series {
			header = append(header, s.Name)
		}
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for i, d := range c.Series[0].Data {
		row := []string{d.Label}
		for _, s := range c.Series {
			if i < len(s.Data) {
				row = append(row, fmtNum(s.Data[i].Value))
			} else {
				row = append(row, "")
			}
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// fmtNum prints whole numbers without decimals and others with two.
func fmtNum(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
