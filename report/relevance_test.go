package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/spektr-org/opendata/engine"
	"github.com/spektr-org/opendata/scoring"
)

// ============================================================================
// RELEVANCE REPORT TESTS
// ============================================================================

var fixedClock = func() time.Time { return time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC) }

func catalogRecords() []engine.Record {
	return []engine.Record{
		{"title": "Open data portal", "organization": "Ville", "url": "https://example.org/0"},
		{"title": "Startup tech", "tags": "data", "organization": "Bpifrance", "url": "https://example.org/1"},
		{"title": "Budget", "description": "comptes annuels", "url": "https://example.org/2"},
		{"title": "Tech startup data", "tags": "tech data startup", "description": "startup data tech", "organization": "French Tech", "url": "https://example.org/3"},
		{"title": "Tech news", "url": "https://example.org/4"},
	}
}

func scoredCatalog() []scoring.ScoredRecord {
	s := scoring.New(scoring.NewVocabulary("startup", "tech", "data"))
	return s.ScoreAll(catalogRecords())
}

func titles(records []scoring.ScoredRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Record.Get("title")
	}
	return out
}

func TestBuildRelevanceCounts(t *testing.T) {
	r := BuildRelevance(scoredCatalog(), WithClock(fixedClock), WithRunID("run-1"))

	if r.Total != 5 || r.Relevant != 4 {
		t.Fatalf("total=%d relevant=%d, want 5 and 4", r.Total, r.Relevant)
	}
	if r.Rate != 0.8 {
		t.Errorf("rate = %v, want 0.8", r.Rate)
	}
	if r.RatePercent() != 80 {
		t.Errorf("rate percent = %v, want 80", r.RatePercent())
	}
	want := scoring.Distribution{High: 1, Medium: 1, Low: 2}
	if diff := cmp.Diff(want, r.Distribution); diff != "" {
		t.Errorf("distribution mismatch (-want +got):\n%s", diff)
	}
	if r.Distribution.Total() != r.Relevant {
		t.Errorf("bands sum to %d, want %d", r.Distribution.Total(), r.Relevant)
	}
	if r.RunID != "run-1" || !r.GeneratedAt.Equal(fixedClock()) {
		t.Errorf("run info = %q %v", r.RunID, r.GeneratedAt)
	}
}

func TestBuildRelevanceRanking(t *testing.T) {
	r := BuildRelevance(scoredCatalog(), WithRunID("x"))
	want := []string{"Tech startup data", "Startup tech", "Open data portal", "Tech news"}
	if diff := cmp.Diff(want, titles(r.Top)); diff != "" {
		t.Errorf("top order mismatch (-want +got):\n%s", diff)
	}

	r = BuildRelevance(scoredCatalog(), WithTopK(2), WithRunID("x"))
	if len(r.Top) != 2 {
		t.Fatalf("len(Top) = %d, want 2", len(r.Top))
	}
	if r.Display != 2 {
		t.Errorf("display = %d, want capped at top k", r.Display)
	}
	if r.Top[0].Score != 54 || r.Top[1].Score != 25 {
		t.Errorf("scores = %d, %d", r.Top[0].Score, r.Top[1].Score)
	}
}

func TestBuildRelevanceCategories(t *testing.T) {
	r := BuildRelevance(scoredCatalog(), WithCategories(200, 1), WithRunID("x"))

	var got []string
	for _, c := range r.Categories {
		got = append(got, c.Category)
		if len(c.Records) > 1 {
			t.Errorf("%s: %d samples, want at most 1", c.Category, len(c.Records))
		}
	}
	if diff := cmp.Diff([]string{"data", "startup", "tech"}, got); diff != "" {
		t.Errorf("categories mismatch (-want +got):\n%s", diff)
	}
	if r.Categories[0].Count != 2 {
		t.Errorf("data count = %d, want 2", r.Categories[0].Count)
	}
	if r.Categories[0].Records[0].Score != 54 {
		t.Errorf("data sample should be the best ranked record")
	}
}

func TestBuildRelevanceKeywords(t *testing.T) {
	r := BuildRelevance(scoredCatalog(), WithRunID("x"))
	want := []engine.Count{{Key: "data", Count: 3}, {Key: "tech", Count: 3}, {Key: "startup", Count: 2}}
	if diff := cmp.Diff(want, r.Keywords.Counts); diff != "" {
		t.Errorf("keyword frequency mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildRelevanceEmpty(t *testing.T) {
	r := BuildRelevance(nil, WithRunID("x"))
	if r.Total != 0 || r.Relevant != 0 || r.Rate != 0 {
		t.Errorf("empty report = %d/%d rate %v", r.Relevant, r.Total, r.Rate)
	}
	if len(r.Top) != 0 || len(r.Categories) != 0 {
		t.Errorf("empty report has content: %+v", r)
	}

	var buf bytes.Buffer
	if err := WriteSummaryCSV(&buf, r); err != nil {
		t.Fatal(err)
	}
	if got, want := buf.String(), strings.Join(SummaryColumns, ",")+"\n"; got != want {
		t.Errorf("summary csv = %q, want header only", got)
	}
}

func TestRelevanceJSON(t *testing.T) {
	r := BuildRelevance(scoredCatalog(), WithTopK(1), WithClock(fixedClock), WithRunID("run-1"))

	var buf bytes.Buffer
	if err := WriteJSON(&buf, r, true); err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"run_id", "total_datasets", "relevant_datasets_count", "relevance_rate", "top_datasets", "keyword_frequency", "distribution"} {
		if _, ok := got[key]; !ok {
			t.Errorf("missing key %q", key)
		}
	}
	for _, key := range []string{"Display", "Fields"} {
		if _, ok := got[key]; ok {
			t.Errorf("unexpected key %q", key)
		}
	}

	top := got["top_datasets"].([]any)[0].(map[string]any)
	if top["relevance_score"] != float64(54) || top["title"] != "Tech startup data" {
		t.Errorf("top dataset = %v", top)
	}
}

func TestWriteSummaryCSV(t *testing.T) {
	r := BuildRelevance(scoredCatalog(), WithTopK(2), WithRunID("x"))

	var buf bytes.Buffer
	if err := WriteSummaryCSV(&buf, r); err != nil {
		t.Fatal(err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	want := [][]string{
		SummaryColumns,
		{"54", "Tech startup data", "French Tech", "https://example.org/3", "tech data startup", "data, startup, tech"},
		{"25", "Startup tech", "Bpifrance", "https://example.org/1", "data", "data, startup, tech"},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("summary csv mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteRecordsJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRecordsJSON(&buf, nil, false); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(buf.String()); got != "[]" {
		t.Errorf("got %q, want []", got)
	}
}

func TestRelevanceText(t *testing.T) {
	r := BuildRelevance(scoredCatalog(), WithClock(fixedClock), WithRunID("run-1"))

	var buf bytes.Buffer
	if err := WriteText(&buf, r); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"OPEN DATA RELEVANCE REPORT",
		"Run: run-1",
		"EXECUTIVE SUMMARY",
		"Total datasets analyzed: 5",
		"Relevance rate: 80.0%",
		"TOP 4 MOST RELEVANT DATASETS",
		"1. [54 points] Tech startup data",
		"   Organization: French Tech",
		"   Keywords: data, startup, tech",
		"DATA (2 datasets):",
		"  - Open data portal (score: 10)",
		"MOST FREQUENT KEYWORDS",
		"END OF REPORT",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text report missing %q", want)
		}
	}
}

func TestRelevanceCharts(t *testing.T) {
	r := BuildRelevance(scoredCatalog(), WithRunID("x"))
	charts := BuildRelevanceCharts(r)
	if len(charts) != 2 {
		t.Fatalf("got %d charts, want 2", len(charts))
	}
	bands := charts[0].Series[0].Data
	want := []ChartPoint{{Label: "high", Value: 1}, {Label: "medium", Value: 1}, {Label: "low", Value: 2}}
	if diff := cmp.Diff(want, bands); diff != "" {
		t.Errorf("band chart mismatch (-want +got):\n%s", diff)
	}
	if len(charts[0].Colors) != 3 {
		t.Errorf("pie colors = %v", charts[0].Colors)
	}
}
