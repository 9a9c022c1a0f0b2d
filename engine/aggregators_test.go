package engine

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// ============================================================================
// AGGREGATION TESTS
// ============================================================================

func laureateRecords() []Record {
	return []Record{
		{"year": "2019", "region": "Occitanie", "gender": "F", "grand_prix": ""},
		{"year": "2020", "region": "Bretagne", "gender": "M", "grand_prix": "Oui"},
		{"year": "2019", "region": "Occitanie", "gender": "M", "grand_prix": ""},
		{"year": "2021", "region": "", "gender": "F", "grand_prix": ""},
		{"year": "n/a", "gender": "M", "grand_prix": "Oui"},
		{"year": "2020", "region": "Bretagne", "gender": "F", "grand_prix": " "},
		{"year": "2020", "region": "Île-de-France", "gender": "M", "grand_prix": ""},
	}
}

func TestFrequencyOrderAndTotals(t *testing.T) {
	view := NewSliceView(laureateRecords())
	agg := Frequency(view, "region")

	want := []Count{
		{Key: "Occitanie", Count: 2},
		{Key: "Bretagne", Count: 2},
		{Key: Unspecified, Count: 2},
		{Key: "Île-de-France", Count: 1},
	}
	if diff := cmp.Diff(want, agg.Counts); diff != "" {
		t.Errorf("Frequency(region) mismatch (-want +got):\n%s", diff)
	}
	if agg.Sum() != view.Len() || agg.Total != view.Len() {
		t.Errorf("sum=%d total=%d, want %d", agg.Sum(), agg.Total, view.Len())
	}
}

func TestFrequencyMissingFieldIsUnspecified(t *testing.T) {
	records := []Record{{"title": "a"}, {"title": "b"}}
	agg := Frequency(NewSliceView(records), "region")
	if agg.Get(Unspecified) != 2 {
		t.Errorf("expected 2 unspecified, got %v", agg.Counts)
	}
	if agg.Sum() != 2 {
		t.Errorf("sum = %d, want 2", agg.Sum())
	}
}

func TestFrequencyCustomUnspecified(t *testing.T) {
	agg := Frequency(NewSliceView(laureateRecords()), "region", WithUnspecified("Non spécifié"))
	if agg.Get("Non spécifié") != 2 {
		t.Errorf("custom sentinel not used: %v", agg.Counts)
	}
	if agg.Get(Unspecified) != 0 {
		t.Error("default sentinel should not appear")
	}
}

func TestFrequencyEmptyView(t *testing.T) {
	agg := Frequency(NewSliceView(nil), "region")
	if agg.Total != 0 || agg.Len() != 0 {
		t.Errorf("expected empty aggregation, got %+v", agg)
	}
	if agg.Percent("x") != 0 {
		t.Error("percent on empty aggregation must be 0")
	}
}

func TestTopKeepsTiesInEncounterOrder(t *testing.T) {
	agg := Frequency(NewSliceView(laureateRecords()), "region")
	top := agg.Top(2)
	if diff := cmp.Diff([]string{"Occitanie", "Bretagne"}, top.Keys()); diff != "" {
		t.Errorf("Top(2) mismatch (-want +got):\n%s", diff)
	}
	if top.Total != agg.Total {
		t.Errorf("Top must keep total: %d vs %d", top.Total, agg.Total)
	}
	if len(agg.Top(0).Counts) != agg.Len() {
		t.Error("Top(0) should keep every bucket")
	}
}

func TestChronologicalSkipsNonNumeric(t *testing.T) {
	agg := Frequency(NewSliceView(laureateRecords()), "year")
	got := agg.Chronological()
	want := []Count{
		{Key: "2019", Count: 2},
		{Key: "2020", Count: 3},
		{Key: "2021", Count: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Chronological mismatch (-want +got):\n%s", diff)
	}
	if agg.Get("n/a") != 1 {
		t.Error("non-numeric key must stay in the frequency map")
	}

	span, ok := YearSpan(agg)
	if !ok || span != (Span{First: 2019, Last: 2021, Years: 3}) {
		t.Errorf("YearSpan = %+v, %v", span, ok)
	}
}

func TestCountNonEmpty(t *testing.T) {
	view := NewSliceView(laureateRecords())
	if got := CountNonEmpty(view, "grand_prix"); got != 2 {
		t.Errorf("CountNonEmpty = %d, want 2", got)
	}
	if got := CountNonEmpty(view, ""); got != 0 {
		t.Errorf("unmapped field should count 0, got %d", got)
	}
}

// ============================================================================
// CROSS-TAB TESTS
// ============================================================================

func TestCrossTabConsistentWithFrequency(t *testing.T) {
	view := NewSliceView(laureateRecords())
	ct := CrossTabulate(view, "region", "year")
	freq := Frequency(view, "region").Map()

	for _, row := range ct.Rows {
		sum := 0
		for _, c := range row.Cells {
			sum += c.Count
		}
		if sum != row.Total {
			t.Errorf("row %s: cells sum %d != total %d", row.Key, sum, row.Total)
		}
		if sum != freq[row.Key] {
			t.Errorf("row %s: cells sum %d != frequency %d", row.Key, sum, freq[row.Key])
		}
	}
	if len(ct.Rows) != len(freq) {
		t.Errorf("cross-tab has %d rows, frequency has %d keys", len(ct.Rows), len(freq))
	}
	if ct.Get("Bretagne", "2020") != 2 {
		t.Errorf("Bretagne/2020 = %d, want 2", ct.Get("Bretagne", "2020"))
	}
	if ct.Get(Unspecified, "n/a") != 1 {
		t.Errorf("unspecified/n/a = %d, want 1", ct.Get(Unspecified, "n/a"))
	}
}

func TestRecentTotals(t *testing.T) {
	ct := CrossTabulate(NewSliceView(laureateRecords()), "region", "year")
	got := RecentTotals(ct, 2, 5)
	want := []Count{
		{Key: "Bretagne", Count: 2},
		{Key: Unspecified, Count: 1},
		{Key: "Île-de-France", Count: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("RecentTotals mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{2021, 2020}, RecentYears(ct, 2)); diff != "" {
		t.Errorf("RecentYears mismatch (-want +got):\n%s", diff)
	}
}

// ============================================================================
// HELPERS
// ============================================================================

func TestParseYear(t *testing.T) {
	tests := map[string]bool{"2020": true, " 1999 ": true, "20a0": false, "": false, "-12": false, "+3": false}
	for in, ok := range tests {
		if _, got := ParseYear(in); got != ok {
			t.Errorf("ParseYear(%q) ok=%v, want %v", in, got, ok)
		}
	}
}

func TestPercentZeroTotal(t *testing.T) {
	if Percent(3, 0) != 0 || Ratio(3, 0) != 0 {
		t.Error("zero total must not divide")
	}
	if RoundTo1(Percent(1, 3)) != 33.3 {
		t.Errorf("Percent(1,3) = %v", Percent(1, 3))
	}
}

func TestFormatInt(t *testing.T) {
	tests := map[int]string{0: "0", 999: "999", 1000: "1,000", 1234567: "1,234,567", -4200: "-4,200"}
	for in, want := range tests {
		if got := FormatInt(in); got != want {
			t.Errorf("FormatInt(%d) = %q, want %q", in, got, want)
		}
	}
}
