package engine

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// ============================================================================
// VIEW + FILTER TESTS
// ============================================================================

func TestSliceViewKeys(t *testing.T) {
	v := NewSliceView([]Record{{"a": "1"}}, "a", "b")
	if diff := cmp.Diff([]string{"a", "b"}, v.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
	if v.Field(0, "b") != "" || v.Field(5, "a") != "" {
		t.Error("absent field or index must read as empty")
	}
}

func TestConcatView(t *testing.T) {
	a := NewSliceView([]Record{{"region": "Corse"}}, "region")
	b := NewSliceView([]Record{{"region": "Bretagne", "year": "2020"}}, "region", "year")
	v := Concat(a, b)

	if v.Len() != 2 {
		t.Fatalf("Len = %d, want 2", v.Len())
	}
	if v.Field(1, "region") != "Bretagne" || v.Field(0, "year") != "" {
		t.Error("concat field lookup wrong")
	}
	if diff := cmp.Diff([]string{"region", "year"}, v.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
	if Concat().Len() != 0 {
		t.Error("empty concat should be empty")
	}
}

func TestDomainAdapter(t *testing.T) {
	type row struct{ Name, Kind string }
	view := NewDomainAdapter[row]().
		Field("kind", func(r row) string { return r.Kind }).
		Bind([]row{{"a", "x"}, {"b", "y"}, {"c", "x"}})

	agg := Frequency(view, "kind")
	if agg.Get("x") != 2 || agg.Get("y") != 1 {
		t.Errorf("unexpected counts %v", agg.Counts)
	}
	if view.Field(0, "missing") != "" {
		t.Error("unregistered field must be empty")
	}
}

func TestApplyFilters(t *testing.T) {
	view := NewSliceView(laureateRecords())

	got := ApplyFilters(view, Filters{Fields: map[string][]string{"region": {"bretagne", "OCCITANIE"}}})
	if got.Len() != 4 {
		t.Errorf("region filter kept %d, want 4", got.Len())
	}

	got = ApplyFilters(view, Filters{
		Fields: map[string][]string{"gender": {"F"}},
		Range:  &IntRange{Field: "year", Min: 2020},
	})
	if got.Len() != 2 {
		t.Errorf("gender+range filter kept %d, want 2", got.Len())
	}

	if ApplyFilters(view, Filters{}) != view {
		t.Error("empty filter must return the original view")
	}
}

func TestRecordsFromFilteredConcat(t *testing.T) {
	a := NewSliceView([]Record{{"region": "Corse"}, {"region": "Bretagne"}}, "region")
	b := NewSliceView([]Record{{"region": "Bretagne", "year": "2020"}}, "region", "year")
	view := ApplyFilters(Concat(a, b), Filters{Fields: map[string][]string{"region": {"bretagne"}}})

	want := []Record{{"region": "Bretagne"}, {"region": "Bretagne", "year": "2020"}}
	if diff := cmp.Diff(want, Records(view)); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}

	typed := NewDomainAdapter[string]().
		Field("name", func(s string) string { return s }).
		Bind([]string{"x"})
	if diff := cmp.Diff([]Record{{"name": "x"}}, Records(typed)); diff != "" {
		t.Errorf("copied records mismatch (-want +got):\n%s", diff)
	}
}
