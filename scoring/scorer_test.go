package scoring

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/spektr-org/opendata/engine"
)

// ============================================================================
// SCORER TESTS
// ============================================================================

func smallVocab() Vocabulary {
	return NewVocabulary("startup", "tech", "data", "emploi", "innovation")
}

func TestScoreTitleOnly(t *testing.T) {
	s := New(DefaultVocabulary())
	got := s.Score(engine.Record{"title": "Nouvelle Startup Tech"})

	if got.Score != 20 {
		t.Errorf("score = %d, want 20", got.Score)
	}
	if diff := cmp.Diff([]string{"startup", "tech"}, got.Keywords); diff != "" {
		t.Errorf("keywords mismatch (-want +got):\n%s", diff)
	}
}

func TestScorePerFieldWeights(t *testing.T) {
	s := New(smallVocab())
	rec := engine.Record{
		"title":       "  DATA emploi ",
		"description": "Offres d'emploi ouvertes",
		"tags":        "data,emploi",
	}
	got := s.Score(rec)

	// data: title 10 + tags 5; emploi: title 10 + tags 5 + description 3
	if got.Score != 33 {
		t.Errorf("score = %d, want 33", got.Score)
	}
	want := []Match{
		{Keyword: "data", Fields: []string{"title", "tags"}, Points: 15},
		{Keyword: "emploi", Fields: []string{"title", "tags", "description"}, Points: 18},
	}
	if diff := cmp.Diff(want, got.Matches); diff != "" {
		t.Errorf("matches mismatch (-want +got):\n%s", diff)
	}
	if got.Primary() != "emploi" {
		t.Errorf("primary = %q, want emploi", got.Primary())
	}
}

func TestOrganizationDoesNotScore(t *testing.T) {
	s := New(smallVocab())
	got := s.Score(engine.Record{"title": "Horaires", "organization": "Tech Agency"})
	if got.Score != 0 || len(got.Keywords) != 0 {
		t.Errorf("organization-only match must not count: %+v", got)
	}
	if got.Relevant() {
		t.Error("record should not be relevant")
	}
	if got.Primary() != OtherCategory {
		t.Errorf("primary = %q, want %q", got.Primary(), OtherCategory)
	}
}

func TestScoreMissingFields(t *testing.T) {
	got := New(smallVocab()).Score(engine.Record{})
	if got.Score != 0 || got.Keywords != nil {
		t.Errorf("empty record: %+v", got)
	}
}

func TestScoreIndependentOfVocabularyOrder(t *testing.T) {
	terms := []string{"startup", "tech", "data", "emploi", "innovation", "ia", "ca"}
	rec := engine.Record{"title": "Startup data", "description": "innovation et emploi", "tags": "tech"}
	base := New(NewVocabulary(terms...)).Score(rec)

	r := rand.New(rand.NewSource(7))
	for i := 0; i < 10; i++ {
		shuffled := append([]string(nil), terms...)
		r.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		got := New(NewVocabulary(shuffled...)).Score(rec)
		if diff := cmp.Diff(base, got); diff != "" {
			t.Fatalf("order %v changed result (-base +got):\n%s", shuffled, diff)
		}
	}
}

func TestCustomFieldsAndWeights(t *testing.T) {
	s := New(smallVocab(),
		WithTextFields(TextFields{Title: "titre"}),
		WithWeights(Weights{Title: 1, Tags: -4, Description: 2}),
	)
	got := s.Score(engine.Record{"titre": "data", "tags": "data", "description": "data"})
	if got.Score != 3 {
		t.Errorf("score = %d, want 3 (tags clamped to 0)", got.Score)
	}
	if s.Fields().Description != "description" {
		t.Error("unset field name should keep default")
	}
}

func TestScoredRecordJSON(t *testing.T) {
	rec := New(smallVocab()).Score(engine.Record{"title": "Startup", "url": "https://x"})
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got["title"] != "Startup" || got["url"] != "https://x" {
		t.Errorf("record fields missing: %v", got)
	}
	if got["relevance_score"] != float64(10) {
		t.Errorf("relevance_score = %v", got["relevance_score"])
	}
	if diff := cmp.Diff([]any{"startup"}, got["matching_keywords"]); diff != "" {
		t.Errorf("matching_keywords mismatch (-want +got):\n%s", diff)
	}

	empty, _ := json.Marshal(ScoredRecord{Record: engine.Record{}})
	if string(empty) != `{"matching_keywords":[],"relevance_score":0}` {
		t.Errorf("unscored JSON = %s", empty)
	}
}

// ============================================================================
// RANKING + BUCKET TESTS
// ============================================================================

func TestRankIsStable(t *testing.T) {
	s := New(smallVocab())
	scored := s.ScoreAll([]engine.Record{
		{"title": "a", "tags": "data"},      // 5
		{"title": "startup"},                // 10
		{"title": "b", "tags": "emploi"},    // 5
		{"title": "rien"},                   // 0
		{"title": "tech", "tags": "tech"},   // 15
		{"title": "c", "description": "ia"}, // 0 with smallVocab
	})
	ranked := Rank(Relevant(scored))

	var order []int
	for _, r := range ranked {
		order = append(order, r.Index)
	}
	if diff := cmp.Diff([]int{4, 1, 0, 2}, order); diff != "" {
		t.Errorf("rank order mismatch (-want +got):\n%s", diff)
	}
	if scored[0].Index != 0 || scored[5].Index != 5 {
		t.Error("Rank must not reorder its input")
	}
}

func TestBucketPartition(t *testing.T) {
	tests := map[int]Bucket{0: BucketNone, 1: BucketLow, 19: BucketLow, 20: BucketMedium, 49: BucketMedium, 50: BucketHigh, 230: BucketHigh}
	for score, want := range tests {
		if got := BucketOf(score); got != want {
			t.Errorf("BucketOf(%d) = %q, want %q", score, got, want)
		}
	}

	scored := []ScoredRecord{{Score: 0}, {Score: 3}, {Score: 20}, {Score: 49}, {Score: 50}, {Score: 19}}
	d := Distribute(scored)
	if d != (Distribution{High: 1, Medium: 2, Low: 2}) {
		t.Errorf("distribution = %+v", d)
	}
	if d.Total() != len(Relevant(scored)) {
		t.Errorf("bands hold %d, relevant %d", d.Total(), len(Relevant(scored)))
	}
}

func TestViewAndKeywordFrequency(t *testing.T) {
	s := New(smallVocab())
	scored := s.ScoreAll([]engine.Record{
		{"title": "startup data"},
		{"title": "data", "organization": "Etalab"},
		{"title": "rien"},
	})
	view := View(scored, "organization")

	if view.Field(1, FieldScore) != "10" || view.Field(1, "organization") != "Etalab" {
		t.Errorf("view fields wrong: %q %q", view.Field(1, FieldScore), view.Field(1, "organization"))
	}
	if view.Field(2, FieldPrimary) != OtherCategory || view.Field(2, FieldBucket) != "" {
		t.Error("unmatched record should map to other / no bucket")
	}
	buckets := engine.Frequency(view, FieldBucket)
	if buckets.Get("medium") != 1 || buckets.Get("low") != 1 || buckets.Get(engine.Unspecified) != 1 {
		t.Errorf("bucket frequency = %v", buckets.Counts)
	}

	kw := KeywordFrequency(scored)
	want := []engine.Count{{Key: "data", Count: 2}, {Key: "startup", Count: 1}}
	if diff := cmp.Diff(want, kw.Counts); diff != "" {
		t.Errorf("keyword frequency mismatch (-want +got):\n%s", diff)
	}
}

// ============================================================================
// VOCABULARY TESTS
// ============================================================================

func TestNewVocabularyNormalises(t *testing.T) {
	v := NewVocabulary(" Data ", "data", "", "TECH")
	if diff := cmp.Diff([]string{"data", "tech"}, v.Terms()); diff != "" {
		t.Errorf("terms mismatch (-want +got):\n%s", diff)
	}
	if !v.Contains("DATA") || v.Contains("cloud") {
		t.Error("Contains normalisation wrong")
	}
	w := v.With("cloud")
	if v.Len() != 2 || w.Len() != 3 {
		t.Error("With must not modify the receiver")
	}
}

func TestDefaultVocabularyFresh(t *testing.T) {
	a := DefaultVocabulary()
	terms := a.Terms()
	terms[0] = "mutated"
	if DefaultVocabulary().Contains("mutated") || a.Contains("mutated") {
		t.Error("vocabulary must not be shared or mutable through Terms()")
	}
	// "commerce" and "économique" are listed under two themes.
	total := 0
	for _, th := range DefaultThemes() {
		total += len(th.Terms)
	}
	if a.Len() >= total {
		t.Errorf("duplicates not collapsed: %d terms from %d entries", a.Len(), total)
	}
	for _, term := range []string{"startup", "sirene", "r&d", "pépinière"} {
		if !a.Contains(term) {
			t.Errorf("default vocabulary missing %q", term)
		}
	}
}
