package scoring

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/spektr-org/opendata/engine"
)

// ============================================================================
// SCORER — Keyword-weighted relevance of catalog records
// ============================================================================
// For each vocabulary term:
//   1. Skip unless it occurs in title + description + tags + organization
//   2. +Title points if it occurs in the title
//   3. +Tags points if it occurs in the tags
//   4. +Description points if it occurs in the description
//
// The organization only takes part in step 1. A term found there and
// nowhere else adds nothing and is not reported as matched.
// ============================================================================

// OtherCategory is the primary category of a record without matches.
const OtherCategory = "other"

// TextFields names the record fields the scorer reads.
type TextFields struct {
	Title        string `yaml:"title" json:"title"`
	Description  string `yaml:"description" json:"description"`
	Tags         string `yaml:"tags" json:"tags"`
	Organization string `yaml:"organization" json:"organization"`
}

// DefaultTextFields returns the column names of data.gouv.fr catalog exports.
func DefaultTextFields() TextFields {
	return TextFields{
		Title:        "title",
		Description:  "description",
		Tags:         "tags",
		Organization: "organization",
	}
}

// Weights are the points a term earns per field it occurs in.
type Weights struct {
	Title       int `yaml:"title" json:"title"`
	Tags        int `yaml:"tags" json:"tags"`
	Description int `yaml:"description" json:"description"`
}

// DefaultWeights returns title 10, tags 5, description 3.
func DefaultWeights() Weights {
	return Weights{Title: 10, Tags: 5, Description: 3}
}

// ============================================================================
// OPTIONS
// ============================================================================

// Option configures a Scorer.
type Option func(*Scorer)

// WithTextFields overrides the field names. Empty names keep the default.
func WithTextFields(f TextFields) Option {
	return func(s *Scorer) {
		if f.Title != "" {
			s.fields.Title = f.Title
		}
		if f.Description != "" {
			s.fields.Description = f.Description
		}
		if f.Tags != "" {
			s.fields.Tags = f.Tags
		}
		if f.Organization != "" {
			s.fields.Organization = f.Organization
		}
	}
}

// WithWeights overrides the per-field points. Negative weights are clamped to 0.
func WithWeights(w Weights) Option {
	return func(s *Scorer) {
		s.weights = Weights{
			Title:       max(w.Title, 0),
			Tags:        max(w.Tags, 0),
			Description: max(w.Description, 0),
		}
	}
}

// ============================================================================
// SCORER
// ============================================================================

// Scorer assigns relevance scores against a fixed vocabulary.
// It holds no mutable state and may be reused across runs.
type Scorer struct {
	vocab   Vocabulary
	fields  TextFields
	weights Weights
}

// New returns a Scorer over vocab with default fields and weights.
func New(vocab Vocabulary, opts ...Option) *Scorer {
	s := &Scorer{
		vocab:   vocab,
		fields:  DefaultTextFields(),
		weights: DefaultWeights(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Vocabulary returns the scorer's vocabulary.
func (s *Scorer) Vocabulary() Vocabulary { return s.vocab }

// Fields returns the field names the scorer reads.
func (s *Scorer) Fields() TextFields { return s.fields }

// Match describes where one term was found.
type Match struct {
	Keyword string   `json:"keyword"`
	Fields  []string `json:"fields"` // subset of title, tags, description
	Points  int      `json:"points"`
}

// ScoredRecord is a record with its relevance score.
type ScoredRecord struct {
	Record   engine.Record
	Score    int
	Keywords []string // matched terms, ascending, each once
	Matches  []Match  // one per keyword, same order
	Index    int      // position in the scored input
}

// Relevant reports whether the record scored above zero.
func (r ScoredRecord) Relevant() bool { return r.Score > 0 }

// Primary returns the keyword that earned the most points, ties broken
// alphabetically, or OtherCategory when nothing matched.
func (r ScoredRecord) Primary() string {
	best := OtherCategory
	bestPoints := -1
	for _, m := range r.Matches {
		if m.Points > bestPoints {
			best, bestPoints = m.Keyword, m.Points
		}
	}
	return best
}

// MarshalJSON emits the record's own fields plus relevance_score and
// matching_keywords.
func (r ScoredRecord) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Record)+2)
	for k, v := range r.Record {
		out[k] = v
	}
	kw := r.Keywords
	if kw == nil {
		kw = []string{}
	}
	out["relevance_score"] = r.Score
	out["matching_keywords"] = kw
	return json.Marshal(out)
}

// Score computes the relevance of one record.
func (s *Scorer) Score(rec engine.Record) ScoredRecord {
	title := normalize(rec.Get(s.fields.Title))
	desc := normalize(rec.Get(s.fields.Description))
	tags := normalize(rec.Get(s.fields.Tags))
	org := normalize(rec.Get(s.fields.Organization))
	all := title + " " + desc + " " + tags + " " + org

	out := ScoredRecord{Record: rec}
	for _, kw := range s.vocab.terms {
		if !strings.Contains(all, kw) {
			continue
		}
		m := Match{Keyword: kw}
		if strings.Contains(title, kw) {
			m.Points += s.weights.Title
			m.Fields = append(m.Fields, "title")
		}
		if strings.Contains(tags, kw) {
			m.Points += s.weights.Tags
			m.Fields = append(m.Fields, "tags")
		}
		if strings.Contains(desc, kw) {
			m.Points += s.weights.Description
			m.Fields = append(m.Fields, "description")
		}
		if len(m.Fields) == 0 {
			continue
		}
		out.Score += m.Points
		out.Keywords = append(out.Keywords, kw)
		out.Matches = append(out.Matches, m)
	}
	return out
}

// ScoreAll scores records in order. Index is set to each record's position.
func (s *Scorer) ScoreAll(records []engine.Record) []ScoredRecord {
	out := make([]ScoredRecord, len(records))
	for i, rec := range records {
		out[i] = s.Score(rec)
		out[i].Index = i
	}
	return out
}

func normalize(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// ============================================================================
// RANKING + BUCKETS
// ============================================================================

// Relevant keeps records with a positive score, in input order.
func Relevant(scored []ScoredRecord) []ScoredRecord {
	out := make([]ScoredRecord, 0, len(scored))
	for _, r := range scored {
		if r.Relevant() {
			out = append(out, r)
		}
	}
	return out
}

// Rank returns a copy sorted by descending score. Equal scores keep
// their input order.
func Rank(scored []ScoredRecord) []ScoredRecord {
	out := make([]ScoredRecord, len(scored))
	copy(out, scored)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// Bucket is a relevance band.
type Bucket string

const (
	BucketNone   Bucket = ""
	BucketLow    Bucket = "low"    // 1-19
	BucketMedium Bucket = "medium" // 20-49
	BucketHigh   Bucket = "high"   // 50+
)

// BucketOf places a score into its band. Zero and below belong to none.
func BucketOf(score int) Bucket {
	switch {
	case score >= 50:
		return BucketHigh
	case score >= 20:
		return BucketMedium
	case score >= 1:
		return BucketLow
	default:
		return BucketNone
	}
}

// Distribution counts relevant records per band.
type Distribution struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// Total is the number of records in any band.
func (d Distribution) Total() int { return d.High + d.Medium + d.Low }

// Distribute counts scored records per band, ignoring score 0.
func Distribute(scored []ScoredRecord) Distribution {
	var d Distribution
	for _, r := range scored {
		switch BucketOf(r.Score) {
		case BucketHigh:
			d.High++
		case BucketMedium:
			d.Medium++
		case BucketLow:
			d.Low++
		}
	}
	return d
}

// ============================================================================
// VIEWS
// ============================================================================

// Derived fields exposed by View next to the record's own fields.
const (
	FieldScore    = "relevance_score"
	FieldPrimary  = "primary_category"
	FieldBucket   = "relevance_bucket"
	FieldKeywords = "matching_keywords"
)

// View exposes scored records to the aggregation engine. The record's
// own fields are listed in fields; the derived fields are always present.
func View(scored []ScoredRecord, fields ...string) engine.RecordView {
	adapter := engine.NewDomainAdapter[ScoredRecord]().
		Field(FieldScore, func(r ScoredRecord) string { return strconv.Itoa(r.Score) }).
		Field(FieldPrimary, ScoredRecord.Primary).
		Field(FieldBucket, func(r ScoredRecord) string { return string(BucketOf(r.Score)) }).
		Field(FieldKeywords, func(r ScoredRecord) string { return strings.Join(r.Keywords, ", ") })
	for _, f := range fields {
		key := f
		adapter = adapter.Field(key, func(r ScoredRecord) string { return r.Record.Get(key) })
	}
	return adapter.Bind(scored)
}

// KeywordFrequency counts, per keyword, how many records matched it.
func KeywordFrequency(scored []ScoredRecord, opts ...engine.Option) engine.Aggregation {
	type hit struct{ keyword string }
	var hits []hit
	for _, r := range scored {
		for _, kw := range r.Keywords {
			hits = append(hits, hit{kw})
		}
	}
	view := engine.NewDomainAdapter[hit]().
		Field("keyword", func(h hit) string { return h.keyword }).
		Bind(hits)
	return engine.Frequency(view, "keyword", opts...)
}
