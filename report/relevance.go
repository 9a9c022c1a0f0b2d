package report

import (
	"github.com/spektr-org/opendata/engine"
	"github.com/spektr-org/opendata/scoring"
)

// ============================================================================
// RELEVANCE REPORT — Ranked catalog summary
// ============================================================================
// Pipeline:
//   1. Keep records with a positive score, rank them (stable)
//   2. Count score bands over the relevant records
//   3. Keep the top K for the JSON summary
//   4. Group the top CategoryPool by primary keyword, M samples each
// ============================================================================

// BuildRelevance builds the report for every scored record of a run.
// An empty input yields zero counts and a rate of 0.
func BuildRelevance(scored []scoring.ScoredRecord, opts ...Option) *RelevanceReport {
	cfg := applyOptions(opts)

	ranked := scoring.Rank(scoring.Relevant(scored))

	r := &RelevanceReport{
		RunID:        cfg.RunID,
		GeneratedAt:  cfg.Now().UTC(),
		Sources:      cfg.Sources,
		Total:        len(scored),
		Relevant:     len(ranked),
		Rate:         engine.Ratio(len(ranked), len(scored)),
		Distribution: scoring.Distribute(ranked),
		Top:          head(ranked, cfg.TopK),
		Categories:   categorySamples(head(ranked, cfg.CategoryPool), cfg.CategorySamples),
		Keywords:     scoring.KeywordFrequency(ranked, cfg.engineOptions()...),
		Display:      min(cfg.Display, cfg.TopK),
		Fields:       cfg.TextFields,
	}
	return r
}

// categorySamples groups ranked records by primary keyword. Categories are
// ordered by size, ties by first appearance in rank order.
func categorySamples(ranked []scoring.ScoredRecord, samples int) []CategorySample {
	view := scoring.View(ranked)
	freq := engine.Frequency(view, scoring.FieldPrimary)

	members := make(map[string][]scoring.ScoredRecord, freq.Len())
	for i, rec := range ranked {
		key := view.Field(i, scoring.FieldPrimary)
		if len(members[key]) < samples {
			members[key] = append(members[key], rec)
		}
	}

	out := make([]CategorySample, 0, freq.Len())
	for _, c := range freq.Counts {
		out = append(out, CategorySample{
			Category: c.Key,
			Count:    c.Count,
			Records:  members[c.Key],
		})
	}
	return out
}

func head(records []scoring.ScoredRecord, n int) []scoring.ScoredRecord {
	if n > 0 && len(records) > n {
		records = records[:n]
	}
	return append([]scoring.ScoredRecord{}, records...)
}
