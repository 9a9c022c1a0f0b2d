// Package pipeline runs a whole job: load the input files, apply the
// configured filters, score or aggregate, and build the report. All
// computation is local and synchronous.
package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spektr-org/opendata/engine"
	"github.com/spektr-org/opendata/loader"
	"github.com/spektr-org/opendata/metrics"
	"github.com/spektr-org/opendata/report"
	"github.com/spektr-org/opendata/schema"
	"github.com/spektr-org/opendata/scoring"
)

// ============================================================================
// PIPELINE — Load → Filter → Score/Aggregate → Report
// ============================================================================
// Entry points: RunCatalog, RunLaureates
//
// Steps:
//   1. Load every path; unreadable files are skipped and counted
//   2. Check the configured columns against each header (warnings only)
//   3. Apply filters → SubView (zero-copy)
//   4. Score (catalog) or aggregate (laureates)
//   5. Build the report
//
// ErrNoInput is the only failure: it means no file could be loaded.
// An input with zero records still produces a report.
// ============================================================================

// ErrNoInput is returned when none of the input files could be loaded.
var ErrNoInput = errors.New("no input file could be loaded")

// Options carries run-wide collaborators. The zero value is usable.
type Options struct {
	// Logger for run events. If nil, slog.Default() is used.
	Logger *slog.Logger

	// Metrics receives run counters. Nil disables them.
	Metrics *metrics.Recorder

	// SuggestMapping derives the laureate mapping from the first file's
	// header instead of using the configured one.
	SuggestMapping bool

	// Now and RunID fix the report clock and identifier (tests).
	Now   func() time.Time
	RunID string
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// CatalogRun is the outcome of RunCatalog.
type CatalogRun struct {
	Batch    *loader.Batch
	Records  []engine.Record // loaded records that passed the filters
	Scored   []scoring.ScoredRecord
	Report   *report.RelevanceReport
	Warnings []string
}

// LaureateRun is the outcome of RunLaureates.
type LaureateRun struct {
	Batch   *loader.Batch
	View    engine.RecordView // filtered view the report was built from
	Mapping schema.FieldMapping
	Report  *report.LaureateReport
}

// RunCatalog scores every catalog record and builds the relevance report.
func RunCatalog(cfg *schema.Config, paths []string, opts Options) (*CatalogRun, error) {
	start := opts.now()
	log := opts.logger()

	batch, err := load(cfg, paths, schema.KindCatalog, opts)
	if err != nil {
		return &CatalogRun{Batch: batch}, err
	}
	run := &CatalogRun{Batch: batch}
	for _, ds := range batch.Datasets {
		if w := checkHeader(ds, schema.TextRoles(cfg.TextFields)); w != "" {
			log.Warn("catalog columns missing", "path", ds.Path, "detail", w)
			run.Warnings = append(run.Warnings, w)
		}
	}

	view := engine.ApplyFilters(batch.View(), cfg.Filters)
	if view.Len() != batch.Total() {
		log.Info("filters applied", "kept", view.Len(), "loaded", batch.Total())
	}
	run.Records = engine.Records(view)

	vocab := cfg.Vocabulary()
	scorer := scoring.New(vocab,
		scoring.WithTextFields(cfg.TextFields),
		scoring.WithWeights(cfg.Weights),
	)
	log.Info("scoring datasets", "records", len(run.Records), "keywords", vocab.Len())
	run.Scored = scorer.ScoreAll(run.Records)

	run.Report = report.BuildRelevance(run.Scored, reportOptions(cfg, batch, opts)...)
	log.Info("relevance computed",
		"total", run.Report.Total,
		"relevant", run.Report.Relevant,
		"rate", engine.RoundTo1(run.Report.RatePercent()),
	)

	for _, s := range run.Scored {
		if s.Relevant() {
			opts.Metrics.ObserveScore(s.Score)
		}
	}
	opts.Metrics.Relevance(run.Report.Relevant, run.Report.Rate)
	opts.Metrics.RunFinished(start, opts.now())
	return run, nil
}

// RunLaureates aggregates a laureate collection and builds its report.
func RunLaureates(cfg *schema.Config, paths []string, opts Options) (*LaureateRun, error) {
	start := opts.now()
	log := opts.logger()

	batch, err := load(cfg, paths, schema.KindLaureates, opts)
	if err != nil {
		return &LaureateRun{Batch: batch}, err
	}

	mapping := cfg.Mapping
	if opts.SuggestMapping {
		mapping = schema.SuggestMapping(batch.Datasets[0].Header)
		log.Info("mapping suggested from header", "path", batch.Datasets[0].Path)
	}

	var warnings []string
	for _, ds := range batch.Datasets {
		if w := checkHeader(ds, mapping.Roles()); w != "" {
			log.Warn("mapped columns missing", "path", ds.Path, "detail", w)
			warnings = append(warnings, w)
		}
	}

	view := engine.ApplyFilters(batch.View(), cfg.Filters)
	log.Info("aggregating laureates", "records", view.Len())

	r := report.BuildLaureate(view, mapping, reportOptions(cfg, batch, opts)...)
	r.Metadata.Warnings = warnings

	opts.Metrics.RunFinished(start, opts.now())
	return &LaureateRun{Batch: batch, View: view, Mapping: mapping, Report: r}, nil
}

// load reads every path with the configured delimiter. It fails only when
// nothing could be loaded.
func load(cfg *schema.Config, paths []string, kind string, opts Options) (*loader.Batch, error) {
	delim, err := cfg.DelimiterRune()
	if err != nil {
		return &loader.Batch{}, err
	}
	lopts := loader.DefaultOptions()
	lopts.Delimiter = delim
	lopts.Logger = opts.Logger

	batch := loader.LoadFiles(paths, lopts)
	for _, ds := range batch.Datasets {
		opts.Metrics.FileLoaded(kind, ds.Len(), ds.DroppedRows)
	}
	for range batch.Failures {
		opts.Metrics.FileFailed()
	}
	if len(batch.Datasets) == 0 {
		return batch, fmt.Errorf("%w (%d of %d failed)", ErrNoInput, len(batch.Failures), len(paths))
	}
	return batch, nil
}

func checkHeader(ds *loader.Dataset, roles []schema.Role) string {
	if err := schema.Validate(ds.Path, ds.Header, roles); err != nil {
		return err.Error()
	}
	return ""
}

func reportOptions(cfg *schema.Config, batch *loader.Batch, opts Options) []report.Option {
	sources := make([]string, len(batch.Datasets))
	for i, ds := range batch.Datasets {
		sources[i] = ds.Path
	}
	rc := cfg.Report
	out := []report.Option{
		report.WithTopK(rc.TopK),
		report.WithDisplay(rc.Display),
		report.WithCategories(rc.CategoryPool, rc.CategorySamples),
		report.WithDomainTop(rc.DomainTop),
		report.WithRegionTop(rc.RegionTop),
		report.WithRecent(rc.RecentYears, rc.RecentTop),
		report.WithUnspecified(cfg.Unspecified),
		report.WithTextFields(cfg.TextFields),
		report.WithSources(sources...),
		report.WithRunID(opts.RunID),
	}
	if opts.Now != nil {
		out = append(out, report.WithClock(opts.Now))
	}
	return out
}
