package report

import (
	"time"

	"github.com/google/uuid"

	"github.com/spektr-org/opendata/engine"
	"github.com/spektr-org/opendata/scoring"
)

// ============================================================================
// REPORT OPTIONS — Functional options for builders
// ============================================================================

// Option configures report building via functional options pattern.
type Option func(*config)

type config struct {
	TopK            int
	Display         int
	CategoryPool    int
	CategorySamples int
	DomainTop       int
	RegionTop       int
	RecentYears     int
	RecentTop       int
	Unspecified     string
	TextFields      scoring.TextFields
	Sources         []string
	Now             func() time.Time
	RunID           string
}

// WithTopK sets how many ranked records the relevance report keeps.
func WithTopK(n int) Option {
	return func(c *config) { setPositive(&c.TopK, n) }
}

// WithDisplay sets how many ranked records the text report lists.
func WithDisplay(n int) Option {
	return func(c *config) { setPositive(&c.Display, n) }
}

// WithCategories sets how many top records are grouped by primary keyword
// and how many are listed per category.
func WithCategories(pool, samples int) Option {
	return func(c *config) {
		setPositive(&c.CategoryPool, pool)
		setPositive(&c.CategorySamples, samples)
	}
}

// WithDomainTop limits the domain breakdown of a laureate report.
func WithDomainTop(n int) Option {
	return func(c *config) { setPositive(&c.DomainTop, n) }
}

// WithRegionTop sets how many regions the text report lists.
func WithRegionTop(n int) Option {
	return func(c *config) { setPositive(&c.RegionTop, n) }
}

// WithRecent sets the recent-activity window (latest years) and its length.
func WithRecent(years, top int) Option {
	return func(c *config) {
		setPositive(&c.RecentYears, years)
		setPositive(&c.RecentTop, top)
	}
}

// WithUnspecified sets the label for empty category values.
func WithUnspecified(label string) Option {
	return func(c *config) {
		if label != "" {
			c.Unspecified = label
		}
	}
}

// WithTextFields names the catalog columns printed for ranked records.
// Empty names keep the default.
func WithTextFields(f scoring.TextFields) Option {
	return func(c *config) {
		if f.Title != "" {
			c.TextFields.Title = f.Title
		}
		if f.Description != "" {
			c.TextFields.Description = f.Description
		}
		if f.Tags != "" {
			c.TextFields.Tags = f.Tags
		}
		if f.Organization != "" {
			c.TextFields.Organization = f.Organization
		}
	}
}

// WithSources records the input files on the report.
func WithSources(paths ...string) Option {
	return func(c *config) { c.Sources = append([]string(nil), paths...) }
}

// WithClock replaces time.Now for GeneratedAt.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		if now != nil {
			c.Now = now
		}
	}
}

// WithRunID fixes the run identifier instead of generating one.
func WithRunID(id string) Option {
	return func(c *config) { c.RunID = id }
}

func setPositive(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}

// applyOptions creates a config from functional options.
func applyOptions(opts []Option) *config {
	cfg := &config{
		TopK:            100,
		Display:         50,
		CategoryPool:    200,
		CategorySamples: 5,
		DomainTop:       25,
		RegionTop:       15,
		RecentYears:     5,
		RecentTop:       5,
		Unspecified:     engine.Unspecified,
		TextFields:      scoring.DefaultTextFields(),
		Now:             time.Now,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.RunID == "" {
		cfg.RunID = uuid.NewString()
	}
	return cfg
}

func (c *config) engineOptions() []engine.Option {
	return []engine.Option{engine.WithUnspecified(c.Unspecified)}
}
