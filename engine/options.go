package engine

// ============================================================================
// ENGINE OPTIONS — Functional options for aggregations
// ============================================================================

// Option configures aggregation behavior via functional options pattern.
type Option func(*config)

type config struct {
	Unspecified string // bucket for empty/absent values
}

// WithUnspecified sets the label used for empty or absent category values.
// An empty label keeps the default.
func WithUnspecified(label string) Option {
	return func(c *config) {
		if label != "" {
			c.Unspecified = label
		}
	}
}

// applyOptions creates a config from functional options.
func applyOptions(opts []Option) *config {
	cfg := &config{
		Unspecified: Unspecified,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
