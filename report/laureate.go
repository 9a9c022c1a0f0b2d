package report

import (
	"github.com/spektr-org/opendata/engine"
	"github.com/spektr-org/opendata/schema"
)

// ============================================================================
// LAUREATE REPORT — Categorical breakdown of competition winners
// ============================================================================
// Every section reads its column through the FieldMapping. A role left
// empty in the mapping drops its section; a role mapped to a column the
// files lack counts every record as unspecified.
// ============================================================================

// BuildLaureate aggregates a laureate collection.
func BuildLaureate(view engine.RecordView, m schema.FieldMapping, opts ...Option) *LaureateReport {
	cfg := applyOptions(opts)
	eopts := cfg.engineOptions()

	r := &LaureateReport{
		RunID:       cfg.RunID,
		GeneratedAt: cfg.Now().UTC(),
		Metadata: Metadata{
			TotalRecords: view.Len(),
			Fields:       append([]string{}, view.Keys()...),
			Sources:      cfg.Sources,
			Mapping:      m,
		},
		RegionTop: cfg.RegionTop,
	}

	frequency := func(field string) *engine.Aggregation {
		if field == "" {
			return nil
		}
		agg := engine.Frequency(view, field, eopts...)
		return &agg
	}
	present := func(field string) *int {
		if field == "" {
			return nil
		}
		n := engine.CountNonEmpty(view, field)
		return &n
	}

	r.Gender = frequency(m.Gender)
	r.Region = frequency(m.Region)
	r.Candidature = frequency(m.Candidature)
	r.Jury = frequency(m.Jury)
	if d := frequency(m.Domain); d != nil {
		top := d.Top(cfg.DomainTop)
		r.Domain = &top
	}

	if r.Year = frequency(m.Year); r.Year != nil {
		r.ByYear = r.Year.Chronological()
		if span, ok := engine.YearSpan(*r.Year); ok {
			r.YearRange = &span
		}
	}

	r.GrandPrix = present(m.GrandPrix)
	r.RepeatLaureates = present(m.PreviousAward)
	r.Company = CompanyInfo{
		WithSIRET: engine.CountNonEmpty(view, m.SIRET),
		WithSIREN: engine.CountNonEmpty(view, m.SIREN),
	}

	if m.Region != "" && m.Year != "" {
		ct := engine.CrossTabulate(view, m.Region, m.Year, eopts...)
		r.RegionYear = &ct
		r.Recent = &RecentActivity{
			Years: engine.RecentYears(ct, cfg.RecentYears),
			Top:   engine.RecentTotals(ct, cfg.RecentYears, cfg.RecentTop),
		}
	}

	r.Overview = overview(view, m, r.YearRange, r.ByYear)
	return r
}

// overview computes the dashboard headline numbers. Distinct counts leave
// empty values out. The yearly average only counts records with a numeric
// year, over the numeric span.
func overview(view engine.RecordView, m schema.FieldMapping, span *engine.Span, byYear []engine.Count) Overview {
	o := Overview{Laureates: view.Len()}
	if m.Region != "" {
		o.Regions = len(engine.DistinctValues(view, m.Region))
	}
	if m.Domain != "" {
		o.Domains = len(engine.DistinctValues(view, m.Domain))
	}
	if span != nil {
		o.Years = span.Years
		o.AvgPerYear = engine.RoundTo1(float64(sumCounts(byYear)) / float64(span.Years))
	}
	return o
}
