package report

import (
	"strconv"

	"github.com/spektr-org/opendata/engine"
)

// ============================================================================
// CHART BUILDER — Produces ChartConfig from report sections
// ============================================================================
// Charts are data only: labels, values and a palette. Sections that are
// nil on the report produce no chart.
// ============================================================================

// Default color palette for chart series.
var defaultColors = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

const (
	chartRegions = 15
	chartDomains = 10
	heatRegions  = 10
)

// BuildCharts returns the dashboard charts of a laureate report.
func BuildCharts(r *LaureateReport) []ChartConfig {
	var charts []ChartConfig

	if len(r.ByYear) > 0 {
		charts = append(charts, countChart("trend", "line", "Laureates per year", "Year", r.ByYear))
	}
	if r.Region != nil {
		charts = append(charts, countChart("regions", "bar", "Top regions", "Region", r.Region.Top(chartRegions).Counts))
	}
	if r.Domain != nil {
		charts = append(charts, countChart("domains", "pie", "Technology domains", "", r.Domain.Top(chartDomains).Counts))
	}
	if r.Gender != nil {
		charts = append(charts, countChart("gender", "pie", "Gender distribution", "", r.Gender.Counts))
	}
	if r.Candidature != nil {
		charts = append(charts, countChart("candidature", "pie", "Candidature type", "", r.Candidature.Counts))
	}
	if r.RegionYear != nil && r.Region != nil {
		charts = append(charts, heatmap(*r.RegionYear, r.Region.Top(heatRegions).Keys()))
	}
	return charts
}

// BuildRelevanceCharts returns the score band and keyword charts of a
// relevance report.
func BuildRelevanceCharts(r *RelevanceReport) []ChartConfig {
	d := r.Distribution
	bands := []engine.Count{
		{Key: "high", Count: d.High},
		{Key: "medium", Count: d.Medium},
		{Key: "low", Count: d.Low},
	}
	charts := []ChartConfig{countChart("bands", "pie", "Relevance distribution", "", bands)}
	if r.Keywords.Len() > 0 {
		charts = append(charts, countChart("keywords", "bar", "Most frequent keywords", "Keyword", r.Keywords.Top(20).Counts))
	}
	return charts
}

func countChart(id, chartType, title, xAxis string, counts []engine.Count) ChartConfig {
	points := make([]ChartPoint, 0, len(counts))
	for _, c := range counts {
		points = append(points, ChartPoint{Label: c.Key, Value: float64(c.Count)})
	}
	cfg := ChartConfig{
		ID:         id,
		ChartType:  chartType,
		Title:      title,
		XAxis:      xAxis,
		Series:     []ChartSeries{{Name: title, Data: points}},
		ShowLegend: chartType == "pie",
		ShowGrid:   chartType != "pie",
	}
	if chartType != "pie" {
		cfg.YAxis = "Count"
	}
	if chartType == "pie" {
		cfg.Colors = assignColors(len(points))
	} else {
		cfg.Colors = assignColors(1)
	}
	return cfg
}

// heatmap builds one series per year (ascending) with a point per region.
func heatmap(ct engine.CrossTab, regions []string) ChartConfig {
	years := engine.RecentYears(ct, 0)
	series := make([]ChartSeries, 0, len(years))
	for i := len(years) - 1; i >= 0; i-- {
		key := strconv.Itoa(years[i])
		points := make([]ChartPoint, 0, len(regions))
		for _, region := range regions {
			points = append(points, ChartPoint{Label: region, Value: float64(ct.Get(region, key))})
		}
		series = append(series, ChartSeries{Name: key, Data: points})
	}
	colors := assignColors(len(series))
	for i := range series {
		series[i].Color = colors[i]
	}
	return ChartConfig{
		ID:         "region_year",
		ChartType:  "heatmap",
		Title:      "Region by year",
		XAxis:      engine.LabelForField(ct.Primary),
		YAxis:      engine.LabelForField(ct.Secondary),
		Series:     series,
		Colors:     colors,
		ShowLegend: true,
	}
}

func assignColors(count int) []string {
	colors := make([]string, count)
	for i := range count {
		colors[i] = defaultColors[i%len(defaultColors)]
	}
	return colors
}
