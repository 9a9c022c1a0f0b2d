package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/text/language"

	"github.com/spektr-org/opendata/engine"
	"github.com/spektr-org/opendata/schema"
)

// ============================================================================
// LAUREATE REPORT TESTS
// ============================================================================

func laureateView() engine.RecordView {
	return engine.NewSliceView([]engine.Record{
		{"Année": "2020", "Région": "Bretagne", "Genre": "F", "Domaine": "Santé", "Grand-Prix": "Oui", "SIRET": "123"},
		{"Année": "2021", "Région": "Bretagne", "Genre": "M", "Domaine": "Numérique", "Grand-Prix": "", "SIRET": ""},
		{"Année": "2021", "Région": "", "Genre": "F", "Domaine": "Santé", "Grand-Prix": "", "SIRET": "456"},
		{"Année": "2019", "Région": "Occitanie", "Genre": "M", "Domaine": "", "Grand-Prix": "", "SIRET": ""},
		{"Année": "", "Région": "Occitanie", "Genre": "", "Domaine": "Santé", "Grand-Prix": "", "SIRET": ""},
	})
}

func laureateMapping() schema.FieldMapping {
	return schema.FieldMapping{
		Year:      "Année",
		Region:    "Région",
		Gender:    "Genre",
		Domain:    "Domaine",
		GrandPrix: "Grand-Prix",
		SIRET:     "SIRET",
	}
}

func buildLaureate(t *testing.T, opts ...Option) *LaureateReport {
	t.Helper()
	opts = append([]Option{WithClock(fixedClock), WithRunID("run-1")}, opts...)
	return BuildLaureate(laureateView(), laureateMapping(), opts...)
}

func TestBuildLaureateBreakdowns(t *testing.T) {
	r := buildLaureate(t)

	wantGender := []engine.Count{{Key: "F", Count: 2}, {Key: "M", Count: 2}, {Key: engine.Unspecified, Count: 1}}
	if diff := cmp.Diff(wantGender, r.Gender.Counts); diff != "" {
		t.Errorf("gender mismatch (-want +got):\n%s", diff)
	}
	wantDomain := []engine.Count{{Key: "Santé", Count: 3}, {Key: "Numérique", Count: 1}, {Key: engine.Unspecified, Count: 1}}
	if diff := cmp.Diff(wantDomain, r.Domain.Counts); diff != "" {
		t.Errorf("domain mismatch (-want +got):\n%s", diff)
	}
	for name, a := range map[string]*engine.Aggregation{"gender": r.Gender, "year": r.Year, "region": r.Region, "domain": r.Domain} {
		if a.Sum() != 5 || a.Total != 5 {
			t.Errorf("%s: sum=%d total=%d, want 5", name, a.Sum(), a.Total)
		}
	}

	wantYears := []engine.Count{{Key: "2019", Count: 1}, {Key: "2020", Count: 1}, {Key: "2021", Count: 2}}
	if diff := cmp.Diff(wantYears, r.ByYear); diff != "" {
		t.Errorf("by year mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(&engine.Span{First: 2019, Last: 2021, Years: 3}, r.YearRange); diff != "" {
		t.Errorf("year range mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildLaureateCounts(t *testing.T) {
	r := buildLaureate(t)

	if r.GrandPrix == nil || *r.GrandPrix != 1 {
		t.Errorf("grand prix = %v, want 1", r.GrandPrix)
	}
	if r.RepeatLaureates != nil {
		t.Errorf("repeat laureates should be nil when unmapped")
	}
	if diff := cmp.Diff(CompanyInfo{WithSIRET: 2}, r.Company); diff != "" {
		t.Errorf("company mismatch (-want +got):\n%s", diff)
	}
	// Four records carry a numeric year over a three-year span.
	want := Overview{Laureates: 5, Years: 3, Regions: 2, Domains: 2, AvgPerYear: 1.3}
	if diff := cmp.Diff(want, r.Overview); diff != "" {
		t.Errorf("overview mismatch (-want +got):\n%s", diff)
	}
	if r.Metadata.TotalRecords != 5 {
		t.Errorf("total records = %d", r.Metadata.TotalRecords)
	}
}

func TestBuildLaureateCrossTab(t *testing.T) {
	r := buildLaureate(t)
	if r.RegionYear == nil {
		t.Fatal("region/year cross-tab missing")
	}
	for _, row := range r.RegionYear.Rows {
		if got := r.Region.Get(row.Key); got != row.Total {
			t.Errorf("%s: row total %d, region frequency %d", row.Key, row.Total, got)
		}
	}
	if got := r.RegionYear.Get("Occitanie", engine.Unspecified); got != 1 {
		t.Errorf("Occitanie/unspecified = %d, want 1", got)
	}

	want := &RecentActivity{
		Years: []int{2021, 2020, 2019},
		Top: []engine.Count{
			{Key: "Bretagne", Count: 2},
			{Key: "Occitanie", Count: 1},
			{Key: engine.Unspecified, Count: 1},
		},
	}
	if diff := cmp.Diff(want, r.Recent); diff != "" {
		t.Errorf("recent mismatch (-want +got):\n%s", diff)
	}

	r = buildLaureate(t, WithRecent(1, 5))
	if diff := cmp.Diff([]int{2021}, r.Recent.Years); diff != "" {
		t.Errorf("recent years mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildLaureateUnmapped(t *testing.T) {
	r := BuildLaureate(laureateView(), schema.FieldMapping{}, WithRunID("x"))
	if r.Gender != nil || r.Year != nil || r.Region != nil || r.Domain != nil || r.Candidature != nil || r.Jury != nil {
		t.Error("unmapped roles should leave sections nil")
	}
	if r.RegionYear != nil || r.Recent != nil || r.YearRange != nil {
		t.Error("cross-tab needs both region and year")
	}
	if len(BuildCharts(r)) != 0 {
		t.Error("no charts expected without sections")
	}
}

func TestBuildLaureateDomainTop(t *testing.T) {
	r := buildLaureate(t, WithDomainTop(1))
	if r.Domain.Len() != 1 || r.Domain.Total != 5 {
		t.Errorf("domain = %+v, want one bucket out of 5", r.Domain)
	}
}

func TestLaureateText(t *testing.T) {
	r := buildLaureate(t)
	var buf bytes.Buffer
	if err := WriteText(&buf, r); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"LAUREATES - COMPREHENSIVE ANALYSIS REPORT",
		"Total Records: 5",
		"Competition Period: 2019 - 2021 (3 years)",
		"Grand Prix Winners: 1",
		"Companies with SIRET: 2",
		"GENDER DISTRIBUTION",
		"2021:  2",
		"REGIONAL DISTRIBUTION (TOP 15)",
		"TECHNOLOGY DOMAINS",
		"TOP 3 REGIONS - RECENT ACTIVITY (LAST 3 YEARS)",
		"1. Bretagne: 2 laureates",
		"END OF REPORT",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text report missing %q", want)
		}
	}
	for _, absent := range []string{"CANDIDATURE TYPE", "JURY LEVEL", "Repeat Laureates"} {
		if strings.Contains(out, absent) {
			t.Errorf("text report should not contain %q", absent)
		}
	}
}

func TestLaureateTextYearsNotGrouped(t *testing.T) {
	for _, tag := range []language.Tag{language.English, language.French, language.German} {
		var buf bytes.Buffer
		if err := WriteText(&buf, buildLaureate(t), WithLanguage(tag)); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), "Competition Period: 2019 - 2021 (3 years)") {
			t.Errorf("%s: years reformatted:\n%s", tag, buf.String())
		}
	}
}

func TestLaureateCharts(t *testing.T) {
	charts := BuildCharts(buildLaureate(t))

	var ids []string
	for _, c := range charts {
		ids = append(ids, c.ID)
	}
	if diff := cmp.Diff([]string{"trend", "regions", "domains", "gender", "region_year"}, ids); diff != "" {
		t.Fatalf("chart ids mismatch (-want +got):\n%s", diff)
	}

	heat := charts[4]
	var years []string
	for _, s := range heat.Series {
		years = append(years, s.Name)
	}
	if diff := cmp.Diff([]string{"2019", "2020", "2021"}, years); diff != "" {
		t.Errorf("heatmap series mismatch (-want +got):\n%s", diff)
	}
	if got := heat.Series[2].Data[0]; got != (ChartPoint{Label: "Bretagne", Value: 1}) {
		t.Errorf("Bretagne/2021 = %+v", got)
	}
}

func TestTables(t *testing.T) {
	r := buildLaureate(t)

	tbl := AggregationTable("Gender", *r.Gender, true)
	if diff := cmp.Diff([]string{"1.", "F", "2", "40.0%"}, tbl.Rows[0]); diff != "" {
		t.Errorf("first row mismatch (-want +got):\n%s", diff)
	}
	if tbl.Summary.Values["count"] != "5" || tbl.Summary.Values["percent"] != "100.0%" {
		t.Errorf("summary = %v", tbl.Summary.Values)
	}

	ct := CrossTabTable("Region by year", *r.RegionYear, []string{"2020", "2021"})
	if diff := cmp.Diff([]string{"Bretagne", "1", "1", "2"}, ct.Rows[0]); diff != "" {
		t.Errorf("cross-tab row mismatch (-want +got):\n%s", diff)
	}

	var buf bytes.Buffer
	if err := WriteTableCSV(&buf, ct); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "Région,2020,2021,Total\n") {
		t.Errorf("table csv = %q", buf.String())
	}
}

func TestWriteChartCSV(t *testing.T) {
	charts := BuildCharts(buildLaureate(t))

	var buf bytes.Buffer
	if err := WriteChartCSV(&buf, charts[0]); err != nil {
		t.Fatal(err)
	}
	if got, want := buf.String(), "Year,Count\n2019,1\n2020,1\n2021,2\n"; got != want {
		t.Errorf("trend csv = %q, want %q", got, want)
	}

	buf.Reset()
	if err := WriteChartCSV(&buf, charts[4]); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[0] != "Région,2019,2020,2021" || lines[1] != "Bretagne,0,1,1" {
		t.Errorf("heatmap csv = %q", lines)
	}
}
