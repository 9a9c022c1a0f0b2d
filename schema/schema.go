package schema

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/spektr-org/opendata/engine"
	"github.com/spektr-org/opendata/scoring"
)

// ============================================================================
// SCHEMA — Field roles and run configuration
// ============================================================================
// Column headers differ between exports of the same dataset, so the
// analysis never hardcodes them. A FieldMapping names the physical column
// for each logical role once, at setup; the aggregations read it from here.
// ============================================================================

// Dataset kinds.
const (
	KindCatalog   = "catalog"
	KindLaureates = "laureates"
)

// FieldMapping names the column behind each laureate role.
// An empty field means the role is absent from the dataset.
type FieldMapping struct {
	Year          string `yaml:"year,omitempty" json:"year,omitempty"`
	Region        string `yaml:"region,omitempty" json:"region,omitempty"`
	Gender        string `yaml:"gender,omitempty" json:"gender,omitempty"`
	Domain        string `yaml:"domain,omitempty" json:"domain,omitempty"`
	Candidature   string `yaml:"candidature,omitempty" json:"candidature,omitempty"`
	Jury          string `yaml:"jury,omitempty" json:"jury,omitempty"`
	GrandPrix     string `yaml:"grand_prix,omitempty" json:"grandPrix,omitempty"`
	SIRET         string `yaml:"siret,omitempty" json:"siret,omitempty"`
	SIREN         string `yaml:"siren,omitempty" json:"siren,omitempty"`
	PreviousAward string `yaml:"previous_award,omitempty" json:"previousAward,omitempty"`
	ProjectName   string `yaml:"project,omitempty" json:"project,omitempty"`
}

// DefaultLaureateMapping returns the headers of the i-Lab laureate export.
func DefaultLaureateMapping() FieldMapping {
	return FieldMapping{
		Year:          "Année de concours",
		Region:        "Région",
		Gender:        "Genre",
		Domain:        "Domaine technologique",
		Candidature:   "Type de candidature",
		Jury:          "Jury",
		GrandPrix:     "Grand-Prix",
		SIRET:         "N° SIRET",
		SIREN:         "N° SIREN",
		PreviousAward: "Déjà lauréat en",
		ProjectName:   "Projet",
	}
}

// Role pairs a logical role with the column it reads.
type Role struct {
	Name  string `json:"role"`
	Field string `json:"field"`
}

// Roles lists every role in a fixed order, including unmapped ones.
func (m FieldMapping) Roles() []Role {
	return []Role{
		{"year", m.Year},
		{"region", m.Region},
		{"gender", m.Gender},
		{"domain", m.Domain},
		{"candidature", m.Candidature},
		{"jury", m.Jury},
		{"grand_prix", m.GrandPrix},
		{"siret", m.SIRET},
		{"siren", m.SIREN},
		{"previous_award", m.PreviousAward},
		{"project", m.ProjectName},
	}
}

// Set assigns field to the named role. It reports false for unknown roles.
func (m *FieldMapping) Set(role, field string) bool {
	switch role {
	case "year":
		m.Year = field
	case "region":
		m.Region = field
	case "gender":
		m.Gender = field
	case "domain":
		m.Domain = field
	case "candidature":
		m.Candidature = field
	case "jury":
		m.Jury = field
	case "grand_prix":
		m.GrandPrix = field
	case "siret":
		m.SIRET = field
	case "siren":
		m.SIREN = field
	case "previous_award":
		m.PreviousAward = field
	case "project":
		m.ProjectName = field
	default:
		return false
	}
	return true
}

// Merge returns m with every non-empty role of o applied on top.
func (m FieldMapping) Merge(o FieldMapping) FieldMapping {
	for _, r := range o.Roles() {
		if r.Field != "" {
			m.Set(r.Name, r.Field)
		}
	}
	return m
}

// IsEmpty reports whether no role is mapped.
func (m FieldMapping) IsEmpty() bool {
	for _, r := range m.Roles() {
		if r.Field != "" {
			return false
		}
	}
	return true
}

// TextRoles lists the scorer's text fields as roles.
func TextRoles(f scoring.TextFields) []Role {
	return []Role{
		{"title", f.Title},
		{"description", f.Description},
		{"tags", f.Tags},
		{"organization", f.Organization},
	}
}

// ============================================================================
// CONFIG — YAML run configuration
// ============================================================================

// Config is the optional YAML file read by the CLI. Every field has a
// default, so an empty or missing file is valid.
type Config struct {
	Kind        string `yaml:"kind"`        // catalog or laureates
	Unspecified string `yaml:"unspecified"` // label for empty category values
	Delimiter   string `yaml:"delimiter"`   // ";" or ","; empty = detect

	Mapping    FieldMapping       `yaml:"mapping"`
	TextFields scoring.TextFields `yaml:"text_fields"`
	Weights    scoring.Weights    `yaml:"weights"`
	Keywords   KeywordConfig      `yaml:"keywords"`
	Report     ReportConfig       `yaml:"report"`
	Filters    engine.Filters     `yaml:"filters"`
	Metrics    MetricsConfig      `yaml:"metrics"`
	Fetch      FetchConfig        `yaml:"fetch"`
}

// KeywordConfig adjusts the scoring vocabulary.
type KeywordConfig struct {
	Extra   []string `yaml:"extra,omitempty"`
	Replace bool     `yaml:"replace,omitempty"` // use Extra alone instead of the default list
}

// ReportConfig sizes the report sections.
type ReportConfig struct {
	TopK            int `yaml:"top_k"`            // ranked records kept in the JSON summary
	Display         int `yaml:"display"`          // ranked records printed in the text report
	CategoryPool    int `yaml:"category_pool"`    // ranked records grouped by primary keyword
	CategorySamples int `yaml:"category_samples"` // records listed per category
	DomainTop       int `yaml:"domain_top"`
	RegionTop       int `yaml:"region_top"`
	RecentYears     int `yaml:"recent_years"`
	RecentTop       int `yaml:"recent_top"`
}

// MetricsConfig points at a node_exporter textfile directory entry.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// FetchConfig lists download sources tried in order.
type FetchConfig struct {
	URLs     []string      `yaml:"urls,omitempty"`
	Output   string        `yaml:"output,omitempty"`
	MinBytes int64         `yaml:"min_bytes,omitempty"`
	Timeout  time.Duration `yaml:"timeout,omitempty"`
	Pause    time.Duration `yaml:"pause,omitempty"`
	Referer  string        `yaml:"referer,omitempty"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Kind:        KindCatalog,
		Unspecified: engine.Unspecified,
		Mapping:     DefaultLaureateMapping(),
		TextFields:  scoring.DefaultTextFields(),
		Weights:     scoring.DefaultWeights(),
		Report: ReportConfig{
			TopK:            100,
			Display:         50,
			CategoryPool:    200,
			CategorySamples: 5,
			DomainTop:       25,
			RegionTop:       15,
			RecentYears:     5,
			RecentTop:       5,
		},
		Fetch: FetchConfig{
			Output:   "ilab_laureats.csv",
			MinBytes: 1000,
			Timeout:  30 * time.Second,
			Pause:    2 * time.Second,
		},
	}
}

// LoadConfig reads a YAML config from path. A missing file yields
// DefaultConfig. Values absent from the file keep their defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.merge(file)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) merge(f Config) {
	if f.Kind != "" {
		c.Kind = strings.ToLower(f.Kind)
	}
	if f.Unspecified != "" {
		c.Unspecified = f.Unspecified
	}
	if f.Delimiter != "" {
		c.Delimiter = f.Delimiter
	}
	c.Mapping = c.Mapping.Merge(f.Mapping)
	if f.TextFields.Title != "" {
		c.TextFields.Title = f.TextFields.Title
	}
	if f.TextFields.Description != "" {
		c.TextFields.Description = f.TextFields.Description
	}
	if f.TextFields.Tags != "" {
		c.TextFields.Tags = f.TextFields.Tags
	}
	if f.TextFields.Organization != "" {
		c.TextFields.Organization = f.TextFields.Organization
	}
	if f.Weights != (scoring.Weights{}) {
		c.Weights = f.Weights
	}
	c.Keywords = f.Keywords
	mergeInt(&c.Report.TopK, f.Report.TopK)
	mergeInt(&c.Report.Display, f.Report.Display)
	mergeInt(&c.Report.CategoryPool, f.Report.CategoryPool)
	mergeInt(&c.Report.CategorySamples, f.Report.CategorySamples)
	mergeInt(&c.Report.DomainTop, f.Report.DomainTop)
	mergeInt(&c.Report.RegionTop, f.Report.RegionTop)
	mergeInt(&c.Report.RecentYears, f.Report.RecentYears)
	mergeInt(&c.Report.RecentTop, f.Report.RecentTop)
	c.Filters = f.Filters
	if f.Metrics.Textfile != "" {
		c.Metrics.Textfile = f.Metrics.Textfile
	}
	if len(f.Fetch.URLs) > 0 {
		c.Fetch.URLs = f.Fetch.URLs
	}
	if f.Fetch.Output != "" {
		c.Fetch.Output = f.Fetch.Output
	}
	if f.Fetch.MinBytes > 0 {
		c.Fetch.MinBytes = f.Fetch.MinBytes
	}
	if f.Fetch.Timeout > 0 {
		c.Fetch.Timeout = f.Fetch.Timeout
	}
	if f.Fetch.Pause > 0 {
		c.Fetch.Pause = f.Fetch.Pause
	}
	if f.Fetch.Referer != "" {
		c.Fetch.Referer = f.Fetch.Referer
	}
}

func mergeInt(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Kind {
	case KindCatalog, KindLaureates:
	default:
		return fmt.Errorf("unknown kind %q (want %s or %s)", c.Kind, KindCatalog, KindLaureates)
	}
	if _, err := c.DelimiterRune(); err != nil {
		return err
	}
	if c.Keywords.Replace && len(c.Keywords.Extra) == 0 {
		return errors.New("keywords.replace needs a non-empty keywords.extra")
	}
	return nil
}

// DelimiterRune converts Delimiter for the loader. Zero means detect.
func (c *Config) DelimiterRune() (rune, error) {
	switch c.Delimiter {
	case "":
		return 0, nil
	case ";", ",", "\t", "|":
		return rune(c.Delimiter[0]), nil
	case `\t`, "tab":
		return '\t', nil
	default:
		return 0, fmt.Errorf("unsupported delimiter %q", c.Delimiter)
	}
}

// Vocabulary builds the scoring vocabulary the config asks for.
func (c *Config) Vocabulary() scoring.Vocabulary {
	if c.Keywords.Replace {
		return scoring.NewVocabulary(c.Keywords.Extra...)
	}
	return scoring.DefaultVocabulary().With(c.Keywords.Extra...)
}
