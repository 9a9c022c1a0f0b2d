// Package opendata scores and aggregates French open-data CSV exports.
//
// Usage:
//
//	import "github.com/spektr-org/opendata/pipeline"
//
//	cfg, _ := schema.LoadConfig("opendata.yaml")
//	run, err := pipeline.RunCatalog(cfg, paths, pipeline.Options{})
//	report.WriteText(os.Stdout, run.Report)
//
// The loader turns CSV files into records, scoring ranks catalog datasets
// by business relevance, engine counts categorical values, and report
// builds render-ready summaries (JSON, CSV, text, chart data).
// All computation is local; only the fetch package touches the network.
package opendata
