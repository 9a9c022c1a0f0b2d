package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"golang.org/x/text/language"

	"github.com/spektr-org/opendata/fetch"
	"github.com/spektr-org/opendata/loader"
	"github.com/spektr-org/opendata/metrics"
	"github.com/spektr-org/opendata/pipeline"
	"github.com/spektr-org/opendata/report"
	"github.com/spektr-org/opendata/schema"
)

// ============================================================================
// OPENDATA CLI — Relevance and laureate reports for open-data CSV files
// ============================================================================

// Version is set at build time via -ldflags.
var Version = "dev"

const usage = `opendata — relevance scoring and reports for French open-data CSV files

Usage:
  opendata catalog   [flags] FILE...   score catalog datasets by business relevance
  opendata laureates [flags] FILE...   aggregate a laureate listing
  opendata run       [flags] FILE...   catalog or laureates, as set by the config kind
  opendata discover  [flags] FILE      profile columns and suggest a field mapping
  opendata fetch     [flags]           download the laureate export

Formats:
  json      Full JSON output (default)
  pretty    Pretty-printed JSON
  text      Human-readable report
  csv       Summary CSV (catalog) or region-by-year sheet (laureates)

Environment:
  OPENDATA_CONFIG      Config file used when -config is not given
  OPENDATA_LOG_LEVEL   debug, info, warn or error

Examples:
  opendata catalog -format text -out relevance_report.txt exports/*.csv
  opendata catalog -csv relevant_datasets_summary.csv -records processed.json catalog.csv
  opendata laureates -format pretty -charts charts.json ilab_laureats.csv
  opendata fetch -out data/ilab_laureats.csv
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	if err != nil && err != flag.ErrHelp {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(exitCode(err))
}

// exitCode maps run errors to the process status: 2 for usage errors,
// 1 for everything else.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, flag.ErrHelp):
		return 2
	default:
		return 1
	}
}

// options are the flags shared by every subcommand.
type options struct {
	config    string
	out       string
	delimiter string
	format    string
	top       int
	metrics   string
	logLevel  string
	lang      string
	version   bool

	// catalog
	csvPath     string
	recordsPath string

	// laureates
	chartsPath string
	suggest    bool
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return flag.ErrHelp
	}
	cmd, args := args[0], args[1:]
	switch cmd {
	case "-version", "--version", "version":
		fmt.Fprintf(stdout, "opendata %s\n", Version)
		return nil
	case "-h", "--help", "help":
		fmt.Fprint(stderr, usage)
		return flag.ErrHelp
	}

	opts := &options{}
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.config, "config", getEnv("OPENDATA_CONFIG", ""), "YAML config file")
	fs.StringVar(&opts.out, "out", "", "write output to file instead of stdout")
	fs.StringVar(&opts.delimiter, "delimiter", "", `field separator (";" or ","), detected when empty`)
	fs.StringVar(&opts.format, "format", "json", "output format: json, pretty, text, csv")
	fs.IntVar(&opts.top, "top", 0, "ranked datasets kept in the summary (catalog)")
	fs.StringVar(&opts.metrics, "metrics", "", "write run metrics to this textfile (.prom)")
	fs.StringVar(&opts.logLevel, "log-level", getEnv("OPENDATA_LOG_LEVEL", "info"), "log level: debug, info, warn, error")
	fs.StringVar(&opts.lang, "lang", "en", "language for number formatting in text output")
	fs.BoolVar(&opts.version, "version", false, "print version and exit")
	if cmd == "catalog" || cmd == "run" {
		fs.StringVar(&opts.csvPath, "csv", "", "also write the summary CSV here")
		fs.StringVar(&opts.recordsPath, "records", "", "also write the processed records JSON here")
	}
	if cmd == "laureates" || cmd == "run" {
		fs.StringVar(&opts.chartsPath, "charts", "", "also write dashboard chart data JSON here")
		fs.BoolVar(&opts.suggest, "suggest", false, "derive the field mapping from the header")
	}
	switch cmd {
	case "catalog", "laureates", "run", "discover", "fetch":
	default:
		fmt.Fprint(stderr, usage)
		return fmt.Errorf("unknown command %q: %w", cmd, flag.ErrHelp)
	}
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage of opendata %s:\n", cmd)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%s: %w", err, flag.ErrHelp)
	}
	if opts.version {
		fmt.Fprintf(stdout, "opendata %s\n", Version)
		return nil
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{
		Level: parseLogLevel(opts.logLevel),
	}))
	slog.SetDefault(logger)

	cfg, err := schema.LoadConfig(opts.config)
	if err != nil {
		return err
	}
	if opts.delimiter != "" {
		cfg.Delimiter = opts.delimiter
	}
	if opts.top > 0 {
		cfg.Report.TopK = opts.top
	}
	if opts.metrics != "" {
		cfg.Metrics.Textfile = opts.metrics
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if cmd == "run" {
		cmd = cfg.Kind
	}
	switch cmd {
	case schema.KindCatalog:
		return runCatalog(cfg, opts, fs.Args(), stdout, logger)
	case schema.KindLaureates:
		return runLaureates(cfg, opts, fs.Args(), stdout, logger)
	case "discover":
		return runDiscover(cfg, opts, fs.Args(), stdout, logger)
	default:
		return runFetch(ctx, cfg, opts, logger)
	}
}

// ============================================================================
// SUBCOMMANDS
// ============================================================================

func runCatalog(cfg *schema.Config, opts *options, args []string, stdout io.Writer, log *slog.Logger) error {
	paths, err := inputs(args)
	if err != nil {
		return err
	}
	rec := newRecorder(cfg)
	res, err := pipeline.RunCatalog(cfg, paths, pipeline.Options{Logger: log, Metrics: rec})
	if err != nil {
		return err
	}

	if opts.csvPath != "" {
		if err := writeFile(opts.csvPath, func(w io.Writer) error { return report.WriteSummaryCSV(w, res.Report) }); err != nil {
			return err
		}
		log.Info("summary csv written", "path", opts.csvPath)
	}
	if opts.recordsPath != "" {
		if err := writeFile(opts.recordsPath, func(w io.Writer) error {
			return report.WriteRecordsJSON(w, res.Records, opts.format == "pretty")
		}); err != nil {
			return err
		}
		log.Info("records written", "path", opts.recordsPath, "records", len(res.Records))
	}

	err = output(opts, stdout, func(w io.Writer) error {
		switch opts.format {
		case "csv":
			return report.WriteSummaryCSV(w, res.Report)
		case "text":
			return report.WriteText(w, res.Report, report.WithLanguage(textLanguage(opts.lang)))
		default:
			return report.WriteJSON(w, res.Report, opts.format == "pretty")
		}
	})
	if err != nil {
		return err
	}
	return rec.WriteTextfile(cfg.Metrics.Textfile)
}

func runLaureates(cfg *schema.Config, opts *options, args []string, stdout io.Writer, log *slog.Logger) error {
	paths, err := inputs(args)
	if err != nil {
		return err
	}
	rec := newRecorder(cfg)
	res, err := pipeline.RunLaureates(cfg, paths, pipeline.Options{
		Logger:         log,
		Metrics:        rec,
		SuggestMapping: opts.suggest,
	})
	if err != nil {
		return err
	}

	charts := report.BuildCharts(res.Report)
	if opts.chartsPath != "" {
		if err := writeFile(opts.chartsPath, func(w io.Writer) error {
			return report.WriteJSON(w, charts, opts.format == "pretty")
		}); err != nil {
			return err
		}
		log.Info("chart data written", "path", opts.chartsPath, "charts", len(charts))
	}

	err = output(opts, stdout, func(w io.Writer) error {
		switch opts.format {
		case "csv":
			for _, c := range charts {
				if c.ID == "region_year" {
					return report.WriteChartCSV(w, c)
				}
			}
			return errors.New("csv output needs both region and year mapped")
		case "text":
			return report.WriteText(w, res.Report, report.WithLanguage(textLanguage(opts.lang)))
		default:
			return report.WriteJSON(w, res.Report, opts.format == "pretty")
		}
	})
	if err != nil {
		return err
	}
	return rec.WriteTextfile(cfg.Metrics.Textfile)
}

func runDiscover(cfg *schema.Config, opts *options, args []string, stdout io.Writer, log *slog.Logger) error {
	if len(args) != 1 {
		return errors.New("discover takes exactly one file")
	}
	delim, err := cfg.DelimiterRune()
	if err != nil {
		return err
	}
	lopts := loader.DefaultOptions()
	lopts.Delimiter = delim
	lopts.Logger = log

	ds, err := loader.LoadFile(args[0], lopts)
	if err != nil {
		return err
	}
	profile := schema.Discover(ds.Path, ds.Header, ds.View())
	log.Info("profiled file", "path", ds.Path, "kind", profile.Kind, "rows", profile.Rows)

	return output(opts, stdout, func(w io.Writer) error {
		switch opts.format {
		case "csv":
			return report.WriteTableCSV(w, report.ProfileTable(profile))
		case "text":
			return report.WriteTable(w, report.ProfileTable(profile), report.WithLanguage(textLanguage(opts.lang)))
		default:
			return report.WriteJSON(w, profile, opts.format == "pretty")
		}
	})
}

func runFetch(ctx context.Context, cfg *schema.Config, opts *options, log *slog.Logger) error {
	path := opts.out
	if path == "" {
		path = cfg.Fetch.Output
	}
	client := fetch.New(fetch.Config{
		URLs:     cfg.Fetch.URLs,
		MinBytes: cfg.Fetch.MinBytes,
		Timeout:  cfg.Fetch.Timeout,
		Pause:    cfg.Fetch.Pause,
		Referer:  cfg.Fetch.Referer,
		Logger:   log,
	})
	res, err := client.Download(ctx, path)
	if err != nil {
		return err
	}
	log.Info("fetched", "url", res.URL, "path", res.Path, "bytes", res.Bytes, "attempt", res.Attempt)
	return nil
}

// ============================================================================
// HELPERS
// ============================================================================

func inputs(args []string) ([]string, error) {
	if len(args) == 0 {
		return nil, errors.New("no input files given")
	}
	return loader.Expand(args...)
}

func newRecorder(cfg *schema.Config) *metrics.Recorder {
	if cfg.Metrics.Textfile == "" {
		return nil
	}
	return metrics.New()
}

// output sends the main result to -out or stdout.
func output(opts *options, stdout io.Writer, write func(io.Writer) error) error {
	if opts.out == "" {
		return write(stdout)
	}
	return writeFile(opts.out, write)
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func textLanguage(s string) language.Tag {
	tag, err := language.Parse(s)
	if err != nil {
		return language.English
	}
	return tag
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
