package loader

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/spektr-org/opendata/engine"
)

// ============================================================================
// RECORD LOADER — Parses delimited text files into []engine.Record
// ============================================================================
// Pipeline per file:
//   1. Read bytes, reject invalid UTF-8, strip a leading BOM
//   2. Pick the delimiter (explicit override, else sample heuristic)
//   3. Header row → field names (trimmed, NFC)
//   4. Each row → Record, missing cells = "", one wrapping quote removed
//   5. Rows where every value is empty are dropped
// ============================================================================

// DefaultSampleSize is how many leading bytes the delimiter heuristic reads.
const DefaultSampleSize = 2048

// Options controls how files are parsed.
type Options struct {
	// Delimiter forces the field separator. 0 means detect from a sample.
	Delimiter rune

	// SampleSize is the number of bytes inspected by DetectDelimiter.
	SampleSize int

	// Logger for load events. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// DefaultOptions returns Options with sensible defaults.
func DefaultOptions() Options {
	return Options{SampleSize: DefaultSampleSize}
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// Dataset is the parsed content of one file.
type Dataset struct {
	Path        string          `json:"path"`
	Header      []string        `json:"header"`
	Delimiter   string          `json:"delimiter"`
	Records     []engine.Record `json:"records"`
	DroppedRows int             `json:"droppedRows,omitempty"` // all-empty rows
	SkippedRows int             `json:"skippedRows,omitempty"` // unparsable rows
}

// Len returns the number of records.
func (d *Dataset) Len() int { return len(d.Records) }

// View exposes the records to the aggregation engine.
func (d *Dataset) View() engine.RecordView {
	return engine.NewSliceView(d.Records, d.Header...)
}

// ============================================================================
// DELIMITER DETECTION
// ============================================================================

// DetectDelimiter picks ';' when it occurs strictly more often than ','
// in sample, and ',' otherwise. Separators inside quoted values are counted
// too, so a file with long quoted prose can be misdetected; pass an explicit
// Options.Delimiter for such files.
func DetectDelimiter(sample []byte) rune {
	if bytes.Count(sample, []byte{';'}) > bytes.Count(sample, []byte{','}) {
		return ';'
	}
	return ','
}

// ============================================================================
// DECODING
// ============================================================================

// Decode validates UTF-8 and strips a leading byte-order mark.
func Decode(data []byte) ([]byte, error) {
	if !utf8.Valid(data) {
		return nil, &DecodeError{Offset: firstInvalid(data)}
	}
	out, _, err := transform.Bytes(unicode.UTF8BOM.NewDecoder(), data)
	if err != nil {
		return nil, fmt.Errorf("strip BOM: %w", err)
	}
	return out, nil
}

func firstInvalid(data []byte) int {
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return len(data)
}

// ============================================================================
// LOADING
// ============================================================================

// LoadFile parses a single file. Any failure is returned as *FileReadError.
func LoadFile(path string, opts Options) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &FileReadError{Path: path, Err: err}
	}
	ds, err := Parse(data, path, opts)
	if err != nil {
		return nil, &FileReadError{Path: path, Err: err}
	}
	return ds, nil
}

// Load parses everything readable from r. name labels the dataset.
func Load(r io.Reader, name string, opts Options) (*Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &FileReadError{Path: name, Err: err}
	}
	ds, err := Parse(data, name, opts)
	if err != nil {
		return nil, &FileReadError{Path: name, Err: err}
	}
	return ds, nil
}

// Parse converts raw file bytes into a Dataset.
func Parse(data []byte, name string, opts Options) (*Dataset, error) {
	text, err := Decode(data)
	if err != nil {
		return nil, err
	}

	delim := opts.Delimiter
	if delim == 0 {
		size := opts.SampleSize
		if size <= 0 {
			size = DefaultSampleSize
		}
		delim = DetectDelimiter(text[:min(size, len(text))])
	}

	reader := csv.NewReader(bytes.NewReader(text))
	reader.Comma = delim
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoHeader
		}
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}

	ds := &Dataset{
		Path:      name,
		Header:    make([]string, len(headers)),
		Delimiter: string(delim),
		Records:   []engine.Record{},
	}
	for i, h := range headers {
		ds.Header[i] = cleanHeader(h)
	}

	log := opts.logger()
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			ds.SkippedRows++
			log.Warn("skipping malformed row", "file", name, "error", err)
			continue
		}

		rec := make(engine.Record, len(ds.Header))
		for i, key := range ds.Header {
			val := ""
			if i < len(row) {
				val = cleanValue(row[i])
			}
			rec[key] = val
		}
		if rec.IsEmpty() {
			ds.DroppedRows++
			continue
		}
		ds.Records = append(ds.Records, rec)
	}

	return ds, nil
}

// cleanHeader trims a header cell, drops a stray BOM and composes accents
// so "Année" matches regardless of how the exporter encoded it.
func cleanHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.TrimSpace(h)
	return norm.NFC.String(h)
}

// cleanValue trims whitespace and removes exactly one wrapping quote on
// each side when present.
func cleanValue(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, `"`)
	v = strings.TrimSuffix(v, `"`)
	return v
}

// ============================================================================
// BATCH LOADING
// ============================================================================

// Batch collects every dataset of a run plus the files that were skipped.
type Batch struct {
	Datasets []*Dataset
	Failures []*FileReadError
}

// Total returns the record count across all datasets.
func (b *Batch) Total() int {
	n := 0
	for _, ds := range b.Datasets {
		n += ds.Len()
	}
	return n
}

// Records returns every record in file order.
func (b *Batch) Records() []engine.Record {
	out := make([]engine.Record, 0, b.Total())
	for _, ds := range b.Datasets {
		out = append(out, ds.Records...)
	}
	return out
}

// View concatenates the datasets without copying.
func (b *Batch) View() engine.RecordView {
	views := make([]engine.RecordView, len(b.Datasets))
	for i, ds := range b.Datasets {
		views[i] = ds.View()
	}
	return engine.Concat(views...)
}

// LoadFiles loads each path in order. A file that fails is logged and
// recorded in Failures; the remaining files are still loaded.
func LoadFiles(paths []string, opts Options) *Batch {
	log := opts.logger()
	batch := &Batch{}
	for _, path := range paths {
		ds, err := LoadFile(path, opts)
		if err != nil {
			var fre *FileReadError
			if !errors.As(err, &fre) {
				fre = &FileReadError{Path: path, Err: err}
			}
			log.Warn("skipping file", "path", path, "error", fre.Err)
			batch.Failures = append(batch.Failures, fre)
			continue
		}
		log.Debug("loaded file",
			"path", path,
			"records", ds.Len(),
			"delimiter", ds.Delimiter,
			"dropped", ds.DroppedRows,
		)
		batch.Datasets = append(batch.Datasets, ds)
	}
	log.Info("load complete",
		"files", len(batch.Datasets),
		"failed", len(batch.Failures),
		"records", batch.Total(),
	)
	return batch
}

// Expand resolves glob patterns (or plain paths) into a sorted, de-duplicated
// file list. A plain path that does not exist is kept so the loader can
// report it.
func Expand(patterns ...string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, p := range patterns {
		matches, err := filepath.Glob(p)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", p, err)
		}
		if len(matches) == 0 && !strings.ContainsAny(p, "*?[") {
			matches = []string{p}
		}
		sort.Strings(matches)
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return out, nil
}
