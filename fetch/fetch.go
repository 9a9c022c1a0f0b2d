// Package fetch downloads a source CSV from a list of candidate URLs.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ============================================================================
// FETCH CLIENT — Download with fallback URLs
// ============================================================================
// Attempts run in order:
//   1. GET with browser-like headers (some portals reject bare clients)
//   2. Accept on 200 when the content type mentions csv or the body is
//      larger than MinBytes
//   3. Otherwise pause, then try the next URL
//
// The first accepted body is written to a temp file next to the target
// and renamed into place, so a failed run never leaves a partial file.
// ============================================================================

// ErrAllAttemptsFailed is returned when no URL produced an acceptable body.
var ErrAllAttemptsFailed = errors.New("all download attempts failed")

// DefaultURLs are the i-Lab laureate exports of the French research ministry
// portal, newest API first.
var DefaultURLs = []string{
	"https://data.enseignementsup-recherche.gouv.fr/api/explore/v2.1/catalog/datasets/fr-esr-laureats-concours-national-i-lab/exports/csv",
	"https://data.enseignementsup-recherche.gouv.fr/explore/dataset/fr-esr-laureats-concours-national-i-lab/download/?format=csv",
	"https://data.enseignementsup-recherche.gouv.fr/api/records/1.0/download?dataset=fr-esr-laureats-concours-national-i-lab&format=csv",
}

// DefaultReferer is sent when Config.Referer is empty.
const DefaultReferer = "https://data.enseignementsup-recherche.gouv.fr/"

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Config controls a Client. Zero fields take the defaults.
type Config struct {
	URLs     []string
	MinBytes int64         // a body this size or smaller must be labelled csv
	Timeout  time.Duration // per attempt
	Pause    time.Duration // between attempts
	Referer  string

	// Logger for attempt events. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Client downloads CSV exports.
type Client struct {
	config Config
	client *http.Client
	log    *slog.Logger
}

// New creates a Client.
func New(cfg Config) *Client {
	if len(cfg.URLs) == 0 {
		cfg.URLs = DefaultURLs
	}
	if cfg.MinBytes <= 0 {
		cfg.MinBytes = 1000
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Pause < 0 {
		cfg.Pause = 0
	}
	if cfg.Referer == "" {
		cfg.Referer = DefaultReferer
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log,
	}
}

// Result describes a successful download.
type Result struct {
	URL     string
	Path    string
	Bytes   int64
	Attempt int // 1-based
}

// Download tries each URL in order and writes the first acceptable body
// to path. It returns ErrAllAttemptsFailed, joined with every attempt
// error, when none succeeds.
func (c *Client) Download(ctx context.Context, path string) (*Result, error) {
	urls := c.config.URLs
	var errs []error
	for i, url := range urls {
		c.log.Info("download attempt", "attempt", i+1, "of", len(urls), "url", url)

		body, err := c.get(ctx, url)
		if err == nil {
			var n int64
			n, err = writeAtomic(path, body)
			if err == nil {
				c.log.Info("download complete", "path", path, "bytes", n)
				return &Result{URL: url, Path: path, Bytes: n, Attempt: i + 1}, nil
			}
		}
		c.log.Warn("download attempt failed", "url", url, "error", err)
		errs = append(errs, err)

		if ctx.Err() != nil {
			break
		}
		if i < len(urls)-1 {
			if err := sleep(ctx, c.config.Pause); err != nil {
				errs = append(errs, err)
				break
			}
		}
	}
	return nil, errors.Join(append([]error{ErrAllAttemptsFailed}, errs...)...)
}

// Ensure downloads path only when it is missing or not larger than
// MinBytes. It reports whether a download happened.
func (c *Client) Ensure(ctx context.Context, path string) (bool, error) {
	if info, err := os.Stat(path); err == nil && info.Size() > c.config.MinBytes {
		c.log.Debug("source already present", "path", path, "bytes", info.Size())
		return false, nil
	}
	if _, err := c.Download(ctx, path); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/csv,application/csv,*/*")
	req.Header.Set("Accept-Language", "fr-FR,fr;q=0.9,en;q=0.8")
	req.Header.Set("Referer", c.config.Referer)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if !strings.Contains(contentType, "csv") && int64(len(body)) <= c.config.MinBytes {
		return nil, fmt.Errorf("GET %s: not csv (%q, %d bytes)", url, contentType, len(body))
	}
	return body, nil
}

func writeAtomic(path string, data []byte) (int64, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := tmp.Write(data)
	if err != nil {
		tmp.Close()
		return 0, fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, fmt.Errorf("rename to %s: %w", path, err)
	}
	return int64(n), nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
