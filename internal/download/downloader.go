// Package download fetches the public regulatory datasets the importers
// consume: the FDIC failed-bank list, the FFIEC NIC bulk tables, and
// pointers to the archives that only offer interactive access.
package download

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const userAgent = "bankfail-downloader/1.0"

// defaultInterval spaces requests so bulk runs stay polite to the
// upstream servers.
const defaultInterval = 2 * time.Second

// Downloader fetches catalog sources into a local directory tree, one
// subdirectory per publisher group.
type Downloader struct {
	client  *http.Client
	limiter *rate.Limiter
	baseDir string
	logger  *slog.Logger
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithClient replaces the HTTP client.
func WithClient(c *http.Client) Option {
	return func(d *Downloader) { d.client = c }
}

// WithInterval sets the minimum spacing between requests.
func WithInterval(interval time.Duration) Option {
	return func(d *Downloader) { d.limiter = rate.NewLimiter(rate.Every(interval), 1) }
}

// WithLogger replaces the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Downloader) { d.logger = l }
}

// New creates a Downloader writing under baseDir.
func New(baseDir string, opts ...Option) *Downloader {
	d := &Downloader{
		client:  &http.Client{Timeout: 2 * time.Minute},
		limiter: rate.NewLimiter(rate.Every(defaultInterval), 1),
		baseDir: baseDir,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Path returns where a source lands on disk.
func (d *Downloader) Path(s Source) string {
	return filepath.Join(d.baseDir, string(s.Group), s.Filename)
}

// Result reports the outcome of fetching one source.
type Result struct {
	Source  Source
	Path    string
	Skipped bool
	Err     error
}

// Fetch downloads one source. An already-present file is skipped, so
// reruns only pull what is missing. Manual-only sources return an error
// naming the URL the operator has to visit.
func (d *Downloader) Fetch(ctx context.Context, s Source) Result {
	if s.ManualOnly {
		return Result{Source: s, Err: fmt.Errorf("%s requires a manual download from %s", s.Key, s.URL)}
	}

	path := d.Path(s)
	if _, err := os.Stat(path); err == nil {
		d.logger.InfoContext(ctx, "source already present, skipping",
			"key", s.Key, "path", path)
		return Result{Source: s, Path: path, Skipped: true}
	}

	if err := d.limiter.Wait(ctx); err != nil {
		return Result{Source: s, Err: err}
	}

	d.logger.InfoContext(ctx, "downloading source",
		"key", s.Key, "url", s.URL)
	if err := d.fetchFile(ctx, s.URL, path); err != nil {
		return Result{Source: s, Err: fmt.Errorf("fetch %s: %w", s.Key, err)}
	}

	if s.Format == "zip" {
		extractDir := strings.TrimSuffix(path, ".zip")
		if err := extractZip(path, extractDir); err != nil {
			return Result{Source: s, Err: fmt.Errorf("extract %s: %w", s.Key, err)}
		}
	}
	return Result{Source: s, Path: path}
}

// FetchAll downloads every non-manual source in the catalog, continuing
// past individual failures. The returned results are in catalog order;
// manual-only entries come back with their explanatory error.
func (d *Downloader) FetchAll(ctx context.Context, sources []Source) []Result {
	results := make([]Result, 0, len(sources))
	for _, s := range sources {
		res := d.Fetch(ctx, s)
		if res.Err != nil {
			d.logger.WarnContext(ctx, "source not fetched",
				"key", s.Key, "error", res.Err)
		}
		results = append(results, res)
	}
	return results
}

func (d *Downloader) fetchFile(ctx context.Context, url, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	// Write to a temp name and rename, so an interrupted transfer never
	// satisfies the skip-if-present check.
	tmp := path + ".partial"
	file, err := os.Create(tmp)
	if err != nil {
		return err
	}
	n, err := io.Copy(file, resp.Body)
	if err != nil {
		file.Close()
		os.Remove(tmp)
		return err
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		return err
	}
	d.logger.InfoContext(ctx, "source fetched", "path", path, "bytes", n)
	return nil
}

func extractZip(zipPath, extractDir string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		// Reject entries that would escape the extraction root.
		dest := filepath.Join(extractDir, f.Name)
		if !strings.HasPrefix(dest, filepath.Clean(extractDir)+string(os.PathSeparator)) {
			return fmt.Errorf("zip entry %q escapes extraction directory", f.Name)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(dest, 0755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return err
		}
		if err := extractFile(f, dest); err != nil {
			return fmt.Errorf("extract %s: %w", f.Name, err)
		}
	}
	return nil
}

func extractFile(f *zip.File, dest string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, rc)
	return err
}
