// Package fetcher downloads the AKN schema the validator checks
// migrated documents against.
package fetcher

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type Fetcher struct {
	Client *http.Client
	Logger *slog.Logger
}

func New() *Fetcher {
	return &Fetcher{Client: http.DefaultClient}
}

// FetchSchema makes sure the XSD at url is available at dest and returns
// dest. An existing file is reused. URLs ending in .gz are decompressed.
func (f *Fetcher) FetchSchema(ctx context.Context, url string, dest string) (string, error) {
	if _, err := os.Stat(dest); err == nil {
		return dest, nil
	}
	if url == "" {
		return "", fmt.Errorf("schema %s missing and no url configured", dest)
	}

	if f.Logger != nil {
		f.Logger.Info("downloading schema", "url", url, "dest", dest)
	}

	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create schema dir: %w", err)
	}

	var lastErr error
	for attempt := range 3 {
		if attempt > 0 {
			if f.Logger != nil {
				f.Logger.Warn("retrying download", "url", url, "attempt", attempt+1, "error", lastErr)
			}
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}

		lastErr = func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return fmt.Errorf("build request: %w", err)
			}

			resp, err := f.Client.Do(req)
			if err != nil {
				return fmt.Errorf("download schema: %w", err)
			}
			defer func() { _ = resp.Body.Close() }()

			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				return fmt.Errorf("download schema: status %s", resp.Status)
			}

			var body io.ReadCloser = resp.Body
			if strings.HasSuffix(url, ".gz") {
				if body, err = wrapGzipReader(resp.Body); err != nil {
					return err
				}
				defer func() { _ = body.Close() }()
			}

			tmp, err := os.CreateTemp(dir, ".xsd-*")
			if err != nil {
				return fmt.Errorf("create temp schema file: %w", err)
			}
			tmpPath := tmp.Name()

			if _, err := io.Copy(tmp, body); err != nil {
				_ = tmp.Close()
				_ = os.Remove(tmpPath)
				return fmt.Errorf("write schema file: %w", err)
			}
			_ = tmp.Close()

			if err := os.Rename(tmpPath, dest); err != nil {
				_ = os.Remove(tmpPath)
				return fmt.Errorf("rename schema file: %w", err)
			}
			return nil
		}()
		if lastErr == nil {
			return dest, nil
		}
		if ctx.Err() != nil {
			return "", lastErr
		}
	}
	return "", lastErr
}

func wrapGzipReader(r io.ReadCloser) (io.ReadCloser, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("gzip reader: %w", err)
	}
	return &gzipReadCloser{ReadCloser: r, Reader: gz}, nil
}

type gzipReadCloser struct {
	io.ReadCloser
	Reader *gzip.Reader
}

func (g *gzipReadCloser) Read(p []byte) (int, error) {
	return g.Reader.Read(p)
}

func (g *gzipReadCloser) Close() error {
	_ = g.Reader.Close()
	return g.ReadCloser.Close()
}
