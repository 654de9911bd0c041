package binary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

const (
	// DefaultTimeout is the default overall HTTP request timeout. Archives are
	// large and installs often run on slow CI links.
	DefaultTimeout = 30 * time.Minute
	// DefaultRetries is the default number of download retries
	DefaultRetries = 0
	// MaxRedirects bounds redirect chains; release downloads redirect to a CDN
	MaxRedirects = 10
	// userAgentPrefix is combined with the installer version
	userAgentPrefix = "junie-installer/"
)

// Downloader handles HTTP downloads with optional retries
type Downloader struct {
	client    *http.Client
	userAgent string
	retries   int
}

// NewDownloader creates a downloader that identifies itself as
// junie-installer/<version>.
func NewDownloader(version string) *Downloader {
	if version == "" {
		version = "dev"
	}
	return &Downloader{
		client: &http.Client{
			Timeout: DefaultTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= MaxRedirects {
					return fmt.Errorf("stopped after %d redirects", MaxRedirects)
				}
				return nil
			},
		},
		userAgent: userAgentPrefix + version,
		retries:   DefaultRetries,
	}
}

// WithTimeout sets the overall per-attempt timeout.
func (d *Downloader) WithTimeout(timeout time.Duration) *Downloader {
	if timeout > 0 {
		d.client.Timeout = timeout
	}
	return d
}

// WithRetries sets how many times a failed download is retried.
func (d *Downloader) WithRetries(retries int) *Downloader {
	if retries >= 0 {
		d.retries = retries
	}
	return d
}

// UserAgent returns the User-Agent header sent with requests.
func (d *Downloader) UserAgent() string {
	return d.userAgent
}

// DownloadToFile streams url into destPath. The body goes to destPath.tmp
// first and is renamed into place only once fully written.
func (d *Downloader) DownloadToFile(ctx context.Context, url, destPath string) error {
	var lastErr error

	for attempt := 0; attempt <= d.retries; attempt++ {
		// Check context before each attempt
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if attempt > 0 {
			// Exponential backoff: 1s, 2s, 4s
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := d.downloadOnce(ctx, url, destPath)
		if err == nil {
			return nil
		}

		lastErr = err

		// Don't retry on context cancellation or client errors
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var dlErr *DownloadError
		if errors.As(err, &dlErr) && !dlErr.retryable() {
			return err
		}
	}

	if d.retries == 0 {
		return lastErr
	}
	return fmt.Errorf("giving up after %d retries: %w", d.retries, lastErr)
}

// downloadOnce performs a single download attempt
func (d *Downloader) downloadOnce(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return &DownloadError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &DownloadError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
		}
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}

	tmpPath := destPath + ".tmp"
	tmpFile, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	// Track whether we need to clean up the temp file
	cleanupNeeded := true
	defer func() {
		tmpFile.Close()
		if cleanupNeeded {
			os.Remove(tmpPath)
		}
	}()

	if _, err := io.Copy(tmpFile, resp.Body); err != nil {
		return &DownloadError{URL: url, Err: fmt.Errorf("copy response body: %w", err)}
	}

	// Close temp file before rename
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	cleanupNeeded = false
	return nil
}
