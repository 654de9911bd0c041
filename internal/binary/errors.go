package binary

import (
	"errors"
	"fmt"
)

var (
	ErrDownloadFailed     = errors.New("download failed")
	ErrExtractionFailed   = errors.New("extraction failed")
	ErrVerificationFailed = errors.New("verification failed")
	ErrLayoutVerification = errors.New("unexpected archive layout")

	// ErrUnzipUnavailable means the system unzip tool could not be started.
	// The installer falls back to the built-in extractor.
	ErrUnzipUnavailable = errors.New("unzip tool unavailable")
)

// DownloadError reports a failed archive download. StatusCode is zero when
// no HTTP response was received.
type DownloadError struct {
	URL        string
	StatusCode int
	Status     string // e.g. "404 Not Found"
	Err        error
}

func (e *DownloadError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("download failed: %s", e.Status)
	}
	return fmt.Sprintf("download failed: %v", e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

func (e *DownloadError) Is(target error) bool { return target == ErrDownloadFailed }

// retryable reports whether another attempt could succeed. Client errors
// (4xx) never change on retry.
func (e *DownloadError) retryable() bool {
	return e.StatusCode < 400 || e.StatusCode >= 500
}

// ExtractionError reports a failed extraction. Output holds whatever the
// external tool printed.
type ExtractionError struct {
	Extractor string
	Err       error
	Output    string
}

func (e *ExtractionError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("%s: %v: %s", e.Extractor, e.Err, e.Output)
	}
	return fmt.Sprintf("%s: %v", e.Extractor, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

func (e *ExtractionError) Is(target error) bool { return target == ErrExtractionFailed }

// VerificationError reports an archive that failed a configured check.
type VerificationError struct {
	Method VerificationMethod
	Err    error
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("%s verification failed: %v", e.Method, e.Err)
}

func (e *VerificationError) Unwrap() error { return e.Err }

func (e *VerificationError) Is(target error) bool { return target == ErrVerificationFailed }

// LayoutVerificationError reports an extracted archive without the binary at
// the expected path.
type LayoutVerificationError struct {
	Path string
}

func (e *LayoutVerificationError) Error() string {
	return fmt.Sprintf("expected Junie binary not found after extraction at %s", e.Path)
}

func (e *LayoutVerificationError) Is(target error) bool { return target == ErrLayoutVerification }
