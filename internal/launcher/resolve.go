package launcher

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ZebulonRouseFrantzich/junie/internal/layout"
	"github.com/ZebulonRouseFrantzich/junie/internal/transaction"
)

// ErrorCodeBinaryNotFound distinguishes a missing binary from every other
// launcher failure.
const ErrorCodeBinaryNotFound = "JUNIE_BINARY_NOT_FOUND"

// ErrBinaryNotFound matches every *BinaryNotFoundError.
var ErrBinaryNotFound = errors.New("junie binary not found")

// Source says which candidate a Resolution came from.
type Source string

const (
	SourceEnv     Source = "env"
	SourceMarker  Source = "marker"
	SourceDefault Source = "default"
)

// ResolveOptions describes where to look.
type ResolveOptions struct {
	Layout *layout.Layout
	// OS and Arch are the host's GOOS and GOARCH.
	OS   string
	Arch string
	// EnvPath is the JUNIE_BINARY_PATH/JUNIE_BINARY override, "" if unset.
	EnvPath string
}

// Resolution is a binary that exists on disk.
type Resolution struct {
	Path   string
	Source Source
}

// BinaryNotFoundError reports that no candidate exists.
type BinaryNotFoundError struct {
	Code         string
	Tried        string // highest-precedence candidate
	Candidates   []string
	OS           string
	Arch         string
	Expected     string
	MarkerPath   string
	MarkerStatus layout.MarkerStatus
	// FailedStage is the stage the last install run failed in, if any.
	FailedStage string
	Hint        string
}

func (e *BinaryNotFoundError) Error() string {
	marker := e.MarkerPath
	switch e.MarkerStatus {
	case layout.MarkerEmpty:
		marker = "<empty>"
	case layout.MarkerMissing:
		marker = "<missing>"
	}

	msg := fmt.Sprintf("Junie binary not found at %s. platform=%s arch=%s expected=%s marker=%s",
		e.Tried, e.OS, e.Arch, e.Expected, marker)
	if e.FailedStage != "" {
		msg += fmt.Sprintf(" last_install_failed=%s", e.FailedStage)
	}
	if e.Hint != "" {
		msg += " " + e.Hint
	}
	return msg
}

func (e *BinaryNotFoundError) Is(target error) bool { return target == ErrBinaryNotFound }

// Resolve returns the first candidate binary that exists.
func Resolve(opts ResolveOptions) (*Resolution, error) {
	if opts.Layout == nil {
		return nil, errors.New("layout is required")
	}

	type candidate struct {
		path   string
		source Source
	}
	var candidates []candidate

	if env := strings.TrimSpace(opts.EnvPath); env != "" {
		candidates = append(candidates, candidate{env, SourceEnv})
	}
	markerPath, markerStatus := opts.Layout.ReadMarker()
	if markerStatus == layout.MarkerPresent {
		candidates = append(candidates, candidate{markerPath, SourceMarker})
	}
	expected := opts.Layout.ExpectedBinary(opts.OS)
	candidates = append(candidates, candidate{expected, SourceDefault})

	tried := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if isFile(c.path) {
			return &Resolution{Path: c.path, Source: c.source}, nil
		}
		tried = append(tried, c.path)
	}

	return nil, &BinaryNotFoundError{
		Code:         ErrorCodeBinaryNotFound,
		Tried:        tried[0],
		Candidates:   tried,
		OS:           opts.OS,
		Arch:         opts.Arch,
		Expected:     expected,
		MarkerPath:   markerPath,
		MarkerStatus: markerStatus,
		FailedStage:  lastFailedStage(opts.Layout),
		Hint: fmt.Sprintf("Try a clean reinstall: rm -rf %s %s && junie-install, and check that GitHub release downloads are reachable.",
			opts.Layout.WorkDir, opts.Layout.MarkerFile),
	}
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// lastFailedStage reads the install journal left by the installer.
func lastFailedStage(l *layout.Layout) string {
	txn, err := transaction.Load(l.LockDir)
	if err != nil {
		return ""
	}
	if stage, ok := txn.FailedStage(); ok {
		return stage.Name
	}
	return ""
}
