// Package layout names the files an installed Junie package owns.
//
// Everything lives under the package root:
//
//	<root>/bin/junie/                  working directory, extraction target
//	<root>/bin/junie/junie.zip         downloaded archive (deleted after install)
//	<root>/bin/junie.download          marker: absolute path of the installed binary
//	<root>/bin/junie.receipt.yaml      install receipt
package layout

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MarkerStatus describes what ReadMarker found.
type MarkerStatus string

const (
	MarkerPresent MarkerStatus = "present"
	MarkerEmpty   MarkerStatus = "empty"
	MarkerMissing MarkerStatus = "missing"
)

// Layout holds the absolute paths derived from a package root.
type Layout struct {
	Root        string
	BinDir      string
	WorkDir     string
	MarkerFile  string
	ArchivePath string
	ReceiptFile string

	// LockDir holds the install lock. It is BinDir, so the lock sits next to
	// the working directory it protects.
	LockDir string
}

// New derives the layout for root. root is made absolute.
func New(root string) (*Layout, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve package root: %w", err)
	}

	bin := filepath.Join(abs, "bin")
	work := filepath.Join(bin, "junie")
	return &Layout{
		Root:        abs,
		BinDir:      bin,
		WorkDir:     work,
		MarkerFile:  filepath.Join(bin, "junie.download"),
		ArchivePath: filepath.Join(work, "junie.zip"),
		ReceiptFile: filepath.Join(bin, "junie.receipt.yaml"),
		LockDir:     bin,
	}, nil
}

// ExpectedBinary returns where the archive places the executable for goos.
// macOS releases ship an application bundle; every other OS ships a plain
// bin directory.
func (l *Layout) ExpectedBinary(goos string) string {
	if goos == "darwin" {
		return filepath.Join(l.WorkDir, "Applications", "junie.app", "Contents", "MacOS", "junie")
	}
	return filepath.Join(l.WorkDir, "junie", "bin", "junie")
}

// ReadMarker returns the trimmed binary path recorded in the marker file.
// Read errors other than a missing file are reported as MarkerMissing too,
// since the launcher treats an unreadable marker the same way.
func (l *Layout) ReadMarker() (string, MarkerStatus) {
	data, err := os.ReadFile(l.MarkerFile)
	if err != nil {
		return "", MarkerMissing
	}
	path := strings.TrimSpace(string(data))
	if path == "" {
		return "", MarkerEmpty
	}
	return path, MarkerPresent
}

// WriteMarker records binaryPath, made absolute, in the marker file.
func (l *Layout) WriteMarker(binaryPath string) error {
	abs, err := filepath.Abs(strings.TrimSpace(binaryPath))
	if err != nil {
		return fmt.Errorf("resolve binary path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(l.MarkerFile), 0o755); err != nil {
		return fmt.Errorf("create marker directory: %w", err)
	}
	if err := os.WriteFile(l.MarkerFile, []byte(abs), 0o644); err != nil {
		return fmt.Errorf("write marker: %w", err)
	}
	return nil
}

// PackageRoot returns override when set, otherwise the directory holding the
// running executable with symlinks resolved. A launcher reached through a
// symlink in PATH still finds its own package.
func PackageRoot(override string) (string, error) {
	if override != "" {
		return filepath.Abs(override)
	}

	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("resolve executable symlinks: %w", err)
	}
	return filepath.Dir(exe), nil
}
