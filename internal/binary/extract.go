package binary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
)

// Extractor unpacks a zip archive into a directory, overwriting existing
// files.
type Extractor interface {
	Name() string
	Extract(ctx context.Context, archivePath, destDir string) error
}

// LookPathFunc matches exec.LookPath.
type LookPathFunc func(file string) (string, error)

// SelectExtractor picks the system unzip tool when it is on PATH and the
// built-in extractor is not forced.
func SelectExtractor(forceLibrary bool, lookPath LookPathFunc) Extractor {
	if forceLibrary {
		return NewLibraryExtractor()
	}
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	if path, err := lookPath("unzip"); err == nil {
		return &SystemUnzip{Path: path}
	}
	return NewLibraryExtractor()
}

// SystemUnzip shells out to the unzip tool. It preserves whatever the tool
// preserves (modes, symlinks), which matters for macOS application bundles.
type SystemUnzip struct {
	Path string
}

func (u *SystemUnzip) Name() string { return "unzip" }

// Extract runs `unzip -q -o <archive> -d <dest>`.
func (u *SystemUnzip) Extract(ctx context.Context, archivePath, destDir string) error {
	path := u.Path
	if path == "" {
		path = "unzip"
	}

	cmd := exec.CommandContext(ctx, path, "-q", "-o", archivePath, "-d", destDir)
	output, err := cmd.CombinedOutput()
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExtractionError{
			Extractor: u.Name(),
			Err:       fmt.Errorf("unzip failed with exit code %d", exitErr.ExitCode()),
			Output:    strings.TrimSpace(string(output)),
		}
	}
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return &ExtractionError{Extractor: u.Name(), Err: fmt.Errorf("%w: %v", ErrUnzipUnavailable, err)}
	}
	return &ExtractionError{Extractor: u.Name(), Err: err}
}

// LibraryExtractor reads the archive in-process with klauspost/compress/zip.
type LibraryExtractor struct{}

// NewLibraryExtractor returns an extractor that needs no external tools.
func NewLibraryExtractor() *LibraryExtractor {
	return &LibraryExtractor{}
}

func (e *LibraryExtractor) Name() string { return "builtin" }

// Extract unpacks every entry of archivePath under destDir. Entries whose
// path or symlink target would leave destDir are rejected, and every file
// operation goes through an os.Root so a symlink written earlier in the
// archive cannot redirect a later entry outside destDir.
func (e *LibraryExtractor) Extract(ctx context.Context, archivePath, destDir string) error {
	if err := e.extract(ctx, archivePath, destDir); err != nil {
		var extErr *ExtractionError
		if errors.As(err, &extErr) || ctx.Err() != nil {
			return err
		}
		return &ExtractionError{Extractor: e.Name(), Err: err}
	}
	return nil
}

func (e *LibraryExtractor) extract(ctx context.Context, archivePath, destDir string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer reader.Close()

	destDir = filepath.Clean(destDir)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}
	root, err := os.OpenRoot(destDir)
	if err != nil {
		return fmt.Errorf("open dest dir: %w", err)
	}
	defer root.Close()

	for _, file := range reader.File {
		if err := ctx.Err(); err != nil {
			return err
		}

		target, err := safeJoin(destDir, file.Name)
		if err != nil {
			return err
		}
		if target == destDir {
			continue
		}
		// Relative to root from here on
		name, err := filepath.Rel(destDir, target)
		if err != nil {
			return fmt.Errorf("entry %s: %w", file.Name, err)
		}

		mode := file.Mode()
		switch {
		case mode.IsDir():
			if err := root.MkdirAll(name, 0o755); err != nil {
				return fmt.Errorf("create directory %s: %w", name, err)
			}

		case mode&fs.ModeSymlink != 0:
			if err := extractSymlink(root, file, destDir, target, name); err != nil {
				return err
			}

		case mode.IsRegular():
			if err := extractFile(root, file, name); err != nil {
				return err
			}

		default:
			// Skip other types (devices, pipes)
			continue
		}
	}

	return nil
}

// extractFile writes a regular entry, keeping its mode bits but always owner
// writable so a later -o run can overwrite it.
func extractFile(root *os.Root, file *zip.File, name string) error {
	if err := mkdirParent(root, name); err != nil {
		return err
	}

	perm := file.Mode().Perm()
	if perm == 0 {
		// Archives written without Unix attributes
		perm = 0o644
	}
	perm |= 0o200

	// A symlink left by an earlier install must not be followed
	if info, err := root.Lstat(name); err == nil && !info.Mode().IsRegular() {
		if err := root.RemoveAll(name); err != nil {
			return fmt.Errorf("replace %s: %w", name, err)
		}
	}

	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("open entry %s: %w", file.Name, err)
	}
	defer src.Close()

	outFile, err := root.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("create file %s: %w", name, err)
	}

	if _, err := io.Copy(outFile, src); err != nil {
		outFile.Close()
		return fmt.Errorf("write file %s: %w", name, err)
	}
	if err := outFile.Close(); err != nil {
		return fmt.Errorf("close file %s: %w", name, err)
	}

	// OpenFile leaves the mode of an existing file alone
	return root.Chmod(name, perm)
}

// extractSymlink creates a symlink entry. The link text is the entry body.
func extractSymlink(root *os.Root, file *zip.File, destDir, target, name string) error {
	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("open entry %s: %w", file.Name, err)
	}
	linkBytes, err := io.ReadAll(io.LimitReader(src, 4096))
	src.Close()
	if err != nil {
		return fmt.Errorf("read symlink %s: %w", file.Name, err)
	}
	link := string(linkBytes)

	if filepath.IsAbs(link) {
		return &ExtractionError{Extractor: "builtin", Err: fmt.Errorf("illegal symlink target %s -> %s", file.Name, link)}
	}
	resolved := filepath.Join(filepath.Dir(target), link)
	if !within(destDir, resolved) {
		return &ExtractionError{Extractor: "builtin", Err: fmt.Errorf("illegal symlink target %s -> %s", file.Name, link)}
	}

	if err := mkdirParent(root, name); err != nil {
		return err
	}
	if err := root.RemoveAll(name); err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}
	if err := root.Symlink(link, name); err != nil {
		return fmt.Errorf("create symlink %s: %w", name, err)
	}
	return nil
}

// mkdirParent creates the directory holding name inside root.
func mkdirParent(root *os.Root, name string) error {
	parent := filepath.Dir(name)
	if parent == "." {
		return nil
	}
	if err := root.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("create parent dir for %s: %w", name, err)
	}
	return nil
}

// safeJoin joins an archive entry name onto destDir, rejecting names that
// escape it.
func safeJoin(destDir, name string) (string, error) {
	target := filepath.Join(destDir, filepath.FromSlash(name))
	if !within(destDir, target) {
		return "", &ExtractionError{Extractor: "builtin", Err: fmt.Errorf("illegal file path: %s", name)}
	}
	return target, nil
}

func within(root, path string) bool {
	return path == root || strings.HasPrefix(path, root+string(os.PathSeparator))
}
