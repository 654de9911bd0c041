package binary

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ExecutableMode is applied to every regular file after extraction.
const ExecutableMode fs.FileMode = 0o755

// NormalizePermissions makes every regular file under root executable.
// Directories and symlinks are left alone, and symlinks are not followed.
// Failures do not stop the walk; they are joined into the returned error,
// which callers log rather than fail on.
func NormalizePermissions(root string) error {
	var errs []error

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			errs = append(errs, err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if err := os.Chmod(path, ExecutableMode); err != nil {
			errs = append(errs, err)
		}
		return nil
	})
	if walkErr != nil {
		errs = append(errs, walkErr)
	}

	return errors.Join(errs...)
}

// SetExecutable applies ExecutableMode to path, following symlinks.
func SetExecutable(path string) error {
	if err := os.Chmod(path, ExecutableMode); err != nil {
		return fmt.Errorf("set executable: %w", err)
	}
	return nil
}
