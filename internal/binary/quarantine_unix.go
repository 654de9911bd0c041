//go:build darwin || linux

package binary

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// removeXattrTree removes attr from every entry under root without following
// symlinks.
func removeXattrTree(ctx context.Context, root, attr string) error {
	var errs []error

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			errs = append(errs, err)
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err := unix.Lremovexattr(path, attr); err != nil && !isNoAttr(err) {
			errs = append(errs, &fs.PathError{Op: "removexattr", Path: path, Err: err})
		}
		return nil
	})
	if walkErr != nil {
		errs = append(errs, walkErr)
	}

	return errors.Join(errs...)
}
