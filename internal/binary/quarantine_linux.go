package binary

import (
	"errors"

	"golang.org/x/sys/unix"
)

// Linux reports a missing attribute as ENODATA, and symlinks or some
// filesystems reject user xattrs with EPERM or ENOTSUP.
func isNoAttr(err error) bool {
	return errors.Is(err, unix.ENODATA) || errors.Is(err, unix.ENOTSUP) || errors.Is(err, unix.EPERM)
}
