//go:build !darwin && !linux

package binary

import "context"

// removeXattrTree is a no-op where Gatekeeper does not exist.
func removeXattrTree(ctx context.Context, root, attr string) error {
	return nil
}
