package binary

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// QuarantineAttr is the extended attribute Gatekeeper uses to block
// downloaded executables.
const QuarantineAttr = "com.apple.quarantine"

// StripQuarantine removes QuarantineAttr from root and everything below it.
// It prefers `xattr -dr` and falls back to removing the attribute natively
// when the tool is missing. A missing attribute is not an error; any other
// error is informational only.
func StripQuarantine(ctx context.Context, root string, lookPath LookPathFunc) error {
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	if xattr, err := lookPath("xattr"); err == nil {
		out, err := exec.CommandContext(ctx, xattr, "-dr", QuarantineAttr, root).CombinedOutput()
		if err != nil {
			return fmt.Errorf("xattr -dr %s: %w: %s", QuarantineAttr, err, strings.TrimSpace(string(out)))
		}
		return nil
	}

	return removeXattrTree(ctx, root, QuarantineAttr)
}
