// Package testutil provides utilities for testing the installer and launcher
// in isolation.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// JunieEnvVars lists every variable the installer or launcher reads.
var JunieEnvVars = []string{
	"JUNIE_DOWNLOAD_URL",
	"JUNIE_FORCE_UNZIPPER",
	"JUNIE_BINARY_PATH",
	"JUNIE_BINARY",
	"JUNIE_VERSION",
	"JUNIE_RELEASE_BASE_URL",
	"JUNIE_ARCHIVE_SHA256",
	"JUNIE_SIGNATURE_URL",
	"JUNIE_KEYRING",
	"JUNIE_DOWNLOAD_TIMEOUT",
	"JUNIE_DOWNLOAD_RETRIES",
	"JUNIE_LOG_LEVEL",
	"JUNIE_LOG_FILE",
	"JUNIE_PACKAGE_ROOT",
}

// SetupTestEnv creates an isolated package root and points
// JUNIE_PACKAGE_ROOT at it. Every other JUNIE_* variable is cleared so a
// developer's own overrides never leak into a test.
//
// The cleanup function is automatically handled by t.TempDir() and
// t.Setenv(), so callers don't need to manually clean up.
func SetupTestEnv(t *testing.T) string {
	t.Helper()

	root := t.TempDir()

	for _, name := range JunieEnvVars {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
	t.Setenv("JUNIE_PACKAGE_ROOT", root)

	if err := os.MkdirAll(filepath.Join(root, "bin"), 0o750); err != nil {
		t.Fatalf("failed to create test directory: %v", err)
	}

	return root
}
