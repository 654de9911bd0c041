package binary

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestReceipt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bin", "junie.receipt.yaml")
	installedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	want := &Receipt{
		InstallID:    "0d4b3f5e-1c2a-4b9e-8f00-000000000001",
		Version:      "667.1",
		URL:          "https://example.com/junie.zip",
		OS:           "linux",
		Arch:         "amd64",
		Extractor:    "unzip",
		Verification: []string{"SHA256"},
		Binary:       "/opt/junie/bin/junie/junie/bin/junie",
		InstalledAt:  installedAt,
	}

	if err := WriteReceipt(path, want); err != nil {
		t.Fatalf("WriteReceipt() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"install_id:", "version: \"667.1\"", "extractor: unzip", "installed_at:"} {
		if !strings.Contains(string(data), key) {
			t.Errorf("receipt missing %q:\n%s", key, data)
		}
	}

	got, err := ReadReceipt(path)
	if err != nil {
		t.Fatalf("ReadReceipt() error = %v", err)
	}
	if got.Version != want.Version || got.Binary != want.Binary || !got.InstalledAt.Equal(installedAt) {
		t.Errorf("ReadReceipt() = %+v, want %+v", got, want)
	}
}

func TestReadReceipt_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := ReadReceipt(filepath.Join(dir, "missing.yaml")); !os.IsNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("version: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadReceipt(bad); err == nil {
		t.Error("expected parse error")
	}
}
