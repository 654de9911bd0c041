package binary

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
)

func TestStripQuarantine_NativeFallback(t *testing.T) {
	if runtime.GOOS != "linux" && runtime.GOOS != "darwin" {
		t.Skip("extended attributes are only handled on Linux and macOS")
	}

	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "junie", "bin"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "junie", "bin", "junie"), []byte("x"), 0o755); err != nil {
		t.Fatal(err)
	}

	noXattr := func(string) (string, error) { return "", exec.ErrNotFound }

	// No attribute is present, which must not count as a failure
	if err := StripQuarantine(context.Background(), root, noXattr); err != nil {
		t.Errorf("StripQuarantine() error = %v", err)
	}
}

func TestStripQuarantine_Tool(t *testing.T) {
	if runtime.GOOS != "darwin" {
		t.Skip("xattr -dr is the macOS tool")
	}
	if _, err := exec.LookPath("xattr"); err != nil {
		t.Skip("xattr not available")
	}

	root := t.TempDir()
	path := filepath.Join(root, "junie")
	if err := os.WriteFile(path, []byte("x"), 0o755); err != nil {
		t.Fatal(err)
	}
	if out, err := exec.Command("xattr", "-w", QuarantineAttr, "0081;00000000;test;", path).CombinedOutput(); err != nil {
		t.Skipf("cannot set quarantine attribute: %v: %s", err, out)
	}

	if err := StripQuarantine(context.Background(), root, nil); err != nil {
		t.Fatalf("StripQuarantine() error = %v", err)
	}

	if out, err := exec.Command("xattr", "-p", QuarantineAttr, path).CombinedOutput(); err == nil {
		t.Errorf("quarantine attribute still present: %s", out)
	}
}

func TestStripQuarantine_ToolFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a Unix shell")
	}

	// A stand-in xattr that always fails
	dir := t.TempDir()
	fake := filepath.Join(dir, "xattr")
	if err := os.WriteFile(fake, []byte("#!/bin/sh\necho boom >&2\nexit 1\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	lookPath := func(string) (string, error) { return fake, nil }

	err := StripQuarantine(context.Background(), dir, lookPath)
	if err == nil {
		t.Fatal("expected error from failing xattr")
	}
}
