package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/ZebulonRouseFrantzich/junie/internal/layout"
	"github.com/ZebulonRouseFrantzich/junie/internal/platform"
	"github.com/ZebulonRouseFrantzich/junie/internal/testutil"
)

func useHost(t *testing.T, goos string) {
	t.Helper()
	orig := newDetector
	newDetector = func() platform.Detector {
		return platform.StaticDetector{Info: platform.Info{OS: goos, Arch: "amd64"}}
	}
	t.Cleanup(func() { newDetector = orig })
}

// releaseServer serves a linux Junie archive at every path.
func releaseServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	archive := testutil.ReadZip(t, testutil.WriteZip(t, filepath.Join(t.TempDir(), "junie.zip"), testutil.JunieArchiveEntries("linux")))

	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if !strings.HasSuffix(r.URL.Path, ".zip") {
			http.NotFound(w, r)
			return
		}
		w.Write(archive)
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func TestRunInstall(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("install needs a Unix host")
	}
	useHost(t, "linux")
	srv, _ := releaseServer(t)
	root := t.TempDir()

	environ := []string{
		"JUNIE_VERSION=667.1",
		"JUNIE_RELEASE_BASE_URL=" + srv.URL,
	}
	var stdout, stderr bytes.Buffer
	opts := installOptions{root: root, forceUnzipper: true}
	if err := runInstall(context.Background(), opts, environ, &stdout, &stderr); err != nil {
		t.Fatalf("runInstall() error = %v\nstderr: %s", err, stderr.String())
	}

	l, _ := layout.New(root)
	want := l.ExpectedBinary("linux")
	if !strings.Contains(stdout.String(), "Installed Junie 667.1 to "+want) {
		t.Errorf("stdout = %q", stdout.String())
	}
	if !strings.Contains(stderr.String(), "Downloading from "+srv.URL+"/667.1/junie-eap-667.1-linux-amd64.zip") {
		t.Errorf("stderr should log the download URL:\n%s", stderr.String())
	}
	if marker, status := l.ReadMarker(); status != layout.MarkerPresent || marker != want {
		t.Errorf("marker = %q (%s)", marker, status)
	}
}

func TestRunInstall_URLFlag(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("install needs a Unix host")
	}
	useHost(t, "linux")
	srv, _ := releaseServer(t)
	root := t.TempDir()

	var stdout, stderr bytes.Buffer
	opts := installOptions{root: root, url: srv.URL + "/mirror/junie.zip", forceUnzipper: true}
	if err := runInstall(context.Background(), opts, nil, &stdout, &stderr); err != nil {
		t.Fatalf("runInstall() error = %v", err)
	}
	if !strings.Contains(stderr.String(), "Using JUNIE_DOWNLOAD_URL="+opts.url) {
		t.Errorf("override should be logged:\n%s", stderr.String())
	}
	if !strings.Contains(stdout.String(), "(custom URL)") {
		t.Errorf("stdout = %q", stdout.String())
	}
}

func TestRunInstall_Windows(t *testing.T) {
	useHost(t, "windows")
	srv, requests := releaseServer(t)
	root := t.TempDir()

	var stdout, stderr bytes.Buffer
	environ := []string{"JUNIE_VERSION=667.1", "JUNIE_RELEASE_BASE_URL=" + srv.URL}
	if err := runInstall(context.Background(), installOptions{root: root}, environ, &stdout, &stderr); err != nil {
		t.Fatalf("runInstall() error = %v, want nil on Windows", err)
	}
	if strings.TrimSpace(stdout.String()) != WindowsNotice {
		t.Errorf("stdout = %q, want the Windows notice", stdout.String())
	}
	if n := requests.Load(); n != 0 {
		t.Errorf("made %d requests, want none", n)
	}
	if _, err := os.Stat(filepath.Join(root, "bin")); !os.IsNotExist(err) {
		t.Error("nothing should be written on Windows")
	}
}

func TestRunInstall_Failure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("install needs a Unix host")
	}
	useHost(t, "linux")
	srv, _ := releaseServer(t)

	var stdout, stderr bytes.Buffer
	opts := installOptions{root: t.TempDir(), url: srv.URL + "/not-an-archive"}
	err := runInstall(context.Background(), opts, nil, &stdout, &stderr)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "install failed: download failed: 404 Not Found") {
		t.Errorf("error = %v", err)
	}
	if stdout.Len() != 0 {
		t.Errorf("nothing should go to stdout on failure, got %q", stdout.String())
	}
}

func TestRunInstall_BadManifest(t *testing.T) {
	useHost(t, "linux")
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "junie.lua"), []byte("junie = {"), 0o644); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	err := runInstall(context.Background(), installOptions{root: root}, nil, &stdout, &stderr)
	if err == nil {
		t.Fatal("expected manifest error")
	}
}

func TestRunInstall_NoVersion(t *testing.T) {
	useHost(t, "linux")

	var stdout, stderr bytes.Buffer
	err := runInstall(context.Background(), installOptions{root: t.TempDir()}, nil, &stdout, &stderr)
	if err == nil || !strings.Contains(err.Error(), "JUNIE_VERSION") {
		t.Errorf("error = %v, want a hint naming JUNIE_VERSION", err)
	}
}

func TestRootCmd(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("install needs a Unix host")
	}
	testutil.SetupTestEnv(t)
	useHost(t, "linux")
	srv, _ := releaseServer(t)
	root := t.TempDir()

	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"--root", root, "--url", srv.URL + "/junie.zip", "--force-unzipper", "--log-level", "warn"})

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(stdout.String(), "Installed Junie") {
		t.Errorf("stdout = %q", stdout.String())
	}
	if strings.Contains(stderr.String(), "Downloading from") {
		t.Errorf("info logs should be hidden at warn level:\n%s", stderr.String())
	}
}

func TestRootCmd_RejectsArgs(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"unexpected"})
	if err := cmd.Execute(); err == nil {
		t.Error("expected error for positional arguments")
	}
}
