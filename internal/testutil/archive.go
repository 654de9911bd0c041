package testutil

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
)

// ZipEntry describes one member of a fixture archive. Directories end in
// "/". A non-empty Symlink makes the entry a symlink to that target.
type ZipEntry struct {
	Name    string
	Body    string
	Mode    fs.FileMode
	Symlink string
}

// FakeBinaryScript is the body of the fixture Junie executable.
const FakeBinaryScript = "#!/bin/sh\necho junie \"$@\"\n"

// JunieArchiveEntries returns a minimal release archive for goos laid out
// the way real releases are.
func JunieArchiveEntries(goos string) []ZipEntry {
	if goos == "darwin" {
		return []ZipEntry{
			{Name: "Applications/"},
			{Name: "Applications/junie.app/Contents/Info.plist", Body: "<plist/>", Mode: 0o644},
			{Name: "Applications/junie.app/Contents/MacOS/junie", Body: FakeBinaryScript, Mode: 0o644},
			{Name: "Applications/junie.app/Contents/Frameworks/Lib.framework/Versions/A/Lib", Body: "lib", Mode: 0o644},
			{Name: "Applications/junie.app/Contents/Frameworks/Lib.framework/Versions/Current", Symlink: "A"},
		}
	}
	return []ZipEntry{
		{Name: "junie/"},
		{Name: "junie/bin/junie", Body: FakeBinaryScript, Mode: 0o644},
		{Name: "junie/lib/junie.jar", Body: "jar", Mode: 0o644},
		{Name: "junie/lib/current", Symlink: "junie.jar"},
	}
}

// WriteZip writes entries to path and returns path.
func WriteZip(t *testing.T, path string, entries []ZipEntry) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create archive dir: %v", err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create archive: %v", err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	for _, e := range entries {
		header := &zip.FileHeader{Name: e.Name, Method: zip.Deflate}
		body := e.Body
		switch {
		case e.Symlink != "":
			header.SetMode(fs.ModeSymlink | 0o777)
			body = e.Symlink
		case len(e.Name) > 0 && e.Name[len(e.Name)-1] == '/':
			header.SetMode(fs.ModeDir | 0o755)
			header.Method = zip.Store
		default:
			mode := e.Mode
			if mode == 0 {
				mode = 0o644
			}
			header.SetMode(mode)
		}

		fw, err := w.CreateHeader(header)
		if err != nil {
			t.Fatalf("add %s: %v", e.Name, err)
		}
		if body != "" {
			if _, err := fw.Write([]byte(body)); err != nil {
				t.Fatalf("write %s: %v", e.Name, err)
			}
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close archive: %v", err)
	}

	return path
}

// ReadZip returns the archive bytes for serving from an httptest server.
func ReadZip(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}
	return data
}

// TreeSnapshot maps every path under root (slash separated, relative) to a
// description of the entry: file contents, "dir", or "-> target".
func TreeSnapshot(t *testing.T, root string) map[string]string {
	t.Helper()

	snap := map[string]string{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == "." {
			return err
		}
		rel = filepath.ToSlash(rel)

		switch {
		case d.Type()&fs.ModeSymlink != 0:
			target, err := os.Readlink(path)
			if err != nil {
				return err
			}
			snap[rel] = "-> " + target
		case d.IsDir():
			snap[rel] = "dir"
		default:
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			snap[rel] = string(data)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("snapshot %s: %v", root, err)
	}
	return snap
}
