package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/ZebulonRouseFrantzich/junie/internal/platform"
	lua "github.com/yuin/gopher-lua"
)

// Lua schema field names and globals
const (
	luaGlobalJunie         = "junie"
	luaFieldVersion        = "version"
	luaFieldReleaseBaseURL = "release_base_url"
	luaFieldChecksums      = "checksums"
)

// MaxManifestSize caps the manifest file read from disk.
const MaxManifestSize = 1 << 20

var (
	versionPattern = regexp.MustCompile(`^[0-9A-Za-z][0-9A-Za-z._+-]*$`)
	sha256Pattern  = regexp.MustCompile(`^[0-9a-f]{64}$`)
)

// Manifest is the package metadata declared in junie.lua.
type Manifest struct {
	Version        string
	ReleaseBaseURL string

	// Checksums maps a release target ("linux-amd64", "macos-aarch64") to the
	// lowercase hex SHA-256 of its archive.
	Checksums map[string]string
}

// ManifestError represents a manifest evaluation error with a friendly message.
type ManifestError struct {
	Message string // User-friendly message
	Detail  string // Technical details (raw Lua error)
}

func (e *ManifestError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}

// LoadManifest reads and evaluates the manifest at path. A missing file is
// reported with an error matching os.ErrNotExist.
func LoadManifest(ctx context.Context, path string, detector platform.Detector) (*Manifest, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > MaxManifestSize {
		return nil, &ManifestError{
			Message: "manifest too large",
			Detail:  fmt.Sprintf("%s is %d bytes, limit is %d", path, info.Size(), MaxManifestSize),
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return ParseManifest(ctx, string(data), detector)
}

// ParseManifest evaluates manifest source. detector may be nil, in which case
// the platform table is not injected.
func ParseManifest(ctx context.Context, source string, detector platform.Detector) (*Manifest, error) {
	L := newSandboxedVM()
	defer L.Close()
	L.SetContext(ctx)

	if detector != nil {
		info, err := detector.Detect(ctx)
		if err != nil {
			return nil, fmt.Errorf("platform detection failed: %w", err)
		}
		if err := platform.InjectPlatformTable(L, info); err != nil {
			return nil, fmt.Errorf("inject platform table: %w", err)
		}
	}

	if err := L.DoString(source); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("manifest evaluation aborted: %w", ctx.Err())
		}
		return nil, &ManifestError{
			Message: "Lua syntax error",
			Detail:  err.Error(),
		}
	}

	return extractManifest(L)
}

// extractManifest reads the global "junie" table.
func extractManifest(L *lua.LState) (*Manifest, error) {
	junieTable := L.GetGlobal(luaGlobalJunie)
	if junieTable.Type() != lua.LTTable {
		return nil, &ManifestError{
			Message: "missing or invalid 'junie' table",
			Detail:  fmt.Sprintf("expected table, got %s", junieTable.Type()),
		}
	}
	table := junieTable.(*lua.LTable)

	m := &Manifest{Checksums: map[string]string{}}

	var err error
	if m.Version, err = optionalString(table, luaFieldVersion); err != nil {
		return nil, err
	}
	if m.ReleaseBaseURL, err = optionalString(table, luaFieldReleaseBaseURL); err != nil {
		return nil, err
	}

	if v := table.RawGetString(luaFieldChecksums); v.Type() == lua.LTTable {
		var bad *ManifestError
		v.(*lua.LTable).ForEach(func(key, value lua.LValue) {
			// Skip nil values from platform conditionals
			if bad != nil || value.Type() == lua.LTNil {
				return
			}
			if key.Type() != lua.LTString || value.Type() != lua.LTString {
				bad = &ManifestError{
					Message: "invalid checksums entry",
					Detail:  fmt.Sprintf("expected string = string, got %s = %s", key.Type(), value.Type()),
				}
				return
			}
			m.Checksums[key.String()] = strings.ToLower(value.String())
		})
		if bad != nil {
			return nil, bad
		}
	} else if v.Type() != lua.LTNil {
		return nil, &ManifestError{
			Message: "invalid 'checksums' field",
			Detail:  fmt.Sprintf("expected table, got %s", v.Type()),
		}
	}

	if err := m.Validate(); err != nil {
		return nil, &ManifestError{
			Message: "manifest validation failed",
			Detail:  err.Error(),
		}
	}
	return m, nil
}

// optionalString returns a string field, "" when the field is nil.
func optionalString(table *lua.LTable, field string) (string, error) {
	v := table.RawGetString(field)
	switch v.Type() {
	case lua.LTNil:
		return "", nil
	case lua.LTString:
		return strings.TrimSpace(v.String()), nil
	default:
		return "", &ManifestError{
			Message: fmt.Sprintf("invalid '%s' field", field),
			Detail:  fmt.Sprintf("expected string, got %s", v.Type()),
		}
	}
}

// Validate checks the manifest values.
func (m *Manifest) Validate() error {
	if m.Version != "" && !versionPattern.MatchString(m.Version) {
		return fmt.Errorf("invalid version %q", m.Version)
	}
	if m.ReleaseBaseURL != "" &&
		!strings.HasPrefix(m.ReleaseBaseURL, "https://") &&
		!strings.HasPrefix(m.ReleaseBaseURL, "http://") {
		return fmt.Errorf("release_base_url must use http or https: %q", m.ReleaseBaseURL)
	}
	for target, sum := range m.Checksums {
		if !sha256Pattern.MatchString(sum) {
			return fmt.Errorf("checksum for %s is not a hex SHA-256 digest", target)
		}
	}
	return nil
}

// FormatError formats a ManifestError for user display.
// In verbose mode, show the raw Lua error. Otherwise, show friendly message.
func FormatError(err error, verbose bool) string {
	var mErr *ManifestError
	if errors.As(err, &mErr) {
		if verbose {
			return fmt.Sprintf("%s\n\nDetails:\n%s", mErr.Message, mErr.Detail)
		}
		detail := mErr.Detail
		if idx := strings.Index(detail, "stack traceback"); idx > 0 {
			detail = strings.TrimSpace(detail[:idx])
		}
		return fmt.Sprintf("%s: %s", mErr.Message, detail)
	}
	return err.Error()
}
