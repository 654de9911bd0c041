package platform

import (
	"errors"
	"fmt"
	"strings"
)

// Normalized OS names used in release archive names.
const (
	OSNameLinux = "linux"
	OSNameMacOS = "macos"
)

// Normalized architecture names used in release archive names.
const (
	ArchAMD64   = "amd64"
	ArchAARCH64 = "aarch64"
)

var (
	// ErrUnsupportedPlatform matches both unsupported OS and unsupported
	// architecture errors.
	ErrUnsupportedPlatform = errors.New("unsupported platform")

	// ErrWindowsUnsupported is returned for Windows hosts. Callers treat it as
	// a polite early exit, not a failure.
	ErrWindowsUnsupported = errors.New("windows is not supported yet")
)

// archMap accepts both Go and Node spellings of the host architecture.
var archMap = map[string]string{
	"x64":     ArchAMD64,
	"amd64":   ArchAMD64,
	"arm64":   ArchAARCH64,
	"aarch64": ArchAARCH64,
}

var osMap = map[string]string{
	"linux":  OSNameLinux,
	"darwin": OSNameMacOS,
}

// familyMap maps distribution names to their canonical family names.
var familyMap = map[string]string{
	"debian":   FamilyDebian,
	"ubuntu":   FamilyDebian,
	"rhel":     FamilyRHEL,
	"centos":   FamilyRHEL,
	"rocky":    FamilyRHEL,
	"fedora":   FamilyFedora,
	"suse":     FamilySUSE,
	"opensuse": FamilySUSE,
	"arch":     FamilyArch,
	"manjaro":  FamilyArch,
	"alpine":   FamilyAlpine,
}

// UnsupportedPlatformError reports an operating system with no Junie release.
type UnsupportedPlatformError struct {
	OS string
}

func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("unsupported platform: %s", e.OS)
}

func (e *UnsupportedPlatformError) Is(target error) bool {
	return target == ErrUnsupportedPlatform
}

// UnsupportedArchitectureError reports a CPU architecture with no Junie release.
type UnsupportedArchitectureError struct {
	Arch string
}

func (e *UnsupportedArchitectureError) Error() string {
	return fmt.Sprintf("unsupported architecture: %s", e.Arch)
}

func (e *UnsupportedArchitectureError) Is(target error) bool {
	return target == ErrUnsupportedPlatform
}

// IsWindows reports whether goos names Windows in either Go or Node spelling.
func IsWindows(goos string) bool {
	return goos == "windows" || goos == "win32"
}

// ResolveTarget maps raw OS and architecture strings onto a release target.
// Windows short-circuits with ErrWindowsUnsupported before any other check;
// otherwise the architecture is validated first, then the OS.
func ResolveTarget(goos, goarch string) (Target, error) {
	if IsWindows(goos) {
		return Target{}, ErrWindowsUnsupported
	}

	arch, ok := archMap[goarch]
	if !ok {
		return Target{}, &UnsupportedArchitectureError{Arch: goarch}
	}

	osName, ok := osMap[goos]
	if !ok {
		return Target{}, &UnsupportedPlatformError{OS: goos}
	}

	return Target{Arch: arch, OSName: osName}, nil
}

// normalizePlatform converts platform IDs to lowercase for consistency.
func normalizePlatform(platform string) string {
	return strings.ToLower(strings.TrimSpace(platform))
}

// mapFamily maps distribution family strings to canonical family names.
func mapFamily(family string) string {
	normalized := strings.ToLower(strings.TrimSpace(family))
	if canonical, ok := familyMap[normalized]; ok {
		return canonical
	}
	return FamilyUnknown
}
