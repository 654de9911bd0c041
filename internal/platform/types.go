// Package platform detects the host operating system and architecture and maps
// them onto the release targets Junie is published for.
//
// Detection uses runtime.GOOS and runtime.GOARCH, plus gopsutil for the Linux
// distribution and kernel architecture, which only feed diagnostics. Deciding
// whether a host is supported is the job of ResolveTarget.
package platform

import "context"

// Linux distribution family constants.
const (
	FamilyDebian  = "debian"  // Debian, Ubuntu, Linux Mint
	FamilyRHEL    = "rhel"    // RHEL, CentOS, Rocky Linux, AlmaLinux
	FamilyFedora  = "fedora"  // Fedora
	FamilySUSE    = "suse"    // openSUSE, SLES
	FamilyArch    = "arch"    // Arch Linux, Manjaro
	FamilyAlpine  = "alpine"  // Alpine Linux
	FamilyUnknown = "unknown" // Unrecognized distributions
)

// Info contains platform detection information.
type Info struct {
	OS       string // GOOS: "linux", "darwin", "windows"
	Arch     string // GOARCH: "amd64", "arm64"
	ArchRaw  string // kernel architecture when known (e.g., "x86_64", "aarch64")
	Platform string // distro ID (Linux only, e.g., "ubuntu", "arch")
	Family   string // canonical family (e.g., "debian", "rhel", "arch")
	Version  string // distro version (Linux only, e.g., "22.04")
}

// Distro contains Linux distribution information.
// This is nil on non-Linux platforms.
type Distro struct {
	ID      string
	Family  string
	Version string
}

// GetDistro returns distro information if this is a Linux platform.
// Returns nil for non-Linux platforms or if distro detection failed.
func (i *Info) GetDistro() *Distro {
	if i.OS != "linux" || i.Platform == "" {
		return nil
	}
	return &Distro{
		ID:      i.Platform,
		Family:  i.Family,
		Version: i.Version,
	}
}

// IsLinux returns true if the platform is Linux.
func (i *Info) IsLinux() bool {
	return i.OS == "linux"
}

// IsMacOS returns true if the platform is macOS.
func (i *Info) IsMacOS() bool {
	return i.OS == "darwin"
}

// IsWindows returns true if the platform is Windows.
func (i *Info) IsWindows() bool {
	return i.OS == "windows"
}

// IsARM64 returns true if the architecture is arm64.
func (i *Info) IsARM64() bool {
	return i.Arch == "arm64" || i.Arch == "aarch64"
}

// String renders the info the way diagnostics print it.
func (i *Info) String() string {
	s := "platform=" + i.OS + " arch=" + i.Arch
	if d := i.GetDistro(); d != nil {
		s += " distro=" + d.ID
		if d.Version != "" {
			s += "/" + d.Version
		}
	}
	return s
}

// Target is the normalized (arch, OS name) pair a Junie release is published for.
type Target struct {
	Arch   string // "amd64" or "aarch64"
	OSName string // "linux" or "macos"
}

// IsMacOS reports whether the target uses the macOS application bundle layout.
func (t Target) IsMacOS() bool {
	return t.OSName == OSNameMacOS
}

func (t Target) String() string {
	return t.OSName + "-" + t.Arch
}

// Detector is the interface for platform detection.
type Detector interface {
	Detect(ctx context.Context) (*Info, error)
}
