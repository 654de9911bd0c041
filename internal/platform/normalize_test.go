package platform

import (
	"errors"
	"testing"
)

func TestResolveTarget(t *testing.T) {
	tests := []struct {
		name   string
		goos   string
		goarch string
		want   Target
	}{
		{"linux x64 (node spelling)", "linux", "x64", Target{Arch: "amd64", OSName: "linux"}},
		{"linux amd64", "linux", "amd64", Target{Arch: "amd64", OSName: "linux"}},
		{"linux arm64", "linux", "arm64", Target{Arch: "aarch64", OSName: "linux"}},
		{"linux aarch64", "linux", "aarch64", Target{Arch: "aarch64", OSName: "linux"}},
		{"darwin x64", "darwin", "x64", Target{Arch: "amd64", OSName: "macos"}},
		{"darwin amd64", "darwin", "amd64", Target{Arch: "amd64", OSName: "macos"}},
		{"darwin arm64", "darwin", "arm64", Target{Arch: "aarch64", OSName: "macos"}},
		{"darwin aarch64", "darwin", "aarch64", Target{Arch: "aarch64", OSName: "macos"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveTarget(tt.goos, tt.goarch)
			if err != nil {
				t.Fatalf("ResolveTarget(%q, %q) error = %v", tt.goos, tt.goarch, err)
			}
			if got != tt.want {
				t.Errorf("ResolveTarget(%q, %q) = %+v, want %+v", tt.goos, tt.goarch, got, tt.want)
			}
		})
	}
}

func TestResolveTarget_Unsupported(t *testing.T) {
	tests := []struct {
		name     string
		goos     string
		goarch   string
		wantArch bool // expect *UnsupportedArchitectureError rather than *UnsupportedPlatformError
	}{
		{"freebsd", "freebsd", "amd64", false},
		{"android", "android", "arm64", false},
		{"empty os", "", "amd64", false},
		{"386", "linux", "386", true},
		{"arm", "linux", "arm", true},
		{"riscv64", "darwin", "riscv64", true},
		{"x86_64 is not a node or go spelling", "linux", "x86_64", true},
		{"arch checked before os", "plan9", "mips", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveTarget(tt.goos, tt.goarch)
			if err == nil {
				t.Fatal("expected error but got none")
			}
			if !errors.Is(err, ErrUnsupportedPlatform) {
				t.Errorf("error %v does not match ErrUnsupportedPlatform", err)
			}

			var archErr *UnsupportedArchitectureError
			var osErr *UnsupportedPlatformError
			if tt.wantArch && !errors.As(err, &archErr) {
				t.Errorf("expected *UnsupportedArchitectureError, got %T", err)
			}
			if !tt.wantArch && !errors.As(err, &osErr) {
				t.Errorf("expected *UnsupportedPlatformError, got %T", err)
			}
		})
	}
}

func TestResolveTarget_Windows(t *testing.T) {
	for _, goos := range []string{"windows", "win32"} {
		t.Run(goos, func(t *testing.T) {
			// Even an unknown arch must not hide the Windows notice
			_, err := ResolveTarget(goos, "mips")
			if !errors.Is(err, ErrWindowsUnsupported) {
				t.Errorf("ResolveTarget(%q) error = %v, want ErrWindowsUnsupported", goos, err)
			}
			if errors.Is(err, ErrUnsupportedPlatform) {
				t.Error("windows must not be reported as a fatal unsupported platform")
			}
		})
	}
}

func TestUnsupportedErrorMessages(t *testing.T) {
	_, err := ResolveTarget("linux", "s390x")
	if err == nil || err.Error() != "unsupported architecture: s390x" {
		t.Errorf("unexpected arch error: %v", err)
	}

	_, err = ResolveTarget("solaris", "amd64")
	if err == nil || err.Error() != "unsupported platform: solaris" {
		t.Errorf("unexpected platform error: %v", err)
	}
}

func TestNormalizePlatform(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"ubuntu", "ubuntu", "ubuntu"},
		{"Ubuntu uppercase", "Ubuntu", "ubuntu"},
		{"with spaces", "  ubuntu  ", "ubuntu"},
		{"kernel arch", "X86_64", "x86_64"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizePlatform(tt.input); got != tt.want {
				t.Errorf("normalizePlatform() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMapFamily(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"debian", FamilyDebian},
		{"ubuntu", FamilyDebian},
		{"centos", FamilyRHEL},
		{"Fedora", FamilyFedora},
		{" opensuse ", FamilySUSE},
		{"manjaro", FamilyArch},
		{"alpine", FamilyAlpine},
		{"slackware", FamilyUnknown},
		{"", FamilyUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := mapFamily(tt.input); got != tt.want {
				t.Errorf("mapFamily(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
