package platform

import (
	"context"
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v4/host"
)

// RealDetector implements Detector using actual platform detection.
type RealDetector struct{}

// NewDetector creates a new platform detector.
func NewDetector() Detector {
	return &RealDetector{}
}

// Detect reports the host OS and architecture from the Go runtime and asks
// gopsutil for the kernel architecture and, on Linux, the distribution. A
// failed gopsutil lookup leaves those fields at their runtime defaults rather
// than failing, since nothing but diagnostics reads them.
//
// Detect never rejects a host. Use ResolveTarget for that.
func (d *RealDetector) Detect(ctx context.Context) (*Info, error) {
	info := &Info{
		OS:      runtime.GOOS,
		Arch:    runtime.GOARCH,
		ArchRaw: runtime.GOARCH,
	}

	stat, err := host.InfoWithContext(ctx)
	if err != nil {
		// Cancellation is a hard failure; anything else degrades gracefully
		if ctx.Err() != nil {
			return nil, fmt.Errorf("platform detection cancelled: %w", ctx.Err())
		}
		return info, nil
	}

	if stat.KernelArch != "" {
		info.ArchRaw = normalizePlatform(stat.KernelArch)
	}

	if runtime.GOOS == "linux" {
		platform := normalizePlatform(stat.Platform)
		if platform != "" {
			info.Platform = platform
			info.Family = mapFamily(stat.PlatformFamily)
			info.Version = normalizePlatform(stat.PlatformVersion)
		}
	}

	return info, nil
}

// StaticDetector returns a fixed Info. It lets callers pin the host, for
// example when the OS and architecture come from configuration.
type StaticDetector struct {
	Info Info
}

// Detect returns a copy of the configured info.
func (s StaticDetector) Detect(ctx context.Context) (*Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info := s.Info
	return &info, nil
}
