package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ZebulonRouseFrantzich/junie/internal/platform"
	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// DefaultVersion is the Junie release this package ships for. Release builds
// set it with -ldflags "-X github.com/ZebulonRouseFrantzich/junie/internal/config.DefaultVersion=...".
var DefaultVersion = ""

// DefaultReleaseBaseURL is the host prefix release archives are fetched from.
const DefaultReleaseBaseURL = "https://github.com/jetbrains-junie/junie/releases/download"

const (
	// EnvFileName is the optional dotenv file read from the package root.
	EnvFileName = ".junie.env"

	// ManifestFileName is the optional Lua manifest read from the package root.
	ManifestFileName = "junie.lua"
)

// ErrNoVersion is returned when neither the environment, the manifest nor the
// build pins a Junie version and no download URL override is set.
var ErrNoVersion = errors.New("no Junie version configured")

// Config holds everything the installer and launcher read from outside the
// process. Zero values mean "not set".
type Config struct {
	// Install-time overrides
	DownloadURL    string `env:"JUNIE_DOWNLOAD_URL"`
	ForceUnzipper  string `env:"JUNIE_FORCE_UNZIPPER"`
	Version        string `env:"JUNIE_VERSION"`
	ReleaseBaseURL string `env:"JUNIE_RELEASE_BASE_URL"`

	// Optional archive verification
	ArchiveSHA256 string `env:"JUNIE_ARCHIVE_SHA256"`
	SignatureURL  string `env:"JUNIE_SIGNATURE_URL"`
	KeyringPath   string `env:"JUNIE_KEYRING"`

	DownloadTimeout time.Duration `env:"JUNIE_DOWNLOAD_TIMEOUT" envDefault:"30m"`
	DownloadRetries int           `env:"JUNIE_DOWNLOAD_RETRIES" envDefault:"0"`

	LaunchConfig

	// Root is the package root the configuration was loaded from.
	Root string

	// Manifest is nil when the package root has no junie.lua.
	Manifest *Manifest
}

// LaunchConfig is the part of Config the launcher reads.
type LaunchConfig struct {
	BinaryPath string `env:"JUNIE_BINARY_PATH"`
	Binary     string `env:"JUNIE_BINARY"`

	LogLevel    string `env:"JUNIE_LOG_LEVEL"`
	LogFile     string `env:"JUNIE_LOG_FILE"`
	PackageRoot string `env:"JUNIE_PACKAGE_ROOT"`
}

// Load builds a Config for the package rooted at root. environ is the process
// environment in os.Environ form; its values beat those in .junie.env. The
// manifest is evaluated with the host described by detector.
func Load(ctx context.Context, root string, environ []string, detector platform.Detector) (*Config, error) {
	cfg, err := LoadEnv(root, environ)
	if err != nil {
		return nil, err
	}

	manifest, err := LoadManifest(ctx, filepath.Join(root, ManifestFileName), detector)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	cfg.Manifest = manifest

	return cfg, nil
}

// LoadEnv is Load without the manifest.
func LoadEnv(root string, environ []string) (*Config, error) {
	vars, err := mergedEnv(root, environ)
	if err != nil {
		return nil, err
	}

	cfg := &Config{Root: root}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: vars}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.DownloadRetries < 0 {
		return nil, fmt.Errorf("JUNIE_DOWNLOAD_RETRIES must not be negative, got %d", cfg.DownloadRetries)
	}
	return cfg, nil
}

// LoadLaunch reads only the launch-time variables, so an install-only value
// that does not parse cannot keep an installed binary from starting.
func LoadLaunch(root string, environ []string) (*LaunchConfig, error) {
	vars, err := mergedEnv(root, environ)
	if err != nil {
		return nil, err
	}

	cfg := &LaunchConfig{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: vars}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// mergedEnv overlays environ on the variables in root's .junie.env.
func mergedEnv(root string, environ []string) (map[string]string, error) {
	vars, err := readEnvFile(filepath.Join(root, EnvFileName))
	if err != nil {
		return nil, err
	}
	for k, v := range environMap(environ) {
		vars[k] = v
	}
	return vars, nil
}

// readEnvFile returns the variables in path, or an empty map when the file
// does not exist.
func readEnvFile(path string) (map[string]string, error) {
	vars, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return vars, nil
}

// environMap splits KEY=VALUE pairs. Entries without '=' are skipped.
func environMap(environ []string) map[string]string {
	m := make(map[string]string, len(environ))
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		m[k] = v
	}
	return m
}

// EnvBinaryPath returns the launch-time binary override.
// JUNIE_BINARY_PATH wins over JUNIE_BINARY.
func (c *LaunchConfig) EnvBinaryPath() string {
	if c.BinaryPath != "" {
		return c.BinaryPath
	}
	return c.Binary
}

// ForceLibraryExtractor reports whether JUNIE_FORCE_UNZIPPER is exactly "1".
func (c *Config) ForceLibraryExtractor() bool {
	return c.ForceUnzipper == "1"
}

// ResolvedVersion returns the Junie version to install:
// JUNIE_VERSION, then the manifest, then DefaultVersion.
func (c *Config) ResolvedVersion() string {
	if c.Version != "" {
		return c.Version
	}
	if c.Manifest != nil && c.Manifest.Version != "" {
		return c.Manifest.Version
	}
	return DefaultVersion
}

// BaseURL returns the release host prefix with any trailing slash removed.
func (c *Config) BaseURL() string {
	base := c.ReleaseBaseURL
	if base == "" && c.Manifest != nil {
		base = c.Manifest.ReleaseBaseURL
	}
	if base == "" {
		base = DefaultReleaseBaseURL
	}
	return strings.TrimRight(base, "/")
}

// ExpectedSHA256 returns the archive digest to verify against for target, or
// "" when none is configured. The environment beats the manifest.
func (c *Config) ExpectedSHA256(target platform.Target) string {
	if c.ArchiveSHA256 != "" {
		return strings.ToLower(strings.TrimSpace(c.ArchiveSHA256))
	}
	if c.Manifest != nil {
		return c.Manifest.Checksums[target.String()]
	}
	return ""
}

// ValidateInstall checks the settings an install run cannot proceed without.
func (c *Config) ValidateInstall() error {
	if c.DownloadURL == "" && c.ResolvedVersion() == "" {
		return fmt.Errorf("%w: set JUNIE_VERSION, add a version to %s, or set JUNIE_DOWNLOAD_URL", ErrNoVersion, ManifestFileName)
	}
	if (c.SignatureURL == "") != (c.KeyringPath == "") {
		return errors.New("JUNIE_SIGNATURE_URL and JUNIE_KEYRING must be set together")
	}
	if c.DownloadTimeout <= 0 {
		return fmt.Errorf("JUNIE_DOWNLOAD_TIMEOUT must be positive, got %s", c.DownloadTimeout)
	}
	return nil
}
