package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ZebulonRouseFrantzich/junie/internal/binary"
	"github.com/ZebulonRouseFrantzich/junie/internal/config"
	"github.com/ZebulonRouseFrantzich/junie/internal/layout"
	"github.com/ZebulonRouseFrantzich/junie/internal/logging"
	"github.com/ZebulonRouseFrantzich/junie/internal/platform"
	"github.com/briandowns/spinner"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// WindowsNotice is printed instead of installing on Windows hosts.
const WindowsNotice = "Windows is not supported yet; supported platforms: macOS, Linux"

// newDetector is replaced in tests.
var newDetector = platform.NewDetector

type installOptions struct {
	root          string
	url           string
	forceUnzipper bool
	logLevel      string
	noSpinner     bool
}

func newRootCmd() *cobra.Command {
	var opts installOptions

	cmd := &cobra.Command{
		Use:   "junie-install",
		Short: "Install the Junie binary for this machine",
		Long: `Download the Junie release archive for this OS and architecture, unpack it
into <root>/bin/junie and record the binary's location for the junie launcher.

Environment:
  JUNIE_VERSION           release to install (overrides junie.lua)
  JUNIE_DOWNLOAD_URL      exact archive URL, skips version and platform substitution
  JUNIE_FORCE_UNZIPPER=1  use the built-in extractor instead of unzip
  JUNIE_ARCHIVE_SHA256    expected archive digest
  JUNIE_SIGNATURE_URL     detached OpenPGP signature, with JUNIE_KEYRING`,
		Version:       Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(cmd.Context(), opts, os.Environ(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.PersistentFlags().StringVar(&opts.root, "root", "", "Package root (default: directory of this executable, or JUNIE_PACKAGE_ROOT)")
	cmd.Flags().StringVar(&opts.url, "url", "", "Archive URL override (same as JUNIE_DOWNLOAD_URL)")
	cmd.Flags().BoolVar(&opts.forceUnzipper, "force-unzipper", false, "Use the built-in extractor (same as JUNIE_FORCE_UNZIPPER=1)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (default info)")
	cmd.Flags().BoolVar(&opts.noSpinner, "no-spinner", false, "Disable the progress spinner")

	cmd.AddCommand(newStatusCmd(&opts))
	return cmd
}

// packageRoot applies --root, then JUNIE_PACKAGE_ROOT, then the executable's
// directory.
func packageRoot(flag string, environ []string) (string, error) {
	if flag != "" {
		return layout.PackageRoot(flag)
	}
	return layout.PackageRoot(lookupEnv(environ, "JUNIE_PACKAGE_ROOT"))
}

func runInstall(ctx context.Context, opts installOptions, environ []string, stdout, stderr io.Writer) error {
	host, err := newDetector().Detect(ctx)
	if err != nil {
		return fmt.Errorf("detect platform: %w", err)
	}
	if platform.IsWindows(host.OS) {
		fmt.Fprintln(stdout, WindowsNotice)
		return nil
	}

	root, err := packageRoot(opts.root, environ)
	if err != nil {
		return err
	}

	// Flags beat the environment
	if opts.url != "" {
		environ = append(environ, "JUNIE_DOWNLOAD_URL="+opts.url)
	}
	if opts.forceUnzipper {
		environ = append(environ, "JUNIE_FORCE_UNZIPPER=1")
	}
	if opts.logLevel != "" {
		environ = append(environ, "JUNIE_LOG_LEVEL="+opts.logLevel)
	}

	cfg, err := config.Load(ctx, root, environ, platform.StaticDetector{Info: *host})
	if err != nil {
		var mErr *config.ManifestError
		if errors.As(err, &mErr) {
			verbose := opts.logLevel == "debug" || lookupEnv(environ, "JUNIE_LOG_LEVEL") == "debug"
			return errors.New(config.FormatError(err, verbose))
		}
		return err
	}

	logger, closer, err := newLogger(cfg, stderr)
	if err != nil {
		return err
	}
	defer closer.Close()
	logger.Debug().Str("root", root).Str("host", host.String()).Msg("starting install")

	l, err := layout.New(root)
	if err != nil {
		return err
	}

	// The spinner only draws on a real terminal
	s := spinner.New(spinner.CharSets[14], 120*time.Millisecond)
	if f, ok := stderr.(*os.File); ok {
		spinner.WithWriterFile(f)(s)
	} else {
		opts.noSpinner = true
	}
	progress := func(stage binary.Stage) {
		if opts.noSpinner {
			return
		}
		s.Lock()
		s.Suffix = fmt.Sprintf(" %s Junie...", stageLabel(stage))
		s.Unlock()
		s.Start()
	}

	installer, err := binary.NewInstaller(binary.Options{
		Layout:   l,
		Host:     host,
		Settings: cfg,
		Progress: progress,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	result, err := installer.Install(ctx)
	s.Stop()
	if err != nil {
		if errors.Is(err, platform.ErrWindowsUnsupported) {
			fmt.Fprintln(stdout, WindowsNotice)
			return nil
		}
		return fmt.Errorf("install failed: %w", err)
	}

	fmt.Fprintf(stdout, "Installed Junie %s to %s\n", displayVersion(result), result.BinaryPath)
	return nil
}

func newLogger(cfg *config.Config, stderr io.Writer) (zerolog.Logger, io.Closer, error) {
	logCfg := logging.DefaultConfig()
	logCfg.Output = stderr
	logCfg.File = cfg.LogFile
	if cfg.LogLevel != "" {
		logCfg.Level = cfg.LogLevel
	}
	return logging.NewWithComponent(logCfg, "junie-install")
}

func stageLabel(stage binary.Stage) string {
	switch stage {
	case binary.StageDownloading:
		return "Downloading"
	case binary.StageVerifying:
		return "Verifying"
	case binary.StageExtracting:
		return "Extracting"
	default:
		return "Finalizing"
	}
}

func displayVersion(result *binary.InstallResult) string {
	if result.Version == "" {
		return "(custom URL)"
	}
	return result.Version
}
