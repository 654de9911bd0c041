package binary

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ZebulonRouseFrantzich/junie/internal/config"
	"github.com/ZebulonRouseFrantzich/junie/internal/layout"
	"github.com/ZebulonRouseFrantzich/junie/internal/platform"
	"github.com/ZebulonRouseFrantzich/junie/internal/transaction"
	"github.com/rs/zerolog"
)

// Options holds what an Installer needs.
type Options struct {
	// Layout locates the working directory, marker and receipt.
	Layout *layout.Layout
	// Host is the detected platform; only OS and Arch are used for the install.
	Host *platform.Info
	// Settings carries the environment and manifest configuration.
	Settings *config.Config

	// Downloader overrides the HTTP downloader built from Settings.
	Downloader *Downloader
	// LookPath overrides exec.LookPath when probing for unzip and xattr.
	LookPath LookPathFunc
	// Progress, when set, is called as each stage starts.
	Progress func(Stage)
	// Now stamps the receipt. Defaults to time.Now.
	Now func() time.Time

	Logger zerolog.Logger
}

// Installer runs the install pipeline once per Install call.
type Installer struct {
	layout     *layout.Layout
	host       *platform.Info
	settings   *config.Config
	downloader *Downloader
	lookPath   LookPathFunc
	progress   func(Stage)
	now        func() time.Time
	logger     zerolog.Logger
}

// NewInstaller creates a new installer
func NewInstaller(opts Options) (*Installer, error) {
	if opts.Layout == nil {
		return nil, fmt.Errorf("layout is required")
	}
	if opts.Host == nil {
		return nil, fmt.Errorf("host platform is required")
	}
	if opts.Settings == nil {
		return nil, fmt.Errorf("settings are required")
	}

	downloader := opts.Downloader
	if downloader == nil {
		downloader = NewDownloader(opts.Settings.ResolvedVersion()).
			WithTimeout(opts.Settings.DownloadTimeout).
			WithRetries(opts.Settings.DownloadRetries)
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Installer{
		layout:     opts.Layout,
		host:       opts.Host,
		settings:   opts.Settings,
		downloader: downloader,
		lookPath:   opts.LookPath,
		progress:   opts.Progress,
		now:        now,
		logger:     opts.Logger.With().Str("component", "installer").Logger(),
	}, nil
}

// Install downloads, verifies, extracts and commits the Junie binary.
//
// On Windows it returns platform.ErrWindowsUnsupported before touching the
// network or the disk. Any failure leaves the working directory as it is; in
// particular no marker is written unless the binary is where the layout
// expects it.
func (i *Installer) Install(ctx context.Context) (*InstallResult, error) {
	start := time.Now()

	target, err := platform.ResolveTarget(i.host.OS, i.host.Arch)
	if err != nil {
		return nil, err
	}
	if err := i.settings.ValidateInstall(); err != nil {
		return nil, err
	}

	version := i.settings.ResolvedVersion()
	url, err := BuildDownloadURL(target, version, i.settings.BaseURL(), i.settings.DownloadURL)
	if err != nil {
		return nil, err
	}

	log := i.logger.With().Str("target", target.String()).Logger()
	if i.settings.DownloadURL != "" {
		log.Info().Msgf("Using JUNIE_DOWNLOAD_URL=%s", url)
	}
	log.Info().Msgf("Downloading from %s", url)

	lock, err := transaction.AcquireLock(ctx, i.layout.LockDir)
	if err != nil {
		return nil, fmt.Errorf("acquire install lock: %w", err)
	}
	defer func() {
		if err := lock.Release(); err != nil {
			log.Warn().Err(err).Msg("failed to release install lock")
		}
	}()

	stageNames := make([]string, 0, len(Stages))
	for _, s := range Stages {
		stageNames = append(stageNames, string(s))
	}
	txn := transaction.New(url, target.String(), stageNames)
	i.saveJournal(txn)

	result := &InstallResult{
		URL:       url,
		Target:    target,
		Version:   version,
		InstallID: txn.ID,
	}
	signaturePath := ""

	err = i.runStage(txn, StageDownloading, func() error {
		if err := os.MkdirAll(i.layout.WorkDir, 0o755); err != nil {
			return fmt.Errorf("create working directory: %w", err)
		}
		if err := i.downloader.DownloadToFile(ctx, url, i.layout.ArchivePath); err != nil {
			return err
		}
		if i.settings.SignatureURL != "" {
			signaturePath = i.layout.ArchivePath + ".sig"
			if err := i.downloader.DownloadToFile(ctx, i.settings.SignatureURL, signaturePath); err != nil {
				return fmt.Errorf("download signature: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = i.runStage(txn, StageVerifying, func() error {
		verified, err := i.verify(target, signaturePath)
		result.Verified = verified
		return err
	})
	if err != nil {
		return nil, err
	}

	err = i.runStage(txn, StageExtracting, func() error {
		name, err := i.extract(ctx, log)
		result.Extractor = name
		return err
	})
	if err != nil {
		return nil, err
	}

	err = i.runStage(txn, StageFinalizing, func() error {
		binaryPath, err := i.finalize(ctx, log, target, signaturePath)
		result.BinaryPath = binaryPath
		return err
	})
	if err != nil {
		return nil, err
	}

	result.Duration = time.Since(start)
	i.writeReceipt(log, result)

	log.Info().Str("binary", result.BinaryPath).Dur("duration", result.Duration).Msg("Installation complete.")
	return result, nil
}

// runStage reports and journals one stage around fn.
func (i *Installer) runStage(txn *transaction.InstallTxn, stage Stage, fn func() error) error {
	if i.progress != nil {
		i.progress(stage)
	}
	txn.UpdateStage(string(stage), transaction.StateInProgress, nil)
	i.saveJournal(txn)

	err := fn()
	if err != nil {
		txn.UpdateStage(string(stage), transaction.StateFailed, err)
	} else {
		txn.UpdateStage(string(stage), transaction.StateCompleted, nil)
	}
	i.saveJournal(txn)
	return err
}

func (i *Installer) saveJournal(txn *transaction.InstallTxn) {
	if err := txn.Save(i.layout.LockDir); err != nil {
		i.logger.Warn().Err(err).Msg("failed to save install journal")
	}
}

// verify runs the configured archive checks.
func (i *Installer) verify(target platform.Target, signaturePath string) ([]VerificationMethod, error) {
	var verifier *Verifier
	if i.settings.KeyringPath != "" {
		keyring, err := LoadKeyring(i.settings.KeyringPath)
		if err != nil {
			return nil, &VerificationError{Method: VerificationOpenPGP, Err: err}
		}
		verifier = NewVerifier(i.settings.ExpectedSHA256(target), keyring)
	} else {
		verifier = NewVerifier(i.settings.ExpectedSHA256(target), nil)
	}

	if !verifier.Enabled() {
		i.logger.Debug().Msg("no archive verification configured")
		return nil, nil
	}
	return verifier.VerifyArchive(i.layout.ArchivePath, signaturePath)
}

// extract unpacks the archive, falling back to the built-in extractor when
// the unzip tool cannot be started.
func (i *Installer) extract(ctx context.Context, log zerolog.Logger) (string, error) {
	extractor := SelectExtractor(i.settings.ForceLibraryExtractor(), i.lookPath)
	log.Debug().Str("extractor", extractor.Name()).Msg("extracting archive")

	err := extractor.Extract(ctx, i.layout.ArchivePath, i.layout.WorkDir)
	if err != nil && errors.Is(err, ErrUnzipUnavailable) {
		log.Warn().Err(err).Msg("unzip unavailable, using built-in extractor")
		extractor = NewLibraryExtractor()
		err = extractor.Extract(ctx, i.layout.ArchivePath, i.layout.WorkDir)
	}
	return extractor.Name(), err
}

// finalize normalizes the tree, checks the layout and commits the marker.
func (i *Installer) finalize(ctx context.Context, log zerolog.Logger, target platform.Target, signaturePath string) (string, error) {
	if err := NormalizePermissions(i.layout.WorkDir); err != nil {
		log.Warn().Err(err).Msg("failed to normalize permissions")
	}
	if target.IsMacOS() {
		if err := StripQuarantine(ctx, i.layout.WorkDir, i.lookPath); err != nil {
			log.Warn().Err(err).Msg("failed to strip quarantine attribute")
		}
	}

	binaryPath := i.layout.ExpectedBinary(i.host.OS)
	info, err := os.Stat(binaryPath)
	if err != nil || info.IsDir() {
		return "", &LayoutVerificationError{Path: binaryPath}
	}

	if err := SetExecutable(binaryPath); err != nil {
		log.Warn().Err(err).Msg("failed to mark binary executable")
	}

	for _, leftover := range []string{i.layout.ArchivePath, signaturePath} {
		if leftover == "" {
			continue
		}
		if err := os.Remove(leftover); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", leftover).Msg("failed to remove download")
		}
	}

	if err := i.layout.WriteMarker(binaryPath); err != nil {
		return "", err
	}
	return binaryPath, nil
}

// writeReceipt records the install. A failure only costs diagnostics.
func (i *Installer) writeReceipt(log zerolog.Logger, result *InstallResult) {
	verification := make([]string, 0, len(result.Verified))
	for _, m := range result.Verified {
		verification = append(verification, m.String())
	}

	receipt := &Receipt{
		InstallID:    result.InstallID,
		Version:      result.Version,
		URL:          result.URL,
		OS:           result.Target.OSName,
		Arch:         result.Target.Arch,
		Extractor:    result.Extractor,
		Verification: verification,
		Binary:       result.BinaryPath,
		InstalledAt:  i.now().UTC(),
	}
	if err := WriteReceipt(i.layout.ReceiptFile, receipt); err != nil {
		log.Warn().Err(err).Msg("failed to write install receipt")
	}
}
