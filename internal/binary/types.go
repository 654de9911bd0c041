package binary

import (
	"time"

	"github.com/ZebulonRouseFrantzich/junie/internal/platform"
)

// VerificationMethod indicates how an archive was verified
type VerificationMethod int

const (
	// VerificationNone means no check was configured
	VerificationNone VerificationMethod = iota
	// VerificationSHA256 indicates SHA-256 digest comparison
	VerificationSHA256
	// VerificationOpenPGP indicates a detached OpenPGP signature check
	VerificationOpenPGP
)

// String returns the string representation of the verification method
func (v VerificationMethod) String() string {
	switch v {
	case VerificationSHA256:
		return "SHA256"
	case VerificationOpenPGP:
		return "OpenPGP"
	case VerificationNone:
		return "None"
	default:
		return "Unknown"
	}
}

// Stage names a step of the install pipeline, reported through
// Options.Progress.
type Stage string

const (
	StageDownloading Stage = "downloading"
	StageVerifying   Stage = "verifying"
	StageExtracting  Stage = "extracting"
	StageFinalizing  Stage = "finalizing"
)

// Stages lists the pipeline stages in execution order.
var Stages = []Stage{StageDownloading, StageVerifying, StageExtracting, StageFinalizing}

// InstallResult describes a completed install.
type InstallResult struct {
	BinaryPath string
	URL        string
	Target     platform.Target
	Version    string
	Extractor  string
	Verified   []VerificationMethod
	InstallID  string
	Duration   time.Duration
}
