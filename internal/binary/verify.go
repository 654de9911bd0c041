package binary

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork
)

// Verifier checks a downloaded archive against whatever the user configured.
// A zero Verifier checks nothing.
type Verifier struct {
	expectedSHA256 string
	keyring        openpgp.EntityList
}

// NewVerifier creates a verifier. expectedSHA256 is a hex digest ("" to
// skip); keyring may be nil to skip signature checks.
func NewVerifier(expectedSHA256 string, keyring openpgp.EntityList) *Verifier {
	return &Verifier{
		expectedSHA256: strings.ToLower(strings.TrimSpace(expectedSHA256)),
		keyring:        keyring,
	}
}

// Enabled reports whether any check is configured.
func (v *Verifier) Enabled() bool {
	return v.expectedSHA256 != "" || len(v.keyring) > 0
}

// WantsSignature reports whether a detached signature is needed.
func (v *Verifier) WantsSignature() bool {
	return len(v.keyring) > 0
}

// VerifyArchive runs every configured check against archivePath and returns
// the methods that passed. signaturePath is required when a keyring is set.
func (v *Verifier) VerifyArchive(archivePath, signaturePath string) ([]VerificationMethod, error) {
	var passed []VerificationMethod

	if v.expectedSHA256 != "" {
		if err := v.verifySHA256(archivePath); err != nil {
			return passed, &VerificationError{Method: VerificationSHA256, Err: err}
		}
		passed = append(passed, VerificationSHA256)
	}

	if len(v.keyring) > 0 {
		if signaturePath == "" {
			return passed, &VerificationError{Method: VerificationOpenPGP, Err: errors.New("signature required but not available")}
		}
		if err := v.verifySignature(archivePath, signaturePath); err != nil {
			return passed, &VerificationError{Method: VerificationOpenPGP, Err: err}
		}
		passed = append(passed, VerificationOpenPGP)
	}

	return passed, nil
}

// verifySHA256 compares the archive digest with the expected one
func (v *Verifier) verifySHA256(archivePath string) error {
	actual, err := calculateSHA256(archivePath)
	if err != nil {
		return fmt.Errorf("calculate checksum: %w", err)
	}

	if !strings.EqualFold(actual, v.expectedSHA256) {
		return fmt.Errorf("checksum mismatch: actual %s, expected %s", actual, v.expectedSHA256)
	}
	return nil
}

// verifySignature checks a detached signature, armored or binary
func (v *Verifier) verifySignature(archivePath, signaturePath string) error {
	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer archiveFile.Close()

	sigFile, err := os.Open(signaturePath)
	if err != nil {
		return fmt.Errorf("open signature: %w", err)
	}
	defer sigFile.Close()

	// Try armored first
	_, err = openpgp.CheckArmoredDetachedSignature(v.keyring, archiveFile, sigFile, nil)
	if err != nil {
		if _, seekErr := archiveFile.Seek(0, io.SeekStart); seekErr != nil {
			return fmt.Errorf("rewind archive: %w", seekErr)
		}
		if _, seekErr := sigFile.Seek(0, io.SeekStart); seekErr != nil {
			return fmt.Errorf("rewind signature: %w", seekErr)
		}
		_, err = openpgp.CheckDetachedSignature(v.keyring, archiveFile, sigFile, nil)
	}
	if err != nil {
		return fmt.Errorf("verify signature: %w", err)
	}

	return nil
}

// LoadKeyring reads a public keyring, armored or binary.
func LoadKeyring(path string) (openpgp.EntityList, error) {
	keyringFile, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	defer keyringFile.Close()

	keyring, err := openpgp.ReadArmoredKeyRing(keyringFile)
	if err != nil {
		// Try reading as non-armored keyring
		if _, seekErr := keyringFile.Seek(0, io.SeekStart); seekErr != nil {
			return nil, fmt.Errorf("rewind keyring: %w", seekErr)
		}
		keyring, err = openpgp.ReadKeyRing(keyringFile)
		if err != nil {
			return nil, fmt.Errorf("read keyring: %w", err)
		}
	}

	if len(keyring) == 0 {
		return nil, fmt.Errorf("keyring is empty")
	}

	return keyring, nil
}

// calculateSHA256 calculates the SHA256 checksum of a file
func calculateSHA256(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}
