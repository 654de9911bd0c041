package binary

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork
	"github.com/ProtonMail/go-crypto/openpgp/armor"
)

// testSigner generates a throwaway key and writes its public half to disk.
type testSigner struct {
	entity         *openpgp.Entity
	armoredKeyring string
	binaryKeyring  string
}

func newTestSigner(t *testing.T) *testSigner {
	t.Helper()

	entity, err := openpgp.NewEntity("Junie Test", "", "test@example.com", nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	dir := t.TempDir()
	s := &testSigner{
		entity:         entity,
		armoredKeyring: filepath.Join(dir, "keyring.asc"),
		binaryKeyring:  filepath.Join(dir, "keyring.gpg"),
	}

	var armored bytes.Buffer
	w, err := armor.Encode(&armored, openpgp.PublicKeyType, nil)
	if err != nil {
		t.Fatalf("armor keyring: %v", err)
	}
	if err := entity.Serialize(w); err != nil {
		t.Fatalf("serialize keyring: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close armor: %v", err)
	}
	writeTestFile(t, s.armoredKeyring, armored.Bytes())

	var raw bytes.Buffer
	if err := entity.Serialize(&raw); err != nil {
		t.Fatalf("serialize keyring: %v", err)
	}
	writeTestFile(t, s.binaryKeyring, raw.Bytes())

	return s
}

func (s *testSigner) sign(t *testing.T, path string, armored bool) string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}

	var sig bytes.Buffer
	if armored {
		err = openpgp.ArmoredDetachSign(&sig, s.entity, bytes.NewReader(data), nil)
	} else {
		err = openpgp.DetachSign(&sig, s.entity, bytes.NewReader(data), nil)
	}
	if err != nil {
		t.Fatalf("sign %s: %v", path, err)
	}

	sigPath := path + ".sig"
	writeTestFile(t, sigPath, sig.Bytes())
	return sigPath
}

func writeTestFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// helloSHA256 is the SHA-256 of "hello".
const helloSHA256 = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"

func TestVerifySHA256(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "junie.zip")
	writeTestFile(t, archive, []byte("hello"))

	tests := []struct {
		name     string
		expected string
		wantErr  bool
	}{
		{"matching", helloSHA256, false},
		{"matching uppercase with spaces", "  2CF24DBA5FB0A30E26E83B2AC5B9E29E1B161E5C1FA7425E73043362938B9824 ", false},
		{"mismatch", "0000000000000000000000000000000000000000000000000000000000000000", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			methods, err := NewVerifier(tt.expected, nil).VerifyArchive(archive, "")
			if tt.wantErr {
				if !errors.Is(err, ErrVerificationFailed) {
					t.Fatalf("expected ErrVerificationFailed, got %v", err)
				}
				var vErr *VerificationError
				if !errors.As(err, &vErr) || vErr.Method != VerificationSHA256 {
					t.Errorf("expected SHA256 VerificationError, got %#v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(methods) != 1 || methods[0] != VerificationSHA256 {
				t.Errorf("methods = %v, want [SHA256]", methods)
			}
		})
	}
}

func TestVerifySignature(t *testing.T) {
	signer := newTestSigner(t)
	dir := t.TempDir()

	archive := filepath.Join(dir, "junie.zip")
	writeTestFile(t, archive, []byte("archive bytes"))

	other := filepath.Join(dir, "other.zip")
	writeTestFile(t, other, []byte("tampered bytes"))

	tests := []struct {
		name        string
		keyringPath string
		armoredSig  bool
		archive     string
		wantErr     bool
	}{
		{"armored signature, armored keyring", signer.armoredKeyring, true, archive, false},
		{"binary signature, armored keyring", signer.armoredKeyring, false, archive, false},
		{"armored signature, binary keyring", signer.binaryKeyring, true, archive, false},
		{"tampered archive", signer.armoredKeyring, true, other, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keyring, err := LoadKeyring(tt.keyringPath)
			if err != nil {
				t.Fatalf("LoadKeyring() error = %v", err)
			}

			// Sign the genuine archive, then verify tt.archive against it
			sig := signer.sign(t, archive, tt.armoredSig)

			methods, err := NewVerifier("", keyring).VerifyArchive(tt.archive, sig)
			if tt.wantErr {
				if !errors.Is(err, ErrVerificationFailed) {
					t.Errorf("expected ErrVerificationFailed, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(methods) != 1 || methods[0] != VerificationOpenPGP {
				t.Errorf("methods = %v, want [OpenPGP]", methods)
			}
		})
	}
}

func TestVerifySignature_WrongKey(t *testing.T) {
	signer := newTestSigner(t)
	stranger := newTestSigner(t)

	archive := filepath.Join(t.TempDir(), "junie.zip")
	writeTestFile(t, archive, []byte("archive bytes"))
	sig := stranger.sign(t, archive, true)

	keyring, err := LoadKeyring(signer.armoredKeyring)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewVerifier("", keyring).VerifyArchive(archive, sig); !errors.Is(err, ErrVerificationFailed) {
		t.Errorf("expected ErrVerificationFailed, got %v", err)
	}
}

func TestVerifyArchive_Combined(t *testing.T) {
	signer := newTestSigner(t)
	archive := filepath.Join(t.TempDir(), "junie.zip")
	writeTestFile(t, archive, []byte("hello"))
	sig := signer.sign(t, archive, true)

	keyring, err := LoadKeyring(signer.armoredKeyring)
	if err != nil {
		t.Fatal(err)
	}

	v := NewVerifier(helloSHA256, keyring)
	if !v.Enabled() || !v.WantsSignature() {
		t.Fatal("verifier should be enabled and want a signature")
	}

	methods, err := v.VerifyArchive(archive, sig)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(methods) != 2 || methods[0] != VerificationSHA256 || methods[1] != VerificationOpenPGP {
		t.Errorf("methods = %v", methods)
	}

	// A missing signature fails after the digest passed
	methods, err = v.VerifyArchive(archive, "")
	if !errors.Is(err, ErrVerificationFailed) {
		t.Errorf("expected ErrVerificationFailed, got %v", err)
	}
	if len(methods) != 1 {
		t.Errorf("passed methods = %v, want [SHA256]", methods)
	}
}

func TestVerifier_Disabled(t *testing.T) {
	v := NewVerifier("", nil)
	if v.Enabled() || v.WantsSignature() {
		t.Error("zero configuration should check nothing")
	}
	methods, err := v.VerifyArchive(filepath.Join(t.TempDir(), "missing.zip"), "")
	if err != nil || len(methods) != 0 {
		t.Errorf("VerifyArchive() = %v, %v", methods, err)
	}
}

func TestLoadKeyring_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadKeyring(filepath.Join(dir, "missing.asc")); err == nil {
		t.Error("expected error for missing keyring")
	}

	garbage := filepath.Join(dir, "garbage.asc")
	writeTestFile(t, garbage, []byte("not a keyring"))
	if _, err := LoadKeyring(garbage); err == nil {
		t.Error("expected error for garbage keyring")
	}
}

func TestCalculateSHA256(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f")
	writeTestFile(t, path, []byte("hello"))

	got, err := calculateSHA256(path)
	if err != nil {
		t.Fatalf("calculateSHA256() error = %v", err)
	}
	if got != helloSHA256 {
		t.Errorf("calculateSHA256() = %s, want %s", got, helloSHA256)
	}

	if _, err := calculateSHA256(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for non-existent file")
	}
}

func TestVerificationMethodString(t *testing.T) {
	tests := []struct {
		method VerificationMethod
		want   string
	}{
		{VerificationNone, "None"},
		{VerificationSHA256, "SHA256"},
		{VerificationOpenPGP, "OpenPGP"},
		{VerificationMethod(99), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.method.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.method, got, tt.want)
		}
	}
}
