package binary

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Receipt records a successful install next to the marker file.
type Receipt struct {
	InstallID    string    `yaml:"install_id"`
	Version      string    `yaml:"version,omitempty"`
	URL          string    `yaml:"url"`
	OS           string    `yaml:"os"`
	Arch         string    `yaml:"arch"`
	Extractor    string    `yaml:"extractor"`
	Verification []string  `yaml:"verification,omitempty"`
	Binary       string    `yaml:"binary"`
	InstalledAt  time.Time `yaml:"installed_at"`
}

// WriteReceipt writes r to path.
func WriteReceipt(path string, r *Receipt) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal receipt: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create receipt directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write receipt: %w", err)
	}
	return nil
}

// ReadReceipt reads the receipt at path.
func ReadReceipt(path string) (*Receipt, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r Receipt
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse receipt %s: %w", path, err)
	}
	return &r, nil
}
