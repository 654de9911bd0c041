// Package transaction guards and records install runs.
//
// AcquireLock keeps two installers off the same working directory. The
// install journal (InstallTxn) is written next to it and tracks each stage,
// so a failed run can be reported by the launcher long after the installer
// exited. A failed run is never rolled back.
package transaction

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// JournalFileName is the journal written into the lock directory.
const JournalFileName = "junie-install.json"

// State represents the current state of an install stage.
type State string

const (
	StatePending    State = "pending"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// InstallTxn is the journal of a single install run.
type InstallTxn struct {
	Version   int        `json:"version"` // Schema version for future evolution
	ID        string     `json:"id"`
	Timestamp time.Time  `json:"timestamp"`
	URL       string     `json:"url"`
	Target    string     `json:"target"`
	Stages    []StageTxn `json:"stages"`
}

// StageTxn is the state of one pipeline stage.
type StageTxn struct {
	Name      string `json:"name"`
	State     State  `json:"state"`
	LastError string `json:"last_error,omitempty"`
}

// New starts a journal with every stage pending.
func New(url, target string, stages []string) *InstallTxn {
	stageTxns := make([]StageTxn, 0, len(stages))
	for _, name := range stages {
		stageTxns = append(stageTxns, StageTxn{Name: name, State: StatePending})
	}

	return &InstallTxn{
		Version:   1,
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		URL:       url,
		Target:    target,
		Stages:    stageTxns,
	}
}

// UpdateStage sets the state of stage. err is recorded when non-nil and
// cleared otherwise. Unknown stages are ignored.
func (t *InstallTxn) UpdateStage(stage string, state State, err error) {
	for i := range t.Stages {
		if t.Stages[i].Name == stage {
			t.Stages[i].State = state
			if err != nil {
				t.Stages[i].LastError = err.Error()
			} else {
				t.Stages[i].LastError = ""
			}
			return
		}
	}
}

// FailedStage returns the first failed stage, if any.
func (t *InstallTxn) FailedStage() (StageTxn, bool) {
	for _, s := range t.Stages {
		if s.State == StateFailed {
			return s, true
		}
	}
	return StageTxn{}, false
}

// Completed returns true if all stages are in completed state.
func (t *InstallTxn) Completed() bool {
	for _, s := range t.Stages {
		if s.State != StateCompleted {
			return false
		}
	}
	return len(t.Stages) > 0
}

// Save writes the journal into dir atomically.
// Uses write-then-rename pattern for atomicity.
func (t *InstallTxn) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create journal directory: %w", err)
	}

	finalPath := filepath.Join(dir, JournalFileName)
	tmpPath := finalPath + ".tmp"

	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal journal: %w", err)
	}

	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temporary journal file: %w", err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename journal file: %w", err)
	}

	return nil
}

// Load reads the journal from dir. A missing journal returns an error
// matching os.ErrNotExist.
func Load(dir string) (*InstallTxn, error) {
	data, err := os.ReadFile(filepath.Join(dir, JournalFileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("read journal file: %w", err)
	}

	var txn InstallTxn
	if err := json.Unmarshal(data, &txn); err != nil {
		return nil, fmt.Errorf("unmarshal journal: %w", err)
	}

	return &txn, nil
}
