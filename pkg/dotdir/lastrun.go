package dotdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	lastRunFile = "last_run.json"
)

// LastRun is the most recently submitted command, kept so it can be run
// again without retyping its fields.
type LastRun struct {
	// Command is the slash separated command path, e.g. "plugins/sync".
	Command string `json:"command"`

	// Fields maps field names to the values given on the command line.
	Fields map[string][]string `json:"fields,omitempty"`

	// Target is the server the command was submitted to.
	Target string `json:"target"`

	SubmittedAt time.Time `json:"submitted_at"`
}

// LoadLastRun reads the last run from the resolved .clickweb/ directory.
// Returns nil, nil when nothing was recorded yet.
func (m *Manager) LoadLastRun(overrideDir string) (*LastRun, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return nil, nil
	}

	data, err := os.ReadFile(filepath.Join(dir, lastRunFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading last run: %w", err)
	}

	var run LastRun
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("parsing last run: %w", err)
	}
	return &run, nil
}

// SaveLastRun records run, creating ~/.clickweb/ if needed.
func (m *Manager) SaveLastRun(run *LastRun, overrideDir string) error {
	if run == nil {
		return errors.New("cannot save nil last run")
	}

	dir, err := m.Ensure(overrideDir)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding last run: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, lastRunFile), data, 0o600); err != nil {
		return fmt.Errorf("writing last run: %w", err)
	}
	return nil
}
