package dotdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	projectFile = "project.json"
)

// ProjectState binds a working directory to a rewind project so commands
// like blame and seed do not need an explicit --project flag every run.
// It is persisted as JSON in the resolved .rewind/ directory.
type ProjectState struct {
	// ProjectID is the bound project identifier.
	ProjectID string `json:"project_id"`

	// RepoName is the repository name the binding was created from,
	// when one was detected.
	RepoName string `json:"repo_name,omitempty"`

	// LinkedAt is the RFC 3339 time the binding was written.
	LinkedAt string `json:"linked_at,omitempty"`
}

// LoadProjectState loads the project binding from a target .rewind/project.json.
// Returns nil, nil if no binding exists.
// If overrideDir is non-empty, it is used instead of the default .rewind/ location.
func (m *Manager) LoadProjectState(overrideDir string) (*ProjectState, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(dir, projectFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading project state: %w", err)
	}

	state := &ProjectState{}
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parsing project state: %w", err)
	}

	return state, nil
}

// SaveProject persists the project binding to a target .rewind/project.json.
func (m *Manager) SaveProject(state *ProjectState, overrideDir string) error {
	if state == nil {
		return errors.New("cannot save nil project state")
	}

	if state.ProjectID == "" {
		return errors.New("cannot save project state without a project id")
	}

	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling project state: %w", err)
	}

	path := filepath.Join(dir, projectFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing project state: %w", err)
	}

	return nil
}

// ClearProject removes the project binding file.
// If overrideDir is non-empty, it is used instead of the default .rewind/ location.
// Returns nil if the file doesn't exist (already cleared).
func (m *Manager) ClearProject(overrideDir string) error {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	path := filepath.Join(dir, projectFile)
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("removing project state: %w", err)
	}

	return nil
}
