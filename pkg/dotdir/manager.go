// Package dotdir manages the .rewind/ and ~/.rewind directories.
//
// The dotdir holds the CLI's persistent state: config.toml, credentials.toml,
// the default sqlite database, and the project binding that links a working
// directory to a rewind project.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// dirName is the name of the rewind directory.
	dirName = ".rewind"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the target absolute path to a .rewind/ directory.
// Order of precedence is as follows:
//  1. Provided override
//  2. Local ./.rewind/ dir
//  3. Home ~/.rewind/ dir
//  4. If none found, attempt to create ~/.rewind/ dir
func (m *Manager) Target(overrideDir string) (string, error) {
	dir := overrideDir

	if dir == "" {
		if local, ok := m.localDir(); ok {
			dir = local
		}
	}
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, dirName)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating rewind directory %s: %w", dir, err)
	}

	return filepath.Abs(dir)
}

// localDir returns the ./.rewind candidate when it exists as a directory.
func (m *Manager) localDir() (string, bool) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", false
	}

	dir := filepath.Join(cwd, dirName)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", false
	}
	return dir, true
}
