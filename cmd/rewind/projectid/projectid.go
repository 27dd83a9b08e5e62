// Package projectid resolves which project a CLI command operates on.
package projectid

import (
	"errors"
	"fmt"
	"strings"

	"github.com/papercomputeco/rewind/pkg/dotdir"
	"github.com/papercomputeco/rewind/pkg/git"
)

// Resolve returns the project ID for a command, in precedence order: an
// explicit --project value, the dotdir project binding written by
// "rewind link", then the current git repository name.
func Resolve(explicit, configDir string) (string, error) {
	if id := strings.TrimSpace(explicit); id != "" {
		return id, nil
	}

	state, err := dotdir.NewManager().LoadProjectState(configDir)
	if err != nil {
		return "", fmt.Errorf("loading project binding: %w", err)
	}
	if state != nil && state.ProjectID != "" {
		return state.ProjectID, nil
	}

	if name := git.RepoName(); name != "" {
		return name, nil
	}

	return "", errors.New("could not resolve a project; pass --project or run 'rewind link <project-id>'")
}
