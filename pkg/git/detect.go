// Package git shells out to the local git binary for the repository context
// the CLI needs: the repository name used to resolve a project, and per-line
// blame used for fully local attribution.
package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const repoNameTimeout = 5 * time.Second

// RepoName returns the base name of the repository containing the working
// directory, for use as a default project identifier. Outside a repository
// it falls back to the working directory's own base name, and returns ""
// only when even that cannot be determined.
func RepoName() string {
	ctx, cancel := context.WithTimeout(context.Background(), repoNameTimeout)
	defer cancel()

	if top := toplevel(ctx); top != "" {
		return filepath.Base(top)
	}

	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return filepath.Base(wd)
}

// toplevel resolves the repository root, or "" when not inside a work tree.
func toplevel(ctx context.Context) string {
	out, err := exec.CommandContext(ctx, "git", "rev-parse", "--show-toplevel").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
