package main

import (
	"context"
	"errors"
	"fmt"

	"dagger/rewind/internal/dagger"
)

// CheckGoModTidy fails when "go mod tidy" would change go.mod or go.sum,
// meaning the caller forgot to tidy before committing. The pristine copies
// live under /tmp so tidy itself cannot touch them.
//
// +check
func (r *Rewind) CheckGoModTidy(ctx context.Context) (string, error) {
	out, err := r.goContainer().
		WithExec([]string{"cp", "go.mod", "go.sum", "/tmp/"}).
		WithExec([]string{"go", "mod", "tidy"}).
		WithExec([]string{
			"sh", "-c",
			"diff -u /tmp/go.mod go.mod && diff -u /tmp/go.sum go.sum",
		}).
		Stdout(ctx)

	var e *dagger.ExecError
	if errors.As(err, &e) {
		return "", fmt.Errorf(
			"go.mod or go.sum are not tidy: run 'go mod tidy' and commit the result\n\n%s",
			e.Stdout,
		)
	} else if err != nil {
		return "", fmt.Errorf("unexpected error: %w", err)
	}

	return fmt.Sprintf("go.mod and go.sum are tidy: %s", out), nil
}
