// Rewind CI/CD
//
// Package main provides reproducible builds and tests locally and in GitHub actions.
// It is the main harness for handling nearly all dev operations.
package main

import (
	"context"

	"dagger/rewind/internal/dagger"
)

// Rewind is the main module for the Rewind CI/CD pipeline
type Rewind struct {
	// Project source directory
	//
	// +private
	Source *dagger.Directory
}

// New creates a new Rewind CI/CD module instance
func New(
	// Project source directory.
	//
	// +defaultPath="/"
	// +ignore=[".git", ".direnv", ".devenv", "build", "tmp"]
	source *dagger.Directory,
) *Rewind {
	return &Rewind{
		Source: source,
	}
}

// goContainer returns a Debian Bookworm-based Go container with gcc,
// CGO enabled, and the project source mounted. go-sqlite3 compiles its
// bundled amalgamation, so no system sqlite headers are needed.
//
// It is the shared foundation for tests, builds, and linting.
func (r *Rewind) goContainer() *dagger.Container {
	return dag.Container().
		From("golang:1.25-bookworm").
		WithExec([]string{"apt-get", "update"}).
		WithExec([]string{"apt-get", "install", "-y", "gcc"}).
		WithEnvVariable("CGO_ENABLED", "1").
		WithEnvVariable("GOEXPERIMENT", "jsonv2").
		WithEnvVariable("PATH", "/go/bin:$PATH", dagger.ContainerWithEnvVariableOpts{Expand: true}).
		WithMountedCache("/go/pkg/mod", dag.CacheVolume("go-mod")).
		WithMountedCache("/root/.cache/go-build", dag.CacheVolume("go-build")).
		WithWorkdir("/src").
		WithDirectory("/src", r.Source)
}

// Test runs the rewind unit tests via "go test"
func (r *Rewind) Test(ctx context.Context) (string, error) {
	return r.goContainer().
		WithExec([]string{"go", "test", "-v", "./..."}).
		Stdout(ctx)
}
