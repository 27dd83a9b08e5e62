package main

import (
	"fmt"
	"strings"
	"time"

	"context"

	"dagger/rewind/internal/dagger"
)

// Build and return directory of go binaries
func (r *Rewind) Build(
	ctx context.Context,

	// Linker flags for go build
	// +optional
	// +default="-s -w"
	ldflags string,
) *dagger.Directory {
	// go-sqlite3 needs cgo, so the matrix covers linux with a native and a
	// cross gcc instead of CGO_ENABLED=0 cross builds. Darwin needs a macOS
	// toolchain and is built on release runners instead.
	arches := []struct {
		goarch string
		cc     string
	}{
		{"amd64", "gcc"},
		{"arm64", "aarch64-linux-gnu-gcc"},
	}

	// create empty directory to put build artifacts
	outputs := dag.Directory()

	golang := r.goContainer().
		WithExec([]string{"apt-get", "install", "-y", "gcc-aarch64-linux-gnu"})

	for _, arch := range arches {
		// create directory for each architecture
		path := fmt.Sprintf("linux/%s/", arch.goarch)

		// build artifact
		build := golang.
			WithEnvVariable("GOOS", "linux").
			WithEnvVariable("GOARCH", arch.goarch).
			WithEnvVariable("CC", arch.cc).
			WithExec([]string{"go", "build", "-ldflags", ldflags, "-o", path, "./cli/rewind"}).
			WithExec([]string{"go", "build", "-ldflags", ldflags, "-o", path, "./cli/rewindapi"})

		// add build to outputs
		outputs = outputs.WithDirectory(path, build.Directory(path))
	}

	// return build directory
	return outputs
}

// BuildRelease compiles versioned release binaries with embedded version info
func (r *Rewind) BuildRelease(
	ctx context.Context,

	// Version string of build
	version string,

	// Git commit SHA of build
	commit string,
) *dagger.Directory {
	buildtime := time.Now()

	ldflags := []string{
		"-s",
		"-w",
		fmt.Sprintf("-X 'github.com/papercomputeco/rewind/pkg/utils.Version=%s'", version),
		fmt.Sprintf("-X 'github.com/papercomputeco/rewind/pkg/utils.Sha=%s'", commit),
		fmt.Sprintf("-X 'github.com/papercomputeco/rewind/pkg/utils.Buildtime=%s'", buildtime),
	}

	return r.Build(ctx, strings.Join(ldflags, " "))
}
