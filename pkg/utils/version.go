// Package utils holds small helpers shared across commands that are too
// slight to deserve their own package.
package utils

// Build metadata, overridden at release time through -ldflags.
var (
	Version   = "dev"
	Sha       = "HEAD"
	Buildtime = "dev"
)
