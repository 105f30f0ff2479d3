// Package version provides build-time version information.
package version

import "runtime"

// Set at build time with -ldflags "-X omr-scale/internal/version.Version=..."
var (
	// Version is the semantic version
	Version = "0.1.0"

	// BuildTime is the UTC time when the binary was built
	BuildTime = "unknown"

	// GitCommit is the git commit hash
	GitCommit = "unknown"
)

// GoVersion returns the Go toolchain and platform of the binary.
func GoVersion() string {
	return runtime.Version() + " " + runtime.GOOS + "/" + runtime.GOARCH
}
