// Package version exposes the build identity of the sitegen binary.
package version

import (
	"fmt"
	"runtime/debug"
)

// Version contains the application version information.
// Set via build-time ldflags in production:
// go build -ldflags "-X github.com/santiiagoleandro-ops/site-financas-llama/internal/version.Version=v1.0.0".
var Version = "dev"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Resolved returns Version, falling back to the main module version embedded
// by `go install` when no ldflags were given.
func Resolved() string {
	if Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return Version
}

// String renders the version line printed by --version.
func String() string {
	return fmt.Sprintf("sitegen %s (commit %s, built %s)", Resolved(), GitCommit, BuildTime)
}
