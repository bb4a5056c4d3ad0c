// Package version holds build information stamped in at link time.
package version

import "runtime"

// Set via -ldflags "-X github.com/abapscribe/scribe/version.GitRelease=..."
var (
	// GitRelease is the release tag or branch the binary was built from.
	GitRelease = "dev"

	// GitCommit is the commit hash the binary was built from.
	GitCommit = "unknown"

	// GitCommitDate is the commit date of the build.
	GitCommitDate = "unknown"
)

// GoInfo reports the Go toolchain that produced the binary.
var GoInfo = runtime.Version()
