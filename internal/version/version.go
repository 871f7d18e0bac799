// Package version holds build metadata stamped in with
// -ldflags "-X github.com/kailas-cloud/prodsearch/internal/version.Version=...".
package version

import "fmt"

//nolint:gochecknoglobals // set by the linker
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String renders the build as "v1.4.0 (3f9c2ab, 2026-10-01T12:00:00Z)".
func String() string {
	return fmt.Sprintf("%s (%s, %s)", Version, ShortCommit(), Date)
}

// ShortCommit returns the first seven characters of Commit.
func ShortCommit() string {
	if len(Commit) > 7 {
		return Commit[:7]
	}
	return Commit
}
