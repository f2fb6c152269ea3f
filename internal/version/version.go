// Package version carries build metadata injected via ldflags.
package version

var (
	// Version is the release tag, "dev" for untagged builds.
	Version = "dev"
	// Commit is the short git hash of the build.
	Commit = "unknown"
	// BuildDate is the build timestamp.
	BuildDate = "unknown"
)

// GetVersion returns the release tag.
func GetVersion() string {
	return Version
}

// GetFullVersion returns the tag with the commit appended.
func GetFullVersion() string {
	return Version + " (commit: " + Commit + ", built: " + BuildDate + ")"
}
