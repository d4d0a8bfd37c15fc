// Package version exposes build metadata and the release update check.
package version

import "fmt"

// Injected through -ldflags at release build time; a plain `go build`
// leaves the dev defaults in place.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// GetVersion returns the running build as a display string.
func GetVersion() string {
	return FormatVersion(Version, Commit, Date)
}

// FormatVersion renders version metadata for human output. Development
// builds carry no useful commit or date, so those are omitted.
func FormatVersion(version, commit, date string) string {
	if version == "dev" {
		return version + " (development build)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
}

// GetVersionComponents returns the raw version, commit, and build date.
func GetVersionComponents() (version, commit, date string) {
	return Version, Commit, Date
}
