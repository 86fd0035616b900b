// Package version provides information about the build version of the binary.
package version

import "runtime/debug"

// BuildInfo holds version information about the build.
type BuildInfo struct {
	Service   string `json:"service"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version,omitempty"`
}

// Info returns the build information. The version, commit, and date variables
// are set at build time using -ldflags.
func Info() BuildInfo {
	// -ldflags "-X 'tzedge/internal/core/version.version=v0.1.0'
	// -X 'tzedge/internal/core/version.commit=abcd' -X 'tzedge/internal/core/version.date=2026-10-19'"
	bi := BuildInfo{
		Service: "tzedge",
		Version: version,
		Commit:  commit,
		Date:    date,
	}
	if info, ok := readBuildInfo(); ok && info != nil {
		bi.GoVersion = info.GoVersion
	}
	return bi
}

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"

	readBuildInfo = debug.ReadBuildInfo // seam
)
