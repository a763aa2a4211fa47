// Package versions exposes build version information for the server binary.
package versions

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version information set by build using -ldflags
var (
	// Version is the current version of the server
	Version = "dev"
	// Commit is the git commit hash of the build
	Commit = "unknown"
	// BuildDate is the date the binary was built
	BuildDate = "unknown"
)

// VersionInfo represents the version information of the server
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetVersionInfo returns the version information, falling back to module
// build info when ldflags were not provided.
func GetVersionInfo() VersionInfo {
	version := Version
	commit := Commit

	if commit == "unknown" {
		if info, ok := debug.ReadBuildInfo(); ok {
			for _, setting := range info.Settings {
				if setting.Key == "vcs.revision" {
					commit = setting.Value
				}
			}
		}
	}

	return VersionInfo{
		Version:   version,
		Commit:    commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}
