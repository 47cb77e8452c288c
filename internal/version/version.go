// Package version exposes build information injected via ldflags:
//
//	go build -ldflags "-X github.com/tsawler/sentiment/internal/version.Version=v1.2.0"
package version

import "runtime"

// Build information, injected via ldflags at build time
var (
	// Version is the git tag or semantic version
	Version = "dev"
	// Commit is the git commit SHA
	Commit = "unknown"
	// BuildTime is the ISO 8601 build timestamp
	BuildTime = "unknown"
)

// Info holds complete build information
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

// Get returns the current build information
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}
}

// String formats the build information on one line.
func (i Info) String() string {
	return i.Version + " (commit " + i.Commit + ", built " + i.BuildTime + ", " + i.GoVersion + ")"
}
