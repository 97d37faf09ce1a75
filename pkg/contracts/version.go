// Package contracts defines the shared data contracts between the
// analysis engine, the HTTP API, and WebSocket consumers. Subpackages
// hold the concrete shapes: domain for core entities, api/v1 for
// request/response DTOs, events for the WebSocket envelope.
package contracts

import (
	"fmt"
	"runtime"
)

// Build metadata, injected at link time via -ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
	GitBranch = "unknown"
)

// APIVersion is the versioned prefix for HTTP routes and the Version
// field stamped on every WebSocket envelope.
const APIVersion = "v1"

// VersionInfo is the full build identity reported by the health endpoint
// and the -version CLI flag.
type VersionInfo struct {
	Version   string `json:"version"`
	BuildTime string `json:"build_time"`
	GitCommit string `json:"git_commit"`
	GitBranch string `json:"git_branch"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetVersionInfo assembles the build identity for this binary.
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:   Version,
		BuildTime: BuildTime,
		GitCommit: GitCommit,
		GitBranch: GitBranch,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String renders a single-line version banner.
func (v VersionInfo) String() string {
	return fmt.Sprintf("benfordlens %s (%s, %s) built %s from %s@%s",
		v.Version, v.GoVersion, v.Platform, v.BuildTime, v.GitBranch, v.GitCommit)
}
