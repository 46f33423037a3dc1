package core

// Version is the service version reported by the health endpoint.
// Overridable at build time via -ldflags "-X noodle_backend/core.Version=...".
var Version = "0.1.0"

// VersionInfo carries build metadata for status reporting.
type VersionInfo struct {
	Version   string `json:"version"`
	BuildDate string `json:"build_date,omitempty"`
	GitCommit string `json:"git_commit,omitempty"`
}

// CurrentVersion returns the version info for this build.
func CurrentVersion() VersionInfo {
	return VersionInfo{Version: Version}
}
