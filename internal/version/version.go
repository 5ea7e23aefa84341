// Package version carries build metadata stamped in via -ldflags.
package version

import "runtime"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String renders the `warbler version` line.
func String() string {
	return "warbler " + Version + " (commit=" + Commit + ", date=" + Date + ", go=" + runtime.Version() + ")"
}

// UserAgent identifies classifier uploads.
func UserAgent() string {
	return "warbler/" + Version
}
