// Package version provides build version information for the
// application. Kept separate to avoid import cycles between the cli
// and server packages.
package version

// Version is the build version string, set by ldflags during build.
var Version = "v1.2.0"

// BuildTime is the build timestamp, set by ldflags during build.
var BuildTime = "unknown"
