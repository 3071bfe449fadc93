// Package version exposes the build version string, overridable at link time
// via -ldflags "-X github.com/flowpipe/flowpipe/pkg/version.Version=...".
package version

// Version is the current flowpipe version.
var Version = "dev"
