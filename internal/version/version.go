// Package version holds build information set at link time.
package version

// Version is the release version, set with -ldflags "-X".
var Version = "dev"

// Commit is the source revision the binary was built from.
var Commit = "unknown"
