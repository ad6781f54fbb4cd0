// Package build carries build-time metadata.
package build

// Version is the application version. Overridden at build time via
// -ldflags "-X github.com/aptprep/aptprep/internal/build.Version=…".
var Version = "dev"
