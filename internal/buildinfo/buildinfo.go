// Package buildinfo holds version information injected at build time via ldflags.
package buildinfo

import (
	"fmt"
	"runtime"
)

// AppName is the user-facing product name.
const AppName = "EasyCue"

var (
	Version    = "dev"
	Codename   = "unknown"
	CommitHash = "unknown"
	BuildDate  = "unknown"
)

// Summary describes this build on one line.
func Summary() string {
	return fmt.Sprintf("%s (%s) commit %s, built %s, %s/%s",
		Version, Codename, CommitHash, BuildDate, runtime.GOOS, runtime.GOARCH)
}
