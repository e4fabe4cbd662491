package common

import (
	"fmt"
	"runtime"
)

const (
	ProjectName    = "Sector Rotation Backtester"
	ProjectVersion = "1.0.0"
)

// Build information, overridden with -ldflags
var (
	BuildDate   = "unknown"
	BuildCommit = "dev"
)

// PrintVersion prints version information
func PrintVersion(appName string) {
	fmt.Printf("%s v%s (%s)\n", appName, ProjectVersion, ProjectName)
	fmt.Printf("Build: %s (%s)\n", BuildCommit, BuildDate)
	fmt.Printf("Go: %s (%s/%s)\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
