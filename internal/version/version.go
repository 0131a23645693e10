// Package version carries build metadata injected with ldflags, e.g.
//
//	go build -ldflags "-X github.com/HerbHall/videocatalog/internal/version.Version=1.2.0"
package version

import (
	"fmt"
	"runtime"
)

// Name is the product name used in banners and response headers.
const Name = "videocatalog"

// Header is the response header carrying Short().
const Header = "X-Videocatalog-Version"

var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info returns the one-line banner printed by the version subcommand.
func Info() string {
	return fmt.Sprintf("%s %s (commit: %s, built: %s, go: %s, %s/%s)",
		Name, Version, shortCommit(), BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Short returns just the version string, "dev" for local builds.
func Short() string {
	return Version
}

// Map returns build metadata for JSON responses.
func Map() map[string]string {
	return map[string]string{
		"version":    Version,
		"git_commit": GitCommit,
		"build_date": BuildDate,
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
	}
}

func shortCommit() string {
	if len(GitCommit) > 12 {
		return GitCommit[:12]
	}
	return GitCommit
}
