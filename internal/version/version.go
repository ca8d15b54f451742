// Package version reports build information.
package version

import (
	"fmt"
	"runtime"

	"github.com/hashicorp/go-version"
)

var (
	Version   = "0.3.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// Info holds version information.
type Info struct {
	Version   string
	BuildDate string
	GitCommit string
	GoVersion string
	Platform  string
}

// Get returns version information.
func Get() Info {
	return Info{
		Version:   Version,
		BuildDate: BuildDate,
		GitCommit: GitCommit,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

func (i Info) String() string {
	return fmt.Sprintf("sqlexpr version %s (%s %s)", i.Version, i.Platform, i.GoVersion)
}

// FullString returns a multi-line description.
func (i Info) FullString() string {
	return fmt.Sprintf(`sqlexpr version %s
Build Date: %s
Git Commit: %s
Platform: %s
Go Version: %s`, i.Version, i.BuildDate, i.GitCommit, i.Platform, i.GoVersion)
}

// Newer reports whether latest is a higher version than current.
func Newer(current, latest string) (bool, error) {
	c, err := version.NewVersion(current)
	if err != nil {
		return false, fmt.Errorf("invalid version format: %w", err)
	}
	l, err := version.NewVersion(latest)
	if err != nil {
		return false, fmt.Errorf("invalid latest version format: %w", err)
	}
	return c.LessThan(l), nil
}
