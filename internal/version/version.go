// Package version holds the build metadata of the dinofilter binary.
// The values are set at link time via -ldflags.
package version

import (
	"fmt"
	"runtime"

	"github.com/hupe1980/dinofilter/internal/output"
)

// Set via -ldflags "-X".
var (
	version   = "dev"
	gitCommit = "none"
	buildDate = "unknown"
)

// Info is the build metadata of the binary.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit"`
	BuildDate string `json:"buildDate"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

// GetInfo returns the current build information.
func GetInfo() Info {
	return Info{
		Version:   version,
		GitCommit: shortCommit(gitCommit),
		BuildDate: buildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String returns a single-line summary.
func (i Info) String() string {
	return fmt.Sprintf("dinofilter %s (commit: %s, built: %s, %s %s)",
		i.Version, i.GitCommit, i.BuildDate, i.GoVersion, i.Platform)
}

// Tables renders the build metadata as a key/value table so that the
// version command can use every output format.
func (i Info) Tables() []output.Table {
	return []output.Table{{
		Title:   "dinofilter",
		Columns: []string{"Key", "Value"},
		Rows: [][]string{
			{"Version", i.Version},
			{"Commit", i.GitCommit},
			{"Built", i.BuildDate},
			{"Go", i.GoVersion},
			{"Platform", i.Platform},
		},
	}}
}

func shortCommit(commit string) string {
	if len(commit) > 7 {
		return commit[:7]
	}

	return commit
}
