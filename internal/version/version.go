// Package version reports build information for the server and CLI.
package version

import (
	"fmt"
	"runtime/debug"
	"strings"
)

// Set via -ldflags "-X decisiondash/internal/version.Version=..."
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// Info contains version and build information
type Info struct {
	Version     string `json:"version"`
	BuildTime   string `json:"buildTime"`
	GoVersion   string `json:"goVersion"`
	VCSRevision string `json:"vcsRevision,omitempty"`
	VCSModified bool   `json:"vcsModified"`
}

// Get returns the current version and build information
func Get() Info {
	info := Info{Version: Version, BuildTime: BuildTime}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	info.GoVersion = bi.GoVersion
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.VCSRevision = s.Value
		case "vcs.modified":
			info.VCSModified = s.Value == "true"
		}
	}
	return info
}

// Short is the version plus an abbreviated revision, e.g. "v1.2.0 (3f2a9c1d)"
func (i Info) Short() string {
	if i.VCSRevision == "" {
		return i.Version
	}
	rev := i.VCSRevision
	if len(rev) > 8 {
		rev = rev[:8]
	}
	if i.VCSModified {
		rev += "+dirty"
	}
	return fmt.Sprintf("%s (%s)", i.Version, rev)
}

// String returns every known field for `dashctl version`
func (i Info) String() string {
	parts := []string{"Version: " + i.Short()}
	if i.BuildTime != "unknown" {
		parts = append(parts, "Built: "+i.BuildTime)
	}
	if i.GoVersion != "" {
		parts = append(parts, "Go: "+i.GoVersion)
	}
	return strings.Join(parts, ", ")
}

// Check returns a warning for builds that cannot be traced to a commit
func (i Info) Check() string {
	if i.VCSModified {
		return "WARNING: Binary built from modified source tree"
	}
	if i.VCSRevision == "" && i.Version == "dev" {
		return "WARNING: No version control information available (development build)"
	}
	return ""
}
