// Package version reports build information for the oak-query binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// These variables are set via ldflags at release time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Dialect is the SQL dialect the assemblers emit.
const Dialect = "postgres ($N placeholders)"

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	Dialect   string `json:"dialect"`
}

// Get returns the build information. Values not set through ldflags are
// taken from the module build info when the binary was built with
// "go install".
func Get() BuildInfo {
	b := BuildInfo{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		Dialect:   Dialect,
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		b = fill(b, info)
	}
	return b
}

// fill completes b from module build info without overriding ldflags values.
func fill(b BuildInfo, info *debug.BuildInfo) BuildInfo {
	if b.Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		b.Version = info.Main.Version
	}
	fromVCS := false
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if b.Commit != "none" {
				continue
			}
			b.Commit = setting.Value
			fromVCS = true
			if len(b.Commit) > 7 {
				b.Commit = b.Commit[:7]
			}
		case "vcs.time":
			if b.Date == "unknown" {
				b.Date = setting.Value
			}
		case "vcs.modified":
			if setting.Value == "true" && fromVCS {
				b.Commit += "-dirty"
			}
		}
	}
	return b
}

func (b BuildInfo) String() string {
	return fmt.Sprintf("oak-query %s (commit: %s, built: %s) %s, dialect %s",
		b.Version, b.Commit, b.Date, b.GoVersion, b.Dialect)
}

// Info returns formatted version information.
func Info() string {
	return Get().String()
}

// Short returns just the version string.
func Short() string {
	return Get().Version
}
