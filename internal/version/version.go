package version

import (
	"fmt"
	"runtime/debug"
)

// Build metadata, overridden with -ldflags "-X" at release time.
var (
	Version   = "0.4.0"
	Commit    = "none"
	BuildTime = "unknown"
)

// Info describes the running binary.
type Info struct {
	Version   string
	Commit    string
	BuildTime string
}

// Get returns the build metadata. Values not set through ldflags are taken
// from the VCS stamp of `go install` builds when available.
func Get() Info {
	info := Info{Version: Version, Commit: Commit, BuildTime: BuildTime}

	build, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}

	for _, setting := range build.Settings {
		switch setting.Key {
		case "vcs.revision":
			if info.Commit == "none" && len(setting.Value) >= 7 {
				info.Commit = setting.Value[:7]
			}
		case "vcs.time":
			if info.BuildTime == "unknown" {
				info.BuildTime = setting.Value
			}
		}
	}

	return info
}

// Short returns only the semantic version string.
func Short() string {
	return Version
}

// Full returns the version line printed by `kosu version`.
func Full() string {
	info := Get()

	return fmt.Sprintf("kosu %s, commit: %s, built at: %s", info.Version, info.Commit, info.BuildTime)
}
