package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Build information set by ldflags
var (
	Version = "dev"     // -X github.com/arthur-debert/ariamove/internal/version.Version={{.Version}}
	Commit  = "unknown" // -X github.com/arthur-debert/ariamove/internal/version.Commit={{.Commit}}
	Date    = "unknown" // -X github.com/arthur-debert/ariamove/internal/version.Date={{.Date}}
)

// Info is the build description shown by `ariamove version`
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

// Get returns the build information. Binaries installed with `go install`
// carry no ldflags; their module version and VCS stamp are used instead.
func Get() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "unknown" {
				info.Commit = s.Value
			}
		case "vcs.time":
			if info.Date == "unknown" {
				info.Date = s.Value
			}
		}
	}
	return info
}

// String renders the one-line form used by --version.
func (i Info) String() string {
	return fmt.Sprintf("%s (commit %s, built %s, %s %s)", i.Version, shortCommit(i.Commit), i.Date, i.GoVersion, i.Platform)
}

func shortCommit(c string) string {
	if len(c) > 12 {
		return c[:12]
	}
	return c
}
