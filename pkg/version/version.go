package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

// Overridden at build time with -ldflags "-X .../pkg/version.GitCommit=..."
var (
	Version   = "v0.1.0-beta"
	GitCommit = "unknown"
	GitBranch = "unknown"
	BuildTime = "unknown"
)

const toolsModule = "golang.org/x/tools"

// BuildInfo describes the running binary. Values not set through ldflags are
// filled from the VCS stamp the go command embeds, when there is one.
type BuildInfo struct {
	Version   string
	GitCommit string
	GitBranch string
	BuildTime string
	Modified  bool
	GoVersion string
	Platform  string
	// SSAVersion is the x/tools version the call graph is built with
	SSAVersion string
}

func GetBuildInfo() *BuildInfo {
	info := &BuildInfo{
		Version:    Version,
		GitCommit:  GitCommit,
		GitBranch:  GitBranch,
		BuildTime:  BuildTime,
		GoVersion:  runtime.Version(),
		Platform:   fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
		SSAVersion: "unknown",
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		applyBuildSettings(info, bi)
	}
	return info
}

func applyBuildSettings(info *BuildInfo, bi *debug.BuildInfo) {
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.GitCommit == "unknown" {
				info.GitCommit = s.Value
			}
		case "vcs.time":
			if info.BuildTime == "unknown" {
				info.BuildTime = s.Value
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	for _, dep := range bi.Deps {
		if dep.Path != toolsModule {
			continue
		}
		info.SSAVersion = dep.Version
		if dep.Replace != nil {
			info.SSAVersion = dep.Replace.Version
		}
	}
}

func formatVersion(version, commit string, modified bool) string {
	if commit == "unknown" || len(commit) < 7 {
		return version
	}
	if modified {
		return fmt.Sprintf("%s (%s, modified)", version, commit[:7])
	}
	return fmt.Sprintf("%s (%s)", version, commit[:7])
}

// GetVersionWithCommit returns the version with the short commit, e.g. "v0.1.0 (0123456)"
func GetVersionWithCommit() string {
	info := GetBuildInfo()
	return formatVersion(info.Version, info.GitCommit, info.Modified)
}

// GetFullVersionString returns the text printed by --version -v
func GetFullVersionString() string {
	info := GetBuildInfo()
	var b strings.Builder
	fmt.Fprintf(&b, "golang-callgraph-generator %s", info.Version)
	if IsPrerelease() {
		b.WriteString(" (prerelease)")
	}
	fmt.Fprintf(&b, "\nBuilt: %s\nCommit: %s\nBranch: %s\nGo: %s\nPlatform: %s\nx/tools: %s",
		info.BuildTime, info.GitCommit, info.GitBranch, info.GoVersion, info.Platform, info.SSAVersion)
	return b.String()
}

// IsPrerelease reports whether the version carries a prerelease tag
func IsPrerelease() bool {
	for _, tag := range []string{"alpha", "beta", "rc"} {
		if strings.Contains(Version, tag) {
			return true
		}
	}
	return false
}
