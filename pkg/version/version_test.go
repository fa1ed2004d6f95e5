package version

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestFormatVersion(t *testing.T) {
	tests := []struct {
		name     string
		commit   string
		modified bool
		want     string
	}{
		{"unknown commit", "unknown", false, "v1.2.3"},
		{"short commit", "abc", false, "v1.2.3"},
		{"full commit", "0123456789abcdef", false, "v1.2.3 (0123456)"},
		{"dirty tree", "0123456789abcdef", true, "v1.2.3 (0123456, modified)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatVersion("v1.2.3", tt.commit, tt.modified); got != tt.want {
				t.Errorf("formatVersion() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestApplyBuildSettings(t *testing.T) {
	bi := &debug.BuildInfo{
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "fedcba9876543210"},
			{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
			{Key: "vcs.modified", Value: "true"},
		},
		Deps: []*debug.Module{
			{Path: "golang.org/x/mod", Version: "v0.27.0"},
			{Path: toolsModule, Version: "v0.36.0"},
		},
	}

	info := &BuildInfo{GitCommit: "unknown", BuildTime: "unknown"}
	applyBuildSettings(info, bi)
	if info.GitCommit != "fedcba9876543210" || info.BuildTime != "2026-01-02T03:04:05Z" || !info.Modified {
		t.Errorf("VCS settings not applied: %+v", info)
	}
	if info.SSAVersion != "v0.36.0" {
		t.Errorf("SSAVersion = %q, want v0.36.0", info.SSAVersion)
	}

	stamped := &BuildInfo{GitCommit: "0123456789", BuildTime: "yesterday"}
	applyBuildSettings(stamped, bi)
	if stamped.GitCommit != "0123456789" || stamped.BuildTime != "yesterday" {
		t.Errorf("ldflags values were overwritten: %+v", stamped)
	}

	bi.Deps[1].Replace = &debug.Module{Path: "../tools", Version: "v0.36.1-local"}
	applyBuildSettings(stamped, bi)
	if stamped.SSAVersion != "v0.36.1-local" {
		t.Errorf("replaced SSAVersion = %q", stamped.SSAVersion)
	}
}

func TestIsPrerelease(t *testing.T) {
	orig := Version
	defer func() { Version = orig }()

	for version, want := range map[string]bool{
		"v0.1.0-beta":   true,
		"v1.0.0-rc.1":   true,
		"v2.0.0-alpha1": true,
		"v1.0.0":        false,
	} {
		Version = version
		if got := IsPrerelease(); got != want {
			t.Errorf("IsPrerelease(%q) = %v, want %v", version, got, want)
		}
	}
}

func TestGetFullVersionString(t *testing.T) {
	s := GetFullVersionString()
	if !strings.HasPrefix(s, "golang-callgraph-generator "+Version) {
		t.Errorf("unexpected version header: %q", s)
	}
	for _, want := range []string{GetBuildInfo().GoVersion, "x/tools: "} {
		if !strings.Contains(s, want) {
			t.Errorf("version string lacks %q: %q", want, s)
		}
	}
}
