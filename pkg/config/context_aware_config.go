package config

import "strings"

// Package classes reported by Classify
const (
	ClassStdlib     = "stdlib"
	ClassDependency = "dependency"
	ClassUser       = "user"
)

// ContextAwareConfig wraps the base Config with the module under analysis so
// that its own packages are never mistaken for stdlib or dependencies, even
// when their paths match a pattern (a project hosted on github.com, or one
// named "cmd/tool").
type ContextAwareConfig struct {
	*Config
	RootPackage string
}

// NewContextAwareConfig binds cfg to the root package of the analyzed module
func NewContextAwareConfig(cfg *Config, rootPackage string) *ContextAwareConfig {
	return &ContextAwareConfig{
		Config:      cfg,
		RootPackage: rootPackage,
	}
}

// IsStandardLibrary excludes the project's own packages before applying the patterns
func (c *ContextAwareConfig) IsStandardLibrary(packagePath string) bool {
	if c.isLocalProjectPackage(packagePath) {
		return false
	}
	return c.Config.IsStandardLibrary(packagePath)
}

// IsUserDefined checks if a package is user-defined. With a root package set,
// only the root and its subpackages are.
func (c *ContextAwareConfig) IsUserDefined(packagePath string) bool {
	if c.IsStandardLibrary(packagePath) {
		return false
	}
	if c.RootPackage != "" {
		return c.isLocalProjectPackage(packagePath)
	}
	return c.Config.IsUserDefined(packagePath)
}

// IsDependency checks if a package is a third-party dependency, excluding local project packages.
func (c *ContextAwareConfig) IsDependency(packagePath string) bool {
	if c.isLocalProjectPackage(packagePath) {
		return false
	}
	return c.Config.IsDependency(packagePath)
}

// Classify returns ClassStdlib, ClassDependency or ClassUser
func (c *ContextAwareConfig) Classify(packagePath string) string {
	switch {
	case c.IsStandardLibrary(packagePath):
		return ClassStdlib
	case c.IsUserDefined(packagePath):
		return ClassUser
	default:
		return ClassDependency
	}
}

func (c *ContextAwareConfig) isLocalProjectPackage(packagePath string) bool {
	if c.RootPackage == "" {
		return false
	}
	return packagePath == c.RootPackage || strings.HasPrefix(packagePath, c.RootPackage+"/")
}
