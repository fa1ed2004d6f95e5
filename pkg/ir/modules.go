package ir

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/semver"
	"golang.org/x/tools/go/packages"

	"github.com/smith-xyz/golang-callgraph-generator/pkg/models"
)

const (
	// StdModule is the module name reported for standard library functions
	StdModule = "std"
	// DevelVersion is reported for the main module, which has no release version
	DevelVersion = "(devel)"
	// UnknownVersion is reported when no module information is available
	UnknownVersion = "unknown"
)

// ModuleResolver maps package paths to the modules that provide them
type ModuleResolver struct {
	main      models.Module
	goVersion string

	mu       sync.RWMutex
	packages map[string]models.Module
}

// NewModuleResolver creates a resolver. main describes the module under analysis.
func NewModuleResolver(main models.Module) *ModuleResolver {
	if main.Name != "" && main.Version == "" {
		main.Version = DevelVersion
	}
	return &ModuleResolver{
		main:      main,
		goVersion: strings.TrimPrefix(runtime.Version(), "go"),
		packages:  make(map[string]models.Module),
	}
}

// Main returns the main module
func (r *ModuleResolver) Main() models.Module {
	return r.main
}

// Add records module information reported by go/packages
func (r *ModuleResolver) Add(pkg *packages.Package) {
	if pkg == nil || pkg.Module == nil {
		return
	}
	r.mu.Lock()
	r.packages[pkg.PkgPath] = moduleOf(pkg.Module)
	r.mu.Unlock()
}

// Resolve returns the module owning pkgPath
func (r *ModuleResolver) Resolve(pkgPath string, stdlib bool) models.Module {
	r.mu.RLock()
	m, ok := r.packages[pkgPath]
	r.mu.RUnlock()
	switch {
	case ok:
		return m
	case stdlib:
		return models.Module{Name: StdModule, Version: r.goVersion}
	case r.main.Name != "" && (pkgPath == r.main.Name || strings.HasPrefix(pkgPath, r.main.Name+"/")):
		return r.main
	case pkgPath == "":
		return models.Module{Name: UnknownVersion, Version: UnknownVersion}
	}
	return models.Module{Name: pkgPath, Version: UnknownVersion}
}

func moduleOf(m *packages.Module) models.Module {
	version := m.Version
	if m.Replace != nil && m.Replace.Version != "" {
		version = m.Replace.Version
	}
	if m.Main || version == "" {
		return models.Module{Name: m.Path, Version: DevelVersion}
	}
	if c := semver.Canonical(version); c != "" && semver.Build(version) == "" {
		version = c
	}
	return models.Module{Name: m.Path, Version: version}
}

// FindMainModule walks up from dir to the nearest go.mod and returns the
// module it declares.
func FindMainModule(dir string) (models.Module, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return models.Module{}, err
	}
	for {
		gomod := filepath.Join(abs, "go.mod")
		data, err := os.ReadFile(gomod) // #nosec G304 - path built from the analyzed directory
		if err == nil {
			f, err := modfile.ParseLax(gomod, data, nil)
			if err != nil {
				return models.Module{}, fmt.Errorf("failed to parse %s: %w", gomod, err)
			}
			if f.Module == nil {
				return models.Module{}, fmt.Errorf("%s has no module directive", gomod)
			}
			return models.Module{Name: f.Module.Mod.Path, Version: DevelVersion}, nil
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return models.Module{}, fmt.Errorf("no go.mod found above %s", dir)
		}
		abs = parent
	}
}
