package ir

import (
	"context"
	"fmt"
	"go/token"
	"log/slog"
	"sort"

	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// LoadOptions configures Load
type LoadOptions struct {
	Dir          string // directory to run the build system in; empty means the current directory
	Tests        bool   // include test packages
	ExpandStdlib bool
	EntryPoints  []string
	Classifier   Classifier
	Logger       *slog.Logger
}

// Load type-checks the packages matching patterns together with all of their
// dependencies, builds SSA with generic instantiation and returns a provider
// over the result.
func Load(ctx context.Context, patterns []string, opts LoadOptions) (*SSAProvider, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}

	logger.Debug("Loading packages", "patterns", patterns, "dir", opts.Dir)
	cfg := &packages.Config{
		Context: ctx,
		Dir:     opts.Dir,
		Mode:    packages.LoadAllSyntax | packages.NeedDeps | packages.NeedImports | packages.NeedModule,
		Fset:    token.NewFileSet(),
		Tests:   opts.Tests,
	}
	initial, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load packages: %w", err)
	}
	if len(initial) == 0 {
		return nil, fmt.Errorf("no packages match %v", patterns)
	}

	// Flatten the import graph so module metadata is known for every package.
	all := make(map[string]*packages.Package)
	packages.Visit(initial, func(pkg *packages.Package) bool {
		if _, seen := all[pkg.ID]; seen {
			return false
		}
		all[pkg.ID] = pkg
		return true
	}, nil)

	var errCount int
	packages.Visit(initial, nil, func(pkg *packages.Package) {
		for _, e := range pkg.Errors {
			logger.Error("Package error", "package", pkg.PkgPath, "error", e.Msg)
			errCount++
		}
	})
	if errCount > 0 {
		return nil, fmt.Errorf("errors encountered during package loading: %d", errCount)
	}
	logger.Debug("Loaded packages", "total", len(all), "roots", len(initial))

	main, err := FindMainModule(dirOrDot(opts.Dir))
	if err != nil {
		logger.Debug("No main module", "error", err)
	}
	modules := NewModuleResolver(main)
	ids := make([]string, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		modules.Add(all[id])
	}

	prog, ssaPkgs := ssautil.AllPackages(initial, ssa.InstantiateGenerics)
	prog.Build()

	var roots []*ssa.Package
	for _, pkg := range ssaPkgs {
		if pkg != nil {
			roots = append(roots, pkg)
		}
	}
	logger.Debug("Built SSA program", "module", modules.Main().Name, "packages", len(prog.AllPackages()), "roots", len(roots))

	return NewSSAProvider(prog, roots, Options{
		ExpandStdlib: opts.ExpandStdlib,
		EntryPoints:  opts.EntryPoints,
		Classifier:   opts.Classifier,
		Modules:      modules,
	}), nil
}

func dirOrDot(dir string) string {
	if dir == "" {
		return "."
	}
	return dir
}
