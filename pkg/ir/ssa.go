package ir

import (
	"fmt"
	"go/types"
	"sort"
	"sync"

	"golang.org/x/tools/go/callgraph/cha"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
	"golang.org/x/tools/go/types/typeutil"

	"github.com/smith-xyz/golang-callgraph-generator/pkg/index"
	"github.com/smith-xyz/golang-callgraph-generator/pkg/models"
)

// Classifier decides which packages belong to the standard library
type Classifier interface {
	IsStandardLibrary(packagePath string) bool
}

// Options controls how SSA functions are exposed as symbols
type Options struct {
	ExpandStdlib bool
	EntryPoints  []string
	Classifier   Classifier
	Modules      *ModuleResolver
}

// SSAProvider exposes a built SSA program (with generic instantiation enabled)
// through the Provider interface. Dynamic call candidates come from class
// hierarchy analysis, computed once at construction.
type SSAProvider struct {
	prog  *ssa.Program
	roots []*ssa.Package
	opts  Options

	mu    sync.Mutex
	funcs map[models.ID]*ssa.Function

	dispatch map[ssa.CallInstruction][]*ssa.Function
}

// NewSSAProvider wraps a program whose packages have already been built.
// roots are the packages the user asked to analyze.
func NewSSAProvider(prog *ssa.Program, roots []*ssa.Package, opts Options) *SSAProvider {
	if opts.Modules == nil {
		opts.Modules = NewModuleResolver(models.Module{})
	}
	p := &SSAProvider{
		prog:     prog,
		roots:    roots,
		opts:     opts,
		funcs:    make(map[models.ID]*ssa.Function),
		dispatch: make(map[ssa.CallInstruction][]*ssa.Function),
	}

	graph := cha.CallGraph(prog)
	for fn, node := range graph.Nodes {
		if fn == nil || node == nil {
			continue
		}
		for _, edge := range node.Out {
			if edge.Site == nil || edge.Callee == nil || edge.Callee.Func == nil {
				continue
			}
			if edge.Site.Common().StaticCallee() != nil {
				continue
			}
			p.dispatch[edge.Site] = append(p.dispatch[edge.Site], edge.Callee.Func)
		}
	}
	return p
}

// EntryPoints returns the configured entry points. Without configuration it
// returns main and init of every main package, falling back to the exported
// API of the root packages for libraries.
func (p *SSAProvider) EntryPoints() ([]Symbol, error) {
	var fns []*ssa.Function
	if len(p.opts.EntryPoints) > 0 {
		candidates := p.rootFunctions()
		for _, pattern := range p.opts.EntryPoints {
			matched := false
			for _, fn := range candidates {
				if index.Matches(pattern, displayName(fn)) {
					fns = append(fns, fn)
					matched = true
				}
			}
			if !matched {
				return nil, fmt.Errorf("%w: no entry point matches %q", ErrUnresolvedSymbol, pattern)
			}
		}
	} else {
		for _, pkg := range ssautil.MainPackages(p.roots) {
			if fn := pkg.Func("main"); fn != nil {
				fns = append(fns, fn)
			}
			if fn := pkg.Func("init"); fn != nil {
				fns = append(fns, fn)
			}
		}
		if len(fns) == 0 {
			fns = p.rootFunctions()
		}
	}

	seen := make(map[models.ID]bool)
	var syms []Symbol
	for _, fn := range fns {
		sym := p.symbolFor(fn)
		if seen[sym.ID()] {
			continue
		}
		seen[sym.ID()] = true
		syms = append(syms, sym)
	}
	sort.Slice(syms, func(i, j int) bool { return syms[i].Name < syms[j].Name })
	return syms, nil
}

// rootFunctions lists exported functions and methods of the root packages
func (p *SSAProvider) rootFunctions() []*ssa.Function {
	var fns []*ssa.Function
	for _, pkg := range p.roots {
		if pkg == nil {
			continue
		}
		names := make([]string, 0, len(pkg.Members))
		for name := range pkg.Members {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			switch m := pkg.Members[name].(type) {
			case *ssa.Function:
				if obj := m.Object(); obj != nil && obj.Exported() {
					fns = append(fns, m)
				}
			case *ssa.Type:
				if !m.Object().Exported() {
					continue
				}
				fns = append(fns, p.exportedMethods(m.Type())...)
			}
		}
	}
	return fns
}

func (p *SSAProvider) exportedMethods(t types.Type) []*ssa.Function {
	named, ok := types.Unalias(t).(*types.Named)
	if !ok || types.IsInterface(named) {
		return nil
	}
	var fns []*ssa.Function
	if named.TypeParams().Len() > 0 {
		// Methods of a generic type are only reachable as abstract definitions.
		for i := 0; i < named.NumMethods(); i++ {
			meth := named.Method(i)
			if !meth.Exported() {
				continue
			}
			if fn := p.prog.FuncValue(meth); fn != nil {
				fns = append(fns, fn)
			}
		}
		return fns
	}
	for _, sel := range typeutil.IntuitiveMethodSet(named, &p.prog.MethodSets) {
		if !sel.Obj().Exported() {
			continue
		}
		if fn := p.prog.MethodValue(sel); fn != nil {
			fns = append(fns, fn)
		}
	}
	return fns
}

// Body translates the SSA blocks of a concrete function
func (p *SSAProvider) Body(sym Symbol) (*Body, error) {
	p.mu.Lock()
	fn, ok := p.funcs[sym.ID()]
	p.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnresolvedSymbol, sym.Name)
	}
	if sym.Kind != models.KindConcrete || len(fn.Blocks) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoBody, sym.Name)
	}

	body := &Body{Blocks: make([]Block, len(fn.Blocks))}
	for i, b := range fn.Blocks {
		blk := Block{Succs: make([]int, 0, len(b.Succs))}
		for _, s := range b.Succs {
			blk.Succs = append(blk.Succs, s.Index)
		}
		if n := len(b.Instrs); n > 0 {
			_, blk.Branch = b.Instrs[n-1].(*ssa.If)
		}
		for _, instr := range b.Instrs {
			site, ok := instr.(ssa.CallInstruction)
			if !ok {
				continue
			}
			if call, ok := p.resolve(site); ok {
				blk.Calls = append(blk.Calls, call)
			}
		}
		body.Blocks[i] = blk
	}
	return body, nil
}

func (p *SSAProvider) resolve(site ssa.CallInstruction) (Call, bool) {
	common := site.Common()
	if _, ok := common.Value.(*ssa.Builtin); ok {
		return Call{}, false
	}
	call := Call{Pos: p.position(site)}

	if callee := common.StaticCallee(); callee != nil {
		sym := p.symbolFor(callee)
		switch {
		case sym.Kind == models.KindExternal:
			call.Kind = models.CallExternal
		case len(sym.TypeArgs) > 0 || sym.Kind == models.KindAbstract:
			call.Kind = models.CallGeneric
		default:
			call.Kind = models.CallDirect
		}
		call.Targets = []Symbol{sym}
		return call, true
	}

	call.Kind = models.CallDynamic
	seen := make(map[models.ID]bool)
	for _, fn := range p.dispatch[site] {
		sym := p.symbolFor(fn)
		if seen[sym.ID()] {
			continue
		}
		seen[sym.ID()] = true
		call.Targets = append(call.Targets, sym)
	}
	sort.Slice(call.Targets, func(i, j int) bool { return call.Targets[i].Name < call.Targets[j].Name })
	return call, true
}

func (p *SSAProvider) position(site ssa.CallInstruction) string {
	pos := site.Pos()
	if !pos.IsValid() || p.prog.Fset == nil {
		return ""
	}
	return p.prog.Fset.Position(pos).String()
}

// symbolFor describes fn and remembers it so Body can find it again
func (p *SSAProvider) symbolFor(fn *ssa.Function) Symbol {
	pkgPath := packagePath(fn)
	sym := Symbol{
		Name:     displayName(fn),
		TypeArgs: typeArgs(fn),
		Package:  pkgPath,
		Module:   p.opts.Modules.Resolve(pkgPath, p.isStdlib(pkgPath)),
	}
	switch {
	case isAbstract(fn):
		sym.Kind = models.KindAbstract
	case len(fn.Blocks) == 0:
		sym.Kind = models.KindExternal
	case !p.opts.ExpandStdlib && p.isStdlib(pkgPath):
		sym.Kind = models.KindExternal
	}

	p.mu.Lock()
	p.funcs[sym.ID()] = fn
	p.mu.Unlock()
	return sym
}

func (p *SSAProvider) isStdlib(pkgPath string) bool {
	if pkgPath == "" || p.opts.Classifier == nil {
		return false
	}
	return p.opts.Classifier.IsStandardLibrary(pkgPath)
}
