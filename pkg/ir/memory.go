package ir

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/smith-xyz/golang-callgraph-generator/pkg/models"
)

// Document is the serialized form of a program consumed by MemoryProvider
type Document struct {
	EntryPoints []string      `json:"entry_points"`
	Functions   []FunctionDoc `json:"functions"`
}

// FunctionDoc describes one function instance
type FunctionDoc struct {
	Name     string        `json:"name"`
	TypeArgs []string      `json:"type_args,omitempty"`
	Package  string        `json:"package,omitempty"`
	Module   models.Module `json:"module"`
	Kind     string        `json:"kind,omitempty"` // concrete (default), abstract or external
	Blocks   []BlockDoc    `json:"blocks,omitempty"`
}

// BlockDoc describes one basic block
type BlockDoc struct {
	Succs  []int     `json:"succs,omitempty"`
	Branch bool      `json:"branch,omitempty"`
	Calls  []CallDoc `json:"calls,omitempty"`
}

// CallDoc describes one call instruction. Targets refer to FunctionDoc names.
type CallDoc struct {
	Kind    string   `json:"kind,omitempty"`
	Targets []string `json:"targets"`
	Pos     string   `json:"pos,omitempty"`
}

// MemoryProvider serves a program held entirely in memory. It is used for
// pre-extracted IR documents and throughout the tests.
type MemoryProvider struct {
	entries []string
	funcs   map[string]*FunctionDoc
}

// LoadDocument reads a JSON IR document from disk
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path) // #nosec G304 - user supplied input file
	if err != nil {
		return nil, fmt.Errorf("failed to read IR document %s: %w", path, err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse IR document %s: %w", path, err)
	}
	return &doc, nil
}

// NewMemoryProvider indexes a document. Function names must be unique.
func NewMemoryProvider(doc *Document) (*MemoryProvider, error) {
	if doc == nil {
		return nil, fmt.Errorf("nil IR document")
	}
	p := &MemoryProvider{
		entries: doc.EntryPoints,
		funcs:   make(map[string]*FunctionDoc, len(doc.Functions)),
	}
	for i := range doc.Functions {
		fn := &doc.Functions[i]
		if fn.Name == "" {
			return nil, fmt.Errorf("function %d has no name", i)
		}
		if _, dup := p.funcs[fn.Name]; dup {
			return nil, fmt.Errorf("duplicate function %q", fn.Name)
		}
		if _, err := parseKind(fn.Kind); err != nil {
			return nil, fmt.Errorf("function %q: %w", fn.Name, err)
		}
		p.funcs[fn.Name] = fn
	}
	return p, nil
}

// EntryPoints returns the declared entry points, or every concrete function
// when none are declared. Undeclared names are returned as bare symbols so
// that the collector reports them as unresolved.
func (p *MemoryProvider) EntryPoints() ([]Symbol, error) {
	var syms []Symbol
	if len(p.entries) == 0 {
		for _, fn := range p.funcs {
			if sym := p.symbol(fn.Name); sym.Kind == models.KindConcrete {
				syms = append(syms, sym)
			}
		}
		sort.Slice(syms, func(i, j int) bool { return syms[i].Name < syms[j].Name })
		return syms, nil
	}
	for _, name := range p.entries {
		syms = append(syms, p.symbol(name))
	}
	return syms, nil
}

// Body converts the stored blocks of a concrete function
func (p *MemoryProvider) Body(sym Symbol) (*Body, error) {
	fn, ok := p.funcs[sym.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnresolvedSymbol, sym.Name)
	}
	if kind, _ := parseKind(fn.Kind); kind != models.KindConcrete {
		return nil, fmt.Errorf("%w: %s is %s", ErrNoBody, sym.Name, kind)
	}

	body := &Body{Blocks: make([]Block, len(fn.Blocks))}
	for i, b := range fn.Blocks {
		blk := Block{Succs: b.Succs, Branch: b.Branch}
		for _, c := range b.Calls {
			kind, ok := models.ParseCallKind(c.Kind)
			if !ok {
				return nil, fmt.Errorf("%w: %s block %d: unknown call kind %q", ErrMalformedBody, sym.Name, i, c.Kind)
			}
			call := Call{Kind: kind, Pos: c.Pos}
			for _, t := range c.Targets {
				call.Targets = append(call.Targets, p.symbol(t))
			}
			blk.Calls = append(blk.Calls, call)
		}
		body.Blocks[i] = blk
	}
	return body, nil
}

func (p *MemoryProvider) symbol(name string) Symbol {
	fn, ok := p.funcs[name]
	if !ok {
		return Symbol{Name: name}
	}
	kind, _ := parseKind(fn.Kind)
	return Symbol{
		Name:     fn.Name,
		TypeArgs: fn.TypeArgs,
		Package:  fn.Package,
		Module:   fn.Module,
		Kind:     kind,
	}
}

func parseKind(s string) (models.InstanceKind, error) {
	switch s {
	case "", "concrete":
		return models.KindConcrete, nil
	case "abstract":
		return models.KindAbstract, nil
	case "external":
		return models.KindExternal, nil
	}
	return models.KindConcrete, fmt.Errorf("unknown function kind %q", s)
}
