// Package ir defines the intermediate representation consumed by the call
// graph analysis and the providers that produce it.
package ir

import (
	"errors"
	"fmt"

	"github.com/smith-xyz/golang-callgraph-generator/pkg/index"
	"github.com/smith-xyz/golang-callgraph-generator/pkg/models"
)

var (
	// ErrUnresolvedSymbol is returned when a referenced function cannot be found
	ErrUnresolvedSymbol = errors.New("unresolved symbol")
	// ErrMalformedBody is returned when a function body fails consistency checks
	ErrMalformedBody = errors.New("malformed function body")
	// ErrNoBody is returned for abstract or external functions
	ErrNoBody = errors.New("function has no analyzable body")
)

// Provider supplies entry points and function bodies. Implementations must be
// safe for concurrent calls to Body.
type Provider interface {
	// EntryPoints returns the functions the analysis starts from
	EntryPoints() ([]Symbol, error)
	// Body returns the control-flow body of a concrete function
	Body(sym Symbol) (*Body, error)
}

// Symbol names a function at concrete (or still unbound) type arguments
type Symbol struct {
	Name     string   // display path including type arguments
	TypeArgs []string // type arguments, including those inherited from an enclosing instance
	Package  string
	Module   models.Module
	Kind     models.InstanceKind
}

// Path returns the display path without type arguments
func (s Symbol) Path() string {
	return index.StripTypeArgs(s.Name)
}

// ID returns the structural identity of the symbol
func (s Symbol) ID() models.ID {
	return index.Identity(s.Path(), s.TypeArgs)
}

// Instance converts the symbol into the instance registered in the graph
func (s Symbol) Instance() *models.Instance {
	return &models.Instance{
		ID:       s.ID(),
		Name:     s.Name,
		Path:     s.Path(),
		TypeArgs: s.TypeArgs,
		Package:  s.Package,
		Module:   s.Module,
		Kind:     s.Kind,
	}
}

// Body is a function's control-flow graph. Block 0 is the entry block.
type Body struct {
	Blocks []Block
}

// Block is one basic block
type Block struct {
	Succs  []int  // indices of successor blocks
	Branch bool   // the block ends in a conditional decision
	Calls  []Call // call instructions, in instruction order
}

// Call is one call instruction with its resolved targets
type Call struct {
	Kind    models.CallKind
	Targets []Symbol // exactly one unless Kind is CallDynamic
	Pos     string
}

// Validate checks the internal consistency of a body
func (b *Body) Validate() error {
	if b == nil || len(b.Blocks) == 0 {
		return fmt.Errorf("%w: no blocks", ErrMalformedBody)
	}
	for i, blk := range b.Blocks {
		for _, s := range blk.Succs {
			if s < 0 || s >= len(b.Blocks) {
				return fmt.Errorf("%w: block %d has successor %d out of range [0,%d)", ErrMalformedBody, i, s, len(b.Blocks))
			}
		}
		if blk.Branch && len(blk.Succs) < 2 {
			return fmt.Errorf("%w: branch block %d has %d successors", ErrMalformedBody, i, len(blk.Succs))
		}
	}
	return nil
}
