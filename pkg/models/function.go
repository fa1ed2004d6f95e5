package models

import "fmt"

// ID is the structural identity of a function instance: a 128-bit hash of its
// definition path and concrete type arguments.
type ID struct {
	Hi uint64
	Lo uint64
}

// String renders the identity as 32 lowercase hex digits
func (id ID) String() string {
	return fmt.Sprintf("%016x%016x", id.Hi, id.Lo)
}

// Less orders identities by their numeric value
func (id ID) Less(other ID) bool {
	if id.Hi != other.Hi {
		return id.Hi < other.Hi
	}
	return id.Lo < other.Lo
}

// InstanceKind classifies how far an instance could be resolved
type InstanceKind int

const (
	// KindConcrete is a fully instantiated function with a body
	KindConcrete InstanceKind = iota
	// KindAbstract is a generic function whose type parameters are still unbound
	KindAbstract
	// KindExternal is a function whose body is unavailable or deliberately opaque
	KindExternal
)

func (k InstanceKind) String() string {
	switch k {
	case KindConcrete:
		return "concrete"
	case KindAbstract:
		return "abstract"
	case KindExternal:
		return "external"
	default:
		return "unknown"
	}
}

// Module describes the module that owns a function
type Module struct {
	Name    string `json:"name" toml:"name" yaml:"name"`
	Version string `json:"version" toml:"version" yaml:"version"`
}

// Instance is a function collected during analysis. Instances are created once
// and never modified afterwards.
type Instance struct {
	ID       ID
	Name     string   // display path including type arguments
	Path     string   // display path with all type-argument segments removed
	TypeArgs []string // concrete type arguments, outermost first
	Package  string   // import path of the declaring package, when known
	Module   Module
	Kind     InstanceKind
}

// Display returns the name used in reports
func (i *Instance) Display(withArgs bool) string {
	if withArgs {
		return i.Name
	}
	return i.Path
}

// IsGeneric reports whether the instance was produced from a parameterized definition
func (i *Instance) IsGeneric() bool {
	return len(i.TypeArgs) > 0 || i.Kind == KindAbstract
}
