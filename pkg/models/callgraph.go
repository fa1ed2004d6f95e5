package models

// CallKind records how a call site was resolved
type CallKind int

const (
	// CallDirect is a static call to a non-generic function
	CallDirect CallKind = iota
	// CallGeneric is a static call to a generic function at concrete type arguments
	CallGeneric
	// CallDynamic is an interface method call or a call through a function value
	CallDynamic
	// CallExternal is a call to a function without an analyzable body
	CallExternal
)

func (k CallKind) String() string {
	switch k {
	case CallDirect:
		return "direct"
	case CallGeneric:
		return "generic"
	case CallDynamic:
		return "dynamic"
	case CallExternal:
		return "external"
	default:
		return "unknown"
	}
}

// ParseCallKind is the inverse of CallKind.String
func ParseCallKind(s string) (CallKind, bool) {
	switch s {
	case "direct", "":
		return CallDirect, true
	case "generic":
		return CallGeneric, true
	case "dynamic":
		return CallDynamic, true
	case "external":
		return CallExternal, true
	}
	return CallDirect, false
}

// CallSite is one call instruction inside a collected function body.
// Dynamic call sites carry every candidate target.
type CallSite struct {
	Caller  ID
	Callees []ID
	Kind    CallKind
	Weight  int    // branch decisions between the function entry and the call
	Pos     string // file:line:col, empty when unknown
	Seq     int    // discovery order across the whole run
}

// Edge connects a caller to a callee in the built graph
type Edge struct {
	Caller       ID
	Callee       ID
	Weight       int
	Multiplicity int // number of call sites collapsed into this edge
	Kind         CallKind
	Pos          string // position of the witnessing call site
	Seq          int
}
