package ir

import (
	"go/types"
	"strings"

	"golang.org/x/tools/go/ssa"
)

// displayName renders fn the way reports show it:
//
//	example.com/shop.Sum[int]
//	example.com/shop.DataStore[example.com/shop.Electronics].TotalValue
//	example.com/shop.Sum[int]$1
//	(*example.com/shop.Cart).Total$wrapper
//	example.com/shop.Electronics.Price$bound
func displayName(fn *ssa.Function) string {
	if parent := fn.Parent(); parent != nil {
		return displayName(parent) + anonSuffix(fn.Name())
	}
	if recv := wrappedReceiver(fn); recv != nil {
		name := receiverName(recv) + "." + fn.Name()
		if strings.HasPrefix(fn.Synthetic, "wrapper for") {
			name += "$wrapper"
		}
		return name
	}

	base := fn
	if origin := fn.Origin(); origin != nil {
		base = origin
	}
	name := base.Name()

	if recv := fn.Signature.Recv(); recv != nil {
		name = types.TypeString(deref(recv.Type()), nil) + "." + name
	} else {
		if pkg := packagePath(fn); pkg != "" {
			name = pkg + "." + name
		}
		if args := fn.TypeArgs(); len(args) > 0 {
			name += "[" + typeList(args) + "]"
		}
	}

	return name
}

// wrappedReceiver returns the receiver type a synthetic method wrapper was
// made for, or nil when fn is not one. Bound method closures and method
// expression thunks carry no receiver in their signature.
func wrappedReceiver(fn *ssa.Function) types.Type {
	switch {
	case strings.HasPrefix(fn.Synthetic, "wrapper for"):
		if recv := fn.Signature.Recv(); recv != nil {
			return recv.Type()
		}
	case strings.HasPrefix(fn.Synthetic, "thunk for"):
		if params := fn.Signature.Params(); params.Len() > 0 {
			return params.At(0).Type()
		}
	case strings.HasPrefix(fn.Synthetic, "bound method wrapper for"):
		if obj, ok := fn.Object().(*types.Func); ok {
			if recv := obj.Signature().Recv(); recv != nil {
				return recv.Type()
			}
		}
	}
	return nil
}

// receiverName keeps pointer receivers visible, so the (*T).M and T.M
// wrappers of a promoted method stay apart.
func receiverName(t types.Type) string {
	if ptr, ok := types.Unalias(t).(*types.Pointer); ok {
		return "(*" + types.TypeString(ptr.Elem(), nil) + ")"
	}
	return types.TypeString(t, nil)
}

// receiverTypeArgs returns the type arguments of an instantiated receiver type
func receiverTypeArgs(t types.Type) []types.Type {
	named, ok := types.Unalias(deref(t)).(*types.Named)
	if !ok || named.TypeArgs().Len() == 0 {
		return nil
	}
	args := make([]types.Type, named.TypeArgs().Len())
	for i := range args {
		args[i] = named.TypeArgs().At(i)
	}
	return args
}

// anonSuffix returns the "$N" suffix of an anonymous function name
func anonSuffix(name string) string {
	i := strings.LastIndex(name, "$")
	if i < 0 {
		return "$" + name
	}
	suffix := name[i:]
	if j := strings.Index(suffix, "["); j >= 0 {
		suffix = suffix[:j]
	}
	return suffix
}

// typeArgs returns the type arguments that fn was instantiated with,
// inheriting those of the enclosing function for closures
func typeArgs(fn *ssa.Function) []string {
	for f := fn; f != nil; f = f.Parent() {
		args := f.TypeArgs()
		if len(args) == 0 {
			if recv := wrappedReceiver(f); recv != nil {
				args = receiverTypeArgs(recv)
			}
		}
		if len(args) > 0 {
			out := make([]string, len(args))
			for i, a := range args {
				out[i] = types.TypeString(a, nil)
			}
			return out
		}
	}
	return nil
}

// isAbstract reports whether fn still has unbound type parameters
func isAbstract(fn *ssa.Function) bool {
	if strings.HasPrefix(fn.Synthetic, "instantiation wrapper") {
		return true
	}
	for f := fn; f != nil; f = f.Parent() {
		if f.TypeParams().Len() > 0 && len(f.TypeArgs()) == 0 {
			return true
		}
	}
	return false
}

// packagePath finds the import path of the package declaring fn. Synthetic
// functions such as wrappers and instances have no Pkg of their own.
func packagePath(fn *ssa.Function) string {
	for f := fn; f != nil; {
		if f.Pkg != nil && f.Pkg.Pkg != nil {
			return f.Pkg.Pkg.Path()
		}
		if obj := f.Object(); obj != nil && obj.Pkg() != nil {
			return obj.Pkg().Path()
		}
		switch {
		case f.Origin() != nil && f.Origin() != f:
			f = f.Origin()
		default:
			f = f.Parent()
		}
	}
	return ""
}

func typeList(ts []types.Type) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = types.TypeString(t, nil)
	}
	return strings.Join(parts, ", ")
}

func deref(t types.Type) types.Type {
	if ptr, ok := types.Unalias(t).(*types.Pointer); ok {
		return ptr.Elem()
	}
	return t
}
