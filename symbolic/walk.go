package symbolic

import "sort"

// ============================================================
// Free Symbols
// ============================================================

func FreeSymbols(e Expr) map[string]struct{} {
	result := map[string]struct{}{}
	collectSymbols(e, result)
	return result
}

// SymbolNames returns the free symbols of e in sorted order.
func SymbolNames(e Expr) []string {
	return sortedKeys(FreeSymbols(e))
}

func collectSymbols(e Expr, out map[string]struct{}) {
	walk(e, func(n Expr) {
		if s, ok := n.(*Sym); ok {
			out[s.name] = struct{}{}
		}
	})
}

// NonSmooth returns the sorted names of non-differentiable functions
// (abs, sign, floor, ceil) applied anywhere in e.
func NonSmooth(e Expr) []string {
	found := map[string]struct{}{}
	walk(e, func(n Expr) {
		if f, ok := n.(*Func); ok && nonSmoothFuncs[f.name] {
			found[f.name] = struct{}{}
		}
	})
	return sortedKeys(found)
}

// Undefined returns the sorted names of functions outside the built-in set.
func Undefined(e Expr) []string {
	found := map[string]struct{}{}
	walk(e, func(n Expr) {
		if f, ok := n.(*Func); ok && !builtinFuncs[f.name] {
			found[f.name] = struct{}{}
		}
	})
	return sortedKeys(found)
}

func walk(e Expr, visit func(Expr)) {
	visit(e)
	switch v := e.(type) {
	case *Add:
		for _, t := range v.terms {
			walk(t, visit)
		}
	case *Mul:
		for _, f := range v.factors {
			walk(f, visit)
		}
	case *Pow:
		walk(v.base, visit)
		walk(v.exp, visit)
	case *Func:
		walk(v.arg, visit)
	}
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
