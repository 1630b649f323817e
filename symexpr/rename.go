package symexpr

import (
	"strings"
)

// RenamePhasePrefix rebuilds the tree with every Variable and SymbolRef
// whose name starts with old's variable prefix renamed to the new
// phase. Renaming walks the tree node by node; no string substitution
// happens inside evaluation.
func RenamePhasePrefix(e Expr, old, new string) Expr {
	if e == nil {
		return nil
	}
	prefix := old + "_"
	switch n := e.(type) {
	case *Constant:
		return n
	case *Variable:
		if strings.HasPrefix(n.Name, prefix) {
			return Var(new + "_" + strings.TrimPrefix(n.Name, prefix))
		}
		return n
	case *SymbolRef:
		if strings.HasPrefix(n.Name, prefix) {
			return Sym(new + "_" + strings.TrimPrefix(n.Name, prefix))
		}
		return n
	case *Binary:
		return &Binary{
			Op:    n.Op,
			Left:  RenamePhasePrefix(n.Left, old, new),
			Right: RenamePhasePrefix(n.Right, old, new),
		}
	case *Unary:
		return &Unary{Op: n.Op, Child: RenamePhasePrefix(n.Child, old, new)}
	case *Piecewise:
		ranges := make([]Range, len(n.Ranges))
		for i, rng := range n.Ranges {
			ranges[i] = Range{Lo: rng.Lo, Hi: rng.Hi, Body: RenamePhasePrefix(rng.Body, old, new)}
		}
		return &Piecewise{Selector: RenamePhasePrefix(n.Selector, old, new), Ranges: ranges}
	}
	return e
}

// RenameSymbolTable deep-copies a symbol table with RenamePhasePrefix
// applied to both keys and defining trees.
func RenameSymbolTable(symbols SymbolTable, old, new string) SymbolTable {
	out := make(SymbolTable, len(symbols))
	prefix := old + "_"
	for name, def := range symbols {
		key := name
		if strings.HasPrefix(name, prefix) {
			key = new + "_" + strings.TrimPrefix(name, prefix)
		}
		out[key] = RenamePhasePrefix(def, old, new)
	}
	return out
}
