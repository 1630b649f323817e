package symexpr

import (
	"math"

	"github.com/Teslos/pycalphad/types"
)

// Evaluate folds the tree at the point x. Variable nodes resolve
// single-character names from the conditions record and all others
// through the name-to-index map into x; symbol references resolve
// through the symbol table and are evaluated with the same bindings.
// Evaluation never substitutes defaults: a missing binding or a domain
// error surfaces to the caller.
func Evaluate(e Expr, cond types.Conditions, indices map[string]int, symbols SymbolTable, x []float64) (float64, error) {
	return eval(e, cond, indices, symbols, x, nil)
}

func eval(e Expr, cond types.Conditions, indices map[string]int, symbols SymbolTable, x []float64, active []string) (float64, error) {
	switch n := e.(type) {
	case *Constant:
		return n.Value, nil
	case *Variable:
		if len(n.Name) == 1 {
			if val, ok := cond.StateVars[n.Name[0]]; ok {
				return val, nil
			}
		}
		idx, ok := indices[n.Name]
		if !ok {
			return 0, &MissingBindingError{Name: n.Name}
		}
		return x[idx], nil
	case *SymbolRef:
		for i, name := range active {
			if name == n.Name {
				return 0, &SymbolCycleError{Chain: append(append([]string{}, active[i:]...), n.Name)}
			}
		}
		def, ok := symbols[n.Name]
		if !ok {
			return 0, &UnknownSymbolError{Name: n.Name}
		}
		return eval(def, cond, indices, symbols, x, append(active, n.Name))
	case *Binary:
		l, err := eval(n.Left, cond, indices, symbols, x, active)
		if err != nil {
			return 0, err
		}
		r, err := eval(n.Right, cond, indices, symbols, x, active)
		if err != nil {
			return 0, err
		}
		var v float64
		switch n.Op {
		case OpAdd:
			v = l + r
		case OpSub:
			v = l - r
		case OpMul:
			v = l * r
		case OpDiv:
			if r == 0 {
				return 0, &DomainError{Op: "division by zero, numerator", Operand: l}
			}
			v = l / r
		case OpPow:
			v = math.Pow(l, r)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, &DomainError{Op: n.Op.String(), Operand: l}
		}
		return v, nil
	case *Unary:
		c, err := eval(n.Child, cond, indices, symbols, x, active)
		if err != nil {
			return 0, err
		}
		switch n.Op {
		case OpNeg:
			return -c, nil
		case OpLog:
			if c <= 0 {
				return 0, &DomainError{Op: "ln", Operand: c}
			}
			return math.Log(c), nil
		case OpExp:
			v := math.Exp(c)
			if math.IsInf(v, 0) {
				return 0, &DomainError{Op: "exp", Operand: c}
			}
			return v, nil
		case OpXLogX:
			if c < 0 {
				return 0, &DomainError{Op: "xlnx", Operand: c}
			}
			if c == 0 {
				return 0, nil
			}
			return c * math.Log(c), nil
		}
	case *Piecewise:
		sel, err := eval(n.Selector, cond, indices, symbols, x, active)
		if err != nil {
			return 0, err
		}
		for _, rng := range n.Ranges {
			if sel >= rng.Lo && sel < rng.Hi {
				return eval(rng.Body, cond, indices, symbols, x, active)
			}
		}
		return 0, nil
	}
	return 0, &DomainError{Op: "invalid node"}
}
