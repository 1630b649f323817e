package symexpr

import (
	"math"
)

// Simplify rewrites the tree with constant folding, the usual algebraic
// identities (x+0, x*1, x*0, x^1, ln(1), 0/x) and flattening of nested
// same-operator chains. The result is a new tree; the input is never
// mutated.
func Simplify(e Expr) Expr {
	switch n := e.(type) {
	case *Constant, *Variable, *SymbolRef:
		return e
	case *Binary:
		switch n.Op {
		case OpAdd, OpMul:
			return simplifyChain(n.Op, e)
		case OpSub:
			l, r := Simplify(n.Left), Simplify(n.Right)
			lc, lok := l.(*Constant)
			rc, rok := r.(*Constant)
			if lok && rok {
				return Num(lc.Value - rc.Value)
			}
			if rok && rc.Value == 0 {
				return l
			}
			if lok && lc.Value == 0 {
				return Simplify(Neg(r))
			}
			return Sub(l, r)
		case OpDiv:
			l, r := Simplify(n.Left), Simplify(n.Right)
			lc, lok := l.(*Constant)
			rc, rok := r.(*Constant)
			if lok && lc.Value == 0 {
				return Num(0)
			}
			if rok && rc.Value == 1 {
				return l
			}
			if lok && rok && rc.Value != 0 {
				return Num(lc.Value / rc.Value)
			}
			return Div(l, r)
		case OpPow:
			l, r := Simplify(n.Left), Simplify(n.Right)
			lc, lok := l.(*Constant)
			rc, rok := r.(*Constant)
			if rok && rc.Value == 1 {
				return l
			}
			if rok && rc.Value == 0 {
				return Num(1)
			}
			if lok && rok {
				v := math.Pow(lc.Value, rc.Value)
				if !math.IsNaN(v) && !math.IsInf(v, 0) {
					return Num(v)
				}
			}
			return Pow(l, r)
		}
	case *Unary:
		c := Simplify(n.Child)
		cc, ok := c.(*Constant)
		switch n.Op {
		case OpNeg:
			if ok {
				return Num(-cc.Value)
			}
		case OpLog:
			if ok && cc.Value == 1 {
				return Num(0)
			}
			if ok && cc.Value > 0 {
				return Num(math.Log(cc.Value))
			}
		case OpExp:
			if ok && cc.Value == 0 {
				return Num(1)
			}
		case OpXLogX:
			if ok && (cc.Value == 0 || cc.Value == 1) {
				return Num(0)
			}
		}
		return &Unary{Op: n.Op, Child: c}
	case *Piecewise:
		ranges := make([]Range, len(n.Ranges))
		for i, rng := range n.Ranges {
			ranges[i] = Range{Lo: rng.Lo, Hi: rng.Hi, Body: Simplify(rng.Body)}
		}
		return &Piecewise{Selector: Simplify(n.Selector), Ranges: ranges}
	}
	return e
}

// simplifyChain flattens nested chains of one commutative operator,
// folds the constant terms, drops identity elements and rebuilds a
// left-associated chain.
func simplifyChain(op BinaryOp, e Expr) Expr {
	var (
		terms    []Expr
		constant float64
	)
	if op == OpMul {
		constant = 1
	}
	var collect func(Expr)
	collect = func(sub Expr) {
		if b, ok := sub.(*Binary); ok && b.Op == op {
			collect(b.Left)
			collect(b.Right)
			return
		}
		s := Simplify(sub)
		if c, ok := s.(*Constant); ok {
			if op == OpAdd {
				constant += c.Value
			} else {
				constant *= c.Value
			}
			return
		}
		terms = append(terms, s)
	}
	collect(e)

	if op == OpMul && constant == 0 {
		return Num(0)
	}
	identity := 0.
	if op == OpMul {
		identity = 1
	}
	var out Expr
	for _, t := range terms {
		if out == nil {
			out = t
		} else {
			out = &Binary{Op: op, Left: out, Right: t}
		}
	}
	if out == nil {
		return Num(constant)
	}
	if constant != identity {
		out = &Binary{Op: op, Left: out, Right: Num(constant)}
	}
	return out
}

// IsZeroTree reports whether the tree simplifies to numeric zero.
func IsZeroTree(e Expr) bool {
	if e == nil {
		return true
	}
	c, ok := Simplify(e).(*Constant)
	return ok && c.Value == 0
}
