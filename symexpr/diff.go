package symexpr

// Differentiate produces the derivative tree with respect to the named
// variable. Symbol references are expanded through the table before
// differentiation; a cyclic table is fatal.
func Differentiate(e Expr, wrt string, symbols SymbolTable) (Expr, error) {
	return diff(e, wrt, symbols, nil)
}

func diff(e Expr, wrt string, symbols SymbolTable, active []string) (Expr, error) {
	switch n := e.(type) {
	case *Constant:
		return Num(0), nil
	case *Variable:
		if n.Name == wrt {
			return Num(1), nil
		}
		return Num(0), nil
	case *SymbolRef:
		for i, name := range active {
			if name == n.Name {
				return nil, &SymbolCycleError{Chain: append(append([]string{}, active[i:]...), n.Name)}
			}
		}
		def, ok := symbols[n.Name]
		if !ok {
			return nil, &UnknownSymbolError{Name: n.Name}
		}
		return diff(def, wrt, symbols, append(active, n.Name))
	case *Binary:
		dl, err := diff(n.Left, wrt, symbols, active)
		if err != nil {
			return nil, err
		}
		dr, err := diff(n.Right, wrt, symbols, active)
		if err != nil {
			return nil, err
		}
		switch n.Op {
		case OpAdd:
			return Add(dl, dr), nil
		case OpSub:
			return Sub(dl, dr), nil
		case OpMul:
			return Add(Mul(dl, n.Right), Mul(n.Left, dr)), nil
		case OpDiv:
			// (u/v)' = (u'v - uv') / v^2
			return Div(Sub(Mul(dl, n.Right), Mul(n.Left, dr)), Mul(n.Right, n.Right)), nil
		case OpPow:
			if c, ok := n.Right.(*Constant); ok {
				// (u^c)' = c*u^(c-1)*u'
				return Mul(Mul(Num(c.Value), Pow(n.Left, Num(c.Value-1))), dl), nil
			}
			// (u^v)' = u^v * (v'*ln(u) + v*u'/u)
			return Mul(Pow(n.Left, n.Right),
				Add(Mul(dr, Log(n.Left)), Mul(n.Right, Div(dl, n.Left)))), nil
		}
	case *Unary:
		dc, err := diff(n.Child, wrt, symbols, active)
		if err != nil {
			return nil, err
		}
		switch n.Op {
		case OpNeg:
			return Neg(dc), nil
		case OpLog:
			return Div(dc, n.Child), nil
		case OpExp:
			return Mul(Exp(n.Child), dc), nil
		case OpXLogX:
			// (x ln x)' = (ln x + 1) x'
			return Mul(Add(Log(n.Child), Num(1)), dc), nil
		}
	case *Piecewise:
		// Differentiate arm bodies; the selector partition is kept.
		ranges := make([]Range, len(n.Ranges))
		for i, rng := range n.Ranges {
			db, err := diff(rng.Body, wrt, symbols, active)
			if err != nil {
				return nil, err
			}
			ranges[i] = Range{Lo: rng.Lo, Hi: rng.Hi, Body: db}
		}
		return &Piecewise{Selector: n.Selector, Ranges: ranges}, nil
	}
	return nil, &DomainError{Op: "invalid node"}
}
