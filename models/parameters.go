// Package models assembles per-phase Gibbs energy model trees: the
// pure-compound reference surface, ideal mixing, Redlich-Kister excess
// terms and the IHJ magnetic contribution. Each model produces one
// symexpr tree over the phase's site-fraction variables and the state
// variables.
package models

import (
	"sort"

	"github.com/Teslos/pycalphad/symexpr"
)

// Parameter is one entry of the per-phase Gibbs parameter table. Its
// constituent array names, per sublattice, either the single occupying
// species of an end-member or the interacting species subset (size 2
// or 3). Degree is the Redlich-Kister polynomial order.
type Parameter struct {
	Phase        string
	Type         string // "G", "L", "TC", "BMAGN"
	Constituents [][]string
	Degree       int
	AST          symexpr.Expr
}

// ParameterSet is the database-supplied parameter table for all
// phases, plus the named-symbol table the parameter trees reference.
type ParameterSet struct {
	Symbols symexpr.SymbolTable
	params  []Parameter
}

func NewParameterSet() *ParameterSet {
	return &ParameterSet{Symbols: make(symexpr.SymbolTable)}
}

func (ps *ParameterSet) Add(p Parameter) {
	for i := range p.Constituents {
		sort.Strings(p.Constituents[i])
	}
	ps.params = append(ps.params, p)
}

// AddConstant is the short form for a temperature-independent entry.
func (ps *ParameterSet) AddConstant(phase, ptype string, constituents [][]string, degree int, value float64) {
	ps.Add(Parameter{
		Phase:        phase,
		Type:         ptype,
		Constituents: constituents,
		Degree:       degree,
		AST:          symexpr.Num(value),
	})
}

// Find looks up the parameter tree matching (phase, type, constituent
// sets, degree); the bool reports whether any entry matched.
func (ps *ParameterSet) Find(phase, ptype string, constituents [][]string, degree int) (symexpr.Expr, bool) {
	key := make([][]string, len(constituents))
	for i, c := range constituents {
		key[i] = append([]string{}, c...)
		sort.Strings(key[i])
	}
	for _, p := range ps.params {
		if p.Phase != phase || p.Type != ptype || p.Degree != degree {
			continue
		}
		if constituentsEqual(p.Constituents, key) {
			return p.AST, true
		}
	}
	return nil, false
}

// MaxDegree returns the highest degree present for (phase, type, sets).
func (ps *ParameterSet) MaxDegree(phase, ptype string, constituents [][]string) (max int, found bool) {
	key := make([][]string, len(constituents))
	for i, c := range constituents {
		key[i] = append([]string{}, c...)
		sort.Strings(key[i])
	}
	for _, p := range ps.params {
		if p.Phase != phase || p.Type != ptype {
			continue
		}
		if constituentsEqual(p.Constituents, key) {
			found = true
			if p.Degree > max {
				max = p.Degree
			}
		}
	}
	return
}

func constituentsEqual(a, b [][]string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return false
		}
		for j := range a[i] {
			if a[i][j] != b[i][j] {
				return false
			}
		}
	}
	return true
}

// RenamePhase deep-copies the set under a renamed phase, for cloned
// composition sets.
func (ps *ParameterSet) RenamePhase(old, new string) *ParameterSet {
	out := &ParameterSet{Symbols: symexpr.RenameSymbolTable(ps.Symbols, old, new)}
	for _, p := range ps.params {
		q := p
		if p.Phase == old {
			q.Phase = new
		}
		q.Constituents = make([][]string, len(p.Constituents))
		for i, c := range p.Constituents {
			q.Constituents[i] = append([]string{}, c...)
		}
		q.AST = symexpr.RenamePhasePrefix(p.AST, old, new)
		out.params = append(out.params, q)
	}
	return out
}
