package models

import (
	"github.com/Teslos/pycalphad/symexpr"
	"github.com/Teslos/pycalphad/types"
)

// EnergyModel is one additive contribution to a phase's Gibbs energy,
// held as a symbolic tree over the phase's site fractions and the
// state variables.
type EnergyModel interface {
	AST() symexpr.Expr
	SymbolTable() symexpr.SymbolTable
	CloneWithRenamedPhase(old, new string) EnergyModel
}

type baseModel struct {
	phase   string
	ast     symexpr.Expr
	symbols symexpr.SymbolTable
}

func (m *baseModel) AST() symexpr.Expr                { return m.ast }
func (m *baseModel) SymbolTable() symexpr.SymbolTable { return m.symbols }

func (m *baseModel) cloneRenamed(old, new string) baseModel {
	name := m.phase
	if name == old {
		name = new
	}
	return baseModel{
		phase:   name,
		ast:     symexpr.RenamePhasePrefix(m.ast, old, new),
		symbols: symexpr.RenameSymbolTable(m.symbols, old, new),
	}
}

// normalize divides a model tree by the phase's total number of mixing
// sites so all contributions are per mole of sites.
func normalize(e symexpr.Expr, phase string, sublset *types.SublatticeSet) symexpr.Expr {
	total := sublset.TotalSites(phase)
	if total == 1 || symexpr.IsZeroTree(e) {
		return e
	}
	return symexpr.Div(e, symexpr.Num(total))
}

// endmemberTree sums, over every combination choosing one species per
// sublattice, the product of the chosen site fractions times the
// matching degree-0 parameter of the given type.
func endmemberTree(phase, ptype string, sublset *types.SublatticeSet, pset *ParameterSet) symexpr.Expr {
	var (
		nsubl = sublset.NumSublattices(phase)
		sum   symexpr.Expr
	)
	var recurse func(subl int, chosen []types.SublatticeEntry)
	recurse = func(subl int, chosen []types.SublatticeEntry) {
		if subl == nsubl {
			constituents := make([][]string, len(chosen))
			for i, e := range chosen {
				constituents[i] = []string{e.Species}
			}
			param, ok := pset.Find(phase, ptype, constituents, 0)
			if !ok {
				return
			}
			term := param
			for _, e := range chosen {
				term = symexpr.Mul(symexpr.Var(e.Name()), term)
			}
			if sum == nil {
				sum = term
			} else {
				sum = symexpr.Add(sum, term)
			}
			return
		}
		for _, e := range sublset.Sublattice(phase, subl) {
			recurse(subl+1, append(chosen, e))
		}
	}
	recurse(0, nil)
	if sum == nil {
		return symexpr.Num(0)
	}
	return sum
}

// interactionTree enumerates every interaction subset (unordered pair
// or triple) of species within a single sublattice, combined with one
// chosen species from every other sublattice, and sums the products of
// the involved site fractions with the matching parameters. Pair
// interactions expand as Redlich-Kister polynomials in the site
// fraction difference of the interacting pair.
func interactionTree(phase, ptype string, sublset *types.SublatticeSet, pset *ParameterSet) symexpr.Expr {
	var (
		nsubl = sublset.NumSublattices(phase)
		sum   symexpr.Expr
	)
	contribute := func(term symexpr.Expr) {
		if sum == nil {
			sum = term
		} else {
			sum = symexpr.Add(sum, term)
		}
	}
	// For each sublattice hosting the interaction, walk the species
	// choices of every other sublattice depth first.
	for host := 0; host < nsubl; host++ {
		species := sublset.Sublattice(phase, host)
		if len(species) < 2 {
			continue
		}
		var walk func(subl int, chosen []types.SublatticeEntry)
		walk = func(subl int, chosen []types.SublatticeEntry) {
			if subl == host {
				walk(subl+1, chosen)
				return
			}
			if subl >= nsubl {
				emitPairs(phase, ptype, host, species, chosen, pset, contribute)
				emitTriples(phase, ptype, host, species, chosen, pset, contribute)
				return
			}
			for _, e := range sublset.Sublattice(phase, subl) {
				walk(subl+1, append(chosen, e))
			}
		}
		walk(0, nil)
	}
	if sum == nil {
		return symexpr.Num(0)
	}
	return sum
}

// emitPairs contributes every binary interaction on the host
// sublattice for one fixed context of other-sublattice species.
func emitPairs(phase, ptype string, host int, species []types.SublatticeEntry, chosen []types.SublatticeEntry, pset *ParameterSet, contribute func(symexpr.Expr)) {
	for i := 0; i < len(species); i++ {
		for j := i + 1; j < len(species); j++ {
			constituents := interactionConstituents(host, chosen, []string{species[i].Species, species[j].Species})
			maxDeg, found := pset.MaxDegree(phase, ptype, constituents)
			if !found {
				continue
			}
			var rk symexpr.Expr
			diff := symexpr.Sub(symexpr.Var(species[i].Name()), symexpr.Var(species[j].Name()))
			for deg := 0; deg <= maxDeg; deg++ {
				param, ok := pset.Find(phase, ptype, constituents, deg)
				if !ok {
					continue
				}
				term := param
				if deg > 0 {
					term = symexpr.Mul(param, symexpr.Pow(diff, symexpr.Num(float64(deg))))
				}
				if rk == nil {
					rk = term
				} else {
					rk = symexpr.Add(rk, term)
				}
			}
			if rk == nil {
				continue
			}
			term := symexpr.Mul(symexpr.Var(species[i].Name()), symexpr.Mul(symexpr.Var(species[j].Name()), rk))
			for _, e := range chosen {
				term = symexpr.Mul(symexpr.Var(e.Name()), term)
			}
			contribute(term)
		}
	}
}

// emitTriples contributes symmetric ternary interactions.
func emitTriples(phase, ptype string, host int, species []types.SublatticeEntry, chosen []types.SublatticeEntry, pset *ParameterSet, contribute func(symexpr.Expr)) {
	for i := 0; i < len(species); i++ {
		for j := i + 1; j < len(species); j++ {
			for k := j + 1; k < len(species); k++ {
				constituents := interactionConstituents(host, chosen, []string{species[i].Species, species[j].Species, species[k].Species})
				param, ok := pset.Find(phase, ptype, constituents, 0)
				if !ok {
					continue
				}
				term := symexpr.Mul(symexpr.Var(species[i].Name()),
					symexpr.Mul(symexpr.Var(species[j].Name()),
						symexpr.Mul(symexpr.Var(species[k].Name()), param)))
				for _, e := range chosen {
					term = symexpr.Mul(symexpr.Var(e.Name()), term)
				}
				contribute(term)
			}
		}
	}
}

// interactionConstituents assembles the per-sublattice constituent
// array: the chosen single species on the context sublattices and the
// interacting set on the host.
func interactionConstituents(host int, chosen []types.SublatticeEntry, interacting []string) [][]string {
	n := len(chosen) + 1
	out := make([][]string, n)
	ci := 0
	for subl := 0; subl < n; subl++ {
		if subl == host {
			out[subl] = append([]string{}, interacting...)
			continue
		}
		out[subl] = []string{chosen[ci].Species}
		ci++
	}
	return out
}
