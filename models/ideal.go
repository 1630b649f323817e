package models

import (
	"github.com/Teslos/pycalphad/symexpr"
	"github.com/Teslos/pycalphad/types"
)

// IdealMixingModel is the configurational entropy term: per sublattice,
// multiplicity * R * T * sum(y*ln(y)) with the 0*ln(0) = 0 convention,
// normalized by the number of mixing sites.
type IdealMixingModel struct {
	baseModel
}

func NewIdealMixingModel(phase string, sublset *types.SublatticeSet) *IdealMixingModel {
	var sum symexpr.Expr
	for subl := 0; subl < sublset.NumSublattices(phase); subl++ {
		entries := sublset.Sublattice(phase, subl)
		if len(entries) < 2 {
			// A single-species sublattice carries no mixing entropy.
			continue
		}
		var inner symexpr.Expr
		for _, e := range entries {
			term := symexpr.XLogX(symexpr.Var(e.Name()))
			if inner == nil {
				inner = symexpr.Expr(term)
			} else {
				inner = symexpr.Add(inner, term)
			}
		}
		term := symexpr.Mul(symexpr.Num(entries[0].Stoichiometry*types.SIGasConstant),
			symexpr.Mul(symexpr.Var("T"), inner))
		if sum == nil {
			sum = term
		} else {
			sum = symexpr.Add(sum, term)
		}
	}
	if sum == nil {
		sum = symexpr.Num(0)
	}
	return &IdealMixingModel{baseModel{
		phase:   phase,
		ast:     normalize(sum, phase, sublset),
		symbols: make(symexpr.SymbolTable),
	}}
}

func (m *IdealMixingModel) CloneWithRenamedPhase(old, new string) EnergyModel {
	return &IdealMixingModel{m.cloneRenamed(old, new)}
}
