package models

import (
	"github.com/Teslos/pycalphad/types"
)

// RedlichKisterModel is the excess Gibbs energy: binary interactions
// expanded as Redlich-Kister polynomials in the interacting pair's
// site-fraction difference, plus symmetric ternary terms, normalized
// by the number of mixing sites.
type RedlichKisterModel struct {
	baseModel
}

func NewRedlichKisterModel(phase string, sublset *types.SublatticeSet, pset *ParameterSet) *RedlichKisterModel {
	return &RedlichKisterModel{baseModel{
		phase:   phase,
		ast:     normalize(interactionTree(phase, "L", sublset, pset), phase, sublset),
		symbols: pset.Symbols,
	}}
}

func (m *RedlichKisterModel) CloneWithRenamedPhase(old, new string) EnergyModel {
	return &RedlichKisterModel{m.cloneRenamed(old, new)}
}
