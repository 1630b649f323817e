package models

import (
	"github.com/Teslos/pycalphad/types"
)

// PureCompoundModel is the reference surface: the site-fraction
// weighted sum of the end-member Gibbs parameters, normalized by the
// number of mixing sites.
type PureCompoundModel struct {
	baseModel
}

func NewPureCompoundModel(phase string, sublset *types.SublatticeSet, pset *ParameterSet) *PureCompoundModel {
	return &PureCompoundModel{baseModel{
		phase:   phase,
		ast:     normalize(endmemberTree(phase, "G", sublset, pset), phase, sublset),
		symbols: pset.Symbols,
	}}
}

func (m *PureCompoundModel) CloneWithRenamedPhase(old, new string) EnergyModel {
	return &PureCompoundModel{m.cloneRenamed(old, new)}
}
