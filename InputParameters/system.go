package InputParameters

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Teslos/pycalphad/models"
	"github.com/Teslos/pycalphad/optimizer"
	"github.com/Teslos/pycalphad/types"
)

// BuildSystem materializes the phase definitions into the engine's
// inputs: the sublattice set, one composition set per phase, and the
// shared main variable index.
func (ep *EquilibriumParameters) BuildSystem() (*types.SublatticeSet, map[string]*optimizer.CompositionSet, map[string]int, error) {
	var (
		sublset    = &types.SublatticeSet{}
		pset       = models.NewParameterSet()
		phaseNames = make([]string, 0, len(ep.Phases))
	)
	for name := range ep.Phases {
		phaseNames = append(phaseNames, name)
	}
	sort.Strings(phaseNames)

	for _, name := range phaseNames {
		phase := ep.Phases[name]
		if len(phase.Sublattices) == 0 {
			return nil, nil, nil, fmt.Errorf("phase %s: no sublattices defined", name)
		}
		for i, subl := range phase.Sublattices {
			stoich := subl.Stoichiometry
			if stoich == 0 {
				stoich = 1
			}
			sublset.AddSublattice(name, i, stoich, subl.Species...)
		}
		for key, value := range phase.Endmembers {
			species := strings.Split(key, ":")
			if len(species) != len(phase.Sublattices) {
				return nil, nil, nil, fmt.Errorf("phase %s: endmember %q names %d sublattices, want %d", name, key, len(species), len(phase.Sublattices))
			}
			constituents := make([][]string, len(species))
			for i, sp := range species {
				constituents[i] = []string{strings.TrimSpace(sp)}
			}
			pset.AddConstant(name, "G", constituents, 0, value)
		}
		for _, inter := range phase.Interactions {
			if len(inter.Constituents) != len(phase.Sublattices) {
				return nil, nil, nil, fmt.Errorf("phase %s: interaction names %d sublattices, want %d", name, len(inter.Constituents), len(phase.Sublattices))
			}
			constituents := make([][]string, len(inter.Constituents))
			for i, joined := range inter.Constituents {
				for _, sp := range strings.Split(joined, ",") {
					constituents[i] = append(constituents[i], strings.TrimSpace(sp))
				}
			}
			pset.AddConstant(name, "L", constituents, inter.Degree, inter.Value)
		}
	}

	mainIndices := optimizer.BuildMainIndices(sublset, phaseNames)
	phaseList := make(map[string]*optimizer.CompositionSet, len(phaseNames))
	for _, name := range phaseNames {
		input := ep.Phases[name]
		cmp, err := optimizer.NewCompositionSet(types.Phase{
			Name:                name,
			MagneticAFMFactor:   input.MagneticAFMFactor,
			MagneticSROFraction: input.MagneticSROFraction,
		}, pset, sublset, mainIndices)
		if err != nil {
			return nil, nil, nil, err
		}
		phaseList[name] = cmp
	}
	return sublset, phaseList, mainIndices, nil
}
