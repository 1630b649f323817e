package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConditions(t *testing.T) {
	// Target point with an implicit element
	{
		cond := NewConditions()
		cond.Elements = []string{"A", "B"}
		cond.XFrac["B"] = 0.3
		p, err := cond.TargetPoint()
		assert.NoError(t, err)
		assert.InDeltaSlice(t, []float64{0.7, 1}, p, 1.e-14)
	}
	// Fully specified fractions must sum to 1
	{
		cond := NewConditions()
		cond.Elements = []string{"A", "B"}
		cond.XFrac["A"] = 0.5
		cond.XFrac["B"] = 0.6
		assert.Error(t, cond.Validate())
		cond.XFrac["B"] = 0.5
		assert.NoError(t, cond.Validate())
	}
	// Two implicit elements is an error
	{
		cond := NewConditions()
		cond.Elements = []string{"A", "B", "C"}
		cond.XFrac["A"] = 0.2
		_, err := cond.MoleFractionVector()
		assert.Error(t, err)
	}
	// Phase status parsing
	{
		ps, err := ParsePhaseStatus("entered")
		assert.NoError(t, err)
		assert.Equal(t, PhaseEntered, ps)
		_, err = ParsePhaseStatus("bogus")
		assert.Error(t, err)
	}
}

func TestSublatticeSet(t *testing.T) {
	var sublset SublatticeSet
	sublset.AddSublattice("GAMMA", 0, 1, "FE", "NI")
	sublset.AddSublattice("GAMMA", 1, 1, "C", "VA")

	// Variable naming and ordering
	{
		names := sublset.VariableNames("GAMMA")
		assert.Equal(t, []string{"GAMMA_0_FE", "GAMMA_0_NI", "GAMMA_1_C", "GAMMA_1_VA"}, names)
		assert.Equal(t, "GAMMA_FRAC", PhaseFractionVariable("GAMMA"))
	}
	// Dependent dimensions are the last species of each sublattice
	{
		assert.Equal(t, []int{1, 3}, sublset.DependentDimensions("GAMMA"))
		assert.Equal(t, 2, sublset.NumSublattices("GAMMA"))
		assert.Equal(t, 2., sublset.TotalSites("GAMMA"))
	}
	// Mole fractions exclude vacancies from the normalization
	{
		// y_FE=0.5, y_NI=0.5, y_C=0.25, y_VA=0.75
		x, err := sublset.MoleFractionsFromSiteFractions("GAMMA", []float64{0.5, 0.5, 0.25, 0.75}, []string{"C", "FE", "NI"})
		assert.NoError(t, err)
		// moles: FE=0.5, NI=0.5, C=0.25, total=1.25
		assert.InDeltaSlice(t, []float64{0.2, 0.4, 0.4}, x, 1.e-14)
	}
	// Rename for a second composition instance
	{
		var ss SublatticeSet
		ss.AddSublattice("LIQ", 0, 1, "A", "B")
		ss.RenamePhase("LIQ", "LIQ#2")
		assert.Equal(t, []string{"LIQ#2_0_A", "LIQ#2_0_B"}, ss.VariableNames("LIQ#2"))
	}
}
