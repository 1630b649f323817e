package InputParameters

import (
	"testing"

	"github.com/Teslos/pycalphad/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
Title: Binary miscibility gap
CriticalEdgeLength: 0.05
InitialSubdivisionsPerAxis: 20
StateVariables:
  T: 918
  P: 101325
Elements: [A, B]
MoleFractions:
  B: 0.5
Phases:
  ALPHA:
    Status: entered
    Sublattices:
      - Stoichiometry: 1
        Species: [A, B]
    Endmembers:
      A: 0
      B: 0
    Interactions:
      - Constituents: ["A,B"]
        Degree: 0
        Value: 20000
`

func TestParse(t *testing.T) {
	ep := NewEquilibriumParameters()
	require.NoError(t, ep.Parse([]byte(sampleYAML)))
	assert.Equal(t, "Binary miscibility gap", ep.Title)
	assert.Equal(t, 0.05, ep.CriticalEdgeLength)
	assert.Equal(t, 20, ep.InitialSubdivisionsPerAxis)
	// Defaults survive fields absent from the file.
	assert.Equal(t, 2, ep.RefinementSubdivisionsPerAxis)
	assert.Equal(t, 5, ep.MaxSearchDepth)
	require.NotNil(t, ep.DiscardUnstable)
	assert.True(t, *ep.DiscardUnstable)
	assert.Equal(t, []string{"A", "B"}, ep.Elements)

	cond, err := ep.Conditions()
	require.NoError(t, err)
	assert.Equal(t, 918., cond.StateVars['T'])
	assert.Equal(t, types.PhaseEntered, cond.Phases["ALPHA"])
	assert.Equal(t, 0.5, cond.XFrac["B"])
}

func TestBuildSystem(t *testing.T) {
	ep := NewEquilibriumParameters()
	require.NoError(t, ep.Parse([]byte(sampleYAML)))
	sublset, phaseList, mainIndices, err := ep.BuildSystem()
	require.NoError(t, err)
	require.Contains(t, phaseList, "ALPHA")
	assert.Equal(t, []string{"ALPHA_0_A", "ALPHA_0_B"}, sublset.VariableNames("ALPHA"))
	assert.Contains(t, mainIndices, "ALPHA_FRAC")

	cond, err := ep.Conditions()
	require.NoError(t, err)
	// The regular-solution interaction is live in the objective.
	cmp := phaseList["ALPHA"]
	v, err := cmp.EvaluateObjective(cond, cmp.VariableMap(), []float64{0.5, 0.5})
	require.NoError(t, err)
	// 0.25*20000 plus the ideal mixing term at 918 K
	assert.InDelta(t, 5000+types.SIGasConstant*918*2*0.5*-0.6931471805599453, v, 1.e-6)
}

func TestConditionsErrors(t *testing.T) {
	ep := NewEquilibriumParameters()
	require.NoError(t, ep.Parse([]byte(sampleYAML)))
	ep.Phases["ALPHA"] = PhaseInput{Status: "bogus", Sublattices: ep.Phases["ALPHA"].Sublattices}
	_, err := ep.Conditions()
	assert.Error(t, err)
}
