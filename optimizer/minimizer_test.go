package optimizer

import (
	"math"
	"testing"

	"github.com/Teslos/pycalphad/models"
	"github.com/Teslos/pycalphad/types"
	"github.com/Teslos/pycalphad/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func benchParameterSet(phase string, omega float64) *models.ParameterSet {
	pset := models.NewParameterSet()
	pset.AddConstant(phase, "G", [][]string{{"A"}}, 0, 0)
	pset.AddConstant(phase, "G", [][]string{{"B"}}, 0, 0)
	if omega != 0 {
		pset.AddConstant(phase, "L", [][]string{{"A", "B"}}, 0, omega)
	}
	return pset
}

func twoSublatticeSet(t *testing.T, sublset *types.SublatticeSet) *CompositionSet {
	pset := models.NewParameterSet()
	pset.AddConstant("GAMMA", "G", [][]string{{"FE"}, {"C"}}, 0, -40000)
	pset.AddConstant("GAMMA", "G", [][]string{{"FE"}, {"VA"}}, 0, 0)
	pset.AddConstant("GAMMA", "G", [][]string{{"NI"}, {"C"}}, 0, -20000)
	pset.AddConstant("GAMMA", "G", [][]string{{"NI"}, {"VA"}}, 0, 4000)
	mainIndices := BuildMainIndices(sublset, []string{"GAMMA"})
	cmp, err := NewCompositionSet(types.Phase{Name: "GAMMA"}, pset, sublset, mainIndices)
	require.NoError(t, err)
	return cmp
}

// Binary A-B, single ideal phase at T=1000 K: the resolver returns a
// single point at x_B = 0.5 for a target of x_B = 0.5.
func TestBinarySinglePhaseIdeal(t *testing.T) {
	cmp, sublset, _ := regularBinary(t, "ALPHA", 0)
	cond := conditionsAt(1000)
	cond.Elements = []string{"A", "B"}
	cond.Phases["ALPHA"] = types.PhaseEntered
	cond.XFrac["B"] = 0.5

	gm := NewGlobalMinimizer()
	require.NoError(t, gm.Run(map[string]*CompositionSet{"ALPHA": cmp}, sublset, cond))

	tiePoints, err := gm.FindTiePoints(cond)
	require.NoError(t, err)
	require.Len(t, tiePoints, 1)
	assert.Equal(t, "ALPHA", tiePoints[0].PhaseName)
	assert.InDelta(t, 0.5, tiePoints[0].GlobalCoordinates[1], 1.e-9)
	assert.True(t, tiePoints[0].OnGlobalHull)
}

// Binary A-B with opposed end-member energies at T=300 K: the global
// hull is one tie line between nearly pure A in ALPHA and nearly pure
// B in BETA.
func TestBinaryTwoPhaseTieLine(t *testing.T) {
	sublset := &types.SublatticeSet{}
	sublset.AddSublattice("ALPHA", 0, 1, "A", "B")
	sublset.AddSublattice("BETA", 0, 1, "A", "B")
	pset := models.NewParameterSet()
	pset.AddConstant("ALPHA", "G", [][]string{{"A"}}, 0, 0)
	pset.AddConstant("ALPHA", "G", [][]string{{"B"}}, 0, 10000)
	pset.AddConstant("BETA", "G", [][]string{{"A"}}, 0, 10000)
	pset.AddConstant("BETA", "G", [][]string{{"B"}}, 0, 0)
	mainIndices := BuildMainIndices(sublset, []string{"ALPHA", "BETA"})
	alpha, err := NewCompositionSet(types.Phase{Name: "ALPHA"}, pset, sublset, mainIndices)
	require.NoError(t, err)
	beta, err := NewCompositionSet(types.Phase{Name: "BETA"}, pset, sublset, mainIndices)
	require.NoError(t, err)

	cond := conditionsAt(300)
	cond.Elements = []string{"A", "B"}
	cond.Phases["ALPHA"] = types.PhaseEntered
	cond.Phases["BETA"] = types.PhaseEntered
	cond.XFrac["B"] = 0.3

	gm := NewGlobalMinimizer()
	phaseList := map[string]*CompositionSet{"ALPHA": alpha, "BETA": beta}
	require.NoError(t, gm.Run(phaseList, sublset, cond))

	// Property: every kept facet is on the lower hull.
	for _, facet := range gm.Facets() {
		assert.LessOrEqual(t, facet.Normal[len(facet.Normal)-1], 0.)
	}

	tiePoints, err := gm.FindTiePoints(cond)
	require.NoError(t, err)
	require.Len(t, tiePoints, 2)
	byPhase := map[string]float64{}
	for _, tp := range tiePoints {
		byPhase[tp.PhaseName] = tp.GlobalCoordinates[1] // x_B
		assert.True(t, tp.OnGlobalHull)
	}
	require.Contains(t, byPhase, "ALPHA")
	require.Contains(t, byPhase, "BETA")
	assert.Less(t, byPhase["ALPHA"], 0.05)
	assert.Greater(t, byPhase["BETA"], 0.95)
}

// Binary miscibility gap (symmetric regular solution): the resolver
// returns two tie points of the same phase at symmetric compositions.
func TestBinaryMiscibilityGap(t *testing.T) {
	cmp, sublset, _ := regularBinary(t, "ALPHA", 20000)
	cond := conditionsAt(918)
	cond.Elements = []string{"A", "B"}
	cond.Phases["ALPHA"] = types.PhaseEntered
	cond.XFrac["B"] = 0.5

	gm := NewGlobalMinimizer()
	require.NoError(t, gm.Run(map[string]*CompositionSet{"ALPHA": cmp}, sublset, cond))

	tiePoints, err := gm.FindTiePoints(cond)
	require.NoError(t, err)
	require.Len(t, tiePoints, 2)
	assert.Equal(t, "ALPHA", tiePoints[0].PhaseName)
	assert.Equal(t, "ALPHA", tiePoints[1].PhaseName)
	var (
		x1 = tiePoints[0].GlobalCoordinates[1]
		x2 = tiePoints[1].GlobalCoordinates[1]
	)
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	// Symmetric gap endpoints on either side of the target.
	assert.InDelta(t, x1, 1-x2, 0.02)
	assert.Greater(t, x1, 0.05)
	assert.Less(t, x1, 0.25)
	// Property: deduplication leaves no same-phase pair closer than
	// the critical edge length.
	distance := utils.EuclideanDistance(tiePoints[0].InternalCoordinates, tiePoints[1].InternalCoordinates)
	assert.Greater(t, distance, gm.CriticalEdgeLength)
}

// Ternary A-B-C, single ideal phase: target at the centroid resolves
// to the centroid itself.
func TestTernaryIdealCentroid(t *testing.T) {
	sublset := &types.SublatticeSet{}
	sublset.AddSublattice("LIQ", 0, 1, "A", "B", "C")
	pset := models.NewParameterSet()
	for _, sp := range []string{"A", "B", "C"} {
		pset.AddConstant("LIQ", "G", [][]string{{sp}}, 0, 0)
	}
	mainIndices := BuildMainIndices(sublset, []string{"LIQ"})
	cmp, err := NewCompositionSet(types.Phase{Name: "LIQ"}, pset, sublset, mainIndices)
	require.NoError(t, err)

	cond := conditionsAt(1000)
	cond.Elements = []string{"A", "B", "C"}
	cond.Phases["LIQ"] = types.PhaseEntered
	cond.XFrac["A"] = 1. / 3
	cond.XFrac["B"] = 1. / 3
	cond.XFrac["C"] = 1 - 2./3

	gm := NewGlobalMinimizer()
	// 21 subdivisions so the lattice contains the centroid exactly.
	gm.InitialSubdivisionsPerAxis = 21
	require.NoError(t, gm.Run(map[string]*CompositionSet{"LIQ": cmp}, sublset, cond))

	tiePoints, err := gm.FindTiePoints(cond)
	require.NoError(t, err)
	require.Len(t, tiePoints, 1)
	for _, coord := range tiePoints[0].GlobalCoordinates {
		assert.InDelta(t, 1./3, coord, 1.e-6)
	}
}

// Property: the enclosing facet's barycentric coordinates are
// non-negative and sum to one.
func TestFacetEnclosure(t *testing.T) {
	sublset := &types.SublatticeSet{}
	sublset.AddSublattice("ALPHA", 0, 1, "A", "B")
	sublset.AddSublattice("BETA", 0, 1, "A", "B")
	pset := models.NewParameterSet()
	pset.AddConstant("ALPHA", "G", [][]string{{"A"}}, 0, 0)
	pset.AddConstant("ALPHA", "G", [][]string{{"B"}}, 0, 10000)
	pset.AddConstant("BETA", "G", [][]string{{"A"}}, 0, 10000)
	pset.AddConstant("BETA", "G", [][]string{{"B"}}, 0, 0)
	mainIndices := BuildMainIndices(sublset, []string{"ALPHA", "BETA"})
	alpha, err := NewCompositionSet(types.Phase{Name: "ALPHA"}, pset, sublset, mainIndices)
	require.NoError(t, err)
	beta, err := NewCompositionSet(types.Phase{Name: "BETA"}, pset, sublset, mainIndices)
	require.NoError(t, err)

	cond := conditionsAt(300)
	cond.Elements = []string{"A", "B"}
	cond.Phases["ALPHA"] = types.PhaseEntered
	cond.Phases["BETA"] = types.PhaseEntered
	cond.XFrac["B"] = 0.4

	gm := NewGlobalMinimizer()
	require.NoError(t, gm.Run(map[string]*CompositionSet{"ALPHA": alpha, "BETA": beta}, sublset, cond))
	tiePoints, err := gm.FindTiePoints(cond)
	require.NoError(t, err)
	require.NotEmpty(t, tiePoints)

	trial, err := cond.TargetPoint()
	require.NoError(t, err)
	var found bool
	for _, facet := range gm.Facets() {
		if facet.BasisMatrix == nil {
			continue
		}
		if _, nc := facet.BasisMatrix.Dims(); nc != len(trial) {
			continue
		}
		bary := facet.BasisMatrix.MulVec(trial)
		inside := true
		sum := 0.
		for _, coord := range bary {
			if coord < 0 {
				inside = false
			}
			sum += coord
		}
		if inside {
			found = true
			assert.InDelta(t, 1., sum, 1.e-10)
		}
	}
	assert.True(t, found)
}

// A target outside every facet returns an empty tie-point list.
func TestNoEnclosingFacet(t *testing.T) {
	cmp, sublset, _ := regularBinary(t, "ALPHA", 20000)
	cond := conditionsAt(918)
	cond.Elements = []string{"A", "B"}
	cond.Phases["ALPHA"] = types.PhaseEntered
	cond.XFrac["B"] = 0.5

	gm := NewGlobalMinimizer()
	require.NoError(t, gm.Run(map[string]*CompositionSet{"ALPHA": cmp}, sublset, cond))

	outside := conditionsAt(918)
	outside.Elements = []string{"A", "B"}
	outside.XFrac["B"] = 0.01 // outside the gap's tie line
	tiePoints, err := gm.FindTiePoints(outside)
	require.NoError(t, err)
	assert.Empty(t, tiePoints)
}

// Suspended phases are excluded from the minimization.
func TestSuspendedPhase(t *testing.T) {
	sublset := &types.SublatticeSet{}
	sublset.AddSublattice("ALPHA", 0, 1, "A", "B")
	sublset.AddSublattice("BETA", 0, 1, "A", "B")
	pset := models.NewParameterSet()
	pset.AddConstant("ALPHA", "G", [][]string{{"A"}}, 0, 0)
	pset.AddConstant("ALPHA", "G", [][]string{{"B"}}, 0, 0)
	pset.AddConstant("BETA", "G", [][]string{{"A"}}, 0, -50000)
	pset.AddConstant("BETA", "G", [][]string{{"B"}}, 0, -50000)
	mainIndices := BuildMainIndices(sublset, []string{"ALPHA", "BETA"})
	alpha, err := NewCompositionSet(types.Phase{Name: "ALPHA"}, pset, sublset, mainIndices)
	require.NoError(t, err)
	beta, err := NewCompositionSet(types.Phase{Name: "BETA"}, pset, sublset, mainIndices)
	require.NoError(t, err)

	cond := conditionsAt(1000)
	cond.Elements = []string{"A", "B"}
	cond.Phases["ALPHA"] = types.PhaseEntered
	cond.Phases["BETA"] = types.PhaseSuspended
	cond.XFrac["B"] = 0.5

	gm := NewGlobalMinimizer()
	require.NoError(t, gm.Run(map[string]*CompositionSet{"ALPHA": alpha, "BETA": beta}, sublset, cond))
	tiePoints, err := gm.FindTiePoints(cond)
	require.NoError(t, err)
	require.Len(t, tiePoints, 1)
	assert.Equal(t, "ALPHA", tiePoints[0].PhaseName)
}

// Hull entries report consistent phase, coordinates and energy.
func TestHullEntries(t *testing.T) {
	cmp, sublset, _ := regularBinary(t, "ALPHA", 0)
	cond := conditionsAt(1000)
	cond.Elements = []string{"A", "B"}
	cond.Phases["ALPHA"] = types.PhaseEntered
	cond.XFrac["B"] = 0.5

	gm := NewGlobalMinimizer()
	require.NoError(t, gm.Run(map[string]*CompositionSet{"ALPHA": cmp}, sublset, cond))
	entries := gm.HullEntries()
	require.NotEmpty(t, entries)
	for i, entry := range entries {
		assert.Equal(t, i, entry.ID)
		assert.Equal(t, "ALPHA", entry.PhaseName)
		assert.Len(t, entry.InternalCoordinates, 2)
		assert.Len(t, entry.GlobalCoordinates, 2)
		want := types.SIGasConstant * 1000 *
			(math.Log(0.5)) // ideal mixing at the equimolar point
		if entry.InternalCoordinates[0] == 0.5 {
			assert.InDelta(t, want, entry.Energy, 1.e-9)
		}
	}
}
