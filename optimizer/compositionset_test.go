package optimizer

import (
	"math"
	"testing"

	"github.com/Teslos/pycalphad/models"
	"github.com/Teslos/pycalphad/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// regularBinary builds a one-sublattice (A,B) phase with a symmetric
// regular-solution interaction.
func regularBinary(t *testing.T, phase string, omega float64) (*CompositionSet, *types.SublatticeSet, map[string]int) {
	sublset := &types.SublatticeSet{}
	sublset.AddSublattice(phase, 0, 1, "A", "B")
	pset := models.NewParameterSet()
	pset.AddConstant(phase, "G", [][]string{{"A"}}, 0, 0)
	pset.AddConstant(phase, "G", [][]string{{"B"}}, 0, 0)
	if omega != 0 {
		pset.AddConstant(phase, "L", [][]string{{"A", "B"}}, 0, omega)
	}
	mainIndices := BuildMainIndices(sublset, []string{phase})
	cmp, err := NewCompositionSet(types.Phase{Name: phase}, pset, sublset, mainIndices)
	require.NoError(t, err)
	return cmp, sublset, mainIndices
}

func conditionsAt(temperature float64) types.Conditions {
	cond := types.NewConditions()
	cond.StateVars['T'] = temperature
	cond.StateVars['P'] = 101325
	return cond
}

func TestCompositionSetObjective(t *testing.T) {
	cmp, _, _ := regularBinary(t, "ALPHA", 20000)
	cond := conditionsAt(1000)
	var (
		yA, yB = 0.25, 0.75
		ideal  = types.SIGasConstant * 1000 * (yA*math.Log(yA) + yB*math.Log(yB))
		excess = yA * yB * 20000
	)
	v, err := cmp.EvaluateObjective(cond, cmp.VariableMap(), []float64{yA, yB})
	assert.NoError(t, err)
	assert.InDelta(t, ideal+excess, v, 1.e-9)
}

// Property: the symbolic gradient matches a finite difference of the
// objective at randomly chosen feasible points.
func TestGradientFiniteDifferenceRoundTrip(t *testing.T) {
	cmp, _, mainIndices := regularBinary(t, "ALPHA", 13000)
	cond := conditionsAt(800)

	// Deterministic "random" feasible sample.
	samples := []float64{0.11, 0.23, 0.42, 0.57, 0.68, 0.86}
	for _, yA := range samples {
		var (
			x = make([]float64, len(mainIndices))
		)
		x[mainIndices["ALPHA_0_A"]] = yA
		x[mainIndices["ALPHA_0_B"]] = 1 - yA
		x[mainIndices["ALPHA_FRAC"]] = 1
		grad, err := cmp.EvaluateObjectiveGradient(cond, mainIndices, x)
		require.NoError(t, err)

		f, err := cmp.EvaluateObjective(cond, mainIndices, x)
		require.NoError(t, err)
		const h = 1.e-7
		for _, name := range []string{"ALPHA_0_A", "ALPHA_0_B"} {
			idx := mainIndices[name]
			xp := append([]float64{}, x...)
			xp[idx] = x[idx] + h
			up, err := cmp.EvaluateObjective(cond, mainIndices, xp)
			require.NoError(t, err)
			xp[idx] = x[idx] - h
			down, err := cmp.EvaluateObjective(cond, mainIndices, xp)
			require.NoError(t, err)
			fd := (up - down) / (2 * h)
			assert.InDelta(t, fd, grad[idx], 1.e-5*(1+math.Abs(f)))
		}
		// The derivative w.r.t. the phase fraction is the raw energy.
		assert.InDelta(t, f, grad[mainIndices["ALPHA_FRAC"]], 1.e-9)
	}
}

func TestSinglePhaseGradientAndInternalReference(t *testing.T) {
	cmp, _, _ := regularBinary(t, "ALPHA", 9000)
	cond := conditionsAt(600)
	x := []float64{0.3, 0.7}
	grad, err := cmp.EvaluateSinglePhaseObjectiveGradient(cond, cmp.VariableMap(), x)
	require.NoError(t, err)
	ref, err := cmp.EvaluateInternalObjectiveGradient(cond, x)
	require.NoError(t, err)
	for i := range ref {
		assert.InDelta(t, ref[i], grad[i], 1.e-4)
	}
}

func TestObjectiveHessian(t *testing.T) {
	cmp, _, mainIndices := regularBinary(t, "ALPHA", 20000)
	cond := conditionsAt(1000)
	var (
		x = make([]float64, len(mainIndices))
	)
	x[mainIndices["ALPHA_0_A"]] = 0.4
	x[mainIndices["ALPHA_0_B"]] = 0.6
	x[mainIndices["ALPHA_FRAC"]] = 1

	hess, err := cmp.EvaluateObjectiveHessian(cond, mainIndices, x)
	require.NoError(t, err)
	var (
		iA = mainIndices["ALPHA_0_A"]
		iB = mainIndices["ALPHA_0_B"]
	)
	keyAA := [2]int{iA, iA}
	keyAB := [2]int{iA, iB}
	if iA > iB {
		keyAB = [2]int{iB, iA}
	}
	// d2G/dyA2 = R*T/yA, d2G/dyAdyB = omega
	assert.InDelta(t, types.SIGasConstant*1000/0.4, hess[keyAA], 1.e-6)
	assert.InDelta(t, 20000., hess[keyAB], 1.e-6)

	// The sparsity structure covers exactly the cached entries.
	pattern := cmp.HessianSparsityStructure(mainIndices)
	assert.True(t, pattern[keyAA])
	assert.True(t, pattern[keyAB])

	// Single-phase matrix form agrees on the site-fraction block.
	H, err := cmp.EvaluateObjectiveHessianMatrix(cond, []float64{0.4, 0.6})
	require.NoError(t, err)
	local := cmp.VariableMap()
	assert.InDelta(t, types.SIGasConstant*1000/0.4, H.At(local["ALPHA_0_A"], local["ALPHA_0_A"]), 1.e-6)
	assert.InDelta(t, 20000., H.At(local["ALPHA_0_A"], local["ALPHA_0_B"]), 1.e-6)
	assert.InDelta(t, 20000., H.At(local["ALPHA_0_B"], local["ALPHA_0_A"]), 1.e-6)
}

// Property: A*Z vanishes and Z's columns are orthonormal.
func TestConstraintNullSpace(t *testing.T) {
	sublset := &types.SublatticeSet{}
	sublset.AddSublattice("GAMMA", 0, 1, "FE", "NI")
	sublset.AddSublattice("GAMMA", 1, 1, "C", "VA")
	pset := models.NewParameterSet()
	pset.AddConstant("GAMMA", "G", [][]string{{"FE"}, {"C"}}, 0, -1000)
	pset.AddConstant("GAMMA", "G", [][]string{{"FE"}, {"VA"}}, 0, 0)
	pset.AddConstant("GAMMA", "G", [][]string{{"NI"}, {"C"}}, 0, -500)
	pset.AddConstant("GAMMA", "G", [][]string{{"NI"}, {"VA"}}, 0, 100)
	mainIndices := BuildMainIndices(sublset, []string{"GAMMA"})
	cmp, err := NewCompositionSet(types.Phase{Name: "GAMMA"}, pset, sublset, mainIndices)
	require.NoError(t, err)

	var (
		A, b = cmp.ConstraintMatrix()
		Z    = cmp.ConstraintNullSpace()
	)
	assert.Equal(t, []float64{1, 1}, b)
	AZ := A.Mul(Z)
	nr, nc := AZ.Dims()
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			assert.InDelta(t, 0., AZ.At(i, j), 1.e-10)
		}
	}
	// Orthonormal columns
	ZtZ := Z.Transpose().Mul(Z)
	zr, _ := ZtZ.Dims()
	for i := 0; i < zr; i++ {
		for j := 0; j < zr; j++ {
			want := 0.
			if i == j {
				want = 1
			}
			assert.InDelta(t, want, ZtZ.At(i, j), 1.e-10)
		}
	}
	// The projector is Z*Z^T.
	P := cmp.GradientProjector()
	ZZt := Z.Mul(Z.Transpose())
	pr, pc := P.Dims()
	for i := 0; i < pr; i++ {
		for j := 0; j < pc; j++ {
			assert.InDelta(t, ZZt.At(i, j), P.At(i, j), 1.e-12)
		}
	}
	// Constraint Jacobian entries are the unit sublattice sums.
	rows, cols, trees := cmp.ConstraintJacobian()
	assert.Equal(t, len(rows), len(cols))
	assert.Equal(t, len(rows), len(trees))
	assert.Len(t, rows, 4)
}

// Property: a renamed clone reproduces objective and gradient at the
// corresponding points.
func TestCloneEquivalence(t *testing.T) {
	cmp, _, _ := regularBinary(t, "ALPHA", 17500)
	cond := conditionsAt(750)
	clone := cmp.CloneWithNewName("ALPHA#2", map[string]float64{"ALPHA#2_0_A": 0.9})

	assert.Equal(t, "ALPHA#2", clone.Name())
	assert.Equal(t, 0.9, clone.StartingPoint()["ALPHA#2_0_A"])

	x := []float64{0.37, 0.63}
	orig, err := cmp.EvaluateObjective(cond, cmp.VariableMap(), x)
	require.NoError(t, err)
	cloned, err := clone.EvaluateObjective(cond, clone.VariableMap(), x)
	require.NoError(t, err)
	assert.InDelta(t, orig, cloned, 1.e-12)

	gradOrig, err := cmp.EvaluateSinglePhaseObjectiveGradient(cond, cmp.VariableMap(), x)
	require.NoError(t, err)
	gradClone, err := clone.EvaluateSinglePhaseObjectiveGradient(cond, clone.VariableMap(), x)
	require.NoError(t, err)
	for idx, v := range gradOrig {
		assert.InDelta(t, v, gradClone[idx], 1.e-12)
	}
	// The clone's variable names carry the new phase prefix.
	assert.Contains(t, clone.VariableMap(), "ALPHA#2_0_A")
	assert.NotContains(t, clone.VariableMap(), "ALPHA_0_A")
	// The original is untouched.
	assert.Contains(t, cmp.VariableMap(), "ALPHA_0_A")
}
