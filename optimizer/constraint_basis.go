package optimizer

import (
	"fmt"

	"github.com/Teslos/pycalphad/symexpr"
	"github.com/Teslos/pycalphad/types"
	"github.com/Teslos/pycalphad/utils"
	"gonum.org/v1/gonum/mat"
)

type ConstraintKind uint8

const (
	SublatticeBalance ConstraintKind = iota
	ChargeBalance                    // reserved
)

// Constraint is one linear equality on the phase's variables, kept in
// symbolic form for the outer optimizer's Jacobian.
type Constraint struct {
	Kind            ConstraintKind
	Phase           string
	SublatticeIndex int
	LHS, RHS        symexpr.Expr
}

// NewSublatticeBalanceConstraint builds the sum-to-one constraint over
// one sublattice's site fractions.
func NewSublatticeBalanceConstraint(phase string, sublIndex int, entries []types.SublatticeEntry) Constraint {
	var lhs symexpr.Expr
	for _, e := range entries {
		if lhs == nil {
			lhs = symexpr.Var(e.Name())
		} else {
			lhs = symexpr.Add(lhs, symexpr.Var(e.Name()))
		}
	}
	return Constraint{
		Kind:            SublatticeBalance,
		Phase:           phase,
		SublatticeIndex: sublIndex,
		LHS:             lhs,
		RHS:             symexpr.Num(1),
	}
}

func (c Constraint) RenamePhase(old, new string) Constraint {
	out := c
	if c.Phase == old {
		out.Phase = new
	}
	out.LHS = symexpr.RenamePhasePrefix(c.LHS, old, new)
	out.RHS = symexpr.RenamePhasePrefix(c.RHS, old, new)
	return out
}

// buildConstraintJacobian differentiates every constraint with respect
// to every phase variable and keeps the non-zero entries.
func (cs *CompositionSet) buildConstraintJacobian() {
	for varIndex, name := range cs.phaseNames {
		for consIndex, cons := range cs.constraints {
			lhs, err := symexpr.Differentiate(cons.LHS, name, nil)
			if err != nil {
				continue
			}
			rhs, err := symexpr.Differentiate(cons.RHS, name, nil)
			if err != nil {
				continue
			}
			diff := symexpr.Simplify(symexpr.Sub(lhs, rhs))
			if symexpr.IsZeroTree(diff) {
				continue
			}
			cs.jacGTrees = append(cs.jacGTrees, jacobianEntry{
				ConsIndex: consIndex,
				VarIndex:  varIndex,
				AST:       diff,
			})
		}
	}
}

// ConstraintJacobian returns the non-zero (constraint, variable)
// derivative entries as (row, col, tree) triples.
func (cs *CompositionSet) ConstraintJacobian() (rows, cols []int, trees []symexpr.Expr) {
	for _, jac := range cs.jacGTrees {
		rows = append(rows, jac.ConsIndex)
		cols = append(cols, jac.VarIndex)
		trees = append(trees, jac.AST)
	}
	return
}

// buildConstraintBasis constructs an orthonormal basis for the null
// space of the active linear constraints, used to generate feasible
// points along the constraint manifold.
// Reference: Nocedal and Wright, 2006, ch. 15.2, p. 429.
func (cs *CompositionSet) buildConstraintBasis() error {
	var (
		nvars = len(cs.phaseNames)
		ncons = len(cs.constraints)
	)
	if ncons == 0 || nvars == 0 {
		return fmt.Errorf("phase %s: no constraints or variables for basis construction", cs.name)
	}
	// Atrans is the transpose of the active constraint matrix A with
	// A x = b; its full QR factorization splits Q = [Y | Z] where Z
	// spans the null space of A.
	Atrans := mat.NewDense(nvars, ncons, nil)
	for _, jac := range cs.jacGTrees {
		val, err := symexpr.Evaluate(jac.AST, types.NewConditions(), nil, nil, nil)
		if err != nil {
			return fmt.Errorf("phase %s: non-constant constraint jacobian entry: %w", cs.name, err)
		}
		Atrans.Set(jac.VarIndex, jac.ConsIndex, val)
	}

	var qr mat.QR
	qr.Factorize(Atrans)
	var Q mat.Dense
	qr.QTo(&Q)

	zColumns := nvars - ncons
	if zColumns < 0 {
		return fmt.Errorf("phase %s: more constraints (%d) than variables (%d)", cs.name, ncons, nvars)
	}
	cs.nullSpace = utils.NewMatrix(nvars, zColumns)
	for j := 0; j < zColumns; j++ {
		for i := 0; i < nvars; i++ {
			cs.nullSpace.Set(i, j, Q.At(i, ncons+j))
		}
	}
	cs.gradProjector = cs.nullSpace.Mul(cs.nullSpace.Transpose())
	return nil
}

// ConstraintNullSpace returns the stored basis Z with A*Z = 0.
func (cs *CompositionSet) ConstraintNullSpace() utils.Matrix { return cs.nullSpace }

// GradientProjector returns Z*Z^T, the projector onto the constraint
// null space.
func (cs *CompositionSet) GradientProjector() utils.Matrix { return cs.gradProjector }

// ConstraintMatrix assembles the numeric constraint matrix A and the
// right-hand side b with A x = b.
func (cs *CompositionSet) ConstraintMatrix() (A utils.Matrix, b []float64) {
	var (
		nvars = len(cs.phaseNames)
		ncons = len(cs.constraints)
	)
	A = utils.NewMatrix(ncons, nvars)
	b = make([]float64, ncons)
	for _, jac := range cs.jacGTrees {
		val, _ := symexpr.Evaluate(jac.AST, types.NewConditions(), nil, nil, nil)
		A.Set(jac.ConsIndex, jac.VarIndex, val)
	}
	for i, cons := range cs.constraints {
		val, _ := symexpr.Evaluate(cons.RHS, types.NewConditions(), nil, nil, nil)
		b[i] = val
	}
	return
}
