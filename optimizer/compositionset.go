// Package optimizer implements the global Gibbs energy minimizer: the
// per-phase composition set with cached derivative trees and its
// linear constraint basis, the adaptive composition-space sampler, and
// the driver that assembles the global hull and resolves equilibrium
// tie points.
package optimizer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Teslos/pycalphad/models"
	"github.com/Teslos/pycalphad/symexpr"
	"github.com/Teslos/pycalphad/types"
	"github.com/Teslos/pycalphad/utils"
)

// Model keys, in evaluation order.
var modelKeys = []string{"PURE_ENERGY", "IDEAL_MIX", "REDLICH_KISTER", "IHJ_MAGNETIC"}

type derivEntry struct {
	diffVars []string // one name for first derivatives, two for second
	model    string
	ast      symexpr.Expr
}

type jacobianEntry struct {
	ConsIndex, VarIndex int
	AST                 symexpr.Expr
}

// CompositionSet owns one phase's energy models as symbolic trees,
// the cached first and second derivative trees, the phase-local
// variable index, the linear site-balance constraint system and its
// null-space basis. Immutable after construction.
type CompositionSet struct {
	name          string
	models        map[string]models.EnergyModel
	symbols       symexpr.SymbolTable
	treeData      []derivEntry
	phaseIndices  map[string]int
	phaseNames    []string // local index -> variable name
	constraints   []Constraint
	jacGTrees     []jacobianEntry
	nullSpace     utils.Matrix
	gradProjector utils.Matrix
	startingPoint map[string]float64
}

// NewCompositionSet assembles the four energy models of the phase,
// precomputes the first derivative trees of every main variable owned
// by this phase and the lower-triangular second derivative trees, sets
// up the sublattice balance constraints and their orthonormal
// null-space basis.
func NewCompositionSet(phase types.Phase, pset *models.ParameterSet, sublset *types.SublatticeSet, mainIndices map[string]int) (*CompositionSet, error) {
	cs := &CompositionSet{
		name:          phase.Name,
		models:        make(map[string]models.EnergyModel),
		symbols:       make(symexpr.SymbolTable),
		phaseIndices:  make(map[string]int),
		startingPoint: make(map[string]float64),
	}
	cs.models["PURE_ENERGY"] = models.NewPureCompoundModel(phase.Name, sublset, pset)
	cs.models["IDEAL_MIX"] = models.NewIdealMixingModel(phase.Name, sublset)
	cs.models["REDLICH_KISTER"] = models.NewRedlichKisterModel(phase.Name, sublset, pset)
	cs.models["IHJ_MAGNETIC"] = models.NewIHJMagneticModel(phase, sublset, pset)
	for _, key := range modelKeys {
		for name, def := range cs.models[key].SymbolTable() {
			cs.symbols[name] = def
		}
	}

	if err := cs.buildDerivativeTrees(mainIndices); err != nil {
		return nil, err
	}

	// Phase-local variable indices follow sublattice order.
	for i, name := range sublset.VariableNames(phase.Name) {
		cs.phaseIndices[name] = i
		cs.phaseNames = append(cs.phaseNames, name)
	}

	// One sum-to-one balance constraint per sublattice. Charge
	// balance is reserved in the constraint kind but not yet emitted.
	for subl := 0; subl < sublset.NumSublattices(phase.Name); subl++ {
		entries := sublset.Sublattice(phase.Name, subl)
		if len(entries) == 0 {
			continue
		}
		cs.constraints = append(cs.constraints, NewSublatticeBalanceConstraint(phase.Name, subl, entries))
	}
	cs.buildConstraintJacobian()

	if err := cs.buildConstraintBasis(); err != nil {
		return nil, err
	}
	return cs, nil
}

func (cs *CompositionSet) buildDerivativeTrees(mainIndices map[string]int) error {
	var (
		fracName = types.PhaseFractionVariable(cs.name)
		names    = make([]string, 0, len(mainIndices))
	)
	for name := range mainIndices {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return mainIndices[names[i]] < mainIndices[names[j]] })

	for _, iName := range names {
		if !strings.HasPrefix(iName, cs.name+"_") {
			// Not a variable of this composition set: derivative is
			// identically zero, skip the calculation.
			continue
		}
		for _, key := range modelKeys {
			var (
				diffTree symexpr.Expr
				err      error
			)
			if iName == fracName {
				// The derivative w.r.t. the phase fraction is the
				// phase energy itself.
				diffTree = cs.models[key].AST()
			} else {
				diffTree, err = symexpr.Differentiate(cs.models[key].AST(), iName, cs.symbols)
				if err != nil {
					return fmt.Errorf("phase %s: differentiate %s wrt %s: %w", cs.name, key, iName, err)
				}
				diffTree = symexpr.Simplify(diffTree)
			}
			if !symexpr.IsZeroTree(diffTree) {
				cs.treeData = append(cs.treeData, derivEntry{diffVars: []string{iName}, model: key, ast: diffTree})
			}

			for _, kName := range names {
				if mainIndices[iName] > mainIndices[kName] {
					continue // lower triangle only
				}
				switch {
				case kName == fracName:
					// Second derivative w.r.t. the phase fraction is zero.
				case !strings.HasPrefix(kName, cs.name+"_"):
					// Foreign variable: zero.
				default:
					secondTree, err := symexpr.Differentiate(diffTree, kName, cs.symbols)
					if err != nil {
						return fmt.Errorf("phase %s: second derivative wrt %s,%s: %w", cs.name, iName, kName, err)
					}
					secondTree = symexpr.Simplify(secondTree)
					if !symexpr.IsZeroTree(secondTree) {
						cs.treeData = append(cs.treeData, derivEntry{diffVars: []string{iName, kName}, model: key, ast: secondTree})
					}
				}
			}
		}
	}
	return nil
}

func (cs *CompositionSet) Name() string { return cs.name }

// VariableMap returns the phase-local name-to-index map, site
// fraction variables only, in sublattice order.
func (cs *CompositionSet) VariableMap() map[string]int { return cs.phaseIndices }

// VariableNames returns the phase-local variable names by index.
func (cs *CompositionSet) VariableNames() []string { return cs.phaseNames }

func (cs *CompositionSet) Constraints() []Constraint { return cs.constraints }

// StartingPoint is non-empty only on cloned composition sets.
func (cs *CompositionSet) StartingPoint() map[string]float64 { return cs.startingPoint }

// EvaluateObjective returns the phase energy: the sum of the model
// trees at x under the given variable index.
func (cs *CompositionSet) EvaluateObjective(cond types.Conditions, indices map[string]int, x []float64) (float64, error) {
	var objective float64
	for _, key := range modelKeys {
		v, err := symexpr.Evaluate(cs.models[key].AST(), cond, indices, cs.symbols, x)
		if err != nil {
			return 0, fmt.Errorf("phase %s: %s: %w", cs.name, key, err)
		}
		objective += v
	}
	return objective, nil
}

// EvaluateObjectiveGradient evaluates the cached first-derivative
// trees. Every contribution is weighted by the phase fraction except
// the derivative with respect to the phase fraction itself, which is
// the phase's raw energy.
func (cs *CompositionSet) EvaluateObjectiveGradient(cond types.Conditions, indices map[string]int, x []float64) (map[int]float64, error) {
	var (
		fracName = types.PhaseFractionVariable(cs.name)
		retmap   = make(map[int]float64, len(indices))
	)
	fracIndex, ok := indices[fracName]
	if !ok {
		return nil, &symexpr.MissingBindingError{Name: fracName}
	}
	for _, idx := range indices {
		retmap[idx] = 0
	}
	for _, entry := range cs.treeData {
		if len(entry.diffVars) != 1 {
			continue
		}
		diffValue, err := symexpr.Evaluate(entry.ast, cond, indices, cs.symbols, x)
		if err != nil {
			return nil, fmt.Errorf("phase %s: gradient wrt %s: %w", cs.name, entry.diffVars[0], err)
		}
		varIndex, ok := indices[entry.diffVars[0]]
		if !ok {
			return nil, &symexpr.MissingBindingError{Name: entry.diffVars[0]}
		}
		if entry.diffVars[0] != fracName {
			retmap[varIndex] += x[fracIndex] * diffValue
		} else {
			retmap[varIndex] += diffValue
		}
	}
	return retmap, nil
}

// EvaluateSinglePhaseObjectiveGradient is the gradient without the
// phase-fraction weighting, for the composition set in isolation. When
// the index map has no phase-fraction variable (the phase-local map),
// the phase-fraction entry is left out.
func (cs *CompositionSet) EvaluateSinglePhaseObjectiveGradient(cond types.Conditions, indices map[string]int, x []float64) (map[int]float64, error) {
	var (
		fracName = types.PhaseFractionVariable(cs.name)
		retmap   = make(map[int]float64, len(indices))
	)
	_, hasFrac := indices[fracName]
	for _, idx := range indices {
		retmap[idx] = 0
	}
	for _, entry := range cs.treeData {
		if len(entry.diffVars) != 1 {
			continue
		}
		if entry.diffVars[0] == fracName && !hasFrac {
			continue
		}
		diffValue, err := symexpr.Evaluate(entry.ast, cond, indices, cs.symbols, x)
		if err != nil {
			return nil, fmt.Errorf("phase %s: gradient wrt %s: %w", cs.name, entry.diffVars[0], err)
		}
		varIndex, ok := indices[entry.diffVars[0]]
		if !ok {
			return nil, &symexpr.MissingBindingError{Name: entry.diffVars[0]}
		}
		retmap[varIndex] += diffValue
	}
	return retmap, nil
}

// EvaluateInternalObjectiveGradient is the central finite difference
// of the objective over the phase-local variables, as a reference path
// for cross-checking the symbolic gradient.
func (cs *CompositionSet) EvaluateInternalObjectiveGradient(cond types.Conditions, x []float64) ([]float64, error) {
	const perturbation = 1.e-7
	var (
		n        = len(cs.phaseIndices)
		gradient = make([]float64, n)
		xCopy    = make([]float64, n)
	)
	copy(xCopy, x[:n])
	for i := 0; i < n; i++ {
		xCopy[i] = x[i] - perturbation
		lower, err := cs.EvaluateObjective(cond, cs.phaseIndices, xCopy)
		if err != nil {
			return nil, err
		}
		xCopy[i] = x[i] + perturbation
		upper, err := cs.EvaluateObjective(cond, cs.phaseIndices, xCopy)
		if err != nil {
			return nil, err
		}
		xCopy[i] = x[i]
		gradient[i] = (upper - lower) / (2 * perturbation)
	}
	return gradient, nil
}

// EvaluateObjectiveHessian evaluates the cached second-derivative
// trees into a triangular sparse map keyed (i, j) with i <= j, diagonal
// included. Entries involving the phase fraction are unweighted; the
// rest are multiplied by the phase fraction.
func (cs *CompositionSet) EvaluateObjectiveHessian(cond types.Conditions, indices map[string]int, x []float64) (map[[2]int]float64, error) {
	var (
		fracName = types.PhaseFractionVariable(cs.name)
		retmap   = make(map[[2]int]float64)
	)
	fracIndex, ok := indices[fracName]
	if !ok {
		return nil, &symexpr.MissingBindingError{Name: fracName}
	}
	for _, i := range indices {
		for _, j := range indices {
			if i <= j {
				retmap[[2]int{i, j}] = 0
			}
		}
	}
	for _, entry := range cs.treeData {
		if len(entry.diffVars) != 2 {
			continue
		}
		diffValue, err := symexpr.Evaluate(entry.ast, cond, indices, cs.symbols, x)
		if err != nil {
			return nil, fmt.Errorf("phase %s: hessian wrt %v: %w", cs.name, entry.diffVars, err)
		}
		i, ok1 := indices[entry.diffVars[0]]
		j, ok2 := indices[entry.diffVars[1]]
		if !ok1 || !ok2 {
			return nil, &symexpr.MissingBindingError{Name: entry.diffVars[0]}
		}
		key := [2]int{i, j}
		if i > j {
			key = [2]int{j, i}
		}
		if entry.diffVars[0] == fracName || entry.diffVars[1] == fracName {
			retmap[key] += diffValue
		} else {
			retmap[key] += x[fracIndex] * diffValue
		}
	}
	return retmap, nil
}

// EvaluateObjectiveHessianMatrix assembles the single-phase Hessian
// over the phase-local variables as a sparse matrix; the phase
// fraction row and column are omitted.
func (cs *CompositionSet) EvaluateObjectiveHessianMatrix(cond types.Conditions, x []float64) (utils.CSR, error) {
	var (
		fracName = types.PhaseFractionVariable(cs.name)
		n        = len(cs.phaseIndices)
		dok      = utils.NewDOK(n, n)
	)
	for _, entry := range cs.treeData {
		if len(entry.diffVars) != 2 {
			continue
		}
		if entry.diffVars[0] == fracName || entry.diffVars[1] == fracName {
			continue
		}
		diffValue, err := symexpr.Evaluate(entry.ast, cond, cs.phaseIndices, cs.symbols, x)
		if err != nil {
			return utils.CSR{}, fmt.Errorf("phase %s: hessian wrt %v: %w", cs.name, entry.diffVars, err)
		}
		i := cs.phaseIndices[entry.diffVars[0]]
		j := cs.phaseIndices[entry.diffVars[1]]
		dok.Accumulate(i, j, diffValue)
		if i != j {
			dok.Accumulate(j, i, diffValue)
		}
	}
	return dok.ToCSR(), nil
}

// HessianSparsityStructure returns the support pattern of the cached
// second derivatives under the given index, keys (i, j) with i <= j.
func (cs *CompositionSet) HessianSparsityStructure(indices map[string]int) map[[2]int]bool {
	retset := make(map[[2]int]bool)
	for _, entry := range cs.treeData {
		if len(entry.diffVars) != 2 {
			continue
		}
		i, ok1 := indices[entry.diffVars[0]]
		j, ok2 := indices[entry.diffVars[1]]
		if !ok1 || !ok2 {
			continue
		}
		if i > j {
			i, j = j, i
		}
		retset[[2]int{i, j}] = true
	}
	return retset
}

// CloneWithNewName builds a second composition instance of the same
// phase for miscibility gaps. Models and derivative trees are deep
// cloned with every variable and symbol of the old phase renamed by a
// tree walk; the starting point is overridden.
func (cs *CompositionSet) CloneWithNewName(newName string, startingPoint map[string]float64) *CompositionSet {
	var (
		old   = cs.name
		clone = &CompositionSet{
			name:          newName,
			models:        make(map[string]models.EnergyModel),
			symbols:       symexpr.RenameSymbolTable(cs.symbols, old, newName),
			phaseIndices:  make(map[string]int),
			startingPoint: startingPoint,
		}
	)
	for key, m := range cs.models {
		clone.models[key] = m.CloneWithRenamedPhase(old, newName)
	}
	for _, entry := range cs.treeData {
		diffVars := make([]string, len(entry.diffVars))
		for i, name := range entry.diffVars {
			diffVars[i] = renameVariable(name, old, newName)
		}
		clone.treeData = append(clone.treeData, derivEntry{
			diffVars: diffVars,
			model:    entry.model,
			ast:      symexpr.RenamePhasePrefix(entry.ast, old, newName),
		})
	}
	for _, name := range cs.phaseNames {
		renamed := renameVariable(name, old, newName)
		clone.phaseIndices[renamed] = cs.phaseIndices[name]
		clone.phaseNames = append(clone.phaseNames, renamed)
	}
	for _, cons := range cs.constraints {
		clone.constraints = append(clone.constraints, cons.RenamePhase(old, newName))
	}
	for _, jac := range cs.jacGTrees {
		clone.jacGTrees = append(clone.jacGTrees, jacobianEntry{
			ConsIndex: jac.ConsIndex,
			VarIndex:  jac.VarIndex,
			AST:       symexpr.RenamePhasePrefix(jac.AST, old, newName),
		})
	}
	clone.nullSpace = cs.nullSpace.Copy()
	clone.gradProjector = cs.gradProjector.Copy()
	return clone
}

func renameVariable(name, old, new string) string {
	if strings.HasPrefix(name, old+"_") {
		return new + name[len(old):]
	}
	return name
}
