package optimizer

import (
	"fmt"
	"math"
	"sort"

	"github.com/Teslos/pycalphad/hull"
	"github.com/Teslos/pycalphad/types"
	"github.com/Teslos/pycalphad/utils"
)

// GlobalMinimizer performs global minimization of the Gibbs energy.
// Energy manifolds are calculated for all entered phases over their
// internal degrees of freedom, the per-phase lower hulls are unioned
// in mole-fraction space, and the global lower hull's facets become
// the candidate equilibrium tie hyperplanes.
type GlobalMinimizer struct {
	CriticalEdgeLength            float64 // minimum length of a tie line
	InitialSubdivisionsPerAxis    int     // initial discretization to find spinodals
	RefinementSubdivisionsPerAxis int     // during mesh refinement
	MaxSearchDepth                int     // maximum recursive depth
	DiscardUnstable               bool    // discard unstable sample points before refinement
	CoplanarityAllowance          float64 // relative energy tolerance on the tie plane
	Engine                        hull.Engine
	Verbose                       bool

	hullMap         hull.Mapping
	candidateFacets []hull.SimplicialFacet
}

func NewGlobalMinimizer() *GlobalMinimizer {
	return &GlobalMinimizer{
		CriticalEdgeLength:            0.05,
		InitialSubdivisionsPerAxis:    20,
		RefinementSubdivisionsPerAxis: 2,
		MaxSearchDepth:                5,
		DiscardUnstable:               true,
		CoplanarityAllowance:          0.001,
		Engine:                        hull.NewBeneathBeyond(),
	}
}

// Run samples every entered phase, extracts each phase's internal
// lower hull, converts the surviving points to mole-fraction space,
// and computes the global lower hull over the union. Hull entries and
// candidate facets are available afterwards through HullEntries,
// Facets and FindTiePoints.
func (gm *GlobalMinimizer) Run(phaseList map[string]*CompositionSet, sublset *types.SublatticeSet, cond types.Conditions) error {
	if gm.CriticalEdgeLength <= 0 || gm.InitialSubdivisionsPerAxis <= 0 || gm.RefinementSubdivisionsPerAxis <= 0 {
		return fmt.Errorf("minimizer: non-positive sampling parameters")
	}
	gm.hullMap = hull.Mapping{}
	gm.candidateFacets = nil

	var temporaryHullStorage [][]float64
	for _, phaseName := range sortedPhaseNames(phaseList) {
		if status, ok := cond.Phases[phaseName]; ok && status != types.PhaseEntered {
			continue
		}
		cmp := phaseList[phaseName]
		calculateEnergy := func(point []float64) (float64, error) {
			return cmp.EvaluateObjective(cond, cmp.VariableMap(), point)
		}
		dependentDimensions := sublset.DependentDimensions(phaseName)

		phasePoints, err := AdaptiveSimplexSample(cmp, sublset, cond,
			gm.InitialSubdivisionsPerAxis, gm.RefinementSubdivisionsPerAxis, gm.MaxSearchDepth, gm.DiscardUnstable)
		if err != nil {
			return err
		}
		if gm.Verbose {
			fmt.Printf("%s: %d sample points\n", phaseName, len(phasePoints))
		}
		phaseHullPoints, err := hull.InternalLowerConvexHull(phasePoints, dependentDimensions,
			gm.CriticalEdgeLength, gm.CoplanarityAllowance, gm.Engine, calculateEnergy)
		if err != nil {
			return fmt.Errorf("phase %s: internal hull: %w", phaseName, err)
		}
		if gm.Verbose {
			fmt.Printf("%s: %d internal hull points\n", phaseName, len(phaseHullPoints))
		}
		for _, point := range phaseHullPoints {
			globalPoint, err := sublset.MoleFractionsFromSiteFractions(phaseName, point, cond.Elements)
			if err != nil {
				return err
			}
			energy, err := calculateEnergy(point)
			if err != nil {
				return err
			}
			gm.hullMap.InsertPoint(phaseName, energy, point, globalPoint)
			temporaryHullStorage = append(temporaryHullStorage, append(append([]float64{}, globalPoint...), energy))
		}
	}
	if len(temporaryHullStorage) == 0 {
		return fmt.Errorf("minimizer: no candidate points from any entered phase")
	}

	facets, err := hull.GlobalLowerConvexHull(temporaryHullStorage,
		gm.CriticalEdgeLength, gm.CoplanarityAllowance, gm.Engine, gm.midpointEnergy(phaseList, cond))
	if err != nil {
		return fmt.Errorf("minimizer: global hull: %w", err)
	}
	gm.candidateFacets = facets
	if gm.Verbose {
		fmt.Printf("global hull: %d candidate facets\n", len(facets))
	}
	for _, facet := range gm.candidateFacets {
		for _, pointID := range facet.Vertices {
			gm.hullMap.SetGlobalHullStatus(pointID, true)
		}
	}
	return nil
}

// midpointEnergy builds the two-argument energy callback for the
// global hull's coplanarity check: the stored energy for a point
// against itself, +Inf across phases, and the true energy at the
// average of the internal coordinates within one phase.
func (gm *GlobalMinimizer) midpointEnergy(phaseList map[string]*CompositionSet, cond types.Conditions) func(id1, id2 int) (float64, error) {
	return func(id1, id2 int) (float64, error) {
		if id1 >= gm.hullMap.Len() || id2 >= gm.hullMap.Len() {
			return 0, fmt.Errorf("minimizer: hull point id out of range")
		}
		if id1 == id2 {
			return gm.hullMap.At(id1).Energy, nil
		}
		entry1, entry2 := gm.hullMap.At(id1), gm.hullMap.At(id2)
		if entry1.PhaseName != entry2.PhaseName {
			// No single-phase energy exists between different phases.
			return math.Inf(1), nil
		}
		cmp, ok := phaseList[entry1.PhaseName]
		if !ok {
			return 0, fmt.Errorf("minimizer: unknown phase %s in hull map", entry1.PhaseName)
		}
		midpoint := make([]float64, len(entry1.InternalCoordinates))
		for i := range midpoint {
			midpoint[i] = (entry1.InternalCoordinates[i] + entry2.InternalCoordinates[i]) / 2
		}
		return cmp.EvaluateObjective(cond, cmp.VariableMap(), midpoint)
	}
}

// HullEntries returns all hull map entries in insertion order.
func (gm *GlobalMinimizer) HullEntries() []hull.Entry { return gm.hullMap.All() }

// Facets returns the candidate facets of the global lower hull.
func (gm *GlobalMinimizer) Facets() []hull.SimplicialFacet { return gm.candidateFacets }

// FindTiePoints locates the facet enclosing the conditions' target
// composition and reduces its vertices to the minimal deduplicated
// equilibrium tie-point set. An empty result means the target lies
// outside every lower-hull facet.
func (gm *GlobalMinimizer) FindTiePoints(cond types.Conditions) ([]hull.Entry, error) {
	trialPoint, err := cond.TargetPoint()
	if err != nil {
		return nil, err
	}
	var preCandidateFacets []hull.SimplicialFacet
	for _, facet := range gm.candidateFacets {
		if gm.enclosesTarget(facet, trialPoint) {
			// Edge and corner cases can produce more than one
			// enclosing facet; all are collected and ranked below.
			preCandidateFacets = append(preCandidateFacets, facet)
		}
	}
	if len(preCandidateFacets) == 0 {
		return nil, nil
	}
	// Smallest facet wins; insertion order is the stable tie-breaker.
	sort.SliceStable(preCandidateFacets, func(i, j int) bool {
		return preCandidateFacets[i].Area < preCandidateFacets[j].Area
	})
	finalFacet := preCandidateFacets[0]

	candidateIDs := gm.extractTiePointIDs(finalFacet)

	// A facet with no qualifying vertex pair is a single-phase state:
	// return its first vertex alone.
	if len(candidateIDs) == 0 {
		candidateIDs = []int{finalFacet.Vertices[0]}
	}

	candidates := make([]hull.Entry, 0, len(candidateIDs))
	for _, id := range candidateIDs {
		candidates = append(candidates, gm.hullMap.At(id))
	}
	return candidates, nil
}

func (gm *GlobalMinimizer) enclosesTarget(facet hull.SimplicialFacet, trialPoint []float64) bool {
	if len(facet.Vertices) == 1 {
		// Single point system: trivially encloses.
		return true
	}
	if facet.BasisMatrix == nil {
		// Degenerate facet without an enclosure test; accept it and
		// let area ranking decide.
		return true
	}
	if _, nc := facet.BasisMatrix.Dims(); nc != len(trialPoint) {
		return false
	}
	// The basis matrix is stored inverted, so this product is the
	// barycentric coordinate vector of the target in the facet.
	for _, coord := range facet.BasisMatrix.MulVec(trialPoint) {
		if coord < 0 {
			return false
		}
	}
	return true
}

// extractTiePointIDs walks the winning facet's vertex pairs: points of
// different phases are always tie points; same-phase pairs span a
// miscibility gap only when their internal coordinates are farther
// apart than the critical edge length. Accepted same-phase points
// closer than the critical length are then merged, restarting the
// pairwise scan after every deletion.
func (gm *GlobalMinimizer) extractTiePointIDs(facet hull.SimplicialFacet) []int {
	var candidateIDs []int
	contains := func(id int) bool {
		for _, c := range candidateIDs {
			if c == id {
				return true
			}
		}
		return false
	}
	add := func(id int) {
		if !contains(id) {
			candidateIDs = append(candidateIDs, id)
		}
	}
	for i := 0; i < len(facet.Vertices); i++ {
		for j := i + 1; j < len(facet.Vertices); j++ {
			var (
				entry1 = gm.hullMap.At(facet.Vertices[i])
				entry2 = gm.hullMap.At(facet.Vertices[j])
			)
			if entry1.PhaseName != entry2.PhaseName {
				add(entry1.ID)
				add(entry2.ID)
				continue
			}
			distance := utils.EuclideanDistance(entry1.InternalCoordinates, entry2.InternalCoordinates)
			if distance > gm.CriticalEdgeLength {
				add(entry1.ID)
				add(entry2.ID)
			}
		}
	}
	// Merge near-duplicates within a phase.
	sort.Ints(candidateIDs)
restart:
	for i := 0; i < len(candidateIDs); i++ {
		for j := i + 1; j < len(candidateIDs); j++ {
			var (
				entry1 = gm.hullMap.At(candidateIDs[i])
				entry2 = gm.hullMap.At(candidateIDs[j])
			)
			if entry1.PhaseName != entry2.PhaseName {
				continue
			}
			if utils.EuclideanDistance(entry1.InternalCoordinates, entry2.InternalCoordinates) <= gm.CriticalEdgeLength {
				candidateIDs = append(candidateIDs[:j], candidateIDs[j+1:]...)
				goto restart
			}
		}
	}
	return candidateIDs
}

func sortedPhaseNames(phaseList map[string]*CompositionSet) (names []string) {
	for name := range phaseList {
		names = append(names, name)
	}
	sort.Strings(names)
	return
}

// BuildMainIndices assigns global variable indices over all phases:
// each phase's site-fraction variables in sublattice order followed by
// its phase-fraction variable, phases sorted by name.
func BuildMainIndices(sublset *types.SublatticeSet, phases []string) map[string]int {
	var (
		indices = make(map[string]int)
		next    int
	)
	sorted := append([]string{}, phases...)
	sort.Strings(sorted)
	for _, phase := range sorted {
		for _, name := range sublset.VariableNames(phase) {
			indices[name] = next
			next++
		}
		indices[types.PhaseFractionVariable(phase)] = next
		next++
	}
	return indices
}
