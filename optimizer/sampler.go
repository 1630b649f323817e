package optimizer

import (
	"fmt"

	"github.com/Teslos/pycalphad/types"
	"gonum.org/v1/gonum/stat/combin"
)

// AdaptiveSimplexSample discretizes one phase's site-fraction space:
// a uniform barycentric lattice on every sublattice simplex, an
// optional discard of samples that are not local energy minima, and a
// recursive shrinking-neighborhood refinement of the survivors.
// Returned points are the full site-fraction vector with the phase
// energy appended as the last coordinate; their order is unspecified.
func AdaptiveSimplexSample(cmp *CompositionSet, sublset *types.SublatticeSet, cond types.Conditions, initialSubdivisions, refinementSubdivisions, maxSearchDepth int, discardUnstable bool) ([][]float64, error) {
	if initialSubdivisions < 1 {
		return nil, fmt.Errorf("phase %s: initial subdivisions must be positive", cmp.Name())
	}
	var (
		phase   = cmp.Name()
		nsubl   = sublset.NumSublattices(phase)
		lattice = make([][][]float64, nsubl) // per sublattice: candidate simplex points
	)
	for subl := 0; subl < nsubl; subl++ {
		k := len(sublset.Sublattice(phase, subl))
		lattice[subl] = simplexLattice(k, initialSubdivisions)
	}
	// Cartesian product across sublattices.
	grid := [][]float64{nil}
	for subl := 0; subl < nsubl; subl++ {
		var next [][]float64
		for _, head := range grid {
			for _, tail := range lattice[subl] {
				pt := make([]float64, 0, len(head)+len(tail))
				pt = append(pt, head...)
				pt = append(pt, tail...)
				next = append(next, pt)
			}
		}
		grid = next
	}

	energies := make([]float64, len(grid))
	for i, pt := range grid {
		e, err := cmp.EvaluateObjective(cond, cmp.VariableMap(), pt)
		if err != nil {
			return nil, err
		}
		energies[i] = e
	}

	keep := make([]int, 0, len(grid))
	if discardUnstable && len(grid) > 1 {
		keep = append(keep, localMinima(grid, energies, phase, sublset, initialSubdivisions)...)
	} else {
		for i := range grid {
			keep = append(keep, i)
		}
	}

	var out [][]float64
	appendPoint := func(pt []float64, energy float64) {
		out = append(out, append(append([]float64{}, pt...), energy))
	}
	for _, i := range keep {
		appendPoint(grid[i], energies[i])
		if discardUnstable && maxSearchDepth > 0 && refinementSubdivisions > 0 {
			refined, refinedEnergy, err := refineMinimum(cmp, sublset, cond, grid[i], energies[i],
				1/float64(initialSubdivisions), refinementSubdivisions, maxSearchDepth)
			if err != nil {
				return nil, err
			}
			if refinedEnergy < energies[i] {
				appendPoint(refined, refinedEnergy)
			}
		}
	}
	return out, nil
}

// simplexLattice enumerates the barycentric lattice on the
// (k-1)-simplex with n subdivisions per axis: all compositions of n
// into k non-negative parts, via the stars-and-bars bijection with
// (n+k-1 choose k-1) combinations.
func simplexLattice(k, n int) (points [][]float64) {
	if k == 1 {
		return [][]float64{{1}}
	}
	for _, bars := range combin.Combinations(n+k-1, k-1) {
		var (
			pt   = make([]float64, k)
			prev = -1
		)
		for i, bar := range bars {
			pt[i] = float64(bar-prev-1) / float64(n)
			prev = bar
		}
		pt[k-1] = float64(n+k-1-prev-1) / float64(n)
		points = append(points, pt)
	}
	return
}

// localMinima keeps the grid points whose energy does not exceed any
// neighbor reachable by moving one lattice step between two species of
// one sublattice.
func localMinima(grid [][]float64, energies []float64, phase string, sublset *types.SublatticeSet, subdivisions int) (keep []int) {
	var (
		index = make(map[string]int, len(grid))
		step  = 1 / float64(subdivisions)
	)
	key := func(pt []float64) string {
		k := make([]int, len(pt))
		for i, coord := range pt {
			k[i] = int(coord*float64(subdivisions) + 0.5)
		}
		return fmt.Sprint(k)
	}
	for i, pt := range grid {
		index[key(pt)] = i
	}
	var offsets [][2]int // variable index pairs within one sublattice
	var base int
	for subl := 0; subl < sublset.NumSublattices(phase); subl++ {
		n := len(sublset.Sublattice(phase, subl))
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				if i != j {
					offsets = append(offsets, [2]int{base + i, base + j})
				}
			}
		}
		base += n
	}
	for i, pt := range grid {
		minimum := true
		for _, off := range offsets {
			neighbor := append([]float64{}, pt...)
			neighbor[off[0]] -= step
			neighbor[off[1]] += step
			if neighbor[off[0]] < -1.e-12 {
				continue
			}
			j, ok := index[key(neighbor)]
			if !ok {
				continue
			}
			if energies[j] < energies[i] {
				minimum = false
				break
			}
		}
		if minimum {
			keep = append(keep, i)
		}
	}
	return
}

// refineMinimum searches a shrinking neighborhood of a surviving local
// minimum. At each level the candidate moves are convex combinations
// toward every vertex of each sublattice simplex, which keeps the
// sublattice sums at exactly one; the neighborhood shrinks by the
// refinement factor until the depth limit or no further improvement.
func refineMinimum(cmp *CompositionSet, sublset *types.SublatticeSet, cond types.Conditions, start []float64, startEnergy, halfWidth float64, refinementSubdivisions, maxSearchDepth int) ([]float64, float64, error) {
	var (
		phase = cmp.Name()
		best  = append([]float64{}, start...)
		bestE = startEnergy
	)
	for depth := 0; depth < maxSearchDepth; depth++ {
		improved := false
		var base int
		for subl := 0; subl < sublset.NumSublattices(phase); subl++ {
			n := len(sublset.Sublattice(phase, subl))
			for vert := 0; vert < n; vert++ {
				for div := 1; div <= refinementSubdivisions; div++ {
					t := halfWidth * float64(div) / float64(refinementSubdivisions)
					if t > 1 {
						t = 1
					}
					candidate := append([]float64{}, best...)
					for i := 0; i < n; i++ {
						target := 0.
						if i == vert {
							target = 1
						}
						candidate[base+i] = (1-t)*best[base+i] + t*target
					}
					e, err := cmp.EvaluateObjective(cond, cmp.VariableMap(), candidate)
					if err != nil {
						return nil, 0, err
					}
					if e < bestE {
						best, bestE = candidate, e
						improved = true
					}
				}
			}
			base += n
		}
		if !improved {
			break
		}
		halfWidth /= float64(refinementSubdivisions)
	}
	return best, bestE, nil
}
