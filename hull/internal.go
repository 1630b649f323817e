package hull

import (
	"math"
	"sort"

	"github.com/Teslos/pycalphad/utils"
)

// InternalLowerConvexHull extracts one phase's stable branch: the
// vertices of the lower convex hull of its (site fraction, energy)
// samples. The dependent site-fraction dimensions are dropped for the
// hull computation and restored on the way out by the per-sublattice
// sum rule. Facet edges qualify as tie-line candidates only when they
// are longer than criticalEdgeLength and their midpoint energy rises
// above the lever-rule value by more than coplanarityAllowance; when
// no edge qualifies the phase has no composition variance and the
// single lowest-energy sample is returned.
//
// Input points carry the full site-fraction vector with the energy as
// the last coordinate; returned points are site-fraction vectors.
func InternalLowerConvexHull(points [][]float64, dependentDimensions []int, criticalEdgeLength, coplanarityAllowance float64, engine Engine, objective func([]float64) (float64, error)) ([][]float64, error) {
	var (
		pointDimension = len(points[0])
		candidates     [][]float64
	)
	if len(points) == 1 {
		// No composition dependence.
		return [][]float64{stripEnergy(points[0])}, nil
	}
	if len(points) <= pointDimension {
		// Too few points to construct a hull; return all of them.
		out := make([][]float64, len(points))
		for i, pt := range points {
			out[i] = stripEnergy(pt)
		}
		return out, nil
	}

	facets, err := engine.Compute(points, dependentDimensions)
	if err != nil {
		return nil, err
	}
	for _, facet := range facets {
		if !facet.IsDefined() || !facet.IsGood() {
			continue
		}
		normal := facet.Hyperplane()
		if len(normal) == 0 {
			continue
		}
		if normal[len(normal)-1] > 0 {
			// Only the lower convex hull carries stable states.
			continue
		}
		vertices := facet.Vertices()
		for v1 := 0; v1 < len(vertices); v1++ {
			pt1 := vertices[v1].Point()
			energy1 := pt1[len(pt1)-1]
			coords1 := pt1[:len(pt1)-1]
			for v2 := 0; v2 < v1; v2++ {
				pt2 := vertices[v2].Point()
				energy2 := pt2[len(pt2)-1]
				coords2 := pt2[:len(pt2)-1]

				midpoint := make([]float64, len(coords1))
				for j := range midpoint {
					midpoint[j] = (coords1[j] + coords2[j]) / 2
				}
				leverRuleEnergy := (energy1 + energy2) / 2
				trueEnergy, err := objective(RestoreDependentDimensions(midpoint, dependentDimensions))
				if err != nil {
					return nil, err
				}
				// A midpoint on the tie plane means the edge is
				// coplanar with the energy surface, not a real tie.
				if (trueEnergy-leverRuleEnergy)/math.Abs(leverRuleEnergy) < coplanarityAllowance {
					continue
				}
				if utils.EuclideanDistance(coords1, coords2) > criticalEdgeLength {
					candidates = append(candidates,
						RestoreDependentDimensions(coords1, dependentDimensions),
						RestoreDependentDimensions(coords2, dependentDimensions))
				}
			}
		}
	}

	if len(candidates) == 0 {
		// No tie hyperplanes; return the lowest-energy sample.
		minIndex := 0
		for i, pt := range points {
			if pt[len(pt)-1] < points[minIndex][len(points[minIndex])-1] {
				minIndex = i
			}
		}
		return [][]float64{stripEnergy(points[minIndex])}, nil
	}
	return dedupPoints(candidates), nil
}

// RestoreDependentDimensions reinserts the dependent site-fraction
// coordinates: each dependent position receives 1 minus the sum of the
// independents of its sublattice.
func RestoreDependentDimensions(point []float64, dependentDimensions []int) []float64 {
	var (
		final  = make([]float64, 0, len(point)+len(dependentDimensions))
		offset = 0
		next   = 0
	)
	for _, dim := range dependentDimensions {
		sum := 0.
		for coord := offset; coord < dim; coord++ {
			sum += point[next]
			final = append(final, point[next])
			next++
		}
		final = append(final, 1-sum)
		offset = dim + 1
	}
	// Coordinates after the last dependent dimension (none for
	// sublattice systems, but keep the tail intact).
	for ; next < len(point); next++ {
		final = append(final, point[next])
	}
	return final
}

func stripEnergy(point []float64) []float64 {
	return append([]float64{}, point[:len(point)-1]...)
}

// dedupPoints removes duplicates: two points are identical when every
// coordinate differs by at most 1e-20.
func dedupPoints(points [][]float64) [][]float64 {
	sort.SliceStable(points, func(i, j int) bool {
		for k := range points[i] {
			if points[i][k] != points[j][k] {
				return points[i][k] < points[j][k]
			}
		}
		return false
	})
	out := points[:0:0]
	for _, pt := range points {
		if len(out) > 0 && samePoint(out[len(out)-1], pt) {
			continue
		}
		out = append(out, pt)
	}
	return out
}

func samePoint(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > 1.e-20 {
			return false
		}
	}
	return true
}
