package hull

import (
	"math"

	"github.com/Teslos/pycalphad/utils"
)

// SimplicialFacet is one facet of the global lower convex hull.
// BasisMatrix is stored in INVERSE form: multiplying it by the
// augmented target composition yields the barycentric coordinates of
// the target in the facet directly. It is nil when the facet is too
// degenerate to support the enclosure test.
type SimplicialFacet struct {
	Vertices    []int
	Normal      []float64
	Area        float64
	BasisMatrix *utils.Matrix
}

// GlobalLowerConvexHull computes the lower convex hull of all phases'
// candidate points in (mole fraction, energy) space and returns its
// simplicial facets. The dependent mole fraction (the second-to-last
// coordinate; energy is last) is dropped for the hull computation.
// midpointEnergy(id, id) must return the point's stored energy;
// midpointEnergy(id1, id2) the true energy at the average of the two
// points' internal coordinates, or +Inf when the ids belong to
// different phases so the edge is always a real tie line.
// A facet is rejected when any of its sufficiently long edges is
// coplanar with the energy surface.
func GlobalLowerConvexHull(points [][]float64, criticalEdgeLength, coplanarityAllowance float64, engine Engine, midpointEnergy func(id1, id2 int) (float64, error)) ([]SimplicialFacet, error) {
	var (
		pointDimension = len(points[0])
		candidates     []SimplicialFacet
	)
	if len(points) == 1 {
		// No composition variance anywhere in the system.
		candidates = append(candidates, SimplicialFacet{
			Vertices: []int{0},
			Normal:   []float64{0},
		})
		return candidates, nil
	}
	// The reduced space has one independent coordinate fewer than the
	// input plus the energy axis.
	reducedDimension := pointDimension - 1
	if len(points) <= reducedDimension {
		// Degenerate: the points themselves span the only candidate
		// tie hyperplane.
		facet := SimplicialFacet{Normal: make([]float64, reducedDimension)}
		for id := range points {
			facet.Vertices = append(facet.Vertices, id)
		}
		if len(points) == reducedDimension {
			facet.BasisMatrix = invertedBasis(points, facet.Vertices)
		}
		candidates = append(candidates, facet)
		return candidates, nil
	}

	facets, err := engine.Compute(points, []int{pointDimension - 2})
	if err != nil {
		return nil, err
	}
	for _, facet := range facets {
		if !facet.IsDefined() || !facet.IsGood() || !facet.IsSimplicial() {
			continue
		}
		normal := facet.Hyperplane()
		if len(normal) == 0 {
			continue
		}
		if normal[len(normal)-1] > 0 {
			continue
		}
		vertices := facet.Vertices()
		coplanar, err := hasCoplanarEdge(vertices, criticalEdgeLength, coplanarityAllowance, midpointEnergy)
		if err != nil {
			return nil, err
		}
		if coplanar {
			continue
		}
		newFacet := SimplicialFacet{
			Normal: append([]float64{}, normal...),
			Area:   facet.FacetArea(),
		}
		ids := make([]int, len(vertices))
		for i, v := range vertices {
			ids[i] = v.PointID()
		}
		newFacet.Vertices = ids
		newFacet.BasisMatrix = invertedBasis(points, ids)
		if newFacet.BasisMatrix == nil {
			continue
		}
		candidates = append(candidates, newFacet)
	}
	return candidates, nil
}

// hasCoplanarEdge reports whether any facet edge longer than the
// critical length has a midpoint energy on the lever-rule plane.
func hasCoplanarEdge(vertices []Vertex, criticalEdgeLength, coplanarityAllowance float64, midpointEnergy func(id1, id2 int) (float64, error)) (bool, error) {
	for v1 := 0; v1 < len(vertices); v1++ {
		pt1 := vertices[v1].Point()
		energy1, err := midpointEnergy(vertices[v1].PointID(), vertices[v1].PointID())
		if err != nil {
			return false, err
		}
		for v2 := 0; v2 < v1; v2++ {
			pt2 := vertices[v2].Point()
			if utils.EuclideanDistance(pt1[:len(pt1)-1], pt2[:len(pt2)-1]) <= criticalEdgeLength {
				continue
			}
			energy2, err := midpointEnergy(vertices[v2].PointID(), vertices[v2].PointID())
			if err != nil {
				return false, err
			}
			leverRuleEnergy := (energy1 + energy2) / 2
			trueEnergy, err := midpointEnergy(vertices[v1].PointID(), vertices[v2].PointID())
			if err != nil {
				return false, err
			}
			if (trueEnergy-leverRuleEnergy)/math.Abs(leverRuleEnergy) < coplanarityAllowance {
				return true, nil
			}
		}
	}
	return false, nil
}

// invertedBasis assembles the facet basis matrix, columns = vertex
// independent mole fractions augmented with a trailing 1, and inverts
// it. Nil when the matrix is singular.
func invertedBasis(points [][]float64, ids []int) *utils.Matrix {
	n := len(ids)
	B := utils.NewMatrix(n, n)
	for col, id := range ids {
		pt := points[id]
		for row := 0; row < n-1; row++ {
			B.Set(row, col, pt[row])
		}
		B.Set(n-1, col, 1)
	}
	inv, err := B.Inverse()
	if err != nil {
		return nil
	}
	return &inv
}
