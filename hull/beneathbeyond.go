package hull

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// BeneathBeyond is the in-tree hull engine: an incremental
// beneath-beyond construction in the reduced coordinate space.
// Reference: N. Perevoshchikova et al., 2012, Computational Materials
// Science, "A convex hull algorithm for a grid minimization of Gibbs
// energy as initial step in equilibrium calculations in two-phase
// multicomponent alloys".
type BeneathBeyond struct {
	Tolerance float64
}

func NewBeneathBeyond() *BeneathBeyond {
	return &BeneathBeyond{Tolerance: 1.e-9}
}

type bbVertex struct {
	id    int
	point []float64
}

func (v bbVertex) PointID() int     { return v.id }
func (v bbVertex) Point() []float64 { return v.point }

type bbFacet struct {
	vertices []bbVertex
	normal   []float64
	offset   float64
	area     float64
}

func (f *bbFacet) Vertices() (R []Vertex) {
	R = make([]Vertex, len(f.vertices))
	for i, v := range f.vertices {
		R[i] = v
	}
	return
}
func (f *bbFacet) Hyperplane() []float64 { return f.normal }
func (f *bbFacet) IsDefined() bool       { return f.normal != nil }
func (f *bbFacet) IsGood() bool          { return true }
func (f *bbFacet) IsSimplicial() bool    { return true }
func (f *bbFacet) FacetArea() float64    { return f.area }

func (bb *BeneathBeyond) Compute(points [][]float64, dropDimensions []int) ([]Facet, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("hull: no input points")
	}
	var (
		fullDim = len(points[0])
		drop    = make(map[int]bool, len(dropDimensions))
	)
	for _, dim := range dropDimensions {
		if dim < 0 || dim >= fullDim {
			return nil, fmt.Errorf("hull: dropped dimension %d out of range for dimension %d", dim, fullDim)
		}
		drop[dim] = true
	}
	d := fullDim - len(drop)
	if d < 2 {
		return nil, fmt.Errorf("hull: reduced dimension %d too small", d)
	}
	reduced := make([][]float64, len(points))
	for i, pt := range points {
		r := make([]float64, 0, d)
		for j, coord := range pt {
			if !drop[j] {
				r = append(r, coord)
			}
		}
		reduced[i] = r
	}
	if len(reduced) < d+1 {
		return nil, nil
	}

	simplex, ok := bb.initialSimplex(reduced, d)
	if !ok {
		// Affinely dependent input: no full-dimensional hull exists.
		return nil, nil
	}
	interior := make([]float64, d)
	for _, id := range simplex {
		for j := range interior {
			interior[j] += reduced[id][j]
		}
	}
	for j := range interior {
		interior[j] /= float64(len(simplex))
	}

	var working []*bbFacet
	for skip := 0; skip <= d; skip++ {
		ids := make([]int, 0, d)
		for i, id := range simplex {
			if i != skip {
				ids = append(ids, id)
			}
		}
		f := bb.makeFacet(ids, reduced, interior)
		if f == nil {
			return nil, nil
		}
		working = append(working, f)
	}

	inSimplex := make(map[int]bool, d+1)
	for _, id := range simplex {
		inSimplex[id] = true
	}
	for id := range reduced {
		if inSimplex[id] {
			continue
		}
		working = bb.addPoint(id, reduced, interior, working)
	}

	facets := make([]Facet, len(working))
	for i, f := range working {
		facets[i] = f
	}
	return facets, nil
}

// initialSimplex greedily selects d+1 affinely independent points.
func (bb *BeneathBeyond) initialSimplex(reduced [][]float64, d int) (ids []int, ok bool) {
	var basis [][]float64 // orthogonalized edge vectors from ids[0]
	ids = []int{0}
	for cand := 1; cand < len(reduced) && len(ids) < d+1; cand++ {
		edge := make([]float64, d)
		for j := range edge {
			edge[j] = reduced[cand][j] - reduced[ids[0]][j]
		}
		// Gram-Schmidt against the accepted edges.
		for _, b := range basis {
			dot := 0.
			for j := range edge {
				dot += edge[j] * b[j]
			}
			for j := range edge {
				edge[j] -= dot * b[j]
			}
		}
		norm := 0.
		for _, v := range edge {
			norm += v * v
		}
		norm = math.Sqrt(norm)
		if norm <= bb.tol(1) {
			continue
		}
		for j := range edge {
			edge[j] /= norm
		}
		basis = append(basis, edge)
		ids = append(ids, cand)
	}
	return ids, len(ids) == d+1
}

// addPoint performs one beneath-beyond step: replace the facets
// visible from the point with the cone from its horizon ridges.
func (bb *BeneathBeyond) addPoint(id int, reduced [][]float64, interior []float64, working []*bbFacet) []*bbFacet {
	var (
		point   = reduced[id]
		visible = make([]bool, len(working))
		anySeen bool
	)
	for i, f := range working {
		dist := -f.offset
		for j, n := range f.normal {
			dist += n * point[j]
		}
		if dist > bb.tol(f.offset) {
			visible[i] = true
			anySeen = true
		}
	}
	if !anySeen {
		return working
	}
	// A ridge of a visible facet lies on the horizon when its twin
	// facet is not visible; in a closed hull every ridge has exactly
	// two owners, so horizon ridges occur once among the visible set.
	type ridge struct {
		key string
		ids []int
	}
	var (
		ridges     []ridge
		ridgeCount = make(map[string]int)
	)
	for i, f := range working {
		if !visible[i] {
			continue
		}
		for skip := range f.vertices {
			ids := make([]int, 0, len(f.vertices)-1)
			for k, v := range f.vertices {
				if k != skip {
					ids = append(ids, v.id)
				}
			}
			sorted := append([]int{}, ids...)
			sort.Ints(sorted)
			key := fmt.Sprint(sorted)
			if ridgeCount[key] == 0 {
				ridges = append(ridges, ridge{key: key, ids: ids})
			}
			ridgeCount[key]++
		}
	}
	var next []*bbFacet
	for i, f := range working {
		if !visible[i] {
			next = append(next, f)
		}
	}
	for _, r := range ridges {
		if ridgeCount[r.key] != 1 {
			continue
		}
		f := bb.makeFacet(append(append([]int{}, r.ids...), id), reduced, interior)
		if f != nil {
			next = append(next, f)
		}
	}
	return next
}

// makeFacet computes the outward-oriented hyperplane and area of the
// facet spanned by the given vertex ids. Returns nil for a degenerate
// vertex set.
func (bb *BeneathBeyond) makeFacet(ids []int, reduced [][]float64, interior []float64) *bbFacet {
	var (
		d     = len(interior)
		edges = mat.NewDense(d-1, d, nil)
	)
	for i := 1; i < len(ids); i++ {
		for j := 0; j < d; j++ {
			edges.Set(i-1, j, reduced[ids[i]][j]-reduced[ids[0]][j])
		}
	}
	var svd mat.SVD
	if !svd.Factorize(edges, mat.SVDFullV) {
		return nil
	}
	var v mat.Dense
	svd.VTo(&v)
	normal := make([]float64, d)
	for j := 0; j < d; j++ {
		normal[j] = v.At(j, d-1)
	}
	// Degenerate if the edges do not span a (d-1)-space.
	sv := svd.Values(nil)
	if sv[len(sv)-1] <= 1.e-12*(1+sv[0]) {
		return nil
	}
	offset := 0.
	for j := 0; j < d; j++ {
		offset += normal[j] * reduced[ids[0]][j]
	}
	side := -offset
	for j := 0; j < d; j++ {
		side += normal[j] * interior[j]
	}
	if side > 0 {
		for j := range normal {
			normal[j] = -normal[j]
		}
		offset = -offset
	}
	// Area of the (d-1)-simplex: sqrt(det(E*E^T)) / (d-1)!.
	var gram mat.Dense
	gram.Mul(edges, edges.T())
	det := mat.Det(&gram)
	if det < 0 {
		det = 0
	}
	area := math.Sqrt(det)
	for k := 2; k < d; k++ {
		area /= float64(k)
	}
	vertices := make([]bbVertex, len(ids))
	for i, vid := range ids {
		vertices[i] = bbVertex{id: vid, point: reduced[vid]}
	}
	return &bbFacet{vertices: vertices, normal: normal, offset: offset, area: area}
}

func (bb *BeneathBeyond) tol(scale float64) float64 {
	return bb.Tolerance * (1 + math.Abs(scale))
}
