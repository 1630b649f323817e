package hull

// Vertex is one corner of a facet returned by the hull engine.
// Point returns the reduced coordinates: the input point with the
// dropped dimensions removed.
type Vertex interface {
	PointID() int
	Point() []float64
}

// Facet mirrors the facet surface of a Qhull-style engine.
// Hyperplane returns the outward unit normal over the reduced
// coordinate set; the energy axis is its last component.
type Facet interface {
	Vertices() []Vertex
	Hyperplane() []float64
	IsDefined() bool
	IsGood() bool
	IsSimplicial() bool
	FacetArea() float64
}

// Engine computes the convex hull of N points of dimension D+1,
// ignoring the listed dimensions so it operates on a full-rank
// coordinate set. An engine returns nil facets (no error) when the
// input is too small or too degenerate to span a hull; callers treat
// that as "no composition variance".
type Engine interface {
	Compute(points [][]float64, dropDimensions []int) ([]Facet, error)
}
