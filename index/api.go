package index

// Index defines an in-process vector index over (id, embedding) pairs
// ranked by cosine distance.
type Index interface {
	// Build constructs the index from the given ids and vectors.
	// ids and vectors must have the same length and every vector the same
	// dimension.
	Build(ids []string, vectors [][]float32) error

	// Query returns up to k entries whose cosine distance to query is at
	// most threshold, as parallel slices of ids and distances in ascending
	// distance order. Ties are broken by id.
	Query(query []float32, k int, threshold float64) (ids []string, distances []float64, err error)

	// Len returns the number of indexed vectors.
	Len() int
}
