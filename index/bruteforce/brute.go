package bruteforce

import (
	"fmt"
	"math"
	"sort"

	"github.com/viant/vecdb/index"
	"github.com/viant/vecdb/vector"
)

// Index is a brute-force vector index ranked by cosine distance.
type Index struct {
	ids  []string
	vecs [][]float32
	dim  int
	// squared norms
	norms []float64
}

// Build loads ids and vectors and precomputes squared norms.
func (i *Index) Build(ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("bruteforce: ids and vectors length mismatch: %d != %d", len(ids), len(vectors))
	}
	if len(ids) == 0 {
		i.ids, i.vecs, i.norms, i.dim = nil, nil, nil, 0
		return nil
	}
	dim := len(vectors[0])
	for j := range vectors {
		if len(vectors[j]) != dim {
			return fmt.Errorf("bruteforce: inconsistent vector dims %d vs %d", len(vectors[j]), dim)
		}
	}
	norms := make([]float64, len(vectors))
	for j := range vectors {
		norms[j] = vector.SquaredNorm(vectors[j])
	}
	i.ids = append([]string(nil), ids...)
	i.vecs = append([][]float32(nil), vectors...)
	i.dim = dim
	i.norms = norms
	return nil
}

// Len returns the number of indexed vectors.
func (i *Index) Len() int { return len(i.ids) }

// Query returns the top-k entries with distance <= threshold. A zero
// magnitude on either side yields distance 0.
func (i *Index) Query(query []float32, k int, threshold float64) ([]string, []float64, error) {
	if i.dim == 0 || len(i.vecs) == 0 {
		return nil, nil, nil
	}
	if len(query) != i.dim {
		return nil, nil, fmt.Errorf("bruteforce: query dim %d != index dim %d", len(query), i.dim)
	}
	qn := vector.SquaredNorm(query)
	type scored struct {
		idx      int
		distance float64
	}
	scoreds := make([]scored, 0, len(i.vecs))
	for j := range i.vecs {
		d := vector.CosineDistanceFrom(vector.Dot(query, i.vecs[j]), qn, i.norms[j])
		if math.IsNaN(d) || d > threshold {
			continue
		}
		scoreds = append(scoreds, scored{idx: j, distance: d})
	}
	sort.SliceStable(scoreds, func(a, b int) bool {
		if scoreds[a].distance != scoreds[b].distance {
			return scoreds[a].distance < scoreds[b].distance
		}
		return i.ids[scoreds[a].idx] < i.ids[scoreds[b].idx]
	})
	if k <= 0 || k > len(scoreds) {
		k = len(scoreds)
	}
	outIDs := make([]string, k)
	outDistances := make([]float64, k)
	for n := 0; n < k; n++ {
		outIDs[n] = i.ids[scoreds[n].idx]
		outDistances[n] = scoreds[n].distance
	}
	return outIDs, outDistances, nil
}

var _ index.Index = (*Index)(nil)
