package vector

import (
	"fmt"
	"math"

	"github.com/viant/vec/search"
)

// SquaredNorm returns the sum of squares of v accumulated in float64.
func SquaredNorm(v []float32) float64 {
	var s float64
	for _, x := range v {
		f := float64(x)
		s += f * f
	}
	return s
}

// Magnitude returns the L2 norm of v.
func Magnitude(v []float32) float64 {
	return math.Sqrt(SquaredNorm(v))
}

// Normalize scales v to unit length in place. A zero vector is left as is.
// The float32 norm is enough here since the result is stored as float32.
func Normalize(v []float32) {
	if len(v) == 0 {
		return
	}
	norm := search.Float32s(v).Magnitude()
	if norm == 0 || math.IsNaN(float64(norm)) || math.IsInf(float64(norm), 0) {
		return
	}
	for i := range v {
		v[i] /= norm
	}
}

// Dot returns the dot product of two equal-length vectors.
func Dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

// CosineDistanceFrom turns a dot product and the two squared norms into a
// cosine distance clamped to [MinDistance, MaxDistance]. When either norm
// is zero the distance is 0.
func CosineDistanceFrom(dot, sqA, sqB float64) float64 {
	magnitude := math.Sqrt(sqA * sqB)
	if magnitude == 0 {
		return 0
	}
	return ClampDistance(1 - dot/magnitude)
}

// ClampDistance bounds d to the cosine distance range.
func ClampDistance(d float64) float64 {
	switch {
	case d < MinDistance:
		return MinDistance
	case d > MaxDistance:
		return MaxDistance
	}
	return d
}

// CosineDistance computes 1 - cosine similarity between two vectors. It
// returns an error if the vectors have different lengths; a zero-magnitude
// vector yields distance 0.
func CosineDistance(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector: cosine distance dimension mismatch: %d vs %d", len(a), len(b))
	}
	return CosineDistanceFrom(Dot(a, b), SquaredNorm(a), SquaredNorm(b)), nil
}
