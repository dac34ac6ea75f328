package engine

import (
	"database/sql/driver"
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	sqlite "modernc.org/sqlite"
)

const (
	// Version is reported by the built-in vec_version() function.
	Version = "v0.1.0-vecdb"

	// VersionFunction and DistanceFunction mirror the names exported by the
	// vec0 loadable extension, so the resolver treats the built-in
	// implementation the same way as a native one.
	VersionFunction  = "vec_version"
	DistanceFunction = "vec_distance_cosine"
)

var registerOnce sync.Once

// RegisterVectorFunctions registers vec_version and vec_distance_cosine with
// the driver so they are available on new connections opened after this
// call. Registration is process-wide and happens at most once.
// Note: existing open connections will not see new functions.
func RegisterVectorFunctions() {
	registerOnce.Do(func() {
		// driver rejects duplicates; a name already taken is fine
		_ = sqlite.RegisterDeterministicScalarFunction(VersionFunction, 0, vecVersionImpl)
		_ = sqlite.RegisterDeterministicScalarFunction(DistanceFunction, 2, vecDistanceCosineImpl)
	})
}

func vecVersionImpl(_ *sqlite.FunctionContext, _ []driver.Value) (driver.Value, error) {
	return Version, nil
}

func asEmbedding(arg driver.Value) ([]float32, error) {
	switch v := arg.(type) {
	case nil:
		return nil, nil
	case []byte:
		return decodeEmbedding(v)
	default:
		return nil, fmt.Errorf("vec: unsupported argument type %T for embedding; want BLOB", arg)
	}
}

func vecDistanceCosineImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("%s: expected 2 arguments, got %d", DistanceFunction, len(args))
	}
	a, err := asEmbedding(args[0])
	if err != nil {
		return nil, err
	}
	b, err := asEmbedding(args[1])
	if err != nil {
		return nil, err
	}
	if a == nil || b == nil {
		return nil, nil
	}
	return cosineDistance(a, b)
}

// Local minimal helpers to avoid import cycles in tests.
func decodeEmbedding(b []byte) ([]float32, error) {
	if len(b) == 0 {
		return nil, nil
	}
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("vec: invalid embedding blob length %d", len(b))
	}
	n := len(b) / 4
	v := make([]float32, n)
	for i := 0; i < n; i++ {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}

// cosineDistance returns 1 - cos(a, b) clamped to [0, 2]; a zero-magnitude
// operand yields 0.
func cosineDistance(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vec: cosine dim mismatch %d vs %d", len(a), len(b))
	}
	var dot, na2, nb2 float64
	for i := range a {
		va := float64(a[i])
		vb := float64(b[i])
		dot += va * vb
		na2 += va * va
		nb2 += vb * vb
	}
	magnitude := math.Sqrt(na2 * nb2)
	if magnitude == 0 {
		return 0, nil
	}
	d := 1 - dot/magnitude
	switch {
	case d < 0:
		return 0, nil
	case d > 2:
		return 2, nil
	}
	return d, nil
}
