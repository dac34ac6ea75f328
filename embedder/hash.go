package embedder

import (
	"context"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

// HashModel is the model identifier of the hash backend.
const HashModel = "hash-xxhash64"

// HashBackend is a deterministic local backend. Each lowercased word token
// is hashed into one of Dimension buckets with a sign taken from the hash,
// and the token vectors are mean-pooled. Equal texts always produce equal
// vectors and texts sharing words produce nearby ones.
type HashBackend struct {
	Dimension int
}

// NewHashBackend returns a hash backend producing dim-sized vectors.
func NewHashBackend(dim int) *HashBackend {
	return &HashBackend{Dimension: dim}
}

// Embed implements Backend.
func (h *HashBackend) Embed(ctx context.Context, text string) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data := make([]float32, h.Dimension)
	tokens := tokenize(text)
	for _, token := range tokens {
		sum := xxhash.Sum64String(token)
		bucket := int(sum % uint64(h.Dimension))
		if sum>>63 == 1 {
			data[bucket]--
		} else {
			data[bucket]++
		}
	}
	if n := len(tokens); n > 0 {
		for i := range data {
			data[i] /= float32(n)
		}
	}
	return &Output{Data: data, Dims: []int{1, h.Dimension}}, nil
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
