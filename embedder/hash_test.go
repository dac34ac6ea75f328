package embedder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/vecdb/vector"
)

func TestHashBackend(t *testing.T) {
	h := NewHashBackend(vector.Dimension)
	ctx := context.Background()

	out, err := h.Embed(ctx, "the quick brown fox")
	require.NoError(t, err)
	assert.Equal(t, []int{1, vector.Dimension}, out.Dims)
	assert.Len(t, out.Data, vector.Dimension)

	again, err := h.Embed(ctx, "the quick brown fox")
	require.NoError(t, err)
	assert.Equal(t, out.Data, again.Data)

	related, err := h.Embed(ctx, "the quick brown dog")
	require.NoError(t, err)
	unrelated, err := h.Embed(ctx, "sqlite write ahead journaling")
	require.NoError(t, err)

	near, err := vector.CosineDistance(out.Data, related.Data)
	require.NoError(t, err)
	far, err := vector.CosineDistance(out.Data, unrelated.Data)
	require.NoError(t, err)
	assert.Less(t, near, far)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"hello", "world", "42"}, tokenize("Hello, WORLD! 42"))
	assert.Empty(t, tokenize("..."))
}
