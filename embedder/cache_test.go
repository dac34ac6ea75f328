package embedder

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/vecdb/vector"
)

func TestCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.bolt")
	var calls int32
	hash := NewHashBackend(vector.Dimension)
	counting := BackendFunc(func(ctx context.Context, text string) (*Output, error) {
		atomic.AddInt32(&calls, 1)
		return hash.Embed(ctx, text)
	})

	e := New(CachedFactory(path, "m", Static(counting)))
	ctx := context.Background()
	first, err := e.Embed(ctx, "cached text")
	require.NoError(t, err)
	second, err := e.Embed(ctx, "cached text")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	require.NoError(t, e.Close())

	// entries survive reopening
	c, err := NewCache(path, "m", counting)
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, 1, c.Len())
	_, err = c.Embed(ctx, "cached text")
	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))

	// a different model does not share entries
	other, err := NewCache(filepath.Join(t.TempDir(), "other.bolt"), "other", counting)
	require.NoError(t, err)
	defer other.Close()
	_, err = other.Embed(ctx, "cached text")
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}
