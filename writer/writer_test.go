package writer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/vecdb/embedder"
	"github.com/viant/vecdb/engine"
	"github.com/viant/vecdb/metrics"
	"github.com/viant/vecdb/vecerr"
	"github.com/viant/vecdb/vector"
)

func openStore(t *testing.T) *vector.SQLiteStore {
	t.Helper()
	store, err := vector.OpenSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "writer.db"), engine.DefaultOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// countingEmbedder wraps the hash backend and counts calls.
type countingEmbedder struct {
	inner *embedder.Embedder
	calls int32
	fail  string
	short string
}

func newCountingEmbedder() *countingEmbedder {
	return &countingEmbedder{inner: embedder.New(embedder.Static(embedder.NewHashBackend(vector.Dimension)))}
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	atomic.AddInt32(&c.calls, 1)
	if text == c.fail {
		return nil, vecerr.Provider("embed", errors.New("model crashed"), "embedding failed")
	}
	if text == c.short {
		return make([]float32, 3), nil
	}
	return c.inner.Embed(ctx, text)
}

func count(t *testing.T, store *vector.SQLiteStore) int64 {
	t.Helper()
	n, err := store.Count(context.Background())
	require.NoError(t, err)
	return n
}

func TestWriter_InsertBatch(t *testing.T) {
	store := openStore(t)
	var collected metrics.Basic
	w := New(store, newCountingEmbedder(), WithMetrics(&collected))

	res, err := w.InsertBatch(context.Background(), []Item{
		{ID: "a", Text: "alpha"},
		{ID: "b", Text: "beta"},
		{ID: "c", Text: "gamma"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Inserted)
	assert.EqualValues(t, 3, res.Changes)
	assert.EqualValues(t, 3, count(t, store))
	assert.EqualValues(t, 3, collected.Rows.Load())
	assert.EqualValues(t, 3, collected.InsertItems.Load())
}

func TestWriter_BatchAtomicity(t *testing.T) {
	store := openStore(t)
	emb := newCountingEmbedder()
	w := New(store, emb)

	_, err := w.InsertBatch(context.Background(), []Item{
		{ID: "a", Text: "alpha"},
		{ID: "b", Text: "beta"},
		{ID: "c", Text: "gamma"},
		{ID: "d"},
	})
	require.Error(t, err)
	assert.Equal(t, vecerr.KindValidation, vecerr.KindOf(err))
	assert.Zero(t, count(t, store))
	assert.Zero(t, atomic.LoadInt32(&emb.calls))
}

func TestWriter_EmbeddingFailureWritesNothing(t *testing.T) {
	store := openStore(t)
	emb := newCountingEmbedder()
	emb.fail = "beta"
	w := New(store, emb)

	_, err := w.InsertBatch(context.Background(), []Item{
		{ID: "a", Text: "alpha"},
		{ID: "b", Text: "beta"},
	})
	require.Error(t, err)
	assert.Equal(t, vecerr.KindProvider, vecerr.KindOf(err))
	assert.Zero(t, count(t, store))
}

func TestWriter_WriteFailureRollsBack(t *testing.T) {
	store := openStore(t)
	emb := newCountingEmbedder()
	emb.short = "bad"
	w := New(store, emb, WithConcurrency(1))

	_, err := w.InsertBatch(context.Background(), []Item{
		{ID: "a", Text: "alpha"},
		{ID: "b", Text: "beta"},
		{ID: "z", Text: "bad"},
	})
	require.Error(t, err)
	assert.Zero(t, count(t, store))
}

func TestWriter_Validate(t *testing.T) {
	tooMany := make([]Item, MaxBatch+1)
	for i := range tooMany {
		tooMany[i] = Item{ID: fmt.Sprint(i), Text: "t"}
	}
	full := tooMany[:MaxBatch]
	assert.Error(t, Validate(nil))
	assert.Error(t, Validate(tooMany))
	assert.Error(t, Validate([]Item{{Text: "no id"}}))
	assert.Error(t, Validate([]Item{{ID: "x", Text: "  "}}))
	assert.NoError(t, Validate(full))
}

func TestWriter_InsertOverwrite(t *testing.T) {
	store := openStore(t)
	w := New(store, newCountingEmbedder())
	ctx := context.Background()

	res, err := w.Insert(ctx, Item{ID: "x", Text: "first"})
	require.NoError(t, err)
	assert.Equal(t, "x", res.ID)
	assert.Equal(t, vector.Dimension, res.Dimension)
	assert.EqualValues(t, 1, res.Changes)

	_, err = w.Insert(ctx, Item{ID: "x", Text: "second"})
	require.NoError(t, err)

	rows, err := store.Rows(ctx, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "second", rows[0].Content)
}
