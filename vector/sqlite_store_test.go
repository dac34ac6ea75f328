package vector

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/vecdb/engine"
	"github.com/viant/vecdb/vecerr"
)

func unitVector(axis int) []float32 {
	v := make([]float32, Dimension)
	v[axis%Dimension] = 1
	return v
}

func openTestStore(t *testing.T, opts ...Option) *SQLiteStore {
	t.Helper()
	engine.RegisterVectorFunctions()
	path := filepath.Join(t.TempDir(), "store.db")
	store, err := OpenSQLiteStore(context.Background(), path, engine.DefaultOptions(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func upsert(t *testing.T, store *SQLiteStore, recs ...Record) {
	t.Helper()
	err := store.WithTx(context.Background(), func(tx *sql.Tx) error {
		for _, rec := range recs {
			if _, err := store.Upsert(context.Background(), tx, rec); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	vec := make([]float32, Dimension)
	for i := range vec {
		vec[i] = float32(i) / 1000
	}
	upsert(t, store, Record{ID: "a", Content: "alpha", Embedding: vec})

	rows, err := store.Rows(ctx, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "a", rows[0].ID)
	assert.Equal(t, "alpha", rows[0].Content)
	assert.Len(t, rows[0].Embedding, 4*Dimension)

	decoded, err := DecodeFixed(rows[0].Embedding, Dimension)
	require.NoError(t, err)
	assert.Equal(t, vec, decoded)
}

func TestSQLiteStore_UpsertOverwrite(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	upsert(t, store, Record{ID: "x", Content: "one", Embedding: unitVector(0)})
	upsert(t, store, Record{ID: "x", Content: "two", Embedding: unitVector(1)})

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	rows, err := store.Rows(ctx, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "two", rows[0].Content)
	decoded, err := DecodeFixed(rows[0].Embedding, Dimension)
	require.NoError(t, err)
	assert.Equal(t, unitVector(1), decoded)
}

func TestSQLiteStore_UpsertRejectsWrongDimension(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	err := store.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := store.Upsert(ctx, tx, Record{ID: "short", Content: "c", Embedding: make([]float32, Dimension-1)})
		return err
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, vecerr.ErrValidation))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSQLiteStore_WithTxRollsBack(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := store.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := store.Upsert(ctx, tx, Record{ID: "a", Content: "a", Embedding: unitVector(0)}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSQLiteStore_Nearest(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	opposite := unitVector(0)
	opposite[0] = -1
	upsert(t, store,
		Record{ID: "same", Content: "same", Embedding: unitVector(0)},
		Record{ID: "ortho", Content: "ortho", Embedding: unitVector(1)},
		Record{ID: "opposite", Content: "opposite", Embedding: opposite},
	)

	matches, err := store.Nearest(ctx, engine.DistanceFunction, unitVector(0), 1.0, 5)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "same", matches[0].ID)
	assert.InDelta(t, 0, matches[0].Distance, 1e-6)
	assert.Equal(t, "ortho", matches[1].ID)
	assert.InDelta(t, 1, matches[1].Distance, 1e-6)

	matches, err = store.Nearest(ctx, engine.DistanceFunction, unitVector(0), 2.0, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "same", matches[0].ID)
}

func TestSQLiteStore_RowsLimit(t *testing.T) {
	store := openTestStore(t)
	upsert(t, store,
		Record{ID: "a", Content: "a", Embedding: unitVector(0)},
		Record{ID: "b", Content: "b", Embedding: unitVector(1)},
		Record{ID: "c", Content: "c", Embedding: unitVector(2)},
	)
	rows, err := store.Rows(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestSQLiteStore_Stats(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	st, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, st.Count)
	assert.Zero(t, st.AvgBytes)
	assert.Equal(t, Dimension, st.Dimension)
	assert.Equal(t, DefaultModel, st.Model)

	upsert(t, store,
		Record{ID: "a", Content: "a", Embedding: unitVector(0)},
		Record{ID: "b", Content: "b", Embedding: unitVector(1)},
	)
	st, err = store.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, st.Count)
	assert.InDelta(t, 4*Dimension, st.AvgBytes, 1e-9)
	assert.EqualValues(t, 8*Dimension, st.TotalBytes)
	assert.Positive(t, st.DatabaseBytes)
	require.NoError(t, store.Ping(ctx))
}

func TestSQLiteStore_ModelMetadata(t *testing.T) {
	engine.RegisterVectorFunctions()
	path := filepath.Join(t.TempDir(), "model.db")
	ctx := context.Background()

	first, err := OpenSQLiteStore(ctx, path, engine.DefaultOptions(), WithModel("model-a"))
	require.NoError(t, err)
	assert.Equal(t, "model-a", first.Model())
	require.NoError(t, first.Close())

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	second, err := OpenSQLiteStore(ctx, path, engine.DefaultOptions(), WithModel("model-b"), WithLogger(logger))
	require.NoError(t, err)
	assert.Equal(t, "model-a", second.Model())
	assert.True(t, strings.Contains(buf.String(), "model mismatch"))
	require.NoError(t, second.Close())

	_, err = OpenSQLiteStore(ctx, path, engine.DefaultOptions(), WithModel("model-b"), WithStrictModel(true))
	require.Error(t, err)
	assert.True(t, errors.Is(err, vecerr.ErrStorage))
}

func TestNewSQLiteStore_NilDB(t *testing.T) {
	_, err := NewSQLiteStore(nil)
	require.Error(t, err)
}
