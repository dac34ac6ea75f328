package bruteforce

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndex_Query(t *testing.T) {
	var idx Index
	err := idx.Build(
		[]string{"c", "a", "b", "z", "o"},
		[][]float32{
			{0, 1, 0},
			{1, 0, 0},
			{1, 0, 0},
			{0, 0, 0},
			{-1, 0, 0},
		},
	)
	require.NoError(t, err)
	assert.Equal(t, 5, idx.Len())

	ids, distances, err := idx.Query([]float32{2, 0, 0}, 10, 1.0)
	require.NoError(t, err)
	// zero vector yields distance 0 and ties are ordered by id
	assert.Equal(t, []string{"a", "b", "z", "c"}, ids)
	require.Len(t, distances, 4)
	assert.InDelta(t, 0, distances[0], 1e-6)
	assert.InDelta(t, 0, distances[2], 1e-6)
	assert.InDelta(t, 1, distances[3], 1e-6)

	ids, _, err = idx.Query([]float32{1, 0, 0}, 2, 2.0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	ids, distances, err = idx.Query([]float32{1, 0, 0}, 10, 2.0)
	require.NoError(t, err)
	assert.Len(t, ids, 5)
	assert.Equal(t, "o", ids[4])
	assert.InDelta(t, 2, distances[4], 1e-6)
}

func TestIndex_Errors(t *testing.T) {
	var idx Index
	require.Error(t, idx.Build([]string{"a"}, nil))
	require.Error(t, idx.Build([]string{"a", "b"}, [][]float32{{1, 0}, {1}}))

	require.NoError(t, idx.Build(nil, nil))
	ids, _, err := idx.Query([]float32{1}, 3, 1)
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, idx.Build([]string{"a"}, [][]float32{{1, 0}}))
	_, _, err = idx.Query([]float32{1, 0, 0}, 1, 1)
	require.Error(t, err)
}
