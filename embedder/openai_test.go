package embedder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/vecdb/vecerr"
	"github.com/viant/vecdb/vector"
)

func embeddingServer(t *testing.T, dim int, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "all-minilm", req.Model)
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"down"}}`))
			return
		}
		vec := make([]float32, dim)
		vec[0] = 2
		_ = json.NewEncoder(w).Encode(embeddingResponse{Data: []embeddingData{{Embedding: vec, Index: 0}}})
	}))
}

func TestOpenAIBackend(t *testing.T) {
	t.Setenv("VECDB_TEST_KEY", "secret")
	srv := embeddingServer(t, vector.Dimension, http.StatusOK)
	defer srv.Close()

	e := New(OpenAIFactory(OpenAIConfig{BaseURL: srv.URL + "/", Model: "all-minilm", APIKeyEnv: "VECDB_TEST_KEY", Warmup: true}))
	vec, err := e.Embed(context.Background(), "hello")
	require.NoError(t, err)
	require.Len(t, vec, vector.Dimension)
	assert.InDelta(t, 1, vec[0], 1e-6)
}

func TestOpenAIBackend_WrongDimension(t *testing.T) {
	t.Setenv("VECDB_TEST_KEY", "secret")
	srv := embeddingServer(t, 768, http.StatusOK)
	defer srv.Close()

	e := New(OpenAIFactory(OpenAIConfig{BaseURL: srv.URL, Model: "all-minilm", APIKeyEnv: "VECDB_TEST_KEY"}))
	_, err := e.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.Equal(t, vecerr.KindProvider, vecerr.KindOf(err))
}

func TestOpenAIBackend_HTTPError(t *testing.T) {
	t.Setenv("VECDB_TEST_KEY", "secret")
	srv := embeddingServer(t, vector.Dimension, http.StatusInternalServerError)
	defer srv.Close()

	b, err := NewOpenAIBackend(OpenAIConfig{BaseURL: srv.URL, Model: "all-minilm", APIKeyEnv: "VECDB_TEST_KEY"})
	require.NoError(t, err)
	_, err = b.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestOpenAIBackend_MissingKey(t *testing.T) {
	t.Setenv("VECDB_MISSING_KEY", "")
	_, err := NewOpenAIBackend(OpenAIConfig{APIKeyEnv: "VECDB_MISSING_KEY"})
	require.Error(t, err)
}
