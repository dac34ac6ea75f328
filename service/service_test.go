package service

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/vecdb/config"
	"github.com/viant/vecdb/embedder"
	"github.com/viant/vecdb/logging"
	"github.com/viant/vecdb/search"
	"github.com/viant/vecdb/vecerr"
	"github.com/viant/vecdb/writer"
)

func testConfig(t *testing.T) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Store.Path = filepath.Join(t.TempDir(), "service.db")
	return cfg
}

func TestService_EndToEnd(t *testing.T) {
	ctx := context.Background()
	svc, err := New(ctx, testConfig(t), logging.Discard())
	require.NoError(t, err)
	defer svc.Close()

	_, err = svc.Writer.InsertBatch(ctx, []writer.Item{
		{ID: "a", Text: "hello world"},
		{ID: "b", Text: "goodbye moon"},
	})
	require.NoError(t, err)

	res, err := svc.Search.Search(ctx, search.Query{Text: "hello world"})
	require.NoError(t, err)
	require.NotEmpty(t, res.Matches)
	assert.Equal(t, "a", res.Matches[0].ID)
	assert.Equal(t, "native", res.Method)

	h, err := svc.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "healthy", h.Status)
	assert.Equal(t, "vec_distance_cosine", h.VectorFunction)
	assert.NotNil(t, svc.Registry)
}

func TestService_FallbackWithoutCandidates(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Distance.Candidates = []string{"unknown"}
	svc, err := New(ctx, cfg, logging.Discard())
	require.NoError(t, err)
	defer svc.Close()

	h, err := svc.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "fallback_mode", h.VectorFunction)
}

func TestService_InvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Embedding.Provider = "nope"
	_, err := New(context.Background(), cfg, nil)
	require.Error(t, err)
}

func TestBackendFactory_Cache(t *testing.T) {
	cfg := config.DefaultConfig().Embedding
	cfg.CachePath = filepath.Join(t.TempDir(), "cache.bolt")
	factory, err := BackendFactory(cfg)
	require.NoError(t, err)
	b, err := factory(context.Background())
	require.NoError(t, err)
	out, err := b.Embed(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 384}, out.Dims)
	if closer, ok := b.(interface{ Close() error }); ok {
		require.NoError(t, closer.Close())
	}
}

func TestService_CancelledRequestKeepsNativePath(t *testing.T) {
	ctx := context.Background()
	svc, err := New(ctx, testConfig(t), logging.Discard())
	require.NoError(t, err)
	defer svc.Close()

	_, err = svc.Writer.Insert(ctx, writer.Item{ID: "a", Text: "hello world"})
	require.NoError(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, _ = svc.Search.Search(cancelled, search.Query{Text: "hello world"})

	res, err := svc.Search.Search(ctx, search.Query{Text: "hello world"})
	require.NoError(t, err)
	assert.Equal(t, "native", res.Method)
	h, err := svc.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "vec_distance_cosine", h.VectorFunction)
}

func TestService_HashModelRecorded(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	svc, err := New(ctx, cfg, logging.Discard())
	require.NoError(t, err)
	_, err = svc.Writer.Insert(ctx, writer.Item{ID: "a", Text: "hello world"})
	require.NoError(t, err)
	assert.Equal(t, embedder.HashModel, svc.Store.Model())
	assert.Equal(t, embedder.HashModel, svc.Embedder.Model())
	require.NoError(t, svc.Close())

	reopened := *cfg
	reopened.Embedding.Provider = config.ProviderOpenAI
	var logs bytes.Buffer
	logger, err := logging.NewWriter(&logs, "warn", "text")
	require.NoError(t, err)
	svc, err = New(ctx, &reopened, logger)
	require.NoError(t, err)
	assert.Equal(t, embedder.HashModel, svc.Store.Model())
	assert.Contains(t, logs.String(), "model mismatch")
	require.NoError(t, svc.Close())

	reopened.Store.StrictModel = true
	_, err = New(ctx, &reopened, logging.Discard())
	require.Error(t, err)
	assert.Equal(t, vecerr.KindStorage, vecerr.KindOf(err))
}

func TestModelName(t *testing.T) {
	cfg := config.DefaultConfig().Embedding
	assert.Equal(t, embedder.HashModel, ModelName(cfg))
	cfg.Provider = config.ProviderOpenAI
	assert.Equal(t, cfg.Model, ModelName(cfg))
}
