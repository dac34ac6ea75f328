package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	require.NoError(t, cfg.Validate())
}

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vecdb.yaml")
	data := `
server:
  addr: ":5000"
  request_timeout: 10s
store:
  path: /tmp/v.db
  max_fallback_rows: 50
embedding:
  provider: openai
  base_url: http://localhost:11434/v1
distance:
  builtin: false
  candidates: [vss]
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":5000", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "/tmp/v.db", cfg.Store.Path)
	assert.Equal(t, 50, cfg.Store.MaxFallbackRows)
	assert.Equal(t, 5*time.Second, cfg.Store.BusyTimeout)
	assert.Equal(t, ProviderOpenAI, cfg.Embedding.Provider)
	assert.False(t, cfg.Distance.Builtin)
	assert.Equal(t, []string{"vss"}, cfg.Distance.Candidates)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("VECDB_DB_PATH", "env.db")
	t.Setenv("VECDB_ADDR", ":7000")
	t.Setenv("VECDB_EMBEDDING_MODEL", "all-minilm")
	t.Setenv("VECDB_MAX_FALLBACK_ROWS", "12")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "env.db", cfg.Store.Path)
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, "all-minilm", cfg.Embedding.Model)
	assert.Equal(t, 12, cfg.Store.MaxFallbackRows)

	t.Setenv("VECDB_MAX_FALLBACK_ROWS", "many")
	_, err = Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Store.MaxFallbackRows = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Embedding.Provider = "onnx"
	assert.Error(t, cfg.Validate())
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.yaml")
	cfg := DefaultConfig()
	cfg.Server.Addr = ":4100"
	require.NoError(t, cfg.Save(path))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
