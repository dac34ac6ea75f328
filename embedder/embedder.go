package embedder

import (
	"context"
	"io"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/viant/vecdb/vecerr"
	"github.com/viant/vecdb/vector"
)

// Embedder is the shared embedding provider. The backend is loaded on the
// first Embed or Ready call and reused afterwards.
type Embedder struct {
	factory   Factory
	model     string
	dimension int
	logger    *slog.Logger

	mu      sync.Mutex
	backend Backend
}

// Option configures an Embedder.
type Option func(*Embedder)

// WithModel sets the model identifier reported by Model.
func WithModel(model string) Option {
	return func(e *Embedder) { e.model = model }
}

// WithDimension overrides the expected vector dimension.
func WithDimension(dim int) Option {
	return func(e *Embedder) { e.dimension = dim }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Embedder) { e.logger = logger }
}

// New creates an Embedder whose backend is produced by factory on first use.
func New(factory Factory, opts ...Option) *Embedder {
	e := &Embedder{factory: factory, model: vector.DefaultModel, dimension: vector.Dimension}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Model returns the configured model identifier.
func (e *Embedder) Model() string { return e.model }

// Dimension returns the expected vector dimension.
func (e *Embedder) Dimension() int { return e.dimension }

// Ready loads the backend if needed.
func (e *Embedder) Ready(ctx context.Context) error {
	_, err := e.load(ctx)
	return err
}

// Loaded reports whether the backend has been created.
func (e *Embedder) Loaded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.backend != nil
}

func (e *Embedder) load(ctx context.Context) (Backend, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.backend != nil {
		return e.backend, nil
	}
	if e.factory == nil {
		return nil, vecerr.Provider("load", nil, "no embedding backend configured")
	}
	started := time.Now()
	b, err := e.factory(ctx)
	if err != nil {
		return nil, vecerr.Provider("load", err, "failed to load embedding model %s", e.model)
	}
	e.backend = b
	e.logger.Info("embedding model loaded", "model", e.model, "duration", time.Since(started))
	return b, nil
}

// Embed returns the unit-normalized embedding of text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, vecerr.Validation("embed", "text must be a non-empty string")
	}
	b, err := e.load(ctx)
	if err != nil {
		return nil, err
	}
	out, err := b.Embed(ctx, text)
	if err != nil {
		if vecerr.KindOf(err) != "" {
			return nil, err
		}
		return nil, vecerr.Provider("embed", err, "embedding failed")
	}
	return e.decode(out)
}

// decode validates the raw output shape and returns the first pooled
// vector, L2-normalized.
func (e *Embedder) decode(out *Output) ([]float32, error) {
	if out == nil || len(out.Data) == 0 {
		return nil, vecerr.Provider("embed", nil, "model output is missing data")
	}
	if len(out.Dims) != 2 {
		return nil, vecerr.Provider("embed", nil, "model output has shape %v, want [batch dim]", out.Dims)
	}
	batch, dim := out.Dims[0], out.Dims[1]
	if batch < 1 || dim < 1 {
		return nil, vecerr.Provider("embed", nil, "model output has invalid shape %v", out.Dims)
	}
	if dim != e.dimension {
		return nil, vecerr.Provider("embed", nil, "model produced %d dimensions, want %d", dim, e.dimension)
	}
	if len(out.Data) < dim {
		return nil, vecerr.Provider("embed", nil, "model output has %d values, want at least %d", len(out.Data), dim)
	}
	vec := make([]float32, dim)
	copy(vec, out.Data[:dim])
	for _, v := range vec {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return nil, vecerr.Provider("embed", nil, "model output contains non-finite values")
		}
	}
	vector.Normalize(vec)
	return vec, nil
}

// Close releases the backend when it holds resources.
func (e *Embedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if c, ok := e.backend.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
