package embedder

import "context"

// Output is raw model output for a single input: Data holds Dims[0]
// pooled vectors of Dims[1] components each, laid out row-major.
type Output struct {
	Data []float32
	Dims []int
}

// Backend computes an embedding for one text.
type Backend interface {
	Embed(ctx context.Context, text string) (*Output, error)
}

// BackendFunc adapts a function to Backend.
type BackendFunc func(ctx context.Context, text string) (*Output, error)

// Embed calls f.
func (f BackendFunc) Embed(ctx context.Context, text string) (*Output, error) { return f(ctx, text) }

// Factory creates a Backend. It runs at most once successfully per
// Embedder; a failed attempt is retried on the next call.
type Factory func(ctx context.Context) (Backend, error)

// Static returns a Factory that always yields b.
func Static(b Backend) Factory {
	return func(context.Context) (Backend, error) { return b, nil }
}
