package search

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/viant/vecdb/index/bruteforce"
	"github.com/viant/vecdb/metrics"
	"github.com/viant/vecdb/resolver"
	"github.com/viant/vecdb/vecerr"
	"github.com/viant/vecdb/vector"
)

const (
	// DefaultTopK is used when a query does not set TopK.
	DefaultTopK = 5
	// MaxTopK bounds TopK.
	MaxTopK = 100
	// DefaultThreshold is used when a query does not set Threshold.
	DefaultThreshold = 1.0
	// DefaultMaxFallbackRows is the fallback path row ceiling.
	DefaultMaxFallbackRows = 10000
)

// Embedder turns query text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// StrategyResolver selects the search path.
type StrategyResolver interface {
	Resolve(ctx context.Context) resolver.Strategy
}

// Query is a search request. Exactly one of Text and Vector must be set.
// Nil TopK and Threshold take the defaults.
type Query struct {
	Text      string
	Vector    []float32
	TopK      *int
	Threshold *float64
}

// Result holds ranked matches and the path that produced them.
type Result struct {
	Matches []vector.Match `json:"matches"`
	Method  string         `json:"method"`
	// Function is the native SQL function used, empty on the fallback path.
	Function  string  `json:"function,omitempty"`
	TopK      int     `json:"topK"`
	Threshold float64 `json:"threshold"`
}

// Engine runs similarity searches.
type Engine struct {
	store           vector.Store
	embedder        Embedder
	resolver        StrategyResolver
	maxFallbackRows int
	dimension       int
	logger          *slog.Logger
	metrics         metrics.Collector
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxFallbackRows sets the fallback row ceiling.
func WithMaxFallbackRows(n int) Option {
	return func(e *Engine) { e.maxFallbackRows = n }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m metrics.Collector) Option {
	return func(e *Engine) { e.metrics = m }
}

// New creates an Engine.
func New(store vector.Store, embedder Embedder, r StrategyResolver, opts ...Option) *Engine {
	e := &Engine{
		store:           store,
		embedder:        embedder,
		resolver:        r,
		maxFallbackRows: DefaultMaxFallbackRows,
		dimension:       vector.Dimension,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.metrics == nil {
		e.metrics = metrics.Noop{}
	}
	return e
}

// MaxFallbackRows returns the fallback row ceiling.
func (e *Engine) MaxFallbackRows() int { return e.maxFallbackRows }

// Validate checks q and returns the effective topK and threshold. It never
// touches the store or the embedder.
func (e *Engine) Validate(q Query) (int, float64, error) {
	hasText := strings.TrimSpace(q.Text) != ""
	hasVector := q.Vector != nil
	switch {
	case !hasText && !hasVector:
		return 0, 0, vecerr.Validation("search", "either queryText or queryEmbedding must be provided")
	case hasText && hasVector:
		return 0, 0, vecerr.Validation("search", "provide exactly one of queryText or queryEmbedding")
	}

	topK := DefaultTopK
	if q.TopK != nil {
		topK = *q.TopK
	}
	if topK < 1 || topK > MaxTopK {
		return 0, 0, vecerr.Validation("search", "topK must be between 1 and %d, got %d", MaxTopK, topK)
	}
	threshold := DefaultThreshold
	if q.Threshold != nil {
		threshold = *q.Threshold
	}
	if math.IsNaN(threshold) || threshold < vector.MinDistance || threshold > vector.MaxDistance {
		return 0, 0, vecerr.Validation("search", "threshold must be between %g and %g", vector.MinDistance, vector.MaxDistance)
	}

	if hasVector {
		if len(q.Vector) != e.dimension {
			return 0, 0, vecerr.Validation("search", "queryEmbedding must have exactly %d dimensions, got %d", e.dimension, len(q.Vector))
		}
		for i, v := range q.Vector {
			if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
				return 0, 0, vecerr.Validation("search", "queryEmbedding[%d] is not a finite number", i)
			}
		}
	}
	return topK, threshold, nil
}

// Search validates q, embeds the query text when needed and returns up to
// topK matches with distance <= threshold.
func (e *Engine) Search(ctx context.Context, q Query) (result *Result, err error) {
	started := time.Now()
	method := ""
	defer func() {
		n := 0
		if result != nil {
			n = len(result.Matches)
		}
		e.metrics.RecordSearch(method, n, time.Since(started), err)
	}()

	topK, threshold, err := e.Validate(q)
	if err != nil {
		return nil, err
	}
	query := q.Vector
	if query == nil {
		if query, err = e.embedder.Embed(ctx, q.Text); err != nil {
			return nil, err
		}
	}

	strategy := e.resolver.Resolve(ctx)
	method = strategy.Method()
	var matches []vector.Match
	if strategy.Native {
		matches, err = e.store.Nearest(ctx, strategy.Function, query, threshold, topK)
	} else {
		matches, err = e.fallback(ctx, query, threshold, topK)
	}
	if err != nil {
		return nil, err
	}
	if matches == nil {
		matches = []vector.Match{}
	}
	result = &Result{Matches: matches, Method: method, TopK: topK, Threshold: threshold}
	if strategy.Native {
		result.Function = strategy.Function
	}
	return result, nil
}

func (e *Engine) fallback(ctx context.Context, query []float32, threshold float64, topK int) ([]vector.Match, error) {
	count, err := e.store.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count > int64(e.maxFallbackRows) {
		return nil, e.limitError(count)
	}
	rows, err := e.store.Rows(ctx, e.maxFallbackRows+1)
	if err != nil {
		return nil, err
	}
	// rows may have been added since Count
	if len(rows) > e.maxFallbackRows {
		return nil, e.limitError(int64(len(rows)))
	}

	ids := make([]string, 0, len(rows))
	vectors := make([][]float32, 0, len(rows))
	contents := make(map[string]string, len(rows))
	for _, row := range rows {
		vec, err := vector.DecodeFixed(row.Embedding, e.dimension)
		if err != nil {
			e.logger.Warn("skipping undecodable embedding", "id", row.ID, "error", err)
			continue
		}
		ids = append(ids, row.ID)
		vectors = append(vectors, vec)
		contents[row.ID] = row.Content
	}

	var idx bruteforce.Index
	if err := idx.Build(ids, vectors); err != nil {
		return nil, vecerr.Storage("search", err)
	}
	hitIDs, distances, err := idx.Query(query, topK, threshold)
	if err != nil {
		return nil, vecerr.Validation("search", "%v", err)
	}
	matches := make([]vector.Match, len(hitIDs))
	for i, id := range hitIDs {
		matches[i] = vector.Match{ID: id, Content: contents[id], Distance: distances[i]}
	}
	return matches, nil
}

func (e *Engine) limitError(count int64) error {
	return vecerr.ResourceLimit("search",
		"database has %d rows, exceeding the fallback limit of %d; install a native vector extension (vec0, sqlite-vss or vss) for large datasets",
		count, e.maxFallbackRows)
}
