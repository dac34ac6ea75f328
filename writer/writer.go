// Package writer inserts texts into the vector store. Every call validates
// its whole input first, computes all embeddings next and finally writes
// every row inside one transaction, so a failed batch leaves no rows behind.
package writer

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	"github.com/viant/vecdb/metrics"
	"github.com/viant/vecdb/vecerr"
	"github.com/viant/vecdb/vector"
	"golang.org/x/sync/errgroup"
)

const (
	// MaxBatch bounds the number of items per InsertBatch call.
	MaxBatch = 100
	// DefaultConcurrency bounds concurrent embedding calls per batch.
	DefaultConcurrency = 4
)

// Item is a text to embed and store under ID.
type Item struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// BatchResult summarizes a committed batch.
type BatchResult struct {
	Inserted int
	Changes  int64
}

// InsertResult summarizes a committed single insert.
type InsertResult struct {
	ID        string
	Dimension int
	Changes   int64
}

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Writer is the transactional batch writer.
type Writer struct {
	store       vector.Store
	embedder    Embedder
	concurrency int
	logger      *slog.Logger
	metrics     metrics.Collector
}

// Option configures a Writer.
type Option func(*Writer)

// WithConcurrency bounds concurrent embedding calls.
func WithConcurrency(n int) Option {
	return func(w *Writer) { w.concurrency = n }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Writer) { w.logger = logger }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m metrics.Collector) Option {
	return func(w *Writer) { w.metrics = m }
}

// New creates a Writer.
func New(store vector.Store, embedder Embedder, opts ...Option) *Writer {
	w := &Writer{store: store, embedder: embedder, concurrency: DefaultConcurrency}
	for _, opt := range opts {
		opt(w)
	}
	if w.concurrency < 1 {
		w.concurrency = 1
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	if w.metrics == nil {
		w.metrics = metrics.Noop{}
	}
	return w
}

// Validate checks a batch without side effects.
func Validate(items []Item) error {
	if len(items) == 0 {
		return vecerr.Validation("insert", "items must be a non-empty array")
	}
	if len(items) > MaxBatch {
		return vecerr.Validation("insert", "batch size must not exceed %d items, got %d", MaxBatch, len(items))
	}
	for i, item := range items {
		if item.ID == "" || strings.TrimSpace(item.Text) == "" {
			return vecerr.Validation("insert", "item %d: each item must have id and text", i)
		}
	}
	return nil
}

// Insert stores a single item in its own transaction.
func (w *Writer) Insert(ctx context.Context, item Item) (*InsertResult, error) {
	res, err := w.InsertBatch(ctx, []Item{item})
	if err != nil {
		return nil, err
	}
	return &InsertResult{ID: item.ID, Dimension: vector.Dimension, Changes: res.Changes}, nil
}

// InsertBatch stores up to MaxBatch items atomically.
func (w *Writer) InsertBatch(ctx context.Context, items []Item) (result *BatchResult, err error) {
	started := time.Now()
	defer func() { w.metrics.RecordInsert(len(items), time.Since(started), err) }()

	if err := Validate(items); err != nil {
		return nil, err
	}
	embeddings, err := w.embed(ctx, items)
	if err != nil {
		return nil, err
	}

	var changes int64
	err = w.store.WithTx(ctx, func(tx *sql.Tx) error {
		for i, item := range items {
			n, err := w.store.Upsert(ctx, tx, vector.Record{ID: item.ID, Content: item.Text, Embedding: embeddings[i]})
			if err != nil {
				return err
			}
			changes += n
		}
		return nil
	})
	if err != nil {
		w.logger.Error("batch insert rolled back", "items", len(items), "error", err)
		return nil, err
	}
	if count, err := w.store.Count(ctx); err == nil {
		w.metrics.SetRows(count)
	}
	w.logger.Debug("batch inserted", "items", len(items), "changes", changes, "duration", time.Since(started))
	return &BatchResult{Inserted: len(items), Changes: changes}, nil
}

func (w *Writer) embed(ctx context.Context, items []Item) ([][]float32, error) {
	embeddings := make([][]float32, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for i, item := range items {
		g.Go(func() error {
			vec, err := w.embedder.Embed(gctx, item.Text)
			if err != nil {
				return err
			}
			embeddings[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return embeddings, nil
}
