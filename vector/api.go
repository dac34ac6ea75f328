package vector

import (
	"context"
	"database/sql"
)

const (
	// Dimension is the number of float32 components of every stored embedding.
	Dimension = 384

	// DefaultModel identifies the embedding model the store is populated with
	// unless configured otherwise.
	DefaultModel = "Xenova/all-MiniLM-L6-v2"

	// MinDistance and MaxDistance bound the cosine distance range.
	MinDistance = 0.0
	MaxDistance = 2.0
)

// Record is a single stored embedding. ID is caller-supplied and acts as the
// primary key; re-inserting an ID replaces the whole row.
type Record struct {
	ID        string
	Content   string
	Embedding []float32
}

// Row is a raw stored row as read by the fallback search path; the
// embedding is left encoded so that callers can isolate decode failures.
type Row struct {
	ID        string
	Content   string
	Embedding []byte
}

// Match is a search hit ranked by ascending cosine distance.
type Match struct {
	ID       string  `json:"id"`
	Content  string  `json:"content"`
	Distance float64 `json:"distance"`
}

// Stats summarizes the stored embeddings.
type Stats struct {
	Count         int64   `json:"count"`
	AvgBytes      float64 `json:"avgBytes"`
	TotalBytes    int64   `json:"totalBytes"`
	DatabaseBytes int64   `json:"databaseBytes"`
	Dimension     int     `json:"dimension"`
	Model         string  `json:"model"`
}

// Store defines the vector store operations used by the search engine and
// the batch writer. SQLiteStore is the only implementation.
type Store interface {
	// WithTx runs fn inside a single transaction; fn's error rolls it back.
	WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error

	// Upsert inserts or replaces rec within tx and returns the number of
	// changed rows reported by SQLite.
	Upsert(ctx context.Context, tx *sql.Tx, rec Record) (int64, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int64, error)

	// Rows loads up to limit raw rows (limit <= 0 loads all of them).
	Rows(ctx context.Context, limit int) ([]Row, error)

	// Nearest runs a single SQL scan computing distance with the named
	// native function and returns up to k rows with distance <= threshold.
	Nearest(ctx context.Context, function string, query []float32, threshold float64, k int) ([]Match, error)

	// Stats reports counts and sizes.
	Stats(ctx context.Context) (*Stats, error)

	// Ping checks that the database answers queries.
	Ping(ctx context.Context) error

	// DB exposes the underlying handle for capability probing.
	DB() *sql.DB
}
