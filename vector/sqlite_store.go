package vector

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/viant/vecdb/engine"
	"github.com/viant/vecdb/vecerr"
)

// SQLiteStore is the durable vector store: one embeddings table keyed by id
// plus a metadata table recording which model produced the vectors. It is
// safe for concurrent use; SQLite serializes writers while readers proceed
// under WAL.
type SQLiteStore struct {
	db          *sql.DB
	ownsDB      bool
	model       string
	storedModel string
	strictModel bool
	dimension   int
	logger      *slog.Logger
}

// Option configures a SQLiteStore.
type Option func(*SQLiteStore)

// WithModel sets the currently configured embedding model identifier.
func WithModel(model string) Option {
	return func(s *SQLiteStore) { s.model = model }
}

// WithStrictModel makes a model mismatch an initialization error instead of
// a warning.
func WithStrictModel(strict bool) Option {
	return func(s *SQLiteStore) { s.strictModel = strict }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *SQLiteStore) { s.logger = logger }
}

// NewSQLiteStore creates a store over an already opened database. Call
// Initialize before use.
func NewSQLiteStore(db *sql.DB, opts ...Option) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("vector: db is nil")
	}
	s := &SQLiteStore{db: db, model: DefaultModel, dimension: Dimension}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s, nil
}

// OpenSQLiteStore opens the database file at path with the given pragmas and
// initializes the store. The returned store owns the database handle.
func OpenSQLiteStore(ctx context.Context, path string, dbOpts engine.Options, opts ...Option) (*SQLiteStore, error) {
	db, err := engine.Open(engine.DSN(path, dbOpts))
	if err != nil {
		return nil, vecerr.Storage("open", err)
	}
	s, err := NewSQLiteStore(db, opts...)
	if err != nil {
		db.Close()
		return nil, err
	}
	s.ownsDB = true
	if err := s.Initialize(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Initialize enables write-ahead journaling, checks integrity, creates the
// schema and records or compares the embedding model identifier.
func (s *SQLiteStore) Initialize(ctx context.Context) error {
	mode, err := engine.EnableWAL(ctx, s.db)
	if err != nil {
		return vecerr.Storage("initialize", err)
	}
	if mode != "wal" {
		s.logger.Info("write-ahead journaling unavailable", "journal_mode", mode)
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA synchronous = NORMAL"); err != nil {
		return vecerr.Storage("initialize", err)
	}

	verdict, err := engine.IntegrityCheck(ctx, s.db)
	switch {
	case err != nil:
		s.logger.Warn("database integrity check failed", "error", err)
	case verdict != "ok":
		s.logger.Warn("database integrity check warning", "result", verdict)
	}

	if err := EnsureSchema(ctx, s.db); err != nil {
		return vecerr.Storage("initialize", err)
	}
	if err := s.checkModel(ctx); err != nil {
		return err
	}
	s.logger.Info("database initialized", "model", s.storedModel, "dimension", s.dimension)
	return nil
}

func (s *SQLiteStore) checkModel(ctx context.Context) error {
	var stored string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, ModelKey).Scan(&stored)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO metadata(key, value) VALUES(?, ?)`, ModelKey, s.model); err != nil {
			return vecerr.Storage("initialize", err)
		}
		s.storedModel = s.model
		return nil
	case err != nil:
		return vecerr.Storage("initialize", err)
	}
	s.storedModel = stored
	if stored != s.model {
		if s.strictModel {
			return vecerr.Storage("initialize", fmt.Errorf("model mismatch: database has %s, configured %s", stored, s.model))
		}
		s.logger.Warn("model mismatch", "stored", stored, "configured", s.model)
	}
	return nil
}

// DB exposes the underlying sql.DB.
func (s *SQLiteStore) DB() *sql.DB { return s.db }

// Model returns the model identifier recorded in the metadata table.
func (s *SQLiteStore) Model() string { return s.storedModel }

// Close closes the database when the store opened it.
func (s *SQLiteStore) Close() error {
	if s.ownsDB && s.db != nil {
		return s.db.Close()
	}
	return nil
}

// WithTx runs fn in a transaction, committing when fn returns nil and
// rolling back otherwise.
func (s *SQLiteStore) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return vecerr.Storage("begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return vecerr.Storage("commit", err)
	}
	return nil
}

// Upsert inserts or fully replaces the row for rec.ID within tx.
func (s *SQLiteStore) Upsert(ctx context.Context, tx *sql.Tx, rec Record) (int64, error) {
	if rec.ID == "" {
		return 0, vecerr.Validation("upsert", "record id must be set")
	}
	if len(rec.Embedding) != s.dimension {
		return 0, vecerr.Validation("upsert", "embedding for %s has %d dimensions, want %d", rec.ID, len(rec.Embedding), s.dimension)
	}
	blob, err := EncodeEmbedding(rec.Embedding)
	if err != nil {
		return 0, vecerr.Storage("upsert", err)
	}
	res, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO embeddings(id, content, embedding) VALUES(?, ?, ?)`, rec.ID, rec.Content, blob)
	if err != nil {
		return 0, vecerr.Storage("upsert", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, vecerr.Storage("upsert", err)
	}
	return n, nil
}

// Count returns the number of stored records.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM embeddings`).Scan(&n); err != nil {
		return 0, vecerr.Storage("count", err)
	}
	return n, nil
}

// Rows loads up to limit raw rows ordered by id; limit <= 0 loads all rows.
func (s *SQLiteStore) Rows(ctx context.Context, limit int) ([]Row, error) {
	query := `SELECT id, content, embedding FROM embeddings ORDER BY id`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, vecerr.Storage("rows", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.ID, &r.Content, &r.Embedding); err != nil {
			return nil, vecerr.Storage("rows", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, vecerr.Storage("rows", err)
	}
	return out, nil
}

// Nearest computes the distance of every stored vector to query with the
// named native function, once per row, and returns up to k rows with
// distance <= threshold in ascending distance order. function must come
// from a trusted list since it is interpolated into SQL.
func (s *SQLiteStore) Nearest(ctx context.Context, function string, query []float32, threshold float64, k int) ([]Match, error) {
	blob, err := EncodeEmbedding(query)
	if err != nil {
		return nil, vecerr.Storage("nearest", err)
	}
	stmt := fmt.Sprintf(`
SELECT id, content, distance
FROM (
    SELECT id, content, %s(embedding, ?) AS distance
    FROM embeddings
)
WHERE distance <= ?
ORDER BY distance ASC, id ASC
LIMIT ?`, function)

	rows, err := s.db.QueryContext(ctx, stmt, blob, threshold, k)
	if err != nil {
		return nil, vecerr.Storage("nearest", err)
	}
	defer rows.Close()

	out := make([]Match, 0, k)
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.ID, &m.Content, &m.Distance); err != nil {
			return nil, vecerr.Storage("nearest", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, vecerr.Storage("nearest", err)
	}
	return out, nil
}

// Stats reports record counts, embedding sizes and the database file size.
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{Dimension: s.dimension, Model: s.storedModel}
	err := s.db.QueryRowContext(ctx, `
SELECT
    COUNT(*),
    COALESCE(AVG(LENGTH(embedding)), 0),
    COALESCE(SUM(LENGTH(embedding)), 0)
FROM embeddings`).Scan(&st.Count, &st.AvgBytes, &st.TotalBytes)
	if err != nil {
		return nil, vecerr.Storage("stats", err)
	}
	err = s.db.QueryRowContext(ctx, `SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()`).Scan(&st.DatabaseBytes)
	if err != nil {
		return nil, vecerr.Storage("stats", err)
	}
	return st, nil
}

// Ping checks that the database answers a trivial query.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	var one int
	if err := s.db.QueryRowContext(ctx, `SELECT 1`).Scan(&one); err != nil {
		return vecerr.Storage("ping", err)
	}
	return nil
}

// Ensure SQLiteStore satisfies the Store interface.
var _ Store = (*SQLiteStore)(nil)
