package vector

import (
	"context"
	"database/sql"
)

const (
	// EmbeddingsTable holds one row per record.
	EmbeddingsTable = "embeddings"
	// MetadataTable holds key/value facts about the stored data.
	MetadataTable = "metadata"
	// ModelKey is the metadata key recording the embedding model identifier.
	ModelKey = "model"
)

const embeddingsSchema = `
CREATE TABLE IF NOT EXISTS embeddings (
    id TEXT PRIMARY KEY,
    content TEXT NOT NULL,
    embedding BLOB NOT NULL
);
`

const metadataSchema = `
CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT
);
`

// EnsureSchema creates the embeddings and metadata tables in the provided
// database if they do not already exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, ddl := range []string{embeddingsSchema, metadataSchema} {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return err
		}
	}
	return nil
}
