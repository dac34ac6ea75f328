// Package vector defines the embedding record model and the SQLite-backed
// vector store used by this project. It includes:
//   - Record/Match types and the fixed embedding Dimension
//   - SQLiteStore: durable storage of records and model metadata
//   - Schema helpers to create the embeddings and metadata tables
//   - Embedding encoding (little-endian float32 BLOB) and cosine distance
package vector
