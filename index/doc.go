// Package index defines a minimal abstraction for in-process vector indexes
// that are built from decoded embeddings and queried for the nearest
// neighbours by cosine distance. The brute-force implementation backs the
// fallback search path when no native distance function is available.
package index
