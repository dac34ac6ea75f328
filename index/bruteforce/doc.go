// Package bruteforce provides a vector index that answers kNN queries by
// scanning all vectors and computing cosine distance against each one with
// precomputed magnitudes.
package bruteforce
