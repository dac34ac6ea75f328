// Package search implements similarity search over the vector store.
//
// A query is validated before any embedding or storage work. The engine
// then runs either the native path, a single SQL scan using a distance
// function discovered by the resolver, or the fallback path, which loads a
// bounded number of rows and ranks them in-process with a brute-force
// index. Both paths order results by ascending cosine distance, then id.
package search
