// Package embedder turns text into unit-length embedding vectors.
//
// An Embedder wraps a Backend that is created lazily on first use and then
// shared by every caller. Backend output is decoded at a typed boundary:
// malformed shapes and unexpected dimensions are reported as provider
// errors before a vector ever reaches the store. Backends include a
// deterministic local hash embedder, an OpenAI-compatible HTTP client and a
// bbolt-backed persistent cache that wraps either of them.
package embedder
