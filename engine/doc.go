// Package engine provides helpers for working with the modernc.org/sqlite
// driver in this module: building DSNs with per-connection pragmas, opening
// connections, checking integrity and (optionally) registering the built-in
// vector SQL functions. It intentionally keeps a thin surface so other
// packages can share the same driver instance.
package engine
