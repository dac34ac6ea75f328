// Package resolver discovers, once per process, whether the storage engine
// exposes a native cosine-distance SQL function. The outcome is a Strategy
// that selects between the native and the in-process fallback search paths.
package resolver
