// Package meta defines the metadata store consumed by the cache.
//
// The store maps cache keys to blob locations. It is the sole authority on
// whether a cached result exists; the readable symlink tree is derived from
// it and never consulted for lookups. Implementations own their persistence
// format, size accounting, and eviction policy. The default implementation
// lives in the bolt subpackage.
package meta

import "time"

// Entry records where one cached result lives and how it was produced.
type Entry struct {
	// Path is the blob file location, relative to the cache root.
	Path string `json:"path"`

	// Lazy records whether the wrapped function produced a deferred plan.
	// The blob on disk is always materialized; this drives how a hit is
	// re-wrapped for the caller.
	Lazy bool `json:"lazy"`

	// Size is the blob file size in bytes, charged against the store's
	// byte budget.
	Size int64 `json:"size"`

	// CreatedAt is when the entry was registered.
	CreatedAt time.Time `json:"created_at"`
}

// EvictFunc is called for each entry the store evicts to stay within its
// byte budget. Implementations call it outside any internal transaction so
// the callback may touch the filesystem.
type EvictFunc func(key string, entry Entry)

// Store is a persistent key/value map from cache key to [Entry].
//
// Implementations must be safe for concurrent use and must apply each Set,
// Delete, and Clear atomically. Inserting over budget evicts older entries
// as a side effect of Set; that is expected behavior, not an error.
type Store interface {
	// Get returns the entry for key. ok is false when the key is absent,
	// including after eviction.
	Get(key string) (entry Entry, ok bool, err error)

	// Set registers or replaces the entry for key, then enforces the byte
	// budget, evicting least-recently-used entries as needed.
	Set(key string, entry Entry) error

	// Delete removes the entry for key. Deleting an absent key is a no-op.
	Delete(key string) error

	// Clear removes every entry without firing eviction callbacks.
	Clear() error

	// Close releases the store's resources.
	Close() error
}
