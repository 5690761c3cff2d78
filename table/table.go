// Package table defines the contract between the cache and a columnar
// dataframe engine.
//
// The cache never inspects tabular values. It moves them between memory and
// columnar files through an [Engine], and tracks which of the two
// representations — eager or lazy — a value carries via [Dataset], a
// two-variant tagged union resolved explicitly at read/write boundaries.
package table

// Engine adapts a dataframe library to the cache.
//
// F is the engine's eager (fully materialized) table type and L its lazy
// (deferred query plan) type. Implementations must be safe for concurrent
// use; the cache may persist and restore datasets from multiple goroutines.
type Engine[F, L any] interface {
	// Write persists an eager table as a columnar file at path.
	Write(frame F, path string) error

	// Sink materializes a lazy plan and persists it as a columnar file at
	// path. The on-disk format is always materialized; laziness is a
	// property of the in-memory handle, never of the file.
	Sink(plan L, path string) error

	// Read loads a columnar file into an eager table.
	Read(path string) (F, error)

	// Scan opens a columnar file as a lazy plan without materializing it.
	Scan(path string) (L, error)

	// Ext returns the engine's columnar file extension without the leading
	// dot, e.g. "parquet".
	Ext() string
}

// Dataset holds either an eager table or a lazy plan.
//
// The zero Dataset is eager over F's zero value; construct datasets with
// [Eager] or [Lazy].
type Dataset[F, L any] struct {
	frame F
	plan  L
	lazy  bool
}

// Eager wraps a materialized table.
func Eager[F, L any](frame F) Dataset[F, L] {
	return Dataset[F, L]{frame: frame}
}

// Lazy wraps a deferred query plan.
func Lazy[F, L any](plan L) Dataset[F, L] {
	return Dataset[F, L]{plan: plan, lazy: true}
}

// IsLazy reports whether the dataset holds a deferred plan.
func (d Dataset[F, L]) IsLazy() bool { return d.lazy }

// Frame returns the eager table. ok is false for lazy datasets.
func (d Dataset[F, L]) Frame() (frame F, ok bool) {
	return d.frame, !d.lazy
}

// Plan returns the lazy plan. ok is false for eager datasets.
func (d Dataset[F, L]) Plan() (plan L, ok bool) {
	return d.plan, d.lazy
}
