package plcache

import (
	"fmt"

	"github.com/lmmx/plcache/table"
)

// LazyMode controls which representation a cached call returns on a hit.
type LazyMode uint8

const (
	// Preserve returns whichever representation the wrapped function
	// originally produced. This is the default.
	Preserve LazyMode = iota

	// ForceEager always returns a materialized table.
	ForceEager

	// ForceLazy always returns a deferred plan over the stored blob.
	ForceLazy
)

// adapter moves datasets across the memory/disk boundary through the
// engine, resolving the eager/lazy split exactly once on each side.
type adapter[F, L any] struct {
	engine table.Engine[F, L]
}

// persist writes either representation to path. Lazy inputs are
// materialized by the engine's Sink; the file format is always eager.
func (a adapter[F, L]) persist(ds table.Dataset[F, L], path string) error {
	if plan, ok := ds.Plan(); ok {
		return a.engine.Sink(plan, path)
	}
	frame, _ := ds.Frame()
	return a.engine.Write(frame, path)
}

// restore reads the blob at path back as the representation mode asks
// for. The stored representation is carried in the blob filename.
func (a adapter[F, L]) restore(path string, mode LazyMode) (table.Dataset[F, L], error) {
	wantLazy := lazyFromBlobPath(path, a.engine.Ext())
	switch mode {
	case ForceEager:
		wantLazy = false
	case ForceLazy:
		wantLazy = true
	}

	if wantLazy {
		plan, err := a.engine.Scan(path)
		if err != nil {
			return table.Dataset[F, L]{}, fmt.Errorf("%w: scan %s: %v", ErrBlobRead, path, err)
		}
		return table.Lazy[F, L](plan), nil
	}
	frame, err := a.engine.Read(path)
	if err != nil {
		return table.Dataset[F, L]{}, fmt.Errorf("%w: read %s: %v", ErrBlobRead, path, err)
	}
	return table.Eager[F, L](frame), nil
}

// matches reports whether ds already carries the representation mode asks
// for, making a rewrap from disk unnecessary.
func (mode LazyMode) matches(lazy bool) bool {
	switch mode {
	case ForceEager:
		return !lazy
	case ForceLazy:
		return lazy
	default:
		return true
	}
}
