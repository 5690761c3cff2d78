package plcache

import (
	"github.com/lmmx/plcache/table"
)

// Func is a cacheable function: arguments in, tabular dataset out.
type Func[F, L any] func(args Args) (table.Dataset[F, L], error)

// WrapOption overrides cache-level settings for a single wrapped function.
type WrapOption func(*wrapConfig)

type wrapConfig struct {
	mode            LazyMode
	readableDirName string
	splitModule     *bool
	maxArgLen       *int
	symlinkName     string
	symlinkNameFn   SymlinkNameFunc
	entryDirFn      EntryDirFunc
}

// WrapLazy fixes the representation returned by the wrapped function:
// true always yields a lazy plan, false always a materialized table.
// Without it, hits preserve whatever representation the function
// originally produced.
func WrapLazy(lazy bool) WrapOption {
	return func(w *wrapConfig) {
		if lazy {
			w.mode = ForceLazy
		} else {
			w.mode = ForceEager
		}
	}
}

// WrapReadableDirName overrides the readable tree name for this function.
func WrapReadableDirName(name string) WrapOption {
	return func(w *wrapConfig) { w.readableDirName = name }
}

// WrapSplitModulePath overrides nested-vs-flat readable paths for this
// function.
func WrapSplitModulePath(split bool) WrapOption {
	return func(w *wrapConfig) { w.splitModule = &split }
}

// WrapMaxArgLength overrides the readable-path truncation threshold for
// this function.
func WrapMaxArgLength(n int) WrapOption {
	return func(w *wrapConfig) { w.maxArgLen = &n }
}

// WrapSymlinkFilename overrides the symlink filename for this function.
func WrapSymlinkFilename(name string) WrapOption {
	return func(w *wrapConfig) { w.symlinkName = name }
}

// WrapSymlinkFilenameFunc overrides the symlink naming callback for this
// function.
func WrapSymlinkFilenameFunc(fn SymlinkNameFunc) WrapOption {
	return func(w *wrapConfig) { w.symlinkNameFn = fn }
}

// WrapEntryDirFunc overrides the entry directory naming callback for this
// function.
func WrapEntryDirFunc(fn EntryDirFunc) WrapOption {
	return func(w *wrapConfig) { w.entryDirFn = fn }
}

// Wrap returns a memoized version of fn.
//
// Each call derives a key from id plus the call's arguments and consults
// the blob store. On a hit, fn is not invoked and the stored result is
// returned in the representation the lazy mode asks for. On a miss, fn
// runs exactly once; its result is persisted and indexed only after it
// returns successfully, and any error from fn propagates unchanged with
// nothing cached.
func (c *Cache[F, L]) Wrap(id Ident, fn Func[F, L], opts ...WrapOption) Func[F, L] {
	var wc wrapConfig
	for _, opt := range opts {
		opt(&wc)
	}
	ix := c.wrapIndex(wc)

	return func(args Args) (table.Dataset[F, L], error) {
		key := c.key(id, args)

		entry, ok, err := c.blobs.lookup(key)
		if err != nil {
			return table.Dataset[F, L]{}, err
		}
		if ok {
			return c.adapt.restore(c.blobs.abs(entry.Path), wc.mode)
		}

		result, err := fn(args)
		if err != nil {
			return table.Dataset[F, L]{}, err
		}

		entry, err = c.blobs.put(key, result.IsLazy(), c.engine.Ext(), func(path string) error {
			return c.adapt.persist(result, path)
		})
		if err != nil {
			return table.Dataset[F, L]{}, err
		}
		if ix != nil {
			ix.record(id, args, key, entry)
		}

		if wc.mode.matches(result.IsLazy()) {
			return result, nil
		}
		// The caller pinned a representation the function didn't produce;
		// rewrap from the freshly written blob.
		return c.adapt.restore(c.blobs.abs(entry.Path), wc.mode)
	}
}

// wrapIndex returns the cache's readable index, or a derived copy when the
// wrap overrides any of its settings. Nil when the index is disabled.
func (c *Cache[F, L]) wrapIndex(wc wrapConfig) *readableIndex {
	if c.index == nil {
		return nil
	}
	ix := *c.index
	if wc.readableDirName != "" {
		ix.dirName = wc.readableDirName
	}
	if wc.splitModule != nil {
		ix.splitModule = *wc.splitModule
	}
	if wc.maxArgLen != nil {
		ix.maxArgLen = *wc.maxArgLen
	}
	if wc.symlinkName != "" {
		ix.symlinkName = wc.symlinkName
	}
	if wc.symlinkNameFn != nil {
		ix.symlinkNameFn = wc.symlinkNameFn
	}
	if wc.entryDirFn != nil {
		ix.entryDirFn = wc.entryDirFn
	}
	return &ix
}
