package plcache

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/lmmx/plcache/meta"
	"github.com/lmmx/plcache/meta/bolt"
	"github.com/lmmx/plcache/table"
)

// Cache memoizes functions returning tabular datasets onto disk.
//
// Results are stored as columnar blob files addressed by a deterministic
// cache key, with existence tracked in a metadata store and mirrored into
// a human-browsable symlink tree. F and L are the engine's eager and lazy
// table types.
//
// A Cache is safe for concurrent use. It takes no locks of its own beyond
// the metadata store's transactions: two concurrent misses on one key may
// both invoke the wrapped function and both write, with the last metadata
// write winning. The losing blob stays on disk, unreferenced, until Clear.
type Cache[F, L any] struct {
	engine   table.Engine[F, L]
	adapt    adapter[F, L]
	cfg      config
	blobs    *blobStore
	index    *readableIndex
	store    meta.Store
	ownStore bool
	logger   *slog.Logger
}

// New creates a cache for the given engine.
//
// Configuration problems — an unparseable size limit, unusable directories —
// surface here, never on first call. Without options the cache lives under
// the system temp directory with a 1 GiB budget and a readable index named
// "functions".
func New[F, L any](engine table.Engine[F, L], opts ...Option) (*Cache[F, L], error) {
	if engine == nil {
		return nil, ErrNilEngine
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	for _, dir := range []string{
		cfg.dir,
		filepath.Join(cfg.dir, blobsDirName),
		filepath.Join(cfg.dir, metadataDirName),
	} {
		if err := os.MkdirAll(dir, readableDirPerm); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}

	c := &Cache[F, L]{
		engine: engine,
		adapt:  adapter[F, L]{engine: engine},
		cfg:    cfg,
		logger: cfg.logger,
	}
	c.blobs = &blobStore{dir: cfg.dir, logger: cfg.logger}

	if cfg.store != nil {
		c.store = cfg.store
	} else {
		st, err := bolt.New(
			filepath.Join(cfg.dir, metadataDirName, metadataDBName),
			bolt.WithSizeLimit(cfg.sizeLimit),
			bolt.WithOnEvict(func(_ string, entry meta.Entry) {
				c.blobs.removeBlob(entry)
			}),
		)
		if err != nil {
			return nil, err
		}
		c.store = st
		c.ownStore = true
	}
	c.blobs.store = c.store

	if cfg.readable {
		c.index = &readableIndex{
			root:          cfg.dir,
			dirName:       cfg.readableDirName,
			splitModule:   cfg.splitModule,
			maxArgLen:     cfg.maxArgLen,
			symlinkName:   cfg.symlinkName,
			symlinkNameFn: cfg.symlinkNameFn,
			entryDirFn:    cfg.entryDirFn,
			logger:        cfg.logger,
		}
		if err := os.MkdirAll(filepath.Join(cfg.dir, cfg.readableDirName), readableDirPerm); err != nil {
			return nil, fmt.Errorf("create readable dir: %w", err)
		}
	}
	return c, nil
}

// Dir returns the cache root directory.
func (c *Cache[F, L]) Dir() string { return c.cfg.dir }

// key derives a cache key for one call, via the injected KeyFunc when one
// is configured.
func (c *Cache[F, L]) key(id Ident, args Args) string {
	if c.cfg.keyFn != nil {
		return c.cfg.keyFn(id, args)
	}
	return defaultKey(id, args)
}

// Clear removes every blob, metadata entry, and readable link under this
// cache's root. Other cache roots are untouched.
func (c *Cache[F, L]) Clear() error {
	var g errgroup.Group
	g.Go(c.blobs.clearBlobs)
	g.Go(c.store.Clear)
	if c.index != nil {
		g.Go(c.index.clear)
	}
	return g.Wait()
}

// Close releases the metadata store when the cache owns it. Stores
// injected via WithMetaStore are the caller's to close.
func (c *Cache[F, L]) Close() error {
	if !c.ownStore {
		return nil
	}
	return c.store.Close()
}
