package plcache

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	units "github.com/docker/go-units"

	"github.com/lmmx/plcache/meta"
)

// Option configures a Cache.
type Option func(*config) error

// Defaults applied by New.
const (
	DefaultSizeLimit       int64 = 1 << 30 // 1 GiB
	DefaultReadableDirName       = "functions"
	DefaultMaxArgLength          = 50
)

const (
	blobsDirName    = "blobs"
	metadataDirName = "metadata"
	metadataDBName  = "index.db"
)

// SymlinkNameFunc names the per-entry symlink file. It receives the
// wrapped function's identity, the call's arguments, and the derived cache
// key, and must return a non-blank filename.
type SymlinkNameFunc func(id Ident, args Args, key string) string

// EntryDirFunc names the per-call directory under the readable tree. It
// affects browsing only, never the authoritative key, but should be unique
// per distinct call to avoid overwriting sibling links.
type EntryDirFunc func(id Ident, args Args) string

type config struct {
	dir             string
	sizeLimit       int64
	readable        bool
	readableDirName string
	splitModule     bool
	maxArgLen       int
	symlinkName     string
	symlinkNameFn   SymlinkNameFunc
	entryDirFn      EntryDirFunc
	keyFn           KeyFunc
	logger          *slog.Logger
	store           meta.Store
}

func defaultConfig() config {
	return config{
		dir:             filepath.Join(os.TempDir(), ".plcache"),
		sizeLimit:       DefaultSizeLimit,
		readable:        true,
		readableDirName: DefaultReadableDirName,
		splitModule:     true,
		maxArgLen:       DefaultMaxArgLength,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithCacheDir sets the cache root directory. The default is ".plcache"
// under the system temp directory.
func WithCacheDir(dir string) Option {
	return func(c *config) error {
		if dir == "" {
			return fmt.Errorf("cache dir is empty")
		}
		c.dir = dir
		return nil
	}
}

// WithSizeLimit sets the total byte budget from a human-readable string
// such as "1GB" or "512MB". Insertions beyond the budget evict
// least-recently-used entries.
func WithSizeLimit(limit string) Option {
	return func(c *config) error {
		n, err := units.RAMInBytes(limit)
		if err != nil {
			return fmt.Errorf("%w: %q: %v", ErrInvalidSizeLimit, limit, err)
		}
		c.sizeLimit = n
		return nil
	}
}

// WithSizeLimitBytes sets the total byte budget directly. Zero or negative
// disables eviction.
func WithSizeLimitBytes(n int64) Option {
	return func(c *config) error {
		c.sizeLimit = n
		return nil
	}
}

// WithReadableIndex enables or disables the human-browsable symlink tree.
// Enabled by default; lookups never consult it either way.
func WithReadableIndex(enabled bool) Option {
	return func(c *config) error {
		c.readable = enabled
		return nil
	}
}

// WithReadableDirName sets the readable tree's directory name under the
// cache root. Defaults to "functions".
func WithReadableDirName(name string) Option {
	return func(c *config) error {
		if name == "" {
			return fmt.Errorf("readable dir name is empty")
		}
		c.readableDirName = name
		return nil
	}
}

// WithSplitModulePath selects nested readable paths (module/function/) when
// true, or flat ones (module.function/) when false. Defaults to nested.
func WithSplitModulePath(split bool) Option {
	return func(c *config) error {
		c.splitModule = split
		return nil
	}
}

// WithMaxArgLength caps the length of each argument value inside readable
// directory names. Longer values are truncated with a marker; the cache
// key always hashes the full value. Defaults to 50.
func WithMaxArgLength(n int) Option {
	return func(c *config) error {
		if n < 0 {
			return fmt.Errorf("max arg length must be >= 0")
		}
		c.maxArgLen = n
		return nil
	}
}

// WithSymlinkFilename overrides the symlink filename for every entry. The
// default names signal the stored representation ("data.<ext>" or
// "lazy.<ext>").
func WithSymlinkFilename(name string) Option {
	return func(c *config) error {
		if strings.TrimSpace(name) == "" {
			return ErrInvalidSymlinkName
		}
		c.symlinkName = name
		return nil
	}
}

// WithSymlinkFilenameFunc sets a callback that names each entry's symlink.
// Takes precedence over WithSymlinkFilename.
func WithSymlinkFilenameFunc(fn SymlinkNameFunc) Option {
	return func(c *config) error {
		c.symlinkNameFn = fn
		return nil
	}
}

// WithEntryDirFunc sets a callback that names each call's directory in the
// readable tree, replacing the default "arg0=..._n=..." encoding.
func WithEntryDirFunc(fn EntryDirFunc) Option {
	return func(c *config) error {
		c.entryDirFn = fn
		return nil
	}
}

// WithKeyFunc replaces the default key derivation entirely. The returned
// string is used verbatim as the cache key and blob filename stem.
func WithKeyFunc(fn KeyFunc) Option {
	return func(c *config) error {
		c.keyFn = fn
		return nil
	}
}

// WithLogger sets a logger for advisory failures (readable index updates).
// The default logger discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) error {
		c.logger = logger
		return nil
	}
}

// WithMetaStore injects a custom metadata store, replacing the default
// bbolt store. The caller then owns the store's size budget, eviction
// policy, and lifecycle; Close does not close injected stores.
func WithMetaStore(s meta.Store) Option {
	return func(c *config) error {
		c.store = s
		return nil
	}
}
