package plcache

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/lmmx/plcache/internal/argenc"
	"github.com/lmmx/plcache/meta"
)

const readableDirPerm = 0o755

// readableIndex maintains the human-browsable symlink tree under the cache
// root. It is derived state: rebuildable, never consulted for lookups, and
// never allowed to fail a cache operation. A link whose blob was evicted
// simply dangles until the next Clear.
type readableIndex struct {
	root          string
	dirName       string
	splitModule   bool
	maxArgLen     int
	symlinkName   string
	symlinkNameFn SymlinkNameFunc
	entryDirFn    EntryDirFunc
	logger        *slog.Logger
}

// record creates or refreshes the symlink for one cache entry. All
// failures are logged and swallowed; the index is advisory.
func (ix *readableIndex) record(id Ident, args Args, key string, entry meta.Entry) {
	if err := ix.link(id, args, key, entry); err != nil {
		ix.logger.Warn("readable index update failed",
			"function", id.String(), "key", key, "error", err)
	}
}

func (ix *readableIndex) link(id Ident, args Args, key string, entry meta.Entry) error {
	name, err := ix.linkName(id, args, key, entry)
	if err != nil {
		return err
	}

	dir := ix.entryDir(id, args)
	if err := os.MkdirAll(dir, readableDirPerm); err != nil {
		return err
	}

	linkPath := filepath.Join(dir, name)
	blobPath := filepath.Join(ix.root, filepath.FromSlash(entry.Path))
	target, err := filepath.Rel(dir, blobPath)
	if err != nil {
		// Fall back to an absolute target on mixed-root setups.
		target = blobPath
	}

	// Re-recording the same call replaces the link rather than piling up
	// duplicates.
	if err := os.Remove(linkPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.Symlink(target, linkPath)
}

// entryDir builds root/<readable>/<module>/<function>/<args> in nested
// mode, or root/<readable>/<module.function>/<args> in flat mode.
func (ix *readableIndex) entryDir(id Ident, args Args) string {
	base := filepath.Join(ix.root, ix.dirName)
	if ix.splitModule {
		base = filepath.Join(base, argenc.Escape(id.Module), argenc.Escape(id.Function))
	} else {
		base = filepath.Join(base, argenc.Escape(id.String()))
	}
	if ix.entryDirFn != nil {
		return filepath.Join(base, ix.entryDirFn(id, args))
	}
	return filepath.Join(base, args.entryDirName(ix.maxArgLen))
}

// linkName resolves the symlink filename: callback, then constant
// override, then the representation-signalling default.
func (ix *readableIndex) linkName(id Ident, args Args, key string, entry meta.Entry) (string, error) {
	ext := blobExt(entry.Path)
	switch {
	case ix.symlinkNameFn != nil:
		name := ix.symlinkNameFn(id, args, key)
		if strings.TrimSpace(name) == "" {
			return "", fmt.Errorf("%w: callback returned blank name", ErrInvalidSymlinkName)
		}
		return name, nil
	case strings.TrimSpace(ix.symlinkName) != "":
		return ix.symlinkName, nil
	case entry.Lazy:
		return "lazy." + ext, nil
	default:
		return "data." + ext, nil
	}
}

// blobExt extracts the engine file extension from a blob path.
func blobExt(p string) string {
	base := filepath.Base(filepath.FromSlash(p))
	if i := strings.LastIndex(base, "."); i >= 0 {
		return base[i+1:]
	}
	return base
}

// clear removes the whole readable tree and recreates its root.
func (ix *readableIndex) clear() error {
	dir := filepath.Join(ix.root, ix.dirName)
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, readableDirPerm)
}
