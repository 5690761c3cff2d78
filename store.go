package plcache

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/lmmx/plcache/meta"
)

// blobStore owns the physical columnar files under <dir>/blobs and is the
// sole authority on whether a cached result exists. Existence tracking is
// delegated to the metadata store; the blob store verifies the file behind
// every claimed hit and heals metadata that outlived its blob.
type blobStore struct {
	dir    string
	store  meta.Store
	logger *slog.Logger
}

// blobName returns the blob filename for a key. The stored representation
// is part of the name so it survives without consulting metadata.
func blobName(key string, lazy bool, ext string) string {
	if lazy {
		return key + ".lazy." + ext
	}
	return key + "." + ext
}

// lazyFromBlobPath recovers the stored representation from a blob path.
func lazyFromBlobPath(p, ext string) bool {
	return strings.HasSuffix(path.Base(filepath.ToSlash(p)), ".lazy."+ext)
}

// abs resolves an entry's cache-root-relative blob path.
func (s *blobStore) abs(rel string) string {
	return filepath.Join(s.dir, filepath.FromSlash(rel))
}

// lookup returns the entry for key if both its metadata and its blob file
// are present. Metadata without a file is removed and reported as a miss;
// any other filesystem error is surfaced.
func (s *blobStore) lookup(cacheKey string) (meta.Entry, bool, error) {
	entry, ok, err := s.store.Get(cacheKey)
	if err != nil {
		return meta.Entry{}, false, fmt.Errorf("metadata lookup: %w", err)
	}
	if !ok {
		return meta.Entry{}, false, nil
	}
	if _, err := os.Stat(s.abs(entry.Path)); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return meta.Entry{}, false, fmt.Errorf("verify blob %s: %w", entry.Path, err)
		}
		// Blob vanished behind the metadata store's back. Drop the stale
		// entry and report a miss so the caller recomputes.
		if delErr := s.store.Delete(cacheKey); delErr != nil {
			s.logger.Warn("failed to drop stale cache entry",
				"key", cacheKey, "error", delErr)
		}
		return meta.Entry{}, false, nil
	}
	return entry, true, nil
}

// put persists a result via write and registers it. The blob is written to
// a temp file and renamed into place, then registered in the metadata
// store; on any failure nothing is registered and no blob remains.
func (s *blobStore) put(cacheKey string, lazy bool, ext string, write func(path string) error) (meta.Entry, error) {
	blobDir := filepath.Join(s.dir, blobsDirName)
	final := filepath.Join(blobDir, blobName(cacheKey, lazy, ext))

	tmp, err := os.CreateTemp(blobDir, cacheKey+".tmp-*")
	if err != nil {
		return meta.Entry{}, fmt.Errorf("%w: %v", ErrBlobWrite, err)
	}
	tmpPath := tmp.Name()
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return meta.Entry{}, fmt.Errorf("%w: %v", ErrBlobWrite, err)
	}

	if err := write(tmpPath); err != nil {
		_ = os.Remove(tmpPath)
		return meta.Entry{}, fmt.Errorf("%w: %v", ErrBlobWrite, err)
	}
	info, err := os.Stat(tmpPath)
	if err != nil {
		_ = os.Remove(tmpPath)
		return meta.Entry{}, fmt.Errorf("%w: %v", ErrBlobWrite, err)
	}
	if err := os.Rename(tmpPath, final); err != nil {
		_ = os.Remove(tmpPath)
		return meta.Entry{}, fmt.Errorf("%w: %v", ErrBlobWrite, err)
	}

	entry := meta.Entry{
		Path:      path.Join(blobsDirName, blobName(cacheKey, lazy, ext)),
		Lazy:      lazy,
		Size:      info.Size(),
		CreatedAt: time.Now(),
	}
	if err := s.store.Set(cacheKey, entry); err != nil {
		// No half-registered state: a blob the store never accepted is
		// removed again.
		_ = os.Remove(final)
		return meta.Entry{}, fmt.Errorf("register blob: %w", err)
	}
	return entry, nil
}

// removeBlob unlinks an evicted entry's blob file. Missing files are fine;
// eviction and self-healing can race benignly.
func (s *blobStore) removeBlob(entry meta.Entry) {
	if err := os.Remove(s.abs(entry.Path)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("failed to remove evicted blob", "path", entry.Path, "error", err)
	}
}

// clearBlobs removes every file in the blobs directory, leaving the
// directory itself in place.
func (s *blobStore) clearBlobs() error {
	blobDir := filepath.Join(s.dir, blobsDirName)
	entries, err := os.ReadDir(blobDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		if err := os.Remove(filepath.Join(blobDir, e.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}
