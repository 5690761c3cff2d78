package plcache

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lmmx/plcache/memframe"
	"github.com/lmmx/plcache/meta"
)

func newTestIndex(t *testing.T) *readableIndex {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, blobsDirName), 0o755))
	return &readableIndex{
		root:        root,
		dirName:     DefaultReadableDirName,
		splitModule: true,
		maxArgLen:   DefaultMaxArgLength,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func writeTestBlob(t *testing.T, ix *readableIndex, name string) meta.Entry {
	t.Helper()
	rel := blobsDirName + "/" + name
	require.NoError(t, os.WriteFile(filepath.Join(ix.root, blobsDirName, name), []byte("blob"), 0o644))
	return meta.Entry{Path: rel, Size: 4}
}

func TestRecordCreatesRelativeSymlink(t *testing.T) {
	t.Parallel()

	ix := newTestIndex(t)
	entry := writeTestBlob(t, ix, "abc.mf")
	args := Positional(Int(5))

	ix.record(testIdent, args, "abc", entry)

	link := filepath.Join(ix.root, DefaultReadableDirName, "etl", "buildTable", "arg0=5", "data.mf")
	target, err := os.Readlink(link)
	require.NoError(t, err)
	assert.False(t, filepath.IsAbs(target), "links are relative for portability")

	resolved := filepath.Join(filepath.Dir(link), target)
	content, err := os.ReadFile(resolved)
	require.NoError(t, err)
	assert.Equal(t, []byte("blob"), content)
}

func TestRecordLazyLinkName(t *testing.T) {
	t.Parallel()

	ix := newTestIndex(t)
	entry := writeTestBlob(t, ix, "abc.lazy.mf")
	entry.Lazy = true

	ix.record(testIdent, NoArgs, "abc", entry)

	link := filepath.Join(ix.root, DefaultReadableDirName, "etl", "buildTable", "no_args", "lazy.mf")
	_, err := os.Readlink(link)
	assert.NoError(t, err, "lazy entries get a lazy-signalling link name")
}

func TestRecordIdempotent(t *testing.T) {
	t.Parallel()

	ix := newTestIndex(t)
	entry := writeTestBlob(t, ix, "abc.mf")
	args := Positional(Int(5))

	ix.record(testIdent, args, "abc", entry)
	ix.record(testIdent, args, "abc", entry)

	dir := filepath.Join(ix.root, DefaultReadableDirName, "etl", "buildTable", "arg0=5")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "re-recording replaces the link, never duplicates it")
}

func TestFlatModulePath(t *testing.T) {
	t.Parallel()

	ix := newTestIndex(t)
	ix.splitModule = false
	entry := writeTestBlob(t, ix, "abc.mf")

	ix.record(testIdent, NoArgs, "abc", entry)

	link := filepath.Join(ix.root, DefaultReadableDirName, "etl.buildTable", "no_args", "data.mf")
	_, err := os.Readlink(link)
	assert.NoError(t, err)
}

func TestSymlinkNameCallback(t *testing.T) {
	t.Parallel()

	ix := newTestIndex(t)
	ix.symlinkNameFn = func(id Ident, args Args, key string) string {
		return key + ".out"
	}
	entry := writeTestBlob(t, ix, "abc.mf")

	ix.record(testIdent, NoArgs, "abc", entry)

	link := filepath.Join(ix.root, DefaultReadableDirName, "etl", "buildTable", "no_args", "abc.out")
	_, err := os.Readlink(link)
	assert.NoError(t, err)
}

func TestBlankSymlinkNameSwallowed(t *testing.T) {
	t.Parallel()

	ix := newTestIndex(t)
	ix.symlinkNameFn = func(Ident, Args, string) string { return "   " }
	entry := writeTestBlob(t, ix, "abc.mf")

	// Advisory failure: logged, never raised.
	assert.NotPanics(t, func() { ix.record(testIdent, NoArgs, "abc", entry) })

	dir := filepath.Join(ix.root, DefaultReadableDirName, "etl", "buildTable", "no_args")
	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)
}

func TestEntryDirCallback(t *testing.T) {
	t.Parallel()

	ix := newTestIndex(t)
	ix.entryDirFn = func(id Ident, args Args) string { return "custom-entry" }
	entry := writeTestBlob(t, ix, "abc.mf")

	ix.record(testIdent, NoArgs, "abc", entry)

	link := filepath.Join(ix.root, DefaultReadableDirName, "etl", "buildTable", "custom-entry", "data.mf")
	_, err := os.Readlink(link)
	assert.NoError(t, err)
}

func TestWrapOverridesIndexSettings(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	var calls atomic.Int64
	build := c.Wrap(testIdent, counterFunc(&calls),
		WrapReadableDirName("runs"),
		WrapSplitModulePath(false),
		WrapSymlinkFilename("result."+memframe.FileExt),
	)

	_, err := build(Positional(Int(5)))
	require.NoError(t, err)

	link := filepath.Join(c.Dir(), "runs", "etl.buildTable", "arg0=5", "result."+memframe.FileExt)
	_, err = os.Readlink(link)
	assert.NoError(t, err)
}

func TestIndexNeverConsultedOnLookup(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	var calls atomic.Int64
	build := c.Wrap(testIdent, counterFunc(&calls))

	_, err := build(Positional(Int(5)))
	require.NoError(t, err)

	// Wreck the readable tree; lookups must not care.
	require.NoError(t, os.RemoveAll(filepath.Join(c.Dir(), DefaultReadableDirName)))

	_, err = build(Positional(Int(5)))
	require.NoError(t, err)
	assert.Equal(t, int64(1), calls.Load())
}
