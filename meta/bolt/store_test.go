package bolt

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lmmx/plcache/meta"
)

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "index.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSetGet(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	_, ok, err := s.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	entry := meta.Entry{Path: "blobs/abc.mf", Lazy: true, Size: 42}
	require.NoError(t, s.Set("abc", entry))

	got, ok, err := s.Get("abc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, entry.Path, got.Path)
	assert.True(t, got.Lazy)
	assert.Equal(t, int64(42), got.Size)
}

func TestDelete(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	require.NoError(t, s.Set("k", meta.Entry{Path: "blobs/k.mf", Size: 1}))
	require.NoError(t, s.Delete("k"))
	_, ok, err := s.Get("k")
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting an absent key is a no-op.
	require.NoError(t, s.Delete("k"))
}

func TestClear(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	require.NoError(t, s.Set("a", meta.Entry{Size: 1}))
	require.NoError(t, s.Set("b", meta.Entry{Size: 1}))
	require.NoError(t, s.Clear())

	for _, k := range []string{"a", "b"} {
		_, ok, err := s.Get(k)
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestEvictionLRU(t *testing.T) {
	t.Parallel()

	var evicted []string
	s := newTestStore(t,
		WithSizeLimit(100),
		WithOnEvict(func(key string, entry meta.Entry) {
			evicted = append(evicted, key)
			assert.NotEmpty(t, entry.Path)
		}),
	)

	require.NoError(t, s.Set("old", meta.Entry{Path: "blobs/old.mf", Size: 60}))
	require.NoError(t, s.Set("new", meta.Entry{Path: "blobs/new.mf", Size: 60}))

	assert.Equal(t, []string{"old"}, evicted)

	_, ok, err := s.Get("old")
	require.NoError(t, err)
	assert.False(t, ok, "evicted entry should be gone")

	_, ok, err = s.Get("new")
	require.NoError(t, err)
	assert.True(t, ok, "freshly set entry survives its own Set")
}

func TestEvictionPrefersLeastRecentlyUsed(t *testing.T) {
	t.Parallel()

	var evicted []string
	s := newTestStore(t,
		WithSizeLimit(130),
		WithOnEvict(func(key string, _ meta.Entry) { evicted = append(evicted, key) }),
	)

	require.NoError(t, s.Set("a", meta.Entry{Path: "blobs/a.mf", Size: 60}))
	require.NoError(t, s.Set("b", meta.Entry{Path: "blobs/b.mf", Size: 60}))

	// Touch "a" so "b" becomes the LRU victim.
	_, ok, err := s.Get("a")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, s.Set("c", meta.Entry{Path: "blobs/c.mf", Size: 60}))
	assert.Equal(t, []string{"b"}, evicted)
}

func TestNoEvictionWithoutLimit(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, WithOnEvict(func(string, meta.Entry) {
		t.Fatal("eviction must not fire without a size limit")
	}))
	for i := 0; i < 10; i++ {
		require.NoError(t, s.Set(string(rune('a'+i)), meta.Entry{Size: 1 << 20}))
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "index.db")
	s, err := New(path)
	require.NoError(t, err)
	require.NoError(t, s.Set("k", meta.Entry{Path: "blobs/k.mf", Size: 7}))
	require.NoError(t, s.Close())

	s2, err := New(path)
	require.NoError(t, err)
	defer s2.Close()

	got, ok, err := s2.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "blobs/k.mf", got.Path)
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	_, err := New("")
	assert.Error(t, err)
}
