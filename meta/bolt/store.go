// Package bolt provides the default metadata store, backed by a bbolt
// key/value file.
//
// All mutations run inside single-writer bbolt transactions, which is the
// only cross-process coordination the cache relies on: the last writer to
// register a key wins. Entries carry a last-access timestamp; when the
// configured byte budget is exceeded, Set evicts least-recently-used
// entries and reports them through the eviction callback.
package bolt

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	bbolt "go.etcd.io/bbolt"

	"github.com/lmmx/plcache/meta"
)

const defaultFileMode = 0o600

var bucketEntries = []byte("entries")

// Store implements meta.Store on a single bbolt file.
type Store struct {
	db        *bbolt.DB
	sizeLimit int64
	onEvict   meta.EvictFunc
	now       func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithSizeLimit sets the byte budget enforced at Set time. Zero or
// negative disables eviction.
func WithSizeLimit(n int64) Option {
	return func(s *Store) {
		s.sizeLimit = n
	}
}

// WithOnEvict sets a callback invoked once per evicted entry, after the
// evicting transaction commits.
func WithOnEvict(fn meta.EvictFunc) Option {
	return func(s *Store) {
		s.onEvict = fn
	}
}

// New opens (or creates) the store file at path.
func New(path string, opts ...Option) (*Store, error) {
	if path == "" {
		return nil, errors.New("store path is empty")
	}
	s := &Store{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	db, err := bbolt.Open(path, defaultFileMode, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open metadata store: %w", err)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketEntries)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init metadata store: %w", err)
	}
	s.db = db
	return s, nil
}

// record is the stored form of an entry plus its LRU clock.
type record struct {
	meta.Entry
	LastAccess time.Time `json:"last_access"`
}

// Get returns the entry for key and refreshes its last-access time.
func (s *Store) Get(key string) (meta.Entry, bool, error) {
	var (
		rec   record
		found bool
	)
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEntries)
		raw := b.Get([]byte(key))
		if raw == nil {
			return nil
		}
		if err := json.Unmarshal(raw, &rec); err != nil {
			return fmt.Errorf("decode entry %q: %w", key, err)
		}
		found = true
		rec.LastAccess = s.now()
		touched, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), touched)
	})
	if err != nil {
		return meta.Entry{}, false, err
	}
	return rec.Entry, found, nil
}

// Set registers the entry for key, then evicts least-recently-used entries
// until the byte budget is met. The just-written key is never evicted by
// its own Set.
func (s *Store) Set(key string, entry meta.Entry) error {
	var evicted []evictedEntry
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEntries)
		raw, err := json.Marshal(record{Entry: entry, LastAccess: s.now()})
		if err != nil {
			return err
		}
		if err := b.Put([]byte(key), raw); err != nil {
			return err
		}
		evicted, err = s.enforceBudget(b, key)
		return err
	})
	if err != nil {
		return err
	}
	if s.onEvict != nil {
		for _, e := range evicted {
			s.onEvict(e.key, e.entry)
		}
	}
	return nil
}

// Delete removes the entry for key.
func (s *Store) Delete(key string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketEntries).Delete([]byte(key))
	})
}

// Clear drops every entry. Eviction callbacks do not fire.
func (s *Store) Clear() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketEntries); err != nil {
			return err
		}
		_, err := tx.CreateBucket(bucketEntries)
		return err
	})
}

// Close closes the underlying bbolt file.
func (s *Store) Close() error {
	return s.db.Close()
}

type evictedEntry struct {
	key   string
	entry meta.Entry
}

type candidate struct {
	key        string
	size       int64
	lastAccess time.Time
}

// enforceBudget deletes least-recently-used entries until the total charged
// size fits the budget. keep is exempt from this pass.
func (s *Store) enforceBudget(b *bbolt.Bucket, keep string) ([]evictedEntry, error) {
	if s.sizeLimit <= 0 {
		return nil, nil
	}

	var (
		total      int64
		candidates []candidate
	)
	err := b.ForEach(func(k, v []byte) error {
		var rec record
		if err := json.Unmarshal(v, &rec); err != nil {
			return fmt.Errorf("decode entry %q: %w", string(k), err)
		}
		total += rec.Size
		if string(k) != keep {
			candidates = append(candidates, candidate{
				key:        string(k),
				size:       rec.Size,
				lastAccess: rec.LastAccess,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if total <= s.sizeLimit {
		return nil, nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].lastAccess.Equal(candidates[j].lastAccess) {
			return candidates[i].key < candidates[j].key
		}
		return candidates[i].lastAccess.Before(candidates[j].lastAccess)
	})

	var evicted []evictedEntry
	for _, c := range candidates {
		if total <= s.sizeLimit {
			break
		}
		var rec record
		if raw := b.Get([]byte(c.key)); raw != nil {
			// Decoded once already; a failure here would have failed above.
			_ = json.Unmarshal(raw, &rec)
		}
		if err := b.Delete([]byte(c.key)); err != nil {
			return evicted, err
		}
		total -= c.size
		evicted = append(evicted, evictedEntry{key: c.key, entry: rec.Entry})
	}
	return evicted, nil
}
