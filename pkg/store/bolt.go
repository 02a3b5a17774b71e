package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

const expiryValueBytes = 8

// BoltBackend persists backing store values in BoltDB. Every store gets its own bucket named
// after its id; values are an 8-byte big-endian expiry followed by the JSON-encoded value.
type BoltBackend struct {
	db              *bolt.DB
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	ttl             time.Duration
	cleanupInterval time.Duration
	log             Logger
}

// OpenBolt opens (or creates) the database at path.
func OpenBolt(path string, opts Options) (*BoltBackend, error) {
	opts = normalizeOptions(opts)
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create backing store directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}

	b := &BoltBackend{
		db:              db,
		ttl:             opts.TTL,
		cleanupInterval: opts.CleanupInterval,
		log:             opts.Logger,
	}
	b.lastCleanup.Store(time.Now().Unix())
	return b, nil
}

// Close closes the database.
func (b *BoltBackend) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Factory returns a factory creating a fresh persisted store per model.
func (b *BoltBackend) Factory() BackingStoreFactory {
	return func() BackingStore { return b.NewStore() }
}

// NewStore returns an empty store with a generated id.
func (b *BoltBackend) NewStore() *BoltBackingStore {
	return &BoltBackingStore{
		InMemoryBackingStore: NewInMemoryBackingStore(),
		id:                   uuid.NewString(),
		backend:              b,
	}
}

// Restore loads the unexpired values persisted under id. Restored values count as unchanged.
func (b *BoltBackend) Restore(id string) (*BoltBackingStore, error) {
	if err := b.maybeCleanupExpired(time.Now()); err != nil {
		return nil, err
	}

	s := &BoltBackingStore{InMemoryBackingStore: NewInMemoryBackingStore(), id: id, backend: b}
	now := time.Now()
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(id))
		if bucket == nil {
			return fmt.Errorf("backing store %q not found", id)
		}
		return bucket.ForEach(func(k, v []byte) error {
			expiry, payload, ok := decodeEntry(v)
			if !ok || !expiry.After(now) {
				return nil
			}
			var value any
			if err := json.Unmarshal(payload, &value); err != nil {
				return fmt.Errorf("decode %q: %w", k, err)
			}
			s.InMemoryBackingStore.values[string(k)] = storedValue{value: value}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (b *BoltBackend) put(id, key string, value any) error {
	now := time.Now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return err
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(id))
		if err != nil {
			return err
		}
		return bucket.Put([]byte(key), encodeEntry(now.Add(b.ttl), payload))
	})
}

func (b *BoltBackend) drop(id string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket([]byte(id)) == nil {
			return nil
		}
		return tx.DeleteBucket([]byte(id))
	})
}

// maybeCleanupExpired removes expired values on a fixed cadence; emptied buckets are dropped.
func (b *BoltBackend) maybeCleanupExpired(now time.Time) error {
	if b == nil || b.db == nil {
		return nil
	}

	last := time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	b.cleanupMu.Lock()
	defer b.cleanupMu.Unlock()

	last = time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		var empty [][]byte
		err := tx.ForEach(func(name []byte, bucket *bolt.Bucket) error {
			var expired [][]byte
			remaining := 0
			cursor := bucket.Cursor()
			for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
				expiry, _, ok := decodeEntry(v)
				if !ok || !expiry.After(now) {
					expired = append(expired, append([]byte(nil), k...))
					continue
				}
				remaining++
			}
			for _, k := range expired {
				if err := bucket.Delete(k); err != nil {
					return err
				}
			}
			if remaining == 0 {
				empty = append(empty, append([]byte(nil), name...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, name := range empty {
			if err := tx.DeleteBucket(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err == nil {
		b.lastCleanup.Store(now.Unix())
	}
	return err
}

func encodeEntry(expiry time.Time, payload []byte) []byte {
	buf := make([]byte, expiryValueBytes+len(payload))
	binary.BigEndian.PutUint64(buf, uint64(expiry.Unix()))
	copy(buf[expiryValueBytes:], payload)
	return buf
}

func decodeEntry(value []byte) (time.Time, []byte, bool) {
	if len(value) < expiryValueBytes {
		return time.Time{}, nil, false
	}
	unix := int64(binary.BigEndian.Uint64(value[:expiryValueBytes]))
	if unix <= 0 {
		return time.Time{}, nil, false
	}
	return time.Unix(unix, 0), value[expiryValueBytes:], true
}

// BoltBackingStore tracks changes in memory and writes every set value through to BoltDB.
// Nested models are not persisted; they own their own stores.
type BoltBackingStore struct {
	*InMemoryBackingStore
	id      string
	backend *BoltBackend
}

// ID names the bucket holding this store's values.
func (s *BoltBackingStore) ID() string { return s.id }

// Set writes value to BoltDB before updating memory; a failed write leaves the store unchanged.
func (s *BoltBackingStore) Set(key string, value any) error {
	trimmed := strings.TrimSpace(key)
	if _, nested := value.(BackedModel); !nested && trimmed != "" {
		if err := s.backend.put(s.id, trimmed, value); err != nil {
			return fmt.Errorf("persist %q: %w", trimmed, err)
		}
	}
	return s.InMemoryBackingStore.Set(key, value)
}

// Clear empties the store and drops its bucket. Clear cannot return an error, so a failed drop
// is logged; Restore would bring those values back.
func (s *BoltBackingStore) Clear() {
	s.InMemoryBackingStore.Clear()
	if err := s.backend.drop(s.id); err != nil {
		s.backend.log.ErrorObj("failed to drop persisted backing store", "backing_store", map[string]any{
			"id":    s.id,
			"error": err.Error(),
		})
	}
}
