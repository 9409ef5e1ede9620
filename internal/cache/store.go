package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Get when no snapshot exists for the key.
var ErrMiss = errors.New("cache miss")

// Snapshot is a cached copy of remote data. Entries are replaced wholesale on
// every Put, never merged, so a reader always sees one consistent snapshot.
type Snapshot struct {
	Key      string          `json:"key"`
	Data     json.RawMessage `json:"data"`
	CachedAt time.Time       `json:"cached_at"`
}

// Stale reports whether the snapshot is older than ttl at the given instant.
// Eviction is a caller decision made at read time; the store itself keeps
// entries until they are overwritten.
func (s *Snapshot) Stale(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.CachedAt) > ttl
}

// Decode unmarshals the snapshot payload into dest.
func (s *Snapshot) Decode(dest any) error {
	if err := json.Unmarshal(s.Data, dest); err != nil {
		return fmt.Errorf("failed to decode snapshot %q: %w", s.Key, err)
	}
	return nil
}

// Store is a durable last-writer-wins snapshot store keyed by
// (category, key).
type Store interface {
	Put(ctx context.Context, category, key string, data any) error
	Get(ctx context.Context, category, key string) (*Snapshot, error)
}

// RedisStore persists snapshots in Redis. Writes replace the whole entry in a
// single SET, so partial snapshots are never observable.
type RedisStore struct {
	client *redis.Client
	clock  clockwork.Clock
}

func NewRedisStore(client *redis.Client, clock clockwork.Clock) *RedisStore {
	return &RedisStore{
		client: client,
		clock:  clock,
	}
}

func snapshotKey(category, key string) string {
	return fmt.Sprintf("snapshot:%s:%s", category, key)
}

// Put stores or overwrites the snapshot for (category, key) with the current
// timestamp. Serialization and storage errors are returned to the caller and
// leave any previous snapshot untouched.
func (r *RedisStore) Put(ctx context.Context, category, key string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot data: %w", err)
	}

	snap := Snapshot{
		Key:      key,
		Data:     raw,
		CachedAt: r.clock.Now().UTC(),
	}
	val, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot envelope: %w", err)
	}

	if err := r.client.Set(ctx, snapshotKey(category, key), val, 0).Err(); err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}
	return nil
}

// Get returns the snapshot for (category, key) or ErrMiss.
func (r *RedisStore) Get(ctx context.Context, category, key string) (*Snapshot, error) {
	val, err := r.client.Get(ctx, snapshotKey(category, key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	snap := &Snapshot{}
	if err := json.Unmarshal(val, snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return snap, nil
}

// MemoryStore is a process-local Store used in tests and as a fallback when
// Redis is not configured. Same replace-wholesale semantics as RedisStore,
// without durability.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
	clock   clockwork.Clock
}

func NewMemoryStore(clock clockwork.Clock) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string][]byte),
		clock:   clock,
	}
}

func (m *MemoryStore) Put(ctx context.Context, category, key string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot data: %w", err)
	}
	val, err := json.Marshal(Snapshot{
		Key:      key,
		Data:     raw,
		CachedAt: m.clock.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot envelope: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[snapshotKey(category, key)] = val
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, category, key string) (*Snapshot, error) {
	m.mu.RLock()
	val, ok := m.entries[snapshotKey(category, key)]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrMiss
	}

	snap := &Snapshot{}
	if err := json.Unmarshal(val, snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return snap, nil
}
