package sink

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yhonda-ohishi/articlefeed/imagestream/codec"
)

// DefaultRedisTTL is how long a cached image lives when no TTL is given.
const DefaultRedisTTL = 300 * time.Second

// KeyValueStore is the part of redis.Cmdable used by RedisSink.
type KeyValueStore interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisSink caches each payload under <prefix>:<id>:<seq> with a TTL, where
// seq counts frames put into this sink. Releasing the handle deletes the key.
type RedisSink struct {
	store  KeyValueStore
	prefix string
	ttl    time.Duration
	seq    atomic.Int64
}

// NewRedisSink creates a sink writing to store. A zero ttl selects DefaultRedisTTL.
func NewRedisSink(store KeyValueStore, prefix string, ttl time.Duration) *RedisSink {
	if ttl <= 0 {
		ttl = DefaultRedisTTL
	}
	return &RedisSink{store: store, prefix: prefix, ttl: ttl}
}

// Put stores the payload under a key no other Put of this sink uses, so
// frames sharing an id never overwrite or delete each other.
func (s *RedisSink) Put(ctx context.Context, frame codec.Frame) (Handle, error) {
	key := fmt.Sprintf("%s:%d:%d", s.prefix, frame.ID, s.seq.Add(1))
	if err := s.store.Set(ctx, key, frame.Payload, s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("cache frame %d: %w", frame.ID, err)
	}
	return &CacheEntry{id: frame.ID, key: key, store: s.store}, nil
}

// CacheEntry is an image stored by RedisSink. Releasing it deletes the key.
type CacheEntry struct {
	id    int
	key   string
	store KeyValueStore
	once  sync.Once
	err   error
}

// ID returns the frame id.
func (h *CacheEntry) ID() int { return h.id }

// Key returns the Redis key holding the payload.
func (h *CacheEntry) Key() string { return h.key }

// Release deletes the key.
func (h *CacheEntry) Release() error {
	h.once.Do(func() {
		// Release has no caller context; bound the call instead.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		h.err = h.store.Del(ctx, h.key).Err()
	})
	return h.err
}
