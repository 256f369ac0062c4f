package draft

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Cache holds one draft slot, one pending-publish flag and one published
// marker per draft token. Load never fails on unreadable content; it returns
// Empty instead. Errors are reserved for an unreachable backing store.
type Cache interface {
	Load(ctx context.Context, key string) (Draft, error)
	Save(ctx context.Context, key string, d Draft) error
	Clear(ctx context.Context, key string) error
	PendingPublish(ctx context.Context, key string) (bool, error)
	SetPendingPublish(ctx context.Context, key string, pending bool) error
	// PublishedReview returns the id of the review last published from the
	// slot, or "" when the slot has not been published since its last reset.
	PublishedReview(ctx context.Context, key string) (string, error)
	// SetPublishedReview records reviewID; "" removes the marker.
	SetPublishedReview(ctx context.Context, key string, reviewID string) error
}

func decode(raw []byte) Draft {
	d := Empty()
	if err := json.Unmarshal(raw, &d); err != nil {
		return Empty()
	}
	return d
}

// RedisCache stores drafts in Redis with a sliding TTL.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func draftKey(key string) string     { return "draft:" + key }
func pendingKey(key string) string   { return "draft:" + key + ":pending" }
func publishedKey(key string) string { return "draft:" + key + ":published" }

func (c *RedisCache) Load(ctx context.Context, key string) (Draft, error) {
	raw, err := c.rdb.Get(ctx, draftKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Empty(), nil
	}
	if err != nil {
		return Empty(), errors.Wrap(err, "load draft")
	}
	return decode(raw), nil
}

func (c *RedisCache) Save(ctx context.Context, key string, d Draft) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return errors.Wrap(err, "encode draft")
	}
	if err := c.rdb.Set(ctx, draftKey(key), raw, c.ttl).Err(); err != nil {
		return errors.Wrap(err, "save draft")
	}
	return nil
}

func (c *RedisCache) Clear(ctx context.Context, key string) error {
	if err := c.rdb.Del(ctx, draftKey(key)).Err(); err != nil {
		return errors.Wrap(err, "clear draft")
	}
	return nil
}

func (c *RedisCache) PendingPublish(ctx context.Context, key string) (bool, error) {
	n, err := c.rdb.Exists(ctx, pendingKey(key)).Result()
	if err != nil {
		return false, errors.Wrap(err, "read pending flag")
	}
	return n > 0, nil
}

func (c *RedisCache) SetPendingPublish(ctx context.Context, key string, pending bool) error {
	var err error
	if pending {
		err = c.rdb.Set(ctx, pendingKey(key), "true", c.ttl).Err()
	} else {
		err = c.rdb.Del(ctx, pendingKey(key)).Err()
	}
	return errors.Wrap(err, "write pending flag")
}

func (c *RedisCache) PublishedReview(ctx context.Context, key string) (string, error) {
	id, err := c.rdb.Get(ctx, publishedKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, "read published marker")
	}
	return id, nil
}

func (c *RedisCache) SetPublishedReview(ctx context.Context, key string, reviewID string) error {
	var err error
	if reviewID != "" {
		err = c.rdb.Set(ctx, publishedKey(key), reviewID, c.ttl).Err()
	} else {
		err = c.rdb.Del(ctx, publishedKey(key)).Err()
	}
	return errors.Wrap(err, "write published marker")
}

type memSlot struct {
	value   []byte
	expires time.Time
}

// MemoryCache is the in-process Cache used when no Redis is configured. It
// keeps the encoded form so it behaves like the Redis one, and expires
// entries after ttl the same way. A ttl of zero keeps entries forever.
type MemoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memSlot
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memSlot),
	}
}

// get returns the live value under k. Caller holds mu.
func (c *MemoryCache) get(k string) ([]byte, bool) {
	slot, ok := c.entries[k]
	if !ok {
		return nil, false
	}
	if !slot.expires.IsZero() && !c.now().Before(slot.expires) {
		delete(c.entries, k)
		return nil, false
	}
	return slot.value, true
}

// set stores value under k and drops whatever else has expired. Caller
// holds mu.
func (c *MemoryCache) set(k string, value []byte) {
	now := c.now()
	for key, slot := range c.entries {
		if !slot.expires.IsZero() && !now.Before(slot.expires) {
			delete(c.entries, key)
		}
	}
	slot := memSlot{value: value}
	if c.ttl > 0 {
		slot.expires = now.Add(c.ttl)
	}
	c.entries[k] = slot
}

// Len reports how many live entries the cache holds.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k := range c.entries {
		if _, ok := c.get(k); ok {
			n++
		}
	}
	return n
}

func (c *MemoryCache) Load(_ context.Context, key string) (Draft, error) {
	c.mu.Lock()
	raw, ok := c.get(draftKey(key))
	c.mu.Unlock()
	if !ok {
		return Empty(), nil
	}
	return decode(raw), nil
}

func (c *MemoryCache) Save(_ context.Context, key string, d Draft) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return errors.Wrap(err, "encode draft")
	}
	c.SaveRaw(key, raw)
	return nil
}

// SaveRaw stores undecoded bytes, as a browser-side slot might hold.
func (c *MemoryCache) SaveRaw(key string, raw []byte) {
	c.mu.Lock()
	c.set(draftKey(key), raw)
	c.mu.Unlock()
}

func (c *MemoryCache) Clear(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, draftKey(key))
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) PendingPublish(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.get(pendingKey(key))
	return ok, nil
}

func (c *MemoryCache) SetPendingPublish(_ context.Context, key string, pending bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if pending {
		c.set(pendingKey(key), []byte("true"))
	} else {
		delete(c.entries, pendingKey(key))
	}
	return nil
}

func (c *MemoryCache) PublishedReview(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, _ := c.get(publishedKey(key))
	return string(id), nil
}

func (c *MemoryCache) SetPublishedReview(_ context.Context, key string, reviewID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if reviewID != "" {
		c.set(publishedKey(key), []byte(reviewID))
	} else {
		delete(c.entries, publishedKey(key))
	}
	return nil
}
