package memory

import (
	"context"
	"sync"
	"time"
)

// KV is an expiring string store. It backs the idempotency cache and the
// login rate limiter when Redis is not configured.
type KV struct {
	mu      sync.Mutex
	now     func() time.Time
	values  map[string]kvEntry
	counter map[string]kvCounter
}

type kvEntry struct {
	value     string
	expiresAt time.Time
}

type kvCounter struct {
	count     int64
	expiresAt time.Time
}

func NewKV() *KV {
	return &KV{
		now:     time.Now,
		values:  make(map[string]kvEntry),
		counter: make(map[string]kvCounter),
	}
}

// Get returns "" when key is missing or expired.
func (kv *KV) Get(_ context.Context, key string) (string, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	e, ok := kv.values[key]
	if !ok {
		return "", nil
	}
	if !e.expiresAt.IsZero() && kv.now().After(e.expiresAt) {
		delete(kv.values, key)
		return "", nil
	}
	return e.value, nil
}

func (kv *KV) Set(_ context.Context, key, value string, ttl time.Duration) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	e := kvEntry{value: value}
	if ttl > 0 {
		e.expiresAt = kv.now().Add(ttl)
	}
	kv.values[key] = e
	return nil
}

// Incr bumps the fixed-window counter for key and returns the new count. The
// window starts at the first hit.
func (kv *KV) Incr(_ context.Context, key string, window time.Duration) (int64, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	now := kv.now()
	c, ok := kv.counter[key]
	if !ok || now.After(c.expiresAt) {
		c = kvCounter{expiresAt: now.Add(window)}
	}
	c.count++
	kv.counter[key] = c
	return c.count, nil
}
