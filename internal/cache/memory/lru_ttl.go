package memory

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

type item[V any] struct {
	value   V
	size    int
	expires time.Time
}

// LRUTTL is a threadsafe LRU cache with a shared TTL and optional byte budget.
// Recency and the entry limit come from simplelru; expiry is checked on read.
type LRUTTL[K comparable, V any] struct {
	mu  sync.Mutex
	lru *simplelru.LRU[K, item[V]]

	maxBytes  int
	usedBytes int
	ttl       time.Duration
	now       func() time.Time
}

func NewLRUTTL[K comparable, V any](maxEntries, maxBytes int, ttl time.Duration) *LRUTTL[K, V] {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	c := &LRUTTL[K, V]{
		maxBytes: maxBytes,
		ttl:      ttl,
		now:      time.Now,
	}
	// NewLRU only fails for a non-positive size.
	c.lru, _ = simplelru.NewLRU[K, item[V]](maxEntries, c.evicted)
	return c
}

// evicted runs synchronously inside lru calls, which are made under mu.
func (c *LRUTTL[K, V]) evicted(_ K, it item[V]) {
	c.usedBytes -= it.size
	if c.usedBytes < 0 {
		c.usedBytes = 0
	}
}

func (c *LRUTTL[K, V]) Get(key K) (V, bool) {
	var zero V
	if c == nil {
		return zero, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	it, ok := c.lru.Get(key)
	if !ok {
		return zero, false
	}
	if c.now().After(it.expires) {
		c.lru.Remove(key)
		return zero, false
	}
	return it.value, true
}

// Set stores value under key; sizeBytes counts toward the byte budget.
func (c *LRUTTL[K, V]) Set(key K, value V, sizeBytes int) {
	if c == nil {
		return
	}
	if sizeBytes < 0 {
		sizeBytes = 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	// Replacing a key does not fire the eviction callback.
	if old, ok := c.lru.Peek(key); ok {
		c.usedBytes -= old.size
	}
	c.lru.Add(key, item[V]{value: value, size: sizeBytes, expires: c.now().Add(c.ttl)})
	c.usedBytes += sizeBytes
	for c.maxBytes > 0 && c.usedBytes > c.maxBytes && c.lru.Len() > 0 {
		c.lru.RemoveOldest()
	}
}

func (c *LRUTTL[K, V]) Delete(key K) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Remove(key)
}

// DeleteFunc drops every entry whose key matches.
func (c *LRUTTL[K, V]) DeleteFunc(match func(K) bool) int {
	if c == nil || match == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, key := range c.lru.Keys() {
		if match(key) && c.lru.Remove(key) {
			n++
		}
	}
	return n
}

func (c *LRUTTL[K, V]) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
