package cache

import (
	"sync"
	"time"
)

// EmbeddingCache remembers recent embeddings by text digest so re-embedding
// unchanged text does not call the model again. Entries expire after ttl and
// the least recently used entry is evicted at capacity.
type EmbeddingCache struct {
	mu      sync.RWMutex
	entries map[uint64]*cacheEntry
	order   []uint64
	maxSize int
	ttl     time.Duration
	now     func() time.Time
}

type cacheEntry struct {
	vector    []float32
	timestamp time.Time
}

func NewEmbeddingCache(maxSize int, ttl time.Duration) *EmbeddingCache {
	if maxSize <= 0 {
		maxSize = 1024
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &EmbeddingCache{
		entries: make(map[uint64]*cacheEntry),
		order:   make([]uint64, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns a copy of the cached vector.
func (c *EmbeddingCache) Get(digest uint64) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.entries[digest]
	if !exists {
		return nil, false
	}
	if c.now().Sub(entry.timestamp) > c.ttl {
		delete(c.entries, digest)
		c.removeFromOrder(digest)
		return nil, false
	}
	c.moveToEnd(digest)

	out := make([]float32, len(entry.vector))
	copy(out, entry.vector)
	return out, true
}

func (c *EmbeddingCache) Put(digest uint64, vec []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := make([]float32, len(vec))
	copy(stored, vec)
	entry := &cacheEntry{vector: stored, timestamp: c.now()}

	if _, exists := c.entries[digest]; exists {
		c.entries[digest] = entry
		c.moveToEnd(digest)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}
	c.entries[digest] = entry
	c.order = append(c.order, digest)
}

func (c *EmbeddingCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[uint64]*cacheEntry)
	c.order = c.order[:0]
}

func (c *EmbeddingCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *EmbeddingCache) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
}

func (c *EmbeddingCache) moveToEnd(digest uint64) {
	c.removeFromOrder(digest)
	c.order = append(c.order, digest)
}

func (c *EmbeddingCache) removeFromOrder(digest uint64) {
	for i, d := range c.order {
		if d == digest {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
