package memory

import (
	"sync"
	"time"

	"github.com/kirillkom/personal-reading-tracker/internal/core/domain"
)

// Cache is a TTL-bounded in-process cache for candidate enrichment lookups.
// When full it evicts the entry closest to expiry.
type Cache struct {
	ttl        time.Duration
	maxEntries int
	now        func() time.Time

	mu      sync.Mutex
	entries map[string]entry
}

type entry struct {
	value     domain.RawCandidate
	expiresAt time.Time
}

func New(ttl time.Duration, maxEntries int) *Cache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	if maxEntries <= 0 {
		maxEntries = 1024
	}
	return &Cache{
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
		entries:    make(map[string]entry),
	}
}

func (c *Cache) Get(key string) (domain.RawCandidate, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.RawCandidate{}, false
	}
	if c.now().After(e.expiresAt) {
		delete(c.entries, key)
		return domain.RawCandidate{}, false
	}
	return e.value, true
}

func (c *Cache) Set(key string, value domain.RawCandidate) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOldest()
	}
	c.entries[key] = entry{value: value, expiresAt: c.now().Add(c.ttl)}
}

func (c *Cache) evictOldest() {
	var oldestKey string
	var oldestAt time.Time
	first := true
	for key, e := range c.entries {
		if first || e.expiresAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = e.expiresAt
			first = false
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
