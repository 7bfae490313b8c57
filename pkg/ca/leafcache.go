package ca

import (
	"crypto/tls"
	"sync"
	"time"
)

// defaultLeafCacheSize bounds the in-memory leaf cache. The source mints a
// fresh leaf per connection; caching by SNI trades a small replay window
// (a leaf is reused for its lifetime below) for far fewer RSA signing
// operations under high connection rates. Either choice satisfies the SAN
// invariant, so long as eviction keeps the cache bounded.
const defaultLeafCacheSize = 256

const leafCacheTTL = 10 * time.Minute

type leafCacheEntry struct {
	cert    *tls.Certificate
	mintedAt time.Time
}

// leafCache is a bounded, TTL-expiring cache of minted leaf certificates
// keyed by SNI. Eviction is least-recently-used once the size bound is hit.
type leafCache struct {
	mu      sync.Mutex
	max     int
	entries map[string]*leafCacheEntry
	order   []string // most-recently-used at the end
}

func newLeafCache(max int) *leafCache {
	return &leafCache{
		max:     max,
		entries: make(map[string]*leafCacheEntry),
	}
}

func (c *leafCache) get(sni string) (*tls.Certificate, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[sni]
	if !ok {
		return nil, false
	}
	if time.Since(entry.mintedAt) > leafCacheTTL {
		delete(c.entries, sni)
		c.removeFromOrder(sni)
		return nil, false
	}
	c.touch(sni)
	return entry.cert, true
}

func (c *leafCache) put(sni string, cert *tls.Certificate) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[sni]; !exists && len(c.entries) >= c.max {
		c.evictOldest()
	}

	c.entries[sni] = &leafCacheEntry{cert: cert, mintedAt: time.Now()}
	c.touch(sni)
}

// touch moves sni to the most-recently-used end; callers must hold c.mu.
func (c *leafCache) touch(sni string) {
	c.removeFromOrder(sni)
	c.order = append(c.order, sni)
}

func (c *leafCache) removeFromOrder(sni string) {
	for i, k := range c.order {
		if k == sni {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// evictOldest drops the least-recently-used entry; callers must hold c.mu.
func (c *leafCache) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
}

func (c *leafCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
