package metadata

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"solana-activity-gateway/internal/domain"
)

// DefaultCacheSize bounds the resolved-metadata cache.
const DefaultCacheSize = 4096

// Cache is a bounded LRU of resolved token metadata keyed by mint.
// Only real resolutions are cached; fallback placeholders never enter it.
type Cache struct {
	lru *lru.Cache[string, domain.TokenMetadata]
}

// NewCache creates a cache holding up to size entries.
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New[string, domain.TokenMetadata](size)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: c}, nil
}

// Get returns the cached metadata for a mint.
func (c *Cache) Get(mint string) (domain.TokenMetadata, bool) {
	return c.lru.Get(mint)
}

// Put stores metadata for a mint, evicting the least recently used entry
// when full.
func (c *Cache) Put(mint string, m domain.TokenMetadata) {
	c.lru.Add(mint, m)
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	return c.lru.Len()
}
