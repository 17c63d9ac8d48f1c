// Package cache provides an in-process LRU cache of curated pools.
package cache

import (
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/custodia-labs/historycourt/internal/core/domain"
	"github.com/custodia-labs/historycourt/internal/core/ports/driven"
)

// Ensure PoolCache implements the interface.
var _ driven.PoolCache = (*PoolCache)(nil)

// PoolCache is a fixed-size, concurrency-safe LRU of curated pools.
// Pools are copied on the way in and out.
type PoolCache struct {
	lru *lru.Cache[string, []domain.RealItem]
}

// NewPoolCache creates a cache holding at most size pools.
// A size below one uses domain.DefaultPoolCacheSize.
func NewPoolCache(size int) (*PoolCache, error) {
	if size < 1 {
		size = domain.DefaultPoolCacheSize
	}
	c, err := lru.New[string, []domain.RealItem](size)
	if err != nil {
		return nil, err
	}
	return &PoolCache{lru: c}, nil
}

// Get returns the pool stored under key.
func (c *PoolCache) Get(key string) ([]domain.RealItem, bool) {
	pool, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	return slices.Clone(pool), true
}

// Add stores pool under key.
func (c *PoolCache) Add(key string, pool []domain.RealItem) {
	c.lru.Add(key, slices.Clone(pool))
}

// Len returns the number of cached pools.
func (c *PoolCache) Len() int {
	return c.lru.Len()
}
