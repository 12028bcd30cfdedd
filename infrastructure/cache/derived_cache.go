// Package cache provides the TTL cache the dashboard keeps computed
// DerivedData in between refreshes. The engine itself stays pure; all
// memoization lives here, behind the ports.DerivedCache interface.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/ahrav/go-rostrum/internal/domain"
	"github.com/ahrav/go-rostrum/internal/ports"
)

var _ ports.DerivedCache = (*DerivedCache)(nil)

// DerivedCache is an in-memory TTL cache of computed DerivedData,
// keyed by the caller's view key (typically the category selection).
type DerivedCache struct{ store *gocache.Cache }

// New creates a DerivedCache with the given default TTL. Expired
// entries are swept at twice the TTL.
func New(defaultTTL time.Duration) *DerivedCache {
	return &DerivedCache{store: gocache.New(defaultTTL, 2*defaultTTL)}
}

// Get implements ports.DerivedCache.
func (c *DerivedCache) Get(key string) (domain.DerivedData, bool) {
	v, ok := c.store.Get(key)
	if !ok {
		return domain.DerivedData{}, false
	}
	data, ok := v.(domain.DerivedData)
	return data, ok
}

// Set implements ports.DerivedCache. A zero ttl uses the cache default.
func (c *DerivedCache) Set(key string, data domain.DerivedData, ttl time.Duration) {
	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}
	c.store.Set(key, data, ttl)
}

// Flush implements ports.DerivedCache.
func (c *DerivedCache) Flush() { c.store.Flush() }
