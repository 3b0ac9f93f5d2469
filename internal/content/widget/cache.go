package widget

import (
	"github.com/patrickmn/go-cache"
)

// HeightCache remembers the last rendered height of widgets so they can be
// pre-sized before their content loads.
//
// The cache is approximate: several widgets for the same URL may load at
// once and the last one to report wins.
type HeightCache struct {
	entries *cache.Cache
}

// NewHeightCache creates an empty cache whose entries live for the process.
func NewHeightCache() *HeightCache {
	return &HeightCache{
		entries: cache.New(cache.NoExpiration, 0),
	}
}

// ContentKey is the cache key of inline content loaded from url
func ContentKey(url string) string {
	return "content:" + url
}

// Get returns the cached height for key, or 0 when unknown.
func (h *HeightCache) Get(key string) int {
	v, ok := h.entries.Get(key)
	if !ok {
		return 0
	}
	height, _ := v.(int)
	return height
}

// Set records height for key.
func (h *HeightCache) Set(key string, height int) {
	h.entries.Set(key, height, cache.NoExpiration)
}

// Observe records height unless it equals previous, the value the caller saw
// when it rendered. It reports whether the cache was written.
func (h *HeightCache) Observe(key string, previous, height int) bool {
	if height == previous {
		return false
	}
	h.Set(key, height)
	return true
}

// Len returns the number of cached heights
func (h *HeightCache) Len() int {
	return h.entries.ItemCount()
}
