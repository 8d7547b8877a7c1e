// Package tiles proxies basemap raster tiles for each map style through a
// bounded in-memory cache.
package tiles

import (
	"container/list"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sells-group/geo-dashboard/internal/model"
)

// Tile is one cached raster tile.
type Tile struct {
	Data        []byte
	ContentType string
}

// Cache is a concurrent-safe LRU tile cache with TTL expiration.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]*list.Element
	order      *list.List // front=newest, back=oldest
	maxEntries int
	ttl        time.Duration
	now        func() time.Time
	hits       atomic.Int64
	misses     atomic.Int64
}

type cacheEntry struct {
	key       string
	tile      Tile
	createdAt time.Time
}

// CacheStats contains cache performance statistics.
type CacheStats struct {
	Entries    int     `json:"entries"`
	MaxEntries int     `json:"max_entries"`
	Hits       int64   `json:"hits"`
	Misses     int64   `json:"misses"`
	HitRate    float64 `json:"hit_rate"`
}

// NewCache creates a cache holding at most maxEntries tiles, each for ttl.
// A non-positive maxEntries disables caching.
func NewCache(maxEntries int, ttl time.Duration) *Cache {
	return &Cache{
		entries:    make(map[string]*list.Element),
		order:      list.New(),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
	}
}

func cacheKey(style model.TileStyle, z, x, y int) string {
	return fmt.Sprintf("%s/%d/%d/%d", style, z, x, y)
}

// Get returns a cached tile. The second result is false on miss or expiry.
func (c *Cache) Get(style model.TileStyle, z, x, y int) (Tile, bool) {
	key := cacheKey(style, z, x, y)

	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)
		return Tile{}, false
	}
	entry := el.Value.(*cacheEntry)
	if c.ttl > 0 && c.now().Sub(entry.createdAt) > c.ttl {
		c.removeElement(el)
		c.misses.Add(1)
		return Tile{}, false
	}

	c.order.MoveToFront(el)
	c.hits.Add(1)
	return entry.tile, true
}

// Put stores a tile, evicting the least recently used entry when full.
func (c *Cache) Put(style model.TileStyle, z, x, y int, tile Tile) {
	if c.maxEntries <= 0 {
		return
	}
	key := cacheKey(style, z, x, y)

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value = &cacheEntry{key: key, tile: tile, createdAt: c.now()}
		c.order.MoveToFront(el)
		return
	}

	for c.order.Len() >= c.maxEntries {
		c.removeElement(c.order.Back())
	}
	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, tile: tile, createdAt: c.now()})
}

// Purge drops every cached tile for style.
func (c *Cache) Purge(style model.TileStyle) {
	prefix := string(style) + "/"

	c.mu.Lock()
	defer c.mu.Unlock()

	for key, el := range c.entries {
		if strings.HasPrefix(key, prefix) {
			c.removeElement(el)
		}
	}
}

// Stats returns cache performance statistics.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	entries := c.order.Len()
	c.mu.Unlock()

	hits := c.hits.Load()
	misses := c.misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return CacheStats{
		Entries:    entries,
		MaxEntries: c.maxEntries,
		Hits:       hits,
		Misses:     misses,
		HitRate:    hitRate,
	}
}

func (c *Cache) removeElement(el *list.Element) {
	entry := c.order.Remove(el).(*cacheEntry)
	delete(c.entries, entry.key)
}
