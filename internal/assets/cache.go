package assets

import (
	"path"
	"sort"
	"sync"
)

// Asset is an image held in memory.
type Asset struct {
	Data        []byte
	ContentType string
}

// Cache holds preloaded assets keyed by asset path.
type Cache struct {
	mu     sync.RWMutex
	assets map[string]Asset
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{assets: make(map[string]Asset)}
}

// Get returns the asset stored under assetPath.
func (c *Cache) Get(assetPath string) (Asset, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.assets[assetPath]
	return a, ok
}

// Set stores data under assetPath, inferring the content type from its extension.
func (c *Cache) Set(assetPath string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.assets[assetPath] = Asset{Data: data, ContentType: contentType(assetPath)}
}

// Len returns the number of cached assets.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.assets)
}

// Paths returns the cached asset paths in sorted order.
func (c *Cache) Paths() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	paths := make([]string, 0, len(c.assets))
	for p := range c.assets {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func contentType(assetPath string) string {
	switch path.Ext(assetPath) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}
