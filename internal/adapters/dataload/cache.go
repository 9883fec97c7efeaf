package dataload

import (
	"fmt"
	"os"

	"github.com/hashicorp/golang-lru/v2"

	"github.com/factorlab/beltplan-go/internal/adapters/metrics"
	"github.com/factorlab/beltplan-go/internal/domain/gamedata"
)

// defaultCacheSize bounds the number of parsed databases kept in memory.
// Definitions are large but few; reopening projects should not reparse.
const defaultCacheSize = 8

// cacheKey identifies one parse: same path with a newer mtime or size is a
// different entry, so edited files reload automatically.
type cacheKey struct {
	path  string
	mtime int64
	size  int64
}

// CachedLoader wraps a Loader with an LRU over parsed databases.
type CachedLoader struct {
	loader *Loader
	cache  *lru.Cache[cacheKey, *gamedata.Database]
}

// NewCachedLoader creates a new CachedLoader holding up to size parsed
// databases. A size of zero or less falls back to the default.
func NewCachedLoader(size int) (*CachedLoader, error) {
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, err := lru.New[cacheKey, *gamedata.Database](size)
	if err != nil {
		return nil, err
	}
	return &CachedLoader{loader: NewLoader(), cache: cache}, nil
}

// Load returns the database for the definition at path, parsing it only if
// no current parse is cached.
func (c *CachedLoader) Load(path string) (*gamedata.Database, error) {
	key, err := keyFor(path)
	if err != nil {
		return nil, err
	}
	if db, ok := c.cache.Get(key); ok {
		metrics.RecordCacheLookup(true)
		return db, nil
	}
	metrics.RecordCacheLookup(false)

	db, err := c.loader.Load(path)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, db)
	return db, nil
}

// Invalidate drops every cached parse of the path, regardless of mtime.
func (c *CachedLoader) Invalidate(path string) {
	for _, key := range c.cache.Keys() {
		if key.path == path {
			c.cache.Remove(key)
		}
	}
}

func keyFor(path string) (cacheKey, error) {
	info, err := os.Stat(path)
	if err != nil {
		return cacheKey{}, fmt.Errorf("stat game definition: %w", err)
	}
	return cacheKey{path: path, mtime: info.ModTime().UnixNano(), size: info.Size()}, nil
}
