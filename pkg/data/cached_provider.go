package data

import (
	"fmt"
	"sync"
	"time"

	"github.com/phuslu/log"

	"github.com/ducminhle1904/sector-rotation/pkg/types"
)

// MemoryCache implements SeriesCache using in-memory storage
type MemoryCache struct {
	cache map[string]types.Series
	mutex sync.RWMutex
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		cache: make(map[string]types.Series),
	}
}

// Get retrieves a series from cache if available. Series are immutable once loaded, so the
// cached slice is shared.
func (c *MemoryCache) Get(key string) (types.Series, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	series, exists := c.cache[key]
	return series, exists
}

// Set stores a copy of series in cache
func (c *MemoryCache) Set(key string, series types.Series) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	cached := make(types.Series, len(series))
	copy(cached, series)
	c.cache[key] = cached
}

// Clear removes all cached data
func (c *MemoryCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.cache = make(map[string]types.Series)
}

// Size returns the number of cached entries
func (c *MemoryCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return len(c.cache)
}

// CachedSource wraps another OHLCVSource with caching
type CachedSource struct {
	source OHLCVSource
	cache  SeriesCache
	logger *log.Logger
}

// NewCachedSource creates a cached source backed by a MemoryCache
func NewCachedSource(source OHLCVSource, logger *log.Logger) *CachedSource {
	return NewCachedSourceWithCache(source, NewMemoryCache(), logger)
}

// NewCachedSourceWithCache creates a cached source with a custom cache
func NewCachedSourceWithCache(source OHLCVSource, cache SeriesCache, logger *log.Logger) *CachedSource {
	return &CachedSource{source: source, cache: cache, logger: logger}
}

// FetchOHLCV returns the cached series for (id, start, end), loading it on a miss. Errors are
// not cached.
func (s *CachedSource) FetchOHLCV(id string, start, end time.Time) (types.Series, error) {
	key := fmt.Sprintf("%s|%s|%s", id, start.Format(time.DateOnly), end.Format(time.DateOnly))
	if series, ok := s.cache.Get(key); ok {
		return series, nil
	}

	series, err := s.source.FetchOHLCV(id, start, end)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, series)
	s.logger.Debug().Str("instrument", id).Int("bars", len(series)).Msg("loaded and cached series")
	return series, nil
}

// GetCache returns the underlying cache for external management
func (s *CachedSource) GetCache() SeriesCache {
	return s.cache
}
