package indicators

import (
	"fmt"
	"sync"
	"time"

	"github.com/ducminhle1904/sector-rotation/internal/errors"
	"github.com/ducminhle1904/sector-rotation/pkg/types"
)

// DefaultCacheSize bounds the number of frames held by a FrameCache
const DefaultCacheSize = 4096

// CacheKey identifies a frame. The as-of date keeps a frame computed for one date from being
// served for another, and the parameter set keeps two configurations apart.
type CacheKey struct {
	Instrument string
	Params     Params
	AsOf       time.Time
}

// CacheStats reports cache effectiveness
type CacheStats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int
}

// FrameCache memoizes computed frames. Entries are evicted oldest-first once the cache is
// full. Switching to a different parameter set drops every entry computed with the old one.
type FrameCache struct {
	mu         sync.Mutex
	entries    map[CacheKey]*Frame
	order      []CacheKey
	maxEntries int
	params     *Params
	stats      CacheStats
}

// NewFrameCache creates a cache holding at most maxEntries frames.
func NewFrameCache(maxEntries int) *FrameCache {
	if maxEntries <= 0 {
		maxEntries = DefaultCacheSize
	}
	return &FrameCache{
		entries:    make(map[CacheKey]*Frame),
		maxEntries: maxEntries,
	}
}

// Get returns the cached frame for key.
func (c *FrameCache) Get(key CacheKey) (*Frame, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key.AsOf = types.TruncateDay(key.AsOf)
	f, ok := c.entries[key]
	if ok {
		c.stats.Hits++
	} else {
		c.stats.Misses++
	}
	return f, ok
}

// Put stores f under key, invalidating entries of any other parameter set first.
func (c *FrameCache) Put(key CacheKey, f *Frame) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key.AsOf = types.TruncateDay(key.AsOf)
	c.switchParams(key.Params)
	if _, exists := c.entries[key]; exists {
		c.entries[key] = f
		return
	}
	for len(c.order) >= c.maxEntries {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
		c.stats.Evictions++
	}
	c.entries[key] = f
	c.order = append(c.order, key)
}

// Invalidate drops every entry not computed with p.
func (c *FrameCache) Invalidate(p Params) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.params = nil
	c.switchParams(p)
}

func (c *FrameCache) switchParams(p Params) {
	if c.params != nil && *c.params == p {
		return
	}
	kept := c.order[:0]
	for _, k := range c.order {
		if k.Params == p {
			kept = append(kept, k)
			continue
		}
		delete(c.entries, k)
	}
	c.order = kept
	c.params = &p
}

// Clear removes all cached frames
func (c *FrameCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[CacheKey]*Frame)
	c.order = nil
	c.params = nil
}

// Stats returns a snapshot of the cache counters
func (c *FrameCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Size = len(c.entries)
	return s
}

// Frame returns the frame of instrument as of asOf, computing and caching it on a miss.
// Only bars dated on or before asOf are used, for both the instrument and the benchmark.
// At least p.LongWindow bars are required.
func (c *FrameCache) Frame(instrument string, series, benchmark types.Series, p Params, asOf time.Time) (*Frame, error) {
	return c.FrameAtLeast(instrument, series, benchmark, p, asOf, p.LongWindow)
}

// FrameAtLeast is Frame with an explicit minimum history. The cached frame does not depend on
// minBars, so callers with different requirements share entries.
func (c *FrameCache) FrameAtLeast(instrument string, series, benchmark types.Series, p Params, asOf time.Time, minBars int) (*Frame, error) {
	history := series.Until(asOf)
	if len(history) < max(minBars, 1) {
		return nil, errors.DataUnavailable("indicators", "frame",
			fmt.Sprintf("need %d bars, have %d", max(minBars, 1), len(history))).WithInstrument(instrument).WithDate(asOf)
	}

	key := CacheKey{Instrument: instrument, Params: p, AsOf: types.TruncateDay(asOf)}
	if f, ok := c.Get(key); ok {
		return f, nil
	}
	f, err := ComputeAtLeast(history, benchmark.Until(asOf), p, 1)
	if err != nil {
		return nil, err
	}
	c.Put(key, f)
	return f, nil
}
