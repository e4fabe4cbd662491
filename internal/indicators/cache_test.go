package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameCache_HitAndMiss(t *testing.T) {
	cache := NewFrameCache(10)
	series := makeSeries(1, 2, 3, 4, 5, 6, 7, 8)
	bench := makeSeries(repeat(1, 8)...)
	asOf := testStart.AddDate(0, 0, 5)

	f1, err := cache.Frame("A", series, bench, smallParams(), asOf)
	require.NoError(t, err)
	f2, err := cache.Frame("A", series, bench, smallParams(), asOf.Add(3))
	require.NoError(t, err)

	assert.Same(t, f1, f2)
	assert.Equal(t, 6, f1.Len(), "bars after the as-of date are excluded")

	stats := cache.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Size)
}

func TestFrameCache_KeyIncludesDateAndParams(t *testing.T) {
	cache := NewFrameCache(10)
	series := makeSeries(1, 2, 3, 4, 5, 6, 7, 8)
	bench := makeSeries(repeat(1, 8)...)

	day5, err := cache.Frame("A", series, bench, smallParams(), testStart.AddDate(0, 0, 5))
	require.NoError(t, err)
	day6, err := cache.Frame("A", series, bench, smallParams(), testStart.AddDate(0, 0, 6))
	require.NoError(t, err)
	assert.NotSame(t, day5, day6)
	assert.Equal(t, 2, cache.Stats().Size)

	other := smallParams()
	other.LongWindow = 5
	_, err = cache.Frame("A", series, bench, other, testStart.AddDate(0, 0, 6))
	require.NoError(t, err)
	assert.Equal(t, 1, cache.Stats().Size, "switching parameter sets drops stale frames")
}

func TestFrameCache_Eviction(t *testing.T) {
	cache := NewFrameCache(2)
	p := smallParams()
	for _, id := range []string{"A", "B", "C"} {
		cache.Put(CacheKey{Instrument: id, Params: p, AsOf: testStart}, &Frame{})
	}

	_, ok := cache.Get(CacheKey{Instrument: "A", Params: p, AsOf: testStart})
	assert.False(t, ok)
	_, ok = cache.Get(CacheKey{Instrument: "C", Params: p, AsOf: testStart})
	assert.True(t, ok)
	assert.Equal(t, int64(1), cache.Stats().Evictions)
}

func TestFrameCache_InvalidateAndClear(t *testing.T) {
	cache := NewFrameCache(0)
	p := smallParams()
	cache.Put(CacheKey{Instrument: "A", Params: p, AsOf: testStart}, &Frame{})

	cache.Invalidate(p)
	assert.Equal(t, 1, cache.Stats().Size)

	cache.Invalidate(DefaultParams())
	assert.Equal(t, 0, cache.Stats().Size)

	cache.Put(CacheKey{Instrument: "A", Params: p, AsOf: testStart}, &Frame{})
	cache.Clear()
	assert.Equal(t, 0, cache.Stats().Size)
}

func TestFrameCache_ErrorsAreNotCached(t *testing.T) {
	cache := NewFrameCache(10)
	series := makeSeries(1, 2)
	_, err := cache.Frame("A", series, series, smallParams(), testStart.AddDate(0, 0, 1))
	require.Error(t, err)
	assert.Equal(t, 0, cache.Stats().Size)
}
