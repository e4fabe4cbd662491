package sector

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/sector-rotation/internal/indicators"
	"github.com/ducminhle1904/sector-rotation/internal/logger"
	"github.com/ducminhle1904/sector-rotation/pkg/data"
	"github.com/ducminhle1904/sector-rotation/pkg/types"
)

var start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func date(i int) time.Time { return start.AddDate(0, 0, i) }

// path builds flat bars at 100 for flat days followed by growth days compounding at rate.
func path(flat, growth int, rate float64) types.Series {
	s := make(types.Series, 0, flat+growth)
	c := 100.0
	for i := 0; i < flat+growth; i++ {
		if i >= flat {
			c *= 1 + rate
		}
		s = append(s, types.OHLCV{Open: c, High: c + 1, Low: c - 1, Close: c, Timestamp: date(i)})
	}
	return s
}

func testParams() indicators.Params {
	p := indicators.DefaultParams()
	p.ShortWindow, p.LongWindow = 2, 5
	return p
}

func frame(t *testing.T, s types.Series) *indicators.Frame {
	t.Helper()
	f, err := indicators.ComputeAtLeast(s, path(len(s), 0, 0), testParams(), 1)
	require.NoError(t, err)
	return f
}

func TestQualifies(t *testing.T) {
	opts := DefaultOptions()

	assert.True(t, Qualifies(frame(t, path(30, 5, 0.06)), opts))
	assert.False(t, Qualifies(frame(t, path(35, 0, 0)), opts), "flat RS is 1")
	assert.False(t, Qualifies(frame(t, path(30, 5, -0.06)), opts), "falling RS")
	assert.False(t, Qualifies(frame(t, path(15, 5, 0.06)), opts), "fewer than 21 rows")
	assert.False(t, Qualifies(nil, opts))
}

func TestQualifies_RSMustBeRising(t *testing.T) {
	f := frame(t, path(30, 5, 0.06))
	opts := DefaultOptions()
	require.True(t, f.Latest().RS > f.RSAgo(opts.RSLag))

	// lower the bar to just below the current RS: still rising, so it qualifies
	opts.RSThreshold = f.Latest().RS - 1e-9
	assert.True(t, Qualifies(f, opts))
	opts.RSThreshold = f.Latest().RS
	assert.False(t, Qualifies(f, opts), "threshold is strict")
}

func TestRankLeaders_OrderAndTies(t *testing.T) {
	frames := []SectorFrame{
		{Code: "A", Name: "alpha", Frame: frame(t, path(30, 5, 0.06))},
		{Code: "F", Name: "flat", Frame: frame(t, path(35, 0, 0))},
		{Code: "B", Name: "beta", Frame: frame(t, path(30, 5, 0.06))},
		{Code: "C", Name: "gamma", Frame: frame(t, path(30, 5, 0.08))},
	}

	leaders := RankLeaders(frames, DefaultOptions())
	require.Len(t, leaders, 3)
	assert.Equal(t, "C", leaders[0].Code)
	assert.Equal(t, "A", leaders[1].Code, "ties keep input order")
	assert.Equal(t, "B", leaders[2].Code)
	assert.Equal(t, leaders[1].RS, leaders[2].RS)
	assert.False(t, math.IsNaN(leaders[0].RS))
}

func TestRankLeaders_NoneQualify(t *testing.T) {
	leaders := RankLeaders([]SectorFrame{{Code: "F", Frame: frame(t, path(35, 0, 0))}}, DefaultOptions())
	assert.Empty(t, leaders)
}

func testSectors() []data.Sector {
	return []data.Sector{
		{Code: "1013", Name: "up", Series: path(30, 5, 0.06)},
		{Code: "1003", Name: "excluded", Series: path(30, 5, 0.10)},
		{Code: "1024", Name: "flat", Series: path(35, 0, 0)},
		{Code: "1030", Name: "stale", Series: path(30, 5, 0.10)[:32]},
	}
}

func TestRanker_Leaders(t *testing.T) {
	cache := indicators.NewFrameCache(0)
	r := NewRanker(cache, testParams(), DefaultOptions(), DefaultExcluded, logger.Nop())
	bench := path(35, 0, 0)

	leaders := r.Leaders(testSectors(), bench, date(34))
	require.Len(t, leaders, 1)
	assert.Equal(t, "1013", leaders[0].Code)
	assert.Equal(t, "up", leaders[0].Name)
	assert.True(t, r.Excluded("1003"))

	// before the growth starts nothing leads; later bars must not leak in
	assert.Empty(t, r.Leaders(testSectors(), bench, date(29)))
	assert.Equal(t, 0, r.Anomalies().Total)
}

func TestBuildLeadershipSeries(t *testing.T) {
	r := NewRanker(indicators.NewFrameCache(0), testParams(), DefaultOptions(), DefaultExcluded, logger.Nop())
	days := []time.Time{date(29), date(31), date(34)}

	series := BuildLeadershipSeries(r, testSectors(), path(35, 0, 0), days)
	require.Len(t, series, 3)

	l, ok := series.On(date(34).Add(5 * time.Hour))
	require.True(t, ok)
	top, ok := l.Top()
	require.True(t, ok)
	assert.Equal(t, "1013", top.Code)

	_, ok = series.On(date(30))
	assert.False(t, ok)

	tops := series.Tops()
	assert.NotEmpty(t, tops)
	for _, l := range tops {
		assert.Len(t, l.Leaders, 1)
	}
	assert.Equal(t, date(34), tops[len(tops)-1].Date)
	_, ok = series[0].Top()
	assert.False(t, ok)
}

func TestLeadershipSeries_Sorted(t *testing.T) {
	s := LeadershipSeries{
		{Date: date(2), Leaders: []Leader{{Code: "B"}}},
		{Date: date(1), Leaders: []Leader{{Code: "A"}}},
		{Date: date(2), Leaders: []Leader{{Code: "C"}}},
	}
	sorted := s.Sorted()
	require.Len(t, sorted, 2)
	assert.Equal(t, "A", sorted[0].Leaders[0].Code)
	assert.Equal(t, "C", sorted[1].Leaders[0].Code)
}
