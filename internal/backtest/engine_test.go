package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/sector-rotation/internal/errors"
	"github.com/ducminhle1904/sector-rotation/internal/indicators"
	"github.com/ducminhle1904/sector-rotation/internal/logger"
	"github.com/ducminhle1904/sector-rotation/internal/sector"
	"github.com/ducminhle1904/sector-rotation/internal/selection"
	"github.com/ducminhle1904/sector-rotation/pkg/data"
	"github.com/ducminhle1904/sector-rotation/pkg/types"
)

// Every fixture has 60 daily bars. Rows 0-29 are warm-up and rows 30-59 are the simulated
// window.
const (
	bars        = 60
	windowStart = 30
	windowEnd   = 59
)

var start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func day(i int) time.Time { return start.AddDate(0, 0, i) }

func bar(i int, c float64) types.OHLCV {
	return types.OHLCV{Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 1000, Timestamp: day(i)}
}

// index is flat at 100 until from, compounds at rate for growth rows, then stays flat.
func index(from, growth int, rate float64) types.Series {
	s := make(types.Series, bars)
	c := 100.0
	for i := range s {
		if i >= from && i < from+growth {
			c *= 1 + rate
		}
		s[i] = bar(i, c)
	}
	return s
}

// zigzag is flat at 50, jumps to 55 on row jump and then alternates 54/55 so the short
// average crosses the long one exactly once without driving RSI past 86.
func zigzag(jump int) types.Series {
	s := make(types.Series, bars)
	for i := range s {
		c := 50.0
		if i >= jump {
			c = 55
			if (i-jump)%2 == 1 {
				c = 54
			}
		}
		s[i] = bar(i, c)
	}
	return s
}

func flatStock(c float64) types.Series {
	s := make(types.Series, bars)
	for i := range s {
		s[i] = bar(i, c)
	}
	return s
}

func without(s types.Series, row int) types.Series {
	out := make(types.Series, 0, len(s)-1)
	out = append(out, s[:row]...)
	return append(out, s[row+1:]...)
}

func testParams() indicators.Params {
	return indicators.Params{ShortWindow: 2, LongWindow: 5, RSWindow: 20, ATRPeriod: 10, ATRMultiplier: 3, RSIPeriod: 14}
}

// leaderUniverse has one leading sector from row 39 whose first stock golden-crosses on
// row 41. Sector 2002 falls and 2003 is flat, so neither ever leads.
func leaderUniverse() *data.Universe {
	return &data.Universe{
		BenchmarkCode: "1001",
		Benchmark:     index(bars, 0, 0),
		Sectors: []data.Sector{
			{Code: "2001", Name: "Semiconductors", Series: index(39, bars, 0.06), Stocks: []data.Stock{
				{Ticker: "000001", Name: "Alpha", Series: zigzag(41)},
				{Ticker: "000002", Name: "Beta", Series: flatStock(30)},
			}},
			{Code: "2002", Name: "Utilities", Series: index(30, bars, -0.01), Stocks: []data.Stock{
				{Ticker: "000003", Name: "Gamma", Series: zigzag(35)},
			}},
			{Code: "2003", Name: "Retail", Series: index(bars, 0, 0), Stocks: []data.Stock{
				{Ticker: "000004", Name: "Delta", Series: flatStock(20)},
			}},
		},
	}
}

func newTestEngine(cfg Config) (*Engine, *sector.Ranker) {
	cache := indicators.NewFrameCache(0)
	p := testParams()
	ranker := sector.NewRanker(cache, p, sector.DefaultOptions(), sector.DefaultExcluded, logger.Nop())
	selector := selection.NewSelector(cache, p, selection.DefaultOptions(), logger.Nop())
	return NewEngine(cfg, p, cache, ranker, selector, logger.Nop()), ranker
}

func testConfig() Config {
	return DefaultConfig(day(windowStart), day(windowEnd))
}

func run(t *testing.T, cfg Config, u *data.Universe) *Results {
	t.Helper()
	engine, _ := newTestEngine(cfg)
	res, err := engine.Run(u)
	require.NoError(t, err)
	return res
}

// TestRun_SingleLeader tests one entry on the golden cross and liquidation at the end
func TestRun_SingleLeader(t *testing.T) {
	res := run(t, testConfig(), leaderUniverse())

	require.Len(t, res.Trades, 1)
	trade := res.Trades[0]
	assert.Equal(t, "000001", trade.Ticker)
	assert.Equal(t, "2001", trade.SectorCode)
	assert.Equal(t, "Semiconductors", trade.SectorName)
	assert.Equal(t, day(41), trade.EntryDate)
	assert.Equal(t, 55.0, trade.EntryPrice)
	assert.Equal(t, day(59), trade.ExitDate)
	assert.Equal(t, 55.0, trade.ExitPrice)
	assert.Equal(t, ExitLiquidate, trade.ExitReason)
	assert.Equal(t, 18, trade.HoldingDays)
	assert.InDelta(t, 0.998*0.998, trade.NetMultiplier, 1e-12)

	require.Len(t, res.Equity, windowEnd-windowStart+1)
	final := res.Equity[len(res.Equity)-1]
	assert.Equal(t, EventLiquidate, final.Event)
	assert.Equal(t, StateEmpty, final.State)
	assert.InDelta(t, DefaultInitialCapital*0.998*0.998, final.Equity, 1e-3)
	assert.InDelta(t, final.Equity, res.Summary.FinalEquity, 1e-9)

	assert.Equal(t, 1, res.Summary.TotalTrades)
	assert.Equal(t, 0.0, res.Summary.WinRate)
	assert.Equal(t, 0.0, res.Summary.SharpeRatio)
	assert.Equal(t, 0.0, res.BenchmarkReturn)
}

// TestRun_LeadershipRecorded tests that the leader list is kept for every simulated date
func TestRun_LeadershipRecorded(t *testing.T) {
	res := run(t, testConfig(), leaderUniverse())

	require.Len(t, res.Leadership, windowEnd-windowStart+1)
	for i, l := range res.Leadership {
		row := windowStart + i
		assert.Equal(t, day(row), l.Date)
		top, ok := l.Top()
		if row < 39 {
			assert.False(t, ok, "no leader before the sector starts rising (row %d)", row)
			continue
		}
		require.True(t, ok, "row %d", row)
		assert.Equal(t, "2001", top.Code)
		assert.Greater(t, top.RS, sector.DefaultRSThreshold)
	}
}

// TestRun_StateInvariant tests that equity stays positive and the state follows the trade
func TestRun_StateInvariant(t *testing.T) {
	res := run(t, testConfig(), leaderUniverse())

	for i, p := range res.Equity {
		row := windowStart + i
		assert.Greater(t, p.Equity, 0.0)
		switch {
		case row < 41:
			assert.Equal(t, StateEmpty, p.State, "row %d", row)
			assert.Equal(t, EventNone, p.Event, "row %d", row)
			assert.Equal(t, float64(DefaultInitialCapital), p.Equity)
		case row == 41:
			assert.Equal(t, StateHolding, p.State)
			assert.Equal(t, EventBuy, p.Event)
			assert.Equal(t, "000001", p.Ticker)
		case row < windowEnd:
			assert.Equal(t, StateHolding, p.State, "row %d", row)
			assert.Equal(t, EventNone, p.Event, "row %d", row)
		}
	}
}

// TestRun_PrecomputedLeadership tests that a replayed leadership series gives the same run
func TestRun_PrecomputedLeadership(t *testing.T) {
	u := leaderUniverse()
	live := run(t, testConfig(), u)

	engine, ranker := newTestEngine(testConfig())
	series := sector.BuildLeadershipSeries(ranker, u.Sectors, u.Benchmark, u.TradingDays(day(windowStart), day(windowEnd)))
	engine.UseLeadership(series)
	replayed, err := engine.Run(u)
	require.NoError(t, err)

	assert.Equal(t, live.Trades, replayed.Trades)
	assert.Equal(t, live.Summary, replayed.Summary)
}

// TestRun_NoLeaders tests a window where no sector qualifies
func TestRun_NoLeaders(t *testing.T) {
	u := leaderUniverse()
	u.Sectors = u.Sectors[1:]
	res := run(t, testConfig(), u)

	assert.Empty(t, res.Trades)
	assert.True(t, res.Summary.NoTrades)
	assert.Equal(t, 0.0, res.Summary.MaxDrawdown)
	assert.Equal(t, 0.0, res.Summary.CumulativeReturn)
	for _, p := range res.Equity {
		assert.Equal(t, StateEmpty, p.State)
		assert.Equal(t, float64(DefaultInitialCapital), p.Equity)
	}
}

// TestRun_TrailingStop tests the exit on a drawdown from the running max close
func TestRun_TrailingStop(t *testing.T) {
	u := leaderUniverse()
	alpha := u.Sectors[0].Stocks[0].Series
	for i := 46; i < bars; i++ {
		alpha[i] = bar(i, 44)
	}

	res := run(t, testConfig(), u)

	require.NotEmpty(t, res.Trades)
	first := res.Trades[0]
	assert.Equal(t, ExitTrailingStop, first.ExitReason)
	assert.Equal(t, day(46), first.ExitDate)
	assert.Equal(t, 44.0, first.ExitPrice)
	assert.Less(t, first.NetReturn, 0.0)
	assert.Equal(t, EventSell, res.Equity[46-windowStart].Event)
	assert.Equal(t, StateEmpty, res.Equity[46-windowStart].State)
	assert.Less(t, res.Summary.MaxDrawdown, 0.0)
}

// TestRun_TrailingStopDisabled tests that a zero percentage never stops out
func TestRun_TrailingStopDisabled(t *testing.T) {
	u := leaderUniverse()
	alpha := u.Sectors[0].Stocks[0].Series
	for i := 46; i < bars; i++ {
		alpha[i] = bar(i, 44)
	}
	cfg := testConfig()
	cfg.TrailingStopPct = 0

	res := run(t, cfg, u)

	require.Len(t, res.Trades, 1)
	assert.Equal(t, ExitLiquidate, res.Trades[0].ExitReason)
	assert.Equal(t, 44.0, res.Trades[0].ExitPrice)
}

// TestRun_MinHoldingDays tests that exits wait for the minimum holding period
func TestRun_MinHoldingDays(t *testing.T) {
	u := leaderUniverse()
	alpha := u.Sectors[0].Stocks[0].Series
	for i := 46; i < bars; i++ {
		alpha[i] = bar(i, 44)
	}
	cfg := testConfig()
	cfg.MinHoldingDays = 10

	res := run(t, cfg, u)

	require.NotEmpty(t, res.Trades)
	assert.Equal(t, ExitTrailingStop, res.Trades[0].ExitReason)
	assert.Equal(t, day(51), res.Trades[0].ExitDate)
	assert.Equal(t, 10, res.Trades[0].HoldingDays)
}

// TestRun_Rotation tests switching to a stronger sector's pick
func TestRun_Rotation(t *testing.T) {
	u := leaderUniverse()
	// the first sector rises for four days only, so its RS fades after row 46
	u.Sectors[0].Series = index(39, 4, 0.06)
	// the second sector starts rising at row 45 and its stock crosses on row 46
	u.Sectors[1].Series = index(45, bars, 0.10)
	u.Sectors[1].Stocks[0].Series = zigzag(46)

	res := run(t, testConfig(), u)

	require.Len(t, res.Trades, 2)
	first, second := res.Trades[0], res.Trades[1]

	assert.Equal(t, "000001", first.Ticker)
	assert.Equal(t, ExitRotate, first.ExitReason)
	assert.Equal(t, day(46), first.ExitDate)
	assert.Equal(t, 54.0, first.ExitPrice)

	assert.Equal(t, "000003", second.Ticker)
	assert.Equal(t, "2002", second.SectorCode)
	assert.Equal(t, day(46), second.EntryDate)
	assert.Equal(t, 55.0, second.EntryPrice)
	assert.Equal(t, ExitLiquidate, second.ExitReason)

	point := res.Equity[46-windowStart]
	assert.Equal(t, EventRotate, point.Event)
	assert.Equal(t, StateHolding, point.State)
	assert.Equal(t, "000003", point.Ticker)
}

// TestRun_MissingHeldBar tests that a gap in the held stock's bars is a no-op
func TestRun_MissingHeldBar(t *testing.T) {
	u := leaderUniverse()
	u.Sectors[0].Stocks[0].Series = without(u.Sectors[0].Stocks[0].Series, 50)

	res := run(t, testConfig(), u)

	require.Len(t, res.Trades, 1)
	assert.Equal(t, ExitLiquidate, res.Trades[0].ExitReason)
	assert.Equal(t, StateHolding, res.Equity[50-windowStart].State)
	assert.Equal(t, 1, res.Anomalies.Count(errors.KindDataUnavailable))
}

// TestRun_LiquidatesAtLastAvailableClose tests liquidation when the held stock stops trading
func TestRun_LiquidatesAtLastAvailableClose(t *testing.T) {
	u := leaderUniverse()
	alpha := u.Sectors[0].Stocks[0].Series
	u.Sectors[0].Stocks[0].Series = alpha[:58]

	res := run(t, testConfig(), u)

	require.Len(t, res.Trades, 1)
	assert.Equal(t, ExitLiquidate, res.Trades[0].ExitReason)
	assert.Equal(t, alpha[57].Close, res.Trades[0].ExitPrice)
	assert.Equal(t, day(59), res.Trades[0].ExitDate)
}

type countingRecorder struct {
	days   int
	trades []Trade
	skips  map[errors.Kind]int
}

func (c *countingRecorder) RecordDay(time.Time, float64, State) { c.days++ }
func (c *countingRecorder) RecordTrade(t Trade)                 { c.trades = append(c.trades, t) }
func (c *countingRecorder) RecordSkip(k errors.Kind) {
	if c.skips == nil {
		c.skips = make(map[errors.Kind]int)
	}
	c.skips[k]++
}

// TestRun_Recorder tests the telemetry hooks
func TestRun_Recorder(t *testing.T) {
	engine, _ := newTestEngine(testConfig())
	rec := &countingRecorder{}
	engine.SetRecorder(rec)

	res, err := engine.Run(leaderUniverse())
	require.NoError(t, err)

	assert.Equal(t, windowEnd-windowStart+1, rec.days)
	assert.Equal(t, res.Trades, rec.trades)
}

// TestRun_InvalidConfig tests configuration errors are fatal
func TestRun_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"end before start", func(c *Config) { c.End = c.Start.AddDate(0, 0, -1) }},
		{"missing start", func(c *Config) { c.Start = time.Time{} }},
		{"zero capital", func(c *Config) { c.InitialCapital = 0 }},
		{"fee of one", func(c *Config) { c.FeeRate = 1 }},
		{"rsi above 100", func(c *Config) { c.RSIThreshold = 101 }},
		{"negative trailing stop", func(c *Config) { c.TrailingStopPct = -0.1 }},
		{"negative holding", func(c *Config) { c.MinHoldingDays = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			engine, _ := newTestEngine(cfg)
			_, err := engine.Run(leaderUniverse())
			require.Error(t, err)
			assert.True(t, errors.IsFatal(err))
		})
	}
}

// TestRun_UnknownPolicy tests that a bad policy name is rejected before simulating
func TestRun_UnknownPolicy(t *testing.T) {
	cache := indicators.NewFrameCache(0)
	p := testParams()
	ranker := sector.NewRanker(cache, p, sector.DefaultOptions(), nil, logger.Nop())
	opts := selection.DefaultOptions()
	opts.Policy = "momentum"
	engine := NewEngine(testConfig(), p, cache, ranker, selection.NewSelector(cache, p, opts, logger.Nop()), logger.Nop())

	_, err := engine.Run(leaderUniverse())
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))
}

// TestRun_EmptyWindow tests a window with no benchmark dates
func TestRun_EmptyWindow(t *testing.T) {
	cfg := DefaultConfig(day(100), day(120))
	engine, _ := newTestEngine(cfg)
	_, err := engine.Run(leaderUniverse())
	require.Error(t, err)
	assert.True(t, errors.IsDataUnavailable(err))
}

// TestRun_EntryOnLastDay tests that a buy on the final date keeps its tag while the position
// is still liquidated
func TestRun_EntryOnLastDay(t *testing.T) {
	res := run(t, DefaultConfig(day(windowStart), day(41)), leaderUniverse())

	require.Len(t, res.Trades, 1)
	trade := res.Trades[0]
	assert.Equal(t, ExitLiquidate, trade.ExitReason)
	assert.Equal(t, day(41), trade.EntryDate)
	assert.Equal(t, day(41), trade.ExitDate)
	assert.Equal(t, 0, trade.HoldingDays)

	final := res.Equity[len(res.Equity)-1]
	assert.Equal(t, EventBuy, final.Event)
	assert.Equal(t, "000001", final.Ticker)
	assert.Equal(t, StateEmpty, final.State)
	assert.InDelta(t, DefaultInitialCapital*0.998*0.998, final.Equity, 1e-3)
}

// The exit-rule fixtures run 130 bars so the 60-day exit average is defined across the
// window. The stock is flat at 100, golden-crosses on row 80 at 101 and then alternates
// 101/100.5, which keeps RSI at or below 75 and the short average above the exit average.
const (
	exitBars   = 130
	exitStart  = 70
	entryRow   = 80
	zigzagEnds = 100
)

func exitPath(tail func(i int) float64) types.Series {
	s := make(types.Series, exitBars)
	for i := range s {
		c := 100.0
		switch {
		case i >= zigzagEnds:
			c = tail(i)
		case i >= entryRow && (i-entryRow)%2 == 0:
			c = 101
		case i >= entryRow:
			c = 100.5
		}
		s[i] = bar(i, c)
	}
	return s
}

func exitBenchmark() types.Series {
	s := make(types.Series, exitBars)
	for i := range s {
		s[i] = bar(i, 100)
	}
	return s
}

// runExit buys the stock on row 80 from a replayed one-day leadership and steps to the end.
func runExit(t *testing.T, cfg Config, stock types.Series) *Results {
	t.Helper()
	u := &data.Universe{
		BenchmarkCode: "1001",
		Benchmark:     exitBenchmark(),
		Sectors: []data.Sector{
			{Code: "2001", Name: "Semiconductors", Series: exitBenchmark(), Stocks: []data.Stock{
				{Ticker: "000001", Name: "Alpha", Series: stock},
			}},
		},
	}
	engine, _ := newTestEngine(cfg)
	engine.UseLeadership(sector.LeadershipSeries{
		{Date: day(entryRow), Leaders: []sector.Leader{{Code: "2001", Name: "Semiconductors", RS: 1.2}}},
	})
	res, err := engine.Run(u)
	require.NoError(t, err)
	require.NotEmpty(t, res.Trades)
	assert.Equal(t, day(entryRow), res.Trades[0].EntryDate)
	assert.Equal(t, 101.0, res.Trades[0].EntryPrice)
	return res
}

func exitConfig() Config {
	return DefaultConfig(day(exitStart), day(exitBars-1))
}

// TestRun_DeadCrossBeatsTrailingStop tests that the dead cross is reported when it fires on
// the same day as the trailing stop
func TestRun_DeadCrossBeatsTrailingStop(t *testing.T) {
	// the zigzag runs ten more rows, then the price collapses to 80 on row 110
	stock := exitPath(func(i int) float64 {
		if i < 110 {
			if (i-entryRow)%2 == 0 {
				return 101
			}
			return 100.5
		}
		return 80
	})

	res := runExit(t, exitConfig(), stock)

	require.Len(t, res.Trades, 1)
	trade := res.Trades[0]
	assert.Equal(t, ExitDeadCross, trade.ExitReason)
	assert.Equal(t, day(110), trade.ExitDate)
	assert.Equal(t, 80.0, trade.ExitPrice)
	assert.Equal(t, 30, trade.HoldingDays)
	assert.Less(t, trade.ExitPrice, (1-DefaultTrailingStopPct)*trade.EntryPrice, "the trailing stop fires too")
	assert.Equal(t, EventSell, res.Equity[110-exitStart].Event)
}

// rising climbs one point a day after the zigzag
func rising(i int) float64 { return 101 + float64(i-zigzagEnds+1) }

// TestRun_RSIExit tests the overbought exit on a steady climb
func TestRun_RSIExit(t *testing.T) {
	res := runExit(t, exitConfig(), exitPath(rising))

	require.Len(t, res.Trades, 1)
	trade := res.Trades[0]
	assert.Equal(t, ExitRSI, trade.ExitReason)
	// RSI first clears 86 on row 107 (10 of 11.5 points of movement are gains)
	assert.Equal(t, day(107), trade.ExitDate)
	assert.Equal(t, 109.0, trade.ExitPrice)
	assert.Greater(t, trade.NetReturn, 0.0)
}

// TestRun_RSIExitConservative tests that the lower preset exits earlier on the same climb
func TestRun_RSIExitConservative(t *testing.T) {
	cfg := exitConfig()
	rsi, err := RSIThresholdFor(RSIPresetConservative)
	require.NoError(t, err)
	cfg.RSIThreshold = rsi

	res := runExit(t, cfg, exitPath(rising))

	require.Len(t, res.Trades, 1)
	assert.Equal(t, ExitRSI, res.Trades[0].ExitReason)
	// row 104 sits exactly on 75, so the exit is row 104 or 105 depending on rounding
	assert.WithinRange(t, res.Trades[0].ExitDate, day(104), day(105))
}

// TestRSIThresholdFor tests the named RSI levels
func TestRSIThresholdFor(t *testing.T) {
	v, err := RSIThresholdFor(RSIPresetDefault)
	require.NoError(t, err)
	assert.Equal(t, float64(DefaultRSIThreshold), v)

	v, err = RSIThresholdFor(RSIPresetConservative)
	require.NoError(t, err)
	assert.Equal(t, float64(AltRSIThreshold), v)

	_, err = RSIThresholdFor("aggressive")
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))
}
