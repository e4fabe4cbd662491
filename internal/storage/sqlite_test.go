package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/sector-rotation/internal/backtest"
	"github.com/ducminhle1904/sector-rotation/internal/indicators"
	"github.com/ducminhle1904/sector-rotation/internal/logger"
	"github.com/ducminhle1904/sector-rotation/internal/sector"
)

func day(i int) time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i) }

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "rotation.db"), logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// TestLeadership_RoundTrip tests saving and loading ranked leaders
func TestLeadership_RoundTrip(t *testing.T) {
	s := openStore(t)
	series := sector.LeadershipSeries{
		{Date: day(0), Leaders: []sector.Leader{{Code: "1013", Name: "Autos", RS: 1.21}, {Code: "1015", Name: "Steel", RS: 1.08}}},
		{Date: day(1)},
		{Date: day(2), Leaders: []sector.Leader{{Code: "1015", Name: "Steel", RS: 1.11}}},
	}
	require.NoError(t, s.SaveLeadership(series))

	got, err := s.LoadLeadership(day(0), day(5))
	require.NoError(t, err)
	require.Len(t, got, 2, "dates without a leader are not stored")
	assert.Equal(t, series[0], got[0])
	assert.Equal(t, series[2], got[1])

	got, err = s.LoadLeadership(day(1), day(1))
	require.NoError(t, err)
	assert.Empty(t, got)
}

// TestLeadership_Replace tests that saving a date again replaces its leaders
func TestLeadership_Replace(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.SaveLeadership(sector.LeadershipSeries{
		{Date: day(0), Leaders: []sector.Leader{{Code: "1013", RS: 1.2}, {Code: "1015", RS: 1.1}}},
	}))
	require.NoError(t, s.SaveLeadership(sector.LeadershipSeries{
		{Date: day(0), Leaders: []sector.Leader{{Code: "1020", RS: 1.3}}},
	}))

	got, err := s.LoadLeadership(day(0), day(0))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []sector.Leader{{Code: "1020", RS: 1.3}}, got[0].Leaders)
}

// TestSaveRun tests archiving a run with its trades and equity
func TestSaveRun(t *testing.T) {
	s := openStore(t)
	trade := backtest.Trade{
		Ticker: "005930", Name: "Samsung", SectorCode: "1013", SectorName: "Electronics",
		EntryDate: day(2), EntryPrice: 70000, ExitDate: day(9), ExitPrice: 77000,
		HoldingDays: 5, NetMultiplier: backtest.RoundTrip(70000, 77000, 0.002), ExitReason: backtest.ExitRSI,
	}
	trade.GrossReturn = trade.ExitPrice/trade.EntryPrice - 1
	trade.NetReturn = trade.NetMultiplier - 1

	res := &backtest.Results{
		Config: backtest.DefaultConfig(day(0), day(10)),
		Params: indicators.DefaultParams(),
		Trades: []backtest.Trade{trade},
		Equity: []backtest.EquityPoint{
			{Date: day(0), Equity: 100},
			{Date: day(2), Equity: 100, State: backtest.StateHolding, Event: backtest.EventBuy, Ticker: "005930"},
			{Date: day(9), Equity: 109.56, Event: backtest.EventSell, Ticker: "005930"},
		},
		Summary:         backtest.Summary{FinalEquity: 109.56, CumulativeReturn: 0.0956, TotalTrades: 1, WinRate: 1},
		BenchmarkReturn: 0.03,
	}

	id, err := s.SaveRun(res)
	require.NoError(t, err)
	assert.Len(t, id, 36)

	runs, err := s.Runs(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, id, runs[0].ID)
	assert.Equal(t, day(0), runs[0].Start)
	assert.Equal(t, day(10), runs[0].End)
	assert.Equal(t, indicators.DefaultParams().String(), runs[0].Params)
	assert.Equal(t, 1, runs[0].TotalTrades)
	assert.InDelta(t, 0.03, runs[0].BenchmarkReturn, 1e-12)

	trades, err := s.RunTrades(id)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, trade.Ticker, trades[0].Ticker)
	assert.Equal(t, trade.SectorName, trades[0].SectorName)
	assert.Equal(t, trade.EntryDate, trades[0].EntryDate)
	assert.Equal(t, trade.ExitReason, trades[0].ExitReason)
	assert.InDelta(t, trade.NetReturn, trades[0].NetReturn, 1e-12)
	assert.InDelta(t, trade.GrossReturn, trades[0].GrossReturn, 1e-12)
}

// TestSaveRun_Distinct tests that every archive gets its own id
func TestSaveRun_Distinct(t *testing.T) {
	s := openStore(t)
	res := &backtest.Results{Config: backtest.DefaultConfig(day(0), day(1)), Params: indicators.DefaultParams()}

	first, err := s.SaveRun(res)
	require.NoError(t, err)
	second, err := s.SaveRun(res)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	runs, err := s.Runs(0)
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	trades, err := s.RunTrades(first)
	require.NoError(t, err)
	assert.Empty(t, trades)
}
