package config

import (
	"github.com/ducminhle1904/sector-rotation/internal/backtest"
	"github.com/ducminhle1904/sector-rotation/internal/sector"
	"github.com/ducminhle1904/sector-rotation/internal/selection"
	"github.com/ducminhle1904/sector-rotation/pkg/data"
)

// EngineConfig converts the strategy and account sections into the engine configuration.
func (c *Config) EngineConfig() (backtest.Config, error) {
	start, end, err := c.Dates()
	if err != nil {
		return backtest.Config{}, err
	}
	rsi, err := c.ResolvedRSIThreshold()
	if err != nil {
		return backtest.Config{}, err
	}
	cfg := backtest.Config{
		Start:           start,
		End:             end,
		InitialCapital:  c.Backtest.InitialCapital,
		FeeRate:         c.Backtest.FeeRate,
		RSIThreshold:    rsi,
		TrailingStopPct: c.Strategy.TrailingStopPct,
		MinHoldingDays:  c.Strategy.MinHoldingDays,
	}
	if err := cfg.Validate(); err != nil {
		return backtest.Config{}, err
	}
	return cfg, nil
}

// SectorOptions converts the leadership filter.
func (c *Config) SectorOptions() sector.Options {
	return sector.Options{
		RSThreshold: c.Strategy.RSThreshold,
		RSLag:       c.Strategy.RSLag,
		MinRows:     c.Strategy.SectorMinRows,
	}
}

// SelectionOptions converts the stock selection rule.
func (c *Config) SelectionOptions() (selection.Options, error) {
	policy, err := selection.ParsePolicy(c.Strategy.Selection)
	if err != nil {
		return selection.Options{}, err
	}
	return selection.Options{
		Policy:       policy,
		LookbackDays: c.Strategy.LookbackDays,
		MinRows:      c.Strategy.BestATRMinRows,
	}, nil
}

// Layout converts the data section into a file layout.
func (c *Config) Layout() data.Layout {
	return data.Layout{
		Root:            c.Data.Root,
		IndexDir:        c.Data.IndexDir,
		ConstituentDir:  c.Data.ConstituentDir,
		StockDir:        c.Data.StockDir,
		SectorNamesFile: c.Data.SectorNamesFile,
	}
}

// UniverseSpec describes what to load for the window, including the warm-up history.
// sectorCodes replaces the configured list when the configuration leaves it empty.
func (c *Config) UniverseSpec(sectorCodes []string) (data.UniverseSpec, error) {
	start, end, err := c.Dates()
	if err != nil {
		return data.UniverseSpec{}, err
	}
	codes := c.Data.Sectors
	if len(codes) == 0 {
		codes = sectorCodes
	}
	return data.UniverseSpec{
		BenchmarkCode: c.Data.Benchmark,
		SectorCodes:   codes,
		Excluded:      c.Data.Excluded,
		From:          start.AddDate(0, 0, -c.Data.HistoryDays),
		To:            end,
		Workers:       c.Data.Workers,
	}, nil
}
