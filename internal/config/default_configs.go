package config

import (
	"github.com/ducminhle1904/sector-rotation/internal/backtest"
	"github.com/ducminhle1904/sector-rotation/internal/indicators"
	"github.com/ducminhle1904/sector-rotation/internal/logger"
	"github.com/ducminhle1904/sector-rotation/internal/sector"
	"github.com/ducminhle1904/sector-rotation/internal/selection"
)

const (
	// DefaultBenchmark is the KOSPI composite
	DefaultBenchmark = "1001"
	// DefaultHistoryDays covers the longest warm-up (100 rows for best_atr) with room for
	// holidays
	DefaultHistoryDays = 400
	DefaultWorkers     = 8
	DefaultSQLitePath  = "data/rotation.db"
	DefaultOutputDir   = "results"
	// DefaultLeadersCron refreshes leadership after the KRX close on weekdays
	DefaultLeadersCron = "0 30 16 * * 1-5"
)

// Default returns the live configuration. Window dates have no default.
func Default() *Config {
	cfg := &Config{
		Data: DataConfig{
			Root:            "data",
			StockDir:        "stocks",
			SectorNamesFile: "sectors.csv",
			Benchmark:       DefaultBenchmark,
			Excluded:        append([]string(nil), sector.DefaultExcluded...),
			Workers:         DefaultWorkers,
			HistoryDays:     DefaultHistoryDays,
		},
		Indicators: indicators.DefaultParams(),
		Strategy: StrategyConfig{
			RSThreshold:     sector.DefaultRSThreshold,
			RSLag:           sector.DefaultRSLag,
			SectorMinRows:   sector.DefaultMinRows,
			Selection:       string(selection.PolicyGoldenCross),
			LookbackDays:    selection.DefaultLookbackDays,
			BestATRMinRows:  selection.DefaultBestATRMinRows,
			RSIThreshold:    backtest.DefaultRSIThreshold,
			TrailingStopPct: backtest.DefaultTrailingStopPct,
		},
		Backtest: BacktestConfig{
			InitialCapital: backtest.DefaultInitialCapital,
			FeeRate:        backtest.DefaultFeeRate,
			CacheSize:      indicators.DefaultCacheSize,
		},
		Output:  OutputConfig{Dir: DefaultOutputDir, CSV: true, XLSX: true, JSON: true},
		Logging: logger.Config{Level: "info"},
	}
	cfg.Storage.SQLitePath = DefaultSQLitePath
	cfg.Schedule.LeadersCron = DefaultLeadersCron
	return cfg
}

// BatchPreset switches to the looser leadership threshold used when generating a leadership
// series in bulk.
func (c *Config) BatchPreset() {
	if !c.explicit["strategy.rs_threshold"] {
		c.Strategy.RSThreshold = sector.BatchRSThreshold
	}
}
