package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/phuslu/log"

	"github.com/ducminhle1904/sector-rotation/cmd/common"
	"github.com/ducminhle1904/sector-rotation/internal/backtest"
	"github.com/ducminhle1904/sector-rotation/internal/config"
	"github.com/ducminhle1904/sector-rotation/internal/errors"
	"github.com/ducminhle1904/sector-rotation/internal/indicators"
	"github.com/ducminhle1904/sector-rotation/internal/monitoring"
	"github.com/ducminhle1904/sector-rotation/internal/sector"
	"github.com/ducminhle1904/sector-rotation/internal/selection"
	"github.com/ducminhle1904/sector-rotation/internal/storage"
	"github.com/ducminhle1904/sector-rotation/pkg/data"
	"github.com/ducminhle1904/sector-rotation/pkg/reporting"
)

func main() {
	flags := common.RegisterCommonFlags()
	policy := flag.String("policy", "", "Stock selection policy: golden_cross or best_atr")
	rsiPreset := flag.String("rsi-preset", "", "Named RSI exit level: default (86) or conservative (75)")
	leadersDB := flag.Bool("leaders-db", false, "Replay the leadership series stored by cmd/leaders instead of ranking each date")
	outputDir := flag.String("output", "", "Output directory for CSV/XLSX/JSON reports")
	consoleOnly := flag.Bool("console-only", false, "Print the report without writing files")
	noArchive := flag.Bool("no-archive", false, "Do not archive the run in SQLite")
	metricsAddr := flag.String("metrics-addr", "", "Serve Prometheus metrics on this address while running")
	flag.Parse()

	if *flags.Version {
		common.PrintVersion("backtest")
		return
	}

	cfg, err := common.LoadConfig(flags, func(c *config.Config) {
		if *policy != "" {
			c.Strategy.Selection = *policy
		}
		if *rsiPreset != "" {
			c.Strategy.RSIPreset = *rsiPreset
		}
		if *outputDir != "" {
			c.Output.Dir = *outputDir
		}
		if *metricsAddr != "" {
			c.Metrics.Addr = *metricsAddr
		}
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(2)
	}
	logger := common.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, *leadersDB, *consoleOnly, *noArchive); err != nil {
		logger.Error().Err(err).Msg("backtest failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger, leadersDB, consoleOnly, noArchive bool) error {
	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		return err
	}
	selOpts, err := cfg.SelectionOptions()
	if err != nil {
		return err
	}

	metrics := monitoring.NewMetrics()
	if cfg.Metrics.Addr != "" {
		srv := monitoring.NewServer(cfg.Metrics.Addr, metrics, logger)
		srv.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn().Err(err).Msg("metrics server shutdown")
			}
		}()
	}

	universe, err := common.LoadUniverse(ctx, cfg, logger, false)
	if err != nil {
		return err
	}

	cache := indicators.NewFrameCache(cfg.Backtest.CacheSize)
	ranker := sector.NewRanker(cache, cfg.Indicators, cfg.SectorOptions(), cfg.Data.Excluded, logger)
	selector := selection.NewSelector(cache, cfg.Indicators, selOpts, logger)
	engine := backtest.NewEngine(engineCfg, cfg.Indicators, cache, ranker, selector, logger)
	engine.SetRecorder(metrics)

	var store *storage.Store
	if leadersDB || !noArchive {
		if store, err = common.OpenStore(cfg.Storage.SQLitePath, logger); err != nil {
			return err
		}
		defer store.Close()
	}

	if leadersDB {
		series, err := store.LoadLeadership(engineCfg.Start, engineCfg.End)
		if err != nil {
			return err
		}
		if len(series) == 0 {
			logger.Warn().Msg("no stored leadership in window; run cmd/leaders first")
		}
		engine.UseLeadership(series)
	}

	results, err := execute(engine, universe, cfg, metrics, cache, consoleOnly, logger)
	if err != nil {
		return err
	}

	if !noArchive {
		id, err := store.SaveRun(results)
		if err != nil {
			return err
		}
		logger.Info().Str("run_id", id).Msg("run archived")
	}
	return nil
}

func execute(engine *backtest.Engine, universe *data.Universe, cfg *config.Config, metrics *monitoring.Metrics,
	cache *indicators.FrameCache, consoleOnly bool, logger *log.Logger) (*backtest.Results, error) {
	results, err := engine.Run(universe)
	if err != nil {
		return nil, err
	}
	metrics.UpdateCache(cache.Stats())
	metrics.MarkRun(time.Now())

	for _, leadership := range results.Leadership {
		_, found := leadership.Top()
		metrics.RecordLeadership(found)
	}

	reportCfg := reporting.ReportingConfig{
		EnableConsole:   true,
		OutputDirectory: cfg.Output.Dir,
		CSVEnabled:      cfg.Output.CSV,
		ExcelEnabled:    cfg.Output.XLSX,
		JSONEnabled:     cfg.Output.JSON,
	}
	if consoleOnly {
		reportCfg.OutputDirectory = ""
	}
	written, err := reporting.NewReportingManager(reportCfg, os.Stdout).ReportResults(results)
	if err != nil {
		return nil, fmt.Errorf("write reports: %w", err)
	}
	for _, path := range written {
		logger.Info().Str("path", path).Msg("report written")
	}
	if results.Anomalies.Total > 0 {
		logger.Warn().
			Int("data_unavailable", results.Anomalies.Count(errors.KindDataUnavailable)).
			Int("computation", results.Anomalies.Count(errors.KindComputation)).
			Msg("dates skipped during the run")
	}
	return results, nil
}
