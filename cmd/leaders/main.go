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
	"github.com/ducminhle1904/sector-rotation/internal/config"
	"github.com/ducminhle1904/sector-rotation/internal/indicators"
	"github.com/ducminhle1904/sector-rotation/internal/monitoring"
	"github.com/ducminhle1904/sector-rotation/internal/scheduler"
	"github.com/ducminhle1904/sector-rotation/internal/sector"
	"github.com/ducminhle1904/sector-rotation/internal/storage"
	"github.com/ducminhle1904/sector-rotation/pkg/reporting"
)

const taskName = "leadership"

func main() {
	flags := common.RegisterCommonFlags()
	cronSpec := flag.String("cron", "", "Rebuild on this six-field cron schedule until interrupted (\"config\" uses schedule.leaders_cron)")
	output := flag.String("output", "", "Also write the leadership series to this CSV file")
	quiet := flag.Bool("quiet", false, "Do not print the leadership table")
	flag.Parse()

	if *flags.Version {
		common.PrintVersion("leaders")
		return
	}

	cfg, err := common.LoadConfig(flags, func(c *config.Config) {
		c.BatchPreset()
		if *cronSpec != "" && *cronSpec != "config" {
			c.Schedule.LeadersCron = *cronSpec
		}
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(2)
	}
	logger := common.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := common.OpenStore(cfg.Storage.SQLitePath, logger)
	if err != nil {
		logger.Error().Err(err).Msg("open store")
		os.Exit(1)
	}
	defer store.Close()

	metrics := monitoring.NewMetrics()
	b := &builder{cfg: cfg, store: store, metrics: metrics, output: *output, quiet: *quiet, logger: logger}

	if *cronSpec == "" {
		if err := b.build(ctx); err != nil {
			logger.Error().Err(err).Msg("leadership build failed")
			os.Exit(1)
		}
		return
	}

	if cfg.Metrics.Addr != "" {
		srv := monitoring.NewServer(cfg.Metrics.Addr, metrics, logger)
		srv.Start()
		defer srv.Shutdown(context.Background())
	}

	sched := scheduler.New(ctx, logger)
	if err := sched.Register(taskName, cfg.Schedule.LeadersCron, b.refresh); err != nil {
		logger.Error().Err(err).Msg("schedule")
		os.Exit(2)
	}
	sched.Start()
	logger.Info().Time("next", sched.Next()).Msg("waiting for the next scheduled build")

	<-ctx.Done()
	sched.Stop()
	logger.Info().Int("runs", sched.Runs(taskName)).Msg("leaders stopped")
}

// builder computes and persists the leadership series of the configured window.
type builder struct {
	cfg     *config.Config
	store   *storage.Store
	metrics *monitoring.Metrics
	output  string
	quiet   bool
	logger  *log.Logger
}

// refresh extends the window to the current date before building.
func (b *builder) refresh(ctx context.Context) error {
	b.cfg.Window.End = time.Now().Format(time.DateOnly)
	return b.build(ctx)
}

func (b *builder) build(ctx context.Context) error {
	start, end, err := b.cfg.Dates()
	if err != nil {
		return err
	}
	universe, err := common.LoadUniverse(ctx, b.cfg, b.logger, true)
	if err != nil {
		return err
	}

	cache := indicators.NewFrameCache(b.cfg.Backtest.CacheSize)
	ranker := sector.NewRanker(cache, b.cfg.Indicators, b.cfg.SectorOptions(), b.cfg.Data.Excluded, b.logger)
	days := universe.TradingDays(start, end)
	if len(days) == 0 {
		b.logger.Warn().Str("start", b.cfg.Window.Start).Str("end", b.cfg.Window.End).Msg("no trading days in window")
		return nil
	}

	series := sector.BuildLeadershipSeries(ranker, universe.Sectors, universe.Benchmark, days)
	for _, l := range series {
		_, found := l.Top()
		b.metrics.RecordLeadership(found)
	}
	b.metrics.UpdateCache(cache.Stats())
	b.metrics.MarkRun(time.Now())

	if err := b.store.SaveLeadership(series); err != nil {
		return err
	}
	b.logger.Info().
		Int("dates", len(series)).
		Int("with_leader", len(series.Tops())).
		Float64("rs_threshold", b.cfg.Strategy.RSThreshold).
		Int("anomalies", ranker.Anomalies().Total).
		Msg("leadership series saved")

	rc := reporting.ReportingConfig{EnableConsole: !b.quiet}
	return reporting.NewReportingManager(rc, os.Stdout).ReportLeadership(series, b.output)
}
