package common

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/phuslu/log"

	"github.com/ducminhle1904/sector-rotation/internal/config"
	"github.com/ducminhle1904/sector-rotation/internal/logger"
	"github.com/ducminhle1904/sector-rotation/internal/storage"
	"github.com/ducminhle1904/sector-rotation/pkg/data"
)

// LoadConfig loads the env file and the YAML configuration, then applies the common flag
// overrides. apply runs before validation so commands can add their own overrides.
func LoadConfig(flags *CommonFlags, apply func(*config.Config)) (*config.Config, error) {
	if err := config.LoadEnv(*flags.EnvFile); err != nil {
		return nil, err
	}
	cfg, err := config.Load(*flags.ConfigFile)
	if err != nil {
		return nil, err
	}

	if *flags.Start != "" {
		cfg.Window.Start = *flags.Start
	}
	if *flags.End != "" {
		cfg.Window.End = *flags.End
	}
	if *flags.LogLevel != "" {
		cfg.Logging.Level = *flags.LogLevel
	}
	if apply != nil {
		apply(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewLogger builds the process logger and warns about disputed settings left at default.
func NewLogger(cfg *config.Config) *log.Logger {
	l := logger.New(cfg.Logging)
	for _, key := range cfg.AmbiguousDefaults() {
		l.Warn().Str("setting", key).Msg("using default for a setting deployments disagree on; set it explicitly to silence")
	}
	return l
}

// LoadUniverse discovers the sectors when none are configured and loads their bars
// concurrently. skipStocks loads the index series only.
func LoadUniverse(ctx context.Context, cfg *config.Config, l *log.Logger, skipStocks bool) (*data.Universe, error) {
	layout := cfg.Layout()

	var discovered []string
	if len(cfg.Data.Sectors) == 0 {
		codes, err := layout.IndexCodes()
		if err != nil {
			return nil, fmt.Errorf("discover sector indices: %w", err)
		}
		discovered = codes
	}
	spec, err := cfg.UniverseSpec(discovered)
	if err != nil {
		return nil, err
	}
	spec.SkipStocks = skipStocks

	names, err := data.LoadDirectory(layout.SectorNamesPath())
	if err != nil {
		l.Warn().Err(err).Msg("sector names unavailable, codes will be shown instead")
		names = data.NewDirectory(nil)
	}

	prices := data.NewCachedSource(data.NewCSVProvider(layout, l), l)
	loader := data.NewUniverseLoader(prices, data.NewCSVConstituents(layout), names, l)

	return loader.Load(ctx, spec)
}

// OpenStore opens the SQLite store, creating its directory first.
func OpenStore(path string, l *log.Logger) (*storage.Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return storage.Open(path, l)
}
