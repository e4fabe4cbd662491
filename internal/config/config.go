// Package config loads the run configuration from YAML with environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ducminhle1904/sector-rotation/internal/backtest"
	"github.com/ducminhle1904/sector-rotation/internal/errors"
	"github.com/ducminhle1904/sector-rotation/internal/indicators"
	"github.com/ducminhle1904/sector-rotation/internal/logger"
)

// EnvPrefix namespaces every environment override
const EnvPrefix = "ROTATION_"

// Config holds all application configuration.
type Config struct {
	Data       DataConfig        `yaml:"data"`
	Window     WindowConfig      `yaml:"window"`
	Indicators indicators.Params `yaml:"indicators"`
	Strategy   StrategyConfig    `yaml:"strategy"`
	Backtest   BacktestConfig    `yaml:"backtest"`
	Storage    struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"storage"`
	Output  OutputConfig  `yaml:"output"`
	Logging logger.Config `yaml:"logging"`
	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
	Schedule struct {
		LeadersCron string `yaml:"leaders_cron"`
	} `yaml:"schedule"`

	// explicit records which ambiguous settings were given rather than defaulted
	explicit map[string]bool
}

// DataConfig locates the input files and the universe to load.
type DataConfig struct {
	Root            string `yaml:"root"`
	IndexDir        string `yaml:"index_dir"`
	ConstituentDir  string `yaml:"constituent_dir"`
	StockDir        string `yaml:"stock_dir"`
	SectorNamesFile string `yaml:"sector_names_file"`

	Benchmark string `yaml:"benchmark"`
	// Sectors lists the sector index codes; empty means every index file found under Root
	Sectors  []string `yaml:"sectors"`
	Excluded []string `yaml:"excluded"`
	Workers  int      `yaml:"workers"`
	// HistoryDays is how many calendar days before the window start are loaded for warm-up
	HistoryDays int `yaml:"history_days"`
}

// WindowConfig is the simulated date range, formatted 2006-01-02.
type WindowConfig struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// StrategyConfig groups the leadership, selection and exit rules.
type StrategyConfig struct {
	RSThreshold     float64 `yaml:"rs_threshold"`
	RSLag           int     `yaml:"rs_lag"`
	SectorMinRows   int     `yaml:"sector_min_rows"`
	Selection       string  `yaml:"selection"`
	LookbackDays    int     `yaml:"lookback_days"`
	BestATRMinRows  int     `yaml:"best_atr_min_rows"`
	RSIThreshold    float64 `yaml:"rsi_threshold"`
	// RSIPreset names an exit level ("default" or "conservative"); an explicit rsi_threshold wins
	RSIPreset       string  `yaml:"rsi_preset"`
	TrailingStopPct float64 `yaml:"trailing_stop_pct"`
	MinHoldingDays  int     `yaml:"min_holding_days"`
}

// BacktestConfig holds the account settings.
type BacktestConfig struct {
	InitialCapital float64 `yaml:"initial_capital"`
	FeeRate        float64 `yaml:"fee_rate"`
	CacheSize      int     `yaml:"cache_size"`
}

// OutputConfig selects the report artifacts.
type OutputConfig struct {
	Dir  string `yaml:"dir"`
	CSV  bool   `yaml:"csv"`
	XLSX bool   `yaml:"xlsx"`
	JSON bool   `yaml:"json"`
}

// ambiguous names the settings whose right value is disputed between deployments.
var ambiguous = []string{"strategy.rs_threshold", "strategy.rsi_threshold", "strategy.min_holding_days"}

// LoadEnv reads a dotenv file into the process environment. An empty path tries ".env" and
// tolerates its absence.
func LoadEnv(path string) error {
	if path == "" {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		return godotenv.Load()
	}
	if err := godotenv.Load(path); err != nil {
		return errors.Configuration("config", "load_env", fmt.Sprintf("load %s: %v", path, err))
	}
	return nil
}

// Load reads config from a YAML file on top of the defaults, then applies environment
// variable overrides. An empty path uses the defaults only. The result is not validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Configuration("config", "load", fmt.Sprintf("read config: %v", err))
		}
		if err := cfg.parse(raw); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse builds a config from YAML bytes over the defaults without consulting the environment.
func Parse(raw []byte) (*Config, error) {
	cfg := Default()
	if err := cfg.parse(raw); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) parse(raw []byte) error {
	if err := yaml.Unmarshal(raw, c); err != nil {
		return errors.Configuration("config", "parse", fmt.Sprintf("parse config: %v", err))
	}

	var given struct {
		Strategy map[string]any `yaml:"strategy"`
	}
	if err := yaml.Unmarshal(raw, &given); err != nil {
		return errors.Configuration("config", "parse", fmt.Sprintf("parse config: %v", err))
	}
	for key := range given.Strategy {
		c.markExplicit("strategy." + key)
	}
	return nil
}

func (c *Config) markExplicit(key string) {
	if c.explicit == nil {
		c.explicit = make(map[string]bool)
	}
	c.explicit[key] = true
}

// envOverride binds one environment variable to a setter.
type envOverride struct {
	name     string
	explicit string
	set      func(c *Config, v string) error
}

var envOverrides = []envOverride{
	{name: "DATA_ROOT", set: func(c *Config, v string) error { c.Data.Root = v; return nil }},
	{name: "BENCHMARK", set: func(c *Config, v string) error { c.Data.Benchmark = v; return nil }},
	{name: "SECTORS", set: func(c *Config, v string) error { c.Data.Sectors = splitList(v); return nil }},
	{name: "EXCLUDED", set: func(c *Config, v string) error { c.Data.Excluded = splitList(v); return nil }},
	{name: "WORKERS", set: intSetter(func(c *Config) *int { return &c.Data.Workers })},
	{name: "START", set: func(c *Config, v string) error { c.Window.Start = v; return nil }},
	{name: "END", set: func(c *Config, v string) error { c.Window.End = v; return nil }},
	{name: "SELECTION", set: func(c *Config, v string) error { c.Strategy.Selection = v; return nil }},
	{name: "RS_THRESHOLD", explicit: "strategy.rs_threshold",
		set: floatSetter(func(c *Config) *float64 { return &c.Strategy.RSThreshold })},
	{name: "RSI_THRESHOLD", explicit: "strategy.rsi_threshold",
		set: floatSetter(func(c *Config) *float64 { return &c.Strategy.RSIThreshold })},
	{name: "RSI_PRESET", set: func(c *Config, v string) error { c.Strategy.RSIPreset = v; return nil }},
	{name: "TRAILING_STOP_PCT", set: floatSetter(func(c *Config) *float64 { return &c.Strategy.TrailingStopPct })},
	{name: "MIN_HOLDING_DAYS", explicit: "strategy.min_holding_days",
		set: intSetter(func(c *Config) *int { return &c.Strategy.MinHoldingDays })},
	{name: "INITIAL_CAPITAL", set: floatSetter(func(c *Config) *float64 { return &c.Backtest.InitialCapital })},
	{name: "FEE_RATE", set: floatSetter(func(c *Config) *float64 { return &c.Backtest.FeeRate })},
	{name: "SQLITE_PATH", set: func(c *Config, v string) error { c.Storage.SQLitePath = v; return nil }},
	{name: "OUTPUT_DIR", set: func(c *Config, v string) error { c.Output.Dir = v; return nil }},
	{name: "LOG_LEVEL", set: func(c *Config, v string) error { c.Logging.Level = v; return nil }},
	{name: "LOG_FILE", set: func(c *Config, v string) error { c.Logging.File = v; return nil }},
	{name: "METRICS_ADDR", set: func(c *Config, v string) error { c.Metrics.Addr = v; return nil }},
	{name: "LEADERS_CRON", set: func(c *Config, v string) error { c.Schedule.LeadersCron = v; return nil }},
}

func (c *Config) applyEnv() error {
	for _, o := range envOverrides {
		v, ok := os.LookupEnv(EnvPrefix + o.name)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		if err := o.set(c, strings.TrimSpace(v)); err != nil {
			return errors.Configuration("config", "env", fmt.Sprintf("%s%s: %v", EnvPrefix, o.name, err))
		}
		if o.explicit != "" {
			c.markExplicit(o.explicit)
		}
	}
	return nil
}

func floatSetter(field func(*Config) *float64) func(*Config, string) error {
	return func(c *Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		*field(c) = f
		return nil
	}
}

func intSetter(field func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*field(c) = n
		return nil
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// SetExplicit marks an ambiguous setting as chosen, for values applied from flags.
func (c *Config) SetExplicit(key string) {
	c.markExplicit(key)
}

// AmbiguousDefaults lists the disputed settings that were left at their default.
func (c *Config) AmbiguousDefaults() []string {
	var out []string
	for _, key := range ambiguous {
		if key == "strategy.rsi_threshold" && c.Strategy.RSIPreset != "" {
			continue
		}
		if !c.explicit[key] {
			out = append(out, key)
		}
	}
	return out
}

// Dates parses the window.
func (c *Config) Dates() (start, end time.Time, err error) {
	if c.Window.Start == "" || c.Window.End == "" {
		return time.Time{}, time.Time{}, errors.Configuration("config", "window", "window.start and window.end are required")
	}
	if start, err = time.Parse(time.DateOnly, c.Window.Start); err != nil {
		return time.Time{}, time.Time{}, errors.Configuration("config", "window", fmt.Sprintf("invalid window.start %q", c.Window.Start))
	}
	if end, err = time.Parse(time.DateOnly, c.Window.End); err != nil {
		return time.Time{}, time.Time{}, errors.Configuration("config", "window", fmt.Sprintf("invalid window.end %q", c.Window.End))
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, errors.Configuration("config", "window",
			fmt.Sprintf("window.end %s is before window.start %s", c.Window.End, c.Window.Start))
	}
	return start, end, nil
}

// Validate checks every section and returns the first configuration error.
func (c *Config) Validate() error {
	if c.Data.Root == "" {
		return errors.Configuration("config", "validate", "data.root is required")
	}
	if c.Data.Benchmark == "" {
		return errors.Configuration("config", "validate", "data.benchmark is required")
	}
	if c.Data.Workers < 0 || c.Data.HistoryDays < 0 {
		return errors.Configuration("config", "validate", "data.workers and data.history_days must be non-negative")
	}
	if _, _, err := c.Dates(); err != nil {
		return err
	}
	if err := c.Indicators.Validate(); err != nil {
		return err
	}
	if c.Strategy.RSThreshold <= 0 {
		return errors.Configuration("config", "validate", fmt.Sprintf("strategy.rs_threshold must be positive, got %.4f", c.Strategy.RSThreshold))
	}
	if c.Strategy.RSLag <= 0 || c.Strategy.LookbackDays <= 0 {
		return errors.Configuration("config", "validate", "strategy.rs_lag and strategy.lookback_days must be positive")
	}
	if _, err := c.SelectionOptions(); err != nil {
		return err
	}
	if _, err := c.EngineConfig(); err != nil {
		return err
	}
	if c.Schedule.LeadersCron != "" && len(strings.Fields(c.Schedule.LeadersCron)) != 6 {
		return errors.Configuration("config", "validate",
			fmt.Sprintf("schedule.leaders_cron needs six fields (with seconds), got %q", c.Schedule.LeadersCron))
	}
	return nil
}

// ResolvedRSIThreshold is the RSI exit level after applying the preset.
func (c *Config) ResolvedRSIThreshold() (float64, error) {
	if c.Strategy.RSIPreset == "" || c.explicit["strategy.rsi_threshold"] {
		return c.Strategy.RSIThreshold, nil
	}
	return backtest.RSIThresholdFor(c.Strategy.RSIPreset)
}
