package backtest

import (
	"fmt"
	"time"

	"github.com/ducminhle1904/sector-rotation/internal/errors"
	"github.com/ducminhle1904/sector-rotation/internal/indicators"
	"github.com/ducminhle1904/sector-rotation/internal/sector"
	"github.com/ducminhle1904/sector-rotation/internal/selection"
	"github.com/ducminhle1904/sector-rotation/pkg/types"
)

const (
	// DefaultInitialCapital is the starting cash in KRW
	DefaultInitialCapital = 100_000_000
	// DefaultFeeRate is charged on each side of a round trip
	DefaultFeeRate = 0.002
	// DefaultRSIThreshold is the overbought level that closes a position
	DefaultRSIThreshold = 86
	// AltRSIThreshold is the more conservative overbought level some deployments use
	AltRSIThreshold = 75
	// DefaultTrailingStopPct is the drawdown from the running max close that closes a position
	DefaultTrailingStopPct = 0.18
)

// Named RSI exit levels
const (
	RSIPresetDefault      = "default"
	RSIPresetConservative = "conservative"
)

// RSIThresholdFor resolves a named RSI exit level.
func RSIThresholdFor(preset string) (float64, error) {
	switch preset {
	case RSIPresetDefault:
		return DefaultRSIThreshold, nil
	case RSIPresetConservative:
		return AltRSIThreshold, nil
	}
	return 0, errors.Configuration("backtest", "rsi_preset",
		fmt.Sprintf("unknown rsi preset %q (want %s or %s)", preset, RSIPresetDefault, RSIPresetConservative))
}

// Config is the simulation configuration.
type Config struct {
	Start           time.Time
	End             time.Time
	InitialCapital  float64
	FeeRate         float64
	RSIThreshold    float64
	TrailingStopPct float64
	// MinHoldingDays suppresses rotation and exits until this many trading days have passed
	MinHoldingDays int
}

// DefaultConfig returns the standard simulation settings for the given window
func DefaultConfig(start, end time.Time) Config {
	return Config{
		Start:           start,
		End:             end,
		InitialCapital:  DefaultInitialCapital,
		FeeRate:         DefaultFeeRate,
		RSIThreshold:    DefaultRSIThreshold,
		TrailingStopPct: DefaultTrailingStopPct,
	}
}

// Validate rejects configurations the engine cannot run with
func (c Config) Validate() error {
	switch {
	case c.Start.IsZero() || c.End.IsZero():
		return errors.Configuration("backtest", "validate", "start and end dates are required")
	case c.End.Before(c.Start):
		return errors.Configuration("backtest", "validate",
			fmt.Sprintf("end %s is before start %s", c.End.Format(time.DateOnly), c.Start.Format(time.DateOnly)))
	case c.InitialCapital <= 0:
		return errors.Configuration("backtest", "validate", fmt.Sprintf("initial capital must be positive, got %.2f", c.InitialCapital))
	case c.FeeRate < 0 || c.FeeRate >= 1:
		return errors.Configuration("backtest", "validate", fmt.Sprintf("fee rate must be in [0, 1), got %.4f", c.FeeRate))
	case c.RSIThreshold <= 0 || c.RSIThreshold > 100:
		return errors.Configuration("backtest", "validate", fmt.Sprintf("rsi threshold must be in (0, 100], got %.2f", c.RSIThreshold))
	case c.TrailingStopPct < 0 || c.TrailingStopPct >= 1:
		return errors.Configuration("backtest", "validate", fmt.Sprintf("trailing stop must be in [0, 1), got %.4f", c.TrailingStopPct))
	case c.MinHoldingDays < 0:
		return errors.Configuration("backtest", "validate", fmt.Sprintf("min holding days must be non-negative, got %d", c.MinHoldingDays))
	}
	return nil
}

// State is the position state of a simulated date
type State int

const (
	StateEmpty State = iota
	StateHolding
)

func (s State) String() string {
	if s == StateHolding {
		return "holding"
	}
	return "empty"
}

// ExitReason records why a position was closed
type ExitReason string

const (
	ExitDeadCross    ExitReason = "dead_cross"
	ExitRSI          ExitReason = "rsi"
	ExitTrailingStop ExitReason = "trailing_stop"
	ExitRotate       ExitReason = "rotate"
	ExitLiquidate    ExitReason = "liquidate"
)

// Event tags an equity point with what happened that day
type Event string

const (
	EventNone      Event = ""
	EventBuy       Event = "buy"
	EventSell      Event = "sell"
	EventRotate    Event = "rotate"
	EventLiquidate Event = "liquidate"
)

// Position is the single open trade.
type Position struct {
	Ticker     string
	Name       string
	SectorCode string
	SectorName string
	EntryDate  time.Time
	EntryPrice float64
	// EntryRS is the leadership RS of the sector the position was bought from
	EntryRS  float64
	MaxClose float64
	Series   types.Series
	Frame    *indicators.Frame

	entryIndex int
}

// Trade is a closed round trip.
type Trade struct {
	Ticker        string     `json:"ticker"`
	Name          string     `json:"name"`
	SectorCode    string     `json:"sector_code"`
	SectorName    string     `json:"sector_name"`
	EntryDate     time.Time  `json:"entry_date"`
	EntryPrice    float64    `json:"entry_price"`
	ExitDate      time.Time  `json:"exit_date"`
	ExitPrice     float64    `json:"exit_price"`
	HoldingDays   int        `json:"holding_days"`
	GrossReturn   float64    `json:"gross_return"`
	NetMultiplier float64    `json:"net_multiplier"`
	NetReturn     float64    `json:"net_return"`
	ExitReason    ExitReason `json:"exit_reason"`
}

// EquityPoint is the account value at the close of a simulated date.
type EquityPoint struct {
	Date   time.Time `json:"date"`
	Equity float64   `json:"equity"`
	State  State     `json:"-"`
	Event  Event     `json:"event,omitempty"`
	Ticker string    `json:"ticker,omitempty"`
	Name   string    `json:"name,omitempty"`
}

// Recommendation is the candidate from the leading sector on a date.
type Recommendation struct {
	Candidate  *selection.Candidate
	SectorCode string
	SectorName string
	SectorRS   float64
}

// Results holds everything a run produced.
type Results struct {
	Config          Config
	Params          indicators.Params
	Trades          []Trade
	Equity          []EquityPoint
	Leadership      sector.LeadershipSeries
	Summary         Summary
	BenchmarkReturn float64
	Anomalies       *errors.Stats
}

// RoundTrip is the net multiplier of buying at entry and selling at exit with fee paid on
// both sides.
func RoundTrip(entry, exit, fee float64) float64 {
	return exit / entry * (1 - fee) * (1 - fee)
}
