package indicators

import (
	"fmt"

	"github.com/ducminhle1904/sector-rotation/internal/errors"
)

const (
	// DefaultShortWindow is the short moving-average window used for crossovers
	DefaultShortWindow = 5
	// DefaultLongWindow is the long moving-average window used for golden crosses
	DefaultLongWindow = 60
	// ExitMAWindow is the moving average the dead-cross exit always compares against,
	// independent of LongWindow.
	ExitMAWindow = 60

	// DefaultRSWindow is the rolling window that normalizes the relative-strength ratio
	DefaultRSWindow = 20

	// DefaultATRPeriod is the true-range averaging period of the trend band
	DefaultATRPeriod = 10
	// DefaultATRMultiplier is the band offset in ATR units
	DefaultATRMultiplier = 3.0

	// DefaultRSIPeriod is the momentum oscillator period
	DefaultRSIPeriod = 14
)

// Params is the indicator parameter set. It is comparable and part of every cache key.
type Params struct {
	ShortWindow   int     `yaml:"ma_short" json:"ma_short"`
	LongWindow    int     `yaml:"ma_long" json:"ma_long"`
	RSWindow      int     `yaml:"rs_window" json:"rs_window"`
	ATRPeriod     int     `yaml:"atr_period" json:"atr_period"`
	ATRMultiplier float64 `yaml:"atr_multiplier" json:"atr_multiplier"`
	RSIPeriod     int     `yaml:"rsi_period" json:"rsi_period"`
}

// DefaultParams returns the standard 5/60 crossover set with a 10x3 trend band.
func DefaultParams() Params {
	return Params{
		ShortWindow:   DefaultShortWindow,
		LongWindow:    DefaultLongWindow,
		RSWindow:      DefaultRSWindow,
		ATRPeriod:     DefaultATRPeriod,
		ATRMultiplier: DefaultATRMultiplier,
		RSIPeriod:     DefaultRSIPeriod,
	}
}

// Validate rejects parameter sets the engine cannot run with.
func (p Params) Validate() error {
	switch {
	case p.ShortWindow <= 0:
		return errors.Configuration("indicators", "validate", fmt.Sprintf("ma_short must be positive, got %d", p.ShortWindow))
	case p.LongWindow <= p.ShortWindow:
		return errors.Configuration("indicators", "validate",
			fmt.Sprintf("ma_long (%d) must be greater than ma_short (%d)", p.LongWindow, p.ShortWindow))
	case p.RSWindow <= 0:
		return errors.Configuration("indicators", "validate", fmt.Sprintf("rs_window must be positive, got %d", p.RSWindow))
	case p.ATRPeriod <= 0:
		return errors.Configuration("indicators", "validate", fmt.Sprintf("atr_period must be positive, got %d", p.ATRPeriod))
	case p.ATRMultiplier <= 0:
		return errors.Configuration("indicators", "validate", fmt.Sprintf("atr_multiplier must be positive, got %g", p.ATRMultiplier))
	case p.RSIPeriod <= 0:
		return errors.Configuration("indicators", "validate", fmt.Sprintf("rsi_period must be positive, got %d", p.RSIPeriod))
	}
	return nil
}

// Warmup is the number of leading rows before every windowed column can be defined.
func (p Params) Warmup() int {
	return max(p.ShortWindow, p.LongWindow, p.RSWindow)
}

// String renders the parameter set for logs and cache diagnostics.
func (p Params) String() string {
	return fmt.Sprintf("ma%d/%d rs%d atr%dx%g rsi%d",
		p.ShortWindow, p.LongWindow, p.RSWindow, p.ATRPeriod, p.ATRMultiplier, p.RSIPeriod)
}
