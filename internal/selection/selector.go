// Package selection picks one stock inside the leading sector.
package selection

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/phuslu/log"

	"github.com/ducminhle1904/sector-rotation/internal/errors"
	"github.com/ducminhle1904/sector-rotation/internal/indicators"
	"github.com/ducminhle1904/sector-rotation/pkg/data"
	"github.com/ducminhle1904/sector-rotation/pkg/types"
)

// Policy names a selection rule
type Policy string

const (
	// PolicyBestATR picks the up-trending stock with the widest average true range
	PolicyBestATR Policy = "best_atr"
	// PolicyGoldenCross picks the first up-trending stock with a recent golden cross
	PolicyGoldenCross Policy = "golden_cross"
)

const (
	// DefaultLookbackDays is how many trailing rows may contain the golden cross
	DefaultLookbackDays = 14
	// DefaultBestATRMinRows is the minimum history for the best_atr policy
	DefaultBestATRMinRows = 100
)

// ParsePolicy validates a policy name
func ParsePolicy(name string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(name))); p {
	case PolicyBestATR, PolicyGoldenCross:
		return p, nil
	default:
		return "", errors.Configuration("selection", "parse_policy",
			fmt.Sprintf("unknown selection policy %q (want %s or %s)", name, PolicyBestATR, PolicyGoldenCross))
	}
}

// Options configures a Selector
type Options struct {
	Policy       Policy `yaml:"policy"`
	LookbackDays int    `yaml:"lookback_days"`
	MinRows      int    `yaml:"min_rows"`
}

// DefaultOptions selects by golden cross over the last 14 rows
func DefaultOptions() Options {
	return Options{
		Policy:       PolicyGoldenCross,
		LookbackDays: DefaultLookbackDays,
		MinRows:      DefaultBestATRMinRows,
	}
}

// Candidate is the recommended stock for a date.
type Candidate struct {
	Ticker     string
	Name       string
	EntryPrice float64
	EntryDate  time.Time
	RS         float64
	ATR        float64
	Frame      *indicators.Frame
}

// Selector applies a selection policy to a sector's stocks.
type Selector struct {
	cache  *indicators.FrameCache
	params indicators.Params
	opts   Options
	stats  *errors.Stats
	logger *log.Logger
}

// NewSelector creates a selector. Frames are shared with other components through cache.
func NewSelector(cache *indicators.FrameCache, params indicators.Params, opts Options, logger *log.Logger) *Selector {
	return &Selector{
		cache:  cache,
		params: params,
		opts:   opts,
		stats:  errors.NewStats(20),
		logger: logger,
	}
}

// Options returns the selection options in use
func (s *Selector) Options() Options { return s.opts }

// Anomalies returns the tally of failed stock evaluations
func (s *Selector) Anomalies() *errors.Stats { return s.stats }

// Select returns the policy's pick among stocks as of date, or nil when none qualifies.
// Stocks without a bar on date or with too little history are skipped. Only an unknown
// policy is an error.
func (s *Selector) Select(stocks []data.Stock, date time.Time, benchmark types.Series) (*Candidate, error) {
	switch s.opts.Policy {
	case PolicyBestATR:
		return s.bestATR(stocks, date, benchmark), nil
	case PolicyGoldenCross:
		return s.goldenCross(stocks, date, benchmark), nil
	default:
		_, err := ParsePolicy(string(s.opts.Policy))
		return nil, err
	}
}

func (s *Selector) bestATR(stocks []data.Stock, date time.Time, benchmark types.Series) *Candidate {
	var best *Candidate
	for _, st := range stocks {
		f := s.frame(st, date, benchmark, s.opts.MinRows)
		if f == nil {
			continue
		}
		row := f.Latest()
		if !row.UpTrend || math.IsNaN(row.ATR) {
			continue
		}
		if best == nil || row.ATR > best.ATR {
			best = candidate(st, f, date)
		}
	}
	return best
}

func (s *Selector) goldenCross(stocks []data.Stock, date time.Time, benchmark types.Series) *Candidate {
	minRows := max(s.params.LongWindow, s.opts.LookbackDays)
	for _, st := range stocks {
		f := s.frame(st, date, benchmark, minRows)
		if f == nil {
			continue
		}
		if f.Latest().UpTrend && f.GoldenCrossWithin(s.opts.LookbackDays) {
			return candidate(st, f, date)
		}
	}
	return nil
}

// frame returns the stock's frame as of date, or nil when it cannot take part.
func (s *Selector) frame(st data.Stock, date time.Time, benchmark types.Series, minRows int) *indicators.Frame {
	if st.Series.IndexOf(date) < 0 {
		return nil
	}
	f, err := s.cache.FrameAtLeast(st.Ticker, st.Series, benchmark, s.params, date, minRows)
	if err != nil {
		if errors.IsDataUnavailable(err) {
			s.logger.Debug().Str("ticker", st.Ticker).Time("date", date).Err(err).Msg("stock skipped")
		} else {
			s.stats.Record(err)
			s.logger.Warn().Str("ticker", st.Ticker).Time("date", date).Err(err).Msg("stock evaluation failed")
		}
		return nil
	}
	return f
}

func candidate(st data.Stock, f *indicators.Frame, date time.Time) *Candidate {
	row := f.Latest()
	return &Candidate{
		Ticker:     st.Ticker,
		Name:       st.Name,
		EntryPrice: row.Bar.Close,
		EntryDate:  types.TruncateDay(date),
		RS:         row.RS,
		ATR:        row.ATR,
		Frame:      f,
	}
}
