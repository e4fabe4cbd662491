package backtest

import (
	"time"

	"github.com/phuslu/log"

	"github.com/ducminhle1904/sector-rotation/internal/errors"
	"github.com/ducminhle1904/sector-rotation/internal/indicators"
	"github.com/ducminhle1904/sector-rotation/internal/logger"
	"github.com/ducminhle1904/sector-rotation/internal/sector"
	"github.com/ducminhle1904/sector-rotation/internal/selection"
	"github.com/ducminhle1904/sector-rotation/pkg/data"
	"github.com/ducminhle1904/sector-rotation/pkg/types"
)

// Recorder receives run telemetry
type Recorder interface {
	RecordDay(date time.Time, equity float64, state State)
	RecordTrade(trade Trade)
	RecordSkip(kind errors.Kind)
}

type nopRecorder struct{}

func (nopRecorder) RecordDay(time.Time, float64, State) {}
func (nopRecorder) RecordTrade(Trade)                   {}
func (nopRecorder) RecordSkip(errors.Kind)              {}

// Engine steps the single-position rotation strategy through a trading calendar.
type Engine struct {
	cfg        Config
	params     indicators.Params
	cache      *indicators.FrameCache
	ranker     *sector.Ranker
	selector   *selection.Selector
	leadership sector.LeadershipSeries
	recorder   Recorder
	logger     *log.Logger
}

// NewEngine creates an engine. ranker, selector and the engine share cache.
func NewEngine(cfg Config, params indicators.Params, cache *indicators.FrameCache, ranker *sector.Ranker, selector *selection.Selector, logger *log.Logger) *Engine {
	return &Engine{
		cfg:      cfg,
		params:   params,
		cache:    cache,
		ranker:   ranker,
		selector: selector,
		recorder: nopRecorder{},
		logger:   logger,
	}
}

// UseLeadership replays a precomputed leadership series instead of ranking each date.
func (e *Engine) UseLeadership(series sector.LeadershipSeries) {
	e.leadership = series.Sorted()
}

// SetRecorder attaches a telemetry sink
func (e *Engine) SetRecorder(r Recorder) {
	if r == nil {
		r = nopRecorder{}
	}
	e.recorder = r
}

// Run simulates every benchmark trading day in [Start, End]. Only configuration problems
// and an empty calendar are errors; everything else is logged and skipped.
func (e *Engine) Run(u *data.Universe) (*Results, error) {
	if err := e.validate(); err != nil {
		return nil, err
	}
	if u == nil || len(u.Benchmark) == 0 {
		return nil, errors.DataUnavailable("backtest", "run", "benchmark series is empty")
	}
	days := u.TradingDays(e.cfg.Start, e.cfg.End)
	if len(days) == 0 {
		return nil, errors.DataUnavailable("backtest", "run", "no benchmark trading days in window")
	}

	e.logger.Info().
		Time("start", days[0]).
		Time("end", days[len(days)-1]).
		Int("days", len(days)).
		Str("params", e.params.String()).
		Str("policy", string(e.selector.Options().Policy)).
		Bool("precomputed_leadership", e.leadership != nil).
		Msg("backtest started")

	r := &runner{
		Engine: e,
		u:      u,
		cash:   e.cfg.InitialCapital,
		res: &Results{
			Config:     e.cfg,
			Params:     e.params,
			Trades:     make([]Trade, 0),
			Equity:     make([]EquityPoint, 0, len(days)),
			Leadership: make(sector.LeadershipSeries, 0, len(days)),
			Anomalies:  errors.NewStats(50),
		},
	}
	for i, day := range days {
		r.step(i, day)
	}
	r.liquidate(len(days)-1, days[len(days)-1])

	res := r.res
	res.Summary = Summarize(res.Trades, res.Equity, e.cfg.InitialCapital)
	res.BenchmarkReturn = BenchmarkReturn(u.Benchmark, e.cfg.Start, e.cfg.End)

	e.logger.Info().
		Int("trades", res.Summary.TotalTrades).
		Float64("cumulative_return", res.Summary.CumulativeReturn).
		Float64("benchmark_return", res.BenchmarkReturn).
		Float64("final_equity", res.Summary.FinalEquity).
		Int("anomalies", res.Anomalies.Total).
		Msg("backtest finished")
	return res, nil
}

func (e *Engine) validate() error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}
	if err := e.params.Validate(); err != nil {
		return err
	}
	if _, err := selection.ParsePolicy(string(e.selector.Options().Policy)); err != nil {
		return err
	}
	if e.selector.Options().LookbackDays <= 0 {
		return errors.Configuration("backtest", "validate", "lookback days must be positive")
	}
	if e.ranker.Options().RSThreshold <= 0 {
		return errors.Configuration("backtest", "validate", "rs threshold must be positive")
	}
	return nil
}

// runner carries the mutable state of one run.
type runner struct {
	*Engine
	u    *data.Universe
	cash float64
	pos  *Position
	res  *Results
}

func (r *runner) step(i int, day time.Time) {
	leadership := r.leadershipOn(day)
	r.res.Leadership = append(r.res.Leadership, leadership)
	rec := r.recommend(leadership, day)

	event := EventNone
	if r.pos == nil {
		if rec != nil {
			r.open(rec, i)
			event = EventBuy
		}
	} else {
		event = r.manage(rec, i, day)
	}

	point := EquityPoint{Date: day, Equity: r.cash, State: StateEmpty, Event: event}
	if r.pos != nil {
		point.State = StateHolding
	}
	if event != EventNone {
		if event == EventSell {
			last := r.res.Trades[len(r.res.Trades)-1]
			point.Ticker, point.Name = last.Ticker, last.Name
		} else {
			point.Ticker, point.Name = r.pos.Ticker, r.pos.Name
		}
	}
	r.res.Equity = append(r.res.Equity, point)
	r.recorder.RecordDay(day, r.cash, point.State)
}

// manage applies rotate, exit or hold to the open position.
func (r *runner) manage(rec *Recommendation, i int, day time.Time) Event {
	idx := r.pos.Series.IndexOf(day)
	if idx < 0 {
		r.skip(errors.DataUnavailable("backtest", "manage", "no bar for held stock").WithInstrument(r.pos.Ticker).WithDate(day))
		return EventNone
	}
	price := r.pos.Series[idx].Close
	r.pos.MaxClose = max(r.pos.MaxClose, price)

	if i-r.pos.entryIndex < r.cfg.MinHoldingDays {
		return EventNone
	}

	if rec != nil && rec.Candidate.Ticker != r.pos.Ticker && rec.SectorRS > r.pos.EntryRS {
		r.close(i, day, price, ExitRotate)
		r.open(rec, i)
		return EventRotate
	}

	if reason, ok := r.exitSignal(day, price); ok {
		r.close(i, day, price, reason)
		return EventSell
	}
	return EventNone
}

// exitSignal evaluates the exit rules in priority order on the held stock's frame.
func (r *runner) exitSignal(day time.Time, price float64) (ExitReason, bool) {
	f, err := r.cache.Frame(r.pos.Ticker, r.pos.Series, r.u.Benchmark, r.params, day)
	if err != nil {
		r.skip(errors.Wrap(err, errors.KindOf(err), "backtest", "exit_signal"))
		return "", false
	}
	r.pos.Frame = f
	row := f.Latest()

	switch {
	case row.DeadCross:
		return ExitDeadCross, true
	case indicators.Defined(row.RSI) && row.RSI > r.cfg.RSIThreshold:
		return ExitRSI, true
	case r.cfg.TrailingStopPct > 0 && price < (1-r.cfg.TrailingStopPct)*r.pos.MaxClose:
		return ExitTrailingStop, true
	}
	return "", false
}

func (r *runner) leadershipOn(day time.Time) sector.Leadership {
	if r.leadership != nil {
		l, _ := r.leadership.On(day)
		l.Date = day
		return l
	}
	return sector.Leadership{Date: day, Leaders: r.ranker.Leaders(r.u.Sectors, r.u.Benchmark, day)}
}

// recommend runs stock selection inside the strongest eligible sector.
func (r *runner) recommend(l sector.Leadership, day time.Time) *Recommendation {
	for _, leader := range l.Leaders {
		if r.ranker.Excluded(leader.Code) {
			continue
		}
		s := r.u.Sector(leader.Code)
		if s == nil {
			continue
		}
		cand, err := r.selector.Select(s.Stocks, day, r.u.Benchmark)
		if err != nil {
			r.skip(err)
			return nil
		}
		if cand == nil {
			return nil
		}
		name := leader.Name
		if name == "" {
			name = s.Name
		}
		return &Recommendation{Candidate: cand, SectorCode: leader.Code, SectorName: name, SectorRS: leader.RS}
	}
	return nil
}

func (r *runner) open(rec *Recommendation, i int) {
	c := rec.Candidate
	var series types.Series
	if s := r.u.Sector(rec.SectorCode); s != nil {
		for _, st := range s.Stocks {
			if st.Ticker == c.Ticker {
				series = st.Series
				break
			}
		}
	}
	r.pos = &Position{
		Ticker:     c.Ticker,
		Name:       c.Name,
		SectorCode: rec.SectorCode,
		SectorName: rec.SectorName,
		EntryDate:  c.EntryDate,
		EntryPrice: c.EntryPrice,
		EntryRS:    rec.SectorRS,
		MaxClose:   c.EntryPrice,
		Series:     series,
		Frame:      c.Frame,
		entryIndex: i,
	}
	logger.Trade(r.logger).
		Str("action", "buy").
		Str("ticker", c.Ticker).
		Str("name", c.Name).
		Str("sector", rec.SectorCode).
		Float64("price", c.EntryPrice).
		Float64("sector_rs", rec.SectorRS).
		Time("date", c.EntryDate).
		Msg("position opened")
}

func (r *runner) close(i int, day time.Time, price float64, reason ExitReason) {
	p := r.pos
	multiplier := RoundTrip(p.EntryPrice, price, r.cfg.FeeRate)
	trade := Trade{
		Ticker:        p.Ticker,
		Name:          p.Name,
		SectorCode:    p.SectorCode,
		SectorName:    p.SectorName,
		EntryDate:     p.EntryDate,
		EntryPrice:    p.EntryPrice,
		ExitDate:      types.TruncateDay(day),
		ExitPrice:     price,
		HoldingDays:   i - p.entryIndex,
		GrossReturn:   price/p.EntryPrice - 1,
		NetMultiplier: multiplier,
		NetReturn:     multiplier - 1,
		ExitReason:    reason,
	}
	r.cash *= multiplier
	r.res.Trades = append(r.res.Trades, trade)
	r.pos = nil
	r.recorder.RecordTrade(trade)

	logger.Trade(r.logger).
		Str("action", "sell").
		Str("ticker", trade.Ticker).
		Str("reason", string(reason)).
		Float64("entry", trade.EntryPrice).
		Float64("exit", trade.ExitPrice).
		Float64("net_return", trade.NetReturn).
		Float64("cash", r.cash).
		Time("date", trade.ExitDate).
		Msg("position closed")
}

// liquidate closes a position still open after the last date at the last close on or before
// that date, and tags the final equity point.
func (r *runner) liquidate(i int, day time.Time) {
	if r.pos == nil {
		return
	}
	bar, ok := r.pos.Series.Until(day).Last()
	if !ok {
		bar = types.OHLCV{Close: r.pos.EntryPrice}
	}
	ticker, name := r.pos.Ticker, r.pos.Name
	r.close(i, day, bar.Close, ExitLiquidate)

	last := &r.res.Equity[len(r.res.Equity)-1]
	last.Equity = r.cash
	last.State = StateEmpty
	// a buy or rotate on the final date keeps its tag; the trade records the liquidation
	if last.Event == EventNone {
		last.Event = EventLiquidate
		last.Ticker, last.Name = ticker, name
	}
}

func (r *runner) skip(err error) {
	kind := errors.KindOf(err)
	r.res.Anomalies.Record(err)
	r.recorder.RecordSkip(kind)
	if kind == errors.KindDataUnavailable {
		r.logger.Debug().Err(err).Msg("skipped")
		return
	}
	r.logger.Warn().Err(err).Msg("skipped")
}
