package data

import (
	"context"
	"time"

	"github.com/phuslu/log"

	"github.com/ducminhle1904/sector-rotation/internal/errors"
	"github.com/ducminhle1904/sector-rotation/pkg/types"
)

// Stock is a sector member with its bars
type Stock struct {
	Ticker string
	Name   string
	Series types.Series
}

// Sector is a sector index with its members
type Sector struct {
	Code   string
	Name   string
	Series types.Series
	Stocks []Stock
}

// Universe is everything a backtest reads, materialized up front.
type Universe struct {
	BenchmarkCode string
	Benchmark     types.Series
	Sectors       []Sector
	// Missing lists instruments that could not be loaded
	Missing []string
}

// Sector returns the sector with code, or nil.
func (u *Universe) Sector(code string) *Sector {
	for i := range u.Sectors {
		if u.Sectors[i].Code == code {
			return &u.Sectors[i]
		}
	}
	return nil
}

// TradingDays lists the benchmark dates within [start, end]. The benchmark calendar drives
// the simulation.
func (u *Universe) TradingDays(start, end time.Time) []time.Time {
	return TradingDays(u.Benchmark, start, end)
}

// UniverseSpec selects what to load
type UniverseSpec struct {
	BenchmarkCode string
	SectorCodes   []string
	Excluded      []string
	From          time.Time
	To            time.Time
	// SkipStocks loads only index series, for leadership-only runs
	SkipStocks bool
	Workers    int
}

// UniverseLoader assembles a Universe from the data collaborators
type UniverseLoader struct {
	prices  OHLCVSource
	members ConstituentSource
	names   SectorDirectory
	logger  *log.Logger
}

// NewUniverseLoader creates a loader
func NewUniverseLoader(prices OHLCVSource, members ConstituentSource, names SectorDirectory, logger *log.Logger) *UniverseLoader {
	return &UniverseLoader{prices: prices, members: members, names: names, logger: logger}
}

// Load fetches the benchmark, every non-excluded sector index and its members. A missing
// benchmark is an error; a missing sector or stock is logged and left out.
func (l *UniverseLoader) Load(ctx context.Context, spec UniverseSpec) (*Universe, error) {
	benchmark, err := l.prices.FetchOHLCV(IndexID(spec.BenchmarkCode), spec.From, spec.To)
	if err != nil {
		return nil, err
	}
	if len(benchmark) == 0 {
		return nil, errors.DataUnavailable("data", "load_universe", "benchmark has no bars in range").
			WithInstrument(spec.BenchmarkCode)
	}

	excluded := make(map[string]bool, len(spec.Excluded)+1)
	for _, code := range spec.Excluded {
		excluded[code] = true
	}
	excluded[spec.BenchmarkCode] = true

	u := &Universe{BenchmarkCode: spec.BenchmarkCode, Benchmark: benchmark}

	var jobs []FetchJob
	queued := make(map[string]bool)
	queue := func(id string) {
		if !queued[id] {
			queued[id] = true
			jobs = append(jobs, FetchJob{ID: id, Start: spec.From, End: spec.To})
		}
	}

	members := make(map[string][]types.Constituent)
	var codes []string
	for _, code := range spec.SectorCodes {
		if excluded[code] {
			l.logger.Debug().Str("sector", code).Msg("sector excluded")
			continue
		}
		codes = append(codes, code)
		queue(IndexID(code))

		if spec.SkipStocks {
			continue
		}
		list, err := l.members.FetchConstituents(code)
		if err != nil {
			l.logger.Warn().Str("sector", code).Err(err).Msg("no constituents")
			continue
		}
		members[code] = list
		for _, c := range list {
			queue(c.Ticker)
		}
	}

	results, err := FetchAll(ctx, l.prices, spec.Workers, jobs)
	if err != nil {
		return nil, err
	}

	for _, code := range codes {
		r := results[IndexID(code)]
		if r.Error != nil || len(r.Series) == 0 {
			l.logger.Warn().Str("sector", code).Err(r.Error).Msg("sector index unavailable, skipping")
			u.Missing = append(u.Missing, IndexID(code))
			continue
		}

		sector := Sector{Code: code, Name: l.names.SectorName(code), Series: r.Series}
		for _, c := range members[code] {
			sr := results[c.Ticker]
			if sr.Error != nil || len(sr.Series) == 0 {
				l.logger.Debug().Str("ticker", c.Ticker).Err(sr.Error).Msg("stock unavailable, skipping")
				u.Missing = append(u.Missing, c.Ticker)
				continue
			}
			sector.Stocks = append(sector.Stocks, Stock{Ticker: c.Ticker, Name: c.Name, Series: sr.Series})
		}
		u.Sectors = append(u.Sectors, sector)
	}

	l.logger.Info().
		Str("benchmark", spec.BenchmarkCode).
		Int("bars", len(benchmark)).
		Int("sectors", len(u.Sectors)).
		Int("missing", len(u.Missing)).
		Msg("universe loaded")
	return u, nil
}
