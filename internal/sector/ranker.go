package sector

import (
	"time"

	"github.com/phuslu/log"

	"github.com/ducminhle1904/sector-rotation/internal/errors"
	"github.com/ducminhle1904/sector-rotation/internal/indicators"
	"github.com/ducminhle1904/sector-rotation/pkg/data"
	"github.com/ducminhle1904/sector-rotation/pkg/types"
)

// Ranker evaluates sector leadership on a given date without looking past it.
type Ranker struct {
	cache    *indicators.FrameCache
	params   indicators.Params
	opts     Options
	excluded map[string]bool
	stats    *errors.Stats
	logger   *log.Logger
}

// NewRanker creates a ranker. Frames are shared with other components through cache.
func NewRanker(cache *indicators.FrameCache, params indicators.Params, opts Options, excluded []string, logger *log.Logger) *Ranker {
	ex := make(map[string]bool, len(excluded))
	for _, code := range excluded {
		ex[code] = true
	}
	return &Ranker{
		cache:    cache,
		params:   params,
		opts:     opts,
		excluded: ex,
		stats:    errors.NewStats(20),
		logger:   logger,
	}
}

// Options returns the leadership filter in use
func (r *Ranker) Options() Options { return r.opts }

// Excluded reports whether code is never ranked.
func (r *Ranker) Excluded(code string) bool { return r.excluded[code] }

// Anomalies returns the tally of skipped sector evaluations
func (r *Ranker) Anomalies() *errors.Stats { return r.stats }

// Leaders ranks the sectors that have a bar on date.
func (r *Ranker) Leaders(sectors []data.Sector, benchmark types.Series, date time.Time) []Leader {
	frames := make([]SectorFrame, 0, len(sectors))
	for _, s := range sectors {
		if r.excluded[s.Code] || s.Series.IndexOf(date) < 0 {
			continue
		}
		f, err := r.cache.FrameAtLeast(data.IndexID(s.Code), s.Series, benchmark, r.params, date, r.opts.MinRows)
		if err != nil {
			r.record(err, s.Code, date)
			continue
		}
		frames = append(frames, SectorFrame{Code: s.Code, Name: s.Name, Frame: f})
	}
	return RankLeaders(frames, r.opts)
}

func (r *Ranker) record(err error, code string, date time.Time) {
	if errors.IsDataUnavailable(err) {
		r.logger.Debug().Str("sector", code).Time("date", date).Err(err).Msg("sector skipped")
		return
	}
	r.stats.Record(err)
	r.logger.Warn().Str("sector", code).Time("date", date).Err(err).Msg("sector evaluation failed")
}
