package sector

import (
	"sort"
	"time"

	"github.com/ducminhle1904/sector-rotation/pkg/data"
	"github.com/ducminhle1904/sector-rotation/pkg/types"
)

// Leadership is the ranked leader list of one evaluation date.
type Leadership struct {
	Date    time.Time `json:"date"`
	Leaders []Leader  `json:"leaders"`
}

// Top returns the strongest leader.
func (l Leadership) Top() (Leader, bool) {
	if len(l.Leaders) == 0 {
		return Leader{}, false
	}
	return l.Leaders[0], true
}

// LeadershipSeries is a date-ascending sequence of leadership records.
type LeadershipSeries []Leadership

// On returns the record dated day.
func (s LeadershipSeries) On(day time.Time) (Leadership, bool) {
	day = types.TruncateDay(day)
	i := sort.Search(len(s), func(i int) bool { return !types.TruncateDay(s[i].Date).Before(day) })
	if i < len(s) && types.TruncateDay(s[i].Date).Equal(day) {
		return s[i], true
	}
	return Leadership{}, false
}

// Tops keeps only the strongest leader of each date, dropping dates without one.
func (s LeadershipSeries) Tops() LeadershipSeries {
	out := make(LeadershipSeries, 0, len(s))
	for _, l := range s {
		if top, ok := l.Top(); ok {
			out = append(out, Leadership{Date: l.Date, Leaders: []Leader{top}})
		}
	}
	return out
}

// Sorted returns the series ordered by date, later duplicates replacing earlier ones.
func (s LeadershipSeries) Sorted() LeadershipSeries {
	out := make(LeadershipSeries, len(s))
	copy(out, s)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })

	dedup := out[:0]
	for _, l := range out {
		if n := len(dedup); n > 0 && types.TruncateDay(dedup[n-1].Date).Equal(types.TruncateDay(l.Date)) {
			dedup[n-1] = l
			continue
		}
		dedup = append(dedup, l)
	}
	return dedup
}

// BuildLeadershipSeries runs the ranker over dates. Every date gets a record, empty when no
// sector qualifies.
func BuildLeadershipSeries(r *Ranker, sectors []data.Sector, benchmark types.Series, dates []time.Time) LeadershipSeries {
	series := make(LeadershipSeries, 0, len(dates))
	for _, day := range dates {
		series = append(series, Leadership{
			Date:    types.TruncateDay(day),
			Leaders: r.Leaders(sectors, benchmark, day),
		})
	}
	return series
}
