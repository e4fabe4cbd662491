// Package sector ranks sector indices by relative strength and trend and keeps the resulting
// leadership time series.
package sector

import (
	"math"
	"sort"

	"github.com/ducminhle1904/sector-rotation/internal/indicators"
)

const (
	// DefaultRSThreshold is the minimum relative strength of a leading sector
	DefaultRSThreshold = 1.05
	// BatchRSThreshold is the looser threshold historically used when generating the
	// persisted leadership series.
	BatchRSThreshold = 1.015
	// DefaultRSLag is how many rows back the rising-RS comparison looks
	DefaultRSLag = 5
	// DefaultMinRows is the minimum history of a sector index to be ranked
	DefaultMinRows = 21
)

// DefaultExcluded are composite and size-bucket indices that are not tradable sectors.
var DefaultExcluded = []string{"1003", "1005", "1045"}

// Options controls the leadership filter.
type Options struct {
	RSThreshold float64 `yaml:"rs_threshold"`
	RSLag       int     `yaml:"rs_lag"`
	MinRows     int     `yaml:"min_rows"`
}

// DefaultOptions returns the live ranking filter
func DefaultOptions() Options {
	return Options{
		RSThreshold: DefaultRSThreshold,
		RSLag:       DefaultRSLag,
		MinRows:     DefaultMinRows,
	}
}

// SectorFrame is a sector index with its indicator frame as of the evaluation date.
type SectorFrame struct {
	Code  string
	Name  string
	Frame *indicators.Frame
}

// Leader is a sector that passed the leadership filter.
type Leader struct {
	Code string  `json:"code"`
	Name string  `json:"name"`
	RS   float64 `json:"rs"`
}

// Qualifies reports whether a frame passes the leadership filter at its latest row: enough
// history, an up-trend, RS above the threshold and RS higher than RSLag rows earlier.
func Qualifies(f *indicators.Frame, opts Options) bool {
	if f == nil || f.Len() < opts.MinRows || f.Len() <= opts.RSLag {
		return false
	}
	latest := f.Latest()
	prev := f.RSAgo(opts.RSLag)
	if math.IsNaN(latest.RS) || math.IsNaN(prev) {
		return false
	}
	return latest.UpTrend && latest.RS > opts.RSThreshold && latest.RS > prev
}

// RankLeaders filters frames and orders the qualifying sectors by RS, strongest first.
// Ties keep input order.
func RankLeaders(frames []SectorFrame, opts Options) []Leader {
	leaders := make([]Leader, 0, len(frames))
	for _, sf := range frames {
		if !Qualifies(sf.Frame, opts) {
			continue
		}
		leaders = append(leaders, Leader{Code: sf.Code, Name: sf.Name, RS: sf.Frame.Latest().RS})
	}
	sort.SliceStable(leaders, func(i, j int) bool {
		return leaders[i].RS > leaders[j].RS
	})
	return leaders
}
