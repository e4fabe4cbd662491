package data

import (
	"time"

	"github.com/ducminhle1904/sector-rotation/pkg/types"
)

// OHLCVSource loads daily bars for an instrument (a stock ticker or an index id from IndexID).
// An empty series with a nil error means the source simply has no bars in the range.
type OHLCVSource interface {
	FetchOHLCV(id string, start, end time.Time) (types.Series, error)
}

// ConstituentSource lists the stocks that belong to a sector, in listing order.
type ConstituentSource interface {
	FetchConstituents(sector string) ([]types.Constituent, error)
}

// SectorDirectory maps sector codes to display names.
type SectorDirectory interface {
	SectorName(code string) string
}

// SeriesCache caches loaded series by key
type SeriesCache interface {
	Get(key string) (types.Series, bool)
	Set(key string, series types.Series)
	Clear()
	Size() int
}

// CSVColumnMapping defines the column positions of a price file. Positions are used only when
// the header row does not name the columns.
type CSVColumnMapping struct {
	TimestampCol int
	OpenCol      int
	HighCol      int
	LowCol       int
	CloseCol     int
	VolumeCol    int
	MinColumns   int
	DateFormats  []string
}

// DefaultCSVFormat is Date,Open,High,Low,Close,Volume with ISO dates
var DefaultCSVFormat = CSVColumnMapping{
	TimestampCol: 0,
	OpenCol:      1,
	HighCol:      2,
	LowCol:       3,
	CloseCol:     4,
	VolumeCol:    5,
	MinColumns:   6,
	DateFormats:  []string{"2006-01-02", "2006-01-02 15:04:05", "20060102"},
}

// headerAliases maps lower-cased header names to columns. KRX exports use Korean headers.
var headerAliases = map[string]string{
	"date":      "date",
	"timestamp": "date",
	"날짜":        "date",
	"일자":        "date",
	"open":      "open",
	"시가":        "open",
	"high":      "high",
	"고가":        "high",
	"low":       "low",
	"저가":        "low",
	"close":     "close",
	"종가":        "close",
	"volume":    "volume",
	"거래량":       "volume",
}
