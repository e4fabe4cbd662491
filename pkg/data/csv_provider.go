package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/phuslu/log"

	"github.com/ducminhle1904/sector-rotation/internal/errors"
	"github.com/ducminhle1904/sector-rotation/pkg/types"
)

// CSVProvider implements OHLCVSource over the CSV files of a Layout
type CSVProvider struct {
	layout Layout
	format CSVColumnMapping
	logger *log.Logger
}

// NewCSVProvider creates a CSV provider with the default column format
func NewCSVProvider(layout Layout, logger *log.Logger) *CSVProvider {
	return NewCSVProviderWithFormat(layout, DefaultCSVFormat, logger)
}

// NewCSVProviderWithFormat creates a CSV provider with a custom positional format
func NewCSVProviderWithFormat(layout Layout, format CSVColumnMapping, logger *log.Logger) *CSVProvider {
	return &CSVProvider{layout: layout, format: format, logger: logger}
}

// GetName returns the name of the data provider
func (p *CSVProvider) GetName() string {
	return "CSV Provider"
}

// FetchOHLCV loads the bars of id dated within [start, end]. A zero start or end leaves that
// side open. A missing file is reported as data-unavailable.
func (p *CSVProvider) FetchOHLCV(id string, start, end time.Time) (types.Series, error) {
	path := p.layout.SeriesPath(id)
	series, err := p.LoadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.DataUnavailable("data", "fetch_ohlcv", "no price file "+path).WithInstrument(id)
		}
		return nil, errors.Wrap(err, errors.KindDataUnavailable, "data", "fetch_ohlcv").WithInstrument(id)
	}
	return clip(series, start, end), nil
}

// LoadFile parses a price file. Malformed rows are skipped with a warning; the result is
// sorted by date with duplicate dates collapsed to the last occurrence.
func (p *CSVProvider) LoadFile(filename string) (types.Series, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return types.Series{}, nil
		}
		return nil, fmt.Errorf("read header of %s: %w", filename, err)
	}
	format := resolveColumns(header, p.format)

	var series types.Series
	lineNum := 1
	for {
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("error reading CSV at line %d: %w", lineNum, err)
		}
		lineNum++

		bar, err := parseRecord(record, format)
		if err != nil {
			p.logger.Warn().Str("file", filename).Int("line", lineNum).Err(err).Msg("skipping row")
			continue
		}
		series = append(series, bar)
	}

	return SortAndDedupe(series), nil
}

// ValidateData checks price sanity and strict date ordering of a loaded series.
func (p *CSVProvider) ValidateData(series types.Series) error {
	if len(series) == 0 {
		return fmt.Errorf("no data provided")
	}
	for i, bar := range series {
		if err := validateBar(bar); err != nil {
			return fmt.Errorf("invalid price data at index %d: %w", i, err)
		}
	}
	return ValidateTimeSequence(series)
}

func parseRecord(record []string, format CSVColumnMapping) (types.OHLCV, error) {
	if len(record) < format.MinColumns {
		return types.OHLCV{}, fmt.Errorf("insufficient columns (expected %d, got %d)", format.MinColumns, len(record))
	}

	raw := strings.TrimSpace(record[format.TimestampCol])
	var ts time.Time
	var err error
	for _, layout := range format.DateFormats {
		if ts, err = time.Parse(layout, raw); err == nil {
			break
		}
	}
	if err != nil {
		return types.OHLCV{}, fmt.Errorf("invalid timestamp %q", raw)
	}

	var prices [5]float64
	cols := [5]int{format.OpenCol, format.HighCol, format.LowCol, format.CloseCol, format.VolumeCol}
	for i, col := range cols {
		if col < 0 || col >= len(record) {
			continue
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(record[col]), ",", ""), 64)
		if err != nil {
			return types.OHLCV{}, fmt.Errorf("invalid %s %q", columnNames[i], record[col])
		}
		prices[i] = v
	}

	bar := types.OHLCV{
		Timestamp: types.TruncateDay(ts),
		Open:      prices[0],
		High:      prices[1],
		Low:       prices[2],
		Close:     prices[3],
		Volume:    prices[4],
	}
	if err := validateBar(bar); err != nil {
		return types.OHLCV{}, err
	}
	return bar, nil
}

var columnNames = [5]string{"open", "high", "low", "close", "volume"}

func validateBar(bar types.OHLCV) error {
	if bar.Open <= 0 || bar.High <= 0 || bar.Low <= 0 || bar.Close <= 0 {
		return fmt.Errorf("prices must be positive")
	}
	if bar.High < bar.Low {
		return fmt.Errorf("high (%.4f) cannot be less than low (%.4f)", bar.High, bar.Low)
	}
	if bar.High < bar.Open || bar.High < bar.Close {
		return fmt.Errorf("high (%.4f) must be >= open (%.4f) and close (%.4f)", bar.High, bar.Open, bar.Close)
	}
	if bar.Low > bar.Open || bar.Low > bar.Close {
		return fmt.Errorf("low (%.4f) must be <= open (%.4f) and close (%.4f)", bar.Low, bar.Open, bar.Close)
	}
	return nil
}

// resolveColumns maps named header columns onto the format, falling back to positions when
// the header does not name every price column.
func resolveColumns(header []string, fallback CSVColumnMapping) CSVColumnMapping {
	found := make(map[string]int)
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if col, ok := headerAliases[name]; ok {
			if _, dup := found[col]; !dup {
				found[col] = i
			}
		}
	}

	for _, col := range []string{"open", "high", "low", "close"} {
		if _, ok := found[col]; !ok {
			return fallback
		}
	}

	format := fallback
	format.OpenCol = found["open"]
	format.HighCol = found["high"]
	format.LowCol = found["low"]
	format.CloseCol = found["close"]
	// pandas writes the date index with an empty header in the first column
	format.TimestampCol = 0
	if i, ok := found["date"]; ok {
		format.TimestampCol = i
	}
	format.VolumeCol = -1
	if i, ok := found["volume"]; ok {
		format.VolumeCol = i
	}
	format.MinColumns = max(format.TimestampCol, format.OpenCol, format.HighCol, format.LowCol, format.CloseCol) + 1
	return format
}

func clip(series types.Series, start, end time.Time) types.Series {
	if !start.IsZero() && !end.IsZero() {
		return series.Between(start, end)
	}
	if !end.IsZero() {
		return series.Until(end)
	}
	if !start.IsZero() {
		return series.Between(start, time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC))
	}
	return series
}
