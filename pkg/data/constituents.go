package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ducminhle1904/sector-rotation/internal/errors"
	"github.com/ducminhle1904/sector-rotation/pkg/types"
)

// tickerWidth is the KRX short-code width; spreadsheets tend to strip the leading zeros.
const tickerWidth = 6

// CSVConstituents implements ConstituentSource over sector_<code>.csv files
type CSVConstituents struct {
	layout Layout
}

// NewCSVConstituents creates a membership source for layout
func NewCSVConstituents(layout Layout) *CSVConstituents {
	return &CSVConstituents{layout: layout}
}

// FetchConstituents returns the members of sector in file order. Rows without a code are
// dropped, repeated codes keep their first position.
func (c *CSVConstituents) FetchConstituents(sector string) ([]types.Constituent, error) {
	path := c.layout.ConstituentPath(sector)
	rows, err := readCodeNameCSV(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.DataUnavailable("data", "fetch_constituents", "no membership file "+path).WithInstrument(sector)
		}
		return nil, errors.Wrap(err, errors.KindDataUnavailable, "data", "fetch_constituents").WithInstrument(sector)
	}

	seen := make(map[string]bool, len(rows))
	members := make([]types.Constituent, 0, len(rows))
	for _, row := range rows {
		ticker := NormalizeTicker(row[0])
		if ticker == "" || seen[ticker] {
			continue
		}
		seen[ticker] = true
		members = append(members, types.Constituent{Ticker: ticker, Name: row[1]})
	}
	return members, nil
}

// NormalizeTicker trims a code and left-pads all-digit codes to the six-digit KRX form.
func NormalizeTicker(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return code
		}
	}
	if len(code) < tickerWidth {
		code = strings.Repeat("0", tickerWidth-len(code)) + code
	}
	return code
}

// readCodeNameCSV reads a two-column code,name file with a header row. The name falls back to
// the code when missing.
func readCodeNameCSV(path string) ([][2]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}

	var rows [][2]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		if len(record) == 0 {
			continue
		}
		code := strings.TrimSpace(record[0])
		name := code
		if len(record) > 1 && strings.TrimSpace(record[1]) != "" {
			name = strings.TrimSpace(record[1])
		}
		rows = append(rows, [2]string{code, name})
	}
	return rows, nil
}
