package reporting

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"

	"github.com/ducminhle1904/sector-rotation/internal/backtest"
	"github.com/ducminhle1904/sector-rotation/internal/sector"
)

// DefaultCSVReporter implements CSV output functionality
type DefaultCSVReporter struct{}

// NewDefaultCSVReporter creates a new CSV reporter
func NewDefaultCSVReporter() *DefaultCSVReporter {
	return &DefaultCSVReporter{}
}

// WriteTradesCSV writes the trade log, one round trip per row
func (r *DefaultCSVReporter) WriteTradesCSV(results *backtest.Results, path string) error {
	rows := [][]string{{
		"ticker", "name", "sector_code", "sector_name",
		"entry_date", "entry_price", "exit_date", "exit_price",
		"holding_days", "gross_return", "net_return", "exit_reason",
	}}
	for _, t := range results.Trades {
		rows = append(rows, []string{
			t.Ticker,
			t.Name,
			t.SectorCode,
			t.SectorName,
			t.EntryDate.Format(time.DateOnly),
			formatFloat(t.EntryPrice),
			t.ExitDate.Format(time.DateOnly),
			formatFloat(t.ExitPrice),
			strconv.Itoa(t.HoldingDays),
			formatFloat(t.GrossReturn),
			formatFloat(t.NetReturn),
			string(t.ExitReason),
		})
	}
	return writeCSV(path, rows)
}

// WriteEquityCSV writes the daily equity with buy/sell events for plotting
func (r *DefaultCSVReporter) WriteEquityCSV(results *backtest.Results, path string) error {
	rows := [][]string{{"date", "equity", "state", "event", "ticker", "name"}}
	for _, p := range results.Equity {
		rows = append(rows, []string{
			p.Date.Format(time.DateOnly),
			formatFloat(p.Equity),
			p.State.String(),
			string(p.Event),
			p.Ticker,
			p.Name,
		})
	}
	return writeCSV(path, rows)
}

// WriteLeadershipCSV writes the top sector of each date that has one
func (r *DefaultCSVReporter) WriteLeadershipCSV(series sector.LeadershipSeries, path string) error {
	rows := [][]string{{"date", "sector_code", "sector_name", "rs"}}
	for _, l := range series.Tops() {
		top := l.Leaders[0]
		rows = append(rows, []string{l.Date.Format(time.DateOnly), top.Code, top.Name, formatFloat(top.RS)})
	}
	return writeCSV(path, rows)
}

func writeCSV(path string, rows [][]string) error {
	if err := EnsureDirectoryExists(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
