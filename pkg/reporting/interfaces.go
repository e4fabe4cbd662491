// Package reporting renders backtest results to the console and to CSV, XLSX and JSON files.
package reporting

import (
	"io"

	"github.com/ducminhle1904/sector-rotation/internal/backtest"
	"github.com/ducminhle1904/sector-rotation/internal/sector"
)

// ConsoleReporter defines interface for console output
type ConsoleReporter interface {
	OutputResults(w io.Writer, results *backtest.Results)
	OutputLeadership(w io.Writer, series sector.LeadershipSeries)
}

// FileReporter defines interface for file output
type FileReporter interface {
	WriteTradesCSV(results *backtest.Results, path string) error
	WriteEquityCSV(results *backtest.Results, path string) error
	WriteLeadershipCSV(series sector.LeadershipSeries, path string) error
	WriteResultsXLSX(results *backtest.Results, path string) error
	WriteSummaryJSON(results *backtest.Results, path string) error
}

// ExcelStyles holds Excel formatting styles
type ExcelStyles struct {
	HeaderStyle       int
	CurrencyStyle     int
	PercentStyle      int
	BaseStyle         int
	RedPercentStyle   int
	GreenPercentStyle int
	DateStyle         int
}

// ReportingConfig holds configuration for reporting
type ReportingConfig struct {
	EnableConsole   bool
	OutputDirectory string
	CSVEnabled      bool
	ExcelEnabled    bool
	JSONEnabled     bool
}
