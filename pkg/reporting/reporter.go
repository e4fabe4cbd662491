package reporting

import (
	"io"
	"path/filepath"

	"github.com/ducminhle1904/sector-rotation/internal/backtest"
	"github.com/ducminhle1904/sector-rotation/internal/sector"
)

// DefaultReporter implements the console and file reporters
type DefaultReporter struct {
	console *DefaultConsoleReporter
	csv     *DefaultCSVReporter
	excel   *DefaultExcelReporter
}

var (
	_ ConsoleReporter = (*DefaultReporter)(nil)
	_ FileReporter    = (*DefaultReporter)(nil)
)

// NewDefaultReporter creates a new default reporter with all functionality
func NewDefaultReporter() *DefaultReporter {
	return &DefaultReporter{
		console: NewDefaultConsoleReporter(),
		csv:     NewDefaultCSVReporter(),
		excel:   NewDefaultExcelReporter(),
	}
}

func (r *DefaultReporter) OutputResults(w io.Writer, results *backtest.Results) {
	r.console.OutputResults(w, results)
}

func (r *DefaultReporter) OutputLeadership(w io.Writer, series sector.LeadershipSeries) {
	r.console.OutputLeadership(w, series)
}

func (r *DefaultReporter) WriteTradesCSV(results *backtest.Results, path string) error {
	return r.csv.WriteTradesCSV(results, path)
}

func (r *DefaultReporter) WriteEquityCSV(results *backtest.Results, path string) error {
	return r.csv.WriteEquityCSV(results, path)
}

func (r *DefaultReporter) WriteLeadershipCSV(series sector.LeadershipSeries, path string) error {
	return r.csv.WriteLeadershipCSV(series, path)
}

func (r *DefaultReporter) WriteResultsXLSX(results *backtest.Results, path string) error {
	return r.excel.WriteResultsXLSX(results, path)
}

func (r *DefaultReporter) WriteSummaryJSON(results *backtest.Results, path string) error {
	return WriteSummaryJSON(results, path)
}

// ReportingManager provides a high-level interface for all reporting needs
type ReportingManager struct {
	reporter *DefaultReporter
	config   ReportingConfig
	out      io.Writer
}

// NewReportingManager creates a new reporting manager printing to out
func NewReportingManager(config ReportingConfig, out io.Writer) *ReportingManager {
	return &ReportingManager{
		reporter: NewDefaultReporter(),
		config:   config,
		out:      out,
	}
}

// ReportResults prints and writes results according to configuration. It returns the paths of
// the files written.
func (m *ReportingManager) ReportResults(results *backtest.Results) ([]string, error) {
	if m.config.EnableConsole {
		m.reporter.OutputResults(m.out, results)
	}
	if m.config.OutputDirectory == "" {
		return nil, nil
	}

	dir := RunDir(m.config.OutputDirectory, results.Config.Start, results.Config.End)
	var written []string
	write := func(name string, fn func(string) error) error {
		path := filepath.Join(dir, name)
		if err := fn(path); err != nil {
			return err
		}
		written = append(written, path)
		return nil
	}

	if m.config.CSVEnabled {
		if err := write("trades.csv", func(p string) error { return m.reporter.WriteTradesCSV(results, p) }); err != nil {
			return written, err
		}
		if err := write("equity.csv", func(p string) error { return m.reporter.WriteEquityCSV(results, p) }); err != nil {
			return written, err
		}
		if err := write("leadership.csv", func(p string) error { return m.reporter.WriteLeadershipCSV(results.Leadership, p) }); err != nil {
			return written, err
		}
	}
	if m.config.ExcelEnabled {
		if err := write("results.xlsx", func(p string) error { return m.reporter.WriteResultsXLSX(results, p) }); err != nil {
			return written, err
		}
	}
	if m.config.JSONEnabled {
		if err := write("summary.json", func(p string) error { return m.reporter.WriteSummaryJSON(results, p) }); err != nil {
			return written, err
		}
	}
	return written, nil
}

// ReportLeadership prints the leadership series and writes it as CSV to path when set
func (m *ReportingManager) ReportLeadership(series sector.LeadershipSeries, path string) error {
	if m.config.EnableConsole {
		m.reporter.OutputLeadership(m.out, series)
	}
	if path == "" {
		return nil
	}
	return m.reporter.WriteLeadershipCSV(series, path)
}
