package reporting

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ducminhle1904/sector-rotation/internal/backtest"
	"github.com/ducminhle1904/sector-rotation/internal/sector"
)

// NoTradesMessage is printed in place of the trade table when nothing traded
const NoTradesMessage = "No qualifying trades in the window."

// DefaultConsoleReporter implements console output functionality
type DefaultConsoleReporter struct{}

// NewDefaultConsoleReporter creates a new console reporter
func NewDefaultConsoleReporter() *DefaultConsoleReporter {
	return &DefaultConsoleReporter{}
}

// OutputResults prints the summary and trade tables
func (r *DefaultConsoleReporter) OutputResults(w io.Writer, results *backtest.Results) {
	fmt.Fprintln(w, "\n"+strings.Repeat("=", 50))
	fmt.Fprintln(w, "📊 SECTOR ROTATION BACKTEST")
	fmt.Fprintln(w, strings.Repeat("=", 50))

	s := results.Summary
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendRows([]table.Row{
		{"Window", fmt.Sprintf("%s → %s", results.Config.Start.Format(time.DateOnly), results.Config.End.Format(time.DateOnly))},
		{"Parameters", results.Params.String()},
		{"Initial Capital", Money(s.InitialCapital)},
		{"Final Equity", Money(s.FinalEquity)},
		{"Cumulative Return", Percent(s.CumulativeReturn)},
		{"Benchmark Return", Percent(results.BenchmarkReturn)},
		{"Total Trades", s.TotalTrades},
		{"Win Rate", Percent(s.WinRate)},
		{"Avg Net Return", Percent(s.AvgNetReturn)},
		{"Avg Holding Days", fmt.Sprintf("%.1f", s.AvgHoldingDays)},
		{"Max Drawdown", Percent(s.MaxDrawdown)},
		{"Sharpe Ratio", Ratio(s.SharpeRatio)},
	})
	if results.Anomalies != nil && results.Anomalies.Total > 0 {
		t.AppendRow(table.Row{"Skipped Evaluations", results.Anomalies.Total})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 18, Align: text.AlignLeft},
		{Number: 2, WidthMin: 20, Align: text.AlignRight},
	})
	t.Render()

	if s.NoTrades || len(results.Trades) == 0 {
		fmt.Fprintln(w, NoTradesMessage)
		return
	}

	trades := table.NewWriter()
	trades.SetOutputMirror(w)
	trades.SetStyle(table.StyleRounded)
	trades.AppendHeader(table.Row{"#", "Ticker", "Name", "Sector", "Entry", "Exit", "Entry Price", "Exit Price", "Days", "Net Return", "Reason"})
	for i, tr := range results.Trades {
		trades.AppendRow(table.Row{
			i + 1,
			tr.Ticker,
			tr.Name,
			tr.SectorName,
			tr.EntryDate.Format(time.DateOnly),
			tr.ExitDate.Format(time.DateOnly),
			Price(tr.EntryPrice),
			Price(tr.ExitPrice),
			tr.HoldingDays,
			Percent(tr.NetReturn),
			string(tr.ExitReason),
		})
	}
	trades.SetColumnConfigs([]table.ColumnConfig{
		{Number: 7, Align: text.AlignRight},
		{Number: 8, Align: text.AlignRight},
		{Number: 10, Align: text.AlignRight},
	})
	trades.Render()
}

// OutputLeadership prints the top sector of each date
func (r *DefaultConsoleReporter) OutputLeadership(w io.Writer, series sector.LeadershipSeries) {
	tops := series.Tops()
	if len(tops) == 0 {
		fmt.Fprintln(w, "No leading sector on any date.")
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Footer = text.FormatDefault
	t.AppendHeader(table.Row{"Date", "Code", "Sector", "RS"})
	for _, l := range tops {
		top := l.Leaders[0]
		t.AppendRow(table.Row{l.Date.Format(time.DateOnly), top.Code, top.Name, Ratio(top.RS)})
	}
	t.AppendFooter(table.Row{"", "", fmt.Sprintf("%d of %d dates", len(tops), len(series)), ""})
	t.Render()
}

// OutputConsole prints results to w with the default reporter
func OutputConsole(w io.Writer, results *backtest.Results) {
	NewDefaultConsoleReporter().OutputResults(w, results)
}
