package reporting

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ducminhle1904/sector-rotation/internal/backtest"
)

const (
	summarySheet    = "Summary"
	tradesSheet     = "Trades"
	equitySheet     = "Equity"
	leadershipSheet = "Leadership"
)

// DefaultExcelReporter implements Excel output functionality
type DefaultExcelReporter struct{}

// NewDefaultExcelReporter creates a new Excel reporter
func NewDefaultExcelReporter() *DefaultExcelReporter {
	return &DefaultExcelReporter{}
}

// WriteResultsXLSX writes summary, trades, equity and leadership sheets to one workbook
func (r *DefaultExcelReporter) WriteResultsXLSX(results *backtest.Results, path string) error {
	if err := EnsureDirectoryExists(path); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	fx := excelize.NewFile()
	defer fx.Close()

	if err := fx.SetSheetName(fx.GetSheetName(0), summarySheet); err != nil {
		return err
	}
	for _, name := range []string{tradesSheet, equitySheet, leadershipSheet} {
		if _, err := fx.NewSheet(name); err != nil {
			return err
		}
	}

	styles, err := r.createExcelStyles(fx)
	if err != nil {
		return err
	}

	if err := r.writeSummarySheet(fx, results, styles); err != nil {
		return err
	}
	if err := r.writeTradesSheet(fx, results, styles); err != nil {
		return err
	}
	if err := r.writeEquitySheet(fx, results, styles); err != nil {
		return err
	}
	if err := r.writeLeadershipSheet(fx, results, styles); err != nil {
		return err
	}

	return fx.SaveAs(path)
}

func (r *DefaultExcelReporter) createExcelStyles(fx *excelize.File) (ExcelStyles, error) {
	var styles ExcelStyles
	var err error

	border := []excelize.Border{
		{Type: "left", Color: "E0E0E0", Style: 1},
		{Type: "right", Color: "E0E0E0", Style: 1},
		{Type: "bottom", Color: "E0E0E0", Style: 1},
	}

	styles.HeaderStyle, err = fx.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF", Family: "Calibri"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"2F4F4F"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return styles, err
	}

	// thousands separator, no decimals
	styles.CurrencyStyle, err = fx.NewStyle(&excelize.Style{
		NumFmt:    3,
		Alignment: &excelize.Alignment{Horizontal: "right"},
		Border:    border,
	})
	if err != nil {
		return styles, err
	}

	styles.PercentStyle, err = fx.NewStyle(&excelize.Style{
		NumFmt:    10,
		Alignment: &excelize.Alignment{Horizontal: "right"},
		Border:    border,
	})
	if err != nil {
		return styles, err
	}

	styles.RedPercentStyle, err = fx.NewStyle(&excelize.Style{
		NumFmt:    10,
		Font:      &excelize.Font{Color: "C00000"},
		Alignment: &excelize.Alignment{Horizontal: "right"},
		Border:    border,
	})
	if err != nil {
		return styles, err
	}

	styles.GreenPercentStyle, err = fx.NewStyle(&excelize.Style{
		NumFmt:    10,
		Font:      &excelize.Font{Color: "007A33"},
		Alignment: &excelize.Alignment{Horizontal: "right"},
		Border:    border,
	})
	if err != nil {
		return styles, err
	}

	styles.BaseStyle, err = fx.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "left"},
		Border:    border,
	})
	if err != nil {
		return styles, err
	}

	styles.DateStyle, err = fx.NewStyle(&excelize.Style{
		CustomNumFmt: ptr("yyyy-mm-dd"),
		Alignment:    &excelize.Alignment{Horizontal: "center"},
		Border:       border,
	})
	return styles, err
}

func ptr[T any](v T) *T { return &v }

// writeRow writes values from column A of row, applying one style per value.
func writeRow(fx *excelize.File, sheet string, row int, values []any, styleIDs []int) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := fx.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
		if i < len(styleIDs) && styleIDs[i] != 0 {
			if err := fx.SetCellStyle(sheet, cell, cell, styleIDs[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeHeader(fx *excelize.File, sheet string, headers []string, styles ExcelStyles) error {
	values := make([]any, len(headers))
	ids := make([]int, len(headers))
	for i, h := range headers {
		values[i] = h
		ids[i] = styles.HeaderStyle
	}
	if err := writeRow(fx, sheet, 1, values, ids); err != nil {
		return err
	}
	last, _ := excelize.ColumnNumberToName(len(headers))
	if err := fx.SetColWidth(sheet, "A", last, 15); err != nil {
		return err
	}
	return fx.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

func (r *DefaultExcelReporter) writeSummarySheet(fx *excelize.File, results *backtest.Results, styles ExcelStyles) error {
	s := results.Summary
	if err := writeHeader(fx, summarySheet, []string{"Metric", "Value"}, styles); err != nil {
		return err
	}
	if err := fx.SetColWidth(summarySheet, "A", "A", 24); err != nil {
		return err
	}

	rows := []struct {
		label string
		value any
		style int
	}{
		{"Start", results.Config.Start.Format(time.DateOnly), styles.BaseStyle},
		{"End", results.Config.End.Format(time.DateOnly), styles.BaseStyle},
		{"Parameters", results.Params.String(), styles.BaseStyle},
		{"Initial Capital", s.InitialCapital, styles.CurrencyStyle},
		{"Final Equity", s.FinalEquity, styles.CurrencyStyle},
		{"Cumulative Return", s.CumulativeReturn, signedPercent(s.CumulativeReturn, styles)},
		{"Benchmark Return", results.BenchmarkReturn, signedPercent(results.BenchmarkReturn, styles)},
		{"Total Trades", s.TotalTrades, styles.BaseStyle},
		{"Win Rate", s.WinRate, styles.PercentStyle},
		{"Avg Net Return", s.AvgNetReturn, signedPercent(s.AvgNetReturn, styles)},
		{"Avg Holding Days", s.AvgHoldingDays, styles.BaseStyle},
		{"Max Drawdown", s.MaxDrawdown, styles.RedPercentStyle},
		{"Sharpe Ratio", s.SharpeRatio, styles.BaseStyle},
	}
	for i, row := range rows {
		if err := writeRow(fx, summarySheet, i+2, []any{row.label, row.value}, []int{styles.BaseStyle, row.style}); err != nil {
			return err
		}
	}
	if s.NoTrades {
		return writeRow(fx, summarySheet, len(rows)+3, []any{NoTradesMessage}, []int{styles.BaseStyle})
	}
	return nil
}

func (r *DefaultExcelReporter) writeTradesSheet(fx *excelize.File, results *backtest.Results, styles ExcelStyles) error {
	headers := []string{"Ticker", "Name", "Sector", "Entry Date", "Entry Price", "Exit Date", "Exit Price", "Days", "Net Return", "Reason"}
	if err := writeHeader(fx, tradesSheet, headers, styles); err != nil {
		return err
	}
	for i, t := range results.Trades {
		values := []any{t.Ticker, t.Name, t.SectorName, t.EntryDate, t.EntryPrice, t.ExitDate, t.ExitPrice, t.HoldingDays, t.NetReturn, string(t.ExitReason)}
		ids := []int{
			styles.BaseStyle, styles.BaseStyle, styles.BaseStyle,
			styles.DateStyle, styles.CurrencyStyle, styles.DateStyle, styles.CurrencyStyle,
			styles.BaseStyle, signedPercent(t.NetReturn, styles), styles.BaseStyle,
		}
		if err := writeRow(fx, tradesSheet, i+2, values, ids); err != nil {
			return err
		}
	}
	return nil
}

func (r *DefaultExcelReporter) writeEquitySheet(fx *excelize.File, results *backtest.Results, styles ExcelStyles) error {
	if err := writeHeader(fx, equitySheet, []string{"Date", "Equity", "State", "Event", "Ticker", "Name"}, styles); err != nil {
		return err
	}
	for i, p := range results.Equity {
		values := []any{p.Date, p.Equity, p.State.String(), string(p.Event), p.Ticker, p.Name}
		ids := []int{styles.DateStyle, styles.CurrencyStyle, styles.BaseStyle, styles.BaseStyle, styles.BaseStyle, styles.BaseStyle}
		if err := writeRow(fx, equitySheet, i+2, values, ids); err != nil {
			return err
		}
	}
	return nil
}

func (r *DefaultExcelReporter) writeLeadershipSheet(fx *excelize.File, results *backtest.Results, styles ExcelStyles) error {
	if err := writeHeader(fx, leadershipSheet, []string{"Date", "Sector Code", "Sector", "RS"}, styles); err != nil {
		return err
	}
	for i, l := range results.Leadership.Tops() {
		top := l.Leaders[0]
		values := []any{l.Date, top.Code, top.Name, top.RS}
		ids := []int{styles.DateStyle, styles.BaseStyle, styles.BaseStyle, styles.BaseStyle}
		if err := writeRow(fx, leadershipSheet, i+2, values, ids); err != nil {
			return err
		}
	}
	return nil
}

func signedPercent(v float64, styles ExcelStyles) int {
	if v < 0 {
		return styles.RedPercentStyle
	}
	return styles.GreenPercentStyle
}
