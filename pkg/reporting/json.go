package reporting

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ducminhle1904/sector-rotation/internal/backtest"
	"github.com/ducminhle1904/sector-rotation/internal/indicators"
)

// SummaryDocument is the JSON form of a finished run.
type SummaryDocument struct {
	Start           string            `json:"start"`
	End             string            `json:"end"`
	Params          indicators.Params `json:"params"`
	RSIThreshold    float64           `json:"rsi_threshold"`
	TrailingStopPct float64           `json:"trailing_stop_pct"`
	FeeRate         float64           `json:"fee_rate"`
	MinHoldingDays  int               `json:"min_holding_days"`
	Summary         backtest.Summary  `json:"summary"`
	BenchmarkReturn float64           `json:"benchmark_return"`
	Trades          []backtest.Trade  `json:"trades"`
	Skipped         int               `json:"skipped_evaluations"`
}

// NewSummaryDocument builds the JSON document of results
func NewSummaryDocument(results *backtest.Results) SummaryDocument {
	doc := SummaryDocument{
		Start:           results.Config.Start.Format(time.DateOnly),
		End:             results.Config.End.Format(time.DateOnly),
		Params:          results.Params,
		RSIThreshold:    results.Config.RSIThreshold,
		TrailingStopPct: results.Config.TrailingStopPct,
		FeeRate:         results.Config.FeeRate,
		MinHoldingDays:  results.Config.MinHoldingDays,
		Summary:         results.Summary,
		BenchmarkReturn: results.BenchmarkReturn,
		Trades:          results.Trades,
	}
	if doc.Trades == nil {
		doc.Trades = []backtest.Trade{}
	}
	if results.Anomalies != nil {
		doc.Skipped = results.Anomalies.Total
	}
	return doc
}

// WriteSummaryJSON writes the run summary document to path
func WriteSummaryJSON(results *backtest.Results, path string) error {
	if err := EnsureDirectoryExists(path); err != nil {
		return err
	}
	data, err := json.MarshalIndent(NewSummaryDocument(results), "", "  ")
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
