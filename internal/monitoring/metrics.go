// Package monitoring exposes run telemetry as Prometheus metrics.
package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ducminhle1904/sector-rotation/internal/backtest"
	"github.com/ducminhle1904/sector-rotation/internal/errors"
	"github.com/ducminhle1904/sector-rotation/internal/indicators"
)

const namespace = "rotation"

// Metrics implements backtest.Recorder on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	tradesTotal  *prometheus.CounterVec
	tradeReturn  prometheus.Histogram
	skipsTotal   *prometheus.CounterVec
	daysTotal    prometheus.Counter
	equity       prometheus.Gauge
	holding      prometheus.Gauge
	leaderDates  *prometheus.CounterVec
	cacheEntries *prometheus.GaugeVec
	lastRun      prometheus.Gauge
}

var _ backtest.Recorder = (*Metrics)(nil)

// NewMetrics creates and registers the run metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		tradesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "trades_total",
				Help:      "Closed round trips by exit reason",
			},
			[]string{"reason"},
		),
		tradeReturn: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "trade_net_return",
				Help:      "Distribution of net round-trip returns",
				Buckets:   []float64{-0.2, -0.1, -0.05, -0.02, 0, 0.02, 0.05, 0.1, 0.2, 0.5},
			},
		),
		skipsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "skips_total",
				Help:      "Instrument evaluations skipped by error kind",
			},
			[]string{"kind"},
		),
		daysTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "days_simulated_total",
			Help:      "Trading days stepped through",
		}),
		equity: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "equity",
			Help:      "Realized account value at the last simulated close",
		}),
		holding: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "holding",
			Help:      "1 while a position is open",
		}),
		leaderDates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "leadership_dates_total",
				Help:      "Leadership records produced, by whether a leader was found",
			},
			[]string{"found"},
		),
		cacheEntries: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "frame_cache",
				Help:      "Indicator frame cache counters",
			},
			[]string{"stat"},
		),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished",
		}),
	}

	m.registry.MustRegister(
		m.tradesTotal,
		m.tradeReturn,
		m.skipsTotal,
		m.daysTotal,
		m.equity,
		m.holding,
		m.leaderDates,
		m.cacheEntries,
		m.lastRun,
	)
	return m
}

// Registry returns the registry the metrics live on
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordDay implements backtest.Recorder
func (m *Metrics) RecordDay(_ time.Time, equity float64, state backtest.State) {
	m.daysTotal.Inc()
	m.equity.Set(equity)
	if state == backtest.StateHolding {
		m.holding.Set(1)
	} else {
		m.holding.Set(0)
	}
}

// RecordTrade implements backtest.Recorder
func (m *Metrics) RecordTrade(trade backtest.Trade) {
	m.tradesTotal.WithLabelValues(string(trade.ExitReason)).Inc()
	m.tradeReturn.Observe(trade.NetReturn)
}

// RecordSkip implements backtest.Recorder
func (m *Metrics) RecordSkip(kind errors.Kind) {
	m.skipsTotal.WithLabelValues(string(kind)).Inc()
}

// RecordLeadership counts one leadership record
func (m *Metrics) RecordLeadership(found bool) {
	if found {
		m.leaderDates.WithLabelValues("true").Inc()
	} else {
		m.leaderDates.WithLabelValues("false").Inc()
	}
}

// UpdateCache publishes frame cache counters
func (m *Metrics) UpdateCache(stats indicators.CacheStats) {
	m.cacheEntries.WithLabelValues("hits").Set(float64(stats.Hits))
	m.cacheEntries.WithLabelValues("misses").Set(float64(stats.Misses))
	m.cacheEntries.WithLabelValues("evictions").Set(float64(stats.Evictions))
	m.cacheEntries.WithLabelValues("size").Set(float64(stats.Size))
}

// MarkRun stamps the completion time of a run
func (m *Metrics) MarkRun(at time.Time) {
	m.lastRun.Set(float64(at.Unix()))
}
