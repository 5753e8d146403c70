// Package observability holds the lending engine's Prometheus collectors:
// a small generic request/latency/error group for every engine operation,
// plus gauges and counters specific to the lending domain (utilisation,
// borrow rate, liquidations, pending fee shares).
package observability

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// EngineMetrics is the generic request/latency/error collector group for
// CoreEngine operations.
type EngineMetrics struct {
	requests *prometheus.CounterVec
	errors   *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

var (
	engineMetricsOnce sync.Once
	engineRegistry    *EngineMetrics

	lendingMetricsOnce sync.Once
	lendingRegistry    *LendingMetrics
)

// Engine returns the lazily-initialised registry used to record
// CoreEngine operation activity: one counter/histogram observation per
// call into a mutating or read-only Engine method.
func Engine() *EngineMetrics {
	engineMetricsOnce.Do(func() {
		engineRegistry = &EngineMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "autara",
				Subsystem: "engine",
				Name:      "requests_total",
				Help:      "Total lending engine operations segmented by method and outcome.",
			}, []string{"method", "outcome"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "autara",
				Subsystem: "engine",
				Name:      "errors_total",
				Help:      "Total lending engine errors segmented by method and error kind.",
			}, []string{"method", "kind"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "autara",
				Subsystem: "engine",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for CoreEngine operations.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"method"}),
		}
		prometheus.MustRegister(
			engineRegistry.requests,
			engineRegistry.errors,
			engineRegistry.latency,
		)
	})
	return engineRegistry
}

// Observe records the outcome of a single engine call. kind is the
// lendingerr.Kind name on failure, or "" on success.
func (m *EngineMetrics) Observe(method string, kind string, duration time.Duration) {
	if m == nil {
		return
	}
	method = orUnknown(method)
	outcome := "success"
	if kind != "" {
		outcome = "error"
		m.errors.WithLabelValues(method, kind).Inc()
	}
	m.requests.WithLabelValues(method, outcome).Inc()
	m.latency.WithLabelValues(method).Observe(duration.Seconds())
}

// LendingMetrics bundles the gauges and counters specific to the lending
// domain: one observation of the market's live accounting state after
// every SyncClock, plus a liquidation counter.
type LendingMetrics struct {
	utilisation     *prometheus.GaugeVec
	borrowRate      *prometheus.GaugeVec
	liquidations    *prometheus.CounterVec
	pendingFeeShare *prometheus.GaugeVec
}

// Lending returns the lazily-initialised lending-domain metrics registry.
func Lending() *LendingMetrics {
	lendingMetricsOnce.Do(func() {
		lendingRegistry = &LendingMetrics{
			utilisation: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "autara",
				Subsystem: "market",
				Name:      "utilisation",
				Help:      "Current borrow/supply utilisation ratio (0-1) per market.",
			}, []string{"market"}),
			borrowRate: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "autara",
				Name:      "borrow_rate_per_second",
				Help:      "Most recently computed per-second borrow rate per market.",
			}, []string{"market"}),
			liquidations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "autara",
				Name:      "liquidations_total",
				Help:      "Count of completed liquidations segmented by market and whether bad debt was realised.",
			}, []string{"market", "outcome"}),
			pendingFeeShare: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "autara",
				Name:      "pending_fee_shares",
				Help:      "Pending protocol/curator fee shares awaiting redemption, per market.",
			}, []string{"market", "receiver"}),
		}
		prometheus.MustRegister(
			lendingRegistry.utilisation,
			lendingRegistry.borrowRate,
			lendingRegistry.liquidations,
			lendingRegistry.pendingFeeShare,
		)
	})
	return lendingRegistry
}

// RecordMarketState updates the per-market gauges from a market's live
// accounting. Called after every operation that runs SyncClock, so the
// gauges track the most recently synced state rather than going stale
// between liquidations.
func (m *LendingMetrics) RecordMarketState(market string, utilisation, borrowRatePerSecond float64, pendingProtocolShares, pendingCuratorShares float64) {
	if m == nil {
		return
	}
	market = orUnknown(market)
	m.utilisation.WithLabelValues(market).Set(utilisation)
	m.borrowRate.WithLabelValues(market).Set(borrowRatePerSecond)
	m.pendingFeeShare.WithLabelValues(market, "protocol").Set(pendingProtocolShares)
	m.pendingFeeShare.WithLabelValues(market, "curator").Set(pendingCuratorShares)
}

// RecordLiquidation increments the liquidation counter for market,
// labelling the outcome "bad_debt" when the position's LTV was at or
// above 1 (zero bonus, full collateral seized) and "partial" otherwise.
func (m *LendingMetrics) RecordLiquidation(market string, badDebt bool) {
	if m == nil {
		return
	}
	outcome := "partial"
	if badDebt {
		outcome = "bad_debt"
	}
	m.liquidations.WithLabelValues(orUnknown(market), outcome).Inc()
}

func orUnknown(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "unknown"
	}
	return s
}
