package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type eventMetrics struct {
	events *prometheus.CounterVec
}

var (
	eventMetricsOnce sync.Once
	eventRegistry    *eventMetrics
)

// Events returns the metrics registry tracking emitted lending.Event
// values (supply, withdraw, borrow, repay, liquidate, socialize_loss,
// donate), segmented by market and event kind.
func Events() *eventMetrics {
	eventMetricsOnce.Do(func() {
		eventRegistry = &eventMetrics{
			events: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "autara",
				Subsystem: "events",
				Name:      "total",
				Help:      "Count of lending events emitted, segmented by market and event kind.",
			}, []string{"market", "kind"}),
		}
		prometheus.MustRegister(eventRegistry.events)
	})
	return eventRegistry
}

// RecordEvent increments the event counter for the supplied market and
// event kind (the lending.EventKind.String() rendering).
func (m *eventMetrics) RecordEvent(market, kind string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(orUnknown(market), orUnknown(kind)).Inc()
}
