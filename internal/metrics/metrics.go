// Package metrics exposes level activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vislevel/internal/level"
)

// Metrics counts registry events. It is a level.Hook.
type Metrics struct {
	// Every emitted event by kind
	Events *prometheus.CounterVec

	// Item visibility deliveries by level and direction
	ItemTransitions *prometheus.CounterVec

	// Level show/hide transitions by level and direction
	LevelTransitions *prometheus.CounterVec

	// Live levels in the registry
	Levels prometheus.Gauge

	// Live items per level
	Items *prometheus.GaugeVec

	gatherer prometheus.Gatherer
}

// New creates a Metrics instance registered with reg. A nil reg uses the
// default Prometheus registry.
func New(reg *prometheus.Registry) *Metrics {
	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if reg != nil {
		registerer, gatherer = reg, reg
	}
	factory := promauto.With(registerer)

	return &Metrics{
		Events: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vislevel_events_total",
			Help: "Total registry events by kind",
		}, []string{"kind"}),

		ItemTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vislevel_item_transitions_total",
			Help: "Item visibility notifications by level and direction",
		}, []string{"level", "visible"}),

		LevelTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vislevel_level_transitions_total",
			Help: "Level visibility changes by level and direction",
		}, []string{"level", "visible"}),

		Levels: factory.NewGauge(prometheus.GaugeOpts{
			Name: "vislevel_levels",
			Help: "Levels currently held by the registry",
		}),

		Items: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "vislevel_items",
			Help: "Items currently held per level",
		}, []string{"level"}),

		gatherer: gatherer,
	}
}

// OnEvent implements level.Hook.
func (m *Metrics) OnEvent(ev level.Event) {
	if m == nil {
		return
	}
	m.Events.WithLabelValues(string(ev.Kind)).Inc()

	switch ev.Kind {
	case level.EventLevelCreated:
		m.Levels.Inc()
	case level.EventItemCreated:
		m.Items.WithLabelValues(ev.Level).Inc()
	case level.EventItemRemoved:
		m.Items.WithLabelValues(ev.Level).Dec()
	case level.EventItemsCleared:
		m.Items.WithLabelValues(ev.Level).Set(0)
	case level.EventRegistryCleared:
		m.Levels.Set(0)
		m.Items.Reset()
	case level.EventItemVisibility:
		m.ItemTransitions.WithLabelValues(ev.Level, strconv.FormatBool(ev.Visible)).Inc()
	case level.EventLevelVisibility:
		m.LevelTransitions.WithLabelValues(ev.Level, strconv.FormatBool(ev.Visible)).Inc()
	}
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
