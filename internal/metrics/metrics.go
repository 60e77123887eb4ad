package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the fetch and poll path.
// It is passed explicitly to the components that record into it; a nil
// *Metrics is valid and records nothing.
type Metrics struct {
	fetchDuration   prometheus.Histogram
	fetchErrors     *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	ticks           *prometheus.CounterVec
	newTransactions prometheus.Counter
	heldTxs         prometheus.Gauge
}

// Tick outcomes, used as the "outcome" label.
const (
	OutcomeUpdated   = "updated"
	OutcomeUnchanged = "unchanged"
	OutcomeFailed    = "failed"
	OutcomeSkipped   = "skipped"
)

// New creates a Metrics instance and registers all collectors.
// If registry is nil, prometheus.DefaultRegisterer is used.
func New(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Metrics{
		fetchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "txdash_fetch_duration_seconds",
			Help:    "Duration of explorer txlist calls in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		}),
		fetchErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "txdash_fetch_errors_total",
			Help: "Explorer fetch failures by kind (network, api)",
		}, []string{"kind"}),
		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "txdash_cache_lookups_total",
			Help: "Fetch cache lookups by result (hit, miss)",
		}, []string{"result"}),
		ticks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "txdash_ticks_total",
			Help: "Poll ticks by outcome",
		}, []string{"outcome"}),
		newTransactions: factory.NewCounter(prometheus.CounterOpts{
			Name: "txdash_new_transactions_total",
			Help: "Previously unseen transactions detected while polling",
		}),
		heldTxs: factory.NewGauge(prometheus.GaugeOpts{
			Name: "txdash_held_transactions",
			Help: "Number of transactions currently held in session state",
		}),
	}
}

// ObserveFetch records one explorer call. kind is empty on success.
func (m *Metrics) ObserveFetch(d time.Duration, kind string) {
	if m == nil {
		return
	}
	m.fetchDuration.Observe(d.Seconds())
	if kind != "" {
		m.fetchErrors.WithLabelValues(kind).Inc()
	}
}

// ObserveCache records a cache hit or miss.
func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// ObserveTick records the outcome of one poll cycle.
func (m *Metrics) ObserveTick(outcome string) {
	if m == nil {
		return
	}
	m.ticks.WithLabelValues(outcome).Inc()
}

// AddNewTransactions counts newly detected hashes.
func (m *Metrics) AddNewTransactions(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.newTransactions.Add(float64(n))
}

// SetHeld sets the held-transactions gauge.
func (m *Metrics) SetHeld(n int) {
	if m == nil {
		return
	}
	m.heldTxs.Set(float64(n))
}
