package metrics

import (
	"net/http"

	"catalog-sync/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the sync collectors on a private prometheus registry.
// A nil *Registry is valid and records nothing.
type Registry struct {
	reg         *prometheus.Registry
	Cycles      *prometheus.CounterVec
	Items       *prometheus.CounterVec
	CycleSec    prometheus.Histogram
	LastSuccess prometheus.Gauge
}

func New() *Registry {
	r := prometheus.NewRegistry()
	cycles := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_sync_cycles_total",
		Help: "Sync cycles by result.",
	}, []string{"result"})
	items := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_sync_items_total",
		Help: "Source items processed by outcome.",
	}, []string{"outcome"})
	cycleSec := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_sync_cycle_duration_seconds",
		Help:    "Wall time of one sync cycle.",
		Buckets: prometheus.DefBuckets,
	})
	lastSuccess := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_sync_last_success_timestamp_seconds",
		Help: "Unix time of the last cycle that ran to completion.",
	})

	r.MustRegister(cycles, items, cycleSec, lastSuccess)
	return &Registry{
		reg:         r,
		Cycles:      cycles,
		Items:       items,
		CycleSec:    cycleSec,
		LastSuccess: lastSuccess,
	}
}

// ObserveCycle records one finished cycle.
func (r *Registry) ObserveCycle(outcome domain.SyncOutcome) {
	if r == nil {
		return
	}

	result := "ok"
	if outcome.Fault != domain.FaultNone {
		result = string(outcome.Fault)
	}
	r.Cycles.WithLabelValues(result).Inc()
	r.Items.WithLabelValues("inserted").Add(float64(outcome.Inserted))
	r.Items.WithLabelValues("updated").Add(float64(outcome.Updated))
	r.Items.WithLabelValues("failed").Add(float64(outcome.Failed))
	r.CycleSec.Observe(outcome.Duration.Seconds())

	if outcome.Fault == domain.FaultNone {
		r.LastSuccess.Set(float64(outcome.StartedAt.Add(outcome.Duration).Unix()))
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
