// Package metrics exposes prometheus counters for the storage browser
// engine. A dedicated registry keeps the /metrics surface free of
// unrelated collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics bundles the engine's collectors.
type Metrics struct {
	Registry *prometheus.Registry

	// NavigationsTotal counts finished navigations by result:
	// success, error, cancelled, superseded.
	NavigationsTotal *prometheus.CounterVec

	// CoalescedTotal counts navigations served from an in-flight load.
	CoalescedTotal prometheus.Counter

	// RetriesTotal counts automatic navigation retries.
	RetriesTotal prometheus.Counter

	// BulkItemsTotal counts per-item outcomes of bulk operations,
	// labelled by op (download, delete, move) and result.
	BulkItemsTotal *prometheus.CounterVec

	// ImportRowsTotal counts import rows by result (valid, invalid).
	ImportRowsTotal *prometheus.CounterVec
}

// New creates and registers the engine collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		Registry: registry,
		NavigationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hausakte_navigations_total",
			Help: "Finished folder navigations by result.",
		}, []string{"result"}),
		CoalescedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hausakte_navigations_coalesced_total",
			Help: "Navigations served by joining an in-flight load.",
		}),
		RetriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hausakte_navigation_retries_total",
			Help: "Automatic retries of failed folder loads.",
		}),
		BulkItemsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hausakte_bulk_items_total",
			Help: "Per-item results of bulk operations.",
		}, []string{"op", "result"}),
		ImportRowsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hausakte_import_rows_total",
			Help: "Meter reading import rows by validation result.",
		}, []string{"result"}),
	}

	registry.MustRegister(
		m.NavigationsTotal,
		m.CoalescedTotal,
		m.RetriesTotal,
		m.BulkItemsTotal,
		m.ImportRowsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}
