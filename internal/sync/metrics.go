package sync

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PropagationsTotal counts index propagation attempts by event kind and outcome.
	PropagationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_sync_propagations_total",
			Help: "Total number of catalog-to-index propagation attempts",
		},
		[]string{"kind", "outcome"},
	)

	// PropagationDuration observes the duration of single propagation calls.
	PropagationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_sync_propagation_duration_seconds",
			Help:    "Duration of catalog-to-index propagation calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	// ReconcileRunsTotal counts reconciliation runs by outcome.
	ReconcileRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_sync_reconcile_runs_total",
			Help: "Total number of reconciliation runs",
		},
		[]string{"outcome"},
	)

	// ReconcileProducts counts products handled during reconciliation by outcome.
	ReconcileProducts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_sync_reconcile_products_total",
			Help: "Total number of products re-indexed during reconciliation",
		},
		[]string{"outcome"},
	)
)
