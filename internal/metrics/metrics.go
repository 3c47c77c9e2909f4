// Package metrics defines the Prometheus collectors of the marketplace.
// All collectors register with the default registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "buysell"

// ProductsCreatedTotal counts products created by suppliers, by category.
var ProductsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "products_created_total",
		Help:      "Total number of products created, by category.",
	},
	[]string{"category"},
)

// LifecycleTransitionsTotal counts lifecycle operations by outcome.
// Labels:
//   - operation: archive, restore, assign_seller, buy, update
//   - result: ok, conflict, not_found, denied, error
var LifecycleTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lifecycle_transitions_total",
		Help:      "Total number of product lifecycle operations, by operation and result.",
	},
	[]string{"operation", "result"},
)

// PurchasedValueTotal sums the final (seller) cost of bought products.
var PurchasedValueTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "purchased_value_total",
		Help:      "Sum of seller cost over all purchased products.",
	},
)

// IncomeReportsTotal counts computed income reports, by role.
var IncomeReportsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "income_reports_total",
		Help:      "Total number of income reports computed, by requesting role.",
	},
	[]string{"role"},
)

// HTTPRequestDuration measures request latency.
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests, by method, route and status code.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route", "status"},
)

// SessionsTotal counts session events. Expired sessions leave Redis on
// their own and are never counted as closed.
var SessionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_total",
		Help:      "Login sessions by event: opened, logout, revoked (account deletion).",
	},
	[]string{"event"},
)
