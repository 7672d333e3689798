// api/metrics/metrics.go

// Package metrics exposes Prometheus metrics for the authorization engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	Namespace = "warden"

	SubsystemAuthz = "authz"
	SubsystemStore = "policy_store"
)

var (
	// AuthzDecisionsTotal counts authorization decisions by outcome.
	AuthzDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemAuthz,
			Name:      "decisions_total",
			Help:      "Total number of authorization decisions",
		},
		[]string{"decision"},
	)

	// AuthzErrorsTotal counts evaluations that failed before a decision
	// could be made. These are operational incidents, not denials.
	AuthzErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemAuthz,
			Name:      "errors_total",
			Help:      "Total number of authorization evaluations that errored",
		},
		[]string{"kind"},
	)

	// PolicyRefreshTotal counts policy cache refresh attempts by result.
	PolicyRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemStore,
			Name:      "refresh_total",
			Help:      "Total number of policy cache refresh attempts",
		},
		[]string{"result"},
	)

	// PolicyRefreshDuration measures backing store query latency.
	PolicyRefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: SubsystemStore,
			Name:      "refresh_duration_seconds",
			Help:      "Policy refresh duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	// CachedPolicies tracks the size of the current policy snapshot.
	CachedPolicies = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: SubsystemStore,
			Name:      "cached_policies",
			Help:      "Number of role policies in the current cache snapshot",
		},
	)
)

// Decision label values.
const (
	DecisionAllow = "allow"
	DecisionDeny  = "deny"
)

// Refresh result label values.
const (
	RefreshSuccess     = "success"
	RefreshFailure     = "failure"
	RefreshStaleServed = "stale_served"
)
