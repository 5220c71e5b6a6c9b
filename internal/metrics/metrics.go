// Package metrics defines Prometheus collectors for the access control
// core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Permission resolution metrics
var (
	// PermissionChecksTotal tracks permission checks by action, resource
	// and outcome.
	PermissionChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "permission_checks_total",
			Help: "Total number of permission checks by outcome",
		},
		[]string{"action", "resource", "outcome"},
	)

	// DanglingGroupRefsTotal tracks profiles observed with a broken
	// permission group reference.
	DanglingGroupRefsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dangling_group_refs_total",
			Help: "Total number of permission checks that hit a dangling group reference",
		},
	)
)

// Tenant write guard metrics
var (
	// SecurityViolationsTotal tracks tripwire hits by collection.
	SecurityViolationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "security_violations_total",
			Help: "Total number of cross-tenant write attempts rejected by the guard",
		},
		[]string{"collection", "op"},
	)
)

// Session metrics
var (
	// MasqueradeSessionsActive tracks superadmin sessions currently in
	// simulation.
	MasqueradeSessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "masquerade_sessions_active",
			Help: "Number of sessions currently masquerading",
		},
	)

	// LoginsTotal tracks login attempts by outcome.
	LoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logins_total",
			Help: "Total number of login attempts by outcome",
		},
		[]string{"outcome"},
	)
)

// Invite metrics
var (
	// InvitesConsumedTotal tracks invite consumption attempts by result.
	InvitesConsumedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invites_consumed_total",
			Help: "Total number of invite consumption attempts by result",
		},
		[]string{"result"},
	)

	// InvitesPurgedTotal tracks expired invites removed by the cron job.
	InvitesPurgedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "invites_purged_total",
			Help: "Total number of expired invites purged",
		},
	)
)

// Tenant population metrics
var (
	// PopulationRunsTotal tracks tenant population runs by status.
	PopulationRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenant_population_runs_total",
			Help: "Total number of tenant population runs by status",
		},
		[]string{"status"},
	)

	// PopulationRunDuration tracks how long population runs take.
	PopulationRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tenant_population_run_duration_seconds",
			Help:    "Tenant population run duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		},
	)

	// PopulationGroupsCreated tracks groups cloned during population.
	PopulationGroupsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tenant_population_groups_created_total",
			Help: "Total number of permission groups created by population runs",
		},
	)

	// PopulationUsersLinked tracks users linked during population.
	PopulationUsersLinked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tenant_population_users_linked_total",
			Help: "Total number of users linked to groups by population runs",
		},
	)
)

// HTTP metrics
var (
	// HTTPRequestsTotal tracks HTTP requests by method, path and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration tracks HTTP request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
