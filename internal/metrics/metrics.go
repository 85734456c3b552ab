package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "platform_authz"

// ============================================================================
// Histogram bucket configurations
// ============================================================================
//
// ExponentialBucketsRange keeps buckets dense where most requests fall.

const (
	// Request duration: 0.5ms ~ 2s (full check including cache + role source)
	requestDurationMin   = 0.0005
	requestDurationMax   = 2.0
	requestDurationCount = 14

	// Role source lookup: 0.1ms ~ 5s (static map up to a slow Postgres)
	sourceLookupMin   = 0.0001
	sourceLookupMax   = 5.0
	sourceLookupCount = 14

	// Cache lookup: 0.01ms ~ 5s (memory up to a Redis pool timeout)
	cacheLookupMin   = 0.00001
	cacheLookupMax   = 5.0
	cacheLookupCount = 14
)

// ============================================================================
// Histograms - Latency measurements
// ============================================================================

var (
	// RequestDuration: Total time to answer an authorization request
	// Labels: endpoint (roles/me/grpc), reason (see constants.Reason*)
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Time spent processing authorization requests",
			Buckets:   prometheus.ExponentialBucketsRange(requestDurationMin, requestDurationMax, requestDurationCount),
		},
		[]string{"endpoint", "reason"},
	)

	// SourceLookupDuration: Role source round trip on cache miss
	SourceLookupDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "role_source_lookup_duration_seconds",
			Help:      "Time spent querying the role source",
			Buckets:   prometheus.ExponentialBucketsRange(sourceLookupMin, sourceLookupMax, sourceLookupCount),
		},
		[]string{"result"},
	)

	// CacheLookupDuration: Role cache Get latency by backend
	CacheLookupDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "role_cache_lookup_duration_seconds",
			Help:      "Time spent reading the role cache",
			Buckets:   prometheus.ExponentialBucketsRange(cacheLookupMin, cacheLookupMax, cacheLookupCount),
		},
		[]string{"backend"},
	)
)

// ============================================================================
// Counters - Request/Error counts
// ============================================================================

var (
	// RequestsTotal: Authorization requests by endpoint and reason
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of authorization requests",
		},
		[]string{"endpoint", "reason"},
	)

	// CacheLookups: Role cache reads by backend and result (hit/miss/error)
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "role_cache_lookups_total",
			Help:      "Total number of role cache lookups",
		},
		[]string{"backend", "result"},
	)

	// CacheWrites: Role cache writes by backend and result (ok/error/skipped)
	CacheWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "role_cache_writes_total",
			Help:      "Total number of role cache writes",
		},
		[]string{"backend", "result"},
	)

	// FallbackRoles: Responses that carried guest or unverified-user
	FallbackRoles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallback_roles_total",
			Help:      "Total number of responses answered with a fallback role",
		},
		[]string{"role"},
	)

	// ErrorsTotal: Errors by type
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Total number of errors by type",
		},
		[]string{"type"},
	)
)

// ============================================================================
// Gauges - Current state
// ============================================================================

var (
	// RequestsInFlight: Concurrent authorization requests
	RequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "requests_in_flight",
			Help:      "Number of authorization requests currently being processed",
		},
	)
)

// ============================================================================
// Label constants
// ============================================================================

// Endpoint labels
const (
	EndpointRoles = "roles"
	EndpointMe    = "me"
	EndpointGRPC  = "grpc"
)

// Cache result labels
const (
	ResultHit     = "hit"
	ResultMiss    = "miss"
	ResultError   = "error"
	ResultOK      = "ok"
	ResultSkipped = "skipped"
)

// Role source result labels
const (
	SourceFound    = "found"
	SourceNotFound = "not_found"
	SourceError    = "error"
)

// Error type labels for ErrorsTotal
const (
	ErrorTypeCache      = "cache"
	ErrorTypeRoleSource = "role_source"
	ErrorTypePanic      = "panic"
	ErrorTypeMQ         = "mq"
)
