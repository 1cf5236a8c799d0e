package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	apiRequestsTotal      *prometheus.CounterVec
	apiLatencySeconds     *prometheus.HistogramVec
	apiErrorsTotal        *prometheus.CounterVec
	sessionUpdatesTotal   *prometheus.CounterVec
	globalRepairsTotal    *prometheus.CounterVec
	globalWritesTotal     prometheus.Counter
	reportCacheTotal      *prometheus.CounterVec
	gradingConflictsTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		sessionUpdatesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grading_session_updates_total",
			Help: "Session attendance updates by resulting attendance state.",
		}, []string{"attendance"})

		globalRepairsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grading_global_grade_repairs_total",
			Help: "Global grade rows created or repaired while being read.",
		}, []string{"reason"})

		globalWritesTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "grading_global_grade_writes_total",
			Help: "Global grade upserts recorded by users.",
		})

		reportCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "report_cache_lookups_total",
			Help: "Report cache lookups by report kind and result.",
		}, []string{"report", "result"})

		gradingConflictsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grading_version_conflicts_total",
			Help: "Optimistic version conflicts by entity.",
		}, []string{"entity"})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			sessionUpdatesTotal,
			globalRepairsTotal,
			globalWritesTotal,
			reportCacheTotal,
			gradingConflictsTotal,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// SessionUpdates counts attendance updates labelled present or absent.
func SessionUpdates() *prometheus.CounterVec {
	RegisterMetrics()
	return sessionUpdatesTotal
}

// GlobalGradeRepairs counts lazy creations and read-path repairs.
func GlobalGradeRepairs() *prometheus.CounterVec {
	RegisterMetrics()
	return globalRepairsTotal
}

// GlobalGradeWrites counts user-recorded exam grades.
func GlobalGradeWrites() prometheus.Counter {
	RegisterMetrics()
	return globalWritesTotal
}

// ReportCacheLookups counts report cache hits and misses.
func ReportCacheLookups() *prometheus.CounterVec {
	RegisterMetrics()
	return reportCacheTotal
}

// VersionConflicts counts lost optimistic updates.
func VersionConflicts() *prometheus.CounterVec {
	RegisterMetrics()
	return gradingConflictsTotal
}
