package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	httpRequestsTotal     *prometheus.CounterVec
	httpLatencySeconds    *prometheus.HistogramVec
	httpErrorsTotal       *prometheus.CounterVec
	attendanceMarksTotal  *prometheus.CounterVec
	tokenSubmissionsTotal *prometheus.CounterVec
	orderSyncFailures     prometheus.Counter
)

// RegisterMetrics initialises the Prometheus collectors used by the service.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ops_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ops_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ops_errors_total",
			Help: "Total number of error responses returned.",
		}, []string{"method", "route", "status"})

		attendanceMarksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ops_attendance_marks_total",
			Help: "Attendance records written, by resulting status.",
		}, []string{"status"})

		tokenSubmissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ops_token_submissions_total",
			Help: "Self-check-in token submissions, by outcome.",
		}, []string{"outcome"})

		orderSyncFailures = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ops_order_sync_failures_total",
			Help: "Order-to-aggregate sync attempts that failed and were swallowed.",
		})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			attendanceMarksTotal,
			tokenSubmissionsTotal,
			orderSyncFailures,
		)
	})
}

// HTTPRequests exposes the request counter.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the error counter.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// AttendanceMarks exposes the attendance write counter.
func AttendanceMarks() *prometheus.CounterVec {
	RegisterMetrics()
	return attendanceMarksTotal
}

// TokenSubmissions exposes the self-check-in counter.
func TokenSubmissions() *prometheus.CounterVec {
	RegisterMetrics()
	return tokenSubmissionsTotal
}

// OrderSyncFailures exposes the swallowed-sync-failure counter. Silent drift
// between orders and attendance reality shows up here first.
func OrderSyncFailures() prometheus.Counter {
	RegisterMetrics()
	return orderSyncFailures
}
