package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector handles Prometheus metrics collection. Each collector owns
// its registry so several instances can live in one process.
type MetricsCollector struct {
	serviceName string
	registry    *prometheus.Registry

	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDuration        *prometheus.HistogramVec
	appointmentsCreatedTotal   *prometheus.CounterVec
	appointmentTransitionTotal *prometheus.CounterVec
	restoresTotal              *prometheus.CounterVec
	authAttemptsTotal          *prometheus.CounterVec
	persistDuration            *prometheus.HistogramVec
	reportAnomaliesTotal       *prometheus.CounterVec
	systemErrors               *prometheus.CounterVec
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector(serviceName string) *MetricsCollector {
	m := &MetricsCollector{
		serviceName: serviceName,
		registry:    prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code", "service"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint", "service"},
		),
		appointmentsCreatedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "appointments_created_total",
				Help: "Total number of appointments booked",
			},
			[]string{"pricing", "service"},
		),
		appointmentTransitionTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "appointment_transitions_total",
				Help: "Total number of appointment lifecycle transitions",
			},
			[]string{"action", "status", "service"},
		),
		restoresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backup_restores_total",
				Help: "Total number of backup restore attempts",
			},
			[]string{"status", "service"},
		),
		authAttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_attempts_total",
				Help: "Total number of authentication attempts",
			},
			[]string{"method", "status", "service"},
		),
		persistDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "store_persist_duration_seconds",
				Help:    "Duration of slot persistence in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 2.0, 5.0},
			},
			[]string{"status", "service"},
		),
		reportAnomaliesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "report_anomalies_total",
				Help: "Appointments found violating payment invariants while reporting",
			},
			[]string{"kind", "service"},
		),
		systemErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "system_errors_total",
				Help: "Total number of system errors",
			},
			[]string{"error_type", "service", "component"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.appointmentsCreatedTotal,
		m.appointmentTransitionTotal,
		m.restoresTotal,
		m.authAttemptsTotal,
		m.persistDuration,
		m.reportAnomaliesTotal,
		m.systemErrors,
	)

	return m
}

// Registry exposes the underlying registry, mainly for tests
func (m *MetricsCollector) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records HTTP request metrics
func (m *MetricsCollector) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, endpoint, statusCode, m.serviceName).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint, m.serviceName).Observe(duration.Seconds())
}

// RecordAppointmentCreated counts a booking by pricing kind
func (m *MetricsCollector) RecordAppointmentCreated(pricing string) {
	m.appointmentsCreatedTotal.WithLabelValues(pricing, m.serviceName).Inc()
}

// RecordTransition counts a lifecycle transition attempt
func (m *MetricsCollector) RecordTransition(action string, success bool) {
	m.appointmentTransitionTotal.WithLabelValues(action, outcome(success), m.serviceName).Inc()
}

// RecordRestore counts a backup restore attempt
func (m *MetricsCollector) RecordRestore(success bool) {
	m.restoresTotal.WithLabelValues(outcome(success), m.serviceName).Inc()
}

// RecordAuthAttempt records authentication attempt metrics
func (m *MetricsCollector) RecordAuthAttempt(method, status string) {
	m.authAttemptsTotal.WithLabelValues(method, status, m.serviceName).Inc()
}

// RecordPersist records how long a slot write took
func (m *MetricsCollector) RecordPersist(duration time.Duration, success bool) {
	m.persistDuration.WithLabelValues(outcome(success), m.serviceName).Observe(duration.Seconds())
}

// RecordReportAnomalies adds anomalies found while computing a report
func (m *MetricsCollector) RecordReportAnomalies(kind string, count int) {
	if count > 0 {
		m.reportAnomaliesTotal.WithLabelValues(kind, m.serviceName).Add(float64(count))
	}
}

// RecordSystemError records system error metrics
func (m *MetricsCollector) RecordSystemError(errorType, component string) {
	m.systemErrors.WithLabelValues(errorType, m.serviceName, component).Inc()
}

// Handler returns the Prometheus metrics HTTP handler
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// HTTPMiddleware creates middleware for HTTP request metrics. Installed with
// Router.Use it labels requests by route template rather than raw path.
func (m *MetricsCollector) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapper := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		endpoint := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				endpoint = tpl
			}
		}

		m.RecordHTTPRequest(r.Method, endpoint, strconv.Itoa(wrapper.statusCode), time.Since(start))
	})
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "failed"
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
