package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	// Login counters
	LoginCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "inspection_login_total",
			Help: "Total number of login attempts",
		},
	)

	// Registration counters
	RegisterCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "inspection_register_total",
			Help: "Total number of user registrations",
		},
	)

	// Email verification counter
	VerificationCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "inspection_verification_total",
			Help: "Total number of email verification attempts",
		},
	)

	// Entity operation counter
	EntityOpCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inspection_entity_operations_total",
			Help: "Total number of entity operations",
		},
		[]string{"entity", "operation"}, // entity: property/room/report/photo, operation: create/read/update/delete
	)

	// Approval transition counter
	ApprovalCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inspection_approvals_total",
			Help: "Total number of report approval transitions",
		},
		[]string{"status"}, // approved or rejected
	)

	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inspection_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)

	// Error counters
	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inspection_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"}, // type can be "login_failure", "invalid_token", "code_expired" etc.
	)

	// Email delivery counter
	EmailSendCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inspection_email_sends_total",
			Help: "Total number of outbound email attempts by template and outcome",
		},
		[]string{"template", "outcome"}, // outcome: sent or failed
	)

	// Cache access counter
	CacheCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inspection_cache_requests_total",
			Help: "Total number of cache lookups by outcome",
		},
		[]string{"outcome"}, // hit, miss, error
	)
)

// Histogram metrics
var (
	// Request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "inspection_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	// Database operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "inspection_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // operation can be "query", "insert", "update", "delete"
	)
)

// Gauge metrics
var (
	// Active tokens
	ActiveTokensGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "inspection_active_tokens",
			Help: "Number of currently active authentication tokens",
		},
	)

	// System info
	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "inspection_info",
			Help: "Information about the inspection service",
		},
		[]string{"version"},
	)
)

func init() {
	// Register counters
	prometheus.MustRegister(LoginCounter)
	prometheus.MustRegister(RegisterCounter)
	prometheus.MustRegister(VerificationCounter)
	prometheus.MustRegister(EntityOpCounter)
	prometheus.MustRegister(ApprovalCounter)
	prometheus.MustRegister(HTTPRequestCounter)
	prometheus.MustRegister(AuthErrorCounter)
	prometheus.MustRegister(EmailSendCounter)
	prometheus.MustRegister(CacheCounter)

	// Register histograms
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DBOperationDuration)

	// Register gauges
	prometheus.MustRegister(ActiveTokensGauge)
	prometheus.MustRegister(InfoGauge)

	// Set initial service info
	InfoGauge.With(prometheus.Labels{"version": "1.0.0"}).Set(1)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// TrackDBOperation measures database operation durations
func TrackDBOperation(operation string) func(time.Time) {
	startTime := time.Now()
	return func(endTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(duration)
	}
}

// MetricsMiddleware creates a middleware function that captures metrics for each request
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			// Execute the request handler
			err := next(c)

			// Record request duration
			duration := time.Since(start).Seconds()
			status := strconv.Itoa(c.Response().Status)
			endpoint := c.Path()
			method := c.Request().Method

			// Record metrics
			RequestDuration.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Observe(duration)

			HTTPRequestCounter.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Inc()

			return err
		}
	}
}

// IncreaseActiveTokens increments the active tokens gauge
func IncreaseActiveTokens() {
	ActiveTokensGauge.Inc()
}

// DecreaseActiveTokens decrements the active tokens gauge
func DecreaseActiveTokens() {
	ActiveTokensGauge.Dec()
}

// RecordAuthError records an authentication error by type
func RecordAuthError(errorType string) {
	AuthErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// RecordEntityOp records an entity operation
func RecordEntityOp(entity, operation string) {
	EntityOpCounter.With(prometheus.Labels{"entity": entity, "operation": operation}).Inc()
}

// RecordApproval records a report approval transition
func RecordApproval(status string) {
	ApprovalCounter.With(prometheus.Labels{"status": status}).Inc()
}

// RecordEmailSend records an outbound email attempt
func RecordEmailSend(template string, sent bool) {
	outcome := "sent"
	if !sent {
		outcome = "failed"
	}
	EmailSendCounter.With(prometheus.Labels{"template": template, "outcome": outcome}).Inc()
}

// RecordCache records a cache lookup outcome
func RecordCache(outcome string) {
	CacheCounter.With(prometheus.Labels{"outcome": outcome}).Inc()
}
