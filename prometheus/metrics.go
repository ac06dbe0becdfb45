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
	// Login attempts by role
	LoginCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jewelry_login_total",
			Help: "Total number of login attempts by role",
		},
		[]string{"role"}, // "admin" or "client"
	)

	// Client provisioning outcomes
	ProvisionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jewelry_provision_total",
			Help: "Total number of client provisioning attempts by outcome",
		},
		[]string{"outcome"}, // "success", "rolled_back", "rejected"
	)

	// Order operation counter
	OrderOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jewelry_order_operations_total",
			Help: "Total number of order operations",
		},
		[]string{"operation"}, // "create", "list", "get", "update", "delete"
	)

	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jewelry_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)

	// Authentication error counter
	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jewelry_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"}, // "missing_token", "invalid_token", "wrong_role" etc.
	)

	// Database connection errors
	ConnectionErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jewelry_connection_errors_total",
			Help: "Total number of database connection failures",
		},
		[]string{"target"}, // "admin" or "tenant"
	)
)

// Histogram metrics
var (
	// Request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jewelry_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	// Database operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jewelry_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // "query", "insert", "update", "delete"
	)
)

// Gauge metrics
var (
	// Live tenant database connections
	TenantConnectionsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "jewelry_tenant_connections",
			Help: "Number of live tenant database connections",
		},
	)

	// System info
	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "jewelry_info",
			Help: "Information about the jewelry order service",
		},
		[]string{"version"},
	)
)

func init() {
	// Register counters
	prometheus.MustRegister(LoginCounter)
	prometheus.MustRegister(ProvisionCounter)
	prometheus.MustRegister(OrderOperationCounter)
	prometheus.MustRegister(HTTPRequestCounter)
	prometheus.MustRegister(AuthErrorCounter)
	prometheus.MustRegister(ConnectionErrorCounter)

	// Register histograms
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DBOperationDuration)

	// Register gauges
	prometheus.MustRegister(TenantConnectionsGauge)
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

// IncreaseTenantConnections increments the live tenant connections gauge
func IncreaseTenantConnections() {
	TenantConnectionsGauge.Inc()
}

// RecordAuthError increments the auth error counter for the given type
func RecordAuthError(errorType string) {
	AuthErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// RecordConnectionError increments the connection error counter for a target
func RecordConnectionError(target string) {
	ConnectionErrorCounter.With(prometheus.Labels{"target": target}).Inc()
}

// RecordLogin increments the login counter for a role
func RecordLogin(role string) {
	LoginCounter.With(prometheus.Labels{"role": role}).Inc()
}

// RecordProvision increments the provisioning counter for an outcome
func RecordProvision(outcome string) {
	ProvisionCounter.With(prometheus.Labels{"outcome": outcome}).Inc()
}

// RecordOrderOperation increments the order operation counter
func RecordOrderOperation(operation string) {
	OrderOperationCounter.With(prometheus.Labels{"operation": operation}).Inc()
}
