package metrics

import (
	"sync"

	"github.com/go-authgate/credgate/internal/core"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ensure Metrics implements Recorder interface at compile time
var _ core.Recorder = (*Metrics)(nil)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// Account Metrics
	SignUpsTotal *prometheus.CounterVec
	UsersTotal   prometheus.Gauge

	// Authentication Metrics
	AuthLoginTotal         *prometheus.CounterVec
	AuthLoginDuration      *prometheus.HistogramVec
	AuthOAuthCallbackTotal *prometheus.CounterVec
	SessionsIssuedTotal    *prometheus.CounterVec

	// Password Reset Metrics
	PasswordResetRequestsTotal    *prometheus.CounterVec
	PasswordResetCompletionsTotal *prometheus.CounterVec

	// Mail Metrics
	MailSentTotal    *prometheus.CounterVec
	MailSendDuration prometheus.Histogram

	// HTTP Request Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Database Query Metrics
	DatabaseQueryErrorsTotal *prometheus.CounterVec
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

// Init returns the Prometheus-backed recorder when enabled, NoopMetrics otherwise.
// Prometheus collectors are registered only once per process.
func Init(enabled bool) core.Recorder {
	if !enabled {
		return NewNoopMetrics()
	}

	once.Do(func() {
		defaultMetrics = initMetrics()
	})
	return defaultMetrics
}

// initMetrics creates and registers all Prometheus metrics
func initMetrics() *Metrics {
	return &Metrics{
		SignUpsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "account_signups_total",
				Help: "Total number of sign-up attempts",
			},
			[]string{"result"}, // success, invalid, conflict, error
		),
		UsersTotal: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "account_users",
				Help: "Current number of user records",
			},
		),

		AuthLoginTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_login_total",
				Help: "Total number of login attempts",
			},
			[]string{"method", "result"}, // method: password, google, github; result: success, failure
		),
		AuthLoginDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "auth_login_duration_seconds",
				Help:    "Time taken to complete login",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		AuthOAuthCallbackTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_oauth_callback_total",
				Help: "Total number of OAuth callback attempts",
			},
			[]string{"provider", "result"},
		),
		SessionsIssuedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sessions_issued_total",
				Help: "Total number of session tokens issued",
			},
			[]string{"method"},
		),

		PasswordResetRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "password_reset_requests_total",
				Help: "Total number of password reset requests",
			},
			[]string{"result"}, // sent, unknown_email, mail_error, error
		),
		PasswordResetCompletionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "password_reset_completions_total",
				Help: "Total number of password reset completions",
			},
			[]string{"result"}, // success, invalid_token, unchanged, invalid, error
		),

		MailSentTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mail_sent_total",
				Help: "Total number of outgoing emails",
			},
			[]string{"result"}, // success, error
		),
		MailSendDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "mail_send_duration_seconds",
				Help:    "Time taken to hand a message to the mail transport",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		),

		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "http_request_duration_seconds",
				Help: "HTTP request latency in seconds",
				Buckets: []float64{
					0.001, 0.005, 0.010, 0.025, 0.050, 0.100,
					0.250, 0.500, 1.0, 2.5, 5.0, 10.0,
				},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Current number of HTTP requests being served",
			},
		),

		DatabaseQueryErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "database_query_errors_total",
				Help: "Total number of database query errors",
			},
			[]string{"operation"}, // count_users
		),
	}
}
