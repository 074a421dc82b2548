package core

import "time"

// Recorder defines the interface for recording application metrics.
// Implementations include Metrics (Prometheus-based) and NoopMetrics (no-op).
type Recorder interface {
	// Accounts
	RecordSignUp(result string)

	// Authentication
	RecordLogin(method string, success bool, duration time.Duration)
	RecordOAuthCallback(provider string, success bool)
	RecordSessionIssued(method string)

	// Password reset
	RecordPasswordResetRequest(result string)
	RecordPasswordResetCompletion(result string)

	// Mail
	RecordMailSent(success bool, duration time.Duration)

	// Gauges
	SetUsersCount(count int64)

	// Database Operations
	RecordDatabaseQueryError(operation string)
}
