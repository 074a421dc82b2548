package metrics

import "time"

const (
	resultSuccess = "success"
	resultError   = "error"
	resultFailure = "failure"
)

func successLabel(success bool, failure string) string {
	if success {
		return resultSuccess
	}
	return failure
}

// RecordSignUp records a sign-up attempt by result
func (m *Metrics) RecordSignUp(result string) {
	m.SignUpsTotal.WithLabelValues(result).Inc()
}

// RecordLogin records a login attempt; method is "password" or a provider name
func (m *Metrics) RecordLogin(method string, success bool, duration time.Duration) {
	m.AuthLoginTotal.WithLabelValues(method, successLabel(success, resultFailure)).Inc()
	m.AuthLoginDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordOAuthCallback records OAuth callback
func (m *Metrics) RecordOAuthCallback(provider string, success bool) {
	m.AuthOAuthCallbackTotal.WithLabelValues(provider, successLabel(success, resultError)).Inc()
}

// RecordSessionIssued records a signed session token
func (m *Metrics) RecordSessionIssued(method string) {
	m.SessionsIssuedTotal.WithLabelValues(method).Inc()
}

func (m *Metrics) RecordPasswordResetRequest(result string) {
	m.PasswordResetRequestsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordPasswordResetCompletion(result string) {
	m.PasswordResetCompletionsTotal.WithLabelValues(result).Inc()
}

// RecordMailSent records one delivery attempt
func (m *Metrics) RecordMailSent(success bool, duration time.Duration) {
	m.MailSentTotal.WithLabelValues(successLabel(success, resultError)).Inc()
	m.MailSendDuration.Observe(duration.Seconds())
}

// SetUsersCount sets the user gauge (periodic update)
func (m *Metrics) SetUsersCount(count int64) {
	m.UsersTotal.Set(float64(count))
}

// RecordDatabaseQueryError records a database query error during metric collection
func (m *Metrics) RecordDatabaseQueryError(operation string) {
	m.DatabaseQueryErrorsTotal.WithLabelValues(operation).Inc()
}
