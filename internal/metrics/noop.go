package metrics

import (
	"time"

	"github.com/go-authgate/credgate/internal/core"
)

// NoopMetrics is a no-operation implementation of core.Recorder
// used when metrics are disabled
type NoopMetrics struct{}

var _ core.Recorder = (*NoopMetrics)(nil)

// NewNoopMetrics creates a new no-operation metrics recorder
func NewNoopMetrics() core.Recorder {
	return &NoopMetrics{}
}

func (n *NoopMetrics) RecordSignUp(result string)                                      {}
func (n *NoopMetrics) RecordLogin(method string, success bool, duration time.Duration) {}
func (n *NoopMetrics) RecordOAuthCallback(provider string, success bool)               {}
func (n *NoopMetrics) RecordSessionIssued(method string)                               {}
func (n *NoopMetrics) RecordPasswordResetRequest(result string)                        {}
func (n *NoopMetrics) RecordPasswordResetCompletion(result string)                     {}
func (n *NoopMetrics) RecordMailSent(success bool, duration time.Duration)             {}
func (n *NoopMetrics) SetUsersCount(count int64)                                       {}
func (n *NoopMetrics) RecordDatabaseQueryError(operation string)                       {}
