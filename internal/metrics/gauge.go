package metrics

import (
	"context"
	"log"

	"github.com/go-authgate/credgate/internal/core"
)

// UserCounter is the store capability needed by UpdateGauges
type UserCounter interface {
	CountUsers(ctx context.Context) (int64, error)
}

// UpdateGauges refreshes the gauges derived from the database
func UpdateGauges(ctx context.Context, store UserCounter, m core.Recorder) {
	count, err := store.CountUsers(ctx)
	if err != nil {
		log.Printf("[Metrics] failed to count users: %v", err)
		m.RecordDatabaseQueryError("count_users")
		return
	}
	m.SetUsersCount(count)
}
