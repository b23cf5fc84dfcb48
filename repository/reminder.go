package repository

import (
	"context"
	"time"

	"github.com/fastygo/planner/domain"
)

// ReminderRepository is the store contract consumed by the dispatch loop.
type ReminderRepository interface {
	// Insert creates the batch atomically and fills in the generated ids.
	Insert(ctx context.Context, reminders []domain.Reminder) ([]string, error)
	// ListUnsent returns every reminder with sent=false.
	ListUnsent(ctx context.Context) ([]domain.Reminder, error)
	ListByTask(ctx context.Context, taskID string) ([]domain.Reminder, error)
	// MarkSent is idempotent: a second call keeps the first sent_at.
	MarkSent(ctx context.Context, id string, at time.Time) error
}
