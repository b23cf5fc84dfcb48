package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/repository"
)

const reminderColumns = `id, task_id, user_id, reminder_type, scheduled_for, sent, sent_at, created_at, updated_at`

type reminderRepository struct {
	db DB
}

// NewReminderRepository returns a Postgres-backed implementation of ReminderRepository.
func NewReminderRepository(db DB) repository.ReminderRepository {
	return &reminderRepository{db: db}
}

func (r *reminderRepository) Insert(ctx context.Context, reminders []domain.Reminder) ([]string, error) {
	if !available(r.db) {
		return nil, domain.ErrStoreUnavailable
	}
	if err := insertReminders(ctx, r.db, reminders); err != nil {
		return nil, err
	}
	ids := make([]string, len(reminders))
	for i := range reminders {
		ids[i] = reminders[i].ID
	}
	return ids, nil
}

func (r *reminderRepository) ListUnsent(ctx context.Context) ([]domain.Reminder, error) {
	if !available(r.db) {
		return nil, domain.ErrStoreUnavailable
	}
	query := `SELECT ` + reminderColumns + `
	FROM reminders
	WHERE sent = FALSE
	ORDER BY scheduled_for ASC
	`
	return r.list(ctx, query)
}

func (r *reminderRepository) ListByTask(ctx context.Context, taskID string) ([]domain.Reminder, error) {
	if !available(r.db) {
		return nil, domain.ErrStoreUnavailable
	}
	query := `SELECT ` + reminderColumns + `
	FROM reminders
	WHERE task_id = $1
	ORDER BY scheduled_for ASC
	`
	return r.list(ctx, query, taskID)
}

func (r *reminderRepository) MarkSent(ctx context.Context, id string, at time.Time) error {
	if !available(r.db) {
		return domain.ErrStoreUnavailable
	}
	if at.IsZero() {
		at = time.Now()
	}

	const query = `
	UPDATE reminders
	SET sent = TRUE,
		sent_at = COALESCE(sent_at, $2),
		updated_at = NOW()
	WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query, id, at.UTC())
	if err != nil {
		return fmt.Errorf("mark reminder sent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReminderNotFound
	}
	return nil
}

func (r *reminderRepository) list(ctx context.Context, query string, args ...any) ([]domain.Reminder, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reminders []domain.Reminder
	for rows.Next() {
		reminder, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, *reminder)
	}
	return reminders, rows.Err()
}

// insertReminders writes the whole batch with one statement so it either lands completely or not at all.
func insertReminders(ctx context.Context, q execer, reminders []domain.Reminder) error {
	if len(reminders) == 0 {
		return nil
	}

	args := make([]any, 0, len(reminders)*5)
	for i := range reminders {
		rem := &reminders[i]
		if !rem.Type.Valid() {
			return domain.WrapError(domain.ErrCodeInvalid, "invalid reminder type", fmt.Errorf("%q", rem.Type))
		}
		if rem.ID == "" {
			rem.ID = uuid.NewString()
		}
		args = append(args, rem.ID, rem.TaskID, rem.UserID, string(rem.Type), rem.ScheduledFor.UTC())
	}

	query := `INSERT INTO reminders (id, task_id, user_id, reminder_type, scheduled_for) VALUES ` +
		valuesPlaceholders(len(reminders), 5)

	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("insert reminders: %w", err)
	}
	if tag.RowsAffected() != int64(len(reminders)) {
		return fmt.Errorf("insert reminders: expected %d rows, got %d", len(reminders), tag.RowsAffected())
	}
	return nil
}

func scanReminder(row scanner) (*domain.Reminder, error) {
	var (
		reminder domain.Reminder
		kind     string
		sentAt   *time.Time
	)
	if err := row.Scan(
		&reminder.ID,
		&reminder.TaskID,
		&reminder.UserID,
		&kind,
		&reminder.ScheduledFor,
		&reminder.Sent,
		&sentAt,
		&reminder.CreatedAt,
		&reminder.UpdatedAt,
	); err != nil {
		return nil, err
	}
	reminder.Type = domain.ReminderType(kind)
	reminder.SentAt = sentAt
	return &reminder, nil
}
