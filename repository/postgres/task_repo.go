package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/repository"
)

type taskRepository struct {
	db DB
}

// NewTaskRepository returns a Postgres-backed implementation of TaskRepository.
func NewTaskRepository(db DB) repository.TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	if !available(r.db) {
		return nil, domain.ErrStoreUnavailable
	}
	const query = `
	SELECT id, user_id, title, COALESCE(description, ''), scheduled_at, timezone, created_at, updated_at
	FROM tasks
	WHERE id = $1
	`
	row := r.db.QueryRow(ctx, query, id)
	return scanTask(row)
}

func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	if !available(r.db) {
		return nil, domain.ErrStoreUnavailable
	}
	const query = `
	SELECT id, user_id, title, COALESCE(description, ''), scheduled_at, timezone, created_at, updated_at
	FROM tasks
	WHERE ($1::text = '' OR user_id::text = $1)
	ORDER BY scheduled_at ASC
	LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, filter.UserID, clampLimit(filter.Limit), filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) CreateWithReminders(ctx context.Context, task *domain.Task, reminders []domain.Reminder) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if !available(r.db) {
		return nil, domain.ErrStoreUnavailable
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	for i := range reminders {
		reminders[i].TaskID = task.ID
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin task tx: %w", err)
	}

	const query = `
	INSERT INTO tasks (id, user_id, title, description, scheduled_at, timezone)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING created_at, updated_at
	`
	if err := tx.QueryRow(ctx, query,
		task.ID,
		task.UserID,
		task.Title,
		nullString(task.Description),
		task.ScheduledAt.UTC(),
		task.Timezone,
	).Scan(&task.CreatedAt, &task.UpdatedAt); err != nil {
		_ = tx.Rollback(ctx)
		return nil, fmt.Errorf("insert task: %w", err)
	}

	if err := insertReminders(ctx, tx, reminders); err != nil {
		_ = tx.Rollback(ctx)
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit task tx: %w", err)
	}
	return task, nil
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}
	if !available(r.db) {
		return domain.ErrStoreUnavailable
	}

	const query = `
	UPDATE tasks
	SET title = $2,
		description = $3,
		scheduled_at = $4,
		timezone = $5,
		updated_at = NOW()
	WHERE id = $1
	RETURNING created_at, updated_at
	`
	if err := r.db.QueryRow(ctx, query,
		task.ID,
		task.Title,
		nullString(task.Description),
		task.ScheduledAt.UTC(),
		task.Timezone,
	).Scan(&task.CreatedAt, &task.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrTaskNotFound
		}
		return err
	}
	return nil
}

// Delete removes the task; its reminders go with it through ON DELETE CASCADE.
func (r *taskRepository) Delete(ctx context.Context, id string) error {
	if !available(r.db) {
		return domain.ErrStoreUnavailable
	}
	const query = `DELETE FROM tasks WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func scanTask(row scanner) (*domain.Task, error) {
	var task domain.Task
	if err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Description,
		&task.ScheduledAt,
		&task.Timezone,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}
