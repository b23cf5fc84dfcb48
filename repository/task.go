package repository

import (
	"context"

	"github.com/fastygo/planner/domain"
)

type TaskFilter struct {
	UserID string
	Limit  int
	Offset int
}

type TaskRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	// CreateWithReminders stores the task and its reminders atomically.
	CreateWithReminders(ctx context.Context, task *domain.Task, reminders []domain.Reminder) (*domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id string) error
}
