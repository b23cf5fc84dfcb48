package task

import (
	"context"

	"go.uber.org/zap"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/repository"
)

type UseCase struct {
	tasks     repository.TaskRepository
	reminders repository.ReminderRepository
	logger    *zap.Logger
}

func New(tasks repository.TaskRepository, reminders repository.ReminderRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:     tasks,
		reminders: reminders,
		logger:    logger,
	}
}

func (uc *UseCase) ListTasks(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	if filter.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	tasks, err := uc.tasks.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	return tasks, nil
}

func (uc *UseCase) GetTask(ctx context.Context, userID, id string) (*domain.Task, error) {
	return uc.owned(ctx, userID, id)
}

// CreateTask stores the task together with its four reminders.
func (uc *UseCase) CreateTask(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	task.Normalize()
	if err := task.Validate(); err != nil {
		return nil, err
	}

	reminders := domain.PlanReminders(task.ID, task.UserID, task.ScheduledAt)
	created, err := uc.tasks.CreateWithReminders(ctx, task, reminders)
	if err != nil {
		uc.logger.Error("failed to create task", zap.String("user_id", task.UserID), zap.Error(err))
		return nil, err
	}

	uc.logger.Info("task created",
		zap.String("task_id", created.ID),
		zap.String("user_id", created.UserID),
		zap.Int("reminders", len(reminders)))
	return created, nil
}

// UpdateTask changes the task fields only. Reminders keep the schedule they
// were planned with.
func (uc *UseCase) UpdateTask(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil || task.ID == "" {
		return nil, domain.ErrInvalidPayload
	}
	existing, err := uc.owned(ctx, task.UserID, task.ID)
	if err != nil {
		return nil, err
	}

	task.Normalize()
	if err := task.Validate(); err != nil {
		return nil, err
	}
	task.CreatedAt = existing.CreatedAt
	if err := uc.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	if !task.ScheduledAt.Equal(existing.ScheduledAt) {
		uc.logger.Info("task rescheduled, existing reminders unchanged",
			zap.String("task_id", task.ID),
			zap.Time("old_scheduled_at", existing.ScheduledAt),
			zap.Time("new_scheduled_at", task.ScheduledAt))
	}
	return task, nil
}

func (uc *UseCase) DeleteTask(ctx context.Context, userID, id string) error {
	if _, err := uc.owned(ctx, userID, id); err != nil {
		return err
	}
	return uc.tasks.Delete(ctx, id)
}

func (uc *UseCase) ListReminders(ctx context.Context, userID, taskID string) ([]domain.Reminder, error) {
	if _, err := uc.owned(ctx, userID, taskID); err != nil {
		return nil, err
	}
	reminders, err := uc.reminders.ListByTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if reminders == nil {
		reminders = []domain.Reminder{}
	}
	return reminders, nil
}

func (uc *UseCase) owned(ctx context.Context, userID, id string) (*domain.Task, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	if id == "" {
		return nil, domain.ErrInvalidPayload
	}
	task, err := uc.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.UserID != userID {
		return nil, domain.ErrForbidden
	}
	return task, nil
}
