package domain

import (
	"strings"
	"time"
)

// DefaultTimezone is used when a task is created without an explicit zone.
const DefaultTimezone = "UTC"

// Task represents a user-owned scheduled event.
type Task struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Timezone    string    `json:"timezone"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Normalize trims user input and fills defaults.
func (t *Task) Normalize() {
	if t == nil {
		return
	}
	t.Title = strings.TrimSpace(t.Title)
	t.Description = strings.TrimSpace(t.Description)
	t.Timezone = strings.TrimSpace(t.Timezone)
	if t.Timezone == "" {
		t.Timezone = DefaultTimezone
	}
}

// Validate checks the fields required to persist a task.
func (t *Task) Validate() error {
	if t == nil {
		return ErrInvalidPayload
	}
	if t.UserID == "" {
		return NewError(ErrCodeInvalid, "user id is required")
	}
	if t.Title == "" {
		return NewError(ErrCodeInvalid, "title is required")
	}
	if len(t.Title) > 255 {
		return NewError(ErrCodeInvalid, "title is too long")
	}
	if t.ScheduledAt.IsZero() {
		return NewError(ErrCodeInvalid, "scheduled_at is required")
	}
	if _, err := time.LoadLocation(t.Timezone); err != nil {
		return WrapError(ErrCodeInvalid, "unknown timezone", err)
	}
	return nil
}

// LocalTime renders the scheduled instant in the task's display zone.
func (t *Task) LocalTime() time.Time {
	loc, err := time.LoadLocation(t.Timezone)
	if err != nil {
		return t.ScheduledAt.UTC()
	}
	return t.ScheduledAt.In(loc)
}
