package domain

import "time"

// ReminderType identifies how long before the task a reminder fires.
type ReminderType string

const (
	ReminderOneDay     ReminderType = "1day"
	ReminderThreeHours ReminderType = "3hours"
	ReminderTwoHours   ReminderType = "2hours"
	ReminderOneHour    ReminderType = "1hour"
)

// reminderOffsets is ordered from the earliest reminder to the latest.
var reminderOffsets = []struct {
	kind   ReminderType
	offset time.Duration
}{
	{ReminderOneDay, 24 * time.Hour},
	{ReminderThreeHours, 3 * time.Hour},
	{ReminderTwoHours, 2 * time.Hour},
	{ReminderOneHour, time.Hour},
}

// Offset returns the lead time of the reminder type and false for unknown values.
func (t ReminderType) Offset() (time.Duration, bool) {
	for _, o := range reminderOffsets {
		if o.kind == t {
			return o.offset, true
		}
	}
	return 0, false
}

// Valid reports whether t is one of the known reminder types.
func (t ReminderType) Valid() bool {
	_, ok := t.Offset()
	return ok
}

// ReminderTypes lists every reminder type in creation order.
func ReminderTypes() []ReminderType {
	out := make([]ReminderType, 0, len(reminderOffsets))
	for _, o := range reminderOffsets {
		out = append(out, o.kind)
	}
	return out
}

// Reminder is a one-time notification tied to a task.
// Only Sent and SentAt ever change after creation, and only from unsent to sent.
type Reminder struct {
	ID           string       `json:"id"`
	TaskID       string       `json:"task_id"`
	UserID       string       `json:"user_id"`
	Type         ReminderType `json:"reminder_type"`
	ScheduledFor time.Time    `json:"scheduled_for"`
	Sent         bool         `json:"sent"`
	SentAt       *time.Time   `json:"sent_at,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// IsDue reports whether the reminder should be delivered at now.
func (r *Reminder) IsDue(now time.Time) bool {
	return r != nil && !r.Sent && !r.ScheduledFor.After(now)
}

// PlanReminders computes the four reminders of a task scheduled at scheduledAt.
// Past reminder times are kept; they become due on the next dispatch tick.
func PlanReminders(taskID, userID string, scheduledAt time.Time) []Reminder {
	out := make([]Reminder, 0, len(reminderOffsets))
	for _, o := range reminderOffsets {
		out = append(out, Reminder{
			TaskID:       taskID,
			UserID:       userID,
			Type:         o.kind,
			ScheduledFor: scheduledAt.Add(-o.offset),
		})
	}
	return out
}
