package journal

import "time"

const (
	bucketAttempts    = "attempts"
	bucketDeadLetters = "dead_letters"
)

// Entry records failed delivery attempts of one reminder.
type Entry struct {
	ReminderID  string    `json:"reminder_id"`
	TaskID      string    `json:"task_id,omitempty"`
	UserID      string    `json:"user_id,omitempty"`
	Attempts    int       `json:"attempts"`
	LastError   string    `json:"last_error,omitempty"`
	FirstFailed time.Time `json:"first_failed"`
	LastFailed  time.Time `json:"last_failed"`
}
