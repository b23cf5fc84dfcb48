package domain

import "time"

// NotificationDestination links a user to the Telegram chat that receives their reminders.
// A user has at most one destination.
type NotificationDestination struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	ChatID         string    `json:"telegram_chat_id"`
	ExternalUserID string    `json:"telegram_user_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
