package domain

import (
	"regexp"
	"time"
)

var telegramUsernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{5,32}$`)

// User represents an identity signed in through Telegram.
type User struct {
	ID               string    `json:"id"`
	TelegramUsername string    `json:"telegram_username"`
	LastSignedIn     time.Time `json:"last_signed_in"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ValidTelegramUsername reports whether name follows Telegram's username rules.
func ValidTelegramUsername(name string) bool {
	return telegramUsernamePattern.MatchString(name)
}
