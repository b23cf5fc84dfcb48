package domain

import "time"

// Session is a planner login kept in Redis. The JWT handed to the web client
// carries its id, so revoking the session invalidates the token.
type Session struct {
	ID               string     `json:"id"`
	UserID           string     `json:"user_id"`
	TelegramUsername string     `json:"telegram_username"`
	CreatedAt        time.Time  `json:"created_at"`
	ExpiresAt        time.Time  `json:"expires_at"`
	RefreshedAt      *time.Time `json:"refreshed_at,omitempty"`
}

// IsExpired reports whether the session ended at or before reference.
func (s *Session) IsExpired(reference time.Time) bool {
	if s == nil {
		return true
	}
	if reference.IsZero() {
		reference = time.Now()
	}
	return !s.ExpiresAt.After(reference)
}

// Refresh moves the expiry to now+ttl.
func (s *Session) Refresh(now time.Time, ttl time.Duration) {
	s.ExpiresAt = now.Add(ttl)
	s.RefreshedAt = &now
}
