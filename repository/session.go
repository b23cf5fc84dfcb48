package repository

import (
	"context"
	"time"

	"github.com/fastygo/planner/domain"
)

type SessionRepository interface {
	Get(ctx context.Context, id string) (*domain.Session, error)
	// Save stores the session until its ExpiresAt.
	Save(ctx context.Context, session *domain.Session) error
	Delete(ctx context.Context, id string) error
	// Extend keeps an existing session for another ttl and returns it.
	Extend(ctx context.Context, id string, ttl time.Duration) (*domain.Session, error)
}
