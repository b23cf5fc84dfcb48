package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/repository"
)

const sessionPrefix = "planner:session:"

type sessionRepository struct {
	client redislib.UniversalClient
	ttl    time.Duration
}

// NewSessionRepository creates a Redis-backed session repository.
func NewSessionRepository(client redislib.UniversalClient, ttl time.Duration) repository.SessionRepository {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &sessionRepository{client: client, ttl: ttl}
}

func (r *sessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	if r.client == nil {
		return nil, domain.ErrStoreUnavailable
	}
	result, err := r.client.Get(ctx, sessionPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}

	var session domain.Session
	if err := json.Unmarshal(result, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) Save(ctx context.Context, session *domain.Session) error {
	if session == nil || session.ID == "" || session.UserID == "" {
		return domain.ErrInvalidPayload
	}
	if r.client == nil {
		return domain.ErrStoreUnavailable
	}

	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	if !session.ExpiresAt.After(session.CreatedAt) {
		session.ExpiresAt = session.CreatedAt.Add(r.ttl)
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		ttl = r.ttl
	}
	return r.client.Set(ctx, sessionPrefix+session.ID, payload, ttl).Err()
}

func (r *sessionRepository) Delete(ctx context.Context, id string) error {
	if r.client == nil {
		return domain.ErrStoreUnavailable
	}
	return r.client.Del(ctx, sessionPrefix+id).Err()
}

// Extend rewrites the stored expiry and the key TTL together. It fails with
// ErrSessionNotFound if the key vanished in between.
func (r *sessionRepository) Extend(ctx context.Context, id string, ttl time.Duration) (*domain.Session, error) {
	if r.client == nil {
		return nil, domain.ErrStoreUnavailable
	}
	if ttl <= 0 {
		ttl = r.ttl
	}

	session, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	session.Refresh(time.Now(), ttl)
	payload, err := json.Marshal(session)
	if err != nil {
		return nil, err
	}

	ok, err := r.client.SetXX(ctx, sessionPrefix+id, payload, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}
