package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/repository"
)

type destinationRepository struct {
	db DB
}

// NewDestinationRepository returns a Postgres-backed DestinationRepository.
func NewDestinationRepository(db DB) repository.DestinationRepository {
	return &destinationRepository{db: db}
}

func (r *destinationRepository) GetByUserID(ctx context.Context, userID string) (*domain.NotificationDestination, error) {
	if !available(r.db) {
		return nil, domain.ErrStoreUnavailable
	}
	const query = `
	SELECT id, user_id, telegram_chat_id, COALESCE(telegram_user_id, ''), created_at, updated_at
	FROM notification_destinations
	WHERE user_id = $1
	`
	var dest domain.NotificationDestination
	if err := r.db.QueryRow(ctx, query, userID).Scan(
		&dest.ID,
		&dest.UserID,
		&dest.ChatID,
		&dest.ExternalUserID,
		&dest.CreatedAt,
		&dest.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDestinationNotFound
		}
		return nil, err
	}
	return &dest, nil
}

func (r *destinationRepository) Upsert(ctx context.Context, dest *domain.NotificationDestination) error {
	if dest == nil || dest.UserID == "" || dest.ChatID == "" {
		return domain.ErrInvalidPayload
	}
	if !available(r.db) {
		return domain.ErrStoreUnavailable
	}
	if dest.ID == "" {
		dest.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO notification_destinations (id, user_id, telegram_chat_id, telegram_user_id)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (user_id) DO UPDATE
	SET telegram_chat_id = EXCLUDED.telegram_chat_id,
		telegram_user_id = EXCLUDED.telegram_user_id,
		updated_at = NOW()
	RETURNING id, created_at, updated_at
	`
	return r.db.QueryRow(ctx, query,
		dest.ID,
		dest.UserID,
		dest.ChatID,
		nullString(dest.ExternalUserID),
	).Scan(&dest.ID, &dest.CreatedAt, &dest.UpdatedAt)
}
