package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/repository"
)

const userColumns = `id, telegram_username, last_signed_in, created_at, updated_at`

type userRepository struct {
	db DB
}

// NewUserRepository instantiates a Postgres-backed user repository.
func NewUserRepository(db DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if !available(r.db) {
		return nil, domain.ErrStoreUnavailable
	}
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *userRepository) GetByTelegramUsername(ctx context.Context, username string) (*domain.User, error) {
	if !available(r.db) {
		return nil, domain.ErrStoreUnavailable
	}
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE telegram_username = $1`, username)
	return scanUser(row)
}

func (r *userRepository) TouchSignIn(ctx context.Context, username string) (*domain.User, error) {
	if username == "" {
		return nil, domain.ErrInvalidPayload
	}
	if !available(r.db) {
		return nil, domain.ErrStoreUnavailable
	}

	query := `
	INSERT INTO users (id, telegram_username, last_signed_in)
	VALUES ($1, $2, NOW())
	ON CONFLICT (telegram_username) DO UPDATE
	SET last_signed_in = NOW(),
		updated_at = NOW()
	RETURNING ` + userColumns
	row := r.db.QueryRow(ctx, query, uuid.NewString(), username)
	return scanUser(row)
}

func scanUser(row scanner) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(&user.ID, &user.TelegramUsername, &user.LastSignedIn, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}
