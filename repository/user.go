package repository

import (
	"context"

	"github.com/fastygo/planner/domain"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByTelegramUsername(ctx context.Context, username string) (*domain.User, error)
	// TouchSignIn creates the user if needed and bumps last_signed_in.
	TouchSignIn(ctx context.Context, username string) (*domain.User, error)
}
