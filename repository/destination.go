package repository

import (
	"context"

	"github.com/fastygo/planner/domain"
)

type DestinationRepository interface {
	GetByUserID(ctx context.Context, userID string) (*domain.NotificationDestination, error)
	Upsert(ctx context.Context, destination *domain.NotificationDestination) error
}
