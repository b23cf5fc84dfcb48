package profile

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/repository"
)

// Profile is the signed-in user together with their delivery target.
type Profile struct {
	User        *domain.User                    `json:"user"`
	Destination *domain.NotificationDestination `json:"destination,omitempty"`
	// ReceivesReminders is false until a chat is linked.
	ReceivesReminders bool `json:"receives_reminders"`
}

type UseCase struct {
	users        repository.UserRepository
	destinations repository.DestinationRepository
	logger       *zap.Logger
}

func New(users repository.UserRepository, destinations repository.DestinationRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:        users,
		destinations: destinations,
		logger:       logger,
	}
}

func (uc *UseCase) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile := &Profile{User: user}
	dest, err := uc.destinations.GetByUserID(ctx, userID)
	switch {
	case err == nil:
		profile.Destination = dest
		profile.ReceivesReminders = true
	case errors.Is(err, domain.ErrDestinationNotFound):
	default:
		return nil, err
	}
	return profile, nil
}
