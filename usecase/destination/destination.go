package destination

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/repository"
)

type UseCase struct {
	destinations repository.DestinationRepository
	logger       *zap.Logger
}

func New(destinations repository.DestinationRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		destinations: destinations,
		logger:       logger,
	}
}

// Register links the user's Telegram chat. A user has at most one destination;
// registering again replaces it.
func (uc *UseCase) Register(ctx context.Context, userID, chatID, externalUserID string) (*domain.NotificationDestination, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	chatID = strings.TrimSpace(chatID)
	if chatID == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "telegram_chat_id is required")
	}

	dest := &domain.NotificationDestination{
		UserID:         userID,
		ChatID:         chatID,
		ExternalUserID: strings.TrimSpace(externalUserID),
	}
	if err := uc.destinations.Upsert(ctx, dest); err != nil {
		return nil, err
	}

	uc.logger.Info("notification destination registered", zap.String("user_id", userID))
	return dest, nil
}

func (uc *UseCase) Get(ctx context.Context, userID string) (*domain.NotificationDestination, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	return uc.destinations.GetByUserID(ctx, userID)
}
