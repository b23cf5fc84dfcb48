package repository

import (
	"context"
	"time"

	"github.com/fastygo/planner/domain"
)

type TermsRepository interface {
	// ListActive returns active terms in display order.
	ListActive(ctx context.Context) ([]domain.Term, error)
	AcceptedTermIDs(ctx context.Context, userID string) ([]string, error)
	// Accept records the user's acceptance of termIDs. Accepting a term twice is a no-op.
	Accept(ctx context.Context, userID string, termIDs []string, at time.Time) error
}
