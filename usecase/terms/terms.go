package terms

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/repository"
)

type UseCase struct {
	terms  repository.TermsRepository
	logger *zap.Logger
}

func New(terms repository.TermsRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		terms:  terms,
		logger: logger,
	}
}

// List returns the active terms in display order.
func (uc *UseCase) List(ctx context.Context) ([]domain.Term, error) {
	return uc.terms.ListActive(ctx)
}

// AcceptAll records the user's acceptance of termIDs and returns the resulting status.
// Every id must name an active term.
func (uc *UseCase) AcceptAll(ctx context.Context, userID string, termIDs []string) (*domain.TermsStatus, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}

	ids := make([]string, 0, len(termIDs))
	seen := make(map[string]struct{}, len(termIDs))
	for _, id := range termIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, domain.NewError(domain.ErrCodeInvalid, "terms_ids is required")
	}

	active, err := uc.terms.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	known := make(map[string]struct{}, len(active))
	for _, term := range active {
		known[term.ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			return nil, domain.ErrTermNotFound
		}
	}

	if err := uc.terms.Accept(ctx, userID, ids, time.Now()); err != nil {
		return nil, err
	}
	uc.logger.Info("terms accepted", zap.String("user_id", userID), zap.Strings("term_ids", ids))

	return uc.status(ctx, userID, active)
}

// CheckAccepted reports whether the user accepted every active term.
func (uc *UseCase) CheckAccepted(ctx context.Context, userID string) (*domain.TermsStatus, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	active, err := uc.terms.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	return uc.status(ctx, userID, active)
}

func (uc *UseCase) status(ctx context.Context, userID string, active []domain.Term) (*domain.TermsStatus, error) {
	if len(active) == 0 {
		status := domain.EvaluateTerms(nil, nil)
		return &status, nil
	}
	accepted, err := uc.terms.AcceptedTermIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	status := domain.EvaluateTerms(active, accepted)
	return &status, nil
}
