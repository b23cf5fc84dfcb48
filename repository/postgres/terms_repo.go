package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/repository"
)

type termsRepository struct {
	db DB
}

// NewTermsRepository returns a Postgres-backed TermsRepository.
func NewTermsRepository(db DB) repository.TermsRepository {
	return &termsRepository{db: db}
}

func (r *termsRepository) ListActive(ctx context.Context) ([]domain.Term, error) {
	if !available(r.db) {
		return nil, domain.ErrStoreUnavailable
	}
	const query = `
	SELECT id, title, content, display_order, active, created_at, updated_at
	FROM terms
	WHERE active = TRUE
	ORDER BY display_order ASC, created_at ASC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list active terms: %w", err)
	}
	defer rows.Close()

	terms := []domain.Term{}
	for rows.Next() {
		var term domain.Term
		if err := rows.Scan(
			&term.ID,
			&term.Title,
			&term.Content,
			&term.Order,
			&term.Active,
			&term.CreatedAt,
			&term.UpdatedAt,
		); err != nil {
			return nil, err
		}
		terms = append(terms, term)
	}
	return terms, rows.Err()
}

func (r *termsRepository) AcceptedTermIDs(ctx context.Context, userID string) ([]string, error) {
	if !available(r.db) {
		return nil, domain.ErrStoreUnavailable
	}
	const query = `SELECT term_id FROM user_acceptances WHERE user_id = $1`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list acceptances: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *termsRepository) Accept(ctx context.Context, userID string, termIDs []string, at time.Time) error {
	if userID == "" {
		return domain.ErrInvalidPayload
	}
	if len(termIDs) == 0 {
		return nil
	}
	if !available(r.db) {
		return domain.ErrStoreUnavailable
	}
	if at.IsZero() {
		at = time.Now()
	}

	args := make([]any, 0, len(termIDs)*4)
	for _, termID := range termIDs {
		args = append(args, uuid.NewString(), userID, termID, at.UTC())
	}
	query := `INSERT INTO user_acceptances (id, user_id, term_id, accepted_at) VALUES ` +
		valuesPlaceholders(len(termIDs), 4) +
		` ON CONFLICT (user_id, term_id) DO NOTHING`

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("record acceptance: %w", err)
	}
	return nil
}
