package domain

import "time"

// Term is one section of the terms and conditions a user accepts before using the planner.
type Term struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Order     int       `json:"order"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TermsStatus tells whether a user accepted every active term.
type TermsStatus struct {
	Accepted bool     `json:"accepted"`
	Pending  []string `json:"pending_term_ids"`
}

// EvaluateTerms compares the active terms against the ids a user accepted.
// With no active terms there is nothing to accept.
func EvaluateTerms(active []Term, acceptedIDs []string) TermsStatus {
	accepted := make(map[string]struct{}, len(acceptedIDs))
	for _, id := range acceptedIDs {
		accepted[id] = struct{}{}
	}

	status := TermsStatus{Pending: []string{}}
	for _, term := range active {
		if _, ok := accepted[term.ID]; !ok {
			status.Pending = append(status.Pending, term.ID)
		}
	}
	status.Accepted = len(status.Pending) == 0
	return status
}
