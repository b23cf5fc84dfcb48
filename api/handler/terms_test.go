package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/pkg/httpcontext"
	termsUC "github.com/fastygo/planner/usecase/terms"
)

type memTerms struct {
	active   []domain.Term
	accepted map[string][]string
}

func (m *memTerms) ListActive(context.Context) ([]domain.Term, error) {
	return m.active, nil
}

func (m *memTerms) AcceptedTermIDs(_ context.Context, userID string) ([]string, error) {
	return m.accepted[userID], nil
}

func (m *memTerms) Accept(_ context.Context, userID string, termIDs []string, _ time.Time) error {
	m.accepted[userID] = append(m.accepted[userID], termIDs...)
	return nil
}

func newTermsHandler(active ...domain.Term) *TermsHandler {
	store := &memTerms{active: active, accepted: map[string][]string{}}
	return NewTermsHandler(termsUC.New(store, nil), httpcontext.NewAdapter(time.Second), nil)
}

func decodeTermsStatus(t *testing.T, env envelope) domain.TermsStatus {
	t.Helper()
	var status domain.TermsStatus
	if err := json.Unmarshal(env.Data, &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	return status
}

func TestTermsAcceptanceFlow(t *testing.T) {
	h := newTermsHandler(
		domain.Term{ID: "tos", Title: "Terms of Service", Order: 1, Active: true},
		domain.Term{ID: "privacy", Title: "Privacy Policy", Order: 2, Active: true},
	)

	list := newRequest(http.MethodGet, "", "")
	h.List(list)
	if list.Response.StatusCode() != http.StatusOK {
		t.Fatalf("list without a session: expected 200, got %d", list.Response.StatusCode())
	}
	var terms []domain.Term
	if err := json.Unmarshal(decodeEnvelope(t, list).Data, &terms); err != nil || len(terms) != 2 {
		t.Fatalf("unexpected terms %v %#v", err, terms)
	}

	check := newRequest(http.MethodGet, "", "user-1")
	h.Accepted(check)
	if status := decodeTermsStatus(t, decodeEnvelope(t, check)); status.Accepted || len(status.Pending) != 2 {
		t.Fatalf("expected both terms pending, got %#v", status)
	}

	accept := newRequest(http.MethodPost, `{"terms_ids":["tos","privacy"]}`, "user-1")
	h.Accept(accept)
	if accept.Response.StatusCode() != http.StatusOK {
		t.Fatalf("accept: expected 200, got %d: %s", accept.Response.StatusCode(), accept.Response.Body())
	}
	if status := decodeTermsStatus(t, decodeEnvelope(t, accept)); !status.Accepted {
		t.Fatalf("expected all terms accepted, got %#v", status)
	}
}

func TestTermsAcceptedWithoutActiveTerms(t *testing.T) {
	h := newTermsHandler()

	ctx := newRequest(http.MethodGet, "", "user-1")
	h.Accepted(ctx)
	if status := decodeTermsStatus(t, decodeEnvelope(t, ctx)); !status.Accepted {
		t.Fatalf("expected accepted with no active terms, got %#v", status)
	}
}

func TestTermsAcceptErrors(t *testing.T) {
	h := newTermsHandler(domain.Term{ID: "tos", Active: true})

	cases := []struct {
		name   string
		body   string
		userID string
		status int
	}{
		{"no session", `{"terms_ids":["tos"]}`, "", http.StatusUnauthorized},
		{"bad json", `{`, "user-1", http.StatusBadRequest},
		{"empty ids", `{"terms_ids":[]}`, "user-1", http.StatusBadRequest},
		{"unknown term", `{"terms_ids":["retired"]}`, "user-1", http.StatusNotFound},
	}
	for _, tc := range cases {
		ctx := newRequest(http.MethodPost, tc.body, tc.userID)
		h.Accept(ctx)
		if ctx.Response.StatusCode() != tc.status {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.status, ctx.Response.StatusCode())
		}
	}
}
