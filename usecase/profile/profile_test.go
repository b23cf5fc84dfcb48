package profile

import (
	"context"
	"errors"
	"testing"

	"github.com/fastygo/planner/domain"
)

type stubUsers struct{ user *domain.User }

func (s stubUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	if s.user == nil || s.user.ID != id {
		return nil, domain.ErrUserNotFound
	}
	return s.user, nil
}

func (s stubUsers) GetByTelegramUsername(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrUserNotFound
}

func (s stubUsers) TouchSignIn(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrStoreUnavailable
}

type stubDestinations struct {
	dest *domain.NotificationDestination
	err  error
}

func (s stubDestinations) GetByUserID(context.Context, string) (*domain.NotificationDestination, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.dest, nil
}

func (s stubDestinations) Upsert(context.Context, *domain.NotificationDestination) error { return nil }

func TestGetProfile(t *testing.T) {
	user := &domain.User{ID: "user-1", TelegramUsername: "alice_bot"}

	cases := []struct {
		name     string
		dests    stubDestinations
		receives bool
		wantErr  error
	}{
		{name: "linked", dests: stubDestinations{dest: &domain.NotificationDestination{ChatID: "42"}}, receives: true},
		{name: "not linked", dests: stubDestinations{err: domain.ErrDestinationNotFound}},
		{name: "store down", dests: stubDestinations{err: domain.ErrStoreUnavailable}, wantErr: domain.ErrStoreUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			uc := New(stubUsers{user: user}, tc.dests, nil)
			profile, err := uc.GetProfile(context.Background(), "user-1")
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("get profile: %v", err)
			}
			if profile.ReceivesReminders != tc.receives {
				t.Fatalf("receives reminders = %t", profile.ReceivesReminders)
			}
		})
	}
}

func TestGetProfileUnknownUser(t *testing.T) {
	uc := New(stubUsers{}, stubDestinations{}, nil)
	if _, err := uc.GetProfile(context.Background(), "ghost"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected user not found, got %v", err)
	}
}
