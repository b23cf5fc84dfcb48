package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/planner/domain"
	redisRepo "github.com/fastygo/planner/repository/redis"
)

type fakeUsers struct {
	byName  map[string]*domain.User
	touched int
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	for _, u := range f.byName {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUsers) GetByTelegramUsername(_ context.Context, username string) (*domain.User, error) {
	if u, ok := f.byName[username]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUsers) TouchSignIn(_ context.Context, username string) (*domain.User, error) {
	f.touched++
	u, ok := f.byName[username]
	if !ok {
		u = &domain.User{ID: "user-" + username, TelegramUsername: username}
		f.byName[username] = u
	}
	u.LastSignedIn = time.Now()
	return u, nil
}

func newUseCase(t *testing.T) (*UseCase, *fakeUsers, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redislib.NewClient(&redislib.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	users := &fakeUsers{byName: make(map[string]*domain.User)}
	sessions := redisRepo.NewSessionRepository(client, time.Hour)
	uc := New(users, sessions, TokenConfig{Secret: "test-secret", Issuer: "planner", TTL: time.Hour}, nil)
	return uc, users, srv
}

func TestLoginWithTelegram(t *testing.T) {
	uc, users, _ := newUseCase(t)
	ctx := context.Background()

	result, err := uc.LoginWithTelegram(ctx, "@alice_bot")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.User.TelegramUsername != "alice_bot" {
		t.Fatalf("unexpected user: %#v", result.User)
	}

	claims, err := uc.ParseToken(result.Token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != result.User.ID || claims.SessionID == "" {
		t.Fatalf("unexpected claims: %#v", claims)
	}
	if _, err := uc.GetSession(ctx, claims.SessionID); err != nil {
		t.Fatalf("session not stored: %v", err)
	}

	if _, err := uc.LoginWithTelegram(ctx, "alice_bot"); err != nil {
		t.Fatalf("second login: %v", err)
	}
	if users.touched != 2 || len(users.byName) != 1 {
		t.Fatalf("expected one user signed in twice, got %d users %d touches", len(users.byName), users.touched)
	}
}

func TestLoginRejectsInvalidUsername(t *testing.T) {
	uc, users, _ := newUseCase(t)

	for _, name := range []string{"", "abc", "has space", "way_too_long_username_for_telegram_rules"} {
		if _, err := uc.LoginWithTelegram(context.Background(), name); !domain.IsDomainError(err, domain.ErrCodeInvalid) {
			t.Fatalf("%q: expected invalid error, got %v", name, err)
		}
	}
	if users.touched != 0 {
		t.Fatalf("invalid usernames must not reach the repository")
	}
}

func TestRevokeSessionInvalidatesIt(t *testing.T) {
	uc, _, _ := newUseCase(t)
	ctx := context.Background()

	result, err := uc.LoginWithTelegram(ctx, "bob_smith")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := uc.ParseToken(result.Token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}

	if err := uc.RevokeSession(ctx, claims.SessionID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := uc.GetSession(ctx, claims.SessionID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}
	if _, err := uc.RefreshSession(ctx, claims.SessionID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("refresh after revoke: expected not found, got %v", err)
	}
}

func TestRefreshSessionExtendsTTL(t *testing.T) {
	uc, _, srv := newUseCase(t)
	ctx := context.Background()

	result, err := uc.LoginWithTelegram(ctx, "carol_99")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, _ := uc.ParseToken(result.Token)

	srv.FastForward(30 * time.Minute)
	refreshed, err := uc.RefreshSession(ctx, claims.SessionID)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.Token == "" {
		t.Fatalf("expected a new token")
	}
	srv.FastForward(45 * time.Minute)
	if _, err := uc.GetSession(ctx, claims.SessionID); err != nil {
		t.Fatalf("session should survive past the original ttl: %v", err)
	}
}

func TestParseTokenRejectsForeignSecret(t *testing.T) {
	uc, _, _ := newUseCase(t)

	result, err := uc.LoginWithTelegram(context.Background(), "dave_42")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := ParseToken(result.Token, "other-secret"); !domain.IsDomainError(err, domain.ErrCodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestCurrentUser(t *testing.T) {
	uc, _, _ := newUseCase(t)
	ctx := context.Background()

	result, err := uc.LoginWithTelegram(ctx, "erin_k")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	user, err := uc.CurrentUser(ctx, result.User.ID)
	if err != nil || user.TelegramUsername != "erin_k" {
		t.Fatalf("current user: %v %#v", err, user)
	}
	if _, err := uc.CurrentUser(ctx, ""); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}
