package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/repository"
)

// Claims is the JWT payload issued at login.
type Claims struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

type TokenConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// LoginResult is returned to the client after a successful sign-in.
type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *domain.User `json:"user"`
}

type UseCase struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	tokens   TokenConfig
	logger   *zap.Logger
	now      func() time.Time
}

func New(users repository.UserRepository, sessions repository.SessionRepository, tokens TokenConfig, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tokens.TTL <= 0 {
		tokens.TTL = 30 * 24 * time.Hour
	}
	return &UseCase{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		logger:   logger,
		now:      time.Now,
	}
}

// LoginWithTelegram signs the user in by Telegram username, creating the account on first use.
func (uc *UseCase) LoginWithTelegram(ctx context.Context, username string) (*LoginResult, error) {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	if !domain.ValidTelegramUsername(username) {
		return nil, domain.NewError(domain.ErrCodeInvalid, "invalid telegram username")
	}

	user, err := uc.users.TouchSignIn(ctx, username)
	if err != nil {
		return nil, err
	}

	session, err := uc.CreateSession(ctx, user, uc.tokens.TTL)
	if err != nil {
		return nil, err
	}

	token, err := uc.issueToken(session)
	if err != nil {
		_ = uc.sessions.Delete(ctx, session.ID)
		return nil, err
	}

	uc.logger.Info("user signed in", zap.String("user_id", user.ID))
	return &LoginResult{Token: token, ExpiresAt: session.ExpiresAt, User: user}, nil
}

func (uc *UseCase) CreateSession(ctx context.Context, user *domain.User, ttl time.Duration) (*domain.Session, error) {
	now := uc.now()
	session := &domain.Session{
		ID:               uuid.NewString(),
		UserID:           user.ID,
		TelegramUsername: user.TelegramUsername,
		CreatedAt:        now,
		ExpiresAt:        now.Add(ttl),
	}

	if err := uc.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (uc *UseCase) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsExpired(uc.now()) {
		_ = uc.sessions.Delete(ctx, sessionID)
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// RefreshSession extends the session and returns a fresh token for it.
func (uc *UseCase) RefreshSession(ctx context.Context, sessionID string) (*LoginResult, error) {
	if _, err := uc.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	session, err := uc.sessions.Extend(ctx, sessionID, uc.tokens.TTL)
	if err != nil {
		return nil, err
	}

	token, err := uc.issueToken(session)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, ExpiresAt: session.ExpiresAt}, nil
}

func (uc *UseCase) RevokeSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return domain.ErrUnauthorized
	}
	return uc.sessions.Delete(ctx, sessionID)
}

func (uc *UseCase) CurrentUser(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	return uc.users.GetByID(ctx, userID)
}

// ParseToken verifies the signature and expiry of a token issued by this use case.
func (uc *UseCase) ParseToken(raw string) (*Claims, error) {
	return ParseToken(raw, uc.tokens.Secret)
}

func (uc *UseCase) issueToken(session *domain.Session) (string, error) {
	if uc.tokens.Secret == "" {
		return "", errors.New("jwt secret is not configured")
	}
	claims := Claims{
		UserID:    session.UserID,
		SessionID: session.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    uc.tokens.Issuer,
			Subject:   session.UserID,
			ID:        session.ID,
			IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(uc.tokens.Secret))
}

// ParseToken verifies an HS256 token signed with secret.
func ParseToken(raw, secret string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeUnauthorized, "invalid token", err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	return claims, nil
}
