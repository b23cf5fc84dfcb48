package middleware

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/planner/api/transport"
	"github.com/fastygo/planner/domain"
	authUC "github.com/fastygo/planner/usecase/auth"
)

const (
	HeaderUserID    = "X-User-ID"
	HeaderSessionID = "X-Session-ID"
)

// SessionChecker confirms that the session behind a token was not revoked.
type SessionChecker interface {
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)
}

// JWTAuth verifies the bearer token and exposes its user and session ids as
// request headers. sessions may be nil to skip the revocation check.
func JWTAuth(secret string, sessions SessionChecker, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			// Never trust identity headers sent by the client.
			ctx.Request.Header.Del(HeaderUserID)
			ctx.Request.Header.Del(HeaderSessionID)

			tokenString := extractToken(ctx)
			if tokenString == "" {
				unauthorized(ctx, "missing token")
				return
			}

			claims, err := authUC.ParseToken(tokenString, secret)
			if err != nil {
				logger.Warn("invalid jwt token", zap.Error(err))
				unauthorized(ctx, "invalid token")
				return
			}

			if sessions != nil {
				checkCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				_, err := sessions.GetSession(checkCtx, claims.SessionID)
				cancel()
				if err != nil {
					if domain.IsDomainError(err, domain.ErrCodeUnavailable) {
						logger.Error("session store unavailable", zap.Error(err))
					}
					unauthorized(ctx, "session expired")
					return
				}
			}

			ctx.Request.Header.Set(HeaderUserID, claims.UserID)
			ctx.Request.Header.Set(HeaderSessionID, claims.SessionID)
			next(ctx)
		}
	}
}

func unauthorized(ctx *fasthttp.RequestCtx, message string) {
	body, _ := json.Marshal(transport.NewError(string(domain.ErrCodeUnauthorized), message))
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(fasthttp.StatusUnauthorized)
	ctx.SetBody(body)
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := string(ctx.Request.Header.Peek("Authorization"))
	if header == "" {
		return ""
	}
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return header
}
