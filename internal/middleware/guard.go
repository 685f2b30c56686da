// Package middleware adapts the route guard to HTTP: a bearer token is
// verified, resolved to a full identity record, and evaluated against the
// route's role requirement before the handler runs.
package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/medipro/backend/api/transport"
	"github.com/medipro/backend/domain"
	"github.com/medipro/backend/internal/guard"
)

// IdentityKey is the request user-value under which the resolved identity
// is stored for handlers.
const IdentityKey = "identity"

// Directory resolves a verified principal to the full identity record.
type Directory interface {
	ResolveByPrincipal(ctx context.Context, principalID string) (*domain.User, error)
}

// IdentityFrom returns the identity attached by the guard middleware.
func IdentityFrom(ctx *fasthttp.RequestCtx) *domain.User {
	user, _ := ctx.UserValue(IdentityKey).(*domain.User)
	return user
}

// Guard verifies the bearer token (HS256, the auth provider's signing
// secret), resolves the identity, and admits the request only when the
// route's requirement is satisfied. Token problems, unknown principals and
// inactive accounts all evaluate as "no session".
func Guard(secret string, directory Directory, req guard.Requirement, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			user := resolveIdentity(ctx, secret, directory, logger)

			path := string(ctx.Path())
			decision := guard.Evaluate(domain.Session{User: user}, req, path)

			switch decision.State {
			case guard.StateAuthorized:
				ctx.SetUserValue(IdentityKey, user)
				next(ctx)
			case guard.StateForbidden:
				respond(ctx, fasthttp.StatusForbidden, transport.NewError(
					string(domain.ErrCodeForbidden),
					"access denied",
					map[string]string{"from": decision.From},
				))
			default:
				respond(ctx, fasthttp.StatusUnauthorized, transport.NewError(
					string(domain.ErrCodeUnauthorized),
					"authentication required",
					map[string]string{
						"login": decision.RedirectTo,
						"next":  decision.From,
					},
				))
			}
		}
	}
}

func resolveIdentity(ctx *fasthttp.RequestCtx, secret string, directory Directory, logger *zap.Logger) *domain.User {
	tokenString := extractToken(ctx)
	if tokenString == "" {
		return nil
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		logger.Debug("rejected bearer token", zap.Error(err))
		return nil
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil
	}
	principalID, _ := claims["sub"].(string)
	if principalID == "" {
		return nil
	}

	reqCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	user, err := directory.ResolveByPrincipal(reqCtx, principalID)
	if err != nil {
		if !domain.IsDomainError(err, domain.ErrCodeNotFound) {
			logger.Warn("identity resolution failed", zap.String("principal_id", principalID), zap.Error(err))
		}
		return nil
	}
	if !user.IsActive() {
		return nil
	}
	return user
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

func respond(ctx *fasthttp.RequestCtx, status int, payload transport.Envelope) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	body, _ := json.Marshal(payload)
	ctx.SetBody(body)
}
