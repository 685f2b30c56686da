package middleware

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/medipro/backend/domain"
	"github.com/medipro/backend/internal/guard"
)

const testSecret = "unit-test-signing-secret"

type fakeDirectory struct {
	users map[string]*domain.User
}

func (f *fakeDirectory) ResolveByPrincipal(_ context.Context, principalID string) (*domain.User, error) {
	user, ok := f.users[principalID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

func signToken(t *testing.T, secret, sub string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func newDirectory() *fakeDirectory {
	return &fakeDirectory{users: map[string]*domain.User{
		"p-doctor": {ID: "usr-1", PrincipalID: "p-doctor", Role: domain.RoleDoctor, Active: true},
		"p-admin":  {ID: "usr-2", PrincipalID: "p-admin", Role: domain.RoleAdmin, Active: true},
		"p-gone":   {ID: "usr-3", PrincipalID: "p-gone", Role: domain.RoleDoctor, Active: false},
	}}
}

func runGuard(t *testing.T, req guard.Requirement, token, path string) (*fasthttp.RequestCtx, bool, *domain.User) {
	t.Helper()

	var handled bool
	var identity *domain.User
	handler := Guard(testSecret, newDirectory(), req, nil)(func(ctx *fasthttp.RequestCtx) {
		handled = true
		identity = IdentityFrom(ctx)
		ctx.SetStatusCode(fasthttp.StatusOK)
	})

	ctx := &fasthttp.RequestCtx{}
	ctx.Request.SetRequestURI(path)
	if token != "" {
		ctx.Request.Header.Set("Authorization", "Bearer "+token)
	}
	handler(ctx)
	return ctx, handled, identity
}

func decodeEnvelope(t *testing.T, ctx *fasthttp.RequestCtx) map[string]interface{} {
	t.Helper()
	var envelope struct {
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &envelope))
	return envelope.Meta
}

func TestGuardMissingTokenRedirectsToLogin(t *testing.T) {
	ctx, handled, _ := runGuard(t, guard.RequireDoctor, "", "/patients")

	assert.False(t, handled)
	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())

	meta := decodeEnvelope(t, ctx)
	assert.Equal(t, guard.LoginPath, meta["login"])
	assert.Equal(t, "/patients", meta["next"])
}

func TestGuardAdmitsDoctorOnDoctorRoute(t *testing.T) {
	token := signToken(t, testSecret, "p-doctor")
	ctx, handled, identity := runGuard(t, guard.RequireDoctor, token, "/patients")

	assert.True(t, handled)
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	require.NotNil(t, identity)
	assert.Equal(t, "usr-1", identity.ID)
}

func TestGuardForbidsDoctorOnAdminRoute(t *testing.T) {
	token := signToken(t, testSecret, "p-doctor")
	ctx, handled, _ := runGuard(t, guard.RequireAdmin, token, "/admin/users")

	assert.False(t, handled)
	assert.Equal(t, fasthttp.StatusForbidden, ctx.Response.StatusCode())
}

func TestGuardAdmitsAdminOnDoctorRoute(t *testing.T) {
	token := signToken(t, testSecret, "p-admin")
	_, handled, identity := runGuard(t, guard.RequireDoctor, token, "/patients")

	assert.True(t, handled)
	require.NotNil(t, identity)
	assert.True(t, identity.IsAdmin())
}

func TestGuardTreatsInactiveAccountAsNoSession(t *testing.T) {
	token := signToken(t, testSecret, "p-gone")
	ctx, handled, _ := runGuard(t, guard.RequireDoctor, token, "/patients")

	assert.False(t, handled)
	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
}

func TestGuardRejectsForgedToken(t *testing.T) {
	token := signToken(t, "some-other-secret", "p-admin")
	ctx, handled, _ := runGuard(t, guard.RequireAdmin, token, "/admin/users")

	assert.False(t, handled)
	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
}

func TestGuardRejectsUnknownPrincipal(t *testing.T) {
	token := signToken(t, testSecret, "p-stranger")
	ctx, handled, _ := runGuard(t, guard.RequireDoctor, token, "/patients")

	assert.False(t, handled)
	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
}
