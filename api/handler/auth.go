package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/medipro/backend/api/transport"
	"github.com/medipro/backend/internal/infrastructure/credstore"
	"github.com/medipro/backend/pkg/httpcontext"
	sessionUC "github.com/medipro/backend/usecase/session"
)

type AuthHandler struct {
	baseHandler
	sessions *sessionUC.Provider
	creds    *credstore.Client
}

func NewAuthHandler(sessions *sessionUC.Provider, creds *credstore.Client, adapter *httpcontext.Adapter, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		sessions:    sessions,
		creds:       creds,
	}
}

// @Summary Sign in with email and password
// @Tags auth
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(ctx *fasthttp.RequestCtx) {
	var req transport.LoginRequest
	if !h.parseBody(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, err := h.sessions.Login(stdCtx, req.Email, req.Password)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, user)
}

// @Summary Sign out the current session
// @Tags auth
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	// The local session is cleared even when the remote call failed, so
	// the client always ends up signed out.
	if err := h.sessions.Logout(stdCtx); err != nil {
		h.logger.Warn("remote sign-out failed", zap.Error(err))
	}
	h.respondSuccess(ctx, http.StatusOK, nil)
}

// @Summary Current session
// @Tags auth
// @Router /api/v1/auth/session [get]
func (h *AuthHandler) Session(ctx *fasthttp.RequestCtx) {
	h.respondSuccess(ctx, http.StatusOK, h.sessions.Current())
}

// @Summary Request a password reset email
// @Tags auth
// @Router /api/v1/auth/recover [post]
func (h *AuthHandler) RequestPasswordReset(ctx *fasthttp.RequestCtx) {
	var req transport.PasswordResetRequest
	if !h.parseBody(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.creds.RequestPasswordReset(stdCtx, req.Email); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, nil)
}

// @Summary Update the password of the authenticated session
// @Tags auth
// @Router /api/v1/auth/password [put]
func (h *AuthHandler) UpdatePassword(ctx *fasthttp.RequestCtx) {
	var req transport.PasswordUpdateRequest
	if !h.parseBody(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.creds.UpdatePassword(stdCtx, req.Password); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, nil)
}
