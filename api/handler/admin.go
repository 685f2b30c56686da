package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/medipro/backend/api/transport"
	"github.com/medipro/backend/domain"
	"github.com/medipro/backend/pkg/httpcontext"
	adminUC "github.com/medipro/backend/usecase/admin"
)

type AdminHandler struct {
	baseHandler
	uc *adminUC.UseCase
}

func NewAdminHandler(uc *adminUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List users
// @Tags admin
// @Router /api/v1/admin/users [get]
func (h *AdminHandler) ListUsers(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	users, err := h.uc.ListUsers(stdCtx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, users)
}

// @Summary Invite a user
// @Tags admin
// @Router /api/v1/admin/users [post]
func (h *AdminHandler) InviteUser(ctx *fasthttp.RequestCtx) {
	var req transport.InviteUserRequest
	if !h.parseBody(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, err := h.uc.InviteUser(stdCtx, req.Email, req.Password, req.DisplayName, domain.Role(req.Role))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, user)
}

// @Summary Change a user's role
// @Tags admin
// @Router /api/v1/admin/users/{id}/role [put]
func (h *AdminHandler) SetRole(ctx *fasthttp.RequestCtx) {
	id, ok := h.userPathID(ctx)
	if !ok {
		return
	}

	var req transport.SetRoleRequest
	if !h.parseBody(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, err := h.uc.SetRole(stdCtx, id, domain.Role(req.Role))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, user)
}

// @Summary Activate or deactivate a user
// @Tags admin
// @Router /api/v1/admin/users/{id}/active [put]
func (h *AdminHandler) SetActive(ctx *fasthttp.RequestCtx) {
	id, ok := h.userPathID(ctx)
	if !ok {
		return
	}

	var req transport.SetActiveRequest
	if !h.parseBody(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, err := h.uc.SetActive(stdCtx, id, req.Active)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, user)
}

// @Summary Remove a user
// @Tags admin
// @Router /api/v1/admin/users/{id} [delete]
func (h *AdminHandler) RemoveUser(ctx *fasthttp.RequestCtx) {
	id, ok := h.userPathID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.RemoveUser(stdCtx, id); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusNoContent, nil)
}

func (h *AdminHandler) userPathID(ctx *fasthttp.RequestCtx) (string, bool) {
	id, _ := ctx.UserValue("id").(string)
	if id == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "missing user id", nil))
		return "", false
	}
	return id, true
}
