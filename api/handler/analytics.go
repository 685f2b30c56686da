package handler

import (
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/medipro/backend/internal/middleware"
	"github.com/medipro/backend/pkg/httpcontext"
	analyticsUC "github.com/medipro/backend/usecase/analytics"
)

type AnalyticsHandler struct {
	baseHandler
	uc *analyticsUC.UseCase
}

func NewAnalyticsHandler(uc *analyticsUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Appointment overview for a date range
// @Tags analytics
// @Router /api/v1/analytics/overview [get]
func (h *AnalyticsHandler) Overview(ctx *fasthttp.RequestCtx) {
	args := ctx.QueryArgs()

	doctorID := string(args.Peek("doctor_id"))
	if identity := middleware.IdentityFrom(ctx); identity != nil && !identity.IsAdmin() {
		doctorID = identity.ID
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	from := parseTime(string(args.Peek("from")), time.Time{})
	to := parseTime(string(args.Peek("to")), time.Time{})

	if from.IsZero() {
		overview, err := h.uc.DailyOverview(stdCtx, doctorID, time.Now())
		if err != nil {
			h.respondError(ctx, err)
			return
		}
		h.respondSuccess(ctx, http.StatusOK, overview)
		return
	}

	overview, err := h.uc.RangeOverview(stdCtx, doctorID, from, to)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, overview)
}
