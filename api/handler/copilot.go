package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/medipro/backend/api/transport"
	"github.com/medipro/backend/domain"
	"github.com/medipro/backend/pkg/httpcontext"
	copilotUC "github.com/medipro/backend/usecase/copilot"
	patientUC "github.com/medipro/backend/usecase/patient"
)

type CopilotHandler struct {
	baseHandler
	uc       *copilotUC.UseCase
	patients *patientUC.UseCase
}

func NewCopilotHandler(uc *copilotUC.UseCase, patients *patientUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *CopilotHandler {
	return &CopilotHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
		patients:    patients,
	}
}

// @Summary Generate a SOAP note from an encounter transcript
// @Tags copilot
// @Router /api/v1/copilot/soap-note [post]
func (h *CopilotHandler) SOAPNote(ctx *fasthttp.RequestCtx) {
	var req transport.SOAPNoteRequest
	if !h.parseBody(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	note, err := h.uc.GenerateSOAPNote(stdCtx, req.Transcript)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]string{"note": note})
}

// @Summary Clinical copilot chat
// @Tags copilot
// @Router /api/v1/copilot/chat [post]
func (h *CopilotHandler) Chat(ctx *fasthttp.RequestCtx) {
	var req transport.CopilotChatRequest
	if !h.parseBody(ctx, &req) {
		return
	}

	history := make([]copilotUC.Turn, 0, len(req.History))
	for _, turn := range req.History {
		history = append(history, copilotUC.Turn{Role: turn.Role, Content: turn.Content})
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	answer, err := h.uc.Chat(stdCtx, history, req.Message)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]string{"answer": answer})
}

// @Summary Analyze a patient's recent vitals
// @Tags copilot
// @Router /api/v1/copilot/patients/{id}/vitals-analysis [post]
func (h *CopilotHandler) AnalyzeVitals(ctx *fasthttp.RequestCtx) {
	patientID, _ := ctx.UserValue("id").(string)
	if patientID == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "missing patient id", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	records, err := h.patients.ListVitals(stdCtx, patientID, 20)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	analysis, err := h.uc.AnalyzeVitals(stdCtx, records)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]string{"analysis": analysis})
}
