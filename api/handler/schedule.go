package handler

import (
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/medipro/backend/api/transport"
	"github.com/medipro/backend/domain"
	"github.com/medipro/backend/internal/middleware"
	"github.com/medipro/backend/pkg/httpcontext"
	"github.com/medipro/backend/repository"
	scheduleUC "github.com/medipro/backend/usecase/schedule"
)

type ScheduleHandler struct {
	baseHandler
	uc *scheduleUC.UseCase
}

func NewScheduleHandler(uc *scheduleUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List appointments
// @Tags schedule
// @Router /api/v1/appointments [get]
func (h *ScheduleHandler) List(ctx *fasthttp.RequestCtx) {
	args := ctx.QueryArgs()

	view := string(args.Peek("view"))
	doctorID := h.doctorScope(ctx, string(args.Peek("doctor_id")))
	at := parseTime(string(args.Peek("date")), time.Now())

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	var (
		appts []domain.Appointment
		err   error
	)
	switch view {
	case "day":
		appts, err = h.uc.DaySchedule(stdCtx, doctorID, at)
	case "week":
		appts, err = h.uc.WeekSchedule(stdCtx, doctorID, at)
	default:
		appts, err = h.uc.ListAppointments(stdCtx, repository.AppointmentFilter{
			DoctorID:  doctorID,
			PatientID: string(args.Peek("patient_id")),
			Status:    string(args.Peek("status")),
			From:      parseTime(string(args.Peek("from")), time.Time{}),
			To:        parseTime(string(args.Peek("to")), time.Time{}),
			Limit:     parseInt(string(args.Peek("limit")), 0),
			Offset:    parseInt(string(args.Peek("offset")), 0),
		})
	}
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, appts)
}

// @Summary Get an appointment
// @Tags schedule
// @Router /api/v1/appointments/{id} [get]
func (h *ScheduleHandler) Get(ctx *fasthttp.RequestCtx) {
	id, ok := h.apptID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	appt, err := h.uc.GetAppointment(stdCtx, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, appt)
}

// @Summary Book an appointment
// @Tags schedule
// @Router /api/v1/appointments [post]
func (h *ScheduleHandler) Book(ctx *fasthttp.RequestCtx) {
	var req transport.AppointmentRequest
	if !h.parseBody(ctx, &req) {
		return
	}

	appt := &domain.Appointment{
		PatientID: req.PatientID,
		DoctorID:  req.DoctorID,
		StartsAt:  parseTime(req.StartsAt, time.Time{}),
		EndsAt:    parseTime(req.EndsAt, time.Time{}),
		Type:      req.Type,
		Notes:     req.Notes,
		Metadata:  req.Metadata,
	}
	if appt.DoctorID == "" {
		// Doctors book into their own schedule by default.
		if identity := middleware.IdentityFrom(ctx); identity != nil {
			appt.DoctorID = identity.ID
		}
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.Book(stdCtx, appt)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Change appointment status
// @Tags schedule
// @Router /api/v1/appointments/{id}/status [put]
func (h *ScheduleHandler) UpdateStatus(ctx *fasthttp.RequestCtx) {
	id, ok := h.apptID(ctx)
	if !ok {
		return
	}

	var req transport.AppointmentStatusRequest
	if !h.parseBody(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	appt, err := h.uc.UpdateStatus(stdCtx, id, req.Status)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, appt)
}

// @Summary Reschedule an appointment
// @Tags schedule
// @Router /api/v1/appointments/{id}/reschedule [put]
func (h *ScheduleHandler) Reschedule(ctx *fasthttp.RequestCtx) {
	id, ok := h.apptID(ctx)
	if !ok {
		return
	}

	var req transport.RescheduleRequest
	if !h.parseBody(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	appt, err := h.uc.Reschedule(stdCtx, id, parseTime(req.StartsAt, time.Time{}), parseTime(req.EndsAt, time.Time{}))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, appt)
}

// @Summary Cancel an appointment
// @Tags schedule
// @Router /api/v1/appointments/{id} [delete]
func (h *ScheduleHandler) Cancel(ctx *fasthttp.RequestCtx) {
	id, ok := h.apptID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.Cancel(stdCtx, id); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusNoContent, nil)
}

// doctorScope restricts doctors to their own schedule; admins may query
// any doctor's.
func (h *ScheduleHandler) doctorScope(ctx *fasthttp.RequestCtx, requested string) string {
	identity := middleware.IdentityFrom(ctx)
	if identity == nil || identity.IsAdmin() {
		return requested
	}
	return identity.ID
}

func (h *ScheduleHandler) apptID(ctx *fasthttp.RequestCtx) (string, bool) {
	id, _ := ctx.UserValue("id").(string)
	if id == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "missing appointment id", nil))
		return "", false
	}
	return id, true
}

func parseTime(value string, fallback time.Time) time.Time {
	if value == "" {
		return fallback
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed
	}
	if parsed, err := time.Parse("2006-01-02", value); err == nil {
		return parsed
	}
	return fallback
}
