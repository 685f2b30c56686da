package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/medipro/backend/api/transport"
	"github.com/medipro/backend/domain"
	"github.com/medipro/backend/pkg/httpcontext"
	"github.com/medipro/backend/repository"
	patientUC "github.com/medipro/backend/usecase/patient"
)

type PatientHandler struct {
	baseHandler
	uc *patientUC.UseCase
}

func NewPatientHandler(uc *patientUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *PatientHandler {
	return &PatientHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List patients
// @Tags patients
// @Router /api/v1/patients [get]
func (h *PatientHandler) List(ctx *fasthttp.RequestCtx) {
	filter := repository.PatientFilter{
		Search: string(ctx.QueryArgs().Peek("search")),
		Limit:  parseInt(string(ctx.QueryArgs().Peek("limit")), 50),
		Offset: parseInt(string(ctx.QueryArgs().Peek("offset")), 0),
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	patients, err := h.uc.ListPatients(stdCtx, filter)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, patients)
}

// @Summary Get a patient
// @Tags patients
// @Router /api/v1/patients/{id} [get]
func (h *PatientHandler) Get(ctx *fasthttp.RequestCtx) {
	id, ok := h.pathID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	patient, err := h.uc.GetPatient(stdCtx, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, patient)
}

// @Summary Create a patient
// @Tags patients
// @Router /api/v1/patients [post]
func (h *PatientHandler) Create(ctx *fasthttp.RequestCtx) {
	patient, ok := h.parsePatient(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.CreatePatient(stdCtx, patient)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Update a patient
// @Tags patients
// @Router /api/v1/patients/{id} [put]
func (h *PatientHandler) Update(ctx *fasthttp.RequestCtx) {
	patient, ok := h.parsePatient(ctx)
	if !ok {
		return
	}
	if patient.ID == "" {
		if id, ok := ctx.UserValue("id").(string); ok {
			patient.ID = id
		}
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.UpdatePatient(stdCtx, patient)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Delete a patient
// @Tags patients
// @Router /api/v1/patients/{id} [delete]
func (h *PatientHandler) Delete(ctx *fasthttp.RequestCtx) {
	id, ok := h.pathID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.DeletePatient(stdCtx, id); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusNoContent, nil)
}

// @Summary Record a vitals reading
// @Tags patients
// @Router /api/v1/patients/{id}/vitals [post]
func (h *PatientHandler) RecordVitals(ctx *fasthttp.RequestCtx) {
	id, ok := h.pathID(ctx)
	if !ok {
		return
	}

	var req transport.VitalsRequest
	if !h.parseBody(ctx, &req) {
		return
	}

	record := &domain.VitalRecord{
		PatientID:     id,
		BloodPressure: req.BloodPressure,
		HeartRate:     req.HeartRate,
		Temperature:   req.Temperature,
		OxygenSat:     req.OxygenSat,
		Weight:        req.Weight,
	}
	if req.RecordedAt != "" {
		if parsed, err := time.Parse(time.RFC3339, req.RecordedAt); err == nil {
			record.RecordedAt = parsed
		}
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.RecordVitals(stdCtx, record); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, record)
}

// @Summary List recent vitals
// @Tags patients
// @Router /api/v1/patients/{id}/vitals [get]
func (h *PatientHandler) ListVitals(ctx *fasthttp.RequestCtx) {
	id, ok := h.pathID(ctx)
	if !ok {
		return
	}
	limit := parseInt(string(ctx.QueryArgs().Peek("limit")), 20)

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	records, err := h.uc.ListVitals(stdCtx, id, limit)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, records)
}

func (h *PatientHandler) parsePatient(ctx *fasthttp.RequestCtx) (*domain.Patient, bool) {
	var req transport.PatientRequest
	if !h.parseBody(ctx, &req) {
		return nil, false
	}

	patient := &domain.Patient{
		ID:          req.ID,
		MRN:         req.MRN,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Gender:      req.Gender,
		Allergies:   req.Allergies,
		Medications: req.Medications,
		Conditions:  req.Conditions,
		Metadata:    req.Metadata,
	}
	if req.DateOfBirth != "" {
		if parsed, err := time.Parse("2006-01-02", req.DateOfBirth); err == nil {
			patient.DateOfBirth = parsed
		}
	}
	return patient, true
}

func (h *PatientHandler) pathID(ctx *fasthttp.RequestCtx) (string, bool) {
	id, _ := ctx.UserValue("id").(string)
	if id == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "missing patient id", nil))
		return "", false
	}
	return id, true
}

func parseInt(value string, fallback int) int {
	if v, err := strconv.Atoi(value); err == nil {
		return v
	}
	return fallback
}
