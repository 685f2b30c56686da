package patient

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/medipro/backend/domain"
	"github.com/medipro/backend/repository"
)

type UseCase struct {
	patients repository.PatientRepository
	logger   *zap.Logger
}

func New(patients repository.PatientRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		patients: patients,
		logger:   logger,
	}
}

func (uc *UseCase) ListPatients(ctx context.Context, filter repository.PatientFilter) ([]domain.Patient, error) {
	return uc.patients.List(ctx, filter)
}

func (uc *UseCase) GetPatient(ctx context.Context, id string) (*domain.Patient, error) {
	return uc.patients.GetByID(ctx, id)
}

func (uc *UseCase) CreatePatient(ctx context.Context, patient *domain.Patient) (*domain.Patient, error) {
	if patient == nil || patient.MRN == "" || patient.LastName == "" {
		return nil, domain.ErrInvalidPayload
	}
	created, err := uc.patients.Create(ctx, patient)
	if err != nil {
		return nil, err
	}
	uc.logger.Info("patient created", zap.String("patient_id", created.ID), zap.String("mrn", created.MRN))
	return created, nil
}

func (uc *UseCase) UpdatePatient(ctx context.Context, patient *domain.Patient) (*domain.Patient, error) {
	if err := uc.patients.Update(ctx, patient); err != nil {
		return nil, err
	}
	return patient, nil
}

func (uc *UseCase) DeletePatient(ctx context.Context, id string) error {
	return uc.patients.Delete(ctx, id)
}

// RecordVitals stores a vitals reading and stamps the patient's last visit.
func (uc *UseCase) RecordVitals(ctx context.Context, record *domain.VitalRecord) error {
	if record == nil || record.PatientID == "" {
		return domain.ErrInvalidPayload
	}
	if err := uc.patients.AddVitals(ctx, record); err != nil {
		return err
	}

	patient, err := uc.patients.GetByID(ctx, record.PatientID)
	if err != nil {
		return err
	}
	visited := record.RecordedAt
	if visited.IsZero() {
		visited = time.Now()
	}
	patient.LastVisit = &visited
	if err := uc.patients.Update(ctx, patient); err != nil {
		uc.logger.Warn("failed to stamp last visit", zap.String("patient_id", patient.ID), zap.Error(err))
	}
	return nil
}

func (uc *UseCase) ListVitals(ctx context.Context, patientID string, limit int) ([]domain.VitalRecord, error) {
	return uc.patients.ListVitals(ctx, patientID, limit)
}
