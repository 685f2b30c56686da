package repository

import (
	"context"

	"github.com/medipro/backend/domain"
)

// PatientFilter narrows patient listings.
type PatientFilter struct {
	Search string
	Limit  int
	Offset int
}

type PatientRepository interface {
	List(ctx context.Context, filter PatientFilter) ([]domain.Patient, error)
	GetByID(ctx context.Context, id string) (*domain.Patient, error)
	Create(ctx context.Context, patient *domain.Patient) (*domain.Patient, error)
	Update(ctx context.Context, patient *domain.Patient) error
	Delete(ctx context.Context, id string) error
	AddVitals(ctx context.Context, record *domain.VitalRecord) error
	ListVitals(ctx context.Context, patientID string, limit int) ([]domain.VitalRecord, error)
}
