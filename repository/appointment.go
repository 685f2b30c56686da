package repository

import (
	"context"
	"time"

	"github.com/medipro/backend/domain"
)

// AppointmentFilter narrows schedule queries to a doctor and a time window.
type AppointmentFilter struct {
	DoctorID  string
	PatientID string
	Status    string
	From      time.Time
	To        time.Time
	Limit     int
	Offset    int
}

type AppointmentRepository interface {
	List(ctx context.Context, filter AppointmentFilter) ([]domain.Appointment, error)
	GetByID(ctx context.Context, id string) (*domain.Appointment, error)
	Create(ctx context.Context, appt *domain.Appointment) (*domain.Appointment, error)
	Update(ctx context.Context, appt *domain.Appointment) error
	Delete(ctx context.Context, id string) error
	// CountByStatus aggregates appointments per status inside the window.
	CountByStatus(ctx context.Context, from, to time.Time, doctorID string) (map[string]int, error)
}
