package schedule

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/medipro/backend/domain"
	"github.com/medipro/backend/repository"
	"github.com/medipro/backend/usecase"
)

const defaultSlot = 30 * time.Minute

type UseCase struct {
	appointments repository.AppointmentRepository
	patients     repository.PatientRepository
	outbox       usecase.NotificationOutbox
	logger       *zap.Logger
}

func New(
	appointments repository.AppointmentRepository,
	patients repository.PatientRepository,
	notifications usecase.NotificationOutbox,
	logger *zap.Logger,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		appointments: appointments,
		patients:     patients,
		outbox:       notifications,
		logger:       logger,
	}
}

func (uc *UseCase) ListAppointments(ctx context.Context, filter repository.AppointmentFilter) ([]domain.Appointment, error) {
	return uc.appointments.List(ctx, filter)
}

func (uc *UseCase) GetAppointment(ctx context.Context, id string) (*domain.Appointment, error) {
	return uc.appointments.GetByID(ctx, id)
}

// DaySchedule returns the appointments starting on the calendar day of
// the given instant, in the instant's location.
func (uc *UseCase) DaySchedule(ctx context.Context, doctorID string, day time.Time) ([]domain.Appointment, error) {
	from, to := dayWindow(day)
	return uc.appointments.List(ctx, repository.AppointmentFilter{
		DoctorID: doctorID,
		From:     from,
		To:       to,
	})
}

// WeekSchedule returns the appointments of the Monday-start week that
// contains the given instant.
func (uc *UseCase) WeekSchedule(ctx context.Context, doctorID string, day time.Time) ([]domain.Appointment, error) {
	from, to := weekWindow(day)
	return uc.appointments.List(ctx, repository.AppointmentFilter{
		DoctorID: doctorID,
		From:     from,
		To:       to,
	})
}

// Book validates and creates an appointment, then queues a reminder for
// the patient when a contact address is on record.
func (uc *UseCase) Book(ctx context.Context, appt *domain.Appointment) (*domain.Appointment, error) {
	if appt == nil || appt.PatientID == "" || appt.StartsAt.IsZero() {
		return nil, domain.ErrInvalidPayload
	}
	if !domain.ValidAppointmentType(appt.Type) {
		return nil, domain.ErrInvalidPayload
	}
	if appt.EndsAt.IsZero() {
		appt.EndsAt = appt.StartsAt.Add(defaultSlot)
	}
	if !appt.EndsAt.After(appt.StartsAt) {
		return nil, domain.ErrInvalidPayload
	}

	patient, err := uc.patients.GetByID(ctx, appt.PatientID)
	if err != nil {
		return nil, err
	}

	created, err := uc.appointments.Create(ctx, appt)
	if err != nil {
		return nil, err
	}

	uc.queueReminder(ctx, patient, created)
	return created, nil
}

// UpdateStatus enforces the visit lifecycle: completed and no-show are
// terminal, checked-in only follows scheduled.
func (uc *UseCase) UpdateStatus(ctx context.Context, id, status string) (*domain.Appointment, error) {
	if !domain.ValidAppointmentStatus(status) {
		return nil, domain.ErrInvalidPayload
	}

	appt, err := uc.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(appt.Status, status) {
		return nil, domain.ErrInvalidTransition
	}

	appt.Status = status
	if err := uc.appointments.Update(ctx, appt); err != nil {
		return nil, err
	}
	return appt, nil
}

// Reschedule moves an open appointment to a new slot and notifies the
// patient of the change.
func (uc *UseCase) Reschedule(ctx context.Context, id string, startsAt, endsAt time.Time) (*domain.Appointment, error) {
	if startsAt.IsZero() {
		return nil, domain.ErrInvalidPayload
	}
	if endsAt.IsZero() {
		endsAt = startsAt.Add(defaultSlot)
	}
	if !endsAt.After(startsAt) {
		return nil, domain.ErrInvalidPayload
	}

	appt, err := uc.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !appt.IsOpen() {
		return nil, domain.ErrInvalidTransition
	}

	appt.StartsAt = startsAt
	appt.EndsAt = endsAt
	if err := uc.appointments.Update(ctx, appt); err != nil {
		return nil, err
	}

	if patient, err := uc.patients.GetByID(ctx, appt.PatientID); err == nil {
		uc.queueNotice(ctx, usecase.NoticeAppointmentChanged, patient, appt)
	}
	return appt, nil
}

func (uc *UseCase) Cancel(ctx context.Context, id string) error {
	return uc.appointments.Delete(ctx, id)
}

func (uc *UseCase) queueReminder(ctx context.Context, patient *domain.Patient, appt *domain.Appointment) {
	uc.queueNotice(ctx, usecase.NoticeAppointmentReminder, patient, appt)
}

func (uc *UseCase) queueNotice(ctx context.Context, kind string, patient *domain.Patient, appt *domain.Appointment) {
	if uc.outbox == nil || patient == nil {
		return
	}
	recipient := patient.Metadata["email"]
	if recipient == "" {
		return
	}
	if err := uc.outbox.QueueAppointmentNotice(ctx, kind, recipient, appt); err != nil {
		uc.logger.Error("failed to queue appointment notice",
			zap.String("kind", kind),
			zap.String("appointment_id", appt.ID),
			zap.Error(err))
	}
}

// dayWindow returns [midnight, next midnight) around t in t's location.
func dayWindow(t time.Time) (time.Time, time.Time) {
	from := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return from, from.AddDate(0, 0, 1)
}

// weekWindow returns the Monday-start week containing t.
func weekWindow(t time.Time) (time.Time, time.Time) {
	midnight, _ := dayWindow(t)
	offset := (int(midnight.Weekday()) + 6) % 7
	from := midnight.AddDate(0, 0, -offset)
	return from, from.AddDate(0, 0, 7)
}
