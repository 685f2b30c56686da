package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medipro/backend/domain"
	"github.com/medipro/backend/repository"
	"github.com/medipro/backend/usecase"
)

type fakeAppointments struct {
	byID       map[string]*domain.Appointment
	lastFilter repository.AppointmentFilter
}

func newFakeAppointments() *fakeAppointments {
	return &fakeAppointments{byID: make(map[string]*domain.Appointment)}
}

func (f *fakeAppointments) List(_ context.Context, filter repository.AppointmentFilter) ([]domain.Appointment, error) {
	f.lastFilter = filter
	var out []domain.Appointment
	for _, a := range f.byID {
		out = append(out, *a)
	}
	return out, nil
}

func (f *fakeAppointments) GetByID(_ context.Context, id string) (*domain.Appointment, error) {
	a, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrAppointmentNotFound
	}
	copied := *a
	return &copied, nil
}

func (f *fakeAppointments) Create(_ context.Context, appt *domain.Appointment) (*domain.Appointment, error) {
	if appt.ID == "" {
		appt.ID = "apt-created"
	}
	f.byID[appt.ID] = appt
	return appt, nil
}

func (f *fakeAppointments) Update(_ context.Context, appt *domain.Appointment) error {
	if _, ok := f.byID[appt.ID]; !ok {
		return domain.ErrAppointmentNotFound
	}
	f.byID[appt.ID] = appt
	return nil
}

func (f *fakeAppointments) Delete(_ context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return domain.ErrAppointmentNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeAppointments) CountByStatus(context.Context, time.Time, time.Time, string) (map[string]int, error) {
	return nil, nil
}

type fakePatients struct {
	byID map[string]*domain.Patient
}

func (f *fakePatients) List(context.Context, repository.PatientFilter) ([]domain.Patient, error) {
	return nil, nil
}

func (f *fakePatients) GetByID(_ context.Context, id string) (*domain.Patient, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrPatientNotFound
	}
	return p, nil
}

func (f *fakePatients) Create(_ context.Context, p *domain.Patient) (*domain.Patient, error) {
	return p, nil
}
func (f *fakePatients) Update(context.Context, *domain.Patient) error        { return nil }
func (f *fakePatients) Delete(context.Context, string) error                 { return nil }
func (f *fakePatients) AddVitals(context.Context, *domain.VitalRecord) error { return nil }
func (f *fakePatients) ListVitals(context.Context, string, int) ([]domain.VitalRecord, error) {
	return nil, nil
}

type queuedNotice struct {
	kind      string
	recipient string
	apptID    string
}

type fakeOutbox struct {
	notices []queuedNotice
}

func (f *fakeOutbox) QueueAppointmentNotice(_ context.Context, kind, recipient string, appt *domain.Appointment) error {
	f.notices = append(f.notices, queuedNotice{kind: kind, recipient: recipient, apptID: appt.ID})
	return nil
}

func (f *fakeOutbox) QueueAccountNotice(context.Context, string, *domain.User) error {
	return nil
}

func newTestUseCase() (*UseCase, *fakeAppointments, *fakePatients, *fakeOutbox) {
	appts := newFakeAppointments()
	patients := &fakePatients{byID: map[string]*domain.Patient{
		"pat-1": {
			ID:       "pat-1",
			MRN:      "MRN-001",
			LastName: "Reyes",
			Metadata: map[string]string{"email": "reyes@example.test"},
		},
		"pat-2": {ID: "pat-2", MRN: "MRN-002", LastName: "Okafor"},
	}}
	box := &fakeOutbox{}
	return New(appts, patients, box, nil), appts, patients, box
}

func TestBookCreatesAndQueuesReminder(t *testing.T) {
	uc, appts, _, box := newTestUseCase()

	start := time.Date(2026, 9, 2, 9, 0, 0, 0, time.UTC)
	created, err := uc.Book(context.Background(), &domain.Appointment{
		PatientID: "pat-1",
		DoctorID:  "usr-d1",
		StartsAt:  start,
		Type:      domain.AppointmentFollowUp,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.AppointmentScheduled, appts.byID[created.ID].Status)
	assert.Equal(t, start.Add(30*time.Minute), created.EndsAt)

	require.Len(t, box.notices, 1)
	assert.Equal(t, usecase.NoticeAppointmentReminder, box.notices[0].kind)
	assert.Equal(t, "reyes@example.test", box.notices[0].recipient)
}

func TestBookSkipsReminderWithoutContact(t *testing.T) {
	uc, _, _, box := newTestUseCase()

	_, err := uc.Book(context.Background(), &domain.Appointment{
		PatientID: "pat-2",
		StartsAt:  time.Date(2026, 9, 2, 9, 0, 0, 0, time.UTC),
		Type:      domain.AppointmentInitial,
	})
	require.NoError(t, err)
	assert.Empty(t, box.notices)
}

func TestBookRejectsUnknownTypeAndPatient(t *testing.T) {
	uc, _, _, _ := newTestUseCase()
	ctx := context.Background()
	start := time.Date(2026, 9, 2, 9, 0, 0, 0, time.UTC)

	_, err := uc.Book(ctx, &domain.Appointment{PatientID: "pat-1", StartsAt: start, Type: "walk_in"})
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)

	_, err = uc.Book(ctx, &domain.Appointment{PatientID: "pat-absent", StartsAt: start, Type: domain.AppointmentInitial})
	assert.ErrorIs(t, err, domain.ErrPatientNotFound)
}

func TestUpdateStatusEnforcesLifecycle(t *testing.T) {
	uc, appts, _, _ := newTestUseCase()
	ctx := context.Background()
	appts.byID["apt-1"] = &domain.Appointment{ID: "apt-1", PatientID: "pat-1", Status: domain.AppointmentScheduled}

	got, err := uc.UpdateStatus(ctx, "apt-1", domain.AppointmentCheckedIn)
	require.NoError(t, err)
	assert.Equal(t, domain.AppointmentCheckedIn, got.Status)

	got, err = uc.UpdateStatus(ctx, "apt-1", domain.AppointmentCompleted)
	require.NoError(t, err)
	assert.Equal(t, domain.AppointmentCompleted, got.Status)

	_, err = uc.UpdateStatus(ctx, "apt-1", domain.AppointmentScheduled)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = uc.UpdateStatus(ctx, "apt-1", "archived")
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)
}

func TestRescheduleNotifiesPatient(t *testing.T) {
	uc, appts, _, box := newTestUseCase()
	ctx := context.Background()
	appts.byID["apt-1"] = &domain.Appointment{
		ID:        "apt-1",
		PatientID: "pat-1",
		Status:    domain.AppointmentScheduled,
		StartsAt:  time.Date(2026, 9, 2, 9, 0, 0, 0, time.UTC),
	}

	newStart := time.Date(2026, 9, 3, 14, 0, 0, 0, time.UTC)
	got, err := uc.Reschedule(ctx, "apt-1", newStart, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, newStart, got.StartsAt)
	assert.Equal(t, newStart.Add(30*time.Minute), got.EndsAt)

	require.Len(t, box.notices, 1)
	assert.Equal(t, usecase.NoticeAppointmentChanged, box.notices[0].kind)
}

func TestRescheduleRejectsClosedAppointment(t *testing.T) {
	uc, appts, _, _ := newTestUseCase()
	appts.byID["apt-1"] = &domain.Appointment{ID: "apt-1", PatientID: "pat-1", Status: domain.AppointmentCompleted}

	_, err := uc.Reschedule(context.Background(), "apt-1", time.Date(2026, 9, 3, 14, 0, 0, 0, time.UTC), time.Time{})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestDayScheduleWindow(t *testing.T) {
	uc, appts, _, _ := newTestUseCase()

	day := time.Date(2026, 9, 2, 15, 30, 0, 0, time.UTC)
	_, err := uc.DaySchedule(context.Background(), "usr-d1", day)
	require.NoError(t, err)

	assert.Equal(t, "usr-d1", appts.lastFilter.DoctorID)
	assert.Equal(t, time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC), appts.lastFilter.From)
	assert.Equal(t, time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC), appts.lastFilter.To)
}

func TestWeekScheduleStartsMonday(t *testing.T) {
	uc, appts, _, _ := newTestUseCase()

	// 2026-09-02 is a Wednesday.
	day := time.Date(2026, 9, 2, 15, 30, 0, 0, time.UTC)
	_, err := uc.WeekSchedule(context.Background(), "", day)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC), appts.lastFilter.From)
	assert.Equal(t, time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC), appts.lastFilter.To)

	// A Sunday belongs to the week that began the previous Monday.
	sunday := time.Date(2026, 9, 6, 10, 0, 0, 0, time.UTC)
	_, err = uc.WeekSchedule(context.Background(), "", sunday)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC), appts.lastFilter.From)
}
