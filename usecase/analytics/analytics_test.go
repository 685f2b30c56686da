package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medipro/backend/domain"
	"github.com/medipro/backend/repository"
)

type fakeAppointments struct {
	counts       map[string]int
	lastFrom     time.Time
	lastTo       time.Time
	lastDoctorID string
}

func (f *fakeAppointments) List(context.Context, repository.AppointmentFilter) ([]domain.Appointment, error) {
	return nil, nil
}
func (f *fakeAppointments) GetByID(context.Context, string) (*domain.Appointment, error) {
	return nil, domain.ErrAppointmentNotFound
}
func (f *fakeAppointments) Create(_ context.Context, a *domain.Appointment) (*domain.Appointment, error) {
	return a, nil
}
func (f *fakeAppointments) Update(context.Context, *domain.Appointment) error { return nil }
func (f *fakeAppointments) Delete(context.Context, string) error              { return nil }

func (f *fakeAppointments) CountByStatus(_ context.Context, from, to time.Time, doctorID string) (map[string]int, error) {
	f.lastFrom, f.lastTo, f.lastDoctorID = from, to, doctorID
	return f.counts, nil
}

func TestDailyOverviewComputesRates(t *testing.T) {
	repo := &fakeAppointments{counts: map[string]int{
		domain.AppointmentScheduled: 4,
		domain.AppointmentCompleted: 3,
		domain.AppointmentNoShow:    1,
	}}
	uc := New(repo, nil)

	day := time.Date(2026, 9, 2, 11, 45, 0, 0, time.UTC)
	ov, err := uc.DailyOverview(context.Background(), "usr-d1", day)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC), repo.lastFrom)
	assert.Equal(t, time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC), repo.lastTo)
	assert.Equal(t, "usr-d1", repo.lastDoctorID)

	assert.Equal(t, 8, ov.Total)
	assert.InDelta(t, 0.75, ov.CompletionRate, 0.001)
	assert.InDelta(t, 0.25, ov.NoShowRate, 0.001)
}

func TestOverviewWithOnlyOpenVisits(t *testing.T) {
	repo := &fakeAppointments{counts: map[string]int{domain.AppointmentScheduled: 5}}
	uc := New(repo, nil)

	ov, err := uc.DailyOverview(context.Background(), "", time.Now())
	require.NoError(t, err)

	assert.Equal(t, 5, ov.Total)
	assert.Zero(t, ov.CompletionRate)
	assert.Zero(t, ov.NoShowRate)
}

func TestRangeOverviewRejectsEmptyWindow(t *testing.T) {
	uc := New(&fakeAppointments{}, nil)
	now := time.Now()

	_, err := uc.RangeOverview(context.Background(), "", now, now)
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)

	_, err = uc.RangeOverview(context.Background(), "", time.Time{}, now)
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)
}
