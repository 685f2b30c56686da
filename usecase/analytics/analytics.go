package analytics

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/medipro/backend/domain"
	"github.com/medipro/backend/repository"
)

// Overview aggregates appointment outcomes over a reporting window.
type Overview struct {
	From           time.Time      `json:"from"`
	To             time.Time      `json:"to"`
	Total          int            `json:"total"`
	ByStatus       map[string]int `json:"by_status"`
	CompletionRate float64        `json:"completion_rate"`
	NoShowRate     float64        `json:"no_show_rate"`
}

type UseCase struct {
	appointments repository.AppointmentRepository
	logger       *zap.Logger
}

func New(appointments repository.AppointmentRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		appointments: appointments,
		logger:       logger,
	}
}

// DailyOverview reports on the calendar day containing the given instant.
func (uc *UseCase) DailyOverview(ctx context.Context, doctorID string, day time.Time) (*Overview, error) {
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return uc.overview(ctx, doctorID, from, from.AddDate(0, 0, 1))
}

// RangeOverview reports on an arbitrary [from, to) window.
func (uc *UseCase) RangeOverview(ctx context.Context, doctorID string, from, to time.Time) (*Overview, error) {
	if from.IsZero() || !to.After(from) {
		return nil, domain.ErrInvalidPayload
	}
	return uc.overview(ctx, doctorID, from, to)
}

func (uc *UseCase) overview(ctx context.Context, doctorID string, from, to time.Time) (*Overview, error) {
	counts, err := uc.appointments.CountByStatus(ctx, from, to, doctorID)
	if err != nil {
		return nil, err
	}

	ov := &Overview{
		From:     from,
		To:       to,
		ByStatus: counts,
	}
	for _, n := range counts {
		ov.Total += n
	}
	// Rates are computed over closed visits only, so a day of still-open
	// appointments does not read as 0% completion.
	closed := counts[domain.AppointmentCompleted] + counts[domain.AppointmentNoShow]
	if closed > 0 {
		ov.CompletionRate = float64(counts[domain.AppointmentCompleted]) / float64(closed)
		ov.NoShowRate = float64(counts[domain.AppointmentNoShow]) / float64(closed)
	}
	return ov, nil
}
