package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medipro/backend/domain"
	"github.com/medipro/backend/repository"
)

type appointmentRepository struct {
	pool *pgxpool.Pool
}

// NewAppointmentRepository instantiates a Postgres-backed appointment repository.
func NewAppointmentRepository(pool *pgxpool.Pool) repository.AppointmentRepository {
	return &appointmentRepository{pool: pool}
}

const appointmentColumns = `id, patient_id, doctor_id, starts_at, ends_at, type, status,
	notes, metadata, created_at, updated_at`

func (r *appointmentRepository) List(ctx context.Context, filter repository.AppointmentFilter) ([]domain.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE 1=1`
	args := []interface{}{}

	addArg := func(clause string, value interface{}) {
		args = append(args, value)
		query += fmt.Sprintf(clause, len(args))
	}

	if filter.DoctorID != "" {
		addArg(" AND doctor_id = $%d", filter.DoctorID)
	}
	if filter.PatientID != "" {
		addArg(" AND patient_id = $%d", filter.PatientID)
	}
	if filter.Status != "" {
		addArg(" AND status = $%d", filter.Status)
	}
	if !filter.From.IsZero() {
		addArg(" AND starts_at >= $%d", filter.From)
	}
	if !filter.To.IsZero() {
		addArg(" AND starts_at < $%d", filter.To)
	}

	query += " ORDER BY starts_at"

	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	args = append(args, limit, filter.Offset)
	query += limitOffsetClause(len(args) - 1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []domain.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, *a)
	}
	return appts, rows.Err()
}

func (r *appointmentRepository) GetByID(ctx context.Context, id string) (*domain.Appointment, error) {
	const query = `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE id = $1
	`
	a, err := scanAppointment(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAppointmentNotFound
		}
		return nil, err
	}
	return a, nil
}

func (r *appointmentRepository) Create(ctx context.Context, appt *domain.Appointment) (*domain.Appointment, error) {
	if appt == nil || appt.PatientID == "" || appt.StartsAt.IsZero() {
		return nil, domain.ErrInvalidPayload
	}
	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}
	if appt.Status == "" {
		appt.Status = domain.AppointmentScheduled
	}

	const query = `
	INSERT INTO appointments (id, patient_id, doctor_id, starts_at, ends_at, type, status,
		notes, metadata, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
	RETURNING created_at, updated_at;
	`

	var createdAt, updatedAt time.Time
	if err := r.pool.QueryRow(ctx, query,
		appt.ID,
		appt.PatientID,
		nullString(appt.DoctorID),
		appt.StartsAt,
		appt.EndsAt,
		appt.Type,
		appt.Status,
		nullString(appt.Notes),
		marshalMap(appt.Metadata),
	).Scan(&createdAt, &updatedAt); err != nil {
		return nil, err
	}

	appt.CreatedAt = createdAt
	appt.UpdatedAt = updatedAt
	return appt, nil
}

func (r *appointmentRepository) Update(ctx context.Context, appt *domain.Appointment) error {
	if appt == nil || appt.ID == "" {
		return domain.ErrInvalidPayload
	}

	const query = `
	UPDATE appointments
	SET patient_id = $2, doctor_id = $3, starts_at = $4, ends_at = $5, type = $6,
		status = $7, notes = $8, metadata = $9, updated_at = NOW()
	WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query,
		appt.ID,
		appt.PatientID,
		nullString(appt.DoctorID),
		appt.StartsAt,
		appt.EndsAt,
		appt.Type,
		appt.Status,
		nullString(appt.Notes),
		marshalMap(appt.Metadata),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAppointmentNotFound
	}
	return nil
}

func (r *appointmentRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAppointmentNotFound
	}
	return nil
}

func (r *appointmentRepository) CountByStatus(ctx context.Context, from, to time.Time, doctorID string) (map[string]int, error) {
	query := `
		SELECT status, COUNT(*)
		FROM appointments
		WHERE starts_at >= $1 AND starts_at < $2
	`
	args := []interface{}{from, to}
	if doctorID != "" {
		args = append(args, doctorID)
		query += fmt.Sprintf(" AND doctor_id = $%d", len(args))
	}
	query += " GROUP BY status"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func scanAppointment(row pgx.Row) (*domain.Appointment, error) {
	var a domain.Appointment
	var doctorID, notes *string
	var metadata []byte

	if err := row.Scan(&a.ID, &a.PatientID, &doctorID, &a.StartsAt, &a.EndsAt, &a.Type,
		&a.Status, &notes, &metadata, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	if doctorID != nil {
		a.DoctorID = *doctorID
	}
	if notes != nil {
		a.Notes = *notes
	}
	a.Metadata = unmarshalMap(metadata)
	return &a, nil
}
