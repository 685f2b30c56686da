package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medipro/backend/domain"
	"github.com/medipro/backend/repository"
)

type patientRepository struct {
	pool *pgxpool.Pool
}

// NewPatientRepository instantiates a Postgres-backed patient repository.
func NewPatientRepository(pool *pgxpool.Pool) repository.PatientRepository {
	return &patientRepository{pool: pool}
}

const patientColumns = `id, mrn, first_name, last_name, date_of_birth, gender,
	allergies, medications, conditions, metadata, last_visit, created_at, updated_at`

func (r *patientRepository) List(ctx context.Context, filter repository.PatientFilter) ([]domain.Patient, error) {
	query := `
		SELECT ` + patientColumns + `
		FROM patients
	`
	args := []interface{}{}
	if filter.Search != "" {
		query += ` WHERE first_name ILIKE '%' || $1 || '%'
			OR last_name ILIKE '%' || $1 || '%'
			OR mrn ILIKE '%' || $1 || '%'`
		args = append(args, filter.Search)
	}
	query += ` ORDER BY last_name, first_name`

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, filter.Offset)
	query += limitOffsetClause(len(args) - 1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var patients []domain.Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		patients = append(patients, *p)
	}
	return patients, rows.Err()
}

func (r *patientRepository) GetByID(ctx context.Context, id string) (*domain.Patient, error) {
	const query = `
		SELECT ` + patientColumns + `
		FROM patients
		WHERE id = $1
	`
	p, err := scanPatient(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPatientNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *patientRepository) Create(ctx context.Context, patient *domain.Patient) (*domain.Patient, error) {
	if patient == nil || patient.MRN == "" || patient.LastName == "" {
		return nil, domain.ErrInvalidPayload
	}
	if patient.ID == "" {
		patient.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO patients (id, mrn, first_name, last_name, date_of_birth, gender,
		allergies, medications, conditions, metadata, last_visit, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
	RETURNING created_at, updated_at;
	`

	var createdAt, updatedAt time.Time
	if err := r.pool.QueryRow(ctx, query,
		patient.ID,
		patient.MRN,
		patient.FirstName,
		patient.LastName,
		patient.DateOfBirth,
		nullString(patient.Gender),
		patient.Allergies,
		patient.Medications,
		patient.Conditions,
		marshalMap(patient.Metadata),
		patient.LastVisit,
	).Scan(&createdAt, &updatedAt); err != nil {
		return nil, err
	}

	patient.CreatedAt = createdAt
	patient.UpdatedAt = updatedAt
	return patient, nil
}

func (r *patientRepository) Update(ctx context.Context, patient *domain.Patient) error {
	if patient == nil || patient.ID == "" {
		return domain.ErrInvalidPayload
	}

	const query = `
	UPDATE patients
	SET mrn = $2, first_name = $3, last_name = $4, date_of_birth = $5, gender = $6,
		allergies = $7, medications = $8, conditions = $9, metadata = $10,
		last_visit = $11, updated_at = NOW()
	WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query,
		patient.ID,
		patient.MRN,
		patient.FirstName,
		patient.LastName,
		patient.DateOfBirth,
		nullString(patient.Gender),
		patient.Allergies,
		patient.Medications,
		patient.Conditions,
		marshalMap(patient.Metadata),
		patient.LastVisit,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPatientNotFound
	}
	return nil
}

func (r *patientRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPatientNotFound
	}
	return nil
}

func (r *patientRepository) AddVitals(ctx context.Context, record *domain.VitalRecord) error {
	if record == nil || record.PatientID == "" {
		return domain.ErrInvalidPayload
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.RecordedAt.IsZero() {
		record.RecordedAt = time.Now()
	}

	const query = `
	INSERT INTO vitals (id, patient_id, recorded_at, blood_pressure, heart_rate,
		temperature, oxygen_saturation, weight)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		record.ID,
		record.PatientID,
		record.RecordedAt,
		nullString(record.BloodPressure),
		record.HeartRate,
		record.Temperature,
		record.OxygenSat,
		record.Weight,
	)
	return err
}

func (r *patientRepository) ListVitals(ctx context.Context, patientID string, limit int) ([]domain.VitalRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	const query = `
		SELECT id, patient_id, recorded_at, blood_pressure, heart_rate,
			temperature, oxygen_saturation, weight
		FROM vitals
		WHERE patient_id = $1
		ORDER BY recorded_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, patientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.VitalRecord
	for rows.Next() {
		var rec domain.VitalRecord
		var bp *string
		if err := rows.Scan(&rec.ID, &rec.PatientID, &rec.RecordedAt, &bp,
			&rec.HeartRate, &rec.Temperature, &rec.OxygenSat, &rec.Weight); err != nil {
			return nil, err
		}
		if bp != nil {
			rec.BloodPressure = *bp
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanPatient(row pgx.Row) (*domain.Patient, error) {
	var p domain.Patient
	var gender *string
	var metadata []byte

	if err := row.Scan(&p.ID, &p.MRN, &p.FirstName, &p.LastName, &p.DateOfBirth, &gender,
		&p.Allergies, &p.Medications, &p.Conditions, &metadata, &p.LastVisit,
		&p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if gender != nil {
		p.Gender = *gender
	}
	p.Metadata = unmarshalMap(metadata)
	return &p, nil
}
