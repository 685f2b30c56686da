package domain

import "time"

// Patient is a clinical record subject.
type Patient struct {
	ID          string            `json:"id"`
	MRN         string            `json:"mrn"`
	FirstName   string            `json:"first_name"`
	LastName    string            `json:"last_name"`
	DateOfBirth time.Time         `json:"date_of_birth"`
	Gender      string            `json:"gender,omitempty"`
	Allergies   []string          `json:"allergies,omitempty"`
	Medications []string          `json:"medications,omitempty"`
	Conditions  []string          `json:"conditions,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	LastVisit   *time.Time        `json:"last_visit,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// FullName joins the patient's names for display.
func (p *Patient) FullName() string {
	if p == nil {
		return ""
	}
	if p.FirstName == "" {
		return p.LastName
	}
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// VitalRecord is a single vitals measurement attached to a patient.
type VitalRecord struct {
	ID            string    `json:"id"`
	PatientID     string    `json:"patient_id"`
	RecordedAt    time.Time `json:"recorded_at"`
	BloodPressure string    `json:"blood_pressure,omitempty"`
	HeartRate     int       `json:"heart_rate,omitempty"`
	Temperature   float64   `json:"temperature,omitempty"`
	OxygenSat     int       `json:"oxygen_saturation,omitempty"`
	Weight        float64   `json:"weight,omitempty"`
}
