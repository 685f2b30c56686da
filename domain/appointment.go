package domain

import "time"

// Appointment types and statuses mirror the scheduling board columns.
const (
	AppointmentInitial   = "initial"
	AppointmentFollowUp  = "follow_up"
	AppointmentProcedure = "procedure"
	AppointmentConsult   = "consult"

	AppointmentScheduled = "scheduled"
	AppointmentCheckedIn = "checked_in"
	AppointmentCompleted = "completed"
	AppointmentNoShow    = "no_show"
)

// Appointment is a booked visit slot for a patient with a doctor.
type Appointment struct {
	ID        string            `json:"id"`
	PatientID string            `json:"patient_id"`
	DoctorID  string            `json:"doctor_id"`
	StartsAt  time.Time         `json:"starts_at"`
	EndsAt    time.Time         `json:"ends_at"`
	Type      string            `json:"type"`
	Status    string            `json:"status"`
	Notes     string            `json:"notes,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// IsOpen reports whether the appointment still expects the patient.
func (a *Appointment) IsOpen() bool {
	return a != nil && (a.Status == AppointmentScheduled || a.Status == AppointmentCheckedIn)
}

// ValidAppointmentType reports whether t is a known visit type.
func ValidAppointmentType(t string) bool {
	switch t {
	case AppointmentInitial, AppointmentFollowUp, AppointmentProcedure, AppointmentConsult:
		return true
	}
	return false
}

// ValidAppointmentStatus reports whether s is a known status.
func ValidAppointmentStatus(s string) bool {
	switch s {
	case AppointmentScheduled, AppointmentCheckedIn, AppointmentCompleted, AppointmentNoShow:
		return true
	}
	return false
}

// CanTransition reports whether a status change is allowed. Completed and
// no-show are terminal; checked-in can only come from scheduled.
func CanTransition(from, to string) bool {
	if from == to {
		return true
	}
	switch from {
	case AppointmentScheduled:
		return to == AppointmentCheckedIn || to == AppointmentCompleted || to == AppointmentNoShow
	case AppointmentCheckedIn:
		return to == AppointmentCompleted || to == AppointmentNoShow
	}
	return false
}
