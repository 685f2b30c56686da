package transport

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type PasswordResetRequest struct {
	Email string `json:"email"`
}

type PasswordUpdateRequest struct {
	Password string `json:"password"`
}

type PatientRequest struct {
	ID          string            `json:"id"`
	MRN         string            `json:"mrn"`
	FirstName   string            `json:"first_name"`
	LastName    string            `json:"last_name"`
	DateOfBirth string            `json:"date_of_birth"`
	Gender      string            `json:"gender"`
	Allergies   []string          `json:"allergies"`
	Medications []string          `json:"medications"`
	Conditions  []string          `json:"conditions"`
	Metadata    map[string]string `json:"metadata"`
}

type VitalsRequest struct {
	RecordedAt    string  `json:"recorded_at"`
	BloodPressure string  `json:"blood_pressure"`
	HeartRate     int     `json:"heart_rate"`
	Temperature   float64 `json:"temperature"`
	OxygenSat     int     `json:"oxygen_saturation"`
	Weight        float64 `json:"weight"`
}

type AppointmentRequest struct {
	PatientID string            `json:"patient_id"`
	DoctorID  string            `json:"doctor_id"`
	StartsAt  string            `json:"starts_at"`
	EndsAt    string            `json:"ends_at"`
	Type      string            `json:"type"`
	Notes     string            `json:"notes"`
	Metadata  map[string]string `json:"metadata"`
}

type AppointmentStatusRequest struct {
	Status string `json:"status"`
}

type RescheduleRequest struct {
	StartsAt string `json:"starts_at"`
	EndsAt   string `json:"ends_at"`
}

type InviteUserRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

type SetRoleRequest struct {
	Role string `json:"role"`
}

type SetActiveRequest struct {
	Active bool `json:"active"`
}

type SOAPNoteRequest struct {
	Transcript string `json:"transcript"`
}

type CopilotChatRequest struct {
	History []CopilotTurn `json:"history"`
	Message string        `json:"message"`
}

type CopilotTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
