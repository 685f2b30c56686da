package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	KindAppointmentReminder = "appointment_reminder"
	KindAppointmentChanged  = "appointment_changed"
	KindAccountInvite       = "account_invite"
	KindAccountDeactivated  = "account_deactivated"
)

// Notification is an outbound message persisted locally until the mail
// service accepts it.
type Notification struct {
	ID        string          `json:"id"`
	Recipient string          `json:"recipient"`
	Subject   string          `json:"subject"`
	Kind      string          `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	Priority  int             `json:"priority"`
	Retries   int             `json:"retries"`
	Timestamp time.Time       `json:"timestamp"`

	bucketKey []byte
}

func (n *Notification) normalize() {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Priority <= 0 || n.Priority > 5 {
		n.Priority = 3
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}
}
