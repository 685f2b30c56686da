package usecase

import (
	"context"

	"github.com/medipro/backend/domain"
)

// Notice kinds understood by the outbox processor.
const (
	NoticeAppointmentReminder = "appointment_reminder"
	NoticeAppointmentChanged  = "appointment_changed"
	NoticeAccountInvite       = "account_invite"
	NoticeAccountDeactivated  = "account_deactivated"
)

// NotificationOutbox abstracts the outbox processor so use cases stay
// storage-agnostic.
type NotificationOutbox interface {
	QueueAppointmentNotice(ctx context.Context, kind string, recipient string, appt *domain.Appointment) error
	QueueAccountNotice(ctx context.Context, kind string, user *domain.User) error
}
