package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/medipro/backend/domain"
	"github.com/medipro/backend/internal/infrastructure/outbox"
	"github.com/medipro/backend/usecase"
)

// OutboxBridge adapts the outbox processor to the use-case port.
type OutboxBridge struct {
	processor *OutboxProcessor
}

func NewOutboxBridge(processor *OutboxProcessor) *OutboxBridge {
	return &OutboxBridge{processor: processor}
}

func (b *OutboxBridge) QueueAppointmentNotice(ctx context.Context, kind, recipient string, appt *domain.Appointment) error {
	if b.processor == nil || appt == nil || recipient == "" {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(appt)
	if err != nil {
		return err
	}
	return b.processor.Enqueue(ctx, outbox.Notification{
		Recipient: recipient,
		Subject:   appointmentSubject(kind, appt),
		Kind:      kind,
		Payload:   payload,
		Priority:  3,
	})
}

func (b *OutboxBridge) QueueAccountNotice(ctx context.Context, kind string, user *domain.User) error {
	if b.processor == nil || user == nil || user.Email == "" {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return b.processor.Enqueue(ctx, outbox.Notification{
		Recipient: user.Email,
		Subject:   accountSubject(kind),
		Kind:      kind,
		Payload:   payload,
		Priority:  2,
	})
}

func appointmentSubject(kind string, appt *domain.Appointment) string {
	switch kind {
	case usecase.NoticeAppointmentChanged:
		return fmt.Sprintf("Your appointment was rescheduled to %s", appt.StartsAt.Format("Mon, 2 Jan 15:04"))
	default:
		return fmt.Sprintf("Appointment reminder for %s", appt.StartsAt.Format("Mon, 2 Jan 15:04"))
	}
}

func accountSubject(kind string) string {
	switch kind {
	case usecase.NoticeAccountDeactivated:
		return "Your account has been deactivated"
	default:
		return "You have been invited to the clinic dashboard"
	}
}

var _ usecase.NotificationOutbox = (*OutboxBridge)(nil)
