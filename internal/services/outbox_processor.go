package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/medipro/backend/domain"
	"github.com/medipro/backend/internal/infrastructure/mail"
	"github.com/medipro/backend/internal/infrastructure/outbox"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// MailSender abstracts the mail API client.
type MailSender interface {
	Send(msg mail.Message) error
}

// ProcessorConfig controls how frequently the outbox is drained.
type ProcessorConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
}

// OutboxProcessor delivers queued notifications through the mail service.
type OutboxProcessor struct {
	store   *outbox.Store
	monitor ConnectionHealth
	sender  MailSender
	logger  *zap.Logger
	cron    *cron.Cron
	cfg     ProcessorConfig
}

func NewOutboxProcessor(
	store *outbox.Store,
	monitor ConnectionHealth,
	sender MailSender,
	logger *zap.Logger,
	cfg ProcessorConfig,
) *OutboxProcessor {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	op := &OutboxProcessor{
		store:   store,
		monitor: monitor,
		sender:  sender,
		logger:  logger,
		cfg:     cfg,
		cron:    cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = op.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := op.Drain(ctx); err != nil {
			op.logger.Error("outbox drain failed", zap.Error(err))
		}
	})

	return op
}

// Start launches the cron scheduler.
func (op *OutboxProcessor) Start() {
	if op == nil || op.cron == nil {
		return
	}
	op.cron.Start()
	op.logger.Info("outbox processor started")
}

// Stop gracefully stops the scheduler.
func (op *OutboxProcessor) Stop(ctx context.Context) {
	if op == nil || op.cron == nil {
		return
	}
	stopCtx := op.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	op.logger.Info("outbox processor stopped")
}

// Drain delivers pending notifications synchronously.
func (op *OutboxProcessor) Drain(ctx context.Context) error {
	if op == nil || op.store == nil {
		return nil
	}
	if op.monitor != nil && !op.monitor.IsOnline() {
		op.logger.Debug("skipping outbox drain (offline)")
		return nil
	}

	batch, err := op.store.GetBatch(op.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, n := range batch {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := op.deliver(n); err != nil {
			// A message the mail service rejects outright will never
			// deliver; drop it instead of cycling retries.
			if domain.IsDomainError(err, domain.ErrCodeInvalid) {
				op.logger.Warn("dropping rejected notification", zap.String("notification_id", n.ID))
				_ = op.store.Remove(n)
				continue
			}

			op.logger.Error("failed to deliver notification",
				zap.String("notification_id", n.ID),
				zap.String("kind", n.Kind),
				zap.Error(err))

			n.Retries++
			if n.Retries >= op.cfg.MaxRetries {
				op.logger.Warn("dropping notification (max retries reached)", zap.String("notification_id", n.ID))
				_ = op.store.Remove(n)
				continue
			}

			if err := op.store.Remove(n); err != nil {
				op.logger.Warn("failed to remove notification", zap.Error(err))
			}
			if err := op.store.Requeue(n); err != nil {
				op.logger.Error("failed to requeue notification", zap.Error(err))
			}
			continue
		}

		if err := op.store.Remove(n); err != nil {
			op.logger.Warn("failed to purge delivered notification", zap.Error(err))
		}
	}
	return nil
}

// Enqueue attempts immediate delivery and falls back to persisting the
// notification for the next drain.
func (op *OutboxProcessor) Enqueue(ctx context.Context, n outbox.Notification) error {
	if op == nil || op.store == nil {
		return fmt.Errorf("outbox processor not configured")
	}

	if op.monitor == nil || op.monitor.IsOnline() {
		if err := op.deliver(n); err == nil {
			return nil
		} else {
			op.logger.Warn("immediate delivery failed, queueing", zap.Error(err))
		}
	}
	return op.store.Enqueue(n)
}

// Size returns the number of pending notifications.
func (op *OutboxProcessor) Size() int {
	if op == nil || op.store == nil {
		return 0
	}
	size, err := op.store.Size()
	if err != nil {
		return 0
	}
	return size
}

func (op *OutboxProcessor) deliver(n outbox.Notification) error {
	if op.sender == nil {
		return fmt.Errorf("mail sender not configured")
	}
	return op.sender.Send(mail.Message{
		To:      n.Recipient,
		Subject: n.Subject,
		Kind:    n.Kind,
		Data:    n.Payload,
	})
}
