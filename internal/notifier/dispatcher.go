package notifier

import (
	"context"
	"time"

	"github.com/fieldstack/matflow/internal/repository"
	"go.uber.org/zap"
)

const (
	dispatchBatchSize = 20
	maxSendAttempts   = 5
)

// Dispatcher drains the email outbox in the background. Delivery is
// at-least-once: a row stays pending until a send succeeds or the attempt
// limit is reached, so a crash between send and MarkSent can re-deliver.
// The receiving side is expected to treat duplicates as idempotent.
type Dispatcher struct {
	outbox   *repository.OutboxRepository
	mailer   *Mailer
	logger   *zap.Logger
	interval time.Duration
}

// NewDispatcher 创建发件箱调度器
func NewDispatcher(outbox *repository.OutboxRepository, mailer *Mailer, logger *zap.Logger, interval time.Duration) *Dispatcher {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Dispatcher{
		outbox:   outbox,
		mailer:   mailer,
		logger:   logger,
		interval: interval,
	}
}

// Run polls until the context is canceled. Meant to be started as a
// goroutine from main.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.Drain(ctx)
		}
	}
}

// Drain sends one batch of pending emails.
func (d *Dispatcher) Drain(ctx context.Context) {
	emails, err := d.outbox.NextBatch(ctx, dispatchBatchSize)
	if err != nil {
		d.logger.Error("outbox poll failed", zap.Error(err))
		return
	}

	for _, email := range emails {
		err := d.mailer.Send(ctx, email.Recipients, email.Subject, email.Body)
		if err != nil {
			d.logger.Warn("outbox send failed",
				zap.String("id", email.ID),
				zap.String("event", email.EventType),
				zap.Int("attempts", email.Attempts+1),
				zap.Error(err))
			if markErr := d.outbox.MarkFailed(ctx, email.ID, err, maxSendAttempts); markErr != nil {
				d.logger.Error("outbox mark-failed failed", zap.String("id", email.ID), zap.Error(markErr))
			}
			continue
		}
		if err := d.outbox.MarkSent(ctx, email.ID); err != nil {
			d.logger.Error("outbox mark-sent failed", zap.String("id", email.ID), zap.Error(err))
			continue
		}
		d.logger.Info("notification email sent",
			zap.String("event", email.EventType),
			zap.Int("recipients", len(email.Recipients)))
	}
}
