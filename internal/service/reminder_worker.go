package service

import (
	"context"
	"time"

	"meta-checkout/internal/config"
	"meta-checkout/internal/email"
	"meta-checkout/internal/repository"

	"github.com/rs/zerolog"
)

// sweepBatchSize bounds how many orders one sweep picks up; anything
// left over is caught by the next tick.
const sweepBatchSize = 100

// ReminderWorker periodically emails guests whose checkout stalled
// before payment. Each order gets at most one reminder: the sweep
// claims the reminder slot with a conditional update before sending,
// so overlapping sweeps (or multiple instances) cannot double-send.
type ReminderWorker struct {
	orderRepo repository.OrderRepository
	resume    ResumeService
	mailer    *orderMailer
	cfg       config.CheckoutConfig
	logger    zerolog.Logger
}

// NewReminderWorker creates a new abandoned-checkout reminder worker.
func NewReminderWorker(
	orderRepo repository.OrderRepository,
	resume ResumeService,
	sender email.Sender,
	renderer *email.Renderer,
	cfg config.CheckoutConfig,
	logger zerolog.Logger,
) *ReminderWorker {
	return &ReminderWorker{
		orderRepo: orderRepo,
		resume:    resume,
		mailer:    newOrderMailer(sender, renderer, cfg, logger),
		cfg:       cfg,
		logger:    logger.With().Str("worker", "reminder").Logger(),
	}
}

// Start runs the sweep loop until the context is canceled. A zero
// interval disables the worker.
func (w *ReminderWorker) Start(ctx context.Context) {
	if w.cfg.ReminderInterval <= 0 {
		w.logger.Info().Msg("reminder worker disabled")
		return
	}

	go func() {
		ticker := time.NewTicker(w.cfg.ReminderInterval)
		defer ticker.Stop()

		w.logger.Info().
			Dur("interval", w.cfg.ReminderInterval).
			Dur("after", w.cfg.ReminderAfter).
			Msg("reminder worker started")

		for {
			select {
			case <-ctx.Done():
				w.logger.Info().Msg("reminder worker stopped")
				return
			case <-ticker.C:
				w.Sweep(ctx)
			}
		}
	}()
}

// Sweep runs one pass over abandoned orders. Per-order failures are
// logged and skipped; the sweep keeps going.
func (w *ReminderWorker) Sweep(ctx context.Context) {
	now := time.Now().UTC()
	cutoff := now.Add(-w.cfg.ReminderAfter)

	orders, err := w.orderRepo.ListAbandoned(ctx, cutoff, sweepBatchSize)
	if err != nil {
		w.logger.Error().Err(err).Msg("abandoned order sweep failed")
		return
	}
	if len(orders) == 0 {
		return
	}

	sent := 0
	for _, order := range orders {
		logger := w.logger.With().Str("order_id", order.ID.String()).Logger()

		claimed, err := w.orderRepo.MarkReminderSent(ctx, order.ID, now)
		if err != nil {
			logger.Error().Err(err).Msg("failed to claim reminder")
			continue
		}
		if !claimed {
			continue
		}

		token, err := w.resume.Issue(ctx, order.ID)
		if err != nil {
			logger.Error().Err(err).Msg("failed to issue reminder resume token")
			continue
		}

		if err := w.mailer.SendAbandonedCart(ctx, order, token); err != nil {
			logger.Warn().Err(err).Msg("failed to send abandoned-cart email")
			continue
		}
		sent++
	}

	w.logger.Info().
		Int("candidates", len(orders)).
		Int("sent", sent).
		Msg("abandoned order sweep complete")
}
