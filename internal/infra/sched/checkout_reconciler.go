package sched

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"storefront/internal/domain"
	"storefront/internal/domain/model"
	"storefront/internal/domain/ports/repository"
	"storefront/internal/usecase"
)

// CheckoutReconciler periodically scans stale pending checkout sessions and
// tries to finalize them through CheckoutUseCase.Complete. This covers the
// case where the buyer paid but the success callback never reached us, or the
// process crashed between gateway confirmation and order persist.
type CheckoutReconciler struct {
	uc           usecase.CheckoutUseCase
	sessions     repository.CheckoutSessionRepository
	interval     time.Duration // how often to scan
	staleAfter   time.Duration // how old a pending session must be to retry
	abandonAfter time.Duration // how old before an unpaid session is written off
	log          *zerolog.Logger
}

func NewCheckoutReconciler(
	uc usecase.CheckoutUseCase,
	sessions repository.CheckoutSessionRepository,
	interval, staleAfter, abandonAfter time.Duration,
	logger *zerolog.Logger,
) *CheckoutReconciler {
	if interval <= 0 {
		interval = time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 10 * time.Minute
	}
	if abandonAfter <= 0 {
		abandonAfter = 24 * time.Hour
	}
	return &CheckoutReconciler{
		uc:           uc,
		sessions:     sessions,
		interval:     interval,
		staleAfter:   staleAfter,
		abandonAfter: abandonAfter,
		log:          logger,
	}
}

func (w *CheckoutReconciler) Start(ctx context.Context) {
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *CheckoutReconciler) tick(ctx context.Context) {
	cutoff := time.Now().Add(-w.staleAfter)
	pending, err := w.sessions.ListPendingOlderThan(ctx, cutoff, 200)
	if err != nil {
		w.log.Error().Err(err).Msg("checkout-reconciler: list pending failed")
		return
	}
	for _, s := range pending {
		// System caller: the journal row is trusted, no ownership constraint.
		res, err := w.uc.Complete(ctx, s.SessionID, "")
		if err == nil {
			if !res.Duplicate {
				w.log.Info().Str("session_id", s.SessionID).Str("order_id", res.OrderID).Msg("checkout-reconciler: recovered session")
			}
			continue
		}
		switch {
		case errors.Is(err, domain.ErrPaymentIncomplete), errors.Is(err, domain.ErrSessionNotFound):
			// Never paid. Give the buyer the abandon horizon, then stop scanning it.
			if time.Since(s.CreatedAt) > w.abandonAfter {
				if uerr := w.sessions.UpdateStatus(ctx, s.SessionID, model.CheckoutSessionAbandoned); uerr != nil {
					w.log.Warn().Err(uerr).Str("session_id", s.SessionID).Msg("checkout-reconciler: abandon mark failed")
				}
			}
		default:
			w.log.Warn().Err(err).Str("session_id", s.SessionID).Msg("checkout-reconciler: complete failed")
		}
	}
}
