package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"fitness-checkout/internal/domain/model"
	"fitness-checkout/internal/domain/ports/repository"
	"fitness-checkout/internal/usecase"
)

// AttemptReconciler periodically scans for stale PROCESSING attempts and
// tries to finalize them with a status query. This covers the cases where the
// return redirect never arrived or the process crashed mid-confirm.
type AttemptReconciler struct {
	uc         usecase.CheckoutUseCase
	attempts   repository.AttemptRepository
	interval   time.Duration // how often to scan
	staleAfter time.Duration // how old a PROCESSING attempt must be to retry
	log        *zerolog.Logger
}

func NewAttemptReconciler(uc usecase.CheckoutUseCase, attempts repository.AttemptRepository, interval, staleAfter time.Duration, logger *zerolog.Logger) *AttemptReconciler {
	if interval <= 0 {
		interval = time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 10 * time.Minute
	}
	return &AttemptReconciler{uc: uc, attempts: attempts, interval: interval, staleAfter: staleAfter, log: logger}
}

func (w *AttemptReconciler) Start(ctx context.Context) {
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.Tick(ctx)
		}
	}
}

func (w *AttemptReconciler) Tick(ctx context.Context) {
	cutoff := time.Now().Add(-w.staleAfter)
	stale, err := w.attempts.ListProcessingOlderThan(ctx, nil, cutoff, 200)
	if err != nil {
		w.log.Error().Err(err).Msg("reconciler: list stale attempts")
		return
	}
	for _, a := range stale {
		if a.SessionID == "" {
			continue
		}
		if err := w.uc.Finalize(ctx, a); err != nil {
			w.log.Warn().Err(err).Str("attempt_id", a.ID).Str("session_id", a.SessionID).Msg("reconciler: finalize failed")
			continue
		}
		if a.State != model.StateProcessing {
			w.log.Info().Str("attempt_id", a.ID).Str("state", string(a.State)).Msg("reconciler: attempt finalized")
		}
	}
}
