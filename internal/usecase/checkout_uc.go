// File: internal/usecase/checkout_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"fitness-checkout/internal/config"
	"fitness-checkout/internal/domain"
	"fitness-checkout/internal/domain/model"
	"fitness-checkout/internal/domain/ports/adapter"
	"fitness-checkout/internal/domain/ports/repository"
	"fitness-checkout/internal/infra/logging"
	"fitness-checkout/internal/infra/metrics"
)

// Compile-time check
var _ CheckoutUseCase = (*checkoutUC)(nil)

// Locker is the single-flight guard consumed by the use case; satisfied by
// infra/redis.RedisLocker.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (string, error)
	Unlock(ctx context.Context, key, token string) error
}

// CheckoutUseCase drives the checkout state machine:
//
//	REVIEW -> PAYMENT -> PROCESSING -> SUCCESS | FAILED -> (retry) PAYMENT
//
// It owns CheckoutState exclusively. Every exit from PROCESSING requires an
// explicit confirmation or status result from the processor; a redirect
// arriving back is never treated as proof of payment.
type CheckoutUseCase interface {
	// Start validates the cart, creates a provider session and moves the
	// attempt to PROCESSING. Validation failure keeps the machine in REVIEW
	// (no attempt is persisted, no network call happens). Session-creation
	// failure returns an attempt parked in PAYMENT with the reason surfaced.
	Start(ctx context.Context, cart *model.Cart, identity model.Identity, mode model.CheckoutMode) (*model.Attempt, *model.CheckoutSession, error)

	// ConfirmEmbedded finalizes an embedded-flow attempt with a confirm call.
	ConfirmEmbedded(ctx context.Context, attemptID, paymentMethodID string) (*model.Attempt, error)

	// ResumeFromRedirect re-enters the machine at PROCESSING after a hosted
	// flow redirect and polls the processor until a definitive status or the
	// processing timeout.
	ResumeFromRedirect(ctx context.Context, sessionID string) (*model.Attempt, error)

	// Retry starts a fresh provider session for a FAILED attempt. The failed
	// session is abandoned, never reused.
	Retry(ctx context.Context, attemptID string) (*model.Attempt, *model.CheckoutSession, error)

	// Close abandons an attempt. Rejected while the attempt is PROCESSING so
	// an in-flight payment is never orphaned.
	Close(ctx context.Context, attemptID string) error

	// Finalize resolves one PROCESSING attempt with a single status query;
	// used by the stale-attempt reconciler.
	Finalize(ctx context.Context, a *model.Attempt) error
}

type checkoutUC struct {
	attempts repository.AttemptRepository
	tm       repository.TransactionManager
	gateway  adapter.PaymentGateway
	recorder adapter.TransactionRecorder
	carts    adapter.CartService
	notifier adapter.OpsNotifier
	locker   Locker
	cfg      config.CheckoutConfig
	log      *zerolog.Logger
}

func NewCheckoutUseCase(
	attempts repository.AttemptRepository,
	tm repository.TransactionManager,
	gateway adapter.PaymentGateway,
	recorder adapter.TransactionRecorder,
	carts adapter.CartService,
	notifier adapter.OpsNotifier,
	locker Locker,
	cfg config.CheckoutConfig,
	logger *zerolog.Logger,
) *checkoutUC {
	return &checkoutUC{
		attempts: attempts,
		tm:       tm,
		gateway:  gateway,
		recorder: recorder,
		carts:    carts,
		notifier: notifier,
		locker:   locker,
		cfg:      cfg,
		log:      logger,
	}
}

func lockKey(cartID, ownerID string) string {
	return "checkout:lock:" + cartID + ":" + ownerID
}

func (u *checkoutUC) Start(ctx context.Context, cart *model.Cart, identity model.Identity, mode model.CheckoutMode) (*model.Attempt, *model.CheckoutSession, error) {
	defer logging.TraceDuration(u.log, "CheckoutUC.Start")()

	// REVIEW gate: pure validation, before any network call.
	if err := cart.ValidateForCheckout(&identity); err != nil {
		return nil, nil, err
	}

	// Single-flight per cart/identity: entering PAYMENT is the mutex.
	token, err := u.locker.TryLock(ctx, lockKey(cart.ID, identity.ID), u.cfg.LockTTL)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	a := &model.Attempt{
		ID:        uuid.NewString(),
		CartID:    cart.ID,
		OwnerID:   identity.ID,
		Email:     identity.Email,
		Mode:      mode,
		Items:     cart.Items,
		State:     model.StateReview,
		LockToken: token,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := a.Transition(model.StatePayment); err != nil {
		return nil, nil, err
	}

	sess, err := u.openSession(ctx, a, cart, identity)
	if err != nil {
		// State stays PAYMENT; the user retries explicitly. Release the lock
		// so that retry is not refused as a duplicate.
		u.unlock(ctx, a)
		a.FailureReason = err.Error()
		if saveErr := u.attempts.Save(ctx, nil, a); saveErr != nil {
			u.log.Error().Err(saveErr).Str("attempt_id", a.ID).Msg("save attempt after session failure")
		}
		return a, nil, fmt.Errorf("create checkout session: %w", err)
	}

	if err := a.Transition(model.StateProcessing); err != nil {
		return nil, nil, err
	}
	if err := u.attempts.Save(ctx, nil, a); err != nil {
		return nil, nil, err
	}

	metrics.IncSessionCreated(string(mode))
	u.recordEvent(a, model.SessionStatusPending, "")
	return a, sess, nil
}

// openSession calls the processor and copies the session identity onto the
// attempt. The session id is immutable once set.
func (u *checkoutUC) openSession(ctx context.Context, a *model.Attempt, cart *model.Cart, identity model.Identity) (*model.CheckoutSession, error) {
	sess, err := u.gateway.CreateSession(ctx, adapter.CreateSessionRequest{
		Cart:     cart,
		Identity: identity,
		Mode:     a.Mode,
	})
	if err != nil {
		return nil, err
	}
	a.SessionID = sess.ID
	a.Amount = sess.Amount
	a.Currency = sess.Currency
	return sess, nil
}

func (u *checkoutUC) ConfirmEmbedded(ctx context.Context, attemptID, paymentMethodID string) (*model.Attempt, error) {
	defer logging.TraceDuration(u.log, "CheckoutUC.ConfirmEmbedded")()

	a, err := u.attempts.FindByID(ctx, nil, attemptID)
	if err != nil {
		return nil, err
	}
	if a.State != model.StateProcessing {
		return a, domain.ErrInvalidTransition
	}

	started := time.Now()
	cctx, cancel := context.WithTimeout(ctx, u.cfg.ProcessingTimeout)
	defer cancel()

	status, err := u.gateway.ConfirmPayment(cctx, a.SessionID, paymentMethodID)
	metrics.ObserveConfirmDuration(time.Since(started).Seconds())
	switch {
	case err != nil && errors.Is(err, context.DeadlineExceeded):
		return a, u.finalizeFailure(ctx, a, domain.ErrConfirmTimeout.Error())
	case err != nil:
		// Declines and confirmation errors both land in FAILED; the message
		// is surfaced verbatim so the user can act on it.
		return a, u.finalizeFailure(ctx, a, err.Error())
	case status == model.SessionStatusSucceeded:
		return a, u.finalizeSuccess(ctx, a)
	default:
		return a, u.finalizeFailure(ctx, a, string(status))
	}
}

func (u *checkoutUC) ResumeFromRedirect(ctx context.Context, sessionID string) (*model.Attempt, error) {
	defer logging.TraceDuration(u.log, "CheckoutUC.ResumeFromRedirect")()

	a, err := u.attempts.FindBySessionID(ctx, nil, sessionID)
	if err != nil {
		return nil, err
	}
	// Re-entry after the attempt was already finalized (reconciler won, or
	// the user refreshed the return page) is a read, not a transition.
	if a.State == model.StateSuccess || a.State == model.StateFailed {
		return a, nil
	}
	if a.State != model.StateProcessing {
		return a, domain.ErrInvalidTransition
	}

	started := time.Now()
	deadline := started.Add(u.cfg.ProcessingTimeout)
	interval := u.cfg.PollInterval

	for {
		status, reason, err := u.gateway.GetStatus(ctx, a.SessionID)
		switch {
		case err != nil && errors.Is(err, domain.ErrSessionNotFound):
			metrics.ObserveConfirmDuration(time.Since(started).Seconds())
			return a, u.finalizeFailure(ctx, a, err.Error())
		case err != nil:
			// transient: keep polling until the deadline
			u.log.Warn().Err(err).Str("session_id", a.SessionID).Msg("status poll failed")
		case status == model.SessionStatusSucceeded:
			metrics.ObserveConfirmDuration(time.Since(started).Seconds())
			return a, u.finalizeSuccess(ctx, a)
		case status == model.SessionStatusFailed:
			metrics.ObserveConfirmDuration(time.Since(started).Seconds())
			return a, u.finalizeFailure(ctx, a, reason)
		}

		if time.Now().Add(interval).After(deadline) {
			metrics.ObserveConfirmDuration(time.Since(started).Seconds())
			return a, u.finalizeFailure(ctx, a, domain.ErrConfirmTimeout.Error())
		}
		select {
		case <-ctx.Done():
			return a, ctx.Err()
		case <-time.After(interval):
		}
		if interval < 8*u.cfg.PollInterval {
			interval *= 2
		}
	}
}

func (u *checkoutUC) Retry(ctx context.Context, attemptID string) (*model.Attempt, *model.CheckoutSession, error) {
	defer logging.TraceDuration(u.log, "CheckoutUC.Retry")()

	// The FAILED check runs under a row lock so two concurrent retries cannot
	// both read the stale state before one of them starts.
	var prev *model.Attempt
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		a, err := u.attempts.FindByID(ctx, tx, attemptID)
		if err != nil {
			return err
		}
		prev = a
		if a.State != model.StateFailed {
			return domain.ErrAttemptNotRetryable
		}
		return nil
	})
	if err != nil {
		return prev, nil, err
	}

	// A fresh session for the same cart snapshot; the failed session is
	// abandoned on the provider side.
	cart := &model.Cart{ID: prev.CartID, OwnerID: prev.OwnerID, Items: prev.Items}
	identity := model.Identity{ID: prev.OwnerID, Email: prev.Email}
	return u.Start(ctx, cart, identity, prev.Mode)
}

func (u *checkoutUC) Close(ctx context.Context, attemptID string) error {
	a, err := u.attempts.FindByID(ctx, nil, attemptID)
	if err != nil {
		return err
	}
	if a.State == model.StateProcessing {
		return domain.ErrPaymentInFlight
	}
	if a.State == model.StatePayment {
		metrics.IncAttempt("abandoned")
	}
	u.unlock(ctx, a)
	return nil
}

// Finalize is the reconciler entry point: one status query, one outcome.
// Unlike ResumeFromRedirect it never polls; a still-pending session is left
// for the next sweep.
func (u *checkoutUC) Finalize(ctx context.Context, a *model.Attempt) error {
	if a.State != model.StateProcessing {
		return domain.ErrInvalidTransition
	}
	status, reason, err := u.gateway.GetStatus(ctx, a.SessionID)
	switch {
	case err != nil && errors.Is(err, domain.ErrSessionNotFound):
		return u.finalizeFailure(ctx, a, err.Error())
	case err != nil:
		return err
	case status == model.SessionStatusSucceeded:
		return u.finalizeSuccess(ctx, a)
	case status == model.SessionStatusFailed:
		return u.finalizeFailure(ctx, a, reason)
	default:
		return nil // still pending
	}
}

func (u *checkoutUC) finalizeSuccess(ctx context.Context, a *model.Attempt) error {
	ok, err := u.attempts.UpdateStateIfProcessing(ctx, nil, a.ID, model.StateSuccess, "")
	if err != nil {
		return err
	}
	if !ok {
		// Someone else (reconciler, duplicate callback) already finalized.
		fresh, ferr := u.attempts.FindByID(ctx, nil, a.ID)
		if ferr == nil {
			*a = *fresh
		}
		return nil
	}
	a.State = model.StateSuccess
	a.UpdatedAt = time.Now()

	metrics.IncAttempt("success")
	metrics.AddRevenue(a.Currency, a.Amount)
	u.recordEvent(a, model.SessionStatusSucceeded, "")
	u.unlock(ctx, a)
	u.scheduleCartClear(a.CartID)

	logging.With(ctx, u.log).Info().
		Str("attempt_id", a.ID).
		Str("session_id", a.SessionID).
		Int64("amount", a.Amount).
		Msg("checkout succeeded")
	return nil
}

func (u *checkoutUC) finalizeFailure(ctx context.Context, a *model.Attempt, reason string) error {
	ok, err := u.attempts.UpdateStateIfProcessing(ctx, nil, a.ID, model.StateFailed, reason)
	if err != nil {
		return err
	}
	if !ok {
		fresh, ferr := u.attempts.FindByID(ctx, nil, a.ID)
		if ferr == nil {
			*a = *fresh
		}
		return nil
	}
	a.State = model.StateFailed
	a.FailureReason = reason
	a.UpdatedAt = time.Now()

	if reason == domain.ErrConfirmTimeout.Error() {
		metrics.IncAttempt("timeout")
	} else {
		metrics.IncAttempt("failed")
	}
	u.recordEvent(a, model.SessionStatusFailed, reason)
	u.unlock(ctx, a)
	u.alert(fmt.Sprintf("checkout failed: attempt=%s session=%s customer=%s reason=%s",
		a.ID, a.SessionID, logging.Redact(a.Email, false), reason))

	logging.With(ctx, u.log).Warn().
		Str("attempt_id", a.ID).
		Str("session_id", a.SessionID).
		Str("reason", reason).
		Msg("checkout failed")
	return nil
}

// recordEvent ships a lifecycle event to the transaction log. Fire-and-forget:
// a slow or failing recorder must never block or fail a state transition.
func (u *checkoutUC) recordEvent(a *model.Attempt, status model.SessionStatus, reason string) {
	ev := model.TransactionEvent{
		ID:        ulid.Make().String(),
		SessionID: a.SessionID,
		Amount:    a.Amount,
		Currency:  a.Currency,
		Status:    status,
		Reason:    reason,
		At:        time.Now(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		ok, err := u.recorder.Record(ctx, ev)
		if err != nil || !ok {
			u.log.Warn().Err(err).Str("session_id", ev.SessionID).Str("status", string(status)).Msg("transaction log dropped")
		}
	}()
}

// scheduleCartClear clears the cart after a grace delay rather than
// synchronously; the backing store is eventually consistent right after the
// provider callback.
func (u *checkoutUC) scheduleCartClear(cartID string) {
	time.AfterFunc(u.cfg.GraceDelay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := u.carts.Clear(ctx, cartID); err != nil {
			u.log.Warn().Err(err).Str("cart_id", cartID).Msg("cart clear failed")
		}
	})
}

func (u *checkoutUC) unlock(ctx context.Context, a *model.Attempt) {
	if a.LockToken == "" {
		return
	}
	if err := u.locker.Unlock(ctx, lockKey(a.CartID, a.OwnerID), a.LockToken); err != nil {
		u.log.Warn().Err(err).Str("cart_id", a.CartID).Msg("unlock failed")
	}
	a.LockToken = ""
}

func (u *checkoutUC) alert(text string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := u.notifier.Alert(ctx, text); err != nil {
			u.log.Warn().Err(err).Msg("ops alert failed")
		}
	}()
}
