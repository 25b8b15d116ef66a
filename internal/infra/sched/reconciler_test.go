//go:build !integration

// File: internal/infra/sched/reconciler_test.go
package sched_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"fitness-checkout/internal/domain"
	"fitness-checkout/internal/domain/model"
	"fitness-checkout/internal/domain/ports/repository"
	"fitness-checkout/internal/infra/sched"
)

type stubUC struct {
	mu        sync.Mutex
	finalized []string
	outcome   model.CheckoutState
	err       error
}

func (s *stubUC) Finalize(ctx context.Context, a *model.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.finalized = append(s.finalized, a.ID)
	if s.outcome != "" {
		a.State = s.outcome
	}
	return nil
}

func (s *stubUC) Start(ctx context.Context, cart *model.Cart, identity model.Identity, mode model.CheckoutMode) (*model.Attempt, *model.CheckoutSession, error) {
	return nil, nil, errors.New("not used")
}

func (s *stubUC) ConfirmEmbedded(ctx context.Context, attemptID, paymentMethodID string) (*model.Attempt, error) {
	return nil, errors.New("not used")
}

func (s *stubUC) ResumeFromRedirect(ctx context.Context, sessionID string) (*model.Attempt, error) {
	return nil, errors.New("not used")
}

func (s *stubUC) Retry(ctx context.Context, attemptID string) (*model.Attempt, *model.CheckoutSession, error) {
	return nil, nil, errors.New("not used")
}

func (s *stubUC) Close(ctx context.Context, attemptID string) error { return errors.New("not used") }

func (s *stubUC) finalizedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.finalized...)
}

type stubAttemptRepo struct {
	stale   []*model.Attempt
	listErr error
}

func (r *stubAttemptRepo) Save(ctx context.Context, tx repository.Tx, a *model.Attempt) error {
	return nil
}

func (r *stubAttemptRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Attempt, error) {
	return nil, domain.ErrNotFound
}

func (r *stubAttemptRepo) FindBySessionID(ctx context.Context, tx repository.Tx, sessionID string) (*model.Attempt, error) {
	return nil, domain.ErrNotFound
}

func (r *stubAttemptRepo) UpdateStateIfProcessing(ctx context.Context, tx repository.Tx, id string, state model.CheckoutState, reason string) (bool, error) {
	return false, nil
}

func (r *stubAttemptRepo) ListProcessingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Attempt, error) {
	return r.stale, r.listErr
}

func newReconciler(uc *stubUC, repo *stubAttemptRepo) *sched.AttemptReconciler {
	logger := zerolog.Nop()
	return sched.NewAttemptReconciler(uc, repo, time.Minute, 10*time.Minute, &logger)
}

func TestTick_FinalizesStaleAttempts(t *testing.T) {
	uc := &stubUC{outcome: model.StateSuccess}
	repo := &stubAttemptRepo{stale: []*model.Attempt{
		{ID: "a1", SessionID: "sess_1", State: model.StateProcessing},
		{ID: "a2", SessionID: "sess_2", State: model.StateProcessing},
	}}

	newReconciler(uc, repo).Tick(context.Background())

	got := uc.finalizedIDs()
	if len(got) != 2 || got[0] != "a1" || got[1] != "a2" {
		t.Errorf("expected both stale attempts finalized, got %v", got)
	}
}

func TestTick_SkipsAttemptsWithoutSession(t *testing.T) {
	uc := &stubUC{}
	repo := &stubAttemptRepo{stale: []*model.Attempt{
		{ID: "a1", State: model.StateProcessing}, // no session was ever created
		{ID: "a2", SessionID: "sess_2", State: model.StateProcessing},
	}}

	newReconciler(uc, repo).Tick(context.Background())

	got := uc.finalizedIDs()
	if len(got) != 1 || got[0] != "a2" {
		t.Errorf("expected only the attempt with a session, got %v", got)
	}
}

func TestTick_ListFailureIsNonFatal(t *testing.T) {
	uc := &stubUC{}
	repo := &stubAttemptRepo{listErr: errors.New("db down")}

	newReconciler(uc, repo).Tick(context.Background())

	if len(uc.finalizedIDs()) != 0 {
		t.Error("nothing should be finalized when the scan fails")
	}
}

func TestTick_FinalizeErrorContinues(t *testing.T) {
	uc := &stubUC{err: errors.New("processor down")}
	repo := &stubAttemptRepo{stale: []*model.Attempt{
		{ID: "a1", SessionID: "sess_1", State: model.StateProcessing},
	}}

	// must not panic or abort the sweep
	newReconciler(uc, repo).Tick(context.Background())
}
