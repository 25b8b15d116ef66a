//go:build !integration

// File: internal/usecase/mocks_test.go
package usecase_test

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"fitness-checkout/internal/domain"
	"fitness-checkout/internal/domain/model"
	"fitness-checkout/internal/domain/ports/adapter"
	"fitness-checkout/internal/domain/ports/repository"
)

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// MockAttemptRepo is a small in-memory implementation used by unit tests.
// Individual methods can be overridden via the ...Func fields.
type MockAttemptRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Attempt

	SaveFunc                    func(ctx context.Context, tx repository.Tx, a *model.Attempt) error
	UpdateStateIfProcessingFunc func(ctx context.Context, tx repository.Tx, id string, state model.CheckoutState, reason string) (bool, error)
}

func NewMockAttemptRepo() *MockAttemptRepo {
	return &MockAttemptRepo{store: make(map[string]*model.Attempt)}
}

func (m *MockAttemptRepo) Save(ctx context.Context, tx repository.Tx, a *model.Attempt) error {
	if m.SaveFunc != nil {
		if err := m.SaveFunc(ctx, tx, a); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.store[a.ID] = &cp
	return nil
}

func (m *MockAttemptRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *MockAttemptRepo) FindBySessionID(ctx context.Context, tx repository.Tx, sessionID string) (*model.Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.store {
		if a.SessionID == sessionID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockAttemptRepo) UpdateStateIfProcessing(ctx context.Context, tx repository.Tx, id string, state model.CheckoutState, reason string) (bool, error) {
	if m.UpdateStateIfProcessingFunc != nil {
		return m.UpdateStateIfProcessingFunc(ctx, tx, id, state, reason)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.store[id]
	if !ok || a.State != model.StateProcessing {
		return false, nil
	}
	a.State = state
	a.FailureReason = reason
	a.UpdatedAt = time.Now()
	return true, nil
}

func (m *MockAttemptRepo) ListProcessingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Attempt
	for _, a := range m.store {
		if a.State == model.StateProcessing && a.UpdatedAt.Before(olderThan) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

// MockTxManager runs the callback without a real transaction. The nil tx
// exercises the repositories' non-transactional path.
type MockTxManager struct{}

func (MockTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, nil)
}

// MockPaymentGateway counts calls and delegates to the ...Func fields.
type MockPaymentGateway struct {
	mu                 sync.Mutex
	CreateSessionCalls int

	CreateSessionFunc  func(ctx context.Context, req adapter.CreateSessionRequest) (*model.CheckoutSession, error)
	ConfirmPaymentFunc func(ctx context.Context, sessionID, paymentMethodID string) (model.SessionStatus, error)
	GetStatusFunc      func(ctx context.Context, sessionID string) (model.SessionStatus, string, error)
}

func (m *MockPaymentGateway) Name() string { return "mock" }

func (m *MockPaymentGateway) CreateSession(ctx context.Context, req adapter.CreateSessionRequest) (*model.CheckoutSession, error) {
	m.mu.Lock()
	m.CreateSessionCalls++
	n := m.CreateSessionCalls
	m.mu.Unlock()
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, req)
	}
	return &model.CheckoutSession{
		ID:          "sess_" + req.Cart.ID + "_" + itoa(n),
		CartID:      req.Cart.ID,
		Mode:        req.Mode,
		CheckoutURL: "https://processor.test/pay",
		Amount:      req.Cart.Total(),
		Currency:    "usd",
		Status:      model.SessionStatusPending,
	}, nil
}

func (m *MockPaymentGateway) SessionsCreated() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CreateSessionCalls
}

func (m *MockPaymentGateway) ConfirmPayment(ctx context.Context, sessionID, paymentMethodID string) (model.SessionStatus, error) {
	if m.ConfirmPaymentFunc != nil {
		return m.ConfirmPaymentFunc(ctx, sessionID, paymentMethodID)
	}
	return model.SessionStatusSucceeded, nil
}

func (m *MockPaymentGateway) GetStatus(ctx context.Context, sessionID string) (model.SessionStatus, string, error) {
	if m.GetStatusFunc != nil {
		return m.GetStatusFunc(ctx, sessionID)
	}
	return model.SessionStatusSucceeded, "", nil
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var b [8]byte
	i := len(b)
	for n > 0 {
		i--
		b[i] = byte('0' + n%10)
		n /= 10
	}
	return string(b[i:])
}

// MockRecorder pushes recorded events onto a buffered channel so tests can
// wait for the fire-and-forget goroutine.
type MockRecorder struct {
	Events     chan model.TransactionEvent
	RecordFunc func(ctx context.Context, ev model.TransactionEvent) (bool, error)
}

func NewMockRecorder() *MockRecorder {
	return &MockRecorder{Events: make(chan model.TransactionEvent, 16)}
}

func (m *MockRecorder) Record(ctx context.Context, ev model.TransactionEvent) (bool, error) {
	m.Events <- ev
	if m.RecordFunc != nil {
		return m.RecordFunc(ctx, ev)
	}
	return true, nil
}

// waitForEvent blocks until the recorder sees an event with the given status.
func (m *MockRecorder) waitForEvent(status model.SessionStatus, timeout time.Duration) (model.TransactionEvent, bool) {
	deadline := time.After(timeout)
	for {
		select {
		case ev := <-m.Events:
			if ev.Status == status {
				return ev, true
			}
		case <-deadline:
			return model.TransactionEvent{}, false
		}
	}
}

// MockCartService signals clears on a channel.
type MockCartService struct {
	Cleared   chan string
	ClearFunc func(ctx context.Context, cartID string) error
}

func NewMockCartService() *MockCartService {
	return &MockCartService{Cleared: make(chan string, 4)}
}

func (m *MockCartService) Clear(ctx context.Context, cartID string) error {
	if m.ClearFunc != nil {
		if err := m.ClearFunc(ctx, cartID); err != nil {
			return err
		}
	}
	m.Cleared <- cartID
	return nil
}

// MockNotifier counts alerts.
type MockNotifier struct {
	mu     sync.Mutex
	alerts []string
}

func (m *MockNotifier) Alert(ctx context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, text)
	return nil
}

func (m *MockNotifier) AlertCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.alerts)
}

// MockLocker is an in-memory single-flight lock.
type MockLocker struct {
	mu    sync.Mutex
	held  map[string]string
	seq   int
	Locks int // total successful acquisitions
}

func NewMockLocker() *MockLocker {
	return &MockLocker{held: make(map[string]string)}
}

func (m *MockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.held[key]; ok {
		return "", domain.ErrCheckoutInFlight
	}
	m.seq++
	token := "tok-" + itoa(m.seq)
	m.held[key] = token
	m.Locks++
	return token, nil
}

func (m *MockLocker) Unlock(ctx context.Context, key, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[key] == token {
		delete(m.held, key)
	}
	return nil
}

func (m *MockLocker) HeldCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.held)
}
