package model

import (
	"time"

	"fitness-checkout/internal/domain"
)

// CheckoutState is owned exclusively by the checkout use case; other
// components read it but never mutate it.
type CheckoutState string

const (
	StateReview     CheckoutState = "REVIEW"
	StatePayment    CheckoutState = "PAYMENT"
	StateProcessing CheckoutState = "PROCESSING"
	StateSuccess    CheckoutState = "SUCCESS"
	StateFailed     CheckoutState = "FAILED"
)

// AllowedTransitions defines the valid state transitions. The key is the
// current state, the value the set of legal target states.
//
//	REVIEW  -> PAYMENT            (cart valid, user confirms)
//	PAYMENT -> PROCESSING         (session created; redirect/embed in flight)
//	PROCESSING -> SUCCESS|FAILED  (explicit confirm/status result only)
//	FAILED  -> PAYMENT            (user retries with a fresh session)
//
// SUCCESS and FAILED are terminal for a given attempt; SUCCESS has no exits
// and a retry out of FAILED always creates a new provider session.
var AllowedTransitions = map[CheckoutState][]CheckoutState{
	StateReview:     {StatePayment},
	StatePayment:    {StateProcessing},
	StateProcessing: {StateSuccess, StateFailed},
	StateSuccess:    {},
	StateFailed:     {StatePayment},
}

// CanTransition reports whether moving from one state to another is allowed.
func CanTransition(from, to CheckoutState) bool {
	for _, s := range AllowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Attempt is one run of the checkout state machine for a cart. A new attempt
// after FAILED gets a fresh provider session; the failed one is abandoned.
type Attempt struct {
	ID            string // UUID
	CartID        string
	OwnerID       string
	Email         string
	Mode          CheckoutMode
	Items         []LineItem // cart snapshot at start; a retry rebuilds the provider request from it
	SessionID     string     // provider session id once PAYMENT succeeded
	State         CheckoutState
	FailureReason string // verbatim processor reason when State == FAILED
	Amount        int64
	Currency      string
	LockToken     string // single-flight lock token held while the attempt is live
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Transition moves the attempt to a new state, enforcing the table above.
func (a *Attempt) Transition(to CheckoutState) error {
	if !CanTransition(a.State, to) {
		return domain.ErrInvalidTransition
	}
	a.State = to
	a.UpdatedAt = time.Now()
	return nil
}
