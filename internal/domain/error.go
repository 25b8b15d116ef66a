package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrOperationFailed    = errors.New("operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid execution context for query")

	// Cart validation failures; surfaced inline, never reach the network layer
	ErrEmptyCart        = errors.New("cart has no line items")
	ErrNotAuthenticated = errors.New("no authenticated identity for cart")
	ErrNonPositiveTotal = errors.New("cart total must be positive")

	// Session / processor failures
	ErrSessionNotFound     = errors.New("checkout session not found")
	ErrProcessorDeclined   = errors.New("payment declined by processor")
	ErrConfirmTimeout      = errors.New("TIMEOUT")
	ErrCheckoutInFlight    = errors.New("a checkout is already in progress for this cart")
	ErrPaymentInFlight     = errors.New("cannot close checkout while a payment is processing")
	ErrInvalidTransition   = errors.New("checkout state transition not allowed")
	ErrAttemptNotRetryable = errors.New("only a failed checkout attempt can be retried")
)
