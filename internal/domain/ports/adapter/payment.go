package adapter

import (
	"context"

	"fitness-checkout/internal/domain/model"
)

// CreateSessionRequest carries everything the processor needs to open a
// checkout session: the cart snapshot, the authenticated customer, the flow
// mode and the redirect templates for the hosted flow.
type CreateSessionRequest struct {
	Cart       *model.Cart
	Identity   model.Identity
	Mode       model.CheckoutMode
	SuccessURL string
	CancelURL  string
}

// PaymentGateway is the hex port for the external payment processor.
//
// CreateSession opens exactly one provider session per call; callers are
// responsible for not invoking it twice for the same in-flight attempt (the
// checkout use case holds a single-flight lock per cart/identity pair).
// ConfirmPayment drives the embedded flow; GetStatus reconciles the hosted
// flow after a redirect — redirect arrival alone is never proof of payment.
type PaymentGateway interface {
	Name() string

	CreateSession(ctx context.Context, req CreateSessionRequest) (*model.CheckoutSession, error)

	// ConfirmPayment returns "succeeded" or "failed"; a decline surfaces the
	// processor's reason via the wrapped error, verbatim.
	ConfirmPayment(ctx context.Context, sessionID, paymentMethodID string) (model.SessionStatus, error)

	// GetStatus returns the session status plus the processor's failure
	// reason ("" unless status is failed).
	GetStatus(ctx context.Context, sessionID string) (model.SessionStatus, string, error)
}
