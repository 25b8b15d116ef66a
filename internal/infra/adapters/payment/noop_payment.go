package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fitness-checkout/internal/domain/model"
	"fitness-checkout/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*NoopGateway)(nil)

// NoopGateway approves everything instantly. Dev mode only.
type NoopGateway struct{}

func NewNoopGateway() *NoopGateway { return &NoopGateway{} }

func (n *NoopGateway) Name() string { return "noop" }

func (n *NoopGateway) CreateSession(ctx context.Context, req adapter.CreateSessionRequest) (*model.CheckoutSession, error) {
	id := "cs_noop_" + uuid.NewString()
	return &model.CheckoutSession{
		ID:           id,
		CartID:       req.Cart.ID,
		Mode:         req.Mode,
		CheckoutURL:  fmt.Sprintf("https://localhost/dev-checkout/%s", id),
		ClientSecret: id + "_secret",
		Amount:       req.Cart.Total(),
		Currency:     "usd",
		Status:       model.SessionStatusPending,
		Metadata: model.SessionMetadata{
			OwnerID:   req.Identity.ID,
			Email:     req.Identity.Email,
			ItemCount: req.Cart.ItemCount(),
		},
		CreatedAt: time.Now(),
	}, nil
}

func (n *NoopGateway) ConfirmPayment(ctx context.Context, sessionID, paymentMethodID string) (model.SessionStatus, error) {
	return model.SessionStatusSucceeded, nil
}

func (n *NoopGateway) GetStatus(ctx context.Context, sessionID string) (model.SessionStatus, string, error) {
	return model.SessionStatusSucceeded, "", nil
}
