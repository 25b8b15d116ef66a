package model

import "time"

type SessionStatus string

const (
	SessionStatusPending   SessionStatus = "pending"   // created on provider side; awaiting payment
	SessionStatusSucceeded SessionStatus = "succeeded" // verified paid at provider
	SessionStatusFailed    SessionStatus = "failed"    // declined, expired or verification failed
)

// CheckoutMode selects one-time payment vs recurring billing on the provider.
type CheckoutMode string

const (
	ModePayment      CheckoutMode = "payment"
	ModeSubscription CheckoutMode = "subscription"
)

// SessionMetadata travels to the provider with the create request and comes
// back on webhooks/queries; useful for reconciliation.
type SessionMetadata struct {
	OwnerID   string `json:"ownerId"`
	Email     string `json:"email"`
	ItemCount int    `json:"itemCount"`
}

// CheckoutSession mirrors the processor-side record for one payment attempt.
// The ID is immutable once created. Status is only ever updated from
// confirmation or status calls against the processor, never optimistically.
type CheckoutSession struct {
	ID           string // opaque provider id, e.g. "cs_..."
	CartID       string
	Mode         CheckoutMode
	CheckoutURL  string // hosted flow: redirect target; empty for embedded
	ClientSecret string // embedded flow: secret for the inline payment element
	Amount       int64  // cents
	Currency     string
	Status       SessionStatus
	Metadata     SessionMetadata
	CreatedAt    time.Time
}
