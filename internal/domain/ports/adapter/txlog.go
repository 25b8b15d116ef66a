package adapter

import (
	"context"

	"fitness-checkout/internal/domain/model"
)

// TransactionRecorder persists transaction lifecycle events for reporting.
// Strictly best-effort: a false/error result is logged locally and ignored by
// the caller. Recording must never fail or block a checkout.
type TransactionRecorder interface {
	Record(ctx context.Context, ev model.TransactionEvent) (bool, error)
}
