package repository

import (
	"context"

	"fitness-checkout/internal/domain/model"
)

// TransactionRepository is the append-only local mirror of transaction
// lifecycle events, queried by reporting.
type TransactionRepository interface {
	Append(ctx context.Context, tx Tx, ev *model.TransactionEvent) error
	ListBySession(ctx context.Context, tx Tx, sessionID string) ([]*model.TransactionEvent, error)
}
