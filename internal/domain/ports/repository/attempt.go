package repository

import (
	"context"
	"time"

	"fitness-checkout/internal/domain/model"
)

// AttemptRepository persists checkout attempts. One row per run of the state
// machine; the row's state column mirrors model.Attempt.State.
type AttemptRepository interface {
	Save(ctx context.Context, tx Tx, a *model.Attempt) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Attempt, error)
	FindBySessionID(ctx context.Context, tx Tx, sessionID string) (*model.Attempt, error)

	// UpdateStateIfProcessing atomically finalizes an attempt only while it is
	// still PROCESSING, so a late poller and an early webhook cannot both win.
	UpdateStateIfProcessing(ctx context.Context, tx Tx, id string, state model.CheckoutState, failureReason string) (bool, error)

	// ListProcessingOlderThan feeds the reconciler with attempts whose
	// confirmation was lost (crash, dropped callback).
	ListProcessingOlderThan(ctx context.Context, tx Tx, olderThan time.Time, limit int) ([]*model.Attempt, error)
}
