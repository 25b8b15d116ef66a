package txlog

import (
	"context"

	"fitness-checkout/internal/domain/model"
	"fitness-checkout/internal/domain/ports/adapter"
	"fitness-checkout/internal/domain/ports/repository"
)

var _ adapter.TransactionRecorder = (*PostgresRecorder)(nil)

// PostgresRecorder mirrors events into the local append-only transactions
// table that feeds admin reporting.
type PostgresRecorder struct {
	repo repository.TransactionRepository
}

func NewPostgresRecorder(repo repository.TransactionRepository) *PostgresRecorder {
	return &PostgresRecorder{repo: repo}
}

func (r *PostgresRecorder) Record(ctx context.Context, ev model.TransactionEvent) (bool, error) {
	if err := r.repo.Append(ctx, nil, &ev); err != nil {
		return false, err
	}
	return true, nil
}
