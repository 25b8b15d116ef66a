package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"fitness-checkout/internal/domain"
	"fitness-checkout/internal/domain/model"
	"fitness-checkout/internal/domain/ports/repository"
)

var _ repository.TransactionRepository = (*transactionRepo)(nil)

// transactionRepo is append-only: checkout never updates or deletes a row
// here. Reporting reads it, nothing else writes it.
type transactionRepo struct{ pool *pgxpool.Pool }

func NewTransactionRepo(pool *pgxpool.Pool) *transactionRepo {
	return &transactionRepo{pool: pool}
}

func (r *transactionRepo) Append(ctx context.Context, tx repository.Tx, ev *model.TransactionEvent) error {
	const q = `
INSERT INTO transactions (id, session_id, amount, currency, status, reason, at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO NOTHING;`

	_, err := execSQL(ctx, r.pool, tx, q, ev.ID, ev.SessionID, ev.Amount, ev.Currency, ev.Status, ev.Reason, ev.At)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *transactionRepo) ListBySession(ctx context.Context, tx repository.Tx, sessionID string) ([]*model.TransactionEvent, error) {
	const q = `SELECT id, session_id, amount, currency, status, reason, at FROM transactions WHERE session_id=$1 ORDER BY id ASC;`
	rows, err := queryRows(ctx, r.pool, tx, q, sessionID)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()

	var out []*model.TransactionEvent
	for rows.Next() {
		ev := new(model.TransactionEvent)
		if err := rows.Scan(&ev.ID, &ev.SessionID, &ev.Amount, &ev.Currency, &ev.Status, &ev.Reason, &ev.At); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, domain.ErrNotFound
			}
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, ev)
	}
	return out, nil
}
