package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"fitness-checkout/internal/domain"
	"fitness-checkout/internal/domain/model"
	"fitness-checkout/internal/domain/ports/repository"
)

var _ repository.AttemptRepository = (*attemptRepo)(nil)

type attemptRepo struct{ pool *pgxpool.Pool }

func NewAttemptRepo(pool *pgxpool.Pool) *attemptRepo {
	return &attemptRepo{pool: pool}
}

const attemptColumns = `id, cart_id, owner_id, email, mode, items, session_id, state, failure_reason, amount, currency, lock_token, created_at, updated_at`

func (r *attemptRepo) Save(ctx context.Context, tx repository.Tx, a *model.Attempt) error {
	items, err := json.Marshal(a.Items)
	if err != nil {
		return domain.ErrInvalidArgument
	}
	const q = `
INSERT INTO checkout_attempts (
  id, cart_id, owner_id, email, mode, items, session_id, state, failure_reason, amount, currency, lock_token, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14
) ON CONFLICT (id) DO UPDATE SET
  session_id=$7, state=$8, failure_reason=$9, amount=$10, currency=$11, lock_token=$12, updated_at=$14;`

	_, err = execSQL(ctx, r.pool, tx, q, a.ID, a.CartID, a.OwnerID, a.Email, a.Mode, items, a.SessionID, a.State, a.FailureReason, a.Amount, a.Currency, a.LockToken, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *attemptRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Attempt, error) {
	q := `SELECT ` + attemptColumns + ` FROM checkout_attempts WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q+";", id)
	if err != nil {
		return nil, err
	}
	return scanAttempt(row)
}

func (r *attemptRepo) FindBySessionID(ctx context.Context, tx repository.Tx, sessionID string) (*model.Attempt, error) {
	q := `SELECT ` + attemptColumns + ` FROM checkout_attempts WHERE session_id=$1 LIMIT 1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q+";", sessionID)
	if err != nil {
		return nil, err
	}
	return scanAttempt(row)
}

// UpdateStateIfProcessing atomically finalizes an attempt only while it is
// still PROCESSING, so a late poller and an early webhook cannot both win.
func (r *attemptRepo) UpdateStateIfProcessing(ctx context.Context, tx repository.Tx, id string, state model.CheckoutState, failureReason string) (bool, error) {
	const q = `
    UPDATE checkout_attempts
       SET state = $2,
           failure_reason = $3,
           updated_at = NOW()
     WHERE id = $1
       AND state = 'PROCESSING';`

	cmd, err := execSQL(ctx, r.pool, tx, q, id, string(state), failureReason)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *attemptRepo) ListProcessingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Attempt, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `SELECT ` + attemptColumns + ` FROM checkout_attempts WHERE state='PROCESSING' AND updated_at < $1 ORDER BY updated_at ASC LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, olderThan, limit)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()

	var out []*model.Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func scanAttempt(row pgx.Row) (*model.Attempt, error) {
	a := &model.Attempt{}
	var items []byte
	err := row.Scan(&a.ID, &a.CartID, &a.OwnerID, &a.Email, &a.Mode, &items, &a.SessionID, &a.State, &a.FailureReason, &a.Amount, &a.Currency, &a.LockToken, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &a.Items); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
	}
	return a, nil
}
