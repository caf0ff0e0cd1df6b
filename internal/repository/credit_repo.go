package repository

import (
	"context"
	"errors"
	"fmt"

	"app/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CreditRepository mutates per-user credit balances. Deductions are a
// single conditional update so concurrent requests cannot drive the
// balance negative; grants dedup on the payment reference.
type CreditRepository interface {
	GetBalance(ctx context.Context, userID string) (int, error)
	// DeductCredits decrements the balance by cost if and only if the
	// balance covers it. Returns the remaining balance and whether the
	// deduction was applied.
	DeductCredits(ctx context.Context, userID string, cost int) (int, bool, error)
	// RefundCredits returns previously deducted credits, compensating a
	// failed downstream operation.
	RefundCredits(ctx context.Context, userID string, amount int) error
	// AddCredits grants credits, recording a ledger entry keyed by the
	// provider reference. A replayed reference grants nothing.
	AddCredits(ctx context.Context, userID string, amount int, reference string) error
}

type creditRepo struct {
	pool *pgxpool.Pool
}

// NewCreditRepo creates a new CreditRepository.
func NewCreditRepo(pool *pgxpool.Pool) CreditRepository {
	return &creditRepo{pool: pool}
}

func (r *creditRepo) GetBalance(ctx context.Context, userID string) (int, error) {
	const q = `SELECT credits FROM user_profiles WHERE user_id = $1`
	var balance int
	if err := r.pool.QueryRow(ctx, q, userID).Scan(&balance); err != nil {
		return 0, fmt.Errorf("fetch credit balance for user %s: %w", userID, err)
	}
	return balance, nil
}

func (r *creditRepo) DeductCredits(ctx context.Context, userID string, cost int) (int, bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, false, fmt.Errorf("begin credit deduction for user %s: %w", userID, err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	// The WHERE clause makes the decrement conditional on the balance
	// covering the cost; a concurrent deduction that drained the balance
	// first simply matches zero rows.
	const q = `
        UPDATE user_profiles
        SET credits = credits - $2, updated_at = NOW()
        WHERE user_id = $1 AND credits >= $2
        RETURNING credits
    `
	var remaining int
	err = tx.QueryRow(ctx, q, userID, cost).Scan(&remaining)
	if errors.Is(err, pgx.ErrNoRows) {
		// No row matched: balance too low. Report the current balance.
		const balQ = `SELECT credits FROM user_profiles WHERE user_id = $1`
		var balance int
		if balErr := tx.QueryRow(ctx, balQ, userID).Scan(&balance); balErr != nil {
			return 0, false, fmt.Errorf("fetch balance after failed deduction for user %s: %w", userID, balErr)
		}
		if err := tx.Commit(ctx); err != nil {
			return 0, false, fmt.Errorf("commit failed-deduction read for user %s: %w", userID, err)
		}
		return balance, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("deduct credits for user %s: %w", userID, err)
	}

	const ledgerQ = `INSERT INTO credit_ledger (user_id, delta, reason) VALUES ($1, $2, $3)`
	if _, err := tx.Exec(ctx, ledgerQ, userID, -cost, model.CreditReasonHeroCreation); err != nil {
		return 0, false, fmt.Errorf("record credit deduction for user %s: %w", userID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, false, fmt.Errorf("commit credit deduction for user %s: %w", userID, err)
	}
	return remaining, true, nil
}

func (r *creditRepo) RefundCredits(ctx context.Context, userID string, amount int) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin credit refund for user %s: %w", userID, err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	const q = `UPDATE user_profiles SET credits = credits + $2, updated_at = NOW() WHERE user_id = $1`
	if _, err := tx.Exec(ctx, q, userID, amount); err != nil {
		return fmt.Errorf("refund credits for user %s: %w", userID, err)
	}
	const ledgerQ = `INSERT INTO credit_ledger (user_id, delta, reason) VALUES ($1, $2, $3)`
	if _, err := tx.Exec(ctx, ledgerQ, userID, amount, model.CreditReasonHeroCreation); err != nil {
		return fmt.Errorf("record credit refund for user %s: %w", userID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit credit refund for user %s: %w", userID, err)
	}
	return nil
}

func (r *creditRepo) AddCredits(ctx context.Context, userID string, amount int, reference string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin credit grant for user %s: %w", userID, err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	// The unique index on reference makes provider replays a no-op: the
	// balance is only incremented when the ledger row was actually inserted.
	const ledgerQ = `
        INSERT INTO credit_ledger (user_id, delta, reason, reference)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (reference) DO NOTHING
    `
	tag, err := tx.Exec(ctx, ledgerQ, userID, amount, model.CreditReasonPurchase, reference)
	if err != nil {
		return fmt.Errorf("record credit grant for user %s: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		return tx.Commit(ctx)
	}

	const q = `UPDATE user_profiles SET credits = credits + $2, updated_at = NOW() WHERE user_id = $1`
	if _, err := tx.Exec(ctx, q, userID, amount); err != nil {
		return fmt.Errorf("apply credit grant for user %s: %w", userID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit credit grant for user %s: %w", userID, err)
	}
	return nil
}
