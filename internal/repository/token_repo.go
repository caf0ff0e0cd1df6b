package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"app/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TokenRepository stores single-use reminder opt-out tokens.
type TokenRepository interface {
	CreateToken(ctx context.Context, t *model.ReminderToken) error
	GetToken(ctx context.Context, token string) (*model.ReminderToken, error)
	// MarkTokenUsed sets used_at if and only if it is still unset. Returns
	// false when the token was already consumed by a concurrent request.
	MarkTokenUsed(ctx context.Context, token string, usedAt time.Time) (bool, error)
}

type tokenRepo struct {
	pool *pgxpool.Pool
}

// NewTokenRepo creates a new TokenRepository.
func NewTokenRepo(pool *pgxpool.Pool) TokenRepository {
	return &tokenRepo{pool: pool}
}

func (r *tokenRepo) CreateToken(ctx context.Context, t *model.ReminderToken) error {
	const q = `
        INSERT INTO reminder_tokens (token, user_id, token_type, expires_at)
        VALUES ($1, $2, $3, $4)
    `
	if _, err := r.pool.Exec(ctx, q, t.Token, t.UserID, t.TokenType, t.ExpiresAt); err != nil {
		return fmt.Errorf("create reminder token for user %s: %w", t.UserID, err)
	}
	return nil
}

func (r *tokenRepo) GetToken(ctx context.Context, token string) (*model.ReminderToken, error) {
	const q = `
        SELECT token, user_id, token_type, expires_at, used_at, created_at
        FROM reminder_tokens
        WHERE token = $1
    `
	var t model.ReminderToken
	err := r.pool.QueryRow(ctx, q, token).Scan(&t.Token, &t.UserID, &t.TokenType, &t.ExpiresAt, &t.UsedAt, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch reminder token: %w", err)
	}
	return &t, nil
}

func (r *tokenRepo) MarkTokenUsed(ctx context.Context, token string, usedAt time.Time) (bool, error) {
	const q = `
        UPDATE reminder_tokens
        SET used_at = $2
        WHERE token = $1 AND used_at IS NULL
    `
	tag, err := r.pool.Exec(ctx, q, token, usedAt)
	if err != nil {
		return false, fmt.Errorf("mark reminder token used: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
