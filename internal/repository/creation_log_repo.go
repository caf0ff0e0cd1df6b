package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// CreationLogRepository tracks hero creation events for trailing-window
// rate limiting. The log is append-only.
type CreationLogRepository interface {
	// CountCreationsSince counts creations for the user at or after the
	// given instant.
	CountCreationsSince(ctx context.Context, userID string, since time.Time) (int, error)
	// RecordCreation appends exactly one entry for a successful creation.
	RecordCreation(ctx context.Context, userID string) error
	// OldestCreationSince returns the timestamp of the oldest entry in the
	// window, used to compute a reset hint. Returns zero time when none.
	OldestCreationSince(ctx context.Context, userID string, since time.Time) (time.Time, error)
}

type creationLogRepo struct {
	pool *pgxpool.Pool
}

// NewCreationLogRepo creates a new CreationLogRepository.
func NewCreationLogRepo(pool *pgxpool.Pool) CreationLogRepository {
	return &creationLogRepo{pool: pool}
}

func (r *creationLogRepo) CountCreationsSince(ctx context.Context, userID string, since time.Time) (int, error) {
	const q = `
        SELECT COUNT(*)
        FROM creation_log
        WHERE user_id = $1
          AND created_at >= $2
    `
	var count int
	if err := r.pool.QueryRow(ctx, q, userID, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting creations for user %s: %w", userID, err)
	}
	return count, nil
}

func (r *creationLogRepo) RecordCreation(ctx context.Context, userID string) error {
	const q = `INSERT INTO creation_log (user_id) VALUES ($1)`
	if _, err := r.pool.Exec(ctx, q, userID); err != nil {
		return fmt.Errorf("recording creation for user %s: %w", userID, err)
	}
	return nil
}

func (r *creationLogRepo) OldestCreationSince(ctx context.Context, userID string, since time.Time) (time.Time, error) {
	const q = `
        SELECT COALESCE(MIN(created_at), 'epoch'::timestamptz)
        FROM creation_log
        WHERE user_id = $1
          AND created_at >= $2
    `
	var oldest time.Time
	if err := r.pool.QueryRow(ctx, q, userID, since).Scan(&oldest); err != nil {
		return time.Time{}, fmt.Errorf("fetching oldest creation for user %s: %w", userID, err)
	}
	if oldest.Unix() == 0 {
		return time.Time{}, nil
	}
	return oldest, nil
}
