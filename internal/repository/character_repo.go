package repository

import (
	"context"
	"errors"
	"fmt"

	"app/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CharacterRepository provides access to story heroes.
type CharacterRepository interface {
	CreateCharacter(ctx context.Context, c *model.Character) (*model.Character, error)
	GetCharacterByID(ctx context.Context, id string) (*model.Character, error)
	// DeleteCharacter hard-deletes a hero. Used only as rollback
	// compensation when a dependent operation fails after insertion.
	DeleteCharacter(ctx context.Context, id string) error
	// GetOwnedPortraitPaths resolves portrait storage paths for the subset
	// of the given hero ids owned by the user, in one query.
	GetOwnedPortraitPaths(ctx context.Context, userID string, ids []string) (map[string]string, error)
}

type characterRepo struct {
	pool *pgxpool.Pool
}

// NewCharacterRepo creates a new CharacterRepository.
func NewCharacterRepo(pool *pgxpool.Pool) CharacterRepository {
	return &characterRepo{pool: pool}
}

const characterColumns = `id, user_id, name, archetype, age_band, traits, icon, sidekick_name, sidekick_archetype, preferred_language, portrait_path, created_at, updated_at`

func scanCharacter(row pgx.Row) (*model.Character, error) {
	var c model.Character
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Archetype, &c.AgeBand, &c.Traits, &c.Icon,
		&c.SidekickName, &c.SidekickArchetype, &c.PreferredLanguage, &c.PortraitPath, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *characterRepo) CreateCharacter(ctx context.Context, c *model.Character) (*model.Character, error) {
	const q = `
        INSERT INTO characters (user_id, name, archetype, age_band, traits, icon, sidekick_name, sidekick_archetype, preferred_language, portrait_path)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING ` + characterColumns
	created, err := scanCharacter(r.pool.QueryRow(ctx, q,
		c.UserID, c.Name, c.Archetype, c.AgeBand, c.Traits, c.Icon,
		c.SidekickName, c.SidekickArchetype, c.PreferredLanguage, c.PortraitPath))
	if err != nil {
		return nil, fmt.Errorf("create character for user %s: %w", c.UserID, err)
	}
	return created, nil
}

func (r *characterRepo) GetCharacterByID(ctx context.Context, id string) (*model.Character, error) {
	q := `SELECT ` + characterColumns + ` FROM characters WHERE id = $1`
	c, err := scanCharacter(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		return nil, fmt.Errorf("fetch character %s: %w", id, err)
	}
	return c, nil
}

func (r *characterRepo) DeleteCharacter(ctx context.Context, id string) error {
	const q = `DELETE FROM characters WHERE id = $1`
	if _, err := r.pool.Exec(ctx, q, id); err != nil {
		return fmt.Errorf("delete character %s: %w", id, err)
	}
	return nil
}

func (r *characterRepo) GetOwnedPortraitPaths(ctx context.Context, userID string, ids []string) (map[string]string, error) {
	const q = `
        SELECT id, portrait_path
        FROM characters
        WHERE user_id = $1
          AND id = ANY($2)
          AND portrait_path <> ''
    `
	rows, err := r.pool.Query(ctx, q, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch owned portraits for user %s: %w", userID, err)
	}
	defer rows.Close()

	paths := make(map[string]string, len(ids))
	for rows.Next() {
		var id, path string
		if err := rows.Scan(&id, &path); err != nil {
			return nil, fmt.Errorf("scan owned portrait: %w", err)
		}
		paths[id] = path
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate owned portraits: %w", err)
	}
	return paths, nil
}
