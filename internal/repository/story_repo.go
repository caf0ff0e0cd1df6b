package repository

import (
	"context"
	"errors"
	"fmt"

	"app/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StoryRepository provides access to stories and their pages.
type StoryRepository interface {
	// CreateActiveStory deactivates all of the character's stories and
	// inserts the new one as active, in a single transaction, so there is
	// no window with zero or two active stories.
	CreateActiveStory(ctx context.Context, s *model.Story) (*model.Story, error)
	GetStoryByID(ctx context.Context, id string) (*model.Story, error)
	ListStoriesByCharacter(ctx context.Context, characterID string) ([]model.Story, error)
	UpdateStoryStatus(ctx context.Context, storyID, status string) error
	// FinishStory marks the story ready and fixes its resolved page count.
	FinishStory(ctx context.Context, storyID string, totalPages int) error

	GetPageNumbers(ctx context.Context, storyID string) ([]int, error)
	GetPages(ctx context.Context, storyID string) ([]model.Page, error)
	GetPage(ctx context.Context, storyID string, pageNumber int) (*model.Page, error)
	// UpsertPages persists pages in one batch keyed on (story_id,
	// page_number); existing pages are left untouched.
	UpsertPages(ctx context.Context, pages []model.Page) error
}

type storyRepo struct {
	pool *pgxpool.Pool
}

// NewStoryRepo creates a new StoryRepository.
func NewStoryRepo(pool *pgxpool.Pool) StoryRepository {
	return &storyRepo{pool: pool}
}

const storyColumns = `id, character_id, length_setting, story_route, total_pages, status, is_active, created_at, updated_at`

func scanStory(row pgx.Row) (*model.Story, error) {
	var s model.Story
	err := row.Scan(&s.ID, &s.CharacterID, &s.LengthSetting, &s.StoryRoute, &s.TotalPages, &s.Status, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *storyRepo) CreateActiveStory(ctx context.Context, s *model.Story) (*model.Story, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin story creation for character %s: %w", s.CharacterID, err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	const deactivateQ = `UPDATE stories SET is_active = FALSE, updated_at = NOW() WHERE character_id = $1 AND is_active`
	if _, err := tx.Exec(ctx, deactivateQ, s.CharacterID); err != nil {
		return nil, fmt.Errorf("deactivate stories for character %s: %w", s.CharacterID, err)
	}

	const insertQ = `
        INSERT INTO stories (character_id, length_setting, story_route, total_pages, status, is_active)
        VALUES ($1, $2, $3, $4, $5, TRUE)
        RETURNING ` + storyColumns
	created, err := scanStory(tx.QueryRow(ctx, insertQ, s.CharacterID, s.LengthSetting, s.StoryRoute, s.TotalPages, s.Status))
	if err != nil {
		return nil, fmt.Errorf("insert story for character %s: %w", s.CharacterID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit story creation for character %s: %w", s.CharacterID, err)
	}
	return created, nil
}

func (r *storyRepo) GetStoryByID(ctx context.Context, id string) (*model.Story, error) {
	q := `SELECT ` + storyColumns + ` FROM stories WHERE id = $1`
	s, err := scanStory(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		return nil, fmt.Errorf("fetch story %s: %w", id, err)
	}
	return s, nil
}

func (r *storyRepo) ListStoriesByCharacter(ctx context.Context, characterID string) ([]model.Story, error) {
	q := `SELECT ` + storyColumns + ` FROM stories WHERE character_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, characterID)
	if err != nil {
		return nil, fmt.Errorf("list stories for character %s: %w", characterID, err)
	}
	defer rows.Close()

	var stories []model.Story
	for rows.Next() {
		var s model.Story
		if err := rows.Scan(&s.ID, &s.CharacterID, &s.LengthSetting, &s.StoryRoute, &s.TotalPages, &s.Status, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan story: %w", err)
		}
		stories = append(stories, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stories: %w", err)
	}
	return stories, nil
}

func (r *storyRepo) UpdateStoryStatus(ctx context.Context, storyID, status string) error {
	const q = `UPDATE stories SET status = $2, updated_at = NOW() WHERE id = $1`
	if _, err := r.pool.Exec(ctx, q, storyID, status); err != nil {
		return fmt.Errorf("update status of story %s: %w", storyID, err)
	}
	return nil
}

func (r *storyRepo) FinishStory(ctx context.Context, storyID string, totalPages int) error {
	const q = `UPDATE stories SET status = $2, total_pages = $3, updated_at = NOW() WHERE id = $1`
	if _, err := r.pool.Exec(ctx, q, storyID, model.StoryStatusReady, totalPages); err != nil {
		return fmt.Errorf("finish story %s: %w", storyID, err)
	}
	return nil
}

func (r *storyRepo) GetPageNumbers(ctx context.Context, storyID string) ([]int, error) {
	const q = `SELECT page_number FROM story_pages WHERE story_id = $1 ORDER BY page_number`
	rows, err := r.pool.Query(ctx, q, storyID)
	if err != nil {
		return nil, fmt.Errorf("fetch page numbers for story %s: %w", storyID, err)
	}
	defer rows.Close()

	var numbers []int
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan page number: %w", err)
		}
		numbers = append(numbers, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate page numbers: %w", err)
	}
	return numbers, nil
}

func (r *storyRepo) GetPages(ctx context.Context, storyID string) ([]model.Page, error) {
	const q = `
        SELECT story_id, page_number, content, image_path, created_at
        FROM story_pages
        WHERE story_id = $1
        ORDER BY page_number
    `
	rows, err := r.pool.Query(ctx, q, storyID)
	if err != nil {
		return nil, fmt.Errorf("fetch pages for story %s: %w", storyID, err)
	}
	defer rows.Close()

	var pages []model.Page
	for rows.Next() {
		var p model.Page
		if err := rows.Scan(&p.StoryID, &p.PageNumber, &p.Content, &p.ImagePath, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		pages = append(pages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pages: %w", err)
	}
	return pages, nil
}

func (r *storyRepo) GetPage(ctx context.Context, storyID string, pageNumber int) (*model.Page, error) {
	const q = `
        SELECT story_id, page_number, content, image_path, created_at
        FROM story_pages
        WHERE story_id = $1 AND page_number = $2
    `
	var p model.Page
	err := r.pool.QueryRow(ctx, q, storyID, pageNumber).Scan(&p.StoryID, &p.PageNumber, &p.Content, &p.ImagePath, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch page %d of story %s: %w", pageNumber, storyID, err)
	}
	return &p, nil
}

func (r *storyRepo) UpsertPages(ctx context.Context, pages []model.Page) error {
	if len(pages) == 0 {
		return nil
	}
	const q = `
        INSERT INTO story_pages (story_id, page_number, content, image_path)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (story_id, page_number) DO NOTHING
    `
	batch := &pgx.Batch{}
	for _, p := range pages {
		batch.Queue(q, p.StoryID, p.PageNumber, p.Content, p.ImagePath)
	}
	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range pages {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("upsert story pages: %w", err)
		}
	}
	return nil
}
