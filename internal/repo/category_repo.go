package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/quillpost/server/internal/model"
)

// CategoryRepo defines the interface for category repository operations
type CategoryRepo interface {
	Create(ctx context.Context, c *model.Category) error
	GetByID(ctx context.Context, id uuid.UUID) (model.Category, error)
	List(ctx context.Context, limit, offset int) ([]model.Category, int, error)
	Update(ctx context.Context, c *model.Category) error
	Delete(ctx context.Context, id uuid.UUID) error
	UpsertByTitles(ctx context.Context, titles []string) ([]model.Category, error)
}

type categoryRepo struct {
	db *sqlx.DB
}

// NewCategoryRepo creates a new CategoryRepo instance
func NewCategoryRepo(db *sqlx.DB) CategoryRepo {
	return &categoryRepo{db: db}
}

func (r *categoryRepo) Create(ctx context.Context, c *model.Category) error {
	err := r.db.GetContext(ctx, c, `
		INSERT INTO categories (title, priority)
		VALUES ($1, $2)
		RETURNING id, title, priority, created_at
	`, c.Title, c.Priority)
	return translate(err, "category")
}

func (r *categoryRepo) GetByID(ctx context.Context, id uuid.UUID) (model.Category, error) {
	var c model.Category
	err := r.db.GetContext(ctx, &c, `SELECT id, title, priority, created_at FROM categories WHERE id = $1`, id)
	if err != nil {
		return model.Category{}, translate(err, "category")
	}
	return c, nil
}

// List orders by priority (unset last) then title
func (r *categoryRepo) List(ctx context.Context, limit, offset int) ([]model.Category, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT count(*) FROM categories`); err != nil {
		return nil, 0, fmt.Errorf("failed to count categories: %w", err)
	}

	categories := []model.Category{}
	err := r.db.SelectContext(ctx, &categories, `
		SELECT id, title, priority, created_at
		FROM categories
		ORDER BY priority ASC NULLS LAST, title ASC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, total, nil
}

func (r *categoryRepo) Update(ctx context.Context, c *model.Category) error {
	err := r.db.GetContext(ctx, c, `
		UPDATE categories SET title = $1, priority = $2
		WHERE id = $3
		RETURNING id, title, priority, created_at
	`, c.Title, c.Priority, c.ID)
	return translate(err, "category")
}

func (r *categoryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return expectOne(res, "category")
}

// UpsertByTitles returns the categories with the given titles, creating the
// missing ones.
func (r *categoryRepo) UpsertByTitles(ctx context.Context, titles []string) ([]model.Category, error) {
	out := make([]model.Category, 0, len(titles))
	for _, title := range titles {
		var c model.Category
		err := r.db.GetContext(ctx, &c, `
			INSERT INTO categories (title)
			VALUES ($1)
			ON CONFLICT (title) DO UPDATE SET title = EXCLUDED.title
			RETURNING id, title, priority, created_at
		`, title)
		if err != nil {
			return nil, fmt.Errorf("upsert category %q: %w", title, err)
		}
		out = append(out, c)
	}
	return out, nil
}
