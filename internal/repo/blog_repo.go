package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/quillpost/server/internal/model"
)

const blogColumns = `b.id, b.author_id, b.title, b.slug, b.description, b.content, b.image, b.status, b.created_at, b.updated_at`

// BlogFilter narrows List. Zero fields are ignored.
type BlogFilter struct {
	AuthorID   *uuid.UUID
	CategoryID *uuid.UUID
	Status     model.BlogStatus
	Search     string
}

// BlogRepo defines the interface for blog repository operations
type BlogRepo interface {
	Create(ctx context.Context, b *model.Blog, categoryIDs []uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (model.Blog, error)
	SlugExists(ctx context.Context, slug string, exclude uuid.UUID) (bool, error)
	List(ctx context.Context, f BlogFilter, limit, offset int) ([]model.Blog, int, error)
	Update(ctx context.Context, b *model.Blog, categoryIDs []uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	ToggleLike(ctx context.Context, blogID, userID uuid.UUID) (bool, error)
	ToggleBookmark(ctx context.Context, blogID, userID uuid.UUID) (bool, error)
}

type blogRepo struct {
	db *sqlx.DB
}

// NewBlogRepo creates a new BlogRepo instance
func NewBlogRepo(db *sqlx.DB) BlogRepo {
	return &blogRepo{db: db}
}

// Create inserts the blog and links its categories in one transaction
func (r *blogRepo) Create(ctx context.Context, b *model.Blog, categoryIDs []uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	err = tx.GetContext(ctx, b, `
		INSERT INTO blogs (author_id, title, slug, description, content, image, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, author_id, title, slug, description, content, image, status, created_at, updated_at
	`, b.AuthorID, b.Title, b.Slug, b.Description, b.Content, b.Image, b.Status)
	if err != nil {
		return translate(err, "blog")
	}

	if err := linkCategories(ctx, tx, b.ID, categoryIDs); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func linkCategories(ctx context.Context, tx *sqlx.Tx, blogID uuid.UUID, categoryIDs []uuid.UUID) error {
	for _, id := range categoryIDs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO blog_categories (blog_id, category_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, blogID, id)
		if err != nil {
			return fmt.Errorf("link category: %w", err)
		}
	}
	return nil
}

func (r *blogRepo) GetByID(ctx context.Context, id uuid.UUID) (model.Blog, error) {
	var b model.Blog
	if err := r.db.GetContext(ctx, &b, `SELECT `+blogColumns+` FROM blogs b WHERE b.id = $1`, id); err != nil {
		return model.Blog{}, translate(err, "blog")
	}
	blogs := []model.Blog{b}
	if err := r.attachCategories(ctx, blogs); err != nil {
		return model.Blog{}, err
	}
	return blogs[0], nil
}

func (r *blogRepo) SlugExists(ctx context.Context, slug string, exclude uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM blogs WHERE slug = $1 AND id <> $2)`, slug, exclude)
	if err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	return exists, nil
}

// List returns a page of blogs, newest first, and the total count
func (r *blogRepo) List(ctx context.Context, f BlogFilter, limit, offset int) ([]model.Blog, int, error) {
	var (
		where []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.AuthorID != nil {
		where = append(where, "b.author_id = "+arg(*f.AuthorID))
	}
	if f.Status != "" {
		where = append(where, "b.status = "+arg(f.Status))
	}
	if f.CategoryID != nil {
		where = append(where, "EXISTS (SELECT 1 FROM blog_categories bc WHERE bc.blog_id = b.id AND bc.category_id = "+arg(*f.CategoryID)+")")
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		p := arg("%" + s + "%")
		where = append(where, "(b.title ILIKE "+p+" OR b.description ILIKE "+p+")")
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT count(*) FROM blogs b`+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count blogs: %w", err)
	}

	query := `SELECT ` + blogColumns + ` FROM blogs b` + clause +
		` ORDER BY b.created_at DESC LIMIT ` + arg(limit) + ` OFFSET ` + arg(offset)
	blogs := []model.Blog{}
	if err := r.db.SelectContext(ctx, &blogs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list blogs: %w", err)
	}
	if err := r.attachCategories(ctx, blogs); err != nil {
		return nil, 0, err
	}
	return blogs, total, nil
}

type blogCategoryRow struct {
	BlogID uuid.UUID `db:"blog_id"`
	model.Category
}

func (r *blogRepo) attachCategories(ctx context.Context, blogs []model.Blog) error {
	if len(blogs) == 0 {
		return nil
	}
	ids := make([]string, len(blogs))
	for i, b := range blogs {
		ids[i] = b.ID.String()
	}

	var rows []blogCategoryRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT bc.blog_id, c.id, c.title, c.priority, c.created_at
		FROM blog_categories bc
		JOIN categories c ON c.id = bc.category_id
		WHERE bc.blog_id = ANY($1::uuid[])
		ORDER BY c.priority ASC NULLS LAST, c.title ASC
	`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to load blog categories: %w", err)
	}

	byBlog := make(map[uuid.UUID][]model.Category, len(blogs))
	for _, row := range rows {
		byBlog[row.BlogID] = append(byBlog[row.BlogID], row.Category)
	}
	for i := range blogs {
		blogs[i].Categories = byBlog[blogs[i].ID]
		if blogs[i].Categories == nil {
			blogs[i].Categories = []model.Category{}
		}
	}
	return nil
}

// Update rewrites the blog columns. A nil categoryIDs keeps the current links;
// a non-nil slice replaces them.
func (r *blogRepo) Update(ctx context.Context, b *model.Blog, categoryIDs []uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	err = tx.GetContext(ctx, b, `
		UPDATE blogs
		SET title = $1, slug = $2, description = $3, content = $4, image = $5, status = $6, updated_at = now()
		WHERE id = $7
		RETURNING id, author_id, title, slug, description, content, image, status, created_at, updated_at
	`, b.Title, b.Slug, b.Description, b.Content, b.Image, b.Status, b.ID)
	if err != nil {
		return translate(err, "blog")
	}

	if categoryIDs != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM blog_categories WHERE blog_id = $1`, b.ID); err != nil {
			return fmt.Errorf("unlink categories: %w", err)
		}
		if err := linkCategories(ctx, tx, b.ID, categoryIDs); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *blogRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM blogs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete blog: %w", err)
	}
	return expectOne(res, "blog")
}

func (r *blogRepo) ToggleLike(ctx context.Context, blogID, userID uuid.UUID) (bool, error) {
	return r.toggle(ctx, "blog_likes", blogID, userID)
}

func (r *blogRepo) ToggleBookmark(ctx context.Context, blogID, userID uuid.UUID) (bool, error) {
	return r.toggle(ctx, "blog_bookmarks", blogID, userID)
}

// toggle removes the (blog, user) row if present, otherwise inserts it.
// Returns true when the row exists afterwards.
func (r *blogRepo) toggle(ctx context.Context, table string, blogID, userID uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE blog_id = $1 AND user_id = $2`, blogID, userID)
	if err != nil {
		return false, fmt.Errorf("toggle %s: %w", table, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return false, nil
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO `+table+` (blog_id, user_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, blogID, userID)
	if err != nil {
		return false, fmt.Errorf("toggle %s: %w", table, err)
	}
	return true, nil
}
