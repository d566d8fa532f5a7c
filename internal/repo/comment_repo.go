package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/quillpost/server/internal/model"
)

const commentSelect = `
	SELECT c.id, c.blog_id, c.user_id, c.parent_id, c.text, c.accepted, c.created_at,
	       u.username AS user_username, u.phone AS user_phone, u.name AS user_name
	FROM blog_comments c
	JOIN users u ON u.id = c.user_id`

// CommentRepo defines the interface for blog comment repository operations
type CommentRepo interface {
	Create(ctx context.Context, c *model.BlogComment) error
	GetByID(ctx context.Context, id uuid.UUID) (model.BlogComment, error)
	ListTopLevel(ctx context.Context, blogID *uuid.UUID, limit, offset int) ([]model.BlogComment, int, error)
	ListChildren(ctx context.Context, parentIDs []uuid.UUID) ([]model.BlogComment, error)
}

type commentRepo struct {
	db *sqlx.DB
}

// NewCommentRepo creates a new CommentRepo instance
func NewCommentRepo(db *sqlx.DB) CommentRepo {
	return &commentRepo{db: db}
}

type commentRow struct {
	model.BlogComment
	UserUsername string  `db:"user_username"`
	UserPhone    *string `db:"user_phone"`
	UserName     *string `db:"user_name"`
}

func (row commentRow) comment() model.BlogComment {
	c := row.BlogComment
	c.User = &model.UserSummary{
		ID:       c.UserID,
		Username: row.UserUsername,
		Phone:    row.UserPhone,
		Name:     row.UserName,
	}
	return c
}

func (r *commentRepo) Create(ctx context.Context, c *model.BlogComment) error {
	err := r.db.GetContext(ctx, c, `
		INSERT INTO blog_comments (blog_id, user_id, parent_id, text, accepted)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, blog_id, user_id, parent_id, text, accepted, created_at
	`, c.BlogID, c.UserID, c.ParentID, c.Text, c.Accepted)
	return translate(err, "comment")
}

func (r *commentRepo) GetByID(ctx context.Context, id uuid.UUID) (model.BlogComment, error) {
	var row commentRow
	if err := r.db.GetContext(ctx, &row, commentSelect+` WHERE c.id = $1`, id); err != nil {
		return model.BlogComment{}, translate(err, "comment")
	}
	return row.comment(), nil
}

// ListTopLevel returns comments without a parent, oldest first. blogID is optional.
func (r *commentRepo) ListTopLevel(ctx context.Context, blogID *uuid.UUID, limit, offset int) ([]model.BlogComment, int, error) {
	where := ` WHERE c.parent_id IS NULL`
	args := []interface{}{}
	if blogID != nil {
		where += ` AND c.blog_id = $1`
		args = append(args, *blogID)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT count(*) FROM blog_comments c`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count comments: %w", err)
	}

	args = append(args, limit, offset)
	query := commentSelect + where +
		fmt.Sprintf(` ORDER BY c.created_at ASC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	var rows []commentRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list comments: %w", err)
	}
	out := make([]model.BlogComment, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.comment())
	}
	return out, total, nil
}

// ListChildren returns the direct replies of the given comments
func (r *commentRepo) ListChildren(ctx context.Context, parentIDs []uuid.UUID) ([]model.BlogComment, error) {
	if len(parentIDs) == 0 {
		return []model.BlogComment{}, nil
	}
	ids := make([]string, len(parentIDs))
	for i, id := range parentIDs {
		ids[i] = id.String()
	}

	var rows []commentRow
	err := r.db.SelectContext(ctx, &rows,
		commentSelect+` WHERE c.parent_id = ANY($1::uuid[]) ORDER BY c.created_at ASC`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to list replies: %w", err)
	}
	out := make([]model.BlogComment, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.comment())
	}
	return out, nil
}
