package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/quillpost/server/internal/model"
)

const fileColumns = `id, user_id, filename, original_name, path, mime_type, size, category, description, created_at, updated_at, deleted_at`

// FileFilter narrows List. Zero fields are ignored.
type FileFilter struct {
	Category model.FileCategory
	UserID   *uuid.UUID
	Search   string
	Asc      bool
}

// FileRepo defines the interface for uploaded file repository operations
type FileRepo interface {
	Create(ctx context.Context, f *model.File) error
	GetByID(ctx context.Context, id uuid.UUID) (model.File, error)
	List(ctx context.Context, f FileFilter, limit, offset int) ([]model.File, int, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type fileRepo struct {
	db *sqlx.DB
}

// NewFileRepo creates a new FileRepo instance
func NewFileRepo(db *sqlx.DB) FileRepo {
	return &fileRepo{db: db}
}

func (r *fileRepo) Create(ctx context.Context, f *model.File) error {
	err := r.db.GetContext(ctx, f, `
		INSERT INTO files (user_id, filename, original_name, path, mime_type, size, category, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+fileColumns,
		f.UserID, f.Filename, f.OriginalName, f.Path, f.MimeType, f.Size, f.Category, f.Description)
	return translate(err, "file")
}

// GetByID returns a live (not soft-deleted) file
func (r *fileRepo) GetByID(ctx context.Context, id uuid.UUID) (model.File, error) {
	var f model.File
	err := r.db.GetContext(ctx, &f, `SELECT `+fileColumns+` FROM files WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return model.File{}, translate(err, "file")
	}
	return f, nil
}

// List returns a page of live files ordered by creation time
func (r *fileRepo) List(ctx context.Context, f FileFilter, limit, offset int) ([]model.File, int, error) {
	where := []string{"deleted_at IS NULL"}
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Category != "" {
		where = append(where, "category = "+arg(f.Category))
	}
	if f.UserID != nil {
		where = append(where, "user_id = "+arg(*f.UserID))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		p := arg("%" + s + "%")
		where = append(where, "(filename ILIKE "+p+" OR original_name ILIKE "+p+")")
	}
	clause := " WHERE " + strings.Join(where, " AND ")

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT count(*) FROM files`+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count files: %w", err)
	}

	order := "DESC"
	if f.Asc {
		order = "ASC"
	}
	query := `SELECT ` + fileColumns + ` FROM files` + clause +
		` ORDER BY created_at ` + order + ` LIMIT ` + arg(limit) + ` OFFSET ` + arg(offset)

	files := []model.File{}
	if err := r.db.SelectContext(ctx, &files, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list files: %w", err)
	}
	return files, total, nil
}

func (r *fileRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE files SET deleted_at = now(), updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return expectOne(res, "file")
}
