package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/quillpost/server/internal/model"
)

const userColumns = `id, username, email, phone, name, role, is_blocked, created_at, updated_at`

// UserRepo defines the interface for user repository operations
type UserRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (model.User, error)
	GetByCredential(ctx context.Context, method model.AuthMethod, value string) (model.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, u *model.User) error
	UpdateUsername(ctx context.Context, id uuid.UUID, username string) error
	SetBlocked(ctx context.Context, id uuid.UUID, blocked bool) error
	List(ctx context.Context, limit, offset int) ([]model.User, int, error)
}

type userRepo struct {
	db *sqlx.DB
}

// NewUserRepo creates a new UserRepo instance
func NewUserRepo(db *sqlx.DB) UserRepo {
	return &userRepo{db: db}
}

// GetByID retrieves a user by ID
func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		return model.User{}, translate(err, "user")
	}
	return user, nil
}

// GetByCredential looks a user up by the column matching the auth method
func (r *userRepo) GetByCredential(ctx context.Context, method model.AuthMethod, value string) (model.User, error) {
	var column string
	switch method {
	case model.MethodEmail:
		column = "email"
	case model.MethodPhone:
		column = "phone"
	case model.MethodUsername:
		column = "username"
	default:
		return model.User{}, model.InvalidInput(fmt.Sprintf("unknown auth method %q", method))
	}

	var user model.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE `+column+` = $1`, value)
	if err != nil {
		return model.User{}, translate(err, "user")
	}
	return user, nil
}

// ExistsByUsername reports whether the username is taken
func (r *userRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username)
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return exists, nil
}

// Create inserts the user and fills in the generated columns
func (r *userRepo) Create(ctx context.Context, u *model.User) error {
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	query := `
		INSERT INTO users (username, email, phone, name, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + userColumns
	if err := r.db.GetContext(ctx, u, query, u.Username, u.Email, u.Phone, u.Name, u.Role); err != nil {
		return translate(err, "user")
	}
	return nil
}

// UpdateUsername changes the username of a user
func (r *userRepo) UpdateUsername(ctx context.Context, id uuid.UUID, username string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET username = $1, updated_at = now() WHERE id = $2`, username, id)
	if err != nil {
		return translate(err, "username")
	}
	return expectOne(res, "user")
}

// SetBlocked sets the blocked flag of a user
func (r *userRepo) SetBlocked(ctx context.Context, id uuid.UUID, blocked bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET is_blocked = $1, updated_at = now() WHERE id = $2`, blocked, id)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return expectOne(res, "user")
}

// List returns a page of users, newest first, and the total count
func (r *userRepo) List(ctx context.Context, limit, offset int) ([]model.User, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT count(*) FROM users`); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	users := []model.User{}
	err := r.db.SelectContext(ctx, &users,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}
