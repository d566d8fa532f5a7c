package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/quillpost/server/internal/model"
)

// OtpRepo defines the interface for one-time code repository operations
type OtpRepo interface {
	Upsert(ctx context.Context, userID uuid.UUID, code string, expiresAt time.Time) (model.Otp, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (model.Otp, error)
	MarkConsumed(ctx context.Context, id uuid.UUID) error
}

type otpRepo struct {
	db *sqlx.DB
}

// NewOtpRepo creates a new OtpRepo instance
func NewOtpRepo(db *sqlx.DB) OtpRepo {
	return &otpRepo{db: db}
}

// Upsert stores the code for the user, replacing any previous one. A
// replaced code becomes unconsumed again. Concurrent issuances for the same
// user resolve last-writer-wins.
func (r *otpRepo) Upsert(ctx context.Context, userID uuid.UUID, code string, expiresAt time.Time) (model.Otp, error) {
	query := `
		INSERT INTO otps (user_id, code, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET code = EXCLUDED.code,
		    expires_at = EXCLUDED.expires_at,
		    consumed_at = NULL,
		    updated_at = now()
		RETURNING id, user_id, code, expires_at, consumed_at, created_at, updated_at
	`
	var otp model.Otp
	if err := r.db.GetContext(ctx, &otp, query, userID, code, expiresAt); err != nil {
		return model.Otp{}, fmt.Errorf("upsert otp: %w", err)
	}
	return otp, nil
}

// GetByUserID returns the stored code of the user
func (r *otpRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (model.Otp, error) {
	query := `
		SELECT id, user_id, code, expires_at, consumed_at, created_at, updated_at
		FROM otps
		WHERE user_id = $1
	`
	var otp model.Otp
	if err := r.db.GetContext(ctx, &otp, query, userID); err != nil {
		return model.Otp{}, translate(err, "otp")
	}
	return otp, nil
}

// MarkConsumed sets consumed_at = now() if the code has not been consumed yet.
// A second call for the same code returns NotFound, so two racing
// verifications cannot both succeed.
func (r *otpRepo) MarkConsumed(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE otps SET consumed_at = now(), updated_at = now()
		WHERE id = $1 AND consumed_at IS NULL
	`, id)
	if err != nil {
		return fmt.Errorf("mark consumed: %w", err)
	}
	return expectOne(res, "otp")
}
