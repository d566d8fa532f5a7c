package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/quillpost/server/internal/model"
)

const profileColumns = `id, user_id, bio, avatar, bg_image, gender, birthday, linkedin_profile_url, created_at, updated_at`

// ProfileRepo defines the interface for profile repository operations
type ProfileRepo interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (model.Profile, error)
	Create(ctx context.Context, p *model.Profile) error
	Update(ctx context.Context, p *model.Profile) error
}

type profileRepo struct {
	db *sqlx.DB
}

// NewProfileRepo creates a new ProfileRepo instance
func NewProfileRepo(db *sqlx.DB) ProfileRepo {
	return &profileRepo{db: db}
}

func (r *profileRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (model.Profile, error) {
	var p model.Profile
	err := r.db.GetContext(ctx, &p, `SELECT `+profileColumns+` FROM profiles WHERE user_id = $1`, userID)
	if err != nil {
		return model.Profile{}, translate(err, "profile")
	}
	return p, nil
}

func (r *profileRepo) Create(ctx context.Context, p *model.Profile) error {
	query := `
		INSERT INTO profiles (user_id, bio, avatar, bg_image, gender, birthday, linkedin_profile_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + profileColumns
	err := r.db.GetContext(ctx, p, query,
		p.UserID, p.Bio, p.Avatar, p.BgImage, p.Gender, p.Birthday, p.LinkedinProfileURL)
	return translate(err, "profile")
}

func (r *profileRepo) Update(ctx context.Context, p *model.Profile) error {
	query := `
		UPDATE profiles
		SET bio = $1, avatar = $2, bg_image = $3, gender = $4, birthday = $5,
		    linkedin_profile_url = $6, updated_at = now()
		WHERE id = $7
		RETURNING ` + profileColumns
	err := r.db.GetContext(ctx, p, query,
		p.Bio, p.Avatar, p.BgImage, p.Gender, p.Birthday, p.LinkedinProfileURL, p.ID)
	return translate(err, "profile")
}
