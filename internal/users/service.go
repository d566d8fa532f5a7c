// Package users implements profiles, usernames and admin user management.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quillpost/server/internal/model"
	"github.com/quillpost/server/internal/pagination"
	"github.com/quillpost/server/internal/storage"
	"github.com/quillpost/server/internal/validate"
)

const profileFolder = "user-profile"

// UserStore is the subset of the user repository used here
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (model.User, error)
	GetByCredential(ctx context.Context, method model.AuthMethod, value string) (model.User, error)
	UpdateUsername(ctx context.Context, id uuid.UUID, username string) error
	SetBlocked(ctx context.Context, id uuid.UUID, blocked bool) error
	List(ctx context.Context, limit, offset int) ([]model.User, int, error)
}

// ProfileStore persists profiles
type ProfileStore interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (model.Profile, error)
	Create(ctx context.Context, p *model.Profile) error
	Update(ctx context.Context, p *model.Profile) error
}

// ProfileInput carries the optional profile fields; nil means "keep".
type ProfileInput struct {
	Bio                *string    `validate:"omitempty,max=1000"`
	Gender             *string    `validate:"omitempty,oneof=male female"`
	Birthday           *time.Time `validate:"omitempty"`
	LinkedinProfileURL *string    `validate:"omitempty,url"`
}

// UserDetail is a user together with its profile, if any
type UserDetail struct {
	model.User
	Profile *model.Profile `json:"profile"`
}

// Service implements the user operations
type Service struct {
	users    UserStore
	profiles ProfileStore
	store    storage.Store
}

// NewService creates a users service
func NewService(users UserStore, profiles ProfileStore, store storage.Store) *Service {
	return &Service{users: users, profiles: profiles, store: store}
}

// GetProfile returns the acting user's profile
func (s *Service) GetProfile(ctx context.Context, actor model.User) (model.Profile, error) {
	p, err := s.profiles.GetByUserID(ctx, actor.ID)
	if err != nil {
		return model.Profile{}, err
	}
	p.User = &actor
	return p, nil
}

// UpdateProfile creates the profile on first use and merges the provided
// fields afterwards. created reports which of the two happened.
func (s *Service) UpdateProfile(ctx context.Context, actor model.User, in ProfileInput, avatar, bgImage *storage.Upload) (p model.Profile, created bool, err error) {
	if err := validate.Struct(in); err != nil {
		return model.Profile{}, false, model.InvalidInput(err.Error())
	}

	p, err = s.profiles.GetByUserID(ctx, actor.ID)
	switch {
	case errors.Is(err, model.ErrNotFound):
		created = true
		p = model.Profile{UserID: actor.ID}
	case err != nil:
		return model.Profile{}, false, err
	}

	if avatar != nil {
		url, err := s.save(ctx, avatar)
		if err != nil {
			return model.Profile{}, false, err
		}
		p.Avatar = &url
	}
	if bgImage != nil {
		url, err := s.save(ctx, bgImage)
		if err != nil {
			return model.Profile{}, false, err
		}
		p.BgImage = &url
	}
	if in.Bio != nil {
		p.Bio = in.Bio
	}
	if in.Gender != nil {
		p.Gender = in.Gender
	}
	if in.Birthday != nil {
		p.Birthday = in.Birthday
	}
	if in.LinkedinProfileURL != nil {
		p.LinkedinProfileURL = in.LinkedinProfileURL
	}

	if created {
		err = s.profiles.Create(ctx, &p)
	} else {
		err = s.profiles.Update(ctx, &p)
	}
	if err != nil {
		return model.Profile{}, false, err
	}
	p.User = &actor
	return p, created, nil
}

func (s *Service) save(ctx context.Context, up *storage.Upload) (string, error) {
	key := storage.NewKey(profileFolder, up.Filename)
	if err := s.store.Put(ctx, key, up.Body, up.ContentType); err != nil {
		return "", fmt.Errorf("failed to store %s: %w", up.Filename, err)
	}
	return s.store.URL(key), nil
}

type usernameInput struct {
	Username string `validate:"required,min=3,max=32,excludesall=@/"`
}

// ChangeUsername renames the acting user. A username owned by someone else
// is a Conflict.
func (s *Service) ChangeUsername(ctx context.Context, actor model.User, username string) error {
	in := usernameInput{Username: strings.TrimSpace(username)}
	if err := validate.Struct(in); err != nil {
		return model.InvalidInput(err.Error())
	}
	if strings.ContainsAny(in.Username, " \t\n") {
		return model.InvalidInput("username must not contain spaces")
	}

	owner, err := s.users.GetByCredential(ctx, model.MethodUsername, in.Username)
	switch {
	case err == nil && owner.ID != actor.ID:
		return model.Conflict("username is already taken")
	case err == nil:
		return nil
	case !errors.Is(err, model.ErrNotFound):
		return err
	}
	return s.users.UpdateUsername(ctx, actor.ID, in.Username)
}

// ToggleBlock flips the blocked flag and returns the new state
func (s *Service) ToggleBlock(ctx context.Context, userID uuid.UUID) (bool, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	blocked := !u.IsBlocked
	if err := s.users.SetBlocked(ctx, userID, blocked); err != nil {
		return false, err
	}
	return blocked, nil
}

// List returns a page of users
func (s *Service) List(ctx context.Context, p pagination.Page) (pagination.Result[model.User], error) {
	items, total, err := s.users.List(ctx, p.Limit, p.Offset())
	if err != nil {
		return pagination.Result[model.User]{}, err
	}
	return pagination.NewResult(items, total, p), nil
}

// Get returns a user with its profile
func (s *Service) Get(ctx context.Context, id uuid.UUID) (UserDetail, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return UserDetail{}, err
	}
	detail := UserDetail{User: u}
	p, err := s.profiles.GetByUserID(ctx, id)
	switch {
	case err == nil:
		detail.Profile = &p
	case !errors.Is(err, model.ErrNotFound):
		return UserDetail{}, err
	}
	return detail, nil
}
