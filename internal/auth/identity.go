package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/quillpost/server/internal/model"
	"github.com/quillpost/server/internal/validate"
)

const (
	usernamePrefix   = "m_"
	usernameDigits   = 10
	usernameAttempts = 5
)

// UserStore is the subset of the user repository used by auth
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (model.User, error)
	GetByCredential(ctx context.Context, method model.AuthMethod, value string) (model.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, u *model.User) error
}

// IdentityResolver validates identifiers and finds or creates their users
type IdentityResolver struct {
	users  UserStore
	region string
	digits func(n int) (string, error)
}

// NewIdentityResolver creates a resolver. region is the default phone region.
func NewIdentityResolver(users UserStore, region string) *IdentityResolver {
	if region == "" {
		region = validate.DefaultRegion
	}
	return &IdentityResolver{users: users, region: region, digits: randomDigits}
}

// Validate checks raw against the format of method and returns it trimmed
func (r *IdentityResolver) Validate(method model.AuthMethod, raw string) (string, error) {
	id := strings.TrimSpace(raw)
	switch method {
	case model.MethodEmail:
		if !validate.Email(id) {
			return "", model.InvalidInput("invalid email")
		}
	case model.MethodPhone:
		if !validate.Phone(id, r.region) {
			return "", model.InvalidInput("invalid phone number")
		}
	case model.MethodUsername:
		if id == "" {
			return "", model.InvalidInput("invalid username format")
		}
	default:
		return "", model.InvalidInput("invalid authentication method")
	}
	return id, nil
}

// Resolve dispatches on the auth type
func (r *IdentityResolver) Resolve(ctx context.Context, typ model.AuthType, method model.AuthMethod, raw string) (model.User, error) {
	switch typ {
	case model.TypeLogin:
		return r.Login(ctx, method, raw)
	case model.TypeRegister:
		return r.Register(ctx, method, raw)
	}
	return model.User{}, model.Unauthorized("invalid authentication type")
}

// Login returns the existing user for the identifier
func (r *IdentityResolver) Login(ctx context.Context, method model.AuthMethod, raw string) (model.User, error) {
	id, err := r.Validate(method, raw)
	if err != nil {
		return model.User{}, err
	}
	user, found, err := r.lookup(ctx, method, id)
	if err != nil {
		return model.User{}, err
	}
	if !found {
		return model.User{}, model.NotFound("user not found")
	}
	return user, nil
}

// Register creates a user for an identifier nobody owns yet. Usernames are
// never chosen at registration; the account gets a generated one.
func (r *IdentityResolver) Register(ctx context.Context, method model.AuthMethod, raw string) (model.User, error) {
	id, err := r.Validate(method, raw)
	if err != nil {
		return model.User{}, err
	}
	_, found, err := r.lookup(ctx, method, id)
	if err != nil {
		return model.User{}, err
	}
	if found {
		return model.User{}, model.Conflict("a user with these details already exists")
	}
	if method == model.MethodUsername {
		return model.User{}, model.InvalidInput("registration data is invalid")
	}

	username, err := r.fallbackUsername(ctx)
	if err != nil {
		return model.User{}, err
	}
	user := model.User{Username: username, Role: model.RoleUser}
	switch method {
	case model.MethodEmail:
		user.Email = &id
	case model.MethodPhone:
		user.Phone = &id
	}
	if err := r.users.Create(ctx, &user); err != nil {
		return model.User{}, err
	}
	return user, nil
}

func (r *IdentityResolver) lookup(ctx context.Context, method model.AuthMethod, id string) (model.User, bool, error) {
	user, err := r.users.GetByCredential(ctx, method, id)
	if errors.Is(err, model.ErrNotFound) {
		return model.User{}, false, nil
	}
	if err != nil {
		return model.User{}, false, fmt.Errorf("failed to look up user: %w", err)
	}
	return user, true, nil
}

// fallbackUsername draws m_<10 digits> until it finds a free one
func (r *IdentityResolver) fallbackUsername(ctx context.Context) (string, error) {
	for i := 0; i < usernameAttempts; i++ {
		digits, err := r.digits(usernameDigits)
		if err != nil {
			return "", fmt.Errorf("failed to generate username: %w", err)
		}
		candidate := usernamePrefix + digits
		taken, err := r.users.ExistsByUsername(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free username after %d attempts", usernameAttempts)
}
