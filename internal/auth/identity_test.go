package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/quillpost/server/internal/model"
)

func TestIdentityResolver_Validate(t *testing.T) {
	r := NewIdentityResolver(nil, "IR")

	tests := []struct {
		name   string
		method model.AuthMethod
		raw    string
		want   string
		ok     bool
	}{
		{"email", model.MethodEmail, "jane@example.com", "jane@example.com", true},
		{"email trimmed", model.MethodEmail, "  jane@example.com ", "jane@example.com", true},
		{"bad email", model.MethodEmail, "jane@", "", false},
		{"phone", model.MethodPhone, "09121234567", "09121234567", true},
		{"international phone", model.MethodPhone, "+989121234567", "+989121234567", true},
		{"bad phone", model.MethodPhone, "12ab", "", false},
		{"email as phone", model.MethodPhone, "jane@example.com", "", false},
		{"username", model.MethodUsername, "jane", "jane", true},
		{"blank username", model.MethodUsername, "   ", "", false},
		{"unknown method", model.AuthMethod("fax"), "123", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Validate(tt.method, tt.raw)
			if tt.ok {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, model.ErrInvalidInput))
		})
	}
}

func TestIdentityResolver_LoginNotFound(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByCredential", mock.Anything, model.MethodEmail, "jane@example.com").
		Return(model.User{}, model.NotFound("user not found"))

	_, err := NewIdentityResolver(us, "IR").Login(context.Background(), model.MethodEmail, "jane@example.com")
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrNotFound))
	us.AssertExpectations(t)
}

func TestIdentityResolver_LoginFound(t *testing.T) {
	us := &mockUserStore{}
	existing := model.User{Username: "jane"}
	us.On("GetByCredential", mock.Anything, model.MethodUsername, "jane").Return(existing, nil)

	got, err := NewIdentityResolver(us, "IR").Login(context.Background(), model.MethodUsername, "jane")
	require.NoError(t, err)
	assert.Equal(t, existing, got)
}

func TestIdentityResolver_LoginStoreError(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByCredential", mock.Anything, model.MethodUsername, "jane").Return(model.User{}, errBoom)

	_, err := NewIdentityResolver(us, "IR").Login(context.Background(), model.MethodUsername, "jane")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errBoom))
	assert.False(t, errors.Is(err, model.ErrNotFound))
}

func TestIdentityResolver_RegisterConflict(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByCredential", mock.Anything, model.MethodPhone, "09121234567").
		Return(model.User{Username: "m_1"}, nil)

	_, err := NewIdentityResolver(us, "IR").Register(context.Background(), model.MethodPhone, "09121234567")
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrConflict))
	us.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestIdentityResolver_RegisterByUsernameRejected(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByCredential", mock.Anything, model.MethodUsername, "jane").
		Return(model.User{}, model.NotFound("user not found"))

	_, err := NewIdentityResolver(us, "IR").Register(context.Background(), model.MethodUsername, "jane")
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInvalidInput))
	us.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestIdentityResolver_RegisterRetriesTakenUsername(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByCredential", mock.Anything, model.MethodEmail, "jane@example.com").
		Return(model.User{}, model.NotFound("user not found"))
	us.On("ExistsByUsername", mock.Anything, "m_0000000001").Return(true, nil).Once()
	us.On("ExistsByUsername", mock.Anything, "m_0000000002").Return(false, nil).Once()
	us.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return u.Username == "m_0000000002" && u.Email != nil && *u.Email == "jane@example.com" &&
			u.Phone == nil && u.Role == model.RoleUser
	})).Return(nil)

	r := NewIdentityResolver(us, "IR")
	draws := []string{"0000000001", "0000000002"}
	r.digits = func(int) (string, error) {
		d := draws[0]
		draws = draws[1:]
		return d, nil
	}

	u, err := r.Register(context.Background(), model.MethodEmail, "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, "m_0000000002", u.Username)
	us.AssertExpectations(t)
}

func TestIdentityResolver_RegisterGivesUpAfterAttempts(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByCredential", mock.Anything, model.MethodPhone, "09121234567").
		Return(model.User{}, model.NotFound("user not found"))
	us.On("ExistsByUsername", mock.Anything, "m_5555555555").Return(true, nil)

	r := NewIdentityResolver(us, "IR")
	r.digits = func(int) (string, error) { return "5555555555", nil }

	_, err := r.Register(context.Background(), model.MethodPhone, "09121234567")
	require.Error(t, err)
	us.AssertNumberOfCalls(t, "ExistsByUsername", usernameAttempts)
	us.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestIdentityResolver_ResolveUnknownType(t *testing.T) {
	_, err := NewIdentityResolver(&mockUserStore{}, "IR").
		Resolve(context.Background(), model.AuthType("sso"), model.MethodEmail, "jane@example.com")
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrUnauthorized))
	assert.Equal(t, "invalid authentication type", model.Message(err))
}

func TestIdentityResolver_RegisterTwiceConflicts(t *testing.T) {
	r := NewIdentityResolver(newMemUserStore(), "IR")
	ctx := context.Background()

	_, err := r.Register(ctx, model.MethodEmail, "jane@example.com")
	require.NoError(t, err)
	_, err = r.Register(ctx, model.MethodEmail, "jane@example.com")
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrConflict))
}
