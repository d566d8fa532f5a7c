package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/quillpost/server/internal/model"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{t: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// memCodeStore keeps one row per user, like the otps table.
type memCodeStore struct {
	mu   sync.Mutex
	rows map[uuid.UUID]model.Otp
	now  func() time.Time
}

func newMemCodeStore(now func() time.Time) *memCodeStore {
	return &memCodeStore{rows: make(map[uuid.UUID]model.Otp), now: now}
}

func (s *memCodeStore) Upsert(_ context.Context, userID uuid.UUID, code string, expiresAt time.Time) (model.Otp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[userID]
	if !ok {
		row = model.Otp{ID: uuid.New(), UserID: userID, CreatedAt: s.now()}
	}
	row.Code = code
	row.ExpiresAt = expiresAt
	row.ConsumedAt = nil
	row.UpdatedAt = s.now()
	s.rows[userID] = row
	return row, nil
}

func (s *memCodeStore) GetByUserID(_ context.Context, userID uuid.UUID) (model.Otp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[userID]
	if !ok {
		return model.Otp{}, model.NotFound("otp not found")
	}
	return row, nil
}

func (s *memCodeStore) MarkConsumed(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for userID, row := range s.rows {
		if row.ID == id && row.ConsumedAt == nil {
			now := s.now()
			row.ConsumedAt = &now
			s.rows[userID] = row
			return nil
		}
	}
	return model.NotFound("otp not found")
}

func (s *memCodeStore) setExpiry(userID uuid.UUID, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := s.rows[userID]
	row.ExpiresAt = at
	s.rows[userID] = row
}

// memUserStore is an in-memory users table with unique credentials.
type memUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]model.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[uuid.UUID]model.User)}
}

func (s *memUserStore) GetByID(_ context.Context, id uuid.UUID) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, model.NotFound("user not found")
	}
	return u, nil
}

func (s *memUserStore) GetByCredential(_ context.Context, method model.AuthMethod, value string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		switch {
		case method == model.MethodEmail && u.Email != nil && *u.Email == value,
			method == model.MethodPhone && u.Phone != nil && *u.Phone == value,
			method == model.MethodUsername && u.Username == value:
			return u, nil
		}
	}
	return model.User{}, model.NotFound("user not found")
}

func (s *memUserStore) ExistsByUsername(_ context.Context, username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (s *memUserStore) Create(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.ID = uuid.New()
	s.users[u.ID] = *u
	return nil
}

func (s *memUserStore) block(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[id]
	u.IsBlocked = true
	s.users[id] = u
}

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}
func (m *mockUserStore) GetByCredential(ctx context.Context, method model.AuthMethod, value string) (model.User, error) {
	args := m.Called(ctx, method, value)
	return args.Get(0).(model.User), args.Error(1)
}
func (m *mockUserStore) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}
func (m *mockUserStore) Create(ctx context.Context, u *model.User) error {
	return m.Called(ctx, u).Error(0)
}

type mockSender struct{ mock.Mock }

func (m *mockSender) SendCode(ctx context.Context, user model.User, method model.AuthMethod, code string) error {
	return m.Called(ctx, user, method, code).Error(0)
}

var errBoom = errors.New("boom")
