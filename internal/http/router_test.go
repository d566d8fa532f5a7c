package http

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillpost/server/internal/auth"
	"github.com/quillpost/server/internal/blog"
	"github.com/quillpost/server/internal/category"
	"github.com/quillpost/server/internal/http/handlers"
	"github.com/quillpost/server/internal/model"
	"github.com/quillpost/server/internal/pagination"
)

// stubAuth maps bearer tokens to users
type stubAuth struct {
	users map[string]model.User
}

func (s stubAuth) UserExistence(context.Context, model.AuthType, model.AuthMethod, string) (auth.Challenge, error) {
	return auth.Challenge{Code: "12345", Token: "otp"}, nil
}

func (s stubAuth) CheckOtp(context.Context, string, string) (string, error) {
	return "access", nil
}

func (s stubAuth) Authenticate(_ context.Context, token string) (model.User, error) {
	u, ok := s.users[token]
	if !ok {
		return model.User{}, model.Unauthorized("invalid token")
	}
	return u, nil
}

// stubCategory and stubBlog implement only what the routes below reach
type stubCategory struct{ handlers.CategoryService }

func (stubCategory) List(_ context.Context, p pagination.Page) (pagination.Result[model.Category], error) {
	return pagination.NewResult([]model.Category{}, 0, p), nil
}

func (stubCategory) Create(_ context.Context, in category.Input) (model.Category, error) {
	return model.Category{Title: *in.Title}, nil
}

type stubBlog struct{ handlers.BlogService }

func (stubBlog) List(_ context.Context, _ blog.ListFilter, p pagination.Page) (pagination.Result[model.Blog], error) {
	return pagination.NewResult([]model.Blog{}, 0, p), nil
}

func (stubBlog) Mine(_ context.Context, _ model.User, p pagination.Page) (pagination.Result[model.Blog], error) {
	return pagination.NewResult([]model.Blog{}, 0, p), nil
}

func (stubBlog) Get(_ context.Context, id uuid.UUID) (model.Blog, error) {
	return model.Blog{ID: id}, nil
}

func newTestRouter(t *testing.T, opts Options) http.Handler {
	t.Helper()
	svc := Services{
		Auth: stubAuth{users: map[string]model.User{
			"user-token":  {ID: uuid.New(), Role: model.RoleUser},
			"admin-token": {ID: uuid.New(), Role: model.RoleAdmin},
		}},
		Category: stubCategory{},
		Blog:     stubBlog{},
	}
	return NewRouter(svc, opts)
}

func do(h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRouter_Health(t *testing.T) {
	rr := do(newTestRouter(t, Options{}), http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"ok":true}`, rr.Body.String())
}

func TestRouter_PublicAndProtected(t *testing.T) {
	h := newTestRouter(t, Options{})

	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/blog", "", "").Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/blog/"+uuid.NewString(), "", "").Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/category", "", "").Code)

	assert.Equal(t, http.StatusUnauthorized, do(h, http.MethodGet, "/blog/my", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(h, http.MethodGet, "/blog/my", "bogus", "").Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/blog/my", "user-token", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(h, http.MethodGet, "/file-manager", "", "").Code)
}

func TestRouter_AdminGate(t *testing.T) {
	h := newTestRouter(t, Options{})

	assert.Equal(t, http.StatusUnauthorized, do(h, http.MethodPost, "/category", "", `{"title":"Go"}`).Code)
	assert.Equal(t, http.StatusForbidden, do(h, http.MethodPost, "/category", "user-token", `{"title":"Go"}`).Code)
	assert.Equal(t, http.StatusCreated, do(h, http.MethodPost, "/category", "admin-token", `{"title":"Go"}`).Code)

	assert.Equal(t, http.StatusForbidden, do(h, http.MethodGet, "/users", "user-token", "").Code)
	assert.Equal(t, http.StatusForbidden, do(h, http.MethodPost, "/users/block", "user-token", `{}`).Code)
}

func TestRouter_AuthRateLimit(t *testing.T) {
	h := newTestRouter(t, Options{AuthRateLimit: 2, AuthRateWindow: time.Hour})
	body := `{"username":"09121234567","type":"login","method":"phone"}`

	assert.Equal(t, http.StatusOK, do(h, http.MethodPost, "/auth/user-existence", "", body).Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodPost, "/auth/check-otp", "", `{"code":"12345"}`).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(h, http.MethodPost, "/auth/user-existence", "", body).Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	h := newTestRouter(t, Options{AllowedOrigins: []string{"https://quillpost.example"}})

	req := httptest.NewRequest(http.MethodOptions, "/blog", nil)
	req.Header.Set("Origin", "https://quillpost.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, "https://quillpost.example", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_ServesUploads(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "blog"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blog", "a.txt"), []byte("hello"), 0o644))

	h := newTestRouter(t, Options{UploadDir: dir})
	rr := do(h, http.MethodGet, "/uploads/blog/a.txt", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "hello", rr.Body.String())
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))

	rr = do(newTestRouter(t, Options{}), http.MethodGet, "/uploads/blog/a.txt", "", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRouter_UploadedHTMLIsNotRendered(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "file-manager"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "file-manager", "x.html"), []byte("<script>alert(1)</script>"), 0o644))

	rr := do(newTestRouter(t, Options{UploadDir: dir}), http.MethodGet, "/uploads/file-manager/x.html", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "attachment", rr.Header().Get("Content-Disposition"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, rr.Header().Get("Content-Security-Policy"), "sandbox")
}

func TestRouter_AuthRateLimitIgnoresForwardedFor(t *testing.T) {
	h := newTestRouter(t, Options{AuthRateLimit: 2, AuthRateWindow: time.Hour})
	body := `{"username":"09121234567","type":"login","method":"phone"}`

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/auth/user-existence", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
