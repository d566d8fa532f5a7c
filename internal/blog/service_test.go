package blog

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/quillpost/server/internal/model"
	"github.com/quillpost/server/internal/pagination"
	"github.com/quillpost/server/internal/repo"
	"github.com/quillpost/server/internal/storage"
)

type mockBlogs struct{ mock.Mock }

func (m *mockBlogs) Create(ctx context.Context, b *model.Blog, categoryIDs []uuid.UUID) error {
	return m.Called(ctx, b, categoryIDs).Error(0)
}
func (m *mockBlogs) GetByID(ctx context.Context, id uuid.UUID) (model.Blog, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Blog), args.Error(1)
}
func (m *mockBlogs) SlugExists(ctx context.Context, slug string, exclude uuid.UUID) (bool, error) {
	args := m.Called(ctx, slug, exclude)
	return args.Bool(0), args.Error(1)
}
func (m *mockBlogs) List(ctx context.Context, f repo.BlogFilter, limit, offset int) ([]model.Blog, int, error) {
	args := m.Called(ctx, f, limit, offset)
	return args.Get(0).([]model.Blog), args.Int(1), args.Error(2)
}
func (m *mockBlogs) Update(ctx context.Context, b *model.Blog, categoryIDs []uuid.UUID) error {
	return m.Called(ctx, b, categoryIDs).Error(0)
}
func (m *mockBlogs) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}
func (m *mockBlogs) ToggleLike(ctx context.Context, blogID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, blogID, userID)
	return args.Bool(0), args.Error(1)
}
func (m *mockBlogs) ToggleBookmark(ctx context.Context, blogID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, blogID, userID)
	return args.Bool(0), args.Error(1)
}

type mockCategories struct{ mock.Mock }

func (m *mockCategories) UpsertByTitles(ctx context.Context, titles []string) ([]model.Category, error) {
	args := m.Called(ctx, titles)
	return args.Get(0).([]model.Category), args.Error(1)
}

type mockComments struct{ mock.Mock }

func (m *mockComments) Create(ctx context.Context, c *model.BlogComment) error {
	return m.Called(ctx, c).Error(0)
}
func (m *mockComments) GetByID(ctx context.Context, id uuid.UUID) (model.BlogComment, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.BlogComment), args.Error(1)
}
func (m *mockComments) ListTopLevel(ctx context.Context, blogID *uuid.UUID, limit, offset int) ([]model.BlogComment, int, error) {
	args := m.Called(ctx, blogID, limit, offset)
	return args.Get(0).([]model.BlogComment), args.Int(1), args.Error(2)
}
func (m *mockComments) ListChildren(ctx context.Context, parentIDs []uuid.UUID) ([]model.BlogComment, error) {
	args := m.Called(ctx, parentIDs)
	return args.Get(0).([]model.BlogComment), args.Error(1)
}

type mockStore struct{ mock.Mock }

func (m *mockStore) Put(ctx context.Context, key string, r io.Reader, contentType string) error {
	return m.Called(ctx, key, r, contentType).Error(0)
}
func (m *mockStore) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}
func (m *mockStore) URL(key string) string {
	return m.Called(key).String(0)
}

type harness struct {
	blogs      *mockBlogs
	categories *mockCategories
	comments   *mockComments
	store      *mockStore
	svc        *Service
}

func newHarness() *harness {
	h := &harness{
		blogs:      &mockBlogs{},
		categories: &mockCategories{},
		comments:   &mockComments{},
		store:      &mockStore{},
	}
	h.svc = NewService(h.blogs, h.categories, h.comments, h.store)
	return h
}

var (
	ctx    = context.Background()
	author = model.User{ID: uuid.New(), Username: "writer", Role: model.RoleUser}
	other  = model.User{ID: uuid.New(), Username: "reader", Role: model.RoleUser}
	admin  = model.User{ID: uuid.New(), Username: "root", Role: model.RoleAdmin}
)

func validInput() CreateInput {
	return CreateInput{
		Title:       "Hello World",
		Description: "a first post",
		Content:     "body",
	}
}

func TestCreate_DefaultsAndSlug(t *testing.T) {
	h := newHarness()
	id := uuid.New()
	h.blogs.On("SlugExists", ctx, "hello-world", uuid.Nil).Return(false, nil)
	h.blogs.On("Create", ctx, mock.AnythingOfType("*model.Blog"), []uuid.UUID(nil)).
		Run(func(args mock.Arguments) { args.Get(1).(*model.Blog).ID = id }).
		Return(nil)
	h.blogs.On("GetByID", ctx, id).Return(model.Blog{ID: id, Slug: "hello-world", Status: model.BlogDraft}, nil)

	b, err := h.svc.Create(ctx, author, validInput(), nil)
	require.NoError(t, err)
	assert.Equal(t, "hello-world", b.Slug)

	created := h.blogs.Calls[1].Arguments.Get(1).(*model.Blog)
	assert.Equal(t, author.ID, created.AuthorID)
	assert.Equal(t, model.BlogDraft, created.Status)
	assert.Nil(t, created.Image)
	h.blogs.AssertExpectations(t)
}

func TestCreate_TakenSlugGetsSuffix(t *testing.T) {
	h := newHarness()
	h.blogs.On("SlugExists", ctx, "hello-world", uuid.Nil).Return(true, nil)
	h.blogs.On("Create", ctx, mock.MatchedBy(func(b *model.Blog) bool {
		return strings.HasPrefix(b.Slug, "hello-world-") && len(b.Slug) == len("hello-world-")+8
	}), mock.Anything).Return(nil)
	h.blogs.On("GetByID", ctx, mock.Anything).Return(model.Blog{}, nil)

	_, err := h.svc.Create(ctx, author, validInput(), nil)
	require.NoError(t, err)
	h.blogs.AssertExpectations(t)
}

func TestCreate_CategoriesAndImage(t *testing.T) {
	h := newHarness()
	goID, webID := uuid.New(), uuid.New()
	h.blogs.On("SlugExists", ctx, "custom", uuid.Nil).Return(false, nil)
	h.categories.On("UpsertByTitles", ctx, []string{"go", "web"}).
		Return([]model.Category{{ID: goID, Title: "go"}, {ID: webID, Title: "web"}}, nil)
	h.store.On("Put", ctx, mock.MatchedBy(func(k string) bool {
		return strings.HasPrefix(k, "blog/") && strings.HasSuffix(k, ".png")
	}), mock.Anything, "image/png").Return(nil)
	h.store.On("URL", mock.Anything).Return("http://cdn/blog/x.png")
	h.blogs.On("Create", ctx, mock.MatchedBy(func(b *model.Blog) bool {
		return b.Image != nil && *b.Image == "http://cdn/blog/x.png" && b.Status == model.BlogPublished
	}), []uuid.UUID{goID, webID}).Return(nil)
	h.blogs.On("GetByID", ctx, mock.Anything).Return(model.Blog{}, nil)

	in := validInput()
	in.Slug = "Custom"
	in.Status = model.BlogPublished
	in.Categories = []string{"go,web", "go"}
	img := &storage.Upload{Filename: "cover.PNG", ContentType: "image/png", Body: strings.NewReader("png")}

	_, err := h.svc.Create(ctx, author, in, img)
	require.NoError(t, err)
	h.blogs.AssertExpectations(t)
	h.categories.AssertExpectations(t)
	h.store.AssertExpectations(t)
}

func TestCreate_Validation(t *testing.T) {
	h := newHarness()

	in := validInput()
	in.Title = strings.Repeat("x", 151)
	_, err := h.svc.Create(ctx, author, in, nil)
	assert.True(t, errors.Is(err, model.ErrInvalidInput))

	in = validInput()
	in.Description = strings.Repeat("x", 301)
	_, err = h.svc.Create(ctx, author, in, nil)
	assert.True(t, errors.Is(err, model.ErrInvalidInput))

	in = validInput()
	in.Status = "archived"
	_, err = h.svc.Create(ctx, author, in, nil)
	assert.True(t, errors.Is(err, model.ErrInvalidInput))

	h.blogs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreate_RejectsNonImage(t *testing.T) {
	h := newHarness()
	h.blogs.On("SlugExists", ctx, "hello-world", uuid.Nil).Return(false, nil)

	img := &storage.Upload{Filename: "a.pdf", ContentType: "application/pdf", Body: strings.NewReader("%PDF")}
	_, err := h.svc.Create(ctx, author, validInput(), img)
	assert.True(t, errors.Is(err, model.ErrInvalidInput))
	h.store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestList_PublishedOnly(t *testing.T) {
	h := newHarness()
	cat := uuid.New()
	want := repo.BlogFilter{CategoryID: &cat, Search: "go", Status: model.BlogPublished}
	h.blogs.On("List", ctx, want, 10, 10).Return([]model.Blog{{Title: "Go"}}, 11, nil)

	res, err := h.svc.List(ctx, ListFilter{CategoryID: &cat, Search: "go"}, pagination.Page{Page: 2, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, res.Data, 1)
	assert.Equal(t, 11, res.Pagination.TotalCount)
	assert.Equal(t, 2, res.Pagination.PageCount)
}

func TestMine_AnyStatus(t *testing.T) {
	h := newHarness()
	h.blogs.On("List", ctx, repo.BlogFilter{AuthorID: &author.ID}, 10, 0).Return([]model.Blog{}, 0, nil)

	_, err := h.svc.Mine(ctx, author, pagination.Page{Page: 1, Limit: 10})
	require.NoError(t, err)
	h.blogs.AssertExpectations(t)
}

func TestGet_HidesDrafts(t *testing.T) {
	h := newHarness()
	draft, pub := uuid.New(), uuid.New()
	h.blogs.On("GetByID", ctx, draft).Return(model.Blog{ID: draft, Status: model.BlogDraft}, nil)
	h.blogs.On("GetByID", ctx, pub).Return(model.Blog{ID: pub, Status: model.BlogPublished}, nil)

	_, err := h.svc.Get(ctx, draft)
	assert.True(t, errors.Is(err, model.ErrNotFound))

	b, err := h.svc.Get(ctx, pub)
	require.NoError(t, err)
	assert.Equal(t, pub, b.ID)
}

func TestUpdate_OnlyAuthor(t *testing.T) {
	h := newHarness()
	id := uuid.New()
	h.blogs.On("GetByID", ctx, id).Return(model.Blog{ID: id, AuthorID: author.ID}, nil)

	title := "New"
	_, err := h.svc.Update(ctx, other, id, UpdateInput{Title: &title}, nil)
	assert.True(t, errors.Is(err, model.ErrForbidden))

	_, err = h.svc.Update(ctx, admin, id, UpdateInput{Title: &title}, nil)
	assert.True(t, errors.Is(err, model.ErrForbidden))
	h.blogs.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdate_PartialKeepsCategories(t *testing.T) {
	h := newHarness()
	id := uuid.New()
	current := model.Blog{ID: id, AuthorID: author.ID, Title: "Old", Slug: "old", Description: "d", Content: "c", Status: model.BlogDraft}
	h.blogs.On("GetByID", ctx, id).Return(current, nil)
	h.blogs.On("Update", ctx, mock.MatchedBy(func(b *model.Blog) bool {
		return b.Title == "New" && b.Slug == "old" && b.Content == "c" && b.Status == model.BlogPublished
	}), []uuid.UUID(nil)).Return(nil)

	title := " New "
	status := model.BlogPublished
	_, err := h.svc.Update(ctx, author, id, UpdateInput{Title: &title, Status: &status}, nil)
	require.NoError(t, err)
	h.blogs.AssertExpectations(t)
	h.categories.AssertNotCalled(t, "UpsertByTitles", mock.Anything, mock.Anything)
}

func TestUpdate_NewSlugChecked(t *testing.T) {
	h := newHarness()
	id := uuid.New()
	h.blogs.On("GetByID", ctx, id).Return(model.Blog{ID: id, AuthorID: author.ID, Title: "Old", Slug: "old"}, nil)
	h.blogs.On("SlugExists", ctx, "fresh", id).Return(false, nil)
	h.blogs.On("Update", ctx, mock.MatchedBy(func(b *model.Blog) bool { return b.Slug == "fresh" }), []uuid.UUID{}).Return(nil)

	slug := "Fresh"
	_, err := h.svc.Update(ctx, author, id, UpdateInput{Slug: &slug, Categories: []string{""}}, nil)
	require.NoError(t, err)
	h.blogs.AssertExpectations(t)
}

func TestDelete_AuthorOrAdmin(t *testing.T) {
	h := newHarness()
	id := uuid.New()
	h.blogs.On("GetByID", ctx, id).Return(model.Blog{ID: id, AuthorID: author.ID}, nil)
	h.blogs.On("Delete", ctx, id).Return(nil)

	assert.True(t, errors.Is(h.svc.Delete(ctx, other, id), model.ErrForbidden))
	require.NoError(t, h.svc.Delete(ctx, author, id))
	require.NoError(t, h.svc.Delete(ctx, admin, id))
	h.blogs.AssertNumberOfCalls(t, "Delete", 2)
}

func TestToggleLike(t *testing.T) {
	h := newHarness()
	id := uuid.New()
	h.blogs.On("GetByID", ctx, id).Return(model.Blog{ID: id, AuthorID: author.ID, Status: model.BlogPublished}, nil)
	h.blogs.On("ToggleLike", ctx, id, other.ID).Return(true, nil).Once()
	h.blogs.On("ToggleLike", ctx, id, other.ID).Return(false, nil).Once()

	liked, err := h.svc.ToggleLike(ctx, other, id)
	require.NoError(t, err)
	assert.True(t, liked)

	liked, err = h.svc.ToggleLike(ctx, other, id)
	require.NoError(t, err)
	assert.False(t, liked)
}

func TestToggle_DraftOnlyForAuthor(t *testing.T) {
	h := newHarness()
	id := uuid.New()
	h.blogs.On("GetByID", ctx, id).Return(model.Blog{ID: id, AuthorID: author.ID, Status: model.BlogDraft}, nil)
	h.blogs.On("ToggleBookmark", ctx, id, author.ID).Return(true, nil)

	_, err := h.svc.ToggleLike(ctx, other, id)
	assert.True(t, errors.Is(err, model.ErrNotFound))
	_, err = h.svc.ToggleBookmark(ctx, other, id)
	assert.True(t, errors.Is(err, model.ErrNotFound))
	h.blogs.AssertNotCalled(t, "ToggleLike", mock.Anything, mock.Anything, mock.Anything)

	saved, err := h.svc.ToggleBookmark(ctx, author, id)
	require.NoError(t, err)
	assert.True(t, saved)
	h.blogs.AssertNumberOfCalls(t, "ToggleBookmark", 1)
}

func TestToggleBookmark_MissingBlog(t *testing.T) {
	h := newHarness()
	id := uuid.New()
	h.blogs.On("GetByID", ctx, id).Return(model.Blog{}, model.NotFound("blog not found"))

	_, err := h.svc.ToggleBookmark(ctx, other, id)
	assert.True(t, errors.Is(err, model.ErrNotFound))
	h.blogs.AssertNotCalled(t, "ToggleBookmark", mock.Anything, mock.Anything, mock.Anything)
}
