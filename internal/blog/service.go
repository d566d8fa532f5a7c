// Package blog implements posts, their categories, likes, bookmarks and comments.
package blog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/quillpost/server/internal/model"
	"github.com/quillpost/server/internal/pagination"
	"github.com/quillpost/server/internal/repo"
	"github.com/quillpost/server/internal/storage"
	"github.com/quillpost/server/internal/validate"
)

const imageFolder = "blog"

// Store persists blogs
type Store interface {
	Create(ctx context.Context, b *model.Blog, categoryIDs []uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (model.Blog, error)
	SlugExists(ctx context.Context, slug string, exclude uuid.UUID) (bool, error)
	List(ctx context.Context, f repo.BlogFilter, limit, offset int) ([]model.Blog, int, error)
	Update(ctx context.Context, b *model.Blog, categoryIDs []uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	ToggleLike(ctx context.Context, blogID, userID uuid.UUID) (bool, error)
	ToggleBookmark(ctx context.Context, blogID, userID uuid.UUID) (bool, error)
}

// CategoryStore resolves category titles to rows
type CategoryStore interface {
	UpsertByTitles(ctx context.Context, titles []string) ([]model.Category, error)
}

// CreateInput is the body of POST /blog
type CreateInput struct {
	Title       string           `validate:"required,max=150"`
	Slug        string           `validate:"omitempty,max=200"`
	Description string           `validate:"required,max=300"`
	Content     string           `validate:"required"`
	Status      model.BlogStatus `validate:"omitempty,oneof=draft published"`
	Categories  []string
}

// UpdateInput is the body of PATCH /blog/{id}. nil fields are kept.
type UpdateInput struct {
	Title       *string           `validate:"omitempty,min=1,max=150"`
	Slug        *string           `validate:"omitempty,max=200"`
	Description *string           `validate:"omitempty,min=1,max=300"`
	Content     *string           `validate:"omitempty,min=1"`
	Status      *model.BlogStatus `validate:"omitempty,oneof=draft published"`
	Categories  []string
}

// ListFilter is the public list query
type ListFilter struct {
	CategoryID *uuid.UUID
	Search     string
}

// Service implements the blog operations
type Service struct {
	blogs      Store
	categories CategoryStore
	comments   CommentStore
	store      storage.Store
}

// NewService creates a blog service
func NewService(blogs Store, categories CategoryStore, comments CommentStore, store storage.Store) *Service {
	return &Service{blogs: blogs, categories: categories, comments: comments, store: store}
}

// Create writes a blog owned by actor. A taken slug gets a random suffix.
func (s *Service) Create(ctx context.Context, actor model.User, in CreateInput, image *storage.Upload) (model.Blog, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Slug = strings.TrimSpace(in.Slug)
	if err := validate.Struct(in); err != nil {
		return model.Blog{}, model.InvalidInput(err.Error())
	}

	slug, err := s.uniqueSlug(ctx, in.Slug, in.Title, uuid.Nil)
	if err != nil {
		return model.Blog{}, err
	}
	categoryIDs, err := s.resolveCategories(ctx, in.Categories)
	if err != nil {
		return model.Blog{}, err
	}

	b := model.Blog{
		AuthorID:    actor.ID,
		Title:       in.Title,
		Slug:        slug,
		Description: in.Description,
		Content:     in.Content,
		Status:      in.Status,
	}
	if b.Status == "" {
		b.Status = model.BlogDraft
	}
	if image != nil {
		url, err := s.saveImage(ctx, image)
		if err != nil {
			return model.Blog{}, err
		}
		b.Image = &url
	}

	if err := s.blogs.Create(ctx, &b, categoryIDs); err != nil {
		return model.Blog{}, err
	}
	return s.blogs.GetByID(ctx, b.ID)
}

// uniqueSlug picks the requested slug (or one derived from title) and
// appends a random suffix when another blog already uses it.
func (s *Service) uniqueSlug(ctx context.Context, requested, title string, exclude uuid.UUID) (string, error) {
	slug := Slugify(requested)
	if slug == "" {
		slug = Slugify(title)
	}
	if slug == "" {
		return slugSuffix(), nil
	}
	taken, err := s.blogs.SlugExists(ctx, slug, exclude)
	if err != nil {
		return "", err
	}
	if taken {
		slug = slug + "-" + slugSuffix()
	}
	return slug, nil
}

// resolveCategories upserts the titles and returns their ids. nil in, nil out.
func (s *Service) resolveCategories(ctx context.Context, raw []string) ([]uuid.UUID, error) {
	if raw == nil {
		return nil, nil
	}
	titles := ParseCategories(raw)
	if len(titles) == 0 {
		return []uuid.UUID{}, nil
	}
	cats, err := s.categories.UpsertByTitles(ctx, titles)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(cats))
	for i, c := range cats {
		ids[i] = c.ID
	}
	return ids, nil
}

// ParseCategories accepts repeated values and comma-separated lists, trims
// them and drops blanks and duplicates.
func ParseCategories(raw []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, v := range raw {
		for _, t := range strings.Split(v, ",") {
			t = strings.TrimSpace(t)
			if t == "" || seen[t] {
				continue
			}
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

func (s *Service) saveImage(ctx context.Context, up *storage.Upload) (string, error) {
	if !strings.HasPrefix(up.ContentType, "image/") {
		return "", model.InvalidInput("image must be an image file")
	}
	key := storage.NewKey(imageFolder, up.Filename)
	if err := s.store.Put(ctx, key, up.Body, up.ContentType); err != nil {
		return "", fmt.Errorf("failed to store image: %w", err)
	}
	return s.store.URL(key), nil
}

// Mine lists the actor's blogs of any status, newest first
func (s *Service) Mine(ctx context.Context, actor model.User, p pagination.Page) (pagination.Result[model.Blog], error) {
	return s.list(ctx, repo.BlogFilter{AuthorID: &actor.ID}, p)
}

// List returns published blogs
func (s *Service) List(ctx context.Context, f ListFilter, p pagination.Page) (pagination.Result[model.Blog], error) {
	return s.list(ctx, repo.BlogFilter{
		CategoryID: f.CategoryID,
		Search:     f.Search,
		Status:     model.BlogPublished,
	}, p)
}

func (s *Service) list(ctx context.Context, f repo.BlogFilter, p pagination.Page) (pagination.Result[model.Blog], error) {
	items, total, err := s.blogs.List(ctx, f, p.Limit, p.Offset())
	if err != nil {
		return pagination.Result[model.Blog]{}, err
	}
	return pagination.NewResult(items, total, p), nil
}

// Get returns a published blog
func (s *Service) Get(ctx context.Context, id uuid.UUID) (model.Blog, error) {
	b, err := s.blogs.GetByID(ctx, id)
	if err != nil {
		return model.Blog{}, err
	}
	if b.Status != model.BlogPublished {
		return model.Blog{}, model.NotFound("blog not found")
	}
	return b, nil
}

// Update applies the provided fields. Only the author may edit.
func (s *Service) Update(ctx context.Context, actor model.User, id uuid.UUID, in UpdateInput, image *storage.Upload) (model.Blog, error) {
	if err := validate.Struct(in); err != nil {
		return model.Blog{}, model.InvalidInput(err.Error())
	}
	b, err := s.blogs.GetByID(ctx, id)
	if err != nil {
		return model.Blog{}, err
	}
	if b.AuthorID != actor.ID {
		return model.Blog{}, model.Forbidden("only the author can edit this blog")
	}

	if in.Title != nil {
		b.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		b.Description = *in.Description
	}
	if in.Content != nil {
		b.Content = *in.Content
	}
	if in.Status != nil {
		b.Status = *in.Status
	}
	if in.Slug != nil && Slugify(*in.Slug) != b.Slug {
		slug, err := s.uniqueSlug(ctx, *in.Slug, b.Title, b.ID)
		if err != nil {
			return model.Blog{}, err
		}
		b.Slug = slug
	}
	categoryIDs, err := s.resolveCategories(ctx, in.Categories)
	if err != nil {
		return model.Blog{}, err
	}
	if image != nil {
		url, err := s.saveImage(ctx, image)
		if err != nil {
			return model.Blog{}, err
		}
		b.Image = &url
	}

	if err := s.blogs.Update(ctx, &b, categoryIDs); err != nil {
		return model.Blog{}, err
	}
	return s.blogs.GetByID(ctx, b.ID)
}

// Delete removes a blog. Authors and admins may delete.
func (s *Service) Delete(ctx context.Context, actor model.User, id uuid.UUID) error {
	b, err := s.blogs.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if b.AuthorID != actor.ID && actor.Role != model.RoleAdmin {
		return model.Forbidden("only the author can delete this blog")
	}
	return s.blogs.Delete(ctx, id)
}

// ToggleLike likes or unlikes a blog and reports the new state
func (s *Service) ToggleLike(ctx context.Context, actor model.User, id uuid.UUID) (bool, error) {
	if err := s.visibleTo(ctx, actor, id); err != nil {
		return false, err
	}
	return s.blogs.ToggleLike(ctx, id, actor.ID)
}

// ToggleBookmark bookmarks or unbookmarks a blog and reports the new state
func (s *Service) ToggleBookmark(ctx context.Context, actor model.User, id uuid.UUID) (bool, error) {
	if err := s.visibleTo(ctx, actor, id); err != nil {
		return false, err
	}
	return s.blogs.ToggleBookmark(ctx, id, actor.ID)
}

// visibleTo reports NotFound unless the blog is published or written by actor
func (s *Service) visibleTo(ctx context.Context, actor model.User, id uuid.UUID) error {
	b, err := s.blogs.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if b.Status != model.BlogPublished && b.AuthorID != actor.ID {
		return model.NotFound("blog not found")
	}
	return nil
}
