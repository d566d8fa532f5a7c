// Package category manages blog categories.
package category

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/quillpost/server/internal/model"
	"github.com/quillpost/server/internal/pagination"
	"github.com/quillpost/server/internal/validate"
)

// Store persists categories
type Store interface {
	Create(ctx context.Context, c *model.Category) error
	GetByID(ctx context.Context, id uuid.UUID) (model.Category, error)
	List(ctx context.Context, limit, offset int) ([]model.Category, int, error)
	Update(ctx context.Context, c *model.Category) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Input is the body of create and update. Update treats nil as "keep".
type Input struct {
	Title    *string `json:"title" validate:"omitempty,min=1,max=100"`
	Priority *int    `json:"priority" validate:"omitempty,min=0"`
}

// Service implements category CRUD
type Service struct {
	store Store
}

// NewService creates a category service
func NewService(store Store) *Service {
	return &Service{store: store}
}

func (in *Input) normalize() error {
	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		in.Title = &t
	}
	if err := validate.Struct(in); err != nil {
		return model.InvalidInput(err.Error())
	}
	return nil
}

// Create adds a category; titles are unique
func (s *Service) Create(ctx context.Context, in Input) (model.Category, error) {
	if err := in.normalize(); err != nil {
		return model.Category{}, err
	}
	if in.Title == nil || *in.Title == "" {
		return model.Category{}, model.InvalidInput("title is required")
	}
	c := model.Category{Title: *in.Title, Priority: in.Priority}
	if err := s.store.Create(ctx, &c); err != nil {
		return model.Category{}, err
	}
	return c, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (model.Category, error) {
	return s.store.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, p pagination.Page) (pagination.Result[model.Category], error) {
	items, total, err := s.store.List(ctx, p.Limit, p.Offset())
	if err != nil {
		return pagination.Result[model.Category]{}, err
	}
	return pagination.NewResult(items, total, p), nil
}

// Update changes the provided fields
func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input) (model.Category, error) {
	if err := in.normalize(); err != nil {
		return model.Category{}, err
	}
	c, err := s.store.GetByID(ctx, id)
	if err != nil {
		return model.Category{}, err
	}
	if in.Title != nil {
		if *in.Title == "" {
			return model.Category{}, model.InvalidInput("title must not be empty")
		}
		c.Title = *in.Title
	}
	if in.Priority != nil {
		c.Priority = in.Priority
	}
	if err := s.store.Update(ctx, &c); err != nil {
		return model.Category{}, err
	}
	return c, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.Delete(ctx, id)
}
