package blog

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/quillpost/server/internal/model"
	"github.com/quillpost/server/internal/pagination"
	"github.com/quillpost/server/internal/validate"
)

// CommentStore persists comments
type CommentStore interface {
	Create(ctx context.Context, c *model.BlogComment) error
	GetByID(ctx context.Context, id uuid.UUID) (model.BlogComment, error)
	ListTopLevel(ctx context.Context, blogID *uuid.UUID, limit, offset int) ([]model.BlogComment, int, error)
	ListChildren(ctx context.Context, parentIDs []uuid.UUID) ([]model.BlogComment, error)
}

// CommentInput is the body of POST /blog-comment
type CommentInput struct {
	Text     string     `json:"text" validate:"required,min=2,max=1000"`
	BlogID   uuid.UUID  `json:"blogId" validate:"required"`
	ParentID *uuid.UUID `json:"parentId"`
}

// CreateComment adds a comment, or a reply when ParentID is set. Comments
// are accepted immediately.
func (s *Service) CreateComment(ctx context.Context, actor model.User, in CommentInput) (model.BlogComment, error) {
	in.Text = strings.TrimSpace(in.Text)
	if err := validate.Struct(in); err != nil {
		return model.BlogComment{}, model.InvalidInput(err.Error())
	}

	if _, err := s.blogs.GetByID(ctx, in.BlogID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.BlogComment{}, model.NotFound("blog not found")
		}
		return model.BlogComment{}, err
	}

	if in.ParentID != nil {
		parent, err := s.comments.GetByID(ctx, *in.ParentID)
		if errors.Is(err, model.ErrNotFound) || (err == nil && parent.BlogID != in.BlogID) {
			return model.BlogComment{}, model.NotFound("comment not found")
		}
		if err != nil {
			return model.BlogComment{}, err
		}
	}

	c := model.BlogComment{
		BlogID:   in.BlogID,
		UserID:   actor.ID,
		ParentID: in.ParentID,
		Text:     in.Text,
		Accepted: true,
	}
	if err := s.comments.Create(ctx, &c); err != nil {
		return model.BlogComment{}, err
	}
	return c, nil
}

// ListComments returns a page of top-level comments with their direct replies
func (s *Service) ListComments(ctx context.Context, blogID *uuid.UUID, p pagination.Page) (pagination.Result[model.BlogComment], error) {
	top, total, err := s.comments.ListTopLevel(ctx, blogID, p.Limit, p.Offset())
	if err != nil {
		return pagination.Result[model.BlogComment]{}, err
	}

	ids := make([]uuid.UUID, len(top))
	for i, c := range top {
		ids[i] = c.ID
	}
	children, err := s.comments.ListChildren(ctx, ids)
	if err != nil {
		return pagination.Result[model.BlogComment]{}, err
	}

	byParent := make(map[uuid.UUID][]model.BlogComment)
	for _, c := range children {
		if c.ParentID != nil {
			byParent[*c.ParentID] = append(byParent[*c.ParentID], c)
		}
	}
	for i := range top {
		top[i].Children = byParent[top[i].ID]
		if top[i].Children == nil {
			top[i].Children = []model.BlogComment{}
		}
	}
	return pagination.NewResult(top, total, p), nil
}
