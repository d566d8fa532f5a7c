package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/quillpost/server/internal/blog"
	"github.com/quillpost/server/internal/model"
	"github.com/quillpost/server/internal/pagination"
	"github.com/quillpost/server/internal/storage"
)

// BlogService is the blog and comment API used by BlogHandler
type BlogService interface {
	Create(ctx context.Context, actor model.User, in blog.CreateInput, image *storage.Upload) (model.Blog, error)
	Mine(ctx context.Context, actor model.User, p pagination.Page) (pagination.Result[model.Blog], error)
	List(ctx context.Context, f blog.ListFilter, p pagination.Page) (pagination.Result[model.Blog], error)
	Get(ctx context.Context, id uuid.UUID) (model.Blog, error)
	Update(ctx context.Context, actor model.User, id uuid.UUID, in blog.UpdateInput, image *storage.Upload) (model.Blog, error)
	Delete(ctx context.Context, actor model.User, id uuid.UUID) error
	ToggleLike(ctx context.Context, actor model.User, id uuid.UUID) (bool, error)
	ToggleBookmark(ctx context.Context, actor model.User, id uuid.UUID) (bool, error)
	CreateComment(ctx context.Context, actor model.User, in blog.CommentInput) (model.BlogComment, error)
	ListComments(ctx context.Context, blogID *uuid.UUID, p pagination.Page) (pagination.Result[model.BlogComment], error)
}

// BlogHandler handles /blog and /blog-comment endpoints
type BlogHandler struct {
	svc BlogService
}

// NewBlogHandler creates a new blog handler
func NewBlogHandler(svc BlogService) *BlogHandler {
	return &BlogHandler{svc: svc}
}

// blogRequest is a create or update body. nil fields were not sent.
type blogRequest struct {
	Title       *string    `json:"title"`
	Slug        *string    `json:"slug"`
	Description *string    `json:"description"`
	Content     *string    `json:"content"`
	Status      *string    `json:"status"`
	Categories  stringList `json:"categories"`
}

// readBlogRequest decodes a JSON or multipart blog body and its optional image
func readBlogRequest(r *http.Request) (blogRequest, *storage.Upload, func(), error) {
	var req blogRequest
	if isJSON(r) {
		err := json.NewDecoder(r.Body).Decode(&req)
		return req, nil, func() {}, err
	}
	if err := parseForm(r); err != nil {
		return req, nil, func() {}, err
	}
	field := func(name string) *string {
		if _, ok := r.Form[name]; !ok {
			return nil
		}
		v := r.FormValue(name)
		return &v
	}
	req.Title = field("title")
	req.Slug = field("slug")
	req.Description = field("description")
	req.Content = field("content")
	req.Status = field("status")
	if cats, ok := r.Form["categories"]; ok {
		req.Categories = cats
	}
	image, closeImage, err := formUpload(r, "image")
	return req, image, closeImage, err
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Create handles POST /blog
func (h *BlogHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r)
	if !ok {
		return
	}
	req, image, closeImage, err := readBlogRequest(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	defer closeImage()

	b, err := h.svc.Create(r.Context(), user, blog.CreateInput{
		Title:       deref(req.Title),
		Slug:        deref(req.Slug),
		Description: deref(req.Description),
		Content:     deref(req.Content),
		Status:      model.BlogStatus(strings.TrimSpace(deref(req.Status))),
		Categories:  req.Categories,
	}, image)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, dataResponse{Message: "created successfully", Data: b})
}

// Mine handles GET /blog/my
func (h *BlogHandler) Mine(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r)
	if !ok {
		return
	}
	res, err := h.svc.Mine(r.Context(), user, pagination.FromQuery(r.URL.Query()))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}

// List handles GET /blog
func (h *BlogHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := blog.ListFilter{Search: strings.TrimSpace(q.Get("search"))}
	if raw := q.Get("categoryId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "categoryId must be a valid uuid")
			return
		}
		f.CategoryID = &id
	}
	res, err := h.svc.List(r.Context(), f, pagination.FromQuery(q))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}

// Get handles GET /blog/{id}
func (h *BlogHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	b, err := h.svc.Get(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, b)
}

// Update handles PATCH /blog/{id}
func (h *BlogHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	req, image, closeImage, err := readBlogRequest(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	defer closeImage()

	in := blog.UpdateInput{
		Title:       req.Title,
		Slug:        req.Slug,
		Description: req.Description,
		Content:     req.Content,
		Categories:  req.Categories,
	}
	if req.Status != nil {
		s := model.BlogStatus(strings.TrimSpace(*req.Status))
		in.Status = &s
	}

	b, err := h.svc.Update(r.Context(), user, id, in, image)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, dataResponse{Message: "updated successfully", Data: b})
}

// Delete handles DELETE /blog/{id}
func (h *BlogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), user, id); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, messageResponse{Message: "deleted successfully"})
}

// ToggleLike handles GET /blog/like/{id}
func (h *BlogHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.svc.ToggleLike, "blog liked", "blog unliked")
}

// ToggleBookmark handles GET /blog/bookmark/{id}
func (h *BlogHandler) ToggleBookmark(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.svc.ToggleBookmark, "blog bookmarked", "blog unbookmarked")
}

func (h *BlogHandler) toggle(
	w http.ResponseWriter,
	r *http.Request,
	fn func(context.Context, model.User, uuid.UUID) (bool, error),
	on, off string,
) {
	user, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	state, err := fn(r.Context(), user, id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	msg := off
	if state {
		msg = on
	}
	respondWithJSON(w, http.StatusOK, messageResponse{Message: msg})
}

// CreateComment handles POST /blog-comment
func (h *BlogHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r)
	if !ok {
		return
	}
	var in blog.CommentInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c, err := h.svc.CreateComment(r.Context(), user, in)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, dataResponse{Message: "your comment has been submitted", Data: c})
}

// ListComments handles GET /blog-comment
func (h *BlogHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var blogID *uuid.UUID
	if raw := q.Get("blogId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "blogId must be a valid uuid")
			return
		}
		blogID = &id
	}
	res, err := h.svc.ListComments(r.Context(), blogID, pagination.FromQuery(q))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}
