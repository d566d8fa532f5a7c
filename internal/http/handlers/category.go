package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/quillpost/server/internal/category"
	"github.com/quillpost/server/internal/model"
	"github.com/quillpost/server/internal/pagination"
)

// CategoryService is the category CRUD used by CategoryHandler
type CategoryService interface {
	Create(ctx context.Context, in category.Input) (model.Category, error)
	Get(ctx context.Context, id uuid.UUID) (model.Category, error)
	List(ctx context.Context, p pagination.Page) (pagination.Result[model.Category], error)
	Update(ctx context.Context, id uuid.UUID, in category.Input) (model.Category, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CategoryHandler handles /category endpoints
type CategoryHandler struct {
	svc CategoryService
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(svc CategoryService) *CategoryHandler {
	return &CategoryHandler{svc: svc}
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in category.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c, err := h.svc.Create(r.Context(), in)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, dataResponse{Message: "category created successfully", Data: c})
}

func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.List(r.Context(), pagination.FromQuery(r.URL.Query()))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}

func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	c, err := h.svc.Get(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, c)
}

func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var in category.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c, err := h.svc.Update(r.Context(), id, in)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, dataResponse{Message: "category updated successfully", Data: c})
}

func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, messageResponse{Message: "category deleted successfully"})
}
