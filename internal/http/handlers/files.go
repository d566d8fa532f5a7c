package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/quillpost/server/internal/filemanager"
	"github.com/quillpost/server/internal/model"
	"github.com/quillpost/server/internal/pagination"
	"github.com/quillpost/server/internal/storage"
)

// FileService is the file manager used by FilesHandler
type FileService interface {
	Upload(ctx context.Context, actor model.User, up storage.Upload, in filemanager.UploadInput) (model.File, error)
	List(ctx context.Context, f filemanager.ListFilter, p pagination.Page) (pagination.Result[model.File], error)
	Get(ctx context.Context, id uuid.UUID) (model.File, error)
	Delete(ctx context.Context, actor model.User, id uuid.UUID) error
}

// FilesHandler handles /file-manager endpoints
type FilesHandler struct {
	svc FileService
}

// NewFilesHandler creates a new file manager handler
func NewFilesHandler(svc FileService) *FilesHandler {
	return &FilesHandler{svc: svc}
}

// Upload handles POST /file-manager/upload
func (h *FilesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r)
	if !ok {
		return
	}

	// leave room for the other form fields
	r.Body = http.MaxBytesReader(w, r.Body, filemanager.MaxUploadSize+1<<20)
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondWithError(w, http.StatusRequestEntityTooLarge, "file is too large")
			return
		}
		respondWithError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	up, closeFile, err := formUpload(r, "file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid file")
		return
	}
	defer closeFile()
	if up == nil {
		respondWithError(w, http.StatusBadRequest, "file is required")
		return
	}

	f, err := h.svc.Upload(r.Context(), user, *up, filemanager.UploadInput{
		Category:    strings.TrimSpace(r.FormValue("category")),
		Description: r.FormValue("description"),
	})
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, dataResponse{Message: "created successfully", Data: f})
}

// List handles GET /file-manager
func (h *FilesHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := filemanager.ListFilter{
		Category: q.Get("category"),
		Search:   strings.TrimSpace(q.Get("search")),
		OrderBy:  q.Get("orderBy"),
	}
	if raw := q.Get("userId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "userId must be a valid uuid")
			return
		}
		f.UserID = &id
	}
	res, err := h.svc.List(r.Context(), f, pagination.FromQuery(q))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}

// Get handles GET /file-manager/{id}
func (h *FilesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	f, err := h.svc.Get(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, f)
}

// Delete handles DELETE /file-manager/{id}
func (h *FilesHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
