package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quillpost/server/internal/model"
	"github.com/quillpost/server/internal/pagination"
	"github.com/quillpost/server/internal/storage"
	"github.com/quillpost/server/internal/users"
)

// UsersService is the account management used by UsersHandler
type UsersService interface {
	GetProfile(ctx context.Context, actor model.User) (model.Profile, error)
	UpdateProfile(ctx context.Context, actor model.User, in users.ProfileInput, avatar, bgImage *storage.Upload) (model.Profile, bool, error)
	ChangeUsername(ctx context.Context, actor model.User, username string) error
	ToggleBlock(ctx context.Context, userID uuid.UUID) (bool, error)
	List(ctx context.Context, p pagination.Page) (pagination.Result[model.User], error)
	Get(ctx context.Context, id uuid.UUID) (users.UserDetail, error)
}

// UsersHandler handles /users endpoints
type UsersHandler struct {
	svc UsersService
}

// NewUsersHandler creates a new users handler
func NewUsersHandler(svc UsersService) *UsersHandler {
	return &UsersHandler{svc: svc}
}

// GetProfile handles GET /users/profile
func (h *UsersHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r)
	if !ok {
		return
	}
	p, err := h.svc.GetProfile(r.Context(), user)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, p)
}

// UpdateProfile handles PUT /users/profile (multipart)
func (h *UsersHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r)
	if !ok {
		return
	}
	if err := parseForm(r); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid form body")
		return
	}

	in := users.ProfileInput{
		Bio:                optional(r.FormValue("bio")),
		Gender:             optional(r.FormValue("gender")),
		LinkedinProfileURL: optional(r.FormValue("linkedin_profile_url")),
	}
	if raw := strings.TrimSpace(r.FormValue("birthday")); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "birthday must be an RFC 3339 timestamp")
			return
		}
		in.Birthday = &t
	}

	avatar, closeAvatar, err := formUpload(r, "avatar")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid avatar file")
		return
	}
	defer closeAvatar()
	bg, closeBg, err := formUpload(r, "bg_image")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid bg_image file")
		return
	}
	defer closeBg()

	p, created, err := h.svc.UpdateProfile(r.Context(), user, in, avatar, bg)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	msg := "your profile has been updated"
	if created {
		msg = "your profile has been completed"
	}
	respondWithJSON(w, http.StatusOK, dataResponse{Message: msg, Data: p})
}

// ChangeUsername handles PATCH /users/change-username
func (h *UsersHandler) ChangeUsername(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r)
	if !ok {
		return
	}
	fields, err := bindFields(r, "username")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.svc.ChangeUsername(r.Context(), user, fields["username"]); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, messageResponse{Message: "username changed successfully"})
}

type blockRequest struct {
	UserID uuid.UUID `json:"userId"`
}

// ToggleBlock handles POST /users/block (admin)
func (h *UsersHandler) ToggleBlock(w http.ResponseWriter, r *http.Request) {
	var req blockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == uuid.Nil {
		respondWithError(w, http.StatusBadRequest, "userId must be a valid uuid")
		return
	}
	blocked, err := h.svc.ToggleBlock(r.Context(), req.UserID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	msg := "user unblocked successfully"
	if blocked {
		msg = "user blocked successfully"
	}
	respondWithJSON(w, http.StatusOK, messageResponse{Message: msg})
}

// List handles GET /users (admin)
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.List(r.Context(), pagination.FromQuery(r.URL.Query()))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}

// Get handles GET /users/{id}
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	u, err := h.svc.Get(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, u)
}
