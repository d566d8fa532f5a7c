package handlers

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/quillpost/server/internal/middleware"
	"github.com/quillpost/server/internal/model"
	"github.com/quillpost/server/internal/storage"
)

// maxFormMemory is how much of a multipart body is kept in memory
const maxFormMemory = 8 << 20

// actor returns the authenticated user or answers 401
func actor(w http.ResponseWriter, r *http.Request) (model.User, bool) {
	user, ok := middleware.GetUser(r.Context())
	if !ok || user == nil {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return model.User{}, false
	}
	return *user, true
}

// idParam parses the {id} path parameter or answers 400
func idParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

func isJSON(r *http.Request) bool {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return ct == "application/json"
}

func isMultipart(r *http.Request) bool {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return ct == "multipart/form-data"
}

// parseForm handles both urlencoded and multipart bodies
func parseForm(r *http.Request) error {
	if isMultipart(r) {
		return r.ParseMultipartForm(maxFormMemory)
	}
	return r.ParseForm()
}

// bindFields reads flat string fields from a JSON object or a form body
func bindFields(r *http.Request, names ...string) (map[string]string, error) {
	out := make(map[string]string, len(names))
	if isJSON(r) {
		var raw map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			return nil, err
		}
		for _, n := range names {
			if s, ok := raw[n].(string); ok {
				out[n] = strings.TrimSpace(s)
			}
		}
		return out, nil
	}
	if err := parseForm(r); err != nil {
		return nil, err
	}
	for _, n := range names {
		out[n] = strings.TrimSpace(r.FormValue(n))
	}
	return out, nil
}

// formUpload returns the file sent in field, or nil when none was sent. The
// caller closes the returned body.
func formUpload(r *http.Request, field string) (*storage.Upload, func(), error) {
	f, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, err
	}
	up := &storage.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        f,
	}
	return up, func() { _ = f.Close() }, nil
}

// optional returns a pointer to the trimmed value, or nil when blank
func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// stringList accepts either a JSON string or an array of strings
type stringList []string

func (l *stringList) UnmarshalJSON(b []byte) error {
	var one string
	if err := json.Unmarshal(b, &one); err == nil {
		*l = stringList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return err
	}
	*l = many
	return nil
}
