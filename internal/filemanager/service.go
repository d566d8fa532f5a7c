// Package filemanager stores arbitrary user uploads and tracks them in the files table.
package filemanager

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/quillpost/server/internal/model"
	"github.com/quillpost/server/internal/pagination"
	"github.com/quillpost/server/internal/repo"
	"github.com/quillpost/server/internal/storage"
	"github.com/quillpost/server/internal/validate"
)

const (
	// MaxUploadSize caps a single upload at 10 MB
	MaxUploadSize = 10 << 20

	folder = "file-manager"
)

// Store persists file rows
type Store interface {
	Create(ctx context.Context, f *model.File) error
	GetByID(ctx context.Context, id uuid.UUID) (model.File, error)
	List(ctx context.Context, f repo.FileFilter, limit, offset int) ([]model.File, int, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

// UploadInput carries the optional form fields sent with a file
type UploadInput struct {
	Category    string `validate:"omitempty,oneof=image video audio document archive other"`
	Description string `validate:"max=500"`
}

// ListFilter is the query of GET /file-manager
type ListFilter struct {
	Category string
	Search   string
	UserID   *uuid.UUID
	OrderBy  string
}

// Service implements the file manager operations
type Service struct {
	files Store
	store storage.Store
}

// NewService creates a file manager service
func NewService(files Store, store storage.Store) *Service {
	return &Service{files: files, store: store}
}

// Upload stores the object and records it for actor
func (s *Service) Upload(ctx context.Context, actor model.User, up storage.Upload, in UploadInput) (model.File, error) {
	if up.Size > MaxUploadSize {
		return model.File{}, model.BadRequest("file is too large")
	}
	in.Description = strings.TrimSpace(in.Description)
	if err := validate.Struct(in); err != nil {
		return model.File{}, model.InvalidInput(err.Error())
	}

	mimeType := up.ContentType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	category := model.FileCategory(in.Category)
	if category == "" {
		category = DetectCategory(mimeType)
	}

	key := storage.NewKey(folder, up.Filename)
	if err := s.store.Put(ctx, key, up.Body, mimeType); err != nil {
		return model.File{}, fmt.Errorf("failed to store file: %w", err)
	}

	f := model.File{
		UserID:       actor.ID,
		Filename:     path.Base(key),
		OriginalName: up.Filename,
		Path:         key,
		MimeType:     mimeType,
		Size:         up.Size,
		Category:     category,
	}
	if in.Description != "" {
		f.Description = &in.Description
	}
	if err := s.files.Create(ctx, &f); err != nil {
		// row failed, don't leave the object behind
		_ = s.store.Delete(ctx, key)
		return model.File{}, err
	}
	return s.withURL(f), nil
}

// List returns live files matching the filter
func (s *Service) List(ctx context.Context, f ListFilter, p pagination.Page) (pagination.Result[model.File], error) {
	filter := repo.FileFilter{UserID: f.UserID, Search: f.Search}
	if f.Category != "" {
		c := model.FileCategory(f.Category)
		if !c.Valid() {
			return pagination.Result[model.File]{}, model.InvalidInput("invalid file category")
		}
		filter.Category = c
	}
	switch strings.ToLower(f.OrderBy) {
	case "", "desc":
	case "asc":
		filter.Asc = true
	default:
		return pagination.Result[model.File]{}, model.InvalidInput("orderBy must be asc or desc")
	}

	items, total, err := s.files.List(ctx, filter, p.Limit, p.Offset())
	if err != nil {
		return pagination.Result[model.File]{}, err
	}
	for i := range items {
		items[i] = s.withURL(items[i])
	}
	return pagination.NewResult(items, total, p), nil
}

// Get returns a live file
func (s *Service) Get(ctx context.Context, id uuid.UUID) (model.File, error) {
	f, err := s.files.GetByID(ctx, id)
	if err != nil {
		return model.File{}, err
	}
	return s.withURL(f), nil
}

// Delete removes the object from storage and soft-deletes the row.
// Owners and admins may delete.
func (s *Service) Delete(ctx context.Context, actor model.User, id uuid.UUID) error {
	f, err := s.files.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if f.UserID != actor.ID && actor.Role != model.RoleAdmin {
		return model.Forbidden("you can only delete your own files")
	}
	if err := s.store.Delete(ctx, f.Path); err != nil {
		return model.WrapError(model.ErrBadRequest, "error deleting file from storage", err)
	}
	return s.files.SoftDelete(ctx, id)
}

func (s *Service) withURL(f model.File) model.File {
	f.URL = s.store.URL(f.Path)
	return f
}

var documentTypes = map[string]bool{
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"application/vnd.ms-powerpoint": true,
}

// DetectCategory classifies a MIME type. Media prefixes win over the
// document and archive substrings.
func DetectCategory(mimeType string) model.FileCategory {
	m := strings.ToLower(mimeType)
	switch {
	case strings.HasPrefix(m, "image/"):
		return model.FileImage
	case strings.HasPrefix(m, "video/"):
		return model.FileVideo
	case strings.HasPrefix(m, "audio/"):
		return model.FileAudio
	case documentTypes[m],
		strings.Contains(m, "pdf"),
		strings.Contains(m, "document"),
		strings.Contains(m, "text"):
		return model.FileDocument
	case strings.Contains(m, "zip"),
		strings.Contains(m, "rar"),
		strings.Contains(m, "tar"),
		strings.Contains(m, "compressed"):
		return model.FileArchive
	}
	return model.FileOther
}
