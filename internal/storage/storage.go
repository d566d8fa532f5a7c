// Package storage keeps uploaded objects on local disk or in S3.
package storage

import (
	"context"
	"io"
	"path"
	"strings"

	"github.com/oklog/ulid/v2"
)

// Store saves and removes uploaded objects addressed by slash-separated keys
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// NewKey returns a fresh key under folder that keeps the extension of
// originalName, e.g. "file-manager/01hx...q.png".
func NewKey(folder, originalName string) string {
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(originalName, "\\", "/"))))
	return folder + "/" + strings.ToLower(ulid.Make().String()) + ext
}

// Upload is a file received from a client
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}
