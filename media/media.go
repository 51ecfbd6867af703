// Package media stores uploaded vehicle images.
package media

import (
	"context"
	"errors"
	"io"
)

// MaxUploadSize bounds a single uploaded file.
const MaxUploadSize = 10 << 20

var ErrNotFound = errors.New("media: file not found")

type File struct {
	ID          string
	Name        string
	ContentType string
	Data        []byte
}

type Store interface {
	// Upload stores the content of r and returns the new file id.
	Upload(ctx context.Context, name, contentType string, r io.Reader) (string, error)
	Open(ctx context.Context, id string) (*File, error)
}
