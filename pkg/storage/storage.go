package storage

import (
	"context"
	"io"
)

// ImageStore persists images and returns a public URL for them.
type ImageStore interface {
	UploadImage(ctx context.Context, r io.Reader, opts UploadOptions) (*UploadResult, error)
}

type UploadOptions struct {
	Folder   string
	Filename string
}

type UploadResult struct {
	URL      string
	PublicID string
	Bytes    int
}
