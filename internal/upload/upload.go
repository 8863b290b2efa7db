// Package upload sends files to the backend's upload endpoint and returns
// the absolute URL they were stored under.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/refconnect/refconnect-cli/internal/api"
)

// ErrNoURL is returned when the upload response carries no URL field.
var ErrNoURL = errors.New("upload response contains no URL")

// Uploader posts files to POST /Files/upload.
type Uploader struct {
	client *api.Client
}

// NewUploader creates an Uploader over client.
func NewUploader(client *api.Client) *Uploader {
	return &Uploader{client: client}
}

// Upload reads the file at path and uploads it.
func (u *Uploader) Upload(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return u.UploadReader(ctx, filepath.Base(path), f)
}

// UploadReader uploads r as a multipart form file. The response URL comes
// back under url or Url depending on the serializer; relative paths are
// normalized into absolute URLs against the API base.
func (u *Uploader) UploadReader(ctx context.Context, filename string, r io.Reader) (string, error) {
	var resp struct {
		URL string `json:"url"`
	}
	if err := u.client.PostMultipart(ctx, "/Files/upload", "file", filename, r, &resp); err != nil {
		return "", err
	}
	if resp.URL == "" {
		return "", ErrNoURL
	}

	normalized := api.NormalizeAssetURL(u.client.BaseURL(), resp.URL)

	log.Debug().Str("filename", filename).Str("url", normalized).Msg("file uploaded")

	return normalized, nil
}
