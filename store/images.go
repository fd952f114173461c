// ABOUTME: Disk-backed image store - persists extracted tool images and
// ABOUTME: returns the public URL they are served under.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ImageStore writes image payloads into a directory served at baseURL.
type ImageStore struct {
	dir     string
	baseURL string
}

// NewImageStore creates the directory if needed. baseURL is the externally
// reachable prefix images are served under, e.g. "http://localhost:8080/images".
func NewImageStore(dir, baseURL string) (*ImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create image directory: %w", err)
	}
	return &ImageStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Dir returns the backing directory, for serving.
func (s *ImageStore) Dir() string { return s.dir }

// Upload stores one image and returns its public URL.
func (s *ImageStore) Upload(data []byte, mimeType string) (string, error) {
	name := uuid.New().String() + "." + extensionFor(mimeType)
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return s.baseURL + "/" + name, nil
}

func extensionFor(mimeType string) string {
	if _, ext, ok := strings.Cut(mimeType, "/"); ok && ext != "" {
		return ext
	}
	return "webp"
}
