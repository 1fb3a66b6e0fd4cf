package service

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var ErrUnsupportedImage = errors.New("file is not a supported image")

// AttachmentStore turns an uploaded image into a displayable string
// reference for an image message. With a directory configured the file is
// written to disk and referenced by URL; without one the bytes are inlined
// as a data URI, which keeps single-node development storage-free.
type AttachmentStore struct {
	dir     string
	baseURL string
}

func NewAttachmentStore(dir, baseURL string) *AttachmentStore {
	return &AttachmentStore{dir: dir, baseURL: baseURL}
}

func (a *AttachmentStore) ImageRef(filename string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrUnsupportedImage
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return "", ErrUnsupportedImage
	}

	if a.dir == "" {
		return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
	}

	ext := filepath.Ext(filename)
	if ext == "" {
		ext = "." + strings.TrimPrefix(contentType, "image/")
	}
	name := uuid.NewString() + ext

	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(a.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}

	return a.baseURL + "/" + name, nil
}
