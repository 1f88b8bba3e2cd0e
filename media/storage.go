// Package media stores recipe images. Clients send images inline as base64 strings
// (optionally wrapped in a data URI); they are decoded, type-checked and written under
// MEDIA_ROOT, and the recipe keeps the public URL.
package media

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/user/foodgram-go/apperror"
)

// recipesSubdir is where recipe images live under the media root.
const recipesSubdir = "recipes/images"

var (
	// ErrInvalidImage is returned for payloads that are not base64 or not an image.
	ErrInvalidImage = apperror.Coded(apperror.ValidationError, "invalid_image", "image",
		"upload a valid image: the file is either not an image or corrupted")
	// ErrUnsupportedImage is returned for images of a type we do not serve.
	ErrUnsupportedImage = apperror.Coded(apperror.ValidationError, "unsupported_image", "image",
		"image must be a PNG, JPEG, GIF or WEBP file")
)

// allowedTypes maps accepted MIME types to the extension used on disk.
var allowedTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Storage persists encoded images and returns their public URL.
// The recipes service depends on this interface; FileStorage implements it.
type Storage interface {
	Save(ctx context.Context, encoded string) (string, error)
	Delete(ctx context.Context, url string) error
}

// FileStorage writes images to the local filesystem.
// Thread-safe for concurrent operations.
type FileStorage struct {
	root    string // filesystem directory images are written to
	baseURL string // public URL prefix matching root, always ends with "/"
	mu      sync.Mutex
}

// NewFileStorage creates the image directory under mediaRoot if needed.
// mediaURL is the URL prefix the media root is served under (e.g. "/media/").
func NewFileStorage(mediaRoot, mediaURL string) (*FileStorage, error) {
	if mediaRoot == "" {
		return nil, fmt.Errorf("media root cannot be empty")
	}
	dir := filepath.Join(mediaRoot, filepath.FromSlash(recipesSubdir))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s directory: %w", dir, err)
	}
	if !strings.HasSuffix(mediaURL, "/") {
		mediaURL += "/"
	}
	return &FileStorage{
		root:    dir,
		baseURL: mediaURL + recipesSubdir + "/",
	}, nil
}

// Save decodes encoded, checks it is a supported image and writes it under a random name.
func (s *FileStorage) Save(_ context.Context, encoded string) (string, error) {
	data, ext, err := Decode(encoded)
	if err != nil {
		return "", err
	}

	name := uuid.NewString() + ext

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.WriteFile(filepath.Join(s.root, name), data, 0o644); err != nil {
		return "", apperror.NewInternalError("failed to write image file", err)
	}
	return s.baseURL + name, nil
}

// Delete removes the file behind url. URLs that do not belong to this storage and files
// that are already gone are ignored.
func (s *FileStorage) Delete(_ context.Context, url string) error {
	name, ok := strings.CutPrefix(url, s.baseURL)
	if !ok || name == "" || strings.ContainsAny(name, `/\`) {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(filepath.Join(s.root, name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete image file: %w", err)
	}
	return nil
}

// Decode turns a base64 payload into image bytes and the file extension for its type.
// Both raw base64 and "data:image/png;base64,...." URIs are accepted; the declared type of
// a data URI is ignored in favor of the sniffed one.
func Decode(encoded string) ([]byte, string, error) {
	payload := strings.TrimSpace(encoded)
	if strings.HasPrefix(payload, "data:") {
		_, after, found := strings.Cut(payload, ";base64,")
		if !found {
			return nil, "", ErrInvalidImage
		}
		payload = after
	}
	if payload == "" {
		return nil, "", ErrInvalidImage
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// Some clients strip padding.
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return nil, "", ErrInvalidImage
		}
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, "", ErrInvalidImage
	}
	for m := mtype; m != nil; m = m.Parent() {
		if ext, ok := allowedTypes[m.String()]; ok {
			return data, ext, nil
		}
	}
	return nil, "", ErrUnsupportedImage
}
