package storage

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"
)

// StoredImage identifies a persisted image blob.
type StoredImage struct {
	Key string // filename on disk or remote public id
	URL string // reference served back to clients
}

// ImageStore persists and removes report images.
type ImageStore interface {
	Save(ctx context.Context, r io.Reader, originalName, contentType string) (*StoredImage, error)
	Delete(ctx context.Context, key string) error
	Name() string
}

var AllowedImageTypes = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

// ValidateImage checks the size and type of an uploaded image part.
func ValidateImage(header *multipart.FileHeader, maxBytes int64) error {
	if maxBytes > 0 && header.Size > maxBytes {
		return fmt.Errorf("image exceeds maximum allowed size of %d MB", maxBytes/(1024*1024))
	}

	contentType := header.Header.Get("Content-Type")
	if contentType != "" && contentType != "application/octet-stream" && !strings.HasPrefix(contentType, "image/") {
		return fmt.Errorf("only image files are allowed, got %s", contentType)
	}

	ext := Extension(header.Filename)
	for _, allowed := range AllowedImageTypes {
		if ext == allowed {
			return nil
		}
	}
	return fmt.Errorf("invalid image file type: %q. Allowed types: %s", ext, strings.Join(AllowedImageTypes, ", "))
}

// Extension returns the lowercase extension including the dot.
func Extension(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// UniqueName builds "<unix millis>-<9 random digits><ext>".
func UniqueName(originalName string) string {
	return fmt.Sprintf("%d-%09d%s", time.Now().UnixMilli(), rand.IntN(1_000_000_000), Extension(originalName))
}
