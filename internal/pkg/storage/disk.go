package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	apperrors "github.com/xyz-asif/citycare/pkg/errors"
)

// DiskStore keeps images in a local directory served under URLPrefix.
type DiskStore struct {
	Dir       string
	URLPrefix string
}

func NewDiskStore(dir, urlPrefix string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	if urlPrefix == "" {
		urlPrefix = "/uploads"
	}
	return &DiskStore{Dir: dir, URLPrefix: strings.TrimSuffix(urlPrefix, "/")}, nil
}

func (s *DiskStore) Name() string { return "disk" }

func (s *DiskStore) Save(_ context.Context, r io.Reader, originalName, _ string) (*StoredImage, error) {
	var (
		name, dst string
		out       *os.File
		err       error
	)
	// O_EXCL so two uploads can never share a file.
	for attempt := 0; attempt < 3; attempt++ {
		name = UniqueName(originalName)
		dst = filepath.Join(s.Dir, name)
		out, err = os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if !os.IsExist(err) {
			break
		}
	}
	if err != nil {
		return nil, &apperrors.StorageError{Op: "write", Key: name, Err: err}
	}

	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		_ = os.Remove(dst)
		return nil, &apperrors.StorageError{Op: "write", Key: name, Err: err}
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return nil, &apperrors.StorageError{Op: "write", Key: name, Err: err}
	}

	return &StoredImage{Key: name, URL: path.Join(s.URLPrefix, name)}, nil
}

func (s *DiskStore) Delete(_ context.Context, key string) error {
	// Keys are bare filenames; anything else would escape Dir.
	if key == "" || filepath.Base(key) != key {
		return &apperrors.StorageError{Op: "delete", Key: key, Err: fmt.Errorf("invalid image key")}
	}
	if err := os.Remove(filepath.Join(s.Dir, key)); err != nil {
		return &apperrors.StorageError{Op: "delete", Key: key, Err: err}
	}
	return nil
}
