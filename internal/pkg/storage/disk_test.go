package storage

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
	apperrors "github.com/xyz-asif/citycare/pkg/errors"
)

func TestDiskStoreSaveAndDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDiskStore(dir, "/uploads/")
	require.NoError(t, err)

	img, err := store.Save(context.Background(), bytes.NewReader([]byte("jpeg-bytes")), "Photo.JPG", "image/jpeg")
	require.NoError(t, err)
	require.Regexp(t, regexp.MustCompile(`^\d+-\d{9}\.jpg$`), img.Key)
	require.Equal(t, "/uploads/"+img.Key, img.URL)

	data, err := os.ReadFile(filepath.Join(dir, img.Key))
	require.NoError(t, err)
	require.Equal(t, "jpeg-bytes", string(data))

	require.NoError(t, store.Delete(context.Background(), img.Key))
	_, err = os.Stat(filepath.Join(dir, img.Key))
	require.True(t, os.IsNotExist(err))
}

func TestDiskStoreDeleteErrors(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), "")
	require.NoError(t, err)

	var storageErr *apperrors.StorageError
	err = store.Delete(context.Background(), "missing.png")
	require.True(t, errors.As(err, &storageErr))
	require.Equal(t, "delete", storageErr.Op)

	err = store.Delete(context.Background(), "../etc/passwd")
	require.True(t, errors.As(err, &storageErr))
}

func TestUniqueNamesDoNotCollide(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 500; i++ {
		name := UniqueName("a.png")
		require.False(t, seen[name], "duplicate name %s", name)
		seen[name] = true
	}
}

func fileHeader(name, contentType string, size int64) *multipart.FileHeader {
	h := textproto.MIMEHeader{}
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	return &multipart.FileHeader{Filename: name, Header: h, Size: size}
}

func TestValidateImage(t *testing.T) {
	const max = 5 * 1024 * 1024

	require.NoError(t, ValidateImage(fileHeader("pothole.jpeg", "image/jpeg", 1024), max))
	require.NoError(t, ValidateImage(fileHeader("pothole.png", "", 1024), max))
	require.Error(t, ValidateImage(fileHeader("pothole.jpeg", "image/jpeg", max+1), max))
	require.Error(t, ValidateImage(fileHeader("notes.pdf", "application/pdf", 10), max))
	require.Error(t, ValidateImage(fileHeader("script.sh", "image/png", 10), max))
}
