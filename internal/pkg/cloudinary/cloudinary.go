package cloudinary

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"

	"github.com/xyz-asif/citycare/internal/pkg/storage"
	apperrors "github.com/xyz-asif/citycare/pkg/errors"
)

// Service stores report images on Cloudinary. It satisfies storage.ImageStore.
type Service struct {
	cld          *cloudinary.Cloudinary
	uploadFolder string
}

// NewService creates a new Cloudinary service instance
func NewService(cloudName, apiKey, apiSecret, uploadFolder string) (*Service, error) {
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, errors.New("cloudinary credentials are required")
	}

	cloudinaryURL := fmt.Sprintf("cloudinary://%s:%s@%s", apiKey, apiSecret, cloudName)

	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary client: %w", err)
	}

	if uploadFolder == "" {
		uploadFolder = "citycare"
	}

	return &Service{
		cld:          cld,
		uploadFolder: uploadFolder,
	}, nil
}

func (s *Service) Name() string { return "cloudinary" }

// Folder is where report images land.
func (s *Service) Folder() string {
	return s.uploadFolder + "/reports"
}

// Save uploads an image and returns its public id and secure URL.
func (s *Service) Save(ctx context.Context, r io.Reader, originalName, _ string) (*storage.StoredImage, error) {
	publicID := uuid.NewString()

	uploadParams := uploader.UploadParams{
		PublicID:     publicID,
		Folder:       s.Folder(),
		ResourceType: "image",
	}

	result, err := s.cld.Upload.Upload(ctx, r, uploadParams)
	if err != nil {
		return nil, &apperrors.StorageError{Op: "write", Key: originalName, Err: err}
	}
	if result.Error.Message != "" {
		return nil, &apperrors.StorageError{Op: "write", Key: originalName, Err: errors.New(result.Error.Message)}
	}

	return &storage.StoredImage{
		Key: result.PublicID,
		URL: result.SecureURL,
	}, nil
}

// Delete removes an asset from Cloudinary
func (s *Service) Delete(ctx context.Context, publicID string) error {
	if publicID == "" {
		return &apperrors.StorageError{Op: "delete", Err: errors.New("publicID is required")}
	}

	destroyParams := uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: "image",
	}

	result, err := s.cld.Upload.Destroy(ctx, destroyParams)
	if err != nil {
		return &apperrors.StorageError{Op: "delete", Key: publicID, Err: err}
	}
	if result.Result != "" && result.Result != "ok" {
		return &apperrors.StorageError{Op: "delete", Key: publicID, Err: fmt.Errorf("cloudinary destroy: %s", result.Result)}
	}

	return nil
}
