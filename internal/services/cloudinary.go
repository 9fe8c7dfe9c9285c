package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// BlobStore stores profile pictures under a key and resolves their public URL.
type BlobStore interface {
	Upload(ctx context.Context, key string, body io.Reader) error
	URL(ctx context.Context, key string) (string, error)
}

type CloudinaryService struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinaryService(cloudName, apiKey, apiSecret, folder string) (*CloudinaryService, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true

	return &CloudinaryService{
		cld:    cld,
		folder: folder,
	}, nil
}

func (s *CloudinaryService) publicID(key string) string {
	return path.Join(s.folder, key)
}

// Upload stores an image under folder/key.
func (s *CloudinaryService) Upload(ctx context.Context, key string, body io.Reader) error {
	overwrite := false
	res, err := s.cld.Upload.Upload(ctx, body, uploader.UploadParams{
		PublicID:     s.publicID(key),
		ResourceType: "image",
		Overwrite:    &overwrite,
	})
	if err != nil {
		return fmt.Errorf("failed to upload to Cloudinary: %w", err)
	}
	if res.Error.Message != "" {
		return errors.New(res.Error.Message)
	}
	return nil
}

// URL returns the HTTPS delivery URL of an uploaded image.
func (s *CloudinaryService) URL(_ context.Context, key string) (string, error) {
	img, err := s.cld.Image(s.publicID(key))
	if err != nil {
		return "", fmt.Errorf("failed to build image URL: %w", err)
	}
	url, err := img.String()
	if err != nil {
		return "", fmt.Errorf("failed to build image URL: %w", err)
	}
	return url, nil
}

// DisabledBlobStore is used when no Cloudinary credentials are configured.
type DisabledBlobStore struct{}

func (DisabledBlobStore) Upload(context.Context, string, io.Reader) error {
	return ErrBlobStoreDisabled
}

func (DisabledBlobStore) URL(context.Context, string) (string, error) {
	return "", ErrBlobStoreDisabled
}
