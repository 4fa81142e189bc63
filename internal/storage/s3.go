// Package storage uploads imported thumbnails to S3-compatible object storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/vidgallery/backend/internal/config"
)

// thumbnailCacheControl applies to uploaded images; keys are content derived.
const thumbnailCacheControl = "public, max-age=31536000, immutable"

// ErrEmptyKey is returned when an object name reduces to nothing.
var ErrEmptyKey = errors.New("s3 storage: empty key")

type uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Storage implements videos.AssetStorage backed by an S3-compatible service.
type S3Storage struct {
	uploader uploader
	bucket   string
	baseURL  string
}

// NewS3Storage configures an uploader targeting the provided object store.
func NewS3Storage(ctx context.Context, cfg config.ObjectStoreConfig) (*S3Storage, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("s3 storage: bucket is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	endpoint := strings.TrimSpace(cfg.Endpoint)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	up := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = manager.MinUploadPartSize
		u.LeavePartsOnError = false
	})

	return newS3Storage(up, cfg), nil
}

func newS3Storage(up uploader, cfg config.ObjectStoreConfig) *S3Storage {
	base := strings.TrimSuffix(strings.TrimSpace(cfg.PublicBaseURL), "/")
	if base == "" {
		base = defaultBaseURL(cfg)
	}
	return &S3Storage{uploader: up, bucket: cfg.Bucket, baseURL: base}
}

// defaultBaseURL addresses objects directly on the bucket endpoint.
func defaultBaseURL(cfg config.ObjectStoreConfig) string {
	if endpoint := strings.TrimSuffix(strings.TrimSpace(cfg.Endpoint), "/"); endpoint != "" {
		return endpoint + "/" + cfg.Bucket
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
}

// Save uploads the provided content to the configured bucket and returns its
// public URL. The content type is derived from the key extension.
func (s *S3Storage) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	key := path.Clean("/" + strings.TrimSpace(name))[1:]
	if key == "" {
		return "", ErrEmptyKey
	}

	input := &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         r,
		ACL:          s3types.ObjectCannedACLPublicRead,
		CacheControl: aws.String(thumbnailCacheControl),
	}
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		input.ContentType = aws.String(ct)
	}

	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return "", fmt.Errorf("s3 storage upload %s: %w", key, err)
	}

	return s.URL(key), nil
}

// URL returns the public location of key.
func (s *S3Storage) URL(key string) string {
	return s.baseURL + "/" + strings.TrimLeft(key, "/")
}
