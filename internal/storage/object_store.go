package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"koomia/api/internal/config"
	"koomia/api/internal/models"
)

// ObjectStore keeps avatars and product images in a single bucket.
type ObjectStore struct {
	client *minio.Client
	cfg    config.StorageConfig
}

func NewObjectStore(cfg config.StorageConfig) (*ObjectStore, error) {
	endpoint := cfg.Endpoint
	useSSL := cfg.UseSSL

	if strings.HasPrefix(endpoint, "http") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("parse endpoint: %w", err)
		}
		endpoint = u.Host
		useSSL = u.Scheme == "https"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}

	return &ObjectStore{
		client: client,
		cfg:    cfg,
	}, nil
}

func (s *ObjectStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.BucketName)
	if err != nil {
		return fmt.Errorf("bucket exists %s: %w", s.cfg.BucketName, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.cfg.BucketName, minio.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.cfg.BucketName, err)
	}
	return nil
}

func (s *ObjectStore) Put(ctx context.Context, objectKey string, body io.Reader, size int64, contentType string) (models.Media, error) {
	_, err := s.client.PutObject(ctx, s.cfg.BucketName, objectKey, body, size, minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: "public, max-age=31536000, immutable",
	})
	if err != nil {
		return models.Media{}, fmt.Errorf("put %s: %w", objectKey, err)
	}
	return models.Media{URL: PublicURL(s.cfg, objectKey), ObjectKey: objectKey}, nil
}

func (s *ObjectStore) Remove(ctx context.Context, objectKey string) error {
	if err := s.client.RemoveObject(ctx, s.cfg.BucketName, objectKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove %s: %w", objectKey, err)
	}
	return nil
}

// PublicURL is where clients fetch objectKey. A configured PublicURL (CDN or
// reverse proxy) wins over the storage endpoint.
func PublicURL(cfg config.StorageConfig, objectKey string) string {
	base := strings.TrimSuffix(cfg.PublicURL, "/")
	if base == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		endpoint := cfg.Endpoint
		if !strings.HasPrefix(endpoint, "http") {
			endpoint = scheme + "://" + endpoint
		}
		base = strings.TrimSuffix(endpoint, "/") + "/" + cfg.BucketName
	}
	return base + "/" + strings.TrimPrefix(objectKey, "/")
}
