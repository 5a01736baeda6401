package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"koomia/api/internal/config"
)

func TestPublicURL(t *testing.T) {
	cfg := config.StorageConfig{Endpoint: "localhost:9000", BucketName: "koomia"}
	assert.Equal(t, "http://localhost:9000/koomia/avatars/a.png", PublicURL(cfg, "avatars/a.png"))

	cfg.UseSSL = true
	assert.Equal(t, "https://localhost:9000/koomia/avatars/a.png", PublicURL(cfg, "/avatars/a.png"))

	cfg.Endpoint = "http://minio:9000/"
	assert.Equal(t, "http://minio:9000/koomia/x.png", PublicURL(cfg, "x.png"))

	cfg.PublicURL = "https://cdn.example/media/"
	assert.Equal(t, "https://cdn.example/media/x.png", PublicURL(cfg, "x.png"))
}

func TestNewObjectStoreParsesEndpoint(t *testing.T) {
	store, err := NewObjectStore(config.StorageConfig{
		Endpoint:   "https://minio.example",
		AccessKey:  "key",
		SecretKey:  "secret",
		BucketName: "koomia",
	})
	require.NoError(t, err)
	assert.Equal(t, "minio.example", store.client.EndpointURL().Host)
	assert.Equal(t, "https", store.client.EndpointURL().Scheme)
}
