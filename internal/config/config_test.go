package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"ENV", "PORT", "ALLOWED_ORIGINS", "FRONTEND_URL", "SESSION_TTL", "MAX_UPLOAD_BYTES", "CLOUDINARY_CLOUD_NAME"} {
		t.Setenv(k, "")
	}

	cfg := Load()

	assert.Equal(t, "development", cfg.Environment)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.Equal(t, 7*24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, int64(5<<20), cfg.MaxUploadBytes)
	assert.Equal(t, "profileImages", cfg.CloudinaryFolder)
	assert.False(t, cfg.BlobStoreConfigured())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ENV", " Production ")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com,")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")
	t.Setenv("CLOUDINARY_CLOUD_NAME", "demo")
	t.Setenv("CLOUDINARY_API_KEY", "key")
	t.Setenv("CLOUDINARY_API_SECRET", "secret")

	cfg := Load()

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, int64(1024), cfg.MaxUploadBytes)
	assert.True(t, cfg.BlobStoreConfigured())
}

func TestLoad_IgnoresInvalidNumbers(t *testing.T) {
	t.Setenv("SESSION_TTL", "soon")
	t.Setenv("MAX_UPLOAD_BYTES", "-5")

	cfg := Load()

	assert.Equal(t, 7*24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, int64(5<<20), cfg.MaxUploadBytes)
}
