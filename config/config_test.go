package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, "bookstore", cfg.DBName)
	assert.Equal(t, 100, cfg.BulkChunkSize)
	assert.Equal(t, ImportReport, cfg.BulkImportMode)
	assert.Equal(t, DriverS3, cfg.Storage.Driver)
	assert.True(t, cfg.Storage.UseSSL)
	assert.Equal(t, int64(20<<20), cfg.MaxUploadBytes())
	assert.False(t, cfg.IsProduction())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("CORS_ORIGINS", " https://admin.example.com, ,https://shop.example.com ")
	t.Setenv("BULK_IMPORT_MODE", "Transaction")
	t.Setenv("STORAGE_DRIVER", "minio")
	t.Setenv("S3_ENDPOINT", "http://localhost:9000/")
	t.Setenv("S3_USE_SSL", "false")
	t.Setenv("MAX_UPLOAD_MB", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Port)
	assert.Equal(t, []string{"https://admin.example.com", "https://shop.example.com"}, cfg.CORSOrigins)
	assert.Equal(t, ImportTransaction, cfg.BulkImportMode)
	assert.Equal(t, DriverMinio, cfg.Storage.Driver)
	assert.Equal(t, "http://localhost:9000", cfg.Storage.Endpoint)
	assert.False(t, cfg.Storage.UseSSL)
	assert.Equal(t, int64(5), cfg.MaxUploadMB)
}

func TestLoadRejectsDefaultSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWTSecret")

	t.Setenv("JWT_SECRET", "s3cr3t-from-vault")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}

func TestLoadRejectsUnknownValues(t *testing.T) {
	t.Setenv("BULK_IMPORT_MODE", "yolo")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("BULK_IMPORT_MODE", "report")
	t.Setenv("STORAGE_DRIVER", "ftp")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("STORAGE_DRIVER", "minio")
	_, err = Load()
	assert.Error(t, err, "minio needs an endpoint")
}
