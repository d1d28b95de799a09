package application_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/fundingdata/internal/application"
	"github.com/JonMunkholm/fundingdata/internal/config"
)

func sqliteConfig(t *testing.T, extra map[string]string) *config.Config {
	t.Helper()
	environ := map[string]string{
		"DB_DRIVER":    "sqlite",
		"DATABASE_URL": ":memory:",
	}
	for k, v := range extra {
		environ[k] = v
	}
	cfg, err := config.LoadFrom(environ)
	require.NoError(t, err)
	return cfg
}

func TestNewBuildsMigratedService(t *testing.T) {
	ctx := context.Background()
	app, err := application.New(ctx, sqliteConfig(t, nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	n, err := app.DB.CountRows(ctx, "submission_dim")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	assert.Equal(t, 5, app.Limiter.Available())
	assert.NotEmpty(t, app.Service.Rounds())

	require.NotNil(t, app.Metrics)
	rec := httptest.NewRecorder()
	app.Metrics.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewWithoutMetrics(t *testing.T) {
	app, err := application.New(context.Background(), sqliteConfig(t, map[string]string{"METRICS_ENABLED": "false"}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	assert.Nil(t, app.Metrics)
}

func TestBlobStores(t *testing.T) {
	cfg := sqliteConfig(t, nil)
	files, failed, err := application.BlobStores(context.Background(), cfg.Blob)
	require.NoError(t, err)
	assert.Equal(t, "memory", files.Driver())
	assert.Equal(t, "memory", failed.Driver())

	cfg = sqliteConfig(t, map[string]string{"BLOB_BACKEND": "fs", "BLOB_DIR": t.TempDir()})
	files, failed, err = application.BlobStores(context.Background(), cfg.Blob)
	require.NoError(t, err)
	assert.Equal(t, "fs", files.Driver())
	assert.Equal(t, "fs", failed.Driver())

	cfg = sqliteConfig(t, map[string]string{
		"BLOB_BACKEND":          "s3",
		"BLOB_BUCKET":           "submissions",
		"BLOB_FAILED_BUCKET":    "failed-submissions",
		"BLOB_ENDPOINT":         "http://localhost:9000",
		"AWS_ACCESS_KEY_ID":     "minio",
		"AWS_SECRET_ACCESS_KEY": "minio123",
	})
	files, failed, err = application.BlobStores(context.Background(), cfg.Blob)
	require.NoError(t, err)
	assert.Equal(t, "s3", files.Driver())
	assert.Equal(t, "s3", failed.Driver())
}
