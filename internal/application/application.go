// Package application wires configuration into the running parts of the
// service. Both binaries build through it.
package application

import (
	"context"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/go-faster/errors"

	"github.com/JonMunkholm/fundingdata/internal/blob"
	"github.com/JonMunkholm/fundingdata/internal/config"
	"github.com/JonMunkholm/fundingdata/internal/ingest"
	"github.com/JonMunkholm/fundingdata/internal/metrics"
	"github.com/JonMunkholm/fundingdata/internal/store"
)

// App holds the long-lived components.
type App struct {
	DB      *store.DB
	Service *ingest.Service
	Limiter *ingest.Limiter

	// Metrics serves /metrics. Nil when metrics are disabled.
	Metrics http.Handler
}

// OpenStore connects to the configured database and, when enabled, applies
// pending migrations.
func OpenStore(ctx context.Context, cfg *config.Config) (*store.DB, error) {
	db, err := store.Open(ctx, store.Options{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return nil, err
	}
	slog.Info("connected to database", "driver", cfg.Database.Driver)

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return db, nil
}

// BlobStores returns the stores for loaded and failed submissions.
func BlobStores(ctx context.Context, cfg config.BlobConfig) (files, failed blob.Store, err error) {
	switch cfg.Backend {
	case "s3":
	case "fs":
		filesStore, err := blob.NewFS(filepath.Join(cfg.Dir, "submissions"))
		if err != nil {
			return nil, nil, errors.Wrap(err, "submission file store")
		}
		failedStore, err := blob.NewFS(filepath.Join(cfg.Dir, "failed"))
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed file store")
		}
		return filesStore, failedStore, nil
	default:
		return blob.NewMemory(), blob.NewMemory(), nil
	}

	s3cfg := blob.S3Config{
		Region:          cfg.Region,
		Endpoint:        cfg.Endpoint,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
		PathStyle:       cfg.PathStyle,
	}

	s3cfg.Bucket = cfg.Bucket
	filesStore, err := blob.NewS3(ctx, s3cfg)
	if err != nil {
		return nil, nil, errors.Wrap(err, "submission file store")
	}
	s3cfg.Bucket = cfg.FailedBucket
	failedStore, err := blob.NewS3(ctx, s3cfg)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed file store")
	}
	return filesStore, failedStore, nil
}

// New opens the store and builds the ingest service from cfg.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app, err := build(ctx, cfg, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return app, nil
}

func build(ctx context.Context, cfg *config.Config, db *store.DB) (*App, error) {
	files, failed, err := BlobStores(ctx, cfg.Blob)
	if err != nil {
		return nil, err
	}

	app := &App{
		DB:      db,
		Limiter: ingest.NewLimiter(cfg.Ingest.MaxConcurrent, cfg.Ingest.MaxWait),
	}

	var rec metrics.Recorder = metrics.Nop{}
	if cfg.Metrics.Enabled {
		p := metrics.NewPrometheus()
		rec, app.Metrics = p, p.Handler()
	}

	app.Service, err = ingest.New(db, ingest.Options{
		Files:       files,
		Failed:      failed,
		Metrics:     rec,
		MaxAttempts: cfg.Ingest.MaxAttempts,
		RetryDelay:  cfg.Ingest.RetryDelay,
	})
	if err != nil {
		return nil, err
	}

	slog.Info("ingest service ready",
		"rounds", app.Service.Rounds(),
		"tables", len(app.Service.Registry().Tables()),
		"blob_backend", files.Driver(),
		"metrics", cfg.Metrics.Enabled,
	)
	return app, nil
}

// Close releases the database.
func (a *App) Close() error {
	if a.DB == nil {
		return nil
	}
	return a.DB.Close()
}
