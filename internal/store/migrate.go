package store

import (
	"context"
	"embed"
	"io/fs"
	"log/slog"

	"github.com/go-faster/errors"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

func (d *DB) dialect() goose.Dialect {
	if d.DriverName() == DriverSQLite {
		return goose.DialectSQLite3
	}
	return goose.DialectPostgres
}

// Migrate applies every pending migration.
func (d *DB) Migrate(ctx context.Context) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return errors.Wrap(err, "migrations")
	}

	provider, err := goose.NewProvider(d.dialect(), d.DB.DB, fsys)
	if err != nil {
		return errors.Wrap(err, "create migration provider")
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return errors.Wrap(err, "apply migrations")
	}
	for _, r := range results {
		slog.Info("migration applied",
			"version", r.Source.Version,
			"path", r.Source.Path,
			"duration", r.Duration,
		)
	}
	return nil
}
