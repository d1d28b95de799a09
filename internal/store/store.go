// Package store is the relational persistence layer for ingested
// submissions. It runs on Postgres (through the pgx database/sql driver) or
// SQLite (modernc, pure Go), with the same schema migrations for both.
//
// Queries are written with ? placeholders and rebound for the active
// driver. Table and column names always come from the schema registry,
// never from submitted data.
package store

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // registers "sqlite"
)

// Supported drivers.
const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
)

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Options configure Open.
type Options struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DB is an open store.
type DB struct {
	*sqlx.DB
}

// Open connects to the database and verifies the connection.
func Open(ctx context.Context, opts Options) (*DB, error) {
	dsn := opts.DSN
	switch opts.Driver {
	case DriverPostgres:
	case DriverSQLite:
		dsn = sqliteDSN(dsn)
	default:
		return nil, errors.Errorf("unsupported database driver %q", opts.Driver)
	}

	db, err := sqlx.Open(opts.Driver, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}

	if opts.Driver == DriverSQLite {
		// One writer; in-memory databases also live and die with their
		// connection.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		if opts.MaxOpenConns > 0 {
			db.SetMaxOpenConns(opts.MaxOpenConns)
		}
		if opts.MaxIdleConns > 0 {
			db.SetMaxIdleConns(opts.MaxIdleConns)
		}
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "ping database")
	}
	return &DB{DB: db}, nil
}

// sqliteDSN turns on foreign key enforcement, which SQLite leaves off by
// default, and waits on locks instead of failing immediately.
func sqliteDSN(dsn string) string {
	if dsn == "" {
		dsn = ":memory:"
	}
	var add []string
	if !strings.Contains(dsn, "foreign_keys") {
		add = append(add, "_pragma=foreign_keys(1)")
	}
	if !strings.Contains(dsn, "busy_timeout") {
		add = append(add, "_pragma=busy_timeout(5000)")
	}
	if len(add) == 0 {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(add, "&")
}

// Tx is a unit of work. Everything one ingest writes goes through a single
// Tx.
type Tx struct {
	*sqlx.Tx
}

// InTx runs fn in a transaction, committing when fn returns nil and rolling
// back otherwise. Errors keep their cause so callers can classify them with
// IsIntegrityViolation.
func (d *DB) InTx(ctx context.Context, fn func(ctx context.Context, tx *Tx) error) (err error) {
	tx, err := d.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(ctx, &Tx{Tx: tx}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "commit transaction")
	}
	return nil
}

// Healthy pings the database.
func (d *DB) Healthy(ctx context.Context) error {
	return d.PingContext(ctx)
}
