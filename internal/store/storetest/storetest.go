// Package storetest opens migrated in-memory databases for tests.
package storetest

import (
	"context"
	"testing"

	"github.com/JonMunkholm/fundingdata/internal/store"
)

// New returns a fresh, migrated in-memory SQLite store that is closed when
// the test ends.
func New(t testing.TB) *store.DB {
	t.Helper()
	ctx := context.Background()

	db, err := store.Open(ctx, store.Options{Driver: store.DriverSQLite, DSN: ":memory:"})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
