// Package admin provides administrative operations for database management.
package admin

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-faster/errors"

	"github.com/JonMunkholm/fundingdata/internal/schema"
	"github.com/JonMunkholm/fundingdata/internal/store"
)

// ResetTimeout is the maximum duration for database reset operations.
const ResetTimeout = 30 * time.Second

// Reset empties every table in reg. This is destructive: all submissions are
// lost.
type Reset struct {
	DB       *store.DB
	Registry *schema.Registry
}

// All deletes every row in one transaction, children before parents, and
// returns the number of rows removed per table.
func (r *Reset) All(ctx context.Context) (map[string]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, ResetTimeout)
	defer cancel()

	tables := r.Registry.Tables()
	removed := make(map[string]int64, len(tables))

	err := r.DB.InTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		for i := len(tables) - 1; i >= 0; i-- {
			table := tables[i].DBTable
			res, err := tx.ExecContext(ctx, "DELETE FROM "+table)
			if err != nil {
				return errors.Wrapf(err, "reset %s", table)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return errors.Wrapf(err, "reset %s", table)
			}
			removed[table] = n
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Warn("database reset", "tables", len(tables))
	return removed, nil
}
