package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-faster/errors"

	"github.com/JonMunkholm/fundingdata/internal/store"
)

// Retry defaults.
const (
	DefaultMaxAttempts = 5
	DefaultRetryDelay  = 600 * time.Millisecond
)

// retryPolicy bounds the transactional retry shell.
type retryPolicy struct {
	maxAttempts int
	delay       time.Duration
}

// inRetryingTx runs fn in a fresh transaction per attempt. Only unique and
// foreign key violations (two ingests racing for the same submission code or
// dimension row) are retried, after a fixed delay. Check violations fail on
// the first attempt. Any other error, and the last
// integrity error once attempts run out, is returned as is.
func (p retryPolicy) inRetryingTx(ctx context.Context, db *store.DB, fn func(ctx context.Context, tx *store.Tx, attempt int) error) error {
	attempts := max(p.maxAttempts, 1)
	attempt := 0

	op := func() error {
		attempt++
		err := db.InTx(ctx, func(ctx context.Context, tx *store.Tx) error {
			return fn(ctx, tx, attempt)
		})
		if err == nil || store.IsIntegrityViolation(err) {
			return err
		}
		if store.IsCheckViolation(err) {
			err = errors.Wrap(err, "row rejected by check constraint")
		}
		return backoff.Permanent(err)
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(p.delay), uint64(attempts-1)),
		ctx,
	)
	notify := func(err error, wait time.Duration) {
		slog.WarnContext(ctx, "load conflict, retrying",
			"attempt", attempt,
			"max_attempts", attempts,
			"wait", wait,
			"error", err,
		)
	}

	err := backoff.RetryNotify(op, b, notify)
	if err != nil && store.IsIntegrityViolation(err) {
		return errors.Wrapf(err, "load failed after %d attempts", attempt)
	}
	return err
}
