package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/fundingdata/internal/store"
	"github.com/JonMunkholm/fundingdata/internal/store/storetest"
)

func TestNextSequence(t *testing.T) {
	tests := []struct {
		name  string
		codes []string
		want  int
	}{
		{"no submissions", nil, 1},
		{"two existing", []string{"S-R01-1", "S-R01-2"}, 3},
		{"numeric not lexical", []string{"S-R01-9", "S-R01-10"}, 11},
		{"gaps are not filled", []string{"S-R02-1", "S-R02-4"}, 5},
		{"unparseable ignored", []string{"legacy", "S-R01-x", "S-R01-2"}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := store.NextSequence(tt.codes); got != tt.want {
				t.Errorf("NextSequence(%v) = %d, want %d", tt.codes, got, tt.want)
			}
		})
	}
}

func TestSubmissionCode(t *testing.T) {
	if got := store.SubmissionCode(1, 3); got != "S-R01-3" {
		t.Errorf("SubmissionCode(1, 3) = %q, want S-R01-3", got)
	}
	if got := store.SubmissionCode(12, 1); got != "S-R12-1" {
		t.Errorf("SubmissionCode(12, 1) = %q, want S-R12-1", got)
	}
}

func TestIsIntegrityViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"unique", &pgconn.PgError{Code: "23505"}, true},
		{"foreign key", &pgconn.PgError{Code: "23503"}, true},
		{"check", &pgconn.PgError{Code: "23514"}, false},
		{"undefined table", &pgconn.PgError{Code: "42P01"}, false},
		{"plain", errors.New("boom"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := store.IsIntegrityViolation(tt.err); got != tt.want {
				t.Errorf("IsIntegrityViolation(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestSQLiteConstraintClassification(t *testing.T) {
	db := storetest.New(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `CREATE TABLE constrained (n INTEGER UNIQUE CHECK (n > 0))`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO constrained (n) VALUES (1)`)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `INSERT INTO constrained (n) VALUES (1)`)
	require.Error(t, err)
	assert.True(t, store.IsIntegrityViolation(err), "unique: %v", err)
	assert.False(t, store.IsCheckViolation(err))

	_, err = db.ExecContext(ctx, `INSERT INTO constrained (n) VALUES (-1)`)
	require.Error(t, err)
	assert.False(t, store.IsIntegrityViolation(err), "check: %v", err)
	assert.True(t, store.IsCheckViolation(err))
}

// seed writes one submission for programme "P-1" in round with two projects,
// each with a progress row.
func seed(t *testing.T, db *store.DB, subID, code string, round int) {
	t.Helper()
	ctx := context.Background()

	err := db.InTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		require.NoError(t, tx.Insert(ctx, "submission_dim",
			[]string{"id", "submission_id", "reporting_round", "reporting_period_start", "reporting_period_end"},
			[]any{subID, code, round, "2022-04-01", "2022-09-30"}))

		progID, err := tx.ProgrammeID(ctx, "P-1")
		if errors.Is(err, store.ErrNotFound) {
			progID = "prog"
			require.NoError(t, tx.Insert(ctx, "organisation_dim", []string{"id", "organisation_name"}, []any{"org", "Council"}))
			require.NoError(t, tx.Insert(ctx, "programme_dim",
				[]string{"id", "programme_id", "programme_name", "fund_type_id", "organisation_id"},
				[]any{progID, "P-1", "Programme", "TD", "org"}))
		}

		link := subID + "-link"
		require.NoError(t, tx.Insert(ctx, "programme_junction",
			[]string{"id", "submission_id", "programme_id", "reporting_round"},
			[]any{link, subID, progID, round}))

		for _, p := range []string{"a", "b"} {
			projectID := subID + "-" + p
			require.NoError(t, tx.Insert(ctx, "project_dim",
				[]string{"id", "project_id", "project_name", "primary_intervention_theme", "location_multiplicity", "locations", "programme_junction_id"},
				[]any{projectID, "P-1-" + p, "Project", "Transport", "Single", "Town", link}))
			require.NoError(t, tx.Insert(ctx, "project_progress",
				[]string{"id", "project_id", "start_date", "end_date", "delivery_status", "delivery_rag", "spend_rag", "risk_rag", "programme_junction_id"},
				[]any{projectID + "-progress", projectID, "2022-04-01", "2023-03-31", "Completed", "Green", "Green", "Green", link}))
		}
		return nil
	})
	require.NoError(t, err)
}

func count(t *testing.T, db *store.DB, table string) int {
	t.Helper()
	n, err := db.CountRows(context.Background(), table)
	require.NoError(t, err)
	return n
}

func TestDeleteSubmissionCascades(t *testing.T) {
	db := storetest.New(t)
	ctx := context.Background()

	seed(t, db, "s1", "S-R01-1", 1)
	seed(t, db, "s2", "S-R02-1", 2)
	require.Equal(t, 4, count(t, db, "project_progress"))

	err := db.InTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		sub, err := tx.SubmissionFor(ctx, "P-1", 1)
		if err != nil {
			return err
		}
		assert.Equal(t, "S-R01-1", sub.Code)
		return tx.DeleteSubmission(ctx, sub.ID)
	})
	require.NoError(t, err)

	assert.Equal(t, 1, count(t, db, "submission_dim"))
	assert.Equal(t, 1, count(t, db, "programme_junction"))
	assert.Equal(t, 2, count(t, db, "project_dim"))
	assert.Equal(t, 2, count(t, db, "project_progress"))
	assert.Equal(t, 1, count(t, db, "programme_dim"), "programmes outlive their submissions")
}

func TestRoundQueries(t *testing.T) {
	db := storetest.New(t)
	ctx := context.Background()

	seed(t, db, "s1", "S-R01-1", 1)
	seed(t, db, "s3", "S-R03-1", 3)

	err := db.InTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		id, err := tx.ProgrammeID(ctx, "P-1")
		require.NoError(t, err)

		latest, err := tx.LatestRound(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 3, latest)

		codes, err := tx.SubmissionCodes(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, []string{"S-R01-1"}, codes)

		_, err = tx.SubmissionFor(ctx, "P-1", 2)
		assert.ErrorIs(t, err, store.ErrNotFound)
		return nil
	})
	require.NoError(t, err)
}

func TestSubmissionByCode(t *testing.T) {
	db := storetest.New(t)
	ctx := context.Background()
	seed(t, db, "s1", "S-R01-1", 1)

	rec, err := db.SubmissionByCode(ctx, "S-R01-1")
	require.NoError(t, err)
	assert.Equal(t, store.SubmissionRecord{
		ID: "s1", Code: "S-R01-1", Round: 1, ProgrammeCode: "P-1", FundType: "TD",
	}, rec)

	_, err = db.SubmissionByCode(ctx, "S-R09-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestConstraintViolationsAreIntegrityErrors(t *testing.T) {
	db := storetest.New(t)
	ctx := context.Background()

	seed(t, db, "s1", "S-R01-1", 1)

	err := db.InTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		return tx.Insert(ctx, "submission_dim",
			[]string{"id", "submission_id", "reporting_round", "reporting_period_start", "reporting_period_end"},
			[]any{"s9", "S-R01-1", 1, "2022-04-01", "2022-09-30"})
	})
	require.Error(t, err)
	assert.True(t, store.IsIntegrityViolation(err), "duplicate code: %v", err)

	err = db.InTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		return tx.Insert(ctx, "programme_junction",
			[]string{"id", "submission_id", "programme_id", "reporting_round"},
			[]any{"j9", "missing", "prog", 1})
	})
	require.Error(t, err)
	assert.True(t, store.IsIntegrityViolation(err), "dangling reference: %v", err)

	assert.Equal(t, 1, count(t, db, "submission_dim"), "failed transactions leave nothing behind")
}

func TestSweepOrganisations(t *testing.T) {
	db := storetest.New(t)
	ctx := context.Background()

	seed(t, db, "s1", "S-R01-1", 1)

	var swept int64
	err := db.InTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		if err := tx.Insert(ctx, "organisation_dim", []string{"id", "organisation_name"}, []any{"old", "Former Council"}); err != nil {
			return err
		}
		var err error
		swept, err = tx.SweepOrganisations(ctx)
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), swept)
	assert.Equal(t, 1, count(t, db, "organisation_dim"))
}
