package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
)

// Insert writes one row.
func (t *Tx) Insert(ctx context.Context, table string, columns []string, values []any) error {
	if len(columns) != len(values) {
		return errors.Errorf("insert %s: %d columns, %d values", table, len(columns), len(values))
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), placeholders(len(columns)))
	if _, err := t.ExecContext(ctx, t.Rebind(q), values...); err != nil {
		return errors.Wrapf(err, "insert %s", table)
	}
	return nil
}

// Update overwrites the given columns of the row with surrogate key id.
func (t *Tx) Update(ctx context.Context, table, id string, columns []string, values []any) error {
	if len(columns) != len(values) {
		return errors.Errorf("update %s: %d columns, %d values", table, len(columns), len(values))
	}
	sets := make([]string, len(columns))
	for i, c := range columns {
		sets[i] = c + " = ?"
	}
	q := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", table, strings.Join(sets, ", "))
	args := append(append([]any(nil), values...), id)
	if _, err := t.ExecContext(ctx, t.Rebind(q), args...); err != nil {
		return errors.Wrapf(err, "update %s", table)
	}
	return nil
}

// LookupID returns the surrogate key of the row whose columns equal values.
// It returns ErrNotFound when no row matches.
func (t *Tx) LookupID(ctx context.Context, table string, columns []string, values []any) (string, error) {
	where := make([]string, len(columns))
	for i, c := range columns {
		where[i] = c + " = ?"
	}
	q := fmt.Sprintf("SELECT id FROM %s WHERE %s", table, strings.Join(where, " AND "))

	var id string
	err := t.GetContext(ctx, &id, t.Rebind(q), values...)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", errors.Wrapf(err, "lookup %s", table)
	}
	return id, nil
}

// Submission identifies a persisted submission.
type Submission struct {
	ID   string `db:"id"`
	Code string `db:"submission_id"`
}

// SubmissionFor returns the submission already holding programmeCode for
// round, or ErrNotFound.
func (t *Tx) SubmissionFor(ctx context.Context, programmeCode string, round int) (Submission, error) {
	const q = `
		SELECT s.id, s.submission_id
		FROM submission_dim s
		JOIN programme_junction j ON j.submission_id = s.id
		JOIN programme_dim p ON p.id = j.programme_id
		WHERE p.programme_id = ? AND j.reporting_round = ?`

	var s Submission
	err := t.GetContext(ctx, &s, t.Rebind(q), programmeCode, round)
	if errors.Is(err, sql.ErrNoRows) {
		return Submission{}, ErrNotFound
	}
	if err != nil {
		return Submission{}, errors.Wrap(err, "find submission")
	}
	return s, nil
}

// DeleteSubmission removes a submission. Its round link and every detail row
// go with it through ON DELETE CASCADE.
func (t *Tx) DeleteSubmission(ctx context.Context, id string) error {
	if _, err := t.ExecContext(ctx, t.Rebind(`DELETE FROM submission_dim WHERE id = ?`), id); err != nil {
		return errors.Wrap(err, "delete submission")
	}
	return nil
}

// SubmissionCodes returns every submission code recorded for round.
func (t *Tx) SubmissionCodes(ctx context.Context, round int) ([]string, error) {
	var codes []string
	q := t.Rebind(`SELECT submission_id FROM submission_dim WHERE reporting_round = ?`)
	if err := t.SelectContext(ctx, &codes, q, round); err != nil {
		return nil, errors.Wrap(err, "list submission codes")
	}
	return codes, nil
}

// ProgrammeID returns the surrogate key of the programme with the given
// business code, or ErrNotFound.
func (t *Tx) ProgrammeID(ctx context.Context, code string) (string, error) {
	return t.LookupID(ctx, "programme_dim", []string{"programme_id"}, []any{code})
}

// LatestRound returns the newest round the programme has been reported in,
// or 0 when it has no round links.
func (t *Tx) LatestRound(ctx context.Context, programmeID string) (int, error) {
	var latest sql.NullInt64
	q := t.Rebind(`SELECT MAX(reporting_round) FROM programme_junction WHERE programme_id = ?`)
	if err := t.GetContext(ctx, &latest, q, programmeID); err != nil {
		return 0, errors.Wrap(err, "latest round")
	}
	return int(latest.Int64), nil
}

// SweepOrganisations deletes organisations no programme references.
func (t *Tx) SweepOrganisations(ctx context.Context) (int64, error) {
	const q = `
		DELETE FROM organisation_dim
		WHERE id NOT IN (
			SELECT organisation_id FROM programme_dim WHERE organisation_id IS NOT NULL
		)`
	res, err := t.ExecContext(ctx, q)
	if err != nil {
		return 0, errors.Wrap(err, "sweep organisations")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "sweep organisations")
	}
	return n, nil
}

// CountRows returns the number of rows in table.
func (d *DB) CountRows(ctx context.Context, table string) (int, error) {
	var n int
	if err := d.GetContext(ctx, &n, "SELECT COUNT(*) FROM "+table); err != nil {
		return 0, errors.Wrapf(err, "count %s", table)
	}
	return n, nil
}

// Programme is a persisted programme row.
type Programme struct {
	ID             string `db:"id"`
	Code           string `db:"programme_id"`
	Name           string `db:"programme_name"`
	FundType       string `db:"fund_type_id"`
	OrganisationID string `db:"organisation_id"`
}

// ProgrammeByCode reads a programme by business code.
func (d *DB) ProgrammeByCode(ctx context.Context, code string) (Programme, error) {
	var p Programme
	q := d.Rebind(`SELECT id, programme_id, programme_name, fund_type_id, organisation_id FROM programme_dim WHERE programme_id = ?`)
	err := d.GetContext(ctx, &p, q, code)
	if errors.Is(err, sql.ErrNoRows) {
		return Programme{}, ErrNotFound
	}
	if err != nil {
		return Programme{}, errors.Wrap(err, "read programme")
	}
	return p, nil
}

// RoundSubmission is a submission with the programme and round it reports.
type RoundSubmission struct {
	ID            string `db:"id"`
	Code          string `db:"submission_id"`
	Round         int    `db:"reporting_round"`
	ProgrammeCode string `db:"programme_id"`
	RoundLinkID   string `db:"programme_junction_id"`
}

// Submissions lists every submission with its programme code, ordered by
// round and code.
func (d *DB) Submissions(ctx context.Context) ([]RoundSubmission, error) {
	const q = `
		SELECT s.id, s.submission_id, j.reporting_round, p.programme_id, j.id AS programme_junction_id
		FROM submission_dim s
		JOIN programme_junction j ON j.submission_id = s.id
		JOIN programme_dim p ON p.id = j.programme_id
		ORDER BY j.reporting_round, s.submission_id`

	var out []RoundSubmission
	if err := d.SelectContext(ctx, &out, q); err != nil {
		return nil, errors.Wrap(err, "list submissions")
	}
	return out, nil
}

// SubmissionRecord is a submission with the details needed to find its
// stored file and replay it.
type SubmissionRecord struct {
	ID            string `db:"id"`
	Code          string `db:"submission_id"`
	Round         int    `db:"reporting_round"`
	Filename      string `db:"submission_filename"`
	AccountID     string `db:"submitting_account_id"`
	UserEmail     string `db:"submitting_user_email"`
	ProgrammeCode string `db:"programme_id"`
	FundType      string `db:"fund_type_id"`
}

// SubmissionByCode reads a submission by business code, or ErrNotFound.
func (d *DB) SubmissionByCode(ctx context.Context, code string) (SubmissionRecord, error) {
	const q = `
		SELECT s.id, s.submission_id, s.reporting_round,
		       COALESCE(s.submission_filename, '') AS submission_filename,
		       COALESCE(s.submitting_account_id, '') AS submitting_account_id,
		       COALESCE(s.submitting_user_email, '') AS submitting_user_email,
		       p.programme_id, p.fund_type_id
		FROM submission_dim s
		JOIN programme_junction j ON j.submission_id = s.id
		JOIN programme_dim p ON p.id = j.programme_id
		WHERE s.submission_id = ?`

	var rec SubmissionRecord
	err := d.GetContext(ctx, &rec, d.Rebind(q), code)
	if errors.Is(err, sql.ErrNoRows) {
		return SubmissionRecord{}, ErrNotFound
	}
	if err != nil {
		return SubmissionRecord{}, errors.Wrap(err, "read submission")
	}
	return rec, nil
}

// CountForRoundLink returns how many rows of table hang off a round link.
func (d *DB) CountForRoundLink(ctx context.Context, table, roundLinkID string) (int, error) {
	var n int
	q := d.Rebind("SELECT COUNT(*) FROM " + table + " WHERE programme_junction_id = ?")
	if err := d.GetContext(ctx, &n, q, roundLinkID); err != nil {
		return 0, errors.Wrapf(err, "count %s", table)
	}
	return n, nil
}

// NextSequence returns the sequence number following the highest one among
// codes of the form S-R{round}-{sequence}. Codes that do not parse are
// ignored.
func NextSequence(codes []string) int {
	highest := 0
	for _, c := range codes {
		i := strings.LastIndex(c, "-")
		if i < 0 {
			continue
		}
		n, err := strconv.Atoi(c[i+1:])
		if err != nil {
			continue
		}
		highest = max(highest, n)
	}
	return highest + 1
}

// SubmissionCode formats a submission business code.
func SubmissionCode(round, sequence int) string {
	return fmt.Sprintf("S-R%02d-%d", round, sequence)
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
