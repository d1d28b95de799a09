package ingest

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/JonMunkholm/fundingdata/internal/schema"
	"github.com/JonMunkholm/fundingdata/internal/schema/tables"
	"github.com/JonMunkholm/fundingdata/internal/store"
	"github.com/JonMunkholm/fundingdata/internal/tabular"
)

// State is what the controller found for a (programme, round) pair before
// loading.
type State int

const (
	// StateNew: the programme has never been loaded.
	StateNew State = iota
	// StateOlderRound: the programme was last seen in an earlier round and
	// is merged in place.
	StateOlderRound
	// StateSameRound: the programme already has a submission for this round.
	// That submission is deleted with its detail rows and its code reused.
	StateSameRound
	// StateNewerRound: the programme already appears in a later round and is
	// left untouched.
	StateNewerRound
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateOlderRound:
		return "older_round"
	case StateSameRound:
		return "same_round"
	case StateNewerRound:
		return "newer_round"
	default:
		return "unknown"
	}
}

// submissionMeta is the submission-level data the loader injects.
type submissionMeta struct {
	Filename  string
	AccountID string
	UserEmail string
	IngestAt  time.Time
}

// outcome is what one successful load attempt wrote.
type outcome struct {
	State          State
	SubmissionID   string
	SubmissionCode string
	ProgrammeID    string
	Created        map[string]int
	Merged         map[string]int
	Swept          int64
}

// controller runs one load attempt inside tx: decide the programme's state,
// clear any submission this ingest replaces, allocate the submission code,
// load every table, then reap orphaned organisations. Everything is
// recomputed from the database on every attempt.
type controller struct {
	reg *schema.Registry
}

func (c controller) run(ctx context.Context, tx *store.Tx, set tabular.Set, round int, meta submissionMeta) (*outcome, error) {
	code, err := programmeCode(set)
	if err != nil {
		return nil, err
	}

	state, existing, err := c.decide(ctx, tx, code, round)
	if err != nil {
		return nil, err
	}

	var submissionCode string
	if state == StateSameRound {
		if err := tx.DeleteSubmission(ctx, existing.ID); err != nil {
			return nil, err
		}
		submissionCode = existing.Code
	} else {
		codes, err := tx.SubmissionCodes(ctx, round)
		if err != nil {
			return nil, err
		}
		submissionCode = store.SubmissionCode(round, store.NextSequence(codes))
	}

	l := newLoader(c.reg, tx, round, map[string]string{
		"Submission ID":         submissionCode,
		"Ingest Date":           meta.IngestAt.Format(time.DateOnly),
		"Submission Filename":   meta.Filename,
		"Submitting Account ID": meta.AccountID,
		"Submitting User Email": meta.UserEmail,
	})
	if err := l.load(ctx, set); err != nil {
		return nil, err
	}

	// Organisations are swept only once every table is loaded, so none
	// disappears while a later table still resolves against it.
	swept, err := tx.SweepOrganisations(ctx)
	if err != nil {
		return nil, err
	}

	return &outcome{
		State:          state,
		SubmissionID:   l.submissionID,
		SubmissionCode: submissionCode,
		ProgrammeID:    l.programmeID,
		Created:        l.created,
		Merged:         l.merged,
		Swept:          swept,
	}, nil
}

// decide classifies the programme against what is already stored.
func (c controller) decide(ctx context.Context, tx *store.Tx, code string, round int) (State, store.Submission, error) {
	progID, err := tx.ProgrammeID(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return StateNew, store.Submission{}, nil
	}
	if err != nil {
		return 0, store.Submission{}, err
	}

	existing, err := tx.SubmissionFor(ctx, code, round)
	switch {
	case err == nil:
		return StateSameRound, existing, nil
	case !errors.Is(err, store.ErrNotFound):
		return 0, store.Submission{}, err
	}

	latest, err := tx.LatestRound(ctx, progID)
	if err != nil {
		return 0, store.Submission{}, err
	}
	if latest > round {
		return StateNewerRound, store.Submission{}, nil
	}
	return StateOlderRound, store.Submission{}, nil
}

// programmeCode reads the business code of the programme being submitted.
func programmeCode(set tabular.Set) (string, error) {
	t, ok := set[tables.ProgrammeRef]
	if !ok || t.Len() != 1 {
		return "", &MappingError{Table: tables.ProgrammeRef, Reason: "expected exactly one programme"}
	}
	code := schema.CleanCell(t.Value(0, tables.ColProgrammeID))
	if code == "" {
		return "", &MappingError{Table: tables.ProgrammeRef, Column: tables.ColProgrammeID, Reason: "blank programme code"}
	}
	return code, nil
}
