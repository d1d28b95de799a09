package ingest

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/JonMunkholm/fundingdata/internal/blob"
	"github.com/JonMunkholm/fundingdata/internal/logging"
	"github.com/JonMunkholm/fundingdata/internal/store"
	"github.com/JonMunkholm/fundingdata/internal/workbook"
)

var (
	// ErrSubmissionNotFound means no submission has the requested code.
	ErrSubmissionNotFound = errors.New("submission not found")

	// ErrFileNotFound means the submission exists but its original file
	// was never stored or has been removed.
	ErrFileNotFound = errors.New("submitted file not found")

	errNoDatabase = errors.New("no database configured")
)

// SubmissionFile returns the original workbook of the submission with the
// given business code, as stored when it was loaded.
func (s *Service) SubmissionFile(ctx context.Context, code string) (blob.Object, error) {
	obj, _, err := s.submittedFile(ctx, code)
	return obj, err
}

func (s *Service) submittedFile(ctx context.Context, code string) (blob.Object, store.SubmissionRecord, error) {
	if s.db == nil {
		return blob.Object{}, store.SubmissionRecord{}, errNoDatabase
	}
	rec, err := s.db.SubmissionByCode(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return blob.Object{}, rec, errors.Wrap(ErrSubmissionNotFound, code)
	}
	if err != nil {
		return blob.Object{}, rec, err
	}

	obj, err := s.files.Get(ctx, blob.ObjectKey(rec.FundType, rec.ID))
	if errors.Is(err, blob.ErrNotFound) {
		return blob.Object{}, rec, errors.Wrap(ErrFileNotFound, code)
	}
	if err != nil {
		return blob.Object{}, rec, errors.Wrapf(err, "read file of %s", code)
	}
	return obj, rec, nil
}

// Reingest loads the stored original of a submission again, for example
// after a schema or transformation fix. The submitter's account and email
// are kept. Reingesting replaces the submission for its programme and
// round, so the business code is reused.
func (s *Service) Reingest(ctx context.Context, code string) (*Result, error) {
	obj, rec, err := s.submittedFile(ctx, code)
	if err != nil {
		return nil, err
	}
	wb, err := workbook.ParseBytes(obj.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "parse stored file of %s", code)
	}

	filename := rec.Filename
	if filename == "" {
		filename = obj.Metadata[blob.MetaFilename]
	}
	logging.WithFields(ctx, "submission", code, "round", rec.Round).InfoContext(ctx, "reingesting submission")

	return s.Ingest(ctx, Request{
		Round:     rec.Round,
		Fund:      rec.FundType,
		Workbook:  wb,
		File:      obj.Body,
		Filename:  filename,
		DoLoad:    true,
		AccountID: rec.AccountID,
		UserEmail: rec.UserEmail,
	})
}
