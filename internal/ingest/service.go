package ingest

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/JonMunkholm/fundingdata/internal/blob"
	"github.com/JonMunkholm/fundingdata/internal/logging"
	"github.com/JonMunkholm/fundingdata/internal/metrics"
	"github.com/JonMunkholm/fundingdata/internal/precheck"
	"github.com/JonMunkholm/fundingdata/internal/refdata"
	"github.com/JonMunkholm/fundingdata/internal/schema"
	"github.com/JonMunkholm/fundingdata/internal/schema/tables"
	"github.com/JonMunkholm/fundingdata/internal/store"
	"github.com/JonMunkholm/fundingdata/internal/tabular"
	"github.com/JonMunkholm/fundingdata/internal/transform"
	"github.com/JonMunkholm/fundingdata/internal/validate"
	"github.com/JonMunkholm/fundingdata/internal/workbook"
)

var tracer = otel.Tracer("github.com/JonMunkholm/fundingdata/internal/ingest")

// Request is one submission.
type Request struct {
	Round    int
	Fund     string // fund code, template label or name; optional
	Workbook workbook.Workbook
	File     []byte // original upload, stored after a load
	Filename string

	// Claims limit what the caller may submit. Nil skips authorisation.
	Claims *precheck.Claims

	// DoLoad false validates without touching the database.
	DoLoad bool

	AccountID string
	UserEmail string
}

// Result describes a submission that passed validation.
type Result struct {
	Loaded bool `json:"loaded"`

	SubmissionID   string `json:"submission_id,omitempty"`
	SubmissionCode string `json:"submission_code,omitempty"`
	ReusedCode     bool   `json:"reused_code,omitempty"`
	State          string `json:"state,omitempty"`

	ProgrammeID   string `json:"programme_id"`
	ProgrammeName string `json:"programme_name"`
	FundType      string `json:"fund_type"`
	Organisation  string `json:"organisation"`
	Round         int    `json:"reporting_round"`

	Created map[string]int `json:"created,omitempty"`
	Merged  map[string]int `json:"merged,omitempty"`
}

// Options configure a Service. Zero values take defaults.
type Options struct {
	Registry  *schema.Registry
	Reference *refdata.Data

	Files   blob.Store // originals of loaded submissions
	Failed  blob.Store // originals of submissions that failed to load
	Metrics metrics.Recorder

	MaxAttempts int
	RetryDelay  time.Duration

	Now func() time.Time
}

// Service runs ingests.
type Service struct {
	db      *store.DB
	reg     *schema.Registry
	ref     *refdata.Data
	rounds  *transform.Rounds
	files   blob.Store
	failed  blob.Store
	metrics metrics.Recorder
	retry   retryPolicy
	now     func() time.Time
}

// New builds a Service over db. db may be nil for a service that only
// validates.
func New(db *store.DB, opts Options) (*Service, error) {
	reg := opts.Registry
	if reg == nil {
		var err error
		if reg, err = schema.Default(); err != nil {
			return nil, errors.Wrap(err, "compile schema registry")
		}
	}
	ref := opts.Reference
	if ref == nil {
		var err error
		if ref, err = refdata.Default(); err != nil {
			return nil, errors.Wrap(err, "load reference data")
		}
	}
	rounds, err := transform.NewRounds(reg, ref)
	if err != nil {
		return nil, err
	}

	s := &Service{
		db:      db,
		reg:     reg,
		ref:     ref,
		rounds:  rounds,
		files:   opts.Files,
		failed:  opts.Failed,
		metrics: opts.Metrics,
		retry: retryPolicy{
			maxAttempts: opts.MaxAttempts,
			delay:       opts.RetryDelay,
		},
		now: opts.Now,
	}
	if s.files == nil {
		s.files = blob.NewMemory()
	}
	if s.failed == nil {
		s.failed = blob.NewMemory()
	}
	if s.metrics == nil {
		s.metrics = metrics.Nop{}
	}
	if s.retry.maxAttempts <= 0 {
		s.retry.maxAttempts = DefaultMaxAttempts
	}
	if s.retry.delay <= 0 {
		s.retry.delay = DefaultRetryDelay
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// Rounds returns the supported reporting rounds.
func (s *Service) Rounds() []int {
	return s.rounds.Supported()
}

// Registry returns the schema registry the service loads against.
func (s *Service) Registry() *schema.Registry {
	return s.reg
}

// Ingest runs req through the pipeline. On success the Result says whether
// data was persisted. Errors are *precheck.Error, *ValidationError,
// *InternalError or the context's error.
func (s *Service) Ingest(ctx context.Context, req Request) (res *Result, err error) {
	ctx, span := tracer.Start(ctx, "ingest.Ingest", trace.WithAttributes(
		attribute.Int("ingest.round", req.Round),
		attribute.Bool("ingest.do_load", req.DoLoad),
		attribute.String("ingest.filename", req.Filename),
	))
	defer span.End()

	log := logging.WithFields(ctx, "round", req.Round, "filename", req.Filename)
	labels := metrics.Labels{Fund: s.fundCode(req.Fund), Round: req.Round}

	defer func() {
		s.metrics.SubmissionReceived(labels)
		s.metrics.IngestResult(labels, resultOf(err))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	set, err := s.prepare(ctx, req)
	if set != nil {
		labels = s.labels(set, req.Round)
	}
	if err != nil {
		var vErr *ValidationError
		if errors.As(err, &vErr) {
			types := make([]string, len(vErr.Failures))
			for i, f := range vErr.Failures {
				types[i] = string(f.ErrorType)
			}
			s.metrics.ValidationFailures(labels, types)
		}
		return nil, s.classify(ctx, log, req, err)
	}

	res = s.describe(set, req.Round)
	if !req.DoLoad {
		log.InfoContext(ctx, "submission validated", "programme", res.ProgrammeID, "loaded", false)
		return res, nil
	}
	if s.db == nil {
		return nil, s.classify(ctx, log, req, errNoDatabase)
	}

	out, err := s.load(ctx, set, req)
	if err != nil {
		return nil, s.classify(ctx, log, req, err)
	}

	res.Loaded = true
	res.SubmissionID = out.SubmissionID
	res.SubmissionCode = out.SubmissionCode
	res.ReusedCode = out.State == StateSameRound
	res.State = out.State.String()
	res.Created = out.Created
	res.Merged = out.Merged

	if err := s.store(ctx, res, req); err != nil {
		return nil, s.classify(ctx, log, req, err)
	}

	span.SetAttributes(
		attribute.String("ingest.submission_code", res.SubmissionCode),
		attribute.String("ingest.state", res.State),
	)
	log.InfoContext(ctx, "submission ingested",
		"programme", res.ProgrammeID,
		"submission", res.SubmissionCode,
		"state", res.State,
		"organisations_swept", out.Swept,
	)
	return res, nil
}

// Check runs the checks, transformation and validation without loading.
func (s *Service) Check(ctx context.Context, req Request) (*Result, error) {
	req.DoLoad = false
	return s.Ingest(ctx, req)
}

// prepare runs everything up to and including validation. The returned set
// is non-nil once transformation succeeded, even when validation failed.
func (s *Service) prepare(ctx context.Context, req Request) (tabular.Set, error) {
	t, err := s.rounds.For(req.Round)
	if errors.Is(err, transform.ErrUnsupportedRound) {
		return nil, precheck.Fail(unsupportedRoundMessage(req.Round))
	}
	if err != nil {
		return nil, err
	}

	if req.Fund != "" && s.fundCode(req.Fund) == "" {
		return nil, precheck.Fail(unknownFundMessage(req.Fund))
	}

	_, span := tracer.Start(ctx, "ingest.precheck")
	err = precheck.Run(req.Workbook, t.Checks(), req.Claims)
	span.End()
	if err != nil {
		return nil, err
	}

	_, span = tracer.Start(ctx, "ingest.transform")
	set, err := t.Transform(req.Workbook)
	span.End()
	if err != nil {
		return nil, err
	}

	if req.Fund != "" {
		if got := s.describe(set, req.Round).FundType; got != s.fundCode(req.Fund) {
			return set, precheck.Fail(fundMismatchMessage(req.Fund))
		}
	}

	_, span = tracer.Start(ctx, "ingest.validate")
	failures := validate.Validate(s.reg, set)
	failures = append(failures, t.Validate(set)...)
	span.SetAttributes(attribute.Int("ingest.validation_failures", len(failures)))
	span.End()
	if len(failures) > 0 {
		return set, &ValidationError{Failures: failures}
	}
	return set, nil
}

// load runs the controller inside the retry shell.
func (s *Service) load(ctx context.Context, set tabular.Set, req Request) (*outcome, error) {
	c := controller{reg: s.reg}
	meta := submissionMeta{
		Filename:  req.Filename,
		AccountID: req.AccountID,
		UserEmail: req.UserEmail,
		IngestAt:  s.now(),
	}

	var out *outcome
	err := s.retry.inRetryingTx(ctx, s.db, func(ctx context.Context, tx *store.Tx, attempt int) error {
		ctx, span := tracer.Start(ctx, "ingest.load", trace.WithAttributes(attribute.Int("ingest.attempt", attempt)))
		defer span.End()

		o, err := c.run(ctx, tx, set, req.Round, meta)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// store files the original workbook of a loaded submission.
func (s *Service) store(ctx context.Context, res *Result, req Request) error {
	if len(req.File) == 0 {
		return nil
	}
	err := s.files.Put(ctx, blob.Object{
		Key:         blob.ObjectKey(res.FundType, res.SubmissionID),
		Body:        req.File,
		ContentType: blob.ContentTypeXLSX,
		Metadata: map[string]string{
			blob.MetaFilename:       req.Filename,
			blob.MetaSubmissionCode: res.SubmissionCode,
			blob.MetaProgramme:      res.ProgrammeID,
			blob.MetaAccountID:      req.AccountID,
			blob.MetaUserEmail:      req.UserEmail,
		},
	})
	if err != nil {
		return errors.Wrap(err, "store submitted file")
	}
	return nil
}

// classify passes data problems through and turns everything else into an
// *InternalError, keeping the submitted file for support.
func (s *Service) classify(ctx context.Context, log *slog.Logger, req Request, err error) error {
	var pErr *precheck.Error
	var vErr *ValidationError
	switch {
	case errors.As(err, &pErr):
		log.InfoContext(ctx, "submission failed pre-transformation checks", "messages", len(pErr.Messages))
		return err
	case errors.As(err, &vErr):
		log.InfoContext(ctx, "submission invalid", "failures", len(vErr.Failures))
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}

	id := uuid.NewString()
	log.ErrorContext(ctx, "ingest failed", "failure_id", id, "error", err)

	if len(req.File) > 0 {
		putErr := s.failed.Put(ctx, blob.Object{
			Key:         id,
			Body:        req.File,
			ContentType: blob.ContentTypeXLSX,
			Metadata: map[string]string{
				blob.MetaFilename:  req.Filename,
				blob.MetaFailureID: id,
				blob.MetaAccountID: req.AccountID,
				blob.MetaUserEmail: req.UserEmail,
			},
		})
		if putErr != nil {
			log.ErrorContext(ctx, "could not keep failed file", "failure_id", id, "error", putErr)
		}
	}
	return &InternalError{ID: id, Err: err}
}

// describe reads the submission metadata from a transformed set.
func (s *Service) describe(set tabular.Set, round int) *Result {
	res := &Result{Round: round}
	if t := set[tables.ProgrammeRef]; t != nil && t.Len() > 0 {
		res.ProgrammeID = t.Value(0, tables.ColProgrammeID)
		res.ProgrammeName = t.Value(0, "Programme Name")
		res.FundType = t.Value(0, "Fund Type")
		res.Organisation = t.Value(0, tables.ColOrganisation)
	}
	return res
}

func (s *Service) labels(set tabular.Set, round int) metrics.Labels {
	res := s.describe(set, round)
	return metrics.Labels{Fund: res.FundType, Round: round, Organisation: res.Organisation}
}

// fundCode accepts a fund code, template label or display name and returns
// the code, or "" when the fund is unknown.
func (s *Service) fundCode(fund string) string {
	if f, ok := s.ref.FundByCode(fund); ok {
		return f.Code
	}
	if f, ok := s.ref.FundByLabel(fund); ok {
		return f.Code
	}
	for _, f := range s.ref.Funds {
		if strings.EqualFold(f.Name, fund) {
			return f.Code
		}
	}
	return ""
}

func resultOf(err error) string {
	if err == nil {
		return metrics.ResultSuccess
	}
	var pErr *precheck.Error
	var vErr *ValidationError
	if errors.As(err, &pErr) || errors.As(err, &vErr) {
		return metrics.ResultInvalid
	}
	return metrics.ResultError
}
