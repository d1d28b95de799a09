package web

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"

	"github.com/JonMunkholm/fundingdata/internal/blob"
	"github.com/JonMunkholm/fundingdata/internal/ingest"
	"github.com/JonMunkholm/fundingdata/internal/logging"
	"github.com/JonMunkholm/fundingdata/internal/precheck"
	"github.com/JonMunkholm/fundingdata/internal/workbook"
)

const (
	detailIngested  = "Spreadsheet successfully validated and ingested"
	detailValidated = "Spreadsheet successfully validated but NOT ingested"
)

var errRateLimited = errors.New("rate limit exceeded")

// IngestResponse is the 200 body of POST /ingest.
type IngestResponse struct {
	Detail   string         `json:"detail"`
	Loaded   bool           `json:"loaded"`
	Metadata *ingest.Result `json:"metadata"`
}

// ingestForm holds the text fields of the multipart request.
type ingestForm struct {
	FundName       string `form:"fund_name" validate:"required,max=100"`
	ReportingRound string `form:"reporting_round" validate:"required,number"`
	Auth           string `form:"auth" validate:"omitempty,json"`
	DoLoad         string `form:"do_load" validate:"omitempty,boolean"`
	AccountID      string `form:"submitting_account_id" validate:"omitempty,max=255"`
	UserEmail      string `form:"submitting_user_email" validate:"omitempty,email"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseIngest(w, r)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	if err := s.deps.Limiter.Acquire(r.Context()); err != nil {
		if errors.Is(err, ingest.ErrTooManyIngests) {
			w.Header().Set("Retry-After", "30")
			s.respondError(w, r, err, http.StatusTooManyRequests)
			return
		}
		s.respondError(w, r, err, http.StatusServiceUnavailable)
		return
	}
	defer s.deps.Limiter.Release()

	res, err := s.deps.Ingester.Ingest(r.Context(), req)
	if err != nil {
		s.respondIngestError(w, r, err)
		return
	}

	detail := detailValidated
	if res.Loaded {
		detail = detailIngested
	}
	logging.FromContext(r.Context()).Info("ingest request complete",
		"programme", res.ProgrammeID,
		"loaded", res.Loaded,
		"submission", res.SubmissionCode,
	)
	writeJSON(w, http.StatusOK, IngestResponse{Detail: detail, Loaded: res.Loaded, Metadata: res})
}

// parseIngest reads and validates the multipart form. Errors are safe to
// return to the client.
func (s *Server) parseIngest(w http.ResponseWriter, r *http.Request) (ingest.Request, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxFileSize)
	if err := r.ParseMultipartForm(s.opts.MaxFileSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			return ingest.Request{}, badRequest("file too large: the limit is %d bytes", s.opts.MaxFileSize)
		}
		return ingest.Request{}, badRequest("request must be multipart/form-data")
	}

	form := ingestForm{
		FundName:       strings.TrimSpace(r.FormValue("fund_name")),
		ReportingRound: strings.TrimSpace(r.FormValue("reporting_round")),
		Auth:           strings.TrimSpace(r.FormValue("auth")),
		DoLoad:         strings.TrimSpace(r.FormValue("do_load")),
		AccountID:      strings.TrimSpace(r.FormValue("submitting_account_id")),
		UserEmail:      strings.TrimSpace(r.FormValue("submitting_user_email")),
	}
	if err := s.validate.Struct(form); err != nil {
		return ingest.Request{}, formError(err)
	}

	round, err := strconv.Atoi(form.ReportingRound)
	if err != nil || round < 1 {
		return ingest.Request{}, badRequest("'reporting_round' must be a positive whole number")
	}

	doLoad := true
	if form.DoLoad != "" {
		doLoad, _ = strconv.ParseBool(form.DoLoad)
	}

	claims, err := parseClaims(form.Auth)
	if err != nil {
		return ingest.Request{}, err
	}

	file, header, err := r.FormFile("excel_file")
	if err != nil {
		return ingest.Request{}, badRequest("'excel_file' is a required property")
	}
	defer file.Close()

	if ct := header.Header.Get("Content-Type"); ct != blob.ContentTypeXLSX {
		return ingest.Request{}, badRequest("Invalid file type")
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return ingest.Request{}, errors.Wrap(err, "read upload")
	}
	wb, err := workbook.ParseBytes(data)
	if err != nil {
		logging.FromContext(r.Context()).Warn("cannot read uploaded workbook",
			"filename", header.Filename,
			"error", err,
		)
		return ingest.Request{}, badRequest("bad excel_file")
	}

	return ingest.Request{
		Round:     round,
		Fund:      form.FundName,
		Workbook:  wb,
		File:      data,
		Filename:  header.Filename,
		Claims:    claims,
		DoLoad:    doLoad,
		AccountID: form.AccountID,
		UserEmail: form.UserEmail,
	}, nil
}

// parseClaims decodes the auth field. Empty or null means no restriction.
func parseClaims(raw string) (*precheck.Claims, error) {
	if raw == "" || raw == "null" {
		return nil, nil
	}
	var c precheck.Claims
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return nil, badRequest("Invalid auth JSON")
	}
	return &c, nil
}

// formError turns the first validation failure into a client message.
func formError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return errors.Wrap(err, "validate form")
	}
	fe := verrs[0]
	field := formName(fe)
	switch fe.Tag() {
	case "required":
		return badRequest("'%s' is a required property", field)
	case "json":
		return badRequest("Invalid auth JSON")
	case "number":
		return badRequest("'%s' must be a positive whole number", field)
	case "boolean":
		return badRequest("'%s' must be true or false", field)
	case "email":
		return badRequest("'%s' must be an email address", field)
	case "max":
		return badRequest("'%s' must be at most %s characters", field, fe.Param())
	default:
		return badRequest("'%s' must be valid", field)
	}
}

// formName maps a struct field back to its form key.
func formName(fe validator.FieldError) string {
	f, ok := reflect.TypeOf(ingestForm{}).FieldByName(fe.StructField())
	if !ok {
		return fe.Field()
	}
	return f.Tag.Get("form")
}

// handleSubmissionFile streams the original workbook of a loaded submission.
func (s *Server) handleSubmissionFile(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	obj, err := s.deps.Files.SubmissionFile(r.Context(), code)
	switch {
	case errors.Is(err, ingest.ErrSubmissionNotFound), errors.Is(err, ingest.ErrFileNotFound):
		s.respondError(w, r, err, http.StatusNotFound)
		return
	case err != nil:
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	filename := obj.Metadata[blob.MetaFilename]
	if filename == "" {
		filename = code + ".xlsx"
	}
	contentType := obj.ContentType
	if contentType == "" {
		contentType = blob.ContentTypeXLSX
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(obj.Body)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(obj.Body); err != nil {
		logging.FromContext(r.Context()).Warn("write submission file", "submission", code, "error", err)
	}
}
