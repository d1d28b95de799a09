package web

// errors.go maps request-level problems to the JSON bodies clients see.
//
// Workbook problems (pre-transformation and validation failures) and
// engineering failures have fixed payload shapes and are written by
// respondIngestError. Everything else, such as a missing form field or a
// busy server, goes through respondError: the technical error is logged with
// the request id and the client gets a UserMessage looked up by pattern.
//
// Codes by category:
//
//	REQ001 - Required form field is missing         "is a required property"
//	REQ002 - Form field has the wrong format        "must be"
//	REQ003 - Authorisation JSON could not be read   "invalid auth json"
//	FILE001 - File exceeds the upload limit         "file too large", "request body too large"
//	FILE002 - Wrong file type                       "invalid file type"
//	FILE003 - File is not a readable workbook       "bad excel_file"
//	FILE004 - Submission or its file is unknown     "not found"
//	ING001 - Too many ingests running               "too many concurrent ingests"
//	ING002 - Request cancelled                      "context canceled"
//	ING003 - Request timed out                      "context deadline exceeded"
//	RATE001 - Too many requests from one address    "rate limit"
//	ERR000 - Anything else

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-faster/errors"

	"github.com/JonMunkholm/fundingdata/internal/ingest"
	"github.com/JonMunkholm/fundingdata/internal/precheck"
	"github.com/JonMunkholm/fundingdata/internal/validate"
)

// UserMessage is a client-safe description of an error.
type UserMessage struct {
	Message string
	Action  string
	Code    string
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns are matched case-insensitively against the error text. The
// first match wins.
var errorPatterns = []errorPattern{
	{
		pattern: "is a required property",
		msg: UserMessage{
			Message: "A required form field is missing",
			Action:  "Send excel_file, fund_name and reporting_round",
			Code:    "REQ001",
		},
	},
	{
		pattern: "must be",
		msg: UserMessage{
			Message: "A form field has the wrong format",
			Action:  "Check the field named in the detail",
			Code:    "REQ002",
		},
	},
	{
		pattern: "invalid auth json",
		msg: UserMessage{
			Message: "Invalid auth JSON",
			Action:  "Send auth as a JSON object of place_names, fund_types and reporting_rounds",
			Code:    "REQ003",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Remove unused sheets and try again",
			Code:    "FILE001",
		},
	},
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Remove unused sheets and try again",
			Code:    "FILE001",
		},
	},
	{
		pattern: "invalid file type",
		msg: UserMessage{
			Message: "Invalid file type",
			Action:  "Upload the reporting template as an .xlsx file",
			Code:    "FILE002",
		},
	},
	{
		pattern: "bad excel_file",
		msg: UserMessage{
			Message: "bad excel_file",
			Action:  "Re-save the workbook in Excel and upload it again",
			Code:    "FILE003",
		},
	},
	{
		pattern: "not found",
		msg: UserMessage{
			Message: "No stored file for that submission",
			Action:  "Check the submission code, for example S-R01-1",
			Code:    "FILE004",
		},
	},
	{
		pattern: "too many concurrent ingests",
		msg: UserMessage{
			Message: "Too many submissions are being processed",
			Action:  "Please wait a moment and try again",
			Code:    "ING001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "ING002",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Please try again later",
			Code:    "ING003",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-facing message. Unknown
// errors map to ERR000.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}
	s := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(s, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// requestError is a problem with the form itself. Its text is safe to show.
type requestError struct {
	detail string
}

func (e *requestError) Error() string { return e.detail }

func badRequest(format string, args ...any) error {
	return &requestError{detail: fmt.Sprintf(format, args...)}
}

// Problem is the JSON error body.
type Problem struct {
	Status int    `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Type   string `json:"type,omitempty"`
	Code   string `json:"code,omitempty"`
	Action string `json:"action,omitempty"`
	ID     string `json:"id,omitempty"`
}

// WorkbookProblem is the 400 body for a workbook the submitter must fix.
type WorkbookProblem struct {
	Problem
	PreTransformationErrors []string           `json:"pre_transformation_errors"`
	ValidationErrors        []validate.Failure `json:"validation_errors"`
}

const (
	detailWorkbookInvalid = "Workbook validation failed"
	detailUncaught        = "Uncaught ingest exception."
)

// respondError logs err and writes a Problem with a mapped user message.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	msg := MapError(err)

	slog.Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
		"request_id", middleware.GetReqID(r.Context()),
	)

	detail := msg.Message
	var rErr *requestError
	if errors.As(err, &rErr) {
		detail = rErr.detail
	}
	writeJSON(w, status, Problem{
		Status: status,
		Title:  http.StatusText(status),
		Detail: detail,
		Type:   "about:blank",
		Code:   msg.Code,
		Action: msg.Action,
	})
}

// respondIngestError writes the payload for an error returned by the ingest
// service.
func (s *Server) respondIngestError(w http.ResponseWriter, r *http.Request, err error) {
	var pErr *precheck.Error
	var vErr *ingest.ValidationError
	var iErr *ingest.InternalError

	switch {
	case errors.As(err, &pErr):
		writeJSON(w, http.StatusBadRequest, workbookProblem(pErr.Messages, nil))
	case errors.As(err, &vErr):
		writeJSON(w, http.StatusBadRequest, workbookProblem(nil, vErr.Failures))
	case errors.As(err, &iErr):
		// The cause is already logged against the id by the ingest service.
		writeJSON(w, http.StatusInternalServerError, Problem{
			Status: http.StatusInternalServerError,
			Title:  http.StatusText(http.StatusInternalServerError),
			Detail: detailUncaught,
			ID:     iErr.ID,
		})
	case errors.Is(err, context.DeadlineExceeded):
		s.respondError(w, r, err, http.StatusGatewayTimeout)
	default:
		s.respondError(w, r, err, http.StatusInternalServerError)
	}
}

func workbookProblem(messages []string, failures []validate.Failure) WorkbookProblem {
	if messages == nil {
		messages = []string{}
	}
	if failures == nil {
		failures = []validate.Failure{}
	}
	return WorkbookProblem{
		Problem: Problem{
			Status: http.StatusBadRequest,
			Title:  http.StatusText(http.StatusBadRequest),
			Detail: detailWorkbookInvalid,
		},
		PreTransformationErrors: messages,
		ValidationErrors:        failures,
	}
}

// writeJSON encodes v with status. Encoding errors are only logged since
// the header has been sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
