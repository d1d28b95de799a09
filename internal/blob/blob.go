// Package blob stores the original workbook of every ingest. Successful
// ingests are filed under {fund_type}/{submission_surrogate_id}; files whose
// ingest failed for engineering reasons go to a separate store keyed by
// failure id so support can replay them.
package blob

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned by Get for a key with no object.
var ErrNotFound = errors.New("blob not found")

// Content type of the stored workbooks.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Metadata keys attached to stored submissions.
const (
	MetaFilename       = "filename"
	MetaSubmissionCode = "submission-code"
	MetaProgramme      = "programme"
	MetaAccountID      = "account-id"
	MetaUserEmail      = "user-email"
	MetaFailureID      = "failure-id"
)

// Object is a stored file.
type Object struct {
	Key         string
	Body        []byte
	ContentType string
	Metadata    map[string]string
}

// Store is a single-bucket object store. Put overwrites.
type Store interface {
	Put(ctx context.Context, obj Object) error
	Get(ctx context.Context, key string) (Object, error)
	Driver() string
}

// ObjectKey is where a loaded submission's original file is stored.
func ObjectKey(fundType, submissionID string) string {
	return strings.TrimSpace(fundType) + "/" + submissionID
}

func cloneMetadata(md map[string]string) map[string]string {
	if md == nil {
		return nil
	}
	out := make(map[string]string, len(md))
	for k, v := range md {
		out[strings.ToLower(k)] = v
	}
	return out
}
