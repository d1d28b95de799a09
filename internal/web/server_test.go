package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/fundingdata/internal/blob"
	"github.com/JonMunkholm/fundingdata/internal/ingest"
	"github.com/JonMunkholm/fundingdata/internal/store"
	"github.com/JonMunkholm/fundingdata/internal/store/storetest"
	"github.com/JonMunkholm/fundingdata/internal/transform"
	"github.com/JonMunkholm/fundingdata/internal/transform/transformtest"
	"github.com/JonMunkholm/fundingdata/internal/web"
	"github.com/JonMunkholm/fundingdata/internal/workbook"
)

func newServer(t *testing.T) (*web.Server, *store.DB) {
	t.Helper()
	db := storetest.New(t)
	svc, err := ingest.New(db, ingest.Options{RetryDelay: time.Millisecond})
	require.NoError(t, err)
	return web.NewServer(web.Deps{Ingester: svc, DB: db}, web.Options{}), db
}

type upload struct {
	fields      map[string]string
	file        []byte
	contentType string
	noFile      bool
}

func workbookFile(t *testing.T, wb workbook.Workbook) []byte {
	t.Helper()
	b, err := workbook.Bytes(wb)
	require.NoError(t, err)
	return b
}

func (u upload) request(t *testing.T) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range u.fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if !u.noFile {
		ct := u.contentType
		if ct == "" {
			ct = blob.ContentTypeXLSX
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="excel_file"; filename="return.xlsx"`)
		h.Set("Content-Type", ct)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(u.file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/ingest", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(s *web.Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func validUpload(t *testing.T) upload {
	return upload{
		fields: map[string]string{
			"fund_name":             "Town Deals",
			"reporting_round":       "1",
			"submitting_account_id": "acc-1",
			"submitting_user_email": "officer@example.gov.uk",
		},
		file: workbookFile(t, transformtest.Workbook(1)),
	}
}

func TestIngestLoadsWorkbook(t *testing.T) {
	s, db := newServer(t)

	rec := serve(s, validUpload(t).request(t))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "Spreadsheet successfully validated and ingested", body["detail"])
	assert.Equal(t, true, body["loaded"])

	meta := body["metadata"].(map[string]any)
	assert.Equal(t, "S-R01-1", meta["submission_code"])
	assert.Equal(t, "TD-EXA", meta["programme_id"])

	n, err := db.CountRows(context.Background(), "submission_dim")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestIngestDryRun(t *testing.T) {
	s, db := newServer(t)
	u := validUpload(t)
	u.fields["do_load"] = "false"

	rec := serve(s, u.request(t))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "Spreadsheet successfully validated but NOT ingested", body["detail"])
	assert.Equal(t, false, body["loaded"])

	n, err := db.CountRows(context.Background(), "submission_dim")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestIngestRejectsBadRequests(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*upload)
		wantDetail string
		wantCode   string
	}{
		{
			name:       "missing fund",
			mutate:     func(u *upload) { delete(u.fields, "fund_name") },
			wantDetail: "'fund_name' is a required property",
			wantCode:   "REQ001",
		},
		{
			name:       "missing round",
			mutate:     func(u *upload) { delete(u.fields, "reporting_round") },
			wantDetail: "'reporting_round' is a required property",
			wantCode:   "REQ001",
		},
		{
			name:       "round not a number",
			mutate:     func(u *upload) { u.fields["reporting_round"] = "three" },
			wantDetail: "'reporting_round' must be a positive whole number",
			wantCode:   "REQ002",
		},
		{
			name:       "do_load not a boolean",
			mutate:     func(u *upload) { u.fields["do_load"] = "maybe" },
			wantDetail: "'do_load' must be true or false",
			wantCode:   "REQ002",
		},
		{
			name:       "bad email",
			mutate:     func(u *upload) { u.fields["submitting_user_email"] = "nobody" },
			wantDetail: "'submitting_user_email' must be an email address",
			wantCode:   "REQ002",
		},
		{
			name:       "auth not json",
			mutate:     func(u *upload) { u.fields["auth"] = "{place_names" },
			wantDetail: "Invalid auth JSON",
			wantCode:   "REQ003",
		},
		{
			name:       "auth wrong shape",
			mutate:     func(u *upload) { u.fields["auth"] = `["Exampleton"]` },
			wantDetail: "Invalid auth JSON",
			wantCode:   "REQ003",
		},
		{
			name:       "no file",
			mutate:     func(u *upload) { u.noFile = true },
			wantDetail: "'excel_file' is a required property",
			wantCode:   "REQ001",
		},
		{
			name:       "wrong content type",
			mutate:     func(u *upload) { u.contentType = "text/csv" },
			wantDetail: "Invalid file type",
			wantCode:   "FILE002",
		},
		{
			name:       "not a workbook",
			mutate:     func(u *upload) { u.file = []byte("not a zip") },
			wantDetail: "bad excel_file",
			wantCode:   "FILE003",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newServer(t)
			u := validUpload(t)
			tt.mutate(&u)

			rec := serve(s, u.request(t))

			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			body := decode(t, rec)
			assert.Equal(t, tt.wantDetail, body["detail"])
			assert.Equal(t, tt.wantCode, body["code"])
			assert.Equal(t, "Bad Request", body["title"])
		})
	}
}

func TestIngestRejectsOversizedUpload(t *testing.T) {
	db := storetest.New(t)
	svc, err := ingest.New(db, ingest.Options{})
	require.NoError(t, err)
	s := web.NewServer(web.Deps{Ingester: svc, DB: db}, web.Options{MaxFileSize: 1024})

	rec := serve(s, validUpload(t).request(t))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "FILE001", decode(t, rec)["code"])
}

func TestIngestReturnsPreTransformationErrors(t *testing.T) {
	s, _ := newServer(t)
	u := validUpload(t)
	u.fields["auth"] = `{"place_names": ["Sampleford"]}`

	rec := serve(s, u.request(t))

	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "Workbook validation failed", body["detail"])
	assert.NotEmpty(t, body["pre_transformation_errors"])
	assert.Equal(t, []any{}, body["validation_errors"])
}

func TestIngestReturnsValidationErrors(t *testing.T) {
	s, _ := newServer(t)
	wb := transformtest.Workbook(1)
	transformtest.Put(wb, transform.SheetAdmin, transform.SectionProjects, 0, "Primary Intervention Theme", "Moon base")
	u := validUpload(t)
	u.file = workbookFile(t, wb)

	rec := serve(s, u.request(t))

	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, []any{}, body["pre_transformation_errors"])

	failures := body["validation_errors"].([]any)
	require.Len(t, failures, 1)
	f := failures[0].(map[string]any)
	assert.Equal(t, "InvalidEnumValue", f["error_type"])
	assert.NotEmpty(t, f["cell_index"])
}

type stubIngester struct {
	err     error
	release chan struct{}
	started chan struct{}
}

func (s *stubIngester) Ingest(ctx context.Context, _ ingest.Request) (*ingest.Result, error) {
	if s.started != nil {
		s.started <- struct{}{}
	}
	if s.release != nil {
		<-s.release
	}
	if s.err != nil {
		return nil, s.err
	}
	return &ingest.Result{Round: 1}, nil
}

func TestIngestInternalErrorHidesCause(t *testing.T) {
	stub := &stubIngester{err: &ingest.InternalError{ID: "f00d", Err: errors.New("pq: relation does not exist")}}
	s := web.NewServer(web.Deps{Ingester: stub}, web.Options{})

	rec := serve(s, validUpload(t).request(t))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Uncaught ingest exception.", body["detail"])
	assert.Equal(t, "f00d", body["id"])
	assert.NotContains(t, rec.Body.String(), "relation")
}

func TestIngestTooManyConcurrent(t *testing.T) {
	stub := &stubIngester{release: make(chan struct{}), started: make(chan struct{}, 1)}
	s := web.NewServer(web.Deps{
		Ingester: stub,
		Limiter:  ingest.NewLimiter(1, 20*time.Millisecond),
	}, web.Options{})

	file := workbookFile(t, transformtest.Workbook(1))
	first := validUpload(t)
	first.file = file
	firstReq := first.request(t)
	done := make(chan *httptest.ResponseRecorder)
	go func() { done <- serve(s, firstReq) }()
	<-stub.started

	second := validUpload(t)
	second.file = file
	rec := serve(s, second.request(t))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "ING001", decode(t, rec)["code"])
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	close(stub.release)
	assert.Equal(t, http.StatusOK, (<-done).Code)
}

func TestRateLimit(t *testing.T) {
	stub := &stubIngester{}
	s := web.NewServer(web.Deps{Ingester: stub}, web.Options{RateLimit: 1})
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })

	assert.Equal(t, http.StatusOK, serve(s, validUpload(t).request(t)).Code)

	rec := serve(s, validUpload(t).request(t))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE001", decode(t, rec)["code"])
}

type pinger struct{ err error }

func (p pinger) Healthy(context.Context) error { return p.err }

func TestHealth(t *testing.T) {
	tests := []struct {
		name string
		db   web.Pinger
		want int
	}{
		{"healthy", pinger{}, http.StatusOK},
		{"database down", pinger{err: errors.New("connection refused")}, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := web.NewServer(web.Deps{Ingester: &stubIngester{}, DB: tt.db}, web.Options{})
			rec := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			if rec.Code != tt.want {
				t.Errorf("GET /healthz = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestMetricsRoute(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("fundingdata_up 1\n"))
	})
	s := web.NewServer(web.Deps{Ingester: &stubIngester{}, Metrics: metrics}, web.Options{})

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "fundingdata_up"))
}

func TestSecurityHeaders(t *testing.T) {
	s := web.NewServer(web.Deps{Ingester: &stubIngester{}}, web.Options{})
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestSubmissionFileDownload(t *testing.T) {
	db := storetest.New(t)
	svc, err := ingest.New(db, ingest.Options{RetryDelay: time.Millisecond, Files: blob.NewMemory()})
	require.NoError(t, err)
	s := web.NewServer(web.Deps{Ingester: svc, Files: svc, DB: db}, web.Options{})

	up := validUpload(t)
	rec := serve(s, up.request(t))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/submissions/S-R01-1/file", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, blob.ContentTypeXLSX, rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename=return.xlsx`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, up.file, rec.Body.Bytes())

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/submissions/S-R01-9/file", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "FILE004", decode(t, rec)["code"])
}

func TestSubmissionFileRouteNeedsFiles(t *testing.T) {
	s := web.NewServer(web.Deps{Ingester: &stubIngester{}}, web.Options{})

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/submissions/S-R01-1/file", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMapError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ingest.ErrTooManyIngests, "ING001"},
		{context.Canceled, "ING002"},
		{context.DeadlineExceeded, "ING003"},
		{errors.New("http: request body too large"), "FILE001"},
		{ingest.ErrSubmissionNotFound, "FILE004"},
		{errors.New("something else"), "ERR000"},
	}
	for _, tt := range tests {
		if got := web.MapError(tt.err).Code; got != tt.want {
			t.Errorf("MapError(%v).Code = %q, want %q", tt.err, got, tt.want)
		}
	}
}
