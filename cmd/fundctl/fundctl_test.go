package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/fundingdata/internal/transform"
	"github.com/JonMunkholm/fundingdata/internal/transform/transformtest"
	"github.com/JonMunkholm/fundingdata/internal/workbook"
)

// useSQLite points the configuration at a fresh database file.
func useSQLite(t *testing.T) {
	t.Helper()
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", filepath.Join(t.TempDir(), "fundingdata.db"))
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("LOG_LEVEL", "error")
}

func writeWorkbook(t *testing.T, wb workbook.Workbook) string {
	t.Helper()
	b, err := workbook.Bytes(wb)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "return.xlsx")
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestMigrate(t *testing.T) {
	useSQLite(t)

	out, err := execute(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "migrations applied")
}

func TestIngestLoadsWorkbook(t *testing.T) {
	useSQLite(t)
	path := writeWorkbook(t, transformtest.Workbook(1))

	out, err := execute(t, "ingest", path, "--round", "1", "--fund", "TD", "--email", "officer@example.gov.uk")
	require.NoError(t, err)

	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &res), out)
	assert.Equal(t, true, res["loaded"])
	assert.Equal(t, "S-R01-1", res["submission_code"])
	assert.Equal(t, "TD-EXA", res["programme_id"])

	out, err = execute(t, "tables", "--counts")
	require.NoError(t, err)
	assert.Regexp(t, `submission_dim\s+1`, out)
}

func TestIngestDryRunLeavesDatabaseEmpty(t *testing.T) {
	useSQLite(t)
	path := writeWorkbook(t, transformtest.Workbook(1))

	out, err := execute(t, "ingest", path, "--round", "1", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, `"loaded": false`)

	out, err = execute(t, "tables", "--counts")
	require.NoError(t, err)
	assert.Regexp(t, `submission_dim\s+0`, out)
}

func TestCheckReportsFailures(t *testing.T) {
	wb := transformtest.Workbook(1)
	transformtest.Put(wb, transform.SheetAdmin, transform.SectionProjects, 0, "Primary Intervention Theme", "Moon base")
	path := writeWorkbook(t, wb)

	out, err := execute(t, "check", path, "--round", "1")
	require.ErrorIs(t, err, errRejected)

	var rej rejection
	require.NoError(t, json.Unmarshal([]byte(out), &rej), out)
	assert.Empty(t, rej.PreTransformationErrors)
	require.Len(t, rej.ValidationErrors, 1)
	assert.Equal(t, "InvalidEnumValue", string(rej.ValidationErrors[0].ErrorType))
}

func TestCheckAppliesClaims(t *testing.T) {
	path := writeWorkbook(t, transformtest.Workbook(1))

	out, err := execute(t, "check", path, "--round", "1", "--auth", `{"place_names": ["Sampleford"]}`)
	require.ErrorIs(t, err, errRejected)

	var rej rejection
	require.NoError(t, json.Unmarshal([]byte(out), &rej), out)
	assert.NotEmpty(t, rej.PreTransformationErrors)
}

func TestCheckArguments(t *testing.T) {
	path := writeWorkbook(t, transformtest.Workbook(1))

	_, err := execute(t, "check", path)
	assert.ErrorContains(t, err, `"round" not set`)

	_, err = execute(t, "check", path, "--round", "1", "--auth", "{")
	assert.ErrorContains(t, err, "--auth")

	_, err = execute(t, "check", filepath.Join(t.TempDir(), "missing.xlsx"), "--round", "1")
	assert.Error(t, err)
}

func TestTablesInLoadOrder(t *testing.T) {
	out, err := execute(t, "tables")
	require.NoError(t, err)

	sub := bytes.Index([]byte(out), []byte("submission_dim"))
	proj := bytes.Index([]byte(out), []byte("project_dim"))
	require.GreaterOrEqual(t, sub, 0)
	require.GreaterOrEqual(t, proj, 0)
	assert.Less(t, sub, proj)
}

func TestReingestStoredFile(t *testing.T) {
	useSQLite(t)
	t.Setenv("BLOB_BACKEND", "fs")
	t.Setenv("BLOB_DIR", t.TempDir())
	path := writeWorkbook(t, transformtest.Workbook(1))

	_, err := execute(t, "ingest", path, "--round", "1", "--account", "acc-3", "--email", "officer@example.gov.uk")
	require.NoError(t, err)

	out, err := execute(t, "reingest", "S-R01-1")
	require.NoError(t, err)

	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &res), out)
	assert.Equal(t, true, res["loaded"])
	assert.Equal(t, true, res["reused_code"])
	assert.Equal(t, "S-R01-1", res["submission_code"])

	out, err = execute(t, "tables", "--counts")
	require.NoError(t, err)
	assert.Regexp(t, `submission_dim\s+1`, out)

	_, err = execute(t, "reingest", "S-R01-7")
	assert.ErrorContains(t, err, "submission not found")
}

func TestReset(t *testing.T) {
	useSQLite(t)
	path := writeWorkbook(t, transformtest.Workbook(1))

	_, err := execute(t, "reset")
	assert.ErrorContains(t, err, "--yes")

	_, err = execute(t, "ingest", path, "--round", "1")
	require.NoError(t, err)

	out, err := execute(t, "reset", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "submission_dim: 1 rows deleted")

	out, err = execute(t, "tables", "--counts")
	require.NoError(t, err)
	assert.Regexp(t, `submission_dim\s+0`, out)
}
