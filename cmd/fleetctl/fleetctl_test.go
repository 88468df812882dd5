package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fleet-compliance-api/pkg/compliance"
	"github.com/noah-isme/fleet-compliance-api/pkg/database/migrations"
)

const rulesTOML = `
[[rules]]
name = "cdl"
anchor_field = "cdl_issue_date"
warning_window_days = 30
[rules.validity]
kind = "explicit"
field = "cdl_expiration_date"

[[rules]]
name = "medical"
anchor_field = "medical_exam_date"
warning_window_days = 30
[rules.validity]
kind = "duration"
years = 2
`

const recordsJSON = `[
  {"id": "d1", "name": "Alice", "cdl_issue_date": "2020-01-01", "cdl_expiration_date": "2027-01-01", "medical_exam_date": "2025-01-15"},
  {"id": "d2", "name": "Bob", "cdl_expiration_date": "2026-03-20", "medical_exam_date": "2024-02-20"},
  {"id": "d3", "name": "Carl", "cdl_expiration_date": "2026-02-01"}
]`

func writeFixtures(t *testing.T, rules string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	rulesPath := filepath.Join(dir, "rules.toml")
	recordsPath := filepath.Join(dir, "records.json")
	require.NoError(t, os.WriteFile(rulesPath, []byte(rules), 0o600))
	require.NoError(t, os.WriteFile(recordsPath, []byte(recordsJSON), 0o600))
	return rulesPath, recordsPath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(io.Discard)
	err := root.Execute()
	return out.String(), err
}

func TestClassifyPrintsTableAndCounts(t *testing.T) {
	rulesPath, recordsPath := writeFixtures(t, rulesTOML)

	out, err := execute(t, "classify", "--rules", rulesPath, "--records", recordsPath, "--now", "2026-03-01")
	require.NoError(t, err)

	assert.Contains(t, out, "RECORD")
	assert.Contains(t, out, "expiring (expires in 19 days)")
	assert.Contains(t, out, "expired (overdue by 28 days)")
	assert.Contains(t, out, "as of 2026-03-01")
	assert.Contains(t, out, "cdl: valid=1 expiring=1 expired=1 unknown=0")
	assert.Contains(t, out, "medical: valid=1 expiring=0 expired=1 unknown=1")
}

func TestClassifySingleRuleSortedJSON(t *testing.T) {
	rulesPath, recordsPath := writeFixtures(t, rulesTOML)

	out, err := execute(t, "classify", "--rules", rulesPath, "--records", recordsPath,
		"--now", "2026-03-01", "--rule", "medical", "--sort", "name", "--order", "desc", "--json")
	require.NoError(t, err)

	var report struct {
		AsOf string `json:"as_of"`
		Rows []struct {
			Record   map[string]any               `json:"record"`
			Statuses map[string]compliance.Status `json:"statuses"`
		} `json:"rows"`
		Counts map[string]compliance.CategoryCounts `json:"counts"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))

	require.Len(t, report.Rows, 3)
	assert.Equal(t, "Carl", report.Rows[0].Record["name"])
	assert.Equal(t, "Alice", report.Rows[2].Record["name"])
	assert.Equal(t, compliance.CategoryUnknown, report.Rows[0].Statuses["medical"].Category)
	assert.Equal(t, compliance.CategoryExpired, report.Rows[1].Statuses["medical"].Category)
	assert.Equal(t, -9, *report.Rows[1].Statuses["medical"].DaysRemaining)
	assert.NotContains(t, report.Rows[0].Statuses, "cdl")
	assert.Equal(t, compliance.CategoryCounts{Valid: 1, Expired: 1, Unknown: 1}, report.Counts["medical"])
}

func TestClassifySearch(t *testing.T) {
	rulesPath, recordsPath := writeFixtures(t, rulesTOML)

	out, err := execute(t, "classify", "--rules", rulesPath, "--records", recordsPath,
		"--now", "2026-03-01", "--search", "BO", "--fields", "name,id")
	require.NoError(t, err)
	assert.Contains(t, out, "d2")
	assert.NotContains(t, out, "d1")
	assert.Contains(t, out, "cdl: valid=0 expiring=1 expired=0 unknown=0")

	_, err = execute(t, "classify", "--rules", rulesPath, "--records", recordsPath, "--search", "bo")
	assert.ErrorContains(t, err, "--search needs --fields")
}

func TestClassifyRejectsBadInput(t *testing.T) {
	rulesPath, recordsPath := writeFixtures(t, rulesTOML)

	_, err := execute(t, "classify", "--rules", rulesPath, "--records", recordsPath, "--rule", "hos")
	assert.ErrorContains(t, err, `rule "hos" not found`)

	_, err = execute(t, "classify", "--rules", rulesPath, "--records", recordsPath, "--now", "soon")
	assert.ErrorContains(t, err, "invalid --now")

	badRules, _ := writeFixtures(t, "[[rules]]\nname = \"cdl\"\nwarning_window_days = -1\n[rules.validity]\nkind = \"explicit\"\nfield = \"x\"\n")
	_, err = execute(t, "classify", "--rules", badRules, "--records", recordsPath)
	assert.ErrorIs(t, err, compliance.ErrInvalidRule)

	notArray := filepath.Join(t.TempDir(), "records.json")
	require.NoError(t, os.WriteFile(notArray, []byte(`{"id":"d1"}`), 0o600))
	_, err = execute(t, "classify", "--rules", rulesPath, "--records", notArray)
	assert.ErrorContains(t, err, "JSON array")

	_, err = execute(t, "classify", "--records", recordsPath)
	assert.Error(t, err)
}

func TestDescribeStatus(t *testing.T) {
	assert.Equal(t, "current=3 latest=3: up to date", describeStatus(migrations.Status{Current: 3, Latest: 3}))
	assert.Contains(t, describeStatus(migrations.Status{Current: 1, Latest: 3}), "2 migrations behind")
	assert.Contains(t, describeStatus(migrations.Status{Current: 2, Latest: 3, Dirty: true}), "dirty")
}
