package cmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/ledger-consolidation/internal/api"
	"github.com/ginjaninja78/ledger-consolidation/internal/config"
)

type backendCalls struct {
	mu    sync.Mutex
	posts []string
}

func (b *backendCalls) list() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.posts...)
}

// withBackend points the command globals at a fake server.
func withBackend(t *testing.T) (*backendCalls, string) {
	t.Helper()
	calls := &backendCalls{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodPost {
			calls.mu.Lock()
			calls.posts = append(calls.posts, r.URL.Path)
			calls.mu.Unlock()
			w.Write([]byte(`{"id": 1}`))
			return
		}
		switch r.URL.Path {
		case "/ledgers":
			w.Write([]byte(`[{"ledger_code":"L100","ledger_name":"Freight"},{"ledger_code":"L200","ledger_name":"Rent"}]`))
		case "/sub_groups":
			w.Write([]byte(`[{"sub_group_code":"SG01","sub_group_name":"Direct"}]`))
		case "/main_groups":
			w.Write([]byte(`[{"main_group_code":"MG01","main_group_name":"Income"}]`))
		case "/consolidated":
			w.Write([]byte(`[{"ledger_code":"L200","status":"active"}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	cfg := config.Default()
	cfg.Output.ReportDir = filepath.Join(dir, "reports")
	cfg.Output.ArchiveDir = filepath.Join(dir, "archive")

	log, _ := test.NewNullLogger()
	c, err := api.New(srv.URL)
	require.NoError(t, err)

	appConfig, logger, client = cfg, log, c
	t.Cleanup(func() {
		appConfig, logger, client = nil, nil, nil
		dryRun, assumeYes = false, false
	})
	return calls, dir
}

func writeBatch(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "links.csv")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestSubmitCommitsReportsAndArchives(t *testing.T) {
	calls, dir := withBackend(t)
	path := writeBatch(t, dir, "ledger_code,sub_group_code,main_group_code,status\nL100,,MG01,active\n")
	assumeYes = true

	var out bytes.Buffer
	require.NoError(t, runSubmit(context.Background(), path, strings.NewReader(""), &out))

	assert.Equal(t, []string{"/consolidated", "/ledgers/merge"}, calls.list())
	assert.Contains(t, out.String(), "Consolidation saved")
	assert.NoFileExists(t, path)
	assert.FileExists(t, filepath.Join(dir, "archive", "links.csv"))

	reports, err := os.ReadDir(filepath.Join(dir, "reports"))
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.True(t, strings.HasPrefix(reports[0].Name(), "links_"))
}

func TestSubmitDryRunWritesNothing(t *testing.T) {
	calls, dir := withBackend(t)
	path := writeBatch(t, dir, "ledger_code,sub_group_code,status\nL100,SG01,\n")
	dryRun = true

	var out bytes.Buffer
	require.NoError(t, runSubmit(context.Background(), path, strings.NewReader(""), &out))

	assert.Empty(t, calls.list())
	assert.Contains(t, out.String(), "Dry run")
	assert.FileExists(t, path)
}

func TestSubmitRejectsLedgerActiveOnServer(t *testing.T) {
	calls, dir := withBackend(t)
	path := writeBatch(t, dir, "ledger_code,sub_group_code,status\nL200,SG01,active\n")
	assumeYes = true

	var out bytes.Buffer
	err := runSubmit(context.Background(), path, strings.NewReader(""), &out)
	require.Error(t, err)
	assert.IsType(t, exitError{}, err)
	assert.Contains(t, out.String(), "Validation failed")
	assert.Empty(t, calls.list())
}

func TestSubmitDeclined(t *testing.T) {
	calls, dir := withBackend(t)
	path := writeBatch(t, dir, "ledger_code,sub_group_code\nL100,SG01\n")

	var out bytes.Buffer
	require.NoError(t, runSubmit(context.Background(), path, strings.NewReader("n\n"), &out))

	assert.Contains(t, out.String(), "Submit 1 row? 0 empty placeholder rows will be skipped. [y/N]")
	assert.Contains(t, out.String(), "Cancelled.")
	assert.Empty(t, calls.list())
}

func TestSubmitUnknownCode(t *testing.T) {
	_, dir := withBackend(t)
	path := writeBatch(t, dir, "ledger_code,sub_group_code\nL999,SG01\n")

	err := runSubmit(context.Background(), path, strings.NewReader(""), &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `ledger_code "L999"`)
}
