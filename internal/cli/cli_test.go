package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"pitchdesk/internal/config"
	"pitchdesk/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDashboard struct {
	mu      sync.Mutex
	updates map[string]map[string]any
	queries []string
}

func (f *fakeDashboard) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["password"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"detail":"Invalid credentials"}`)
			return
		}
		_, _ = io.WriteString(w, `{"access_token":"tok","role":"admin","expires_in":3600}`)
	})
	authed := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer tok" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = io.WriteString(w, `{"detail":"Not authenticated"}`)
				return
			}
			next(w, r)
		}
	}
	mux.HandleFunc("GET /dashboard/all", authed(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.queries = append(f.queries, r.URL.RawQuery)
		f.mu.Unlock()
		_, _ = io.WriteString(w, `[
			{"id":"1","title":"Go API","description":"<b>Build</b> it","url":"https://jobs.example.com/1","proposal":"Hi","comments":"","applied":"no","created_date_time":"2026-10-15T08:00:00"},
			{"id":"2","title":"Rust CLI","description":"","url":"https://jobs.example.com/2","proposal":null,"comments":"later","applied":"yes","created_date_time":"2026-10-14T08:00:00"}
		]`)
	}))
	mux.HandleFunc("GET /dashboard/count", authed(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"count":42}`)
	}))
	mux.HandleFunc("PATCH /dashboard/update/{id}", authed(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		f.mu.Lock()
		f.updates[r.PathValue("id")] = body
		f.mu.Unlock()
		_, _ = io.WriteString(w, `{"ok":true}`)
	}))
	return mux
}

type cliEnv struct {
	t    *testing.T
	cfg  *config.Config
	dash *fakeDashboard
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	dash := &fakeDashboard{updates: map[string]map[string]any{}}
	srv := httptest.NewServer(dash.handler(t))
	t.Cleanup(srv.Close)
	gen := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(gen.Close)

	cfg := &config.Config{
		Backend:   config.BackendConfig{URL: srv.URL},
		Generator: config.GeneratorConfig{URL: gen.URL, Rate: 100, Burst: 10},
		Dashboard: config.DashboardConfig{PageSize: 20, Debounce: 500 * time.Millisecond, SnapshotMaxAge: time.Hour},
		Search:    config.SearchConfig{K: 5},
		Toast:     config.ToastConfig{Duration: time.Second},
		HTTP:      config.HTTPConfig{Timeout: 5 * time.Second},
		State:     config.StateConfig{Dir: t.TempDir()},
		Logging:   config.LoggingConfig{Level: "error"},
	}
	return &cliEnv{t: t, cfg: cfg, dash: dash}
}

func (e *cliEnv) run(stdin string, args ...string) (string, string, error) {
	e.t.Helper()
	app := &App{cfg: e.cfg, logger: logging.Discard()}
	cmd := newRootCmd(app)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func (e *cliEnv) mustRun(args ...string) map[string]any {
	e.t.Helper()
	stdout, stderr, err := e.run("", args...)
	require.NoError(e.t, err, "pitchdesk %v\nstderr:\n%s", args, stderr)
	var env map[string]any
	require.NoError(e.t, json.Unmarshal([]byte(stdout), &env), "stdout:\n%s", stdout)
	require.Contains(e.t, env, "data")
	return env
}

func TestLoginThenListRecords(t *testing.T) {
	e := newCLIEnv(t)

	_, stderr, err := e.run("", "records", "list")
	require.Error(t, err)
	assert.Contains(t, stderr, "not logged in")

	_, _, err = e.run("secret\n", "login", "--username", "ana")
	require.NoError(t, err)

	env := e.mustRun("records", "list", "--since", "24h", "--search", "go")
	rows := env["data"].([]any)
	require.Len(t, rows, 2)
	first := rows[0].(map[string]any)
	assert.Equal(t, "Go API", first["title"])
	assert.Equal(t, "Build it", first["description"], "description HTML is stripped")

	meta := env["meta"].(map[string]any)
	assert.EqualValues(t, 42, meta["totalCount"])
	assert.EqualValues(t, 3, meta["totalPages"])
	assert.Equal(t, "24h", meta["timeFilter"])

	require.NotEmpty(t, e.dash.queries)
	assert.Contains(t, e.dash.queries[0], "time_filter=24h")
	assert.Contains(t, e.dash.queries[0], "search=go")
}

func TestLoginRejected(t *testing.T) {
	e := newCLIEnv(t)
	_, stderr, err := e.run("", "login", "--username", "ana", "--password", "nope")
	require.Error(t, err)
	assert.Contains(t, stderr, "Invalid credentials")
}

func TestRecordsCount(t *testing.T) {
	e := newCLIEnv(t)
	e.mustRun("login", "--username", "ana", "--password", "secret")
	env := e.mustRun("records", "count")
	assert.EqualValues(t, 42, env["data"].(map[string]any)["count"])
}

func TestRecordsUpdate_SendsBothFields(t *testing.T) {
	e := newCLIEnv(t)
	e.mustRun("login", "--username", "ana", "--password", "secret")

	e.mustRun("records", "update", "1", "--comments", "sent", "--applied", "yes")
	assert.Equal(t, map[string]any{"comments": "sent", "applied": "yes"}, e.dash.updates["1"])

	_, stderr, err := e.run("", "records", "update", "9", "--applied", "yes")
	require.Error(t, err)
	assert.Contains(t, stderr, "not found")

	_, _, err = e.run("", "records", "update", "1", "--applied", "maybe")
	require.Error(t, err)
}

func TestLogoutClearsSession(t *testing.T) {
	e := newCLIEnv(t)
	e.mustRun("login", "--username", "ana", "--password", "secret")
	e.mustRun("logout")
	_, _, err := e.run("", "records", "count")
	require.Error(t, err)
}

func TestGenerate_RequiresDescription(t *testing.T) {
	e := newCLIEnv(t)
	_, stderr, err := e.run("", "generate", "--description", "   ")
	require.Error(t, err)
	assert.Contains(t, stderr, "Please enter a job description")
}

func TestRecordsList_TableFormat(t *testing.T) {
	e := newCLIEnv(t)
	e.mustRun("login", "--username", "ana", "--password", "secret")
	stdout, _, err := e.run("", "--format", "table", "records", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Rust CLI")
	assert.Contains(t, strings.ToUpper(stdout), "APPLIED")
}

func TestDoctor_ReportsProblems(t *testing.T) {
	e := newCLIEnv(t)
	env := e.mustRun("doctor")
	checks := env["data"].([]any)
	byName := map[string]bool{}
	for _, c := range checks {
		m := c.(map[string]any)
		byName[m["name"].(string)] = m["ok"].(bool)
	}
	assert.True(t, byName["backend"])
	assert.True(t, byName["generator"])
	assert.False(t, byName["session"])

	_, _, err := e.run("", "doctor", "--fail")
	require.ErrorIs(t, err, errDoctorIssuesFound)
}
