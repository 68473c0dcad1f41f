package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"pitchdesk/internal/api"
	"pitchdesk/internal/dashboard"
	"pitchdesk/internal/model"

	tea "github.com/charmbracelet/bubbletea"
)

type fakeSession struct {
	valid   bool
	role    string
	cleared int
}

func (s *fakeSession) Valid() bool  { return s.valid }
func (s *fakeSession) Role() string { return s.role }
func (s *fakeSession) Clear() error {
	s.valid, s.role = false, ""
	s.cleared++
	return nil
}

type fakeBackend struct {
	mu      sync.Mutex
	sess    *fakeSession
	total   int
	listErr error
	// rows builds a page for a query; nil returns three records.
	rows    func(q api.Query) []model.Record
	queries []api.Query
	counts  int
	updates []model.UpdatePayload
	prompts map[string]string
}

func (b *fakeBackend) ListRecords(_ context.Context, q api.Query) ([]model.Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queries = append(b.queries, q)
	if b.listErr != nil {
		return nil, b.listErr
	}
	if b.rows != nil {
		return b.rows(q), nil
	}
	return testRecords(3), nil
}

func (b *fakeBackend) CountRecords(context.Context, string, model.TimeFilter) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.counts++
	if b.listErr != nil {
		return 0, b.listErr
	}
	return b.total, nil
}

func (b *fakeBackend) Login(_ context.Context, username, password string) (api.LoginResult, error) {
	if password != "secret" {
		return api.LoginResult{}, &api.Error{Status: http.StatusUnauthorized, Message: "Invalid credentials"}
	}
	b.sess.valid = true
	b.sess.role = model.RoleAdmin
	return api.LoginResult{Token: "tok-" + username, Role: model.RoleAdmin}, nil
}

func (b *fakeBackend) UpdateRecord(_ context.Context, _ string, p model.UpdatePayload) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.updates = append(b.updates, p)
	return nil
}

func (b *fakeBackend) UpdatePrompt(_ context.Context, location, text string) error {
	if b.prompts == nil {
		b.prompts = map[string]string{}
	}
	b.prompts[location] = text
	return nil
}

type fakeGenerator struct {
	genErr     error
	generated  []api.GenerateRequest
	searches   []string
	links      []model.LinkResult
	keywords   map[string][]string
	kwSaved    []map[string]model.TagDiff
	rating     string
	ratingSent []map[string]map[string]any
	prompts    []model.Prompt
	synced     []string
}

func (g *fakeGenerator) Generate(_ context.Context, req api.GenerateRequest) (api.GenerateResult, error) {
	g.generated = append(g.generated, req)
	if g.genErr != nil {
		return api.GenerateResult{}, g.genErr
	}
	return api.GenerateResult{Text: "Dear client, I can help."}, nil
}

func (g *fakeGenerator) SearchLinks(_ context.Context, q string, _ int) ([]model.LinkResult, error) {
	g.searches = append(g.searches, q)
	return g.links, nil
}

func (g *fakeGenerator) Keywords(context.Context) (map[string][]string, error) {
	return g.keywords, nil
}

func (g *fakeGenerator) UpdateKeywords(_ context.Context, p map[string]model.TagDiff) error {
	g.kwSaved = append(g.kwSaved, p)
	return nil
}

func (g *fakeGenerator) RatingConfig(context.Context) (json.RawMessage, error) {
	return json.RawMessage(g.rating), nil
}

func (g *fakeGenerator) UpdateRatingConfig(_ context.Context, patch map[string]map[string]any) error {
	g.ratingSent = append(g.ratingSent, patch)
	return nil
}

func (g *fakeGenerator) Prompts(context.Context) ([]model.Prompt, error) {
	return g.prompts, nil
}

func (g *fakeGenerator) SyncPrompts(_ context.Context, target string) error {
	g.synced = append(g.synced, target)
	return nil
}

type memSnapshots struct {
	snap  dashboard.Snapshot
	ok    bool
	saves int
}

func (s *memSnapshots) Load(context.Context) (dashboard.Snapshot, bool, error) {
	return s.snap, s.ok, nil
}

func (s *memSnapshots) Save(_ context.Context, snap dashboard.Snapshot) error {
	s.snap, s.ok = snap, true
	s.saves++
	return nil
}

func (s *memSnapshots) Clear(context.Context) error {
	s.snap, s.ok = dashboard.Snapshot{}, false
	return nil
}

func testRecords(n int) []model.Record {
	out := make([]model.Record, 0, n)
	for i := 1; i <= n; i++ {
		p := fmt.Sprintf("Proposal %d", i)
		out = append(out, model.Record{
			ID:        fmt.Sprintf("r%d", i),
			Title:     fmt.Sprintf("Job %d", i),
			Link:      fmt.Sprintf("https://jobs.example.com/%d", i),
			Proposal:  &p,
			Applied:   model.AppliedNo,
			CreatedAt: time.Date(2026, 10, i, 9, 0, 0, 0, time.UTC),
		})
	}
	return out
}

type harness struct {
	sess    *fakeSession
	backend *fakeBackend
	gen     *fakeGenerator
	snaps   *memSnapshots
}

func newHarness(valid bool, role string) *harness {
	sess := &fakeSession{valid: valid, role: role}
	return &harness{
		sess:    sess,
		backend: &fakeBackend{sess: sess, total: 3},
		gen:     &fakeGenerator{},
		snaps:   &memSnapshots{},
	}
}

func (h *harness) options(route string) Options {
	return Options{
		Backend:        h.backend,
		Generator:      h.gen,
		Session:        h.sess,
		Snapshots:      h.snaps,
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		Route:          route,
		PageSize:       10,
		Debounce:       time.Millisecond,
		SnapshotMaxAge: time.Hour,
		ToastDuration:  time.Hour,
		SearchK:        5,
	}
}

// start builds the model, runs its first load and gives it a window size.
func (h *harness) start(t *testing.T, route string) appModel {
	t.Helper()
	m := newAppModel(context.Background(), h.options(route))
	m = runCmd(t, m, m.Init())
	return send(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
}

// runCmd executes cmd and feeds the app's own result messages back into the
// model until nothing is left. Timers longer than the wait are dropped, which
// keeps toasts visible and cursors from blinking forever.
func runCmd(t *testing.T, m appModel, cmd tea.Cmd) appModel {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := callWithTimeout(c).(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case recordsLoadedMsg, recordSavedMsg, loginDoneMsg, searchDebounceMsg, generatedMsg, linksMsg,
			promptsLoadedMsg, promptSavedMsg, promptsSyncedMsg, keywordsLoadedMsg, keywordsSavedMsg,
			ratingLoadedMsg, ratingSavedMsg:
			next, more := m.Update(msg)
			m = next.(appModel)
			queue = append(queue, more)
		}
	}
	return m
}

func callWithTimeout(c tea.Cmd) tea.Msg {
	ch := make(chan tea.Msg, 1)
	go func() { ch <- c() }()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

func send(t *testing.T, m appModel, msg tea.Msg) appModel {
	t.Helper()
	next, cmd := m.Update(msg)
	return runCmd(t, next.(appModel), cmd)
}

// press sends msg and returns the command without running it.
func press(m appModel, msg tea.Msg) (appModel, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(appModel), cmd
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

var (
	keyMsgEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyMsgEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keyMsgSave  = tea.KeyMsg{Type: tea.KeyCtrlS}
	keyMsgGen   = tea.KeyMsg{Type: tea.KeyCtrlG}
)

func toastText(m appModel) string {
	t, ok := m.toaster.Current()
	if !ok {
		return ""
	}
	return t.Message
}
