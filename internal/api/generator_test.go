package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"pitchdesk/internal/logging"
	"pitchdesk/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type genServer struct {
	logins   atomic.Int32
	searches atomic.Int32
	failAuth bool
	handler  http.HandlerFunc
}

func (s *genServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/login" {
		s.logins.Add(1)
		if s.failAuth {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"detail":"bad credentials"}`)
			return
		}
		_, _ = io.WriteString(w, `{"access_token":"gen-tok","expires_in":600}`)
		return
	}
	if r.Header.Get("Authorization") != "Bearer gen-tok" {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"detail":"no token"}`)
		return
	}
	if r.URL.Path == "/search-link" {
		s.searches.Add(1)
	}
	s.handler(w, r)
}

func newTestGenerator(t *testing.T, srv *genServer, sess *memSession) *Generator {
	t.Helper()
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	c := NewClient(ts.URL, sess, WithLogger(logging.Discard()))
	return NewGenerator(c, sess, GeneratorOptions{Username: "svc", Password: "pw"})
}

func TestSplitQuestions(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"Why Go?", "Rate?"}, SplitQuestions("  Why Go?\n\n \nRate?  \n"))
	assert.Equal(t, []string{}, SplitQuestions("   "))
}

func TestGenerateAutoLoginAndPayload(t *testing.T) {
	t.Parallel()

	var payload map[string]any
	srv := &genServer{handler: func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/generate", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&payload)
		_, _ = io.WriteString(w, `{"generated_proposal":"Dear client"}`)
	}}
	sess := &memSession{}
	g := newTestGenerator(t, srv, sess)

	res, err := g.Generate(context.Background(), GenerateRequest{
		Description: "Need a Go dev",
		Questions:   "Q1\n\n  Q2  ",
	})
	require.NoError(t, err)
	assert.Equal(t, "Dear client", res.Text)
	assert.Equal(t, int32(1), srv.logins.Load())
	assert.Equal(t, "gen-tok", sess.Token())

	assert.Equal(t, "Need a Go dev", payload["client_requirement"])
	assert.Equal(t, []any{"Q1", "Q2"}, payload["screening_questions"])
	assert.InDelta(t, 0.30, payload["similarity_threshold"], 1e-9)
	assert.InDelta(t, 0.5, payload["hybrid_alpha"], 1e-9)
	assert.Equal(t, true, payload["use_section_approach"])
	assert.Equal(t, DefaultJobID, payload["job_id"])
}

func TestGeneratedTextFallbacks(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a", generatedText([]byte(`{"generated_proposal":"a","proposal":"b"}`)))
	assert.Equal(t, "b", generatedText([]byte(`{"proposal":"b","result":"c"}`)))
	assert.Equal(t, "c", generatedText([]byte(`{"result":"c"}`)))
	assert.Equal(t, `{"other":1}`, generatedText([]byte(`{"other":1}`)))
	assert.Equal(t, "plain", generatedText([]byte(`"plain"`)))
}

func TestGeneratorAutoLoginFailure(t *testing.T) {
	t.Parallel()

	srv := &genServer{failAuth: true, handler: func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no call expected after failed login, got %s", r.URL.Path)
	}}
	g := newTestGenerator(t, srv, &memSession{})

	_, err := g.Generate(context.Background(), GenerateRequest{Description: "x"})
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Authentication failed for Generator Service", apiErr.Message)

	_, err = g.SearchLinks(context.Background(), "golang", 5)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Authentication failed for Search Service", apiErr.Message)
}

func TestGeneratorWithoutServiceAccount(t *testing.T) {
	t.Parallel()

	srv := &genServer{handler: func(w http.ResponseWriter, r *http.Request) {}}
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	sess := &memSession{}
	g := NewGenerator(NewClient(ts.URL, sess, WithLogger(logging.Discard())), sess, GeneratorOptions{})

	_, err := g.Keywords(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, int32(0), srv.logins.Load())
}

func TestGeneratorConcurrentCallersShareLogin(t *testing.T) {
	t.Parallel()

	srv := &genServer{handler: func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"results":[]}`)
	}}
	g := newTestGenerator(t, srv, &memSession{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := g.SearchLinks(context.Background(), "q"+string(rune('a'+i)), 5)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, int32(1), srv.logins.Load())
}

func TestSearchLinksResultsAndCache(t *testing.T) {
	t.Parallel()

	srv := &genServer{handler: func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "golang jobs", r.URL.Query().Get("q"))
		assert.Equal(t, "5", r.URL.Query().Get("k"))
		_, _ = io.WriteString(w, `{"results":[
			{"title":"Go role","link":"https://a.example.com","snippet":"remote","score":0.9},
			{"title":"Other","url":"https://b.example.com"}
		]}`)
	}}
	g := newTestGenerator(t, srv, &memSession{})

	got, err := g.SearchLinks(context.Background(), "  golang jobs ", 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, model.LinkResult{Title: "Go role", Link: "https://a.example.com", Snippet: "remote", Score: 0.9}, got[0])
	assert.Equal(t, "https://b.example.com", got[1].Link)

	again, err := g.SearchLinks(context.Background(), "golang jobs", 5)
	require.NoError(t, err)
	assert.Equal(t, got, again)
	assert.Equal(t, int32(1), srv.searches.Load())
}

func TestSearchLinksBlankQuery(t *testing.T) {
	t.Parallel()

	srv := &genServer{handler: func(w http.ResponseWriter, r *http.Request) {}}
	g := newTestGenerator(t, srv, &memSession{})

	got, err := g.SearchLinks(context.Background(), "   ", 5)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, int32(0), srv.logins.Load())
}

func TestGeneratorUnauthorizedClearsOnlyGeneratorSession(t *testing.T) {
	t.Parallel()

	primary := validSession("primary-tok")
	gen := validSession("stale-tok")
	srv := &genServer{handler: func(w http.ResponseWriter, r *http.Request) {}}
	g := newTestGenerator(t, srv, gen)

	_, err := g.Prompts(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, 1, gen.cleared)
	assert.Equal(t, 0, primary.cleared)
	assert.Equal(t, "primary-tok", primary.Token())
}

func TestKeywordsNormalizesSections(t *testing.T) {
	t.Parallel()

	srv := &genServer{handler: func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"search_keywords":["go","rust"],"neutral_countries":null}`)
	}}
	g := newTestGenerator(t, srv, &memSession{})

	kw, err := g.Keywords(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "rust"}, kw["search_keywords"])
	for _, section := range model.KeywordSections {
		assert.NotNil(t, kw[section], section)
	}
	assert.Empty(t, kw["neutral_countries"])
}

func TestUpdateKeywordsPayload(t *testing.T) {
	t.Parallel()

	var body map[string]model.TagDiff
	srv := &genServer{handler: func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/keywords", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = io.WriteString(w, `{}`)
	}}
	g := newTestGenerator(t, srv, &memSession{})

	payload := map[string]model.TagDiff{
		"search_keywords": {Add: []string{"go"}, Remove: []string{}},
	}
	require.NoError(t, g.UpdateKeywords(context.Background(), payload))
	assert.Equal(t, payload, body)
}

func TestPromptsShapesAndSync(t *testing.T) {
	t.Parallel()

	var syncBody map[string]string
	srv := &genServer{handler: func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/prompts":
			_, _ = io.WriteString(w, `{"prompts":[{"prompt_name":"main_prompt","prompt_text":"Be kind","location":"p/main.txt"}]}`)
		case "/prompts/sync":
			_ = json.NewDecoder(r.Body).Decode(&syncBody)
			_, _ = io.WriteString(w, `{"status":"ok"}`)
		}
	}}
	g := newTestGenerator(t, srv, &memSession{})

	prompts, err := g.Prompts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.Prompt{{Name: "main_prompt", Text: "Be kind", Location: "p/main.txt"}}, prompts)

	require.NoError(t, g.SyncPrompts(context.Background(), ""))
	assert.Equal(t, map[string]string{"target": ""}, syncBody)
}

func TestRatingConfigRoundTrip(t *testing.T) {
	t.Parallel()

	var patch map[string]map[string]any
	srv := &genServer{handler: func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_, _ = io.WriteString(w, `{"budget":{"min_fixed":100}}`)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&patch)
		_, _ = io.WriteString(w, `{}`)
	}}
	g := newTestGenerator(t, srv, &memSession{})

	raw, err := g.RatingConfig(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"budget":{"min_fixed":100}}`, string(raw))

	require.NoError(t, g.UpdateRatingConfig(context.Background(), map[string]map[string]any{
		"budget": {"min_fixed": 150},
	}))
	assert.InDelta(t, 150, patch["budget"]["min_fixed"], 1e-9)
}
