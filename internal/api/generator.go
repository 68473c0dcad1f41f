package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"pitchdesk/internal/model"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultSearchK             = 5
	DefaultSimilarityThreshold = 0.30
	DefaultHybridAlpha         = 0.5
	DefaultJobID               = "1.98097717646467E+018"
)

type GeneratorOptions struct {
	Username string
	Password string

	SimilarityThreshold float64
	HybridAlpha         float64
	JobID               string

	// Link search cache; zero values pick 128 entries for 5 minutes.
	CacheSize int
	CacheTTL  time.Duration
}

// Generator is the generation service. It logs in with the service account on demand.
type Generator struct {
	c       *Client
	session TokenStore
	opts    GeneratorOptions

	login singleflight.Group
	links *expirable.LRU[string, []model.LinkResult]
}

func NewGenerator(c *Client, sess TokenStore, opts GeneratorOptions) *Generator {
	if opts.SimilarityThreshold == 0 {
		opts.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if opts.HybridAlpha == 0 {
		opts.HybridAlpha = DefaultHybridAlpha
	}
	if opts.JobID == "" {
		opts.JobID = DefaultJobID
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 128
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	return &Generator{
		c:       c,
		session: sess,
		opts:    opts,
		links:   expirable.NewLRU[string, []model.LinkResult](opts.CacheSize, nil, opts.CacheTTL),
	}
}

// ensureSession logs in with the service account when the stored token is missing or expired.
// Concurrent callers share a single login request.
func (g *Generator) ensureSession(ctx context.Context, service string) error {
	if g.session.Valid() {
		return nil
	}
	ok, _, _ := g.login.Do("login", func() (any, error) {
		if g.session.Valid() {
			return true, nil
		}
		if err := g.Login(ctx); err != nil {
			g.c.logger.WarnContext(ctx, "generator auto-login failed", "err", err)
			return false, nil
		}
		return true, nil
	})
	if ok.(bool) {
		return nil
	}
	return &Error{
		Status:  http.StatusUnauthorized,
		Message: "Authentication failed for " + service,
	}
}

// Login posts the configured service-account credentials and stores the token.
func (g *Generator) Login(ctx context.Context) error {
	if strings.TrimSpace(g.opts.Username) == "" || g.opts.Password == "" {
		return fmt.Errorf("generator login: no service account configured")
	}
	raw, err := g.c.Do(ctx, http.MethodPost, "/login", nil, map[string]string{
		"username": g.opts.Username,
		"password": g.opts.Password,
	})
	if err != nil {
		return err
	}
	var res LoginResult
	if err := decode(raw, &res); err != nil {
		return err
	}
	if res.Token == "" {
		return fmt.Errorf("generator login: no access token in response")
	}
	return g.session.Save(res.Token, "", time.Duration(res.ExpiresIn)*time.Second)
}

type GenerateRequest struct {
	Description string
	// Questions is free text, one question per line.
	Questions string
}

type generatePayload struct {
	ClientRequirement   string   `json:"client_requirement"`
	ScreeningQuestions  []string `json:"screening_questions"`
	SimilarityThreshold float64  `json:"similarity_threshold"`
	HybridAlpha         float64  `json:"hybrid_alpha"`
	UseSectionApproach  bool     `json:"use_section_approach"`
	JobID               string   `json:"job_id"`
}

type GenerateResult struct {
	Text string
	Raw  json.RawMessage
}

// SplitQuestions splits multi-line text into trimmed, non-empty questions.
func SplitQuestions(text string) []string {
	out := []string{}
	for _, line := range strings.Split(text, "\n") {
		if q := strings.TrimSpace(line); q != "" {
			out = append(out, q)
		}
	}
	return out
}

func (g *Generator) Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error) {
	if err := g.ensureSession(ctx, "Generator Service"); err != nil {
		return GenerateResult{}, err
	}
	raw, err := g.c.Do(ctx, http.MethodPost, "/generate", nil, generatePayload{
		ClientRequirement:   req.Description,
		ScreeningQuestions:  SplitQuestions(req.Questions),
		SimilarityThreshold: g.opts.SimilarityThreshold,
		HybridAlpha:         g.opts.HybridAlpha,
		UseSectionApproach:  true,
		JobID:               g.opts.JobID,
	})
	if err != nil {
		return GenerateResult{}, err
	}
	return GenerateResult{Text: generatedText(raw), Raw: raw}, nil
}

// generatedText picks the first of generated_proposal, proposal and result; otherwise the raw JSON.
func generatedText(raw []byte) string {
	root := gjson.ParseBytes(raw)
	if root.Type == gjson.String {
		return root.String()
	}
	for _, key := range []string{"generated_proposal", "proposal", "result"} {
		if v := root.Get(key); v.Exists() && v.Type != gjson.Null {
			if v.Type == gjson.String {
				return v.String()
			}
			return v.Raw
		}
	}
	return strings.TrimSpace(string(raw))
}

// SearchLinks returns up to k reference links for q. Blank queries return nothing.
func (g *Generator) SearchLinks(ctx context.Context, q string, k int) ([]model.LinkResult, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, nil
	}
	if k <= 0 {
		k = DefaultSearchK
	}
	key := q + "\x00" + strconv.Itoa(k)
	if cached, ok := g.links.Get(key); ok {
		return cached, nil
	}

	if err := g.ensureSession(ctx, "Search Service"); err != nil {
		return nil, err
	}
	raw, err := g.c.Do(ctx, http.MethodGet, "/search-link", url.Values{
		"q": {q},
		"k": {strconv.Itoa(k)},
	}, nil)
	if err != nil {
		return nil, err
	}

	root := gjson.ParseBytes(raw)
	if !root.IsArray() {
		root = root.Get("results")
	}
	out := []model.LinkResult{}
	for _, item := range root.Array() {
		out = append(out, model.LinkResult{
			Title:   item.Get("title").String(),
			Link:    firstString(item, "link", "url"),
			Snippet: firstString(item, "snippet", "description"),
			Source:  item.Get("source").String(),
			Score:   item.Get("score").Float(),
		})
	}
	g.links.Add(key, out)
	return out, nil
}

// Keywords returns every keyword section, with missing sections as empty lists.
func (g *Generator) Keywords(ctx context.Context) (map[string][]string, error) {
	if err := g.ensureSession(ctx, "Generator Service"); err != nil {
		return nil, err
	}
	raw, err := g.c.Do(ctx, http.MethodGet, "/keywords", nil, nil)
	if err != nil {
		return nil, err
	}
	root := gjson.ParseBytes(raw)
	out := make(map[string][]string, len(model.KeywordSections))
	for _, section := range model.KeywordSections {
		list := []string{}
		for _, v := range root.Get(section).Array() {
			list = append(list, v.String())
		}
		out[section] = list
	}
	return out, nil
}

func (g *Generator) UpdateKeywords(ctx context.Context, payload map[string]model.TagDiff) error {
	if err := g.ensureSession(ctx, "Generator Service"); err != nil {
		return err
	}
	_, err := g.c.Do(ctx, http.MethodPatch, "/keywords", nil, payload)
	return err
}

// RatingConfig returns the rating configuration as raw JSON.
func (g *Generator) RatingConfig(ctx context.Context) (json.RawMessage, error) {
	if err := g.ensureSession(ctx, "Generator Service"); err != nil {
		return nil, err
	}
	raw, err := g.c.Do(ctx, http.MethodGet, "/rating-config", nil, nil)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// UpdateRatingConfig sends {section: {field: value | {add, remove}}}.
func (g *Generator) UpdateRatingConfig(ctx context.Context, patch map[string]map[string]any) error {
	if err := g.ensureSession(ctx, "Generator Service"); err != nil {
		return err
	}
	_, err := g.c.Do(ctx, http.MethodPatch, "/rating-config", nil, patch)
	return err
}

func (g *Generator) Prompts(ctx context.Context) ([]model.Prompt, error) {
	if err := g.ensureSession(ctx, "Generator Service"); err != nil {
		return nil, err
	}
	raw, err := g.c.Do(ctx, http.MethodGet, "/prompts", nil, nil)
	if err != nil {
		return nil, err
	}
	root := gjson.ParseBytes(raw)
	if !root.IsArray() {
		root = root.Get("prompts")
	}
	out := []model.Prompt{}
	if root.Raw == "" {
		return out, nil
	}
	if err := decode([]byte(root.Raw), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SyncPrompts asks the service to reload prompts; an empty target syncs all of them.
func (g *Generator) SyncPrompts(ctx context.Context, target string) error {
	if err := g.ensureSession(ctx, "Generator Service"); err != nil {
		return err
	}
	_, err := g.c.Do(ctx, http.MethodPost, "/prompts/sync", nil, map[string]string{"target": target})
	return err
}
