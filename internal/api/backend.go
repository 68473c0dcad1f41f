package api

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"pitchdesk/internal/model"

	"github.com/microcosm-cc/bluemonday"
	"github.com/tidwall/gjson"
)

// Backend is the primary dashboard API.
type Backend struct {
	c        *Client
	session  TokenStore
	sanitize *bluemonday.Policy
}

func NewBackend(c *Client, sess TokenStore) *Backend {
	return &Backend{c: c, session: sess, sanitize: bluemonday.StrictPolicy()}
}

type LoginResult struct {
	Token     string `json:"access_token"`
	Role      string `json:"role"`
	ExpiresIn int64  `json:"expires_in"`
}

// Login authenticates and stores the token, role and expiry in the primary session.
func (b *Backend) Login(ctx context.Context, username, password string) (LoginResult, error) {
	raw, err := b.c.Do(ctx, http.MethodPost, "/auth/login", nil, map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return LoginResult{}, err
	}
	var res LoginResult
	if err := decode(raw, &res); err != nil {
		return LoginResult{}, err
	}
	if res.Token == "" {
		return LoginResult{}, errors.New("login response carried no access token")
	}
	if err := b.session.Save(res.Token, res.Role, time.Duration(res.ExpiresIn)*time.Second); err != nil {
		return LoginResult{}, fmt.Errorf("store session: %w", err)
	}
	return res, nil
}

type Query struct {
	Page       int
	Limit      int
	Search     string
	TimeFilter model.TimeFilter
}

func (q Query) values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	v.Set("search", q.Search)
	tf := q.TimeFilter
	if tf == "" {
		tf = model.TimeAll
	}
	v.Set("time_filter", string(tf))
	return v
}

// ListRecords fetches one page of records.
func (b *Backend) ListRecords(ctx context.Context, q Query) ([]model.Record, error) {
	raw, err := b.c.Do(ctx, http.MethodGet, "/dashboard/all", q.values(), nil)
	if err != nil {
		return nil, err
	}
	root := gjson.ParseBytes(raw)
	if !root.IsArray() {
		for _, key := range []string{"data", "items", "records"} {
			if v := root.Get(key); v.IsArray() {
				root = v
				break
			}
		}
	}
	if !root.IsArray() {
		return nil, errors.New("list records: response is not an array")
	}

	out := make([]model.Record, 0, len(root.Array()))
	for _, item := range root.Array() {
		out = append(out, b.recordFrom(item))
	}
	return out, nil
}

func (b *Backend) recordFrom(item gjson.Result) model.Record {
	rec := model.Record{
		ID:          item.Get("id").String(),
		Title:       item.Get("title").String(),
		Description: b.plainText(item.Get("description").String()),
		Link:        firstString(item, "url", "link"),
		Comments:    item.Get("comments").String(),
		Applied:     model.AppliedNo,
	}
	if a, err := model.ParseApplied(item.Get("applied").String()); err == nil {
		rec.Applied = a
	}
	for _, key := range []string{"proposal", "proposal_1"} {
		if v := item.Get(key); v.Exists() && v.Type != gjson.Null {
			text := v.String()
			rec.Proposal = &text
			generated := text
			rec.GeneratedProposal = &generated
			break
		}
	}
	if ts := firstString(item, "created_date_time", "created_at"); ts != "" {
		rec.CreatedAt = parseTime(ts)
	}
	return rec
}

// plainText strips markup for terminal display. The policy escapes entities
// for HTML output, so they are decoded again afterwards.
func (b *Backend) plainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(b.sanitize.Sanitize(s)))
}

func firstString(item gjson.Result, keys ...string) string {
	for _, k := range keys {
		if v := item.Get(k); v.Exists() && v.Type != gjson.Null {
			if s := v.String(); s != "" {
				return s
			}
		}
	}
	return ""
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTime accepts the timestamp shapes the backend has been seen to send; zero on failure.
func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// CountRecords accepts both {"count": n} and a bare n.
func (b *Backend) CountRecords(ctx context.Context, search string, tf model.TimeFilter) (int, error) {
	q := Query{Search: search, TimeFilter: tf}
	raw, err := b.c.Do(ctx, http.MethodGet, "/dashboard/count", q.values(), nil)
	if err != nil {
		return 0, err
	}
	root := gjson.ParseBytes(raw)
	if root.Type == gjson.Number {
		return int(root.Int()), nil
	}
	if v := root.Get("count"); v.Type == gjson.Number {
		return int(v.Int()), nil
	}
	return 0, fmt.Errorf("count records: unexpected response %s", strings.TrimSpace(string(raw)))
}

func (b *Backend) UpdateRecord(ctx context.Context, id string, payload model.UpdatePayload) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("update record: missing id")
	}
	_, err := b.c.Do(ctx, http.MethodPatch, "/dashboard/update/"+url.PathEscape(id), nil, payload)
	return err
}

// UpdatePrompt replaces the text of the prompt stored at location.
func (b *Backend) UpdatePrompt(ctx context.Context, location, text string) error {
	if strings.TrimSpace(location) == "" {
		return errors.New("update prompt: missing location")
	}
	_, err := b.c.Do(ctx, http.MethodPatch, "/prompts/update", nil, map[string]string{
		"location":    location,
		"prompt_text": text,
	})
	return err
}
