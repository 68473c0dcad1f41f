// Package api talks to the dashboard backend and the generation service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pitchdesk/internal/logging"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Session is the token holder a Client reads from and clears on 401.
type Session interface {
	Token() string
	Valid() bool
	Clear() error
}

// TokenStore is a Session that can also persist a fresh login.
type TokenStore interface {
	Session
	Save(token, role string, expiresIn time.Duration) error
}

// Client sends JSON requests to one base URL with the session's bearer token.
type Client struct {
	baseURL        string
	http           *http.Client
	session        Session
	logger         *slog.Logger
	limiter        *rate.Limiter
	onUnauthorized func()
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithLimiter makes every request wait for a token from l.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithUnauthorizedHook runs fn after the session was cleared because of a 401.
func WithUnauthorizedHook(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

func NewClient(baseURL string, sess Session, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		session: sess,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do sends one request and returns the raw JSON body of a 2xx response.
// query and body may be nil.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	reqID := uuid.NewString()
	ctx = logging.WithRequestID(ctx, reqID)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if c.session != nil {
		if tok := c.session.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "request failed", "method", method, "path", path, "err", err)
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w", method, path, err)
	}
	c.logger.DebugContext(ctx, "request done",
		"method", method, "path", path, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := newError(resp.StatusCode, raw)
		c.logger.WarnContext(ctx, "request rejected",
			"method", method, "path", path, "status", resp.StatusCode, "message", apiErr.Message)
		if resp.StatusCode == http.StatusUnauthorized {
			c.unauthorized(ctx)
		}
		return nil, apiErr
	}

	if len(bytes.TrimSpace(raw)) > 0 && !json.Valid(raw) {
		return nil, fmt.Errorf("%s %s: response is not JSON", method, path)
	}
	return raw, nil
}

func (c *Client) unauthorized(ctx context.Context) {
	if c.session != nil {
		if err := c.session.Clear(); err != nil {
			c.logger.WarnContext(ctx, "clearing session after 401", "err", err)
		}
	}
	if c.onUnauthorized != nil {
		c.onUnauthorized()
	}
}

// decode unmarshals a Do result into v.
func decode(raw []byte, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
