// Package session persists bearer tokens for the two backends in the local state store.
package session

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"pitchdesk/internal/store"

	"github.com/golang-jwt/jwt/v5"
)

// Session is what HTTP clients need from a token holder.
type Session interface {
	Token() string
	Valid() bool
	Clear() error
}

// Keys names the local-storage entries of one session.
type Keys struct {
	Token  string
	Expiry string
	// Role is empty for sessions that carry no role.
	Role string
}

var (
	PrimaryKeys   = Keys{Token: "authToken", Expiry: "tokenExpiry", Role: "role"}
	GeneratorKeys = Keys{Token: "geneAuthToken", Expiry: "geneTokenExpiry"}
)

// DefaultTTL is used when neither expires_in nor a JWT exp claim is available.
const DefaultTTL = time.Hour

type KVSession struct {
	kv   *store.KV
	keys Keys
	// clearSessionNamespace drops cached page state together with the tokens.
	clearSessionNamespace bool
	now                   func() time.Time
}

// NewPrimary returns the dashboard backend session; clearing it also drops the session namespace.
func NewPrimary(kv *store.KV) *KVSession {
	return &KVSession{kv: kv, keys: PrimaryKeys, clearSessionNamespace: true, now: time.Now}
}

func NewGenerator(kv *store.KV) *KVSession {
	return &KVSession{kv: kv, keys: GeneratorKeys, now: time.Now}
}

// WithClock overrides the clock used for expiry checks.
func (s *KVSession) WithClock(now func() time.Time) *KVSession {
	s.now = now
	return s
}

func (s *KVSession) get(key string) string {
	if s == nil || s.kv == nil || key == "" {
		return ""
	}
	v, _, err := s.kv.Get(context.Background(), store.NamespaceLocal, key)
	if err != nil {
		return ""
	}
	return v
}

func (s *KVSession) Token() string { return s.get(s.keys.Token) }

func (s *KVSession) Role() string { return s.get(s.keys.Role) }

// Expiry returns the stored expiry, or the zero time when absent or unparsable.
func (s *KVSession) Expiry() time.Time {
	raw := strings.TrimSpace(s.get(s.keys.Expiry))
	if raw == "" {
		return time.Time{}
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

func (s *KVSession) Valid() bool {
	if s.Token() == "" {
		return false
	}
	exp := s.Expiry()
	if exp.IsZero() {
		return false
	}
	return s.now().Before(exp)
}

// Save stores a token. A non-positive expiresIn falls back to the token's exp claim, then DefaultTTL.
func (s *KVSession) Save(token, role string, expiresIn time.Duration) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("session: empty token")
	}
	now := s.now()
	exp := now.Add(expiresIn)
	if expiresIn <= 0 {
		if claimed, ok := ExpiryFromToken(token); ok {
			exp = claimed
		} else {
			exp = now.Add(DefaultTTL)
		}
	}

	ctx := context.Background()
	if err := s.kv.Set(ctx, store.NamespaceLocal, s.keys.Token, token); err != nil {
		return err
	}
	if err := s.kv.Set(ctx, store.NamespaceLocal, s.keys.Expiry, strconv.FormatInt(exp.UnixMilli(), 10)); err != nil {
		return err
	}
	if s.keys.Role != "" {
		return s.kv.Set(ctx, store.NamespaceLocal, s.keys.Role, role)
	}
	return nil
}

func (s *KVSession) Clear() error {
	if s == nil || s.kv == nil {
		return nil
	}
	ctx := context.Background()
	keys := []string{s.keys.Token, s.keys.Expiry}
	if s.keys.Role != "" {
		keys = append(keys, s.keys.Role)
	}
	if err := s.kv.Delete(ctx, store.NamespaceLocal, keys...); err != nil {
		return err
	}
	if s.clearSessionNamespace {
		return s.kv.ClearNamespace(ctx, store.NamespaceSession)
	}
	return nil
}

// ExpiryFromToken reads the exp claim of a JWT without verifying its signature.
func ExpiryFromToken(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
