// Package tui is the interactive terminal front end: login, dashboard,
// proposal generation, link search and the admin config editors.
package tui

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"pitchdesk/internal/api"
	"pitchdesk/internal/dashboard"
	"pitchdesk/internal/model"
	"pitchdesk/internal/nav"
	"pitchdesk/internal/store"

	tea "github.com/charmbracelet/bubbletea"
)

// Backend is the dashboard service as the TUI uses it. *api.Backend satisfies it.
type Backend interface {
	dashboard.Fetcher
	Login(ctx context.Context, username, password string) (api.LoginResult, error)
	UpdateRecord(ctx context.Context, id string, payload model.UpdatePayload) error
	UpdatePrompt(ctx context.Context, location, text string) error
}

// Generator is the generation service. *api.Generator satisfies it.
type Generator interface {
	Generate(ctx context.Context, req api.GenerateRequest) (api.GenerateResult, error)
	SearchLinks(ctx context.Context, q string, k int) ([]model.LinkResult, error)
	Keywords(ctx context.Context) (map[string][]string, error)
	UpdateKeywords(ctx context.Context, payload map[string]model.TagDiff) error
	RatingConfig(ctx context.Context) (json.RawMessage, error)
	UpdateRatingConfig(ctx context.Context, patch map[string]map[string]any) error
	Prompts(ctx context.Context) ([]model.Prompt, error)
	SyncPrompts(ctx context.Context, target string) error
}

// Session is the primary login.
type Session interface {
	nav.Session
	Clear() error
}

// SnapshotStore persists the dashboard list between visits of the screen.
type SnapshotStore interface {
	Load(ctx context.Context) (dashboard.Snapshot, bool, error)
	Save(ctx context.Context, snap dashboard.Snapshot) error
	Clear(ctx context.Context) error
}

type Options struct {
	Backend   Backend
	Generator Generator
	Session   Session
	Snapshots SnapshotStore
	// State holds ui_state.json; an empty Dir disables it.
	State  store.Store
	Logger *slog.Logger

	// Route is the screen to open; empty restores the last one.
	Route string

	PageSize       int
	Debounce       time.Duration
	SnapshotMaxAge time.Duration
	ToastDuration  time.Duration
	SearchK        int
}

func Run(ctx context.Context, opts Options) error {
	applyThemePreference()
	applyColorProfilePreference()

	m := newAppModel(ctx, opts)
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
