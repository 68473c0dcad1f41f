package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

const uiStateFileName = "ui_state.json"

// UIState stores small, user-facing UI preferences restored on relaunch.
//
// It is "best effort": callers should tolerate missing/invalid data.
type UIState struct {
	Version int `json:"version"`

	// Route is the last screen path (e.g. /dashboard, /config).
	Route string `json:"route,omitempty"`

	// ConfigTab is one of: prompts|keywords|rating
	ConfigTab string `json:"configTab,omitempty"`

	// RecentSearches holds link-search queries, newest first.
	RecentSearches []string `json:"recentSearches,omitempty"`
}

const maxRecentSearches = 10

func (s Store) uiStatePath() string {
	return filepath.Join(s.Dir, uiStateFileName)
}

func (s Store) LoadUIState() (*UIState, error) {
	if strings.TrimSpace(s.Dir) == "" {
		return &UIState{Version: 1}, nil
	}
	b, err := os.ReadFile(s.uiStatePath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &UIState{Version: 1}, nil
		}
		return nil, err
	}
	var st UIState
	if err := json.Unmarshal(b, &st); err != nil {
		return &UIState{Version: 1}, nil
	}
	if st.Version == 0 {
		st.Version = 1
	}
	return &st, nil
}

func (s Store) SaveUIState(st *UIState) error {
	if st == nil || strings.TrimSpace(s.Dir) == "" {
		return nil
	}
	if err := s.Ensure(); err != nil {
		return err
	}
	if st.Version == 0 {
		st.Version = 1
	}
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return atomicWriteFile(s.Dir, "ui_state.json.*.tmp", s.uiStatePath(), b, 0o644)
}

// PushRecentSearch moves q to the front of the recent list (deduped, capped).
func (st *UIState) PushRecentSearch(q string) {
	q = strings.TrimSpace(q)
	if q == "" {
		return
	}
	out := []string{q}
	for _, prev := range st.RecentSearches {
		if prev != q {
			out = append(out, prev)
		}
	}
	if len(out) > maxRecentSearches {
		out = out[:maxRecentSearches]
	}
	st.RecentSearches = out
}

func atomicWriteFile(dir, tmpPattern, path string, b []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmp, perm)
	return os.Rename(tmp, path)
}
