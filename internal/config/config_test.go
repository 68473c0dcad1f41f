package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pitchdesk.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PITCHDESK_STATE_DIR", "")
	state := t.TempDir()
	path := writeConfig(t, `
backend:
  url: https://api.example.com
generator:
  url: https://gen.example.com
state:
  dir: `+state+`
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", cfg.Backend.URL)
	assert.Equal(t, 20, cfg.Dashboard.PageSize)
	assert.Equal(t, 500*time.Millisecond, cfg.Dashboard.Debounce)
	assert.Equal(t, 30*time.Minute, cfg.Dashboard.SnapshotMaxAge)
	assert.Equal(t, 3*time.Second, cfg.Toast.Duration)
	assert.Equal(t, 30*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, 5, cfg.Search.K)
	assert.InDelta(t, 2.0, cfg.Generator.Rate, 1e-9)
	assert.Equal(t, 4, cfg.Generator.Burst)
	assert.InDelta(t, 0.30, cfg.Generator.SimilarityThreshold, 1e-9)
	assert.InDelta(t, 0.5, cfg.Generator.HybridAlpha, 1e-9)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, filepath.Join(state, "pitchdesk.log"), cfg.Logging.File)
	assert.False(t, cfg.HasServiceAccount())
}

func TestLoadEnvOverridesFile(t *testing.T) {
	t.Chdir(t.TempDir())
	path := writeConfig(t, `
backend:
  url: https://api.example.com
generator:
  url: https://gen.example.com
`)
	t.Setenv("PITCHDESK_STATE_DIR", t.TempDir())
	t.Setenv("PITCHDESK_DASHBOARD_PAGE_SIZE", "50")
	t.Setenv("PITCHDESK_GENERATOR_USERNAME", "svc")
	t.Setenv("PITCHDESK_GENERATOR_PASSWORD", "secret")
	t.Setenv("PITCHDESK_TOAST_DURATION", "5s")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Dashboard.PageSize)
	assert.Equal(t, 5*time.Second, cfg.Toast.Duration)
	assert.True(t, cfg.HasServiceAccount())
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("PITCHDESK_STATE_DIR", t.TempDir())
	// godotenv never overrides variables that are already set, so clear them first.
	t.Setenv("PITCHDESK_BACKEND_URL", "")
	os.Unsetenv("PITCHDESK_BACKEND_URL")
	t.Setenv("PITCHDESK_GENERATOR_URL", "")
	os.Unsetenv("PITCHDESK_GENERATOR_URL")

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("PITCHDESK_BACKEND_URL=https://dotenv.example.com\nPITCHDESK_GENERATOR_URL=https://gen.example.com\n"), 0o600))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "https://dotenv.example.com", cfg.Backend.URL)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PITCHDESK_STATE_DIR", t.TempDir())

	tests := []struct {
		name string
		body string
	}{
		{"missing backend url", "generator:\n  url: https://gen.example.com\n"},
		{"bad url", "backend:\n  url: not a url\ngenerator:\n  url: https://gen.example.com\n"},
		{"page size zero", "backend:\n  url: https://a.example.com\ngenerator:\n  url: https://gen.example.com\ndashboard:\n  page_size: 0\n"},
		{"bad log level", "backend:\n  url: https://a.example.com\ngenerator:\n  url: https://gen.example.com\nlogging:\n  level: loud\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
		})
	}
}
