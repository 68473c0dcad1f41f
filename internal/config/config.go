// Package config provides Viper-based configuration for pitchdesk.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pitchdesk/internal/store"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the complete pitchdesk configuration
type Config struct {
	Backend   BackendConfig   `mapstructure:"backend"`
	Generator GeneratorConfig `mapstructure:"generator"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	Search    SearchConfig    `mapstructure:"search"`
	Toast     ToastConfig     `mapstructure:"toast"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	State     StateConfig     `mapstructure:"state"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// BackendConfig points at the primary dashboard API
type BackendConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// GeneratorConfig points at the generation service and its service account
type GeneratorConfig struct {
	URL      string  `mapstructure:"url" validate:"required,url"`
	Username string  `mapstructure:"username"`
	Password string  `mapstructure:"password"`
	Rate     float64 `mapstructure:"rate" validate:"gte=0"`
	Burst    int     `mapstructure:"burst" validate:"gte=1"`

	SimilarityThreshold float64 `mapstructure:"similarity_threshold" validate:"gte=0,lte=1"`
	HybridAlpha         float64 `mapstructure:"hybrid_alpha" validate:"gte=0,lte=1"`
	JobID               string  `mapstructure:"job_id"`
}

// DashboardConfig tunes the record list
type DashboardConfig struct {
	PageSize       int           `mapstructure:"page_size" validate:"gte=1,lte=200"`
	Debounce       time.Duration `mapstructure:"debounce"`
	SnapshotMaxAge time.Duration `mapstructure:"snapshot_max_age"`
}

// SearchConfig tunes link search
type SearchConfig struct {
	K        int           `mapstructure:"k" validate:"gte=1,lte=50"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

type ToastConfig struct {
	Duration time.Duration `mapstructure:"duration"`
}

type HTTPConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// StateConfig locates the local state directory (tokens, cached pages, UI prefs)
type StateConfig struct {
	Dir string `mapstructure:"dir"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	File  string `mapstructure:"file"`
}

// Load reads .env, the config file and PITCHDESK_* environment variables, in increasing precedence.
func Load(cfgFile string) (*Config, error) {
	// .env is optional; a missing file is not an error.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}

	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(".pitchdesk")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/pitchdesk")
	}

	v.SetEnvPrefix("PITCHDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if cfg.State.Dir == "" {
		dir, err := store.StateDir()
		if err != nil {
			return nil, err
		}
		cfg.State.Dir = dir
	}
	if cfg.Logging.File == "" {
		cfg.Logging.File = filepath.Join(cfg.State.Dir, "pitchdesk.log")
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Explicit empty defaults make AutomaticEnv pick these keys up during Unmarshal.
	v.SetDefault("backend.url", "")
	v.SetDefault("generator.url", "")
	v.SetDefault("generator.username", "")
	v.SetDefault("generator.password", "")
	v.SetDefault("generator.rate", 2.0)
	v.SetDefault("generator.burst", 4)
	v.SetDefault("generator.similarity_threshold", 0.30)
	v.SetDefault("generator.hybrid_alpha", 0.5)
	v.SetDefault("generator.job_id", "1.98097717646467E+018")

	v.SetDefault("dashboard.page_size", 20)
	v.SetDefault("dashboard.debounce", 500*time.Millisecond)
	v.SetDefault("dashboard.snapshot_max_age", 30*time.Minute)

	v.SetDefault("search.k", 5)
	v.SetDefault("search.cache_ttl", 5*time.Minute)

	v.SetDefault("toast.duration", 3*time.Second)
	v.SetDefault("http.timeout", 30*time.Second)

	v.SetDefault("state.dir", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", "")
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct tags and the cross-field rules tags cannot express.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return err
	}
	if cfg.Dashboard.Debounce < 0 {
		return fmt.Errorf("dashboard.debounce must not be negative: %s", cfg.Dashboard.Debounce)
	}
	if cfg.Toast.Duration <= 0 {
		return fmt.Errorf("toast.duration must be positive: %s", cfg.Toast.Duration)
	}
	return nil
}

// HasServiceAccount reports whether generator auto-login credentials are configured.
func (c *Config) HasServiceAccount() bool {
	return strings.TrimSpace(c.Generator.Username) != "" && c.Generator.Password != ""
}
