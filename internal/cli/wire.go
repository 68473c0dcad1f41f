package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"pitchdesk/internal/api"
	"pitchdesk/internal/config"
	"pitchdesk/internal/logging"
	"pitchdesk/internal/session"
	"pitchdesk/internal/store"

	"golang.org/x/time/rate"
)

// open loads configuration and builds the state store, sessions and clients.
// Calling it again is a no-op.
func (app *App) open(ctx context.Context, logTo io.Writer) error {
	if app.backend != nil {
		return nil
	}
	if app.cfg == nil {
		cfg, err := config.Load(app.ConfigFile)
		if err != nil {
			return err
		}
		app.cfg = cfg
	}
	if strings.TrimSpace(app.StateDir) != "" {
		app.cfg.State.Dir = app.StateDir
	}

	if app.logger == nil {
		level := logging.ParseLevel(app.cfg.Logging.Level)
		if app.Verbose {
			level = slog.LevelDebug
		}
		if logTo == nil {
			l, closer, err := logging.NewFile(app.cfg.Logging.File, level)
			if err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
			app.logger = l
			app.closers = append(app.closers, closer)
		} else {
			app.logger = logging.New(logTo, level)
		}
	}

	kv, err := store.Store{Dir: app.cfg.State.Dir}.OpenKV(ctx)
	if err != nil {
		return fmt.Errorf("open state store: %w", err)
	}
	app.kv = kv
	app.closers = append(app.closers, kv)

	app.primary = session.NewPrimary(kv)
	app.generator = session.NewGenerator(kv)

	hc := &http.Client{Timeout: app.cfg.HTTP.Timeout}
	backendClient := api.NewClient(app.cfg.Backend.URL, app.primary,
		api.WithHTTPClient(hc),
		api.WithLogger(app.logger.With("backend", "primary")),
	)
	genClient := api.NewClient(app.cfg.Generator.URL, app.generator,
		api.WithHTTPClient(hc),
		api.WithLogger(app.logger.With("backend", "generator")),
		api.WithLimiter(rate.NewLimiter(rate.Limit(app.cfg.Generator.Rate), app.cfg.Generator.Burst)),
	)
	app.backend = api.NewBackend(backendClient, app.primary)
	app.gen = api.NewGenerator(genClient, app.generator, api.GeneratorOptions{
		Username:            app.cfg.Generator.Username,
		Password:            app.cfg.Generator.Password,
		SimilarityThreshold: app.cfg.Generator.SimilarityThreshold,
		HybridAlpha:         app.cfg.Generator.HybridAlpha,
		JobID:               app.cfg.Generator.JobID,
		CacheTTL:            app.cfg.Search.CacheTTL,
	})
	return nil
}

// openCLI wires everything with logs on stderr.
func (app *App) openCLI(ctx context.Context) error {
	return app.open(ctx, os.Stderr)
}

func (app *App) Close() error {
	var first error
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	app.closers = nil
	return first
}
