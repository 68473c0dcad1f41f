package cli

import (
	"pitchdesk/internal/dashboard"
	"pitchdesk/internal/store"
	"pitchdesk/internal/tui"

	"github.com/spf13/cobra"
)

// runTUI starts the interactive program. Logs go to the configured file so they
// do not tear the alternate screen.
func runTUI(cmd *cobra.Command, app *App) error {
	ctx := cmdContext(cmd)
	if err := app.open(ctx, nil); err != nil {
		return writeErr(cmd, err)
	}
	cfg := app.cfg
	app.logger.Info("tui start", "route", app.Route, "backend", cfg.Backend.URL)

	return tui.Run(ctx, tui.Options{
		Backend:        app.backend,
		Generator:      app.gen,
		Session:        app.primary,
		Snapshots:      dashboard.NewSnapshotStore(app.kv),
		State:          store.Store{Dir: cfg.State.Dir},
		Logger:         app.logger,
		Route:          app.Route,
		PageSize:       cfg.Dashboard.PageSize,
		Debounce:       cfg.Dashboard.Debounce,
		SnapshotMaxAge: cfg.Dashboard.SnapshotMaxAge,
		ToastDuration:  cfg.Toast.Duration,
		SearchK:        cfg.Search.K,
	})
}
