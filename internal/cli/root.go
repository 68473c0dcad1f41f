package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"pitchdesk/internal/api"
	"pitchdesk/internal/config"
	"pitchdesk/internal/format"
	"pitchdesk/internal/session"
	"pitchdesk/internal/store"

	"github.com/spf13/cobra"
)

type App struct {
	ConfigFile string
	StateDir   string
	PrettyJSON bool
	Format     string
	Verbose    bool
	// Route is the screen the TUI opens on.
	Route string

	cfg       *config.Config
	logger    *slog.Logger
	kv        *store.KV
	primary   *session.KVSession
	generator *session.KVSession
	backend   *api.Backend
	gen       *api.Generator
	closers   []io.Closer
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(&App{})
}

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "pitchdesk",
		Short:        "Review, generate and tune outreach proposals (TUI + CLI)",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  pitchdesk

  # Open the TUI on a screen
  pitchdesk /config

  # Scriptable commands
  pitchdesk login --username ana
  pitchdesk records list --since 24h --search aws
  pitchdesk links "golang backend" --k 5
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		return app.Close()
	}

	cmd.PersistentFlags().StringVar(&app.ConfigFile, "config", envOr("PITCHDESK_CONFIG", ""), "Config file (default: ./.pitchdesk.yaml or ~/.config/pitchdesk/.pitchdesk.yaml)")
	cmd.PersistentFlags().StringVar(&app.StateDir, "state-dir", "", "State directory for tokens and cached pages (overrides state.dir)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("PITCHDESK_FORMAT", "json"), "Output format (json|table)")
	cmd.PersistentFlags().BoolVarP(&app.Verbose, "verbose", "v", false, "Debug logging to stderr")
	cmd.Flags().StringVar(&app.Route, "route", "", "Screen to open the TUI on (/dashboard, /generate, /search, /config)")

	cmd.AddCommand(newLoginCmd(app))
	cmd.AddCommand(newLogoutCmd(app))
	cmd.AddCommand(newWhoamiCmd(app))
	cmd.AddCommand(newRecordsCmd(app))
	cmd.AddCommand(newGenerateCmd(app))
	cmd.AddCommand(newLinksCmd(app))
	cmd.AddCommand(newKeywordsCmd(app))
	cmd.AddCommand(newRatingCmd(app))
	cmd.AddCommand(newPromptsCmd(app))
	cmd.AddCommand(newDocsCmd(app))
	cmd.AddCommand(newDoctorCmd(app))

	return cmd
}

// requireLogin fails early when the primary session is missing or expired.
func requireLogin(app *App) error {
	if app.primary.Valid() {
		return nil
	}
	return errNotLoggedIn
}

var errNotLoggedIn = errors.New("not logged in (or session expired); run `pitchdesk login`")

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeData(cmd *cobra.Command, app *App, data any) error {
	return writeOut(cmd, app, format.Envelope{Data: data})
}

func writeErr(cmd *cobra.Command, err error) error {
	if errors.Is(err, api.ErrUnauthorized) {
		err = fmt.Errorf("%w; run `pitchdesk login`", err)
	}
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
