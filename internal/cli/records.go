package cli

import (
	"errors"
	"strings"

	"pitchdesk/internal/api"
	"pitchdesk/internal/dashboard"
	"pitchdesk/internal/format"
	"pitchdesk/internal/model"

	"github.com/spf13/cobra"
)

type recordsView []model.Record

func (r recordsView) Header() []string {
	return []string{"ID", "Created", "Title", "Applied", "Comments", "Link"}
}

func (r recordsView) Rows(colored bool) [][]string {
	rows := make([][]string, 0, len(r))
	for _, rec := range r {
		created := ""
		if !rec.CreatedAt.IsZero() {
			created = rec.CreatedAt.Local().Format("2006-01-02 15:04")
		}
		rows = append(rows, []string{
			rec.ID,
			created,
			format.Truncate(rec.Title, 48),
			format.Status(string(rec.Applied), colored),
			format.Truncate(strings.ReplaceAll(rec.Comments, "\n", " "), 32),
			rec.Link,
		})
	}
	return rows
}

func newRecordsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "records",
		Aliases: []string{"record", "rec"},
		Short:   "List, count and update proposal records",
	}
	cmd.AddCommand(newRecordsListCmd(app))
	cmd.AddCommand(newRecordsCountCmd(app))
	cmd.AddCommand(newRecordsUpdateCmd(app))
	return cmd
}

func newRecordsListCmd(app *App) *cobra.Command {
	var page, limit int
	var search, since string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List one page of records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			if err := app.openCLI(ctx); err != nil {
				return writeErr(cmd, err)
			}
			if err := requireLogin(app); err != nil {
				return writeErr(cmd, err)
			}
			tf, err := model.ParseTimeFilter(since)
			if err != nil {
				return writeErr(cmd, err)
			}
			if page < 1 {
				return writeErr(cmd, errors.New("--page must be >= 1"))
			}
			if limit <= 0 {
				limit = app.cfg.Dashboard.PageSize
			}

			c := dashboard.NewListController(limit)
			c.Filter = dashboard.Filter{SearchTerm: search, DebouncedSearch: search, TimeFilter: tf}
			req := c.Mount()
			req.Page = page
			res := dashboard.Load(ctx, app.backend, req)
			if err := res.Err(); err != nil {
				return writeErr(cmd, err)
			}
			c.Apply(res)

			return writeOut(cmd, app, format.Envelope{
				Data: recordsView(c.Page.Items),
				Meta: map[string]any{
					"page":       page,
					"limit":      limit,
					"totalCount": c.Page.TotalCount,
					"totalPages": c.TotalPages(),
					"timeFilter": tf,
				},
			})
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "Page number (1-based)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Page size (default: dashboard.page_size)")
	cmd.Flags().StringVar(&search, "search", "", "Search term")
	cmd.Flags().StringVar(&since, "since", "all", "Time filter (all|1h|3h|6h|12h|24h|7d|30d)")

	return cmd
}

func newRecordsCountCmd(app *App) *cobra.Command {
	var search, since string

	cmd := &cobra.Command{
		Use:   "count",
		Short: "Count records matching a filter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			if err := app.openCLI(ctx); err != nil {
				return writeErr(cmd, err)
			}
			if err := requireLogin(app); err != nil {
				return writeErr(cmd, err)
			}
			tf, err := model.ParseTimeFilter(since)
			if err != nil {
				return writeErr(cmd, err)
			}
			n, err := app.backend.CountRecords(ctx, search, tf)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeData(cmd, app, map[string]any{"count": n})
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "Search term")
	cmd.Flags().StringVar(&since, "since", "all", "Time filter (all|1h|3h|6h|12h|24h|7d|30d)")

	return cmd
}

func newRecordsUpdateCmd(app *App) *cobra.Command {
	var comments, applied string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Save comments and applied status of a record",
		Long: strings.TrimSpace(`
Save comments and applied status of a record.

The backend always receives both fields. A field not given on the command line
is taken from the dashboard page cached by the TUI; when the record is not on
that page, both flags are required.
`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			if err := app.openCLI(ctx); err != nil {
				return writeErr(cmd, err)
			}
			if err := requireLogin(app); err != nil {
				return writeErr(cmd, err)
			}
			id := strings.TrimSpace(args[0])
			haveComments := cmd.Flags().Changed("comments")
			haveApplied := cmd.Flags().Changed("applied")
			if !haveComments && !haveApplied {
				return writeErr(cmd, errors.New("nothing to update: pass --comments and/or --applied"))
			}

			payload := model.UpdatePayload{Comments: comments, Applied: model.AppliedNo}
			if haveApplied {
				a, err := model.ParseApplied(applied)
				if err != nil {
					return writeErr(cmd, err)
				}
				payload.Applied = a
			}

			if !haveComments || !haveApplied {
				cached, ok, err := cachedRecord(app, cmd, id)
				if err != nil {
					return writeErr(cmd, err)
				}
				if !ok {
					return writeErr(cmd, errNotFound("cached record", id+" (pass both --comments and --applied)"))
				}
				if !haveComments {
					payload.Comments = cached.Comments
				}
				if !haveApplied {
					payload.Applied = cached.Applied
				}
			}

			if err := app.backend.UpdateRecord(ctx, id, payload); err != nil {
				return writeErr(cmd, err)
			}
			return writeData(cmd, app, map[string]any{"id": id, "comments": payload.Comments, "applied": payload.Applied})
		},
	}

	cmd.Flags().StringVar(&comments, "comments", "", "Comments text")
	cmd.Flags().StringVar(&applied, "applied", "", "Applied status (no|yes|not_relevant)")

	return cmd
}

// cachedRecord looks id up in the dashboard snapshot. The snapshot belongs to
// another process, so it is only read here, never restored.
func cachedRecord(app *App, cmd *cobra.Command, id string) (model.Record, bool, error) {
	snap, ok, err := dashboard.NewSnapshotStore(app.kv).Load(cmdContext(cmd))
	if err != nil || !ok {
		return model.Record{}, false, err
	}
	for _, r := range snap.Items {
		if r.ID == id {
			return r, true, nil
		}
	}
	return model.Record{}, false, nil
}

var _ dashboard.Fetcher = (*api.Backend)(nil)
