package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"pitchdesk/internal/config"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var errDoctorIssuesFound = errors.New("doctor found problems")

type doctorCheck struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
}

type doctorView []doctorCheck

func (d doctorView) Header() []string { return []string{"Check", "OK", "Detail"} }

func (d doctorView) Rows(colored bool) [][]string {
	rows := make([][]string, 0, len(d))
	for _, c := range d {
		ok := "no"
		if c.OK {
			ok = "yes"
		}
		rows = append(rows, []string{c.Name, ok, c.Detail})
	}
	return rows
}

func newDoctorCmd(app *App) *cobra.Command {
	var fail bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, local state and backend reachability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			if err := app.openCLI(ctx); err != nil {
				return writeErr(cmd, err)
			}

			checks := doctorView{
				checkErr("config", config.Validate(app.cfg), app.cfg.State.Dir),
				{Name: "session", OK: app.primary.Valid(), Detail: sessionDetail(app)},
				{Name: "service account", OK: app.cfg.HasServiceAccount(), Detail: "generator.username / generator.password"},
			}
			checks = append(checks, probeBackends(ctx, app.cfg)...)

			bad := 0
			for _, c := range checks {
				if !c.OK {
					bad++
				}
			}
			if err := writeOut(cmd, app, map[string]any{
				"data": checks,
				"meta": map[string]any{"problems": bad},
			}); err != nil {
				return err
			}
			if fail && bad > 0 {
				return errDoctorIssuesFound
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&fail, "fail", false, "Exit with non-zero status if any check fails")
	return cmd
}

func checkErr(name string, err error, okDetail string) doctorCheck {
	if err != nil {
		return doctorCheck{Name: name, Detail: err.Error()}
	}
	return doctorCheck{Name: name, OK: true, Detail: okDetail}
}

func sessionDetail(app *App) string {
	if app.primary.Token() == "" {
		return "not logged in"
	}
	exp := app.primary.Expiry()
	if !app.primary.Valid() {
		return "expired " + exp.UTC().Format(time.RFC3339)
	}
	return "expires " + exp.UTC().Format(time.RFC3339)
}

// probeBackends checks that both base URLs answer HTTP at all; any status counts.
func probeBackends(ctx context.Context, cfg *config.Config) []doctorCheck {
	targets := []struct{ name, url string }{
		{"backend", cfg.Backend.URL},
		{"generator", cfg.Generator.URL},
	}
	out := make([]doctorCheck, len(targets))
	hc := &http.Client{Timeout: 5 * time.Second}

	var g errgroup.Group
	for i, tg := range targets {
		g.Go(func() error {
			out[i] = checkErr(tg.name, probe(ctx, hc, tg.url), tg.url)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func probe(ctx context.Context, hc *http.Client, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}
