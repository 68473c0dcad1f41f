package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"time"

	"pitchdesk/internal/format"
	"pitchdesk/internal/session"

	"github.com/spf13/cobra"
)

func newLoginCmd(app *App) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the dashboard backend",
		Long:  "Log in to the dashboard backend. Without --password the password is read from the first line of stdin.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.openCLI(cmdContext(cmd)); err != nil {
				return writeErr(cmd, err)
			}
			username = strings.TrimSpace(username)
			if username == "" {
				return writeErr(cmd, errors.New("missing --username"))
			}
			if password == "" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return writeErr(cmd, errors.New("missing --password (or password on stdin)"))
				}
				password = strings.TrimRight(line, "\r\n")
			}

			res, err := app.backend.Login(cmdContext(cmd), username, password)
			if err != nil {
				return writeErr(cmd, fmt.Errorf("login failed: %w", err))
			}
			return writeData(cmd, app, map[string]any{
				"username":  username,
				"role":      res.Role,
				"expiresAt": app.primary.Expiry().UTC().Format(time.RFC3339),
			})
		},
	}

	cmd.Flags().StringVar(&username, "username", envOr("PITCHDESK_USERNAME", ""), "Username")
	cmd.Flags().StringVar(&password, "password", "", "Password (default: read from stdin)")

	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the dashboard session and cached pages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.openCLI(cmdContext(cmd)); err != nil {
				return writeErr(cmd, err)
			}
			if err := app.primary.Clear(); err != nil {
				return writeErr(cmd, err)
			}
			return writeData(cmd, app, map[string]any{"loggedOut": true})
		},
	}
}

type sessionView struct {
	Backend       string `json:"backend"`
	Authenticated bool   `json:"authenticated"`
	Role          string `json:"role,omitempty"`
	ExpiresAt     string `json:"expiresAt,omitempty"`
}

type whoamiView []sessionView

func (w whoamiView) Header() []string {
	return []string{"Backend", "Status", "Role", "Expires At"}
}

func (w whoamiView) Rows(colored bool) [][]string {
	rows := make([][]string, 0, len(w))
	for _, s := range w {
		status := "expired"
		if s.Authenticated {
			status = "valid"
		}
		rows = append(rows, []string{s.Backend, format.Status(status, colored), s.Role, s.ExpiresAt})
	}
	return rows
}

func viewOf(name string, s *session.KVSession, withRole bool) sessionView {
	v := sessionView{Backend: name, Authenticated: s.Valid()}
	if withRole {
		v.Role = s.Role()
	}
	if exp := s.Expiry(); !exp.IsZero() {
		v.ExpiresAt = exp.UTC().Format(time.RFC3339)
	}
	return v
}

func newWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the state of both backend sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.openCLI(cmdContext(cmd)); err != nil {
				return writeErr(cmd, err)
			}
			return writeData(cmd, app, whoamiView{
				viewOf("primary", app.primary, true),
				viewOf("generator", app.generator, false),
			})
		},
	}
}
