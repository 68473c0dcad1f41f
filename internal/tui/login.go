package tui

import (
	"strings"

	"pitchdesk/internal/dashboard"
	"pitchdesk/internal/nav"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func (m appModel) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.login.busy {
		return m, nil
	}
	switch msg.String() {
	case "tab", "shift+tab", "up", "down":
		if m.login.username.Focused() {
			m.login.username.Blur()
			return m, m.login.password.Focus()
		}
		m.login.password.Blur()
		return m, m.login.username.Focus()
	case "enter":
		if m.login.username.Focused() {
			m.login.username.Blur()
			return m, m.login.password.Focus()
		}
		return m, m.submitLogin()
	}

	var cmd tea.Cmd
	if m.login.password.Focused() {
		m.login.password, cmd = m.login.password.Update(msg)
	} else {
		m.login.username, cmd = m.login.username.Update(msg)
	}
	return m, cmd
}

func (m *appModel) submitLogin() tea.Cmd {
	username := strings.TrimSpace(m.login.username.Value())
	password := m.login.password.Value()
	if username == "" || password == "" {
		return m.toast(dashboard.ToastError, "Please enter username and password")
	}
	wasBusy := m.busy()
	m.login.busy = true
	b, ctx := m.opts.Backend, m.ctx
	return tea.Batch(func() tea.Msg {
		res, err := b.Login(ctx, username, password)
		return loginDoneMsg{res: res, err: err}
	}, m.startSpinner(wasBusy))
}

func (m appModel) handleLoginDone(msg loginDoneMsg) (tea.Model, tea.Cmd) {
	m.login.busy = false
	m.login.password.SetValue("")
	if msg.err != nil {
		m.log.Warn("login failed", "err", msg.err)
		return m, m.toast(dashboard.ToastError, "Login failed: "+errText(msg.err))
	}
	target := m.requested
	if target == "" || target == nav.Login {
		target = nav.Dashboard
	}
	return m, tea.Batch(
		m.toast(dashboard.ToastSuccess, "Logged in"),
		m.navigate(string(target)),
	)
}

func (m appModel) viewLogin() string {
	label := styleMuted().Width(10)
	title := lipgloss.NewStyle().Bold(true).Render("Sign in to pitchdesk")

	status := ""
	if m.login.busy {
		status = m.spinner.View() + " Signing in…"
	}

	form := strings.Join([]string{
		title,
		"",
		lipgloss.JoinHorizontal(lipgloss.Top, label.Render("Username"), renderInputLine(40, m.login.username.View())),
		lipgloss.JoinHorizontal(lipgloss.Top, label.Render("Password"), renderInputLine(40, m.login.password.View())),
		"",
		styleMuted().Render("tab: switch field   enter: sign in   ctrl+c: quit"),
		status,
	}, "\n")

	box := lipgloss.NewStyle().
		Padding(1, 3).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorCardBorder).
		Render(form)
	return lipgloss.Place(max(m.width, 60), m.bodyHeight(), lipgloss.Center, lipgloss.Center, box)
}
