package tui

import (
	"strings"

	"pitchdesk/internal/dashboard"
	"pitchdesk/internal/docs"
	"pitchdesk/internal/nav"

	"github.com/charmbracelet/lipgloss"
)

const appName = "pitchdesk"

func (m appModel) View() string {
	if m.width == 0 {
		return ""
	}

	var body string
	switch {
	case m.showHelp:
		body = m.viewHelp()
	case m.route == nav.Login:
		body = m.viewLogin()
	case m.route == nav.Generate:
		body = m.viewGenerate()
	case m.route == nav.Search:
		body = m.viewSearch()
	case m.route == nav.Config:
		body = m.viewConfig()
	default:
		body = m.viewDashboard()
	}
	if m.modal != modalNone {
		body = m.viewModal()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.viewHeader(),
		normalizePane(body, m.width, m.height-3),
		m.viewFooter(),
	)
}

func (m appModel) viewHeader() string {
	name := lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Render(appName)
	parts := []string{name}
	if m.route != nav.Login {
		active := lipgloss.NewStyle().Bold(true).Foreground(colorSelectedFg).Background(colorSelectedBg).Padding(0, 1)
		idle := lipgloss.NewStyle().Foreground(colorChromeMutedFg).Padding(0, 1)
		for i, r := range nav.VisibleTabs(m.opts.Session) {
			label := string(rune('1'+i)) + " " + r.Title()
			if r == m.route {
				parts = append(parts, active.Render(label))
			} else {
				parts = append(parts, idle.Render(label))
			}
		}
	}
	if m.busy() {
		parts = append(parts, m.spinner.View())
	}
	return normalizePane(strings.Join(parts, " "), m.width, 1) + "\n" +
		styleMuted().Render(strings.Repeat("─", max(m.width, 0)))
}

func (m appModel) viewFooter() string {
	if t, ok := m.toaster.Current(); ok {
		bg := colorInfoBg
		switch t.Kind {
		case dashboard.ToastSuccess:
			bg = colorSuccessBg
		case dashboard.ToastError:
			bg = colorErrorBg
		}
		st := lipgloss.NewStyle().Foreground(colorAccentFg).Background(bg).Padding(0, 1)
		return normalizePane(st.Render(t.Message), m.width, 1)
	}
	if m.modal != modalNone {
		return styleMuted().Render("enter: apply   esc: cancel")
	}
	return normalizePane(m.help.ShortHelpView(m.routeKeys()), m.width, 1)
}

func (m appModel) viewModal() string {
	bodyW := modalBodyWidth(m.width)
	title := lipgloss.NewStyle().Bold(true).Render(m.modal.title())
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorCardBorder).
		Padding(1, 2).
		Render(title + "\n\n" + renderInputLine(bodyW-4, m.modalInput.View()))
	return lipgloss.Place(m.width, m.bodyHeight(), lipgloss.Center, lipgloss.Center, box)
}

func (m appModel) viewHelp() string {
	body, ok := docs.Get("keys")
	if !ok {
		return styleMuted().Render("no help for keys")
	}
	return renderMarkdown(body, min(m.width-4, 100)) + "\n\n" + styleMuted().Render("press ? or esc to close")
}
