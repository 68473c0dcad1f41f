package tui

import (
	"fmt"
	"strings"

	"pitchdesk/internal/dashboard"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func (m *appModel) submitSearch() tea.Cmd {
	q := strings.TrimSpace(m.search.query.Value())
	if q == "" {
		return nil
	}
	wasBusy := m.busy()
	m.search.busy = true
	m.search.seq++
	seq, k := m.search.seq, m.opts.SearchK
	g, ctx := m.opts.Generator, m.ctx

	m.uiState.PushRecentSearch(q)
	m.saveUIState()

	return tea.Batch(func() tea.Msg {
		links, err := g.SearchLinks(ctx, q, k)
		return linksMsg{seq: seq, query: q, links: links, err: err}
	}, m.startSpinner(wasBusy))
}

func (m appModel) handleLinks(msg linksMsg) (tea.Model, tea.Cmd) {
	if msg.seq != m.search.seq {
		return m, nil
	}
	m.search.busy = false
	if msg.err != nil {
		m.log.Warn("link search failed", "err", msg.err, "query", msg.query)
		return m, m.generatorError(msg.err, "Search failed")
	}
	m.search.lastQuery = msg.query
	m.search.results = msg.links
	m.search.cursor = 0
	if len(msg.links) == 0 {
		return m, m.toast(dashboard.ToastInfo, "No links found")
	}
	return m, nil
}

func (m appModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "enter":
		return m, m.submitSearch()
	case key.Matches(msg, keyCopyLink):
		if m.search.cursor < len(m.search.results) {
			return m, m.copy(m.search.results[m.search.cursor].Link, "Link copied")
		}
		return m, nil
	case msg.String() == "up", msg.String() == "ctrl+p":
		if m.search.cursor > 0 {
			m.search.cursor--
		}
		return m, nil
	case msg.String() == "down", msg.String() == "ctrl+n":
		if m.search.cursor < len(m.search.results)-1 {
			m.search.cursor++
		}
		return m, nil
	case msg.String() == "esc":
		m.search.query.SetValue("")
		return m, nil
	}
	var cmd tea.Cmd
	m.search.query, cmd = m.search.query.Update(msg)
	return m, cmd
}

func (m appModel) viewSearch() string {
	w := max(m.width, 60)
	lines := []string{
		"Query " + renderInputLine(w-12, m.search.query.View()),
		"",
	}
	if m.search.busy {
		lines = append(lines, m.spinner.View()+" searching…")
	}

	if len(m.search.results) == 0 {
		if len(m.uiState.RecentSearches) > 0 {
			lines = append(lines, styleMuted().Render("Recent searches"))
			for _, q := range m.uiState.RecentSearches {
				lines = append(lines, "  "+q)
			}
		}
		return normalizePane(strings.Join(lines, "\n"), w, m.bodyHeight())
	}

	lines = append(lines, styleMuted().Render(fmt.Sprintf("%d links for %q", len(m.search.results), m.search.lastQuery)), "")
	title := lipgloss.NewStyle().Bold(true)
	selected := lipgloss.NewStyle().Foreground(colorSelectedFg).Background(colorSelectedBg).Bold(true)
	for i, r := range m.search.results {
		head := fmt.Sprintf("%d. %s", i+1, emptyAs(r.Title, r.Link))
		if i == m.search.cursor {
			head = selected.Render(normalizePane(head, w-2, 1))
		} else {
			head = title.Render(head)
		}
		lines = append(lines, head, "   "+lipgloss.NewStyle().Foreground(colorAccent).Underline(true).Render(r.Link))
		if s := strings.TrimSpace(r.Snippet); s != "" {
			lines = append(lines, styleMuted().Render("   "+strings.ReplaceAll(s, "\n", " ")))
		}
		lines = append(lines, "")
	}
	return normalizePane(strings.Join(lines, "\n"), w, m.bodyHeight())
}
