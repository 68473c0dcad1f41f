package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"pitchdesk/internal/dashboard"
	"pitchdesk/internal/model"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// mountDashboard restores the list from this process's snapshot or fetches page 1.
func (m *appModel) mountDashboard() tea.Cmd {
	m.dash.panel = dashboard.Panel{}
	m.dash.focus = focusList
	if m.opts.Snapshots != nil {
		snap, ok, err := m.opts.Snapshots.Load(m.ctx)
		if err != nil {
			m.log.Warn("load dashboard snapshot failed", "err", err)
		}
		if ok && snap.Usable(m.contextID, m.opts.PageSize, m.now(), m.opts.SnapshotMaxAge) {
			m.dash.list.Restore(snap)
			m.dash.search.SetValue(snap.SearchTerm)
			return nil
		}
	}
	return m.fetch(m.dash.list.Mount())
}

func (m *appModel) fetch(req dashboard.Request) tea.Cmd {
	b, ctx := m.opts.Backend, m.ctx
	return tea.Batch(func() tea.Msg {
		return recordsLoadedMsg{res: dashboard.Load(ctx, b, req)}
	}, m.spinner.Tick)
}

// persistSnapshot rewrites the stored list state after a change.
func (m *appModel) persistSnapshot() {
	if m.opts.Snapshots == nil || !m.opts.Session.Valid() {
		return
	}
	if err := m.opts.Snapshots.Save(m.ctx, m.dash.list.Snapshot(m.contextID, m.now())); err != nil {
		m.log.Warn("save dashboard snapshot failed", "err", err)
	}
}

func (m appModel) handleRecordsLoaded(msg recordsLoadedMsg) (tea.Model, tea.Cmd) {
	res := msg.res
	if !m.dash.list.Apply(res) {
		m.log.Debug("dropped stale records response", "seq", res.Req.Seq)
		return m, nil
	}
	m.persistSnapshot()
	if err := res.Err(); err != nil {
		m.log.Warn("dashboard fetch failed", "err", err, "page", res.Req.Page, "search", res.Req.Search)
		return m, m.backendError(err, "Failed to load records")
	}
	return m, nil
}

func (m appModel) handleSearchDebounce(msg searchDebounceMsg) (tea.Model, tea.Cmd) {
	req, ok := m.dash.list.CommitSearch(msg.token)
	if !ok {
		return m, nil
	}
	m.persistSnapshot()
	return m, m.fetch(req)
}

func (m *appModel) selected() (model.Record, bool) {
	items := m.dash.list.Page.Items
	i := m.dash.list.ScrollOffset
	if i < 0 || i >= len(items) {
		return model.Record{}, false
	}
	return items[i], true
}

// saveRecord sends the record's current comments and applied status, or queues
// one more save when a save of the same record is in flight.
func (m *appModel) saveRecord(id string) tea.Cmd {
	payload, send := m.dash.edits.BeginSave(id)
	if !send {
		return nil
	}
	b, ctx := m.opts.Backend, m.ctx
	return func() tea.Msg {
		return recordSavedMsg{id: id, err: b.UpdateRecord(ctx, id, payload)}
	}
}

func (m appModel) handleRecordSaved(msg recordSavedMsg) (tea.Model, tea.Cmd) {
	again := m.dash.edits.FinishSave(msg.id, msg.err)
	var cmds []tea.Cmd
	if msg.err != nil {
		m.log.Warn("record save failed", "err", msg.err, "id", msg.id)
		cmds = append(cmds, m.backendError(msg.err, "Failed to update record"))
	} else if !again {
		cmds = append(cmds, m.toast(dashboard.ToastSuccess, "Record updated successfully"))
	}
	if again && m.opts.Session.Valid() {
		cmds = append(cmds, m.saveRecord(msg.id))
	}
	return m, tea.Batch(cmds...)
}

func (m *appModel) applyComments(value string) tea.Cmd {
	rec, ok := m.selected()
	if !ok {
		return nil
	}
	if err := m.dash.edits.SetField(rec.ID, model.FieldComments, value); err != nil {
		return m.toast(dashboard.ToastError, err.Error())
	}
	m.persistSnapshot()
	return nil
}

func (m *appModel) applyGoToPage(value string) tea.Cmd {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return m.toast(dashboard.ToastError, "Not a page number: "+value)
	}
	req, ok := m.dash.list.GoToPage(n)
	if !ok {
		return m.toast(dashboard.ToastError, fmt.Sprintf("Page %d is out of range", n))
	}
	return m.fetch(req)
}

func (m appModel) updateDashboard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case m.dash.focus == focusSearch:
		return m.updateDashboardSearch(msg)
	case m.dash.panel.IsOpen():
		return m.updatePanel(msg)
	}

	list := m.dash.list
	switch {
	case key.Matches(msg, keyUp):
		if list.ScrollOffset > 0 {
			list.ScrollOffset--
			m.persistSnapshot()
		}
	case key.Matches(msg, keyDown):
		if list.ScrollOffset < len(list.Page.Items)-1 {
			list.ScrollOffset++
			m.persistSnapshot()
		}
	case key.Matches(msg, keyPrevPage):
		if req, ok := list.PrevPage(); ok {
			return m, m.fetch(req)
		}
	case key.Matches(msg, keyNextPage):
		if req, ok := list.NextPage(); ok {
			return m, m.fetch(req)
		}
	case key.Matches(msg, keyGoto):
		if list.TotalPages() > 1 {
			return m, m.openModal(modalGoToPage, fmt.Sprintf("Page (1-%d)", list.TotalPages()), "")
		}
	case key.Matches(msg, keySearch):
		m.dash.focus = focusSearch
		m.dash.search.CursorEnd()
		return m, m.dash.search.Focus()
	case key.Matches(msg, keyTime):
		req := list.SetTimeFilter(list.Filter.TimeFilter.Next())
		m.persistSnapshot()
		return m, m.fetch(req)
	case key.Matches(msg, keyRefresh):
		if m.opts.Snapshots != nil {
			if err := m.opts.Snapshots.Clear(m.ctx); err != nil {
				m.log.Warn("clear dashboard snapshot failed", "err", err)
			}
		}
		return m, m.fetch(list.Refresh())
	case key.Matches(msg, keyOpen):
		if rec, ok := m.selected(); ok {
			m.dash.panel.Open(rec)
			m.dash.focus = focusPanel
			m.refreshPanelView()
		}
	case key.Matches(msg, keyComments):
		if rec, ok := m.selected(); ok {
			return m, m.openModal(modalComments, "Comments", rec.Comments)
		}
	case key.Matches(msg, keyApplied):
		if rec, ok := m.selected(); ok {
			if err := m.dash.edits.SetField(rec.ID, model.FieldApplied, string(rec.Applied.Next())); err != nil {
				return m, m.toast(dashboard.ToastError, err.Error())
			}
			m.persistSnapshot()
		}
	case key.Matches(msg, keySave):
		if rec, ok := m.selected(); ok {
			return m, m.saveRecord(rec.ID)
		}
	case key.Matches(msg, keyCopy):
		if rec, ok := m.selected(); ok {
			return m, m.copy(rec.Link, "Link copied")
		}
	}
	return m, nil
}

func (m appModel) updateDashboardSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.dash.focus = focusList
		m.dash.search.Blur()
		return m, nil
	}
	before := m.dash.search.Value()
	var cmd tea.Cmd
	m.dash.search, cmd = m.dash.search.Update(msg)
	after := m.dash.search.Value()
	if after == before {
		return m, cmd
	}
	token := m.dash.list.TypeSearch(after)
	m.persistSnapshot()
	wait := m.opts.Debounce
	return m, tea.Batch(cmd, tea.Tick(wait, func(_ time.Time) tea.Msg { return searchDebounceMsg{token: token} }))
}

func (m appModel) updatePanel(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := &m.dash.panel
	if p.Editing {
		switch {
		case key.Matches(msg, keySave):
			if err := p.SetDraft(m.dash.draft.Value()); err != nil {
				return m, m.toast(dashboard.ToastError, err.Error())
			}
			if err := p.SaveEdit(m.dash.list.Page.Items); err != nil {
				return m, m.toast(dashboard.ToastError, err.Error())
			}
			m.dash.draft.Blur()
			m.persistSnapshot()
			m.refreshPanelView()
			return m, m.toast(dashboard.ToastSuccess, "Proposal updated")
		case key.Matches(msg, keyEditor):
			cmd, err := m.openExternalEditor(editorPanelDraft)
			if err != nil {
				return m, m.toast(dashboard.ToastError, "Editor: "+err.Error())
			}
			return m, cmd
		case key.Matches(msg, keyBack):
			_ = p.CancelEdit()
			m.dash.draft.Blur()
			m.refreshPanelView()
			return m, nil
		}
		var cmd tea.Cmd
		m.dash.draft, cmd = m.dash.draft.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, keyView):
		_ = p.SetViewMode(p.View.Next())
		m.refreshPanelView()
	case key.Matches(msg, keyEdit):
		if err := p.EnterEdit(); err != nil {
			return m, m.toast(dashboard.ToastError, err.Error())
		}
		m.dash.draft.SetValue(p.Draft)
		return m, m.dash.draft.Focus()
	case key.Matches(msg, keyCopy):
		return m, m.copy(p.Record.ProposalText(), "Proposal copied")
	case key.Matches(msg, keyBack):
		_ = p.Close()
		m.dash.focus = focusList
	default:
		var cmd tea.Cmd
		m.dash.viewport, cmd = m.dash.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

// dashboardWidths splits the body between the list and the open panel.
func (m appModel) dashboardWidths() (listW, panelW int) {
	w := max(m.width, 60)
	if !m.dash.panel.IsOpen() {
		return w, w / 2
	}
	listW = w * 2 / 5
	return listW, w - listW - 1
}

// refreshPanelView renders the panel content into its viewport.
func (m *appModel) refreshPanelView() {
	p := m.dash.panel
	if !p.IsOpen() {
		return
	}
	_, w := m.dashboardWidths()
	rec := p.Record

	job := strings.Join([]string{
		"# " + rec.Title,
		"",
		rec.Link,
		"",
		rec.Description,
	}, "\n")
	proposal := "## Proposal\n\n" + emptyAs(rec.ProposalText(), "_No proposal yet._")
	if rec.GeneratedProposal != nil && rec.Proposal != nil && *rec.GeneratedProposal != *rec.Proposal {
		proposal += "\n\n---\n\n_Edited. Generated text differs._"
	}

	var md string
	switch p.View {
	case dashboard.ViewJob:
		md = job
	case dashboard.ViewProposal:
		md = proposal
	default:
		md = job + "\n\n---\n\n" + proposal
	}
	m.dash.viewport.Width = w
	m.dash.viewport.SetContent(renderMarkdown(md, w-2))
	m.dash.viewport.GotoTop()
}

func emptyAs(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func appliedBadge(a model.Applied) string {
	st := lipgloss.NewStyle().Padding(0, 1)
	switch a {
	case model.AppliedYes:
		return st.Foreground(colorAccentFg).Background(colorSuccessBg).Render("yes")
	case model.AppliedNotRelevant:
		return styleMuted().Padding(0, 1).Render("n/r")
	default:
		return st.Foreground(colorSurfaceFg).Background(colorControlBg).Render("no")
	}
}

func (m appModel) viewDashboard() string {
	list := m.dash.list
	bodyH := m.bodyHeight()
	listW, panelW := m.dashboardWidths()

	total := list.TotalPages()
	status := fmt.Sprintf("%s · page %d/%d · %d records",
		list.Filter.TimeFilter.Label(), list.Page.Number, max(total, 1), list.Page.TotalCount)
	if list.Loading {
		status = m.spinner.View() + " " + status
	}
	searchLine := "Search " + renderInputLine(listW/2, m.dash.search.View())
	if m.dash.focus != focusSearch && list.Filter.SearchTerm == "" {
		searchLine = styleMuted().Render("/ to search")
	}

	rows := []string{searchLine, styleMuted().Render(status), ""}
	rowsH := bodyH - len(rows) - 2
	rows = append(rows, m.recordRows(listW, rowsH)...)
	rows = append(rows, "", renderPageMarks(list.Page.Number, total))
	left := normalizePane(strings.Join(rows, "\n"), listW, bodyH)

	if !m.dash.panel.IsOpen() {
		return left
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, left, " ", m.viewPanel(panelW, bodyH))
}

func (m appModel) recordRows(width, height int) []string {
	items := m.dash.list.Page.Items
	if len(items) == 0 {
		if m.dash.list.Loading {
			return []string{styleMuted().Render("Loading…")}
		}
		return []string{styleMuted().Render("No records.")}
	}

	// Keep the selection visible.
	start := 0
	sel := m.dash.list.ScrollOffset
	if height > 0 && sel >= height {
		start = sel - height + 1
	}
	end := len(items)
	if height > 0 && end > start+height {
		end = start + height
	}

	selected := lipgloss.NewStyle().Foreground(colorSelectedFg).Background(colorSelectedBg).Bold(true)
	out := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		rec := items[i]
		created := strings.Repeat(" ", 11)
		if !rec.CreatedAt.IsZero() {
			created = rec.CreatedAt.Local().Format("01-02 15:04")
		}
		mark := " "
		switch {
		case m.dash.edits.Saving(rec.ID):
			mark = "↻"
		case m.dash.edits.Unsaved(rec.ID):
			mark = "*"
		}
		line := fmt.Sprintf("%s %s %s %s", mark, created, appliedBadge(rec.Applied), rec.Title)
		if c := strings.TrimSpace(rec.Comments); c != "" {
			line += styleMuted().Render("  · " + strings.ReplaceAll(c, "\n", " "))
		}
		line = normalizePane(line, width, 1)
		if i == sel {
			line = selected.Render(line)
		}
		out = append(out, line)
	}
	return out
}

func renderPageMarks(page, total int) string {
	if total <= 1 {
		return ""
	}
	cur := lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	parts := []string{"‹"}
	for _, p := range dashboard.PageMarks(page, total) {
		switch {
		case p == dashboard.Ellipsis:
			parts = append(parts, "…")
		case p == page:
			parts = append(parts, cur.Render("["+strconv.Itoa(p)+"]"))
		default:
			parts = append(parts, strconv.Itoa(p))
		}
	}
	parts = append(parts, "›")
	return strings.Join(parts, " ")
}

func (m appModel) viewPanel(width, height int) string {
	p := m.dash.panel
	header := lipgloss.NewStyle().Bold(true).Render(string(p.View)+" view") +
		styleMuted().Render("  v: cycle  e: edit  y: copy  esc: close")
	if !p.Editing {
		return normalizePane(header+"\n"+m.dash.viewport.View(), width, height)
	}
	job := renderMarkdown("# "+p.Record.Title, width-2)
	body := strings.Join([]string{
		header,
		job,
		m.dash.draft.View(),
		styleMuted().Render("ctrl+s: save   ctrl+e: $EDITOR   esc: cancel"),
	}, "\n")
	return normalizePane(body, width, height)
}
