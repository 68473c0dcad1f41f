package tui

import (
	"errors"
	"time"

	"pitchdesk/internal/api"
	"pitchdesk/internal/dashboard"
	"pitchdesk/internal/nav"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case toastExpireMsg:
		m.toaster.Expire(msg.seq)
		return m, nil

	case externalEditorDoneMsg:
		return m, m.applyExternalEditorResult(msg)

	case loginDoneMsg:
		return m.handleLoginDone(msg)
	case recordsLoadedMsg:
		return m.handleRecordsLoaded(msg)
	case searchDebounceMsg:
		return m.handleSearchDebounce(msg)
	case recordSavedMsg:
		return m.handleRecordSaved(msg)
	case generatedMsg:
		return m.handleGenerated(msg)
	case linksMsg:
		return m.handleLinks(msg)
	case promptsLoadedMsg, promptSavedMsg, promptsSyncedMsg,
		keywordsLoadedMsg, keywordsSavedMsg, ratingLoadedMsg, ratingSavedMsg:
		return m.handleConfigMsg(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateFocused(msg)
}

func (m appModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, keyQuit) {
		return m, tea.Quit
	}
	if m.modal != modalNone {
		return m.updateModal(msg)
	}
	if m.showHelp {
		if key.Matches(msg, keyHelp, keyBack) {
			m.showHelp = false
		}
		return m, nil
	}

	if m.route != nav.Login {
		switch {
		case key.Matches(msg, keyNextTab):
			return m, m.cycleTab(1)
		case key.Matches(msg, keyPrevTab):
			return m, m.cycleTab(-1)
		case key.Matches(msg, keyLogout):
			return m, m.logout()
		}
		if !m.typing() {
			switch s := msg.String(); {
			case key.Matches(msg, keyHelp):
				m.showHelp = true
				return m, nil
			case len(s) == 1 && s[0] >= '1' && s[0] <= '9':
				tabs := nav.VisibleTabs(m.opts.Session)
				if i := int(s[0] - '1'); i < len(tabs) {
					return m, m.navigate(string(tabs[i]))
				}
				return m, nil
			}
		}
	}

	switch m.route {
	case nav.Login:
		return m.updateLogin(msg)
	case nav.Dashboard:
		return m.updateDashboard(msg)
	case nav.Generate:
		return m.updateGenerate(msg)
	case nav.Search:
		return m.updateSearch(msg)
	case nav.Config:
		return m.updateConfig(msg)
	}
	return m, nil
}

// updateFocused forwards non-key messages (cursor blink and the like) to the focused input.
func (m appModel) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch {
	case m.modal != modalNone:
		m.modalInput, cmd = m.modalInput.Update(msg)
	case m.route == nav.Login:
		if m.login.password.Focused() {
			m.login.password, cmd = m.login.password.Update(msg)
		} else {
			m.login.username, cmd = m.login.username.Update(msg)
		}
	case m.route == nav.Dashboard && m.dash.focus == focusSearch:
		m.dash.search, cmd = m.dash.search.Update(msg)
	case m.route == nav.Search:
		m.search.query, cmd = m.search.query.Update(msg)
	}
	return m, cmd
}

// typing reports whether printable keys belong to a text input.
func (m appModel) typing() bool {
	switch m.route {
	case nav.Login, nav.Search:
		return true
	case nav.Dashboard:
		return m.dash.focus == focusSearch || m.dash.panel.Editing
	case nav.Generate:
		return m.gen.editing || m.gen.focus != genFocusResult
	case nav.Config:
		return m.cfg.promptEditing
	}
	return false
}

// navigate resolves path against the session and enters the resulting screen.
func (m *appModel) navigate(path string) tea.Cmd {
	want := nav.Parse(path)
	if want != nav.Login {
		m.requested = want
	}
	prev := m.route
	m.route = nav.Resolve(path, m.opts.Session)
	m.modal = modalNone
	m.showHelp = false
	if m.route != nav.Login && m.route != prev {
		m.uiState.Route = string(m.route)
		m.saveUIState()
	}
	return m.enterRoute(prev)
}

func (m *appModel) enterRoute(prev nav.Route) tea.Cmd {
	m.blurAll()
	switch m.route {
	case nav.Login:
		m.login.password.SetValue("")
		return m.login.username.Focus()
	case nav.Dashboard:
		if prev != nav.Dashboard {
			return m.mountDashboard()
		}
	case nav.Generate:
		m.gen.focus = genFocusDescription
		return m.gen.description.Focus()
	case nav.Search:
		return m.search.query.Focus()
	case nav.Config:
		return m.loadConfigTab(m.cfg.tab, false)
	}
	return nil
}

func (m *appModel) blurAll() {
	m.login.username.Blur()
	m.login.password.Blur()
	m.dash.search.Blur()
	m.dash.draft.Blur()
	m.gen.description.Blur()
	m.gen.questions.Blur()
	m.gen.editor.Blur()
	m.search.query.Blur()
	m.cfg.promptEditor.Blur()
	m.modalInput.Blur()
}

func (m *appModel) cycleTab(delta int) tea.Cmd {
	tabs := nav.VisibleTabs(m.opts.Session)
	if len(tabs) == 0 {
		return nil
	}
	i := 0
	for j, r := range tabs {
		if r == m.route {
			i = j
		}
	}
	i = (i + delta + len(tabs)) % len(tabs)
	return m.navigate(string(tabs[i]))
}

func (m *appModel) logout() tea.Cmd {
	if err := m.opts.Session.Clear(); err != nil {
		m.log.Warn("logout failed", "err", err)
	}
	m.dash.panel = dashboard.Panel{}
	m.dash.focus = focusList
	return tea.Batch(m.toast(dashboard.ToastInfo, "Logged out"), m.navigate(string(nav.Login)))
}

func (m *appModel) toast(kind dashboard.ToastKind, msg string) tea.Cmd {
	seq := m.toaster.Show(kind, msg)
	return tea.Tick(m.toaster.Duration, func(time.Time) tea.Msg { return toastExpireMsg{seq: seq} })
}

// startSpinner returns a tick when nothing else keeps the spinner running.
func (m *appModel) startSpinner(wasBusy bool) tea.Cmd {
	if wasBusy {
		return nil
	}
	return m.spinner.Tick
}

func errText(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

// backendError turns a dashboard-backend failure into a toast. A 401 ends the
// session and sends the user to the login screen.
func (m *appModel) backendError(err error, what string) tea.Cmd {
	if errors.Is(err, api.ErrUnauthorized) {
		if cerr := m.opts.Session.Clear(); cerr != nil {
			m.log.Warn("clear session failed", "err", cerr)
		}
		m.dash.panel = dashboard.Panel{}
		m.dash.focus = focusList
		return tea.Batch(
			m.toast(dashboard.ToastError, "Session expired. Please log in again."),
			m.navigate(string(m.route)),
		)
	}
	return m.toast(dashboard.ToastError, what+": "+errText(err))
}

// generatorError reports a generation-service failure. Its 401s only drop the
// service token, so the user stays where they are.
func (m *appModel) generatorError(err error, what string) tea.Cmd {
	return m.toast(dashboard.ToastError, what+": "+errText(err))
}

func (m *appModel) openModal(kind modalKind, placeholder, value string) tea.Cmd {
	m.modal = kind
	m.modalInput.Placeholder = placeholder
	m.modalInput.SetValue(value)
	m.modalInput.CursorEnd()
	return m.modalInput.Focus()
}

func (m *appModel) closeModal() {
	m.modal = modalNone
	m.modalInput.SetValue("")
	m.modalInput.Blur()
}

func (m appModel) updateModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closeModal()
		return m, nil
	case "enter":
		kind := m.modal
		value := m.modalInput.Value()
		m.closeModal()
		switch kind {
		case modalComments:
			return m, m.applyComments(value)
		case modalGoToPage:
			return m, m.applyGoToPage(value)
		case modalAddKeyword:
			return m, m.applyAddKeyword(value)
		case modalEditRatingValue:
			return m, m.applyRatingValue(value)
		case modalEditRule:
			return m, m.applyRule(value)
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.modalInput, cmd = m.modalInput.Update(msg)
	return m, cmd
}

func (m *appModel) resize() {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	bodyH := m.bodyHeight()

	m.login.username.Width = 36
	m.login.password.Width = 36
	m.dash.search.Width = w / 2
	m.search.query.Width = w - 12
	m.modalInput.Width = modalBodyWidth(m.width) - 4

	_, panelW := m.dashboardWidths()
	m.dash.draft.SetWidth(panelW - 2)
	m.dash.draft.SetHeight(max(bodyH/2, 6))
	m.dash.viewport.Width = panelW
	m.dash.viewport.Height = bodyH

	m.gen.description.SetWidth(w / 2)
	m.gen.questions.SetWidth(w / 2)
	m.gen.description.SetHeight(max(bodyH/2-2, 4))
	m.gen.questions.SetHeight(max(bodyH/4, 3))
	m.gen.editor.SetWidth(w - w/2 - 4)
	m.gen.editor.SetHeight(max(bodyH-4, 6))
	m.gen.viewport.Width = w - w/2 - 4
	m.gen.viewport.Height = max(bodyH-2, 4)
	m.refreshGeneratedView()

	m.cfg.promptEditor.SetWidth(w - w/3 - 4)
	m.cfg.promptEditor.SetHeight(max(bodyH-4, 6))

	m.refreshPanelView()
}

// bodyHeight is what remains after the header, tab line and footer.
func (m appModel) bodyHeight() int {
	h := m.height - 5
	if h < 8 {
		h = 8
	}
	return h
}

func modalBodyWidth(width int) int {
	w := width - 20
	if w > 70 {
		w = 70
	}
	if w < 30 {
		w = 30
	}
	return w
}
