package tui

import (
	"fmt"
	"strings"

	"pitchdesk/internal/configedit"
	"pitchdesk/internal/dashboard"
	"pitchdesk/internal/model"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// loadConfigTab fetches the data of tab once, or again when force is set.
func (m *appModel) loadConfigTab(tab configTab, force bool) tea.Cmd {
	if m.cfg.loading[tab] || (m.cfg.loaded[tab] && !force) {
		return nil
	}
	wasBusy := m.busy()
	m.cfg.loading[tab] = true
	g, ctx := m.opts.Generator, m.ctx

	var load tea.Cmd
	switch tab {
	case tabKeywords:
		load = func() tea.Msg {
			data, err := g.Keywords(ctx)
			return keywordsLoadedMsg{data: data, err: err}
		}
	case tabRating:
		load = func() tea.Msg {
			raw, err := g.RatingConfig(ctx)
			return ratingLoadedMsg{raw: raw, err: err}
		}
	default:
		load = func() tea.Msg {
			prompts, err := g.Prompts(ctx)
			return promptsLoadedMsg{prompts: prompts, err: err}
		}
	}
	return tea.Batch(load, m.startSpinner(wasBusy))
}

func (m *appModel) switchConfigTab(delta int) tea.Cmd {
	i := 0
	for j, t := range configTabs {
		if t == m.cfg.tab {
			i = j
		}
	}
	m.cfg.tab = configTabs[(i+delta+len(configTabs))%len(configTabs)]
	m.uiState.ConfigTab = string(m.cfg.tab)
	m.saveUIState()
	return m.loadConfigTab(m.cfg.tab, false)
}

func (m appModel) handleConfigMsg(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case promptsLoadedMsg:
		m.cfg.loading[tabPrompts] = false
		if msg.err != nil {
			m.log.Warn("load prompts failed", "err", msg.err)
			return m, m.generatorError(msg.err, "Failed to load prompts")
		}
		m.cfg.loaded[tabPrompts] = true
		m.cfg.prompts = msg.prompts
		m.cfg.promptCursor = clampIndex(m.cfg.promptCursor, len(msg.prompts))

	case promptSavedMsg:
		if msg.err != nil {
			m.log.Warn("save prompt failed", "err", msg.err, "location", msg.location)
			return m, m.backendError(msg.err, "Failed to update prompt")
		}
		for i := range m.cfg.prompts {
			if m.cfg.prompts[i].Location == msg.location {
				m.cfg.prompts[i].Text = msg.text
			}
		}
		return m, m.toast(dashboard.ToastSuccess, "Prompt updated")

	case promptsSyncedMsg:
		m.cfg.syncing = false
		if msg.err != nil {
			m.log.Warn("sync prompts failed", "err", msg.err, "target", msg.target)
			return m, m.generatorError(msg.err, "Failed to sync prompts")
		}
		what := "All prompts"
		if msg.target != "" {
			what = "Main prompt"
		}
		return m, tea.Batch(m.toast(dashboard.ToastSuccess, what+" synced"), m.loadConfigTab(tabPrompts, true))

	case keywordsLoadedMsg:
		m.cfg.loading[tabKeywords] = false
		if msg.err != nil {
			m.log.Warn("load keywords failed", "err", msg.err)
			return m, m.generatorError(msg.err, "Failed to load keywords")
		}
		m.cfg.loaded[tabKeywords] = true
		m.cfg.keywords = configedit.NewKeywordSets(msg.data)
		m.cfg.kwCursor = 0

	case keywordsSavedMsg:
		m.cfg.kwSaving = false
		if msg.err != nil {
			m.log.Warn("save keywords failed", "err", msg.err)
			return m, m.generatorError(msg.err, "Failed to update keywords")
		}
		// A reload during the save replaced the editor; its baseline is already fresh.
		if m.cfg.keywords == msg.editor {
			m.cfg.keywords.CommitTo(msg.sent)
		}
		return m, m.toast(dashboard.ToastSuccess, "Keywords updated")

	case ratingLoadedMsg:
		m.cfg.loading[tabRating] = false
		if msg.err != nil {
			m.log.Warn("load rating config failed", "err", msg.err)
			return m, m.generatorError(msg.err, "Failed to load rating config")
		}
		rc, err := configedit.ParseRatingConfig(msg.raw)
		if err != nil {
			return m, m.toast(dashboard.ToastError, err.Error())
		}
		m.cfg.loaded[tabRating] = true
		m.cfg.rating = rc
		m.rebuildRatingRows()

	case ratingSavedMsg:
		m.cfg.ratingSaving = false
		if msg.err != nil {
			m.log.Warn("save rating config failed", "err", msg.err)
			return m, m.generatorError(msg.err, "Failed to update rating config")
		}
		if m.cfg.rating == msg.editor {
			m.cfg.rating.CommitTo(msg.sent)
		}
		return m, m.toast(dashboard.ToastSuccess, "Rating config updated")
	}
	return m, nil
}

func clampIndex(i, n int) int {
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

func (m appModel) updateConfig(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.cfg.promptEditing {
		return m.updatePromptEditor(msg)
	}
	switch {
	case key.Matches(msg, keyTabLeft):
		return m, m.switchConfigTab(-1)
	case key.Matches(msg, keyTabRight):
		return m, m.switchConfigTab(1)
	case key.Matches(msg, keyRefresh):
		return m, m.loadConfigTab(m.cfg.tab, true)
	}
	switch m.cfg.tab {
	case tabKeywords:
		return m.updateKeywords(msg)
	case tabRating:
		return m.updateRating(msg)
	default:
		return m.updatePrompts(msg)
	}
}

// Prompts tab.

func (m appModel) updatePrompts(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keyUp):
		m.cfg.promptCursor = clampIndex(m.cfg.promptCursor-1, len(m.cfg.prompts))
	case key.Matches(msg, keyDown):
		m.cfg.promptCursor = clampIndex(m.cfg.promptCursor+1, len(m.cfg.prompts))
	case key.Matches(msg, keyOpen):
		if m.cfg.promptCursor < len(m.cfg.prompts) {
			m.cfg.promptEditing = true
			m.cfg.promptEditor.SetValue(m.cfg.prompts[m.cfg.promptCursor].Text)
			return m, m.cfg.promptEditor.Focus()
		}
	case key.Matches(msg, keySyncMain):
		return m, m.syncPrompts("main_prompt")
	case key.Matches(msg, keySyncAll):
		return m, m.syncPrompts("")
	}
	return m, nil
}

func (m *appModel) syncPrompts(target string) tea.Cmd {
	if m.cfg.syncing {
		return nil
	}
	wasBusy := m.busy()
	m.cfg.syncing = true
	g, ctx := m.opts.Generator, m.ctx
	return tea.Batch(func() tea.Msg {
		return promptsSyncedMsg{target: target, err: g.SyncPrompts(ctx, target)}
	}, m.startSpinner(wasBusy))
}

func (m appModel) updatePromptEditor(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keySave):
		if m.cfg.promptCursor >= len(m.cfg.prompts) {
			return m, nil
		}
		location := m.cfg.prompts[m.cfg.promptCursor].Location
		text := m.cfg.promptEditor.Value()
		m.cfg.promptEditing = false
		m.cfg.promptEditor.Blur()
		b, ctx := m.opts.Backend, m.ctx
		return m, func() tea.Msg {
			return promptSavedMsg{location: location, text: text, err: b.UpdatePrompt(ctx, location, text)}
		}
	case key.Matches(msg, keyEditor):
		cmd, err := m.openExternalEditor(editorPrompt)
		if err != nil {
			return m, m.toast(dashboard.ToastError, "Editor: "+err.Error())
		}
		return m, cmd
	case key.Matches(msg, keyBack):
		m.cfg.promptEditing = false
		m.cfg.promptEditor.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.cfg.promptEditor, cmd = m.cfg.promptEditor.Update(msg)
	return m, cmd
}

// Keywords tab.

func (m appModel) currentTags() (*configedit.TagSet, string) {
	if m.cfg.keywords == nil {
		return nil, ""
	}
	sections := m.cfg.keywords.Sections()
	if len(sections) == 0 {
		return nil, ""
	}
	name := sections[clampIndex(m.cfg.kwSection, len(sections))]
	return m.cfg.keywords.Section(name), name
}

func (m appModel) updateKeywords(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	tags, _ := m.currentTags()
	if tags == nil {
		return m, nil
	}
	n := len(m.cfg.keywords.Sections())
	switch msg.String() {
	case "left", "[":
		m.cfg.kwSection = (m.cfg.kwSection - 1 + n) % n
		m.cfg.kwCursor = 0
		return m, nil
	case "right", "]":
		m.cfg.kwSection = (m.cfg.kwSection + 1) % n
		m.cfg.kwCursor = 0
		return m, nil
	}
	switch {
	case key.Matches(msg, keyUp):
		m.cfg.kwCursor = clampIndex(m.cfg.kwCursor-1, tags.Len())
	case key.Matches(msg, keyDown):
		m.cfg.kwCursor = clampIndex(m.cfg.kwCursor+1, tags.Len())
	case key.Matches(msg, keyAdd):
		return m, m.openModal(modalAddKeyword, "New keyword", "")
	case key.Matches(msg, keyDelete):
		items := tags.Items()
		if m.cfg.kwCursor < len(items) {
			tags.Remove(items[m.cfg.kwCursor])
			m.cfg.kwCursor = clampIndex(m.cfg.kwCursor, tags.Len())
		}
	case key.Matches(msg, keySave):
		if m.cfg.kwSaving {
			return m, m.toast(dashboard.ToastInfo, "Save in progress")
		}
		if !m.cfg.keywords.Dirty() {
			return m, m.toast(dashboard.ToastInfo, "No changes to save")
		}
		editor := m.cfg.keywords
		payload, sent := editor.Payload(), editor.Snapshot()
		wasBusy := m.busy()
		m.cfg.kwSaving = true
		g, ctx := m.opts.Generator, m.ctx
		return m, tea.Batch(func() tea.Msg {
			return keywordsSavedMsg{editor: editor, sent: sent, err: g.UpdateKeywords(ctx, payload)}
		}, m.startSpinner(wasBusy))
	}
	return m, nil
}

func (m *appModel) applyAddKeyword(value string) tea.Cmd {
	tags, name := m.currentTags()
	if tags == nil {
		return nil
	}
	if !tags.Add(value) {
		if strings.TrimSpace(value) == "" {
			return nil
		}
		return m.toast(dashboard.ToastInfo, fmt.Sprintf("%q is already in %s", strings.TrimSpace(value), model.SectionLabel(name)))
	}
	m.cfg.kwCursor = tags.Len() - 1
	return nil
}

// Rating tab.

func (m *appModel) rebuildRatingRows() {
	rows := []ratingRow{}
	if m.cfg.rating != nil {
		for _, s := range m.cfg.rating.Sections() {
			for _, f := range m.cfg.rating.Fields(s) {
				rows = append(rows, ratingRow{field: f, rule: -1})
				if f.Kind == configedit.KindRules {
					for i := 0; i < f.Rules.Len(); i++ {
						rows = append(rows, ratingRow{field: f, rule: i})
					}
				}
			}
		}
	}
	m.cfg.ratingRows = rows
	m.cfg.ratingCursor = clampIndex(m.cfg.ratingCursor, len(rows))
}

func (m appModel) currentRatingRow() (ratingRow, bool) {
	if m.cfg.ratingCursor < 0 || m.cfg.ratingCursor >= len(m.cfg.ratingRows) {
		return ratingRow{}, false
	}
	return m.cfg.ratingRows[m.cfg.ratingCursor], true
}

func ruleText(d configedit.RuleDraft) string {
	return strings.TrimSpace(d.Operator + " " + d.Threshold + " " + d.Score)
}

func (m appModel) updateRating(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	row, ok := m.currentRatingRow()
	switch {
	case key.Matches(msg, keyUp):
		m.cfg.ratingCursor = clampIndex(m.cfg.ratingCursor-1, len(m.cfg.ratingRows))
	case key.Matches(msg, keyDown):
		m.cfg.ratingCursor = clampIndex(m.cfg.ratingCursor+1, len(m.cfg.ratingRows))
	case !ok:
		return m, nil
	case key.Matches(msg, keyOpen):
		f := row.field
		switch {
		case row.rule >= 0:
			return m, m.openModal(modalEditRule, "operator threshold score", ruleText(f.Rules.Rows()[row.rule]))
		case f.Kind == configedit.KindTags:
			return m, m.openModal(modalEditRatingValue, "comma separated values", strings.Join(f.Tags.Items(), ", "))
		case f.Kind != configedit.KindRules:
			return m, m.openModal(modalEditRatingValue, f.Kind.String(), f.Value)
		}
	case key.Matches(msg, keyAdd):
		if row.field.Kind == configedit.KindRules {
			row.field.Rules.AddRule()
			m.rebuildRatingRows()
		}
	case key.Matches(msg, keyDelete):
		if row.rule >= 0 {
			if err := row.field.Rules.RemoveRule(row.rule); err != nil {
				return m, m.toast(dashboard.ToastError, err.Error())
			}
			m.rebuildRatingRows()
		}
	case key.Matches(msg, keySave):
		if m.cfg.ratingSaving {
			return m, m.toast(dashboard.ToastInfo, "Save in progress")
		}
		if !m.cfg.rating.Dirty() {
			return m, m.toast(dashboard.ToastInfo, "No changes to save")
		}
		editor := m.cfg.rating
		patch, err := editor.Payload()
		if err != nil {
			return m, m.toast(dashboard.ToastError, err.Error())
		}
		sent := editor.Snapshot()
		wasBusy := m.busy()
		m.cfg.ratingSaving = true
		g, ctx := m.opts.Generator, m.ctx
		return m, tea.Batch(func() tea.Msg {
			return ratingSavedMsg{editor: editor, sent: sent, err: g.UpdateRatingConfig(ctx, patch)}
		}, m.startSpinner(wasBusy))
	}
	return m, nil
}

func (m *appModel) applyRatingValue(value string) tea.Cmd {
	row, ok := m.currentRatingRow()
	if !ok {
		return nil
	}
	f := row.field
	if f.Kind == configedit.KindTags {
		want := map[string]bool{}
		for _, v := range strings.Split(value, ",") {
			if v = strings.TrimSpace(v); v != "" {
				want[v] = true
			}
		}
		for _, v := range f.Tags.Items() {
			if !want[v] {
				f.Tags.Remove(v)
			}
		}
		for _, v := range strings.Split(value, ",") {
			f.Tags.Add(v)
		}
		return nil
	}
	if err := m.cfg.rating.SetScalar(f.Section, f.Name, value); err != nil {
		return m.toast(dashboard.ToastError, err.Error())
	}
	return nil
}

// applyRule parses "op threshold score"; missing numbers stay empty and count as 0 on save.
func (m *appModel) applyRule(value string) tea.Cmd {
	row, ok := m.currentRatingRow()
	if !ok || row.rule < 0 {
		return nil
	}
	parts := strings.Fields(value)
	for len(parts) < 3 {
		parts = append(parts, "")
	}
	if _, err := model.ParseOperator(parts[0]); err != nil {
		return m.toast(dashboard.ToastError, err.Error())
	}
	rules := row.field.Rules
	for i, f := range []configedit.RuleField{configedit.RuleOperator, configedit.RuleThreshold, configedit.RuleScore} {
		if err := rules.UpdateRule(row.rule, f, parts[i]); err != nil {
			return m.toast(dashboard.ToastError, err.Error())
		}
	}
	return nil
}

// Views.

func (m appModel) viewConfig() string {
	w := max(m.width, 60)
	bodyH := m.bodyHeight()

	tabs := make([]string, 0, len(configTabs))
	active := lipgloss.NewStyle().Bold(true).Foreground(colorAccentFg).Background(colorAccent).Padding(0, 1)
	idle := lipgloss.NewStyle().Padding(0, 1).Foreground(colorChromeMutedFg)
	for _, t := range configTabs {
		if t == m.cfg.tab {
			tabs = append(tabs, active.Render(t.title()))
		} else {
			tabs = append(tabs, idle.Render(t.title()))
		}
	}
	head := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
	if m.cfg.loading[m.cfg.tab] || m.cfg.syncing || m.cfg.kwSaving || m.cfg.ratingSaving {
		head += "  " + m.spinner.View()
	}

	var body string
	switch m.cfg.tab {
	case tabKeywords:
		body = m.viewKeywords(w)
	case tabRating:
		body = m.viewRating(w, bodyH-2)
	default:
		body = m.viewPrompts(w, bodyH-2)
	}
	return normalizePane(head+"\n\n"+body, w, bodyH)
}

func (m appModel) viewPrompts(w, h int) string {
	if len(m.cfg.prompts) == 0 {
		return styleMuted().Render("No prompts.")
	}
	leftW := w / 3
	selected := lipgloss.NewStyle().Foreground(colorSelectedFg).Background(colorSelectedBg).Bold(true)
	rows := []string{}
	for i, p := range m.cfg.prompts {
		line := normalizePane(emptyAs(p.Name, p.Location), leftW, 1)
		if i == m.cfg.promptCursor {
			line = selected.Render(line)
		}
		rows = append(rows, line)
	}
	rows = append(rows, "", styleMuted().Render("enter: edit  s: sync main  S: sync all"))

	var right string
	if m.cfg.promptEditing {
		right = m.cfg.promptEditor.View() + "\n" + styleMuted().Render("ctrl+s: save   ctrl+e: $EDITOR   esc: cancel")
	} else if m.cfg.promptCursor < len(m.cfg.prompts) {
		p := m.cfg.prompts[m.cfg.promptCursor]
		right = styleMuted().Render(p.Location) + "\n" + renderMarkdown(p.Text, w-leftW-4)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		normalizePane(strings.Join(rows, "\n"), leftW, h),
		"  ",
		normalizePane(right, w-leftW-2, h),
	)
}

func (m appModel) viewKeywords(w int) string {
	tags, current := m.currentTags()
	if tags == nil {
		return styleMuted().Render("No keywords.")
	}
	sectionTabs := []string{}
	for _, s := range m.cfg.keywords.Sections() {
		label := model.SectionLabel(s)
		if m.cfg.keywords.Section(s).Dirty() {
			label += "*"
		}
		if s == current {
			label = lipgloss.NewStyle().Bold(true).Underline(true).Render(label)
		} else {
			label = styleMuted().Render(label)
		}
		sectionTabs = append(sectionTabs, label)
	}

	selected := lipgloss.NewStyle().Foreground(colorSelectedFg).Background(colorSelectedBg)
	lines := []string{strings.Join(sectionTabs, "  "), ""}
	for i, v := range tags.Items() {
		line := "  " + v
		if i == m.cfg.kwCursor {
			line = selected.Render(normalizePane(line, w/2, 1))
		}
		lines = append(lines, line)
	}
	if tags.Len() == 0 {
		lines = append(lines, styleMuted().Render("  (empty)"))
	}
	diff := tags.Diff()
	if !diff.Empty() {
		lines = append(lines, "", styleMuted().Render(fmt.Sprintf("+%d −%d unsaved", len(diff.Add), len(diff.Remove))))
	}
	lines = append(lines, "", styleMuted().Render("←/→: section  a: add  d: remove  ctrl+s: save"))
	return strings.Join(lines, "\n")
}

func (m appModel) viewRating(w, h int) string {
	if len(m.cfg.ratingRows) == 0 {
		return styleMuted().Render("No rating fields.")
	}
	selected := lipgloss.NewStyle().Foreground(colorSelectedFg).Background(colorSelectedBg)
	section := ""
	lines := []string{}
	for i, row := range m.cfg.ratingRows {
		f := row.field
		if f.Section != section && row.rule < 0 {
			section = f.Section
			lines = append(lines, lipgloss.NewStyle().Bold(true).Render(model.SectionLabel(section)))
		}
		var line string
		switch {
		case row.rule >= 0:
			line = "      " + ruleText(f.Rules.Rows()[row.rule])
		case f.Kind == configedit.KindRules:
			line = fmt.Sprintf("  %s (%d rules)", f.Name, f.Rules.Len())
		case f.Kind == configedit.KindTags:
			line = fmt.Sprintf("  %s: %s", f.Name, strings.Join(f.Tags.Items(), ", "))
		default:
			line = fmt.Sprintf("  %s: %s", f.Name, f.Value)
		}
		if row.rule < 0 && f.Dirty() {
			line += " *"
		}
		if i == m.cfg.ratingCursor {
			line = selected.Render(normalizePane(line, w-2, 1))
		}
		lines = append(lines, line)
	}

	// Keep the cursor on screen.
	start := 0
	if over := m.cfg.ratingCursor + len(lines) - len(m.cfg.ratingRows) - h + 3; over > 0 {
		start = over
	}
	if start > len(lines) {
		start = len(lines)
	}
	lines = append(lines[start:], "", styleMuted().Render("enter: edit  a: add rule  d: remove rule  ctrl+s: save"))
	return strings.Join(lines, "\n")
}
