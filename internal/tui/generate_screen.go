package tui

import (
	"strings"

	"pitchdesk/internal/api"
	"pitchdesk/internal/dashboard"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func (m *appModel) focusGenerate(f genFocus) tea.Cmd {
	m.gen.focus = f
	m.gen.description.Blur()
	m.gen.questions.Blur()
	switch f {
	case genFocusDescription:
		return m.gen.description.Focus()
	case genFocusQuestions:
		return m.gen.questions.Focus()
	}
	return nil
}

func (m *appModel) submitGenerate() tea.Cmd {
	description := m.gen.description.Value()
	if strings.TrimSpace(description) == "" {
		return m.toast(dashboard.ToastError, "Please enter a job description")
	}
	wasBusy := m.busy()
	m.gen.busy = true
	m.gen.seq++
	seq := m.gen.seq
	g, ctx := m.opts.Generator, m.ctx
	req := api.GenerateRequest{Description: description, Questions: m.gen.questions.Value()}
	return tea.Batch(func() tea.Msg {
		res, err := g.Generate(ctx, req)
		return generatedMsg{seq: seq, res: res, err: err}
	}, m.startSpinner(wasBusy))
}

func (m appModel) handleGenerated(msg generatedMsg) (tea.Model, tea.Cmd) {
	if msg.seq != m.gen.seq {
		return m, nil
	}
	m.gen.busy = false
	if msg.err != nil {
		m.log.Warn("generate failed", "err", msg.err)
		return m, m.generatorError(msg.err, "Failed to generate proposal")
	}
	m.gen.result = msg.res.Text
	m.gen.editing = false
	m.refreshGeneratedView()
	return m, m.toast(dashboard.ToastSuccess, "Proposal generated")
}

func (m *appModel) refreshGeneratedView() {
	if strings.TrimSpace(m.gen.result) == "" {
		m.gen.viewport.SetContent(styleMuted().Render("The generated proposal appears here."))
		return
	}
	m.gen.viewport.SetContent(renderMarkdown(m.gen.result, m.gen.viewport.Width-2))
}

func (m appModel) updateGenerate(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.gen.editing {
		switch {
		case key.Matches(msg, keySave):
			m.gen.result = m.gen.editor.Value()
			m.gen.editing = false
			m.gen.editor.Blur()
			m.refreshGeneratedView()
			return m, m.toast(dashboard.ToastSuccess, "Changes saved locally.")
		case key.Matches(msg, keyEditor):
			cmd, err := m.openExternalEditor(editorGenerated)
			if err != nil {
				return m, m.toast(dashboard.ToastError, "Editor: "+err.Error())
			}
			return m, cmd
		case key.Matches(msg, keyBack):
			m.gen.editing = false
			m.gen.editor.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.gen.editor, cmd = m.gen.editor.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, keyGenerate):
		if m.gen.busy {
			return m, nil
		}
		return m, m.submitGenerate()
	case key.Matches(msg, keyFocus):
		return m, m.focusGenerate((m.gen.focus + 1) % 3)
	case key.Matches(msg, keyBack):
		return m, m.focusGenerate(genFocusResult)
	}

	var cmd tea.Cmd
	switch m.gen.focus {
	case genFocusDescription:
		m.gen.description, cmd = m.gen.description.Update(msg)
	case genFocusQuestions:
		m.gen.questions, cmd = m.gen.questions.Update(msg)
	default:
		switch {
		case key.Matches(msg, keyEdit):
			if strings.TrimSpace(m.gen.result) == "" {
				return m, nil
			}
			m.gen.editing = true
			m.gen.editor.SetValue(m.gen.result)
			return m, m.gen.editor.Focus()
		case key.Matches(msg, keyCopy):
			return m, m.copy(m.gen.result, "Proposal copied")
		}
		m.gen.viewport, cmd = m.gen.viewport.Update(msg)
	}
	return m, cmd
}

func (m appModel) viewGenerate() string {
	bodyH := m.bodyHeight()
	w := max(m.width, 60)
	leftW := w / 2

	label := func(s string, focused bool) string {
		st := lipgloss.NewStyle().Bold(true)
		if focused {
			st = st.Foreground(colorAccent)
		}
		return st.Render(s)
	}

	left := strings.Join([]string{
		label("Job description", m.gen.focus == genFocusDescription),
		m.gen.description.View(),
		"",
		label("Screening questions", m.gen.focus == genFocusQuestions),
		m.gen.questions.View(),
		"",
		styleMuted().Render("ctrl+g: generate   ctrl+n: next field   esc: result"),
	}, "\n")

	title := label("Proposal", m.gen.focus == genFocusResult)
	if m.gen.busy {
		title += " " + m.spinner.View() + " generating…"
	}
	var right string
	if m.gen.editing {
		right = strings.Join([]string{title, m.gen.editor.View(), styleMuted().Render("ctrl+s: save locally   ctrl+e: $EDITOR   esc: cancel")}, "\n")
	} else {
		right = title + "\n" + m.gen.viewport.View()
	}

	return lipgloss.JoinHorizontal(lipgloss.Top,
		normalizePane(left, leftW, bodyH),
		" ",
		normalizePane(right, w-leftW-1, bodyH),
	)
}
