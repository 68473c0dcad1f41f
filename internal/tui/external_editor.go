package tui

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"unicode"

	"pitchdesk/internal/dashboard"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
)

type externalEditorDoneMsg struct {
	err error
}

func externalEditorName() string {
	for _, k := range []string{"VISUAL", "EDITOR"} {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return "vi"
}

// editorTextarea returns the textarea a target edits, or nil for editorNone.
func (m *appModel) editorTextarea(target editorTarget) *textarea.Model {
	switch target {
	case editorPanelDraft:
		return &m.dash.draft
	case editorPrompt:
		return &m.cfg.promptEditor
	case editorGenerated:
		return &m.gen.editor
	}
	return nil
}

// openExternalEditor suspends the program and edits the target's text in
// $VISUAL/$EDITOR through a temporary markdown file.
func (m *appModel) openExternalEditor(target editorTarget) (tea.Cmd, error) {
	ta := m.editorTextarea(target)
	if ta == nil {
		return nil, fmt.Errorf("nothing to edit")
	}
	args := splitShellWords(externalEditorName())
	if len(args) == 0 {
		args = []string{"vi"}
	}

	f, err := os.CreateTemp("", "pitchdesk-*.md")
	if err != nil {
		return nil, err
	}
	path := f.Name()
	if _, err := f.WriteString(ta.Value()); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return nil, err
	}
	_ = f.Close()

	m.externalEditorPath = path
	m.externalEditorBefore = ta.Value()
	m.externalEditorFor = target

	cmd := exec.Command(args[0], append(args[1:], path)...)
	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		return externalEditorDoneMsg{err: err}
	}), nil
}

// applyExternalEditorResult loads the edited file back into the textarea.
// Nothing is saved; the screen's own save key still applies.
func (m *appModel) applyExternalEditorResult(msg externalEditorDoneMsg) tea.Cmd {
	path, before, target := m.externalEditorPath, m.externalEditorBefore, m.externalEditorFor
	m.externalEditorPath, m.externalEditorBefore, m.externalEditorFor = "", "", editorNone
	if strings.TrimSpace(path) == "" {
		return nil
	}
	defer func() { _ = os.Remove(path) }()

	if msg.err != nil {
		return m.toast(dashboard.ToastError, "Editor failed: "+msg.err.Error())
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return m.toast(dashboard.ToastError, "Editor read failed: "+err.Error())
	}
	ta := m.editorTextarea(target)
	if ta == nil {
		return nil
	}
	after := string(b)
	ta.SetValue(after)
	if strings.TrimSpace(after) == strings.TrimSpace(before) {
		return m.toast(dashboard.ToastInfo, "No changes from "+externalEditorName())
	}
	return m.toast(dashboard.ToastInfo, "Updated from "+externalEditorName()+" (ctrl+s to save)")
}

// splitShellWords splits an editor command line into argv. Single and double
// quotes group words; a backslash escapes the next rune outside single quotes.
func splitShellWords(s string) []string {
	var (
		out            []string
		cur            strings.Builder
		inWord         bool
		single, double bool
		escaped        bool
	)
	for _, r := range s {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\' && !single:
			escaped, inWord = true, true
		case r == '\'' && !double:
			single, inWord = !single, true
		case r == '"' && !single:
			double, inWord = !double, true
		case unicode.IsSpace(r) && !single && !double:
			if inWord {
				out = append(out, cur.String())
				cur.Reset()
				inWord = false
			}
		default:
			cur.WriteRune(r)
			inWord = true
		}
	}
	if inWord {
		out = append(out, cur.String())
	}
	return out
}
