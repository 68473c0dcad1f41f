package tui

import (
	"strings"

	"pitchdesk/internal/dashboard"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
)

// writeClipboard is swapped out in tests.
var writeClipboard = clipboard.WriteAll

// copy puts text on the system clipboard and reports the outcome as a toast.
func (m *appModel) copy(text, success string) tea.Cmd {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if strings.TrimSpace(text) == "" {
		return m.toast(dashboard.ToastInfo, "Nothing to copy")
	}
	if err := writeClipboard(text); err != nil {
		m.log.Warn("clipboard write failed", "err", err)
		return m.toast(dashboard.ToastError, "Copy failed: "+err.Error())
	}
	return m.toast(dashboard.ToastSuccess, success)
}
