package tui

import (
	"pitchdesk/internal/nav"

	"github.com/charmbracelet/bubbles/key"
)

func kb(help, desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(help, desc))
}

var (
	keyQuit     = kb("ctrl+c", "quit", "ctrl+c")
	keyHelp     = kb("?", "help", "?")
	keyNextTab  = kb("tab", "next screen", "tab")
	keyPrevTab  = kb("shift+tab", "prev screen", "shift+tab")
	keyLogout   = kb("ctrl+l", "log out", "ctrl+l")
	keyUp       = kb("↑/k", "up", "up", "k")
	keyDown     = kb("↓/j", "down", "down", "j")
	keyPrevPage = kb("←/[", "prev page", "left", "[")
	keyNextPage = kb("→/]", "next page", "right", "]")
	keyGoto     = kb("g", "go to page", "g")
	keySearch   = kb("/", "search", "/")
	keyTime     = kb("t", "time filter", "t")
	keyRefresh  = kb("r", "refresh", "r")
	keyOpen     = kb("enter", "open", "enter")
	keyComments = kb("c", "comments", "c")
	keyApplied  = kb("a", "applied", "a")
	keyCopy     = kb("y", "copy", "y")
	keyCopyLink = kb("ctrl+y", "copy link", "ctrl+y")
	keySave     = kb("ctrl+s", "save", "ctrl+s")
	keyView     = kb("v", "view mode", "v")
	keyEdit     = kb("e", "edit", "e")
	keyEditor   = kb("ctrl+e", "$EDITOR", "ctrl+e")
	keyBack     = kb("esc", "back", "esc")
	keyGenerate = kb("ctrl+g", "generate", "ctrl+g")
	keyFocus    = kb("ctrl+n", "next field", "ctrl+n")
	keyTabLeft  = kb("h", "prev tab", "h")
	keyTabRight = kb("l", "next tab", "l")
	keyAdd      = kb("a", "add", "a")
	keyDelete   = kb("d", "remove", "d")
	keySyncMain = kb("s", "sync main", "s")
	keySyncAll  = kb("S", "sync all", "S")
)

// routeKeys returns the bindings listed in the footer for the current screen.
func (m appModel) routeKeys() []key.Binding {
	if m.modal != modalNone {
		return []key.Binding{kb("enter", "apply", "enter"), keyBack}
	}
	switch m.route {
	case nav.Dashboard:
		switch {
		case m.dash.focus == focusSearch:
			return []key.Binding{kb("enter", "done", "enter"), keyBack}
		case m.dash.panel.IsOpen() && m.dash.panel.Editing:
			return []key.Binding{keySave, keyEditor, keyBack}
		case m.dash.panel.IsOpen():
			return []key.Binding{keyView, keyEdit, keyCopy, keyBack}
		}
		return []key.Binding{keyUp, keyDown, keyPrevPage, keyNextPage, keySearch, keyTime, keyOpen, keyComments, keyApplied, keySave, keyRefresh}
	case nav.Generate:
		if m.gen.editing {
			return []key.Binding{keySave, keyBack}
		}
		return []key.Binding{keyGenerate, keyFocus, keyEdit, keyCopy}
	case nav.Search:
		return []key.Binding{kb("enter", "search", "enter"), keyUp, keyDown, keyCopyLink}
	case nav.Config:
		switch m.cfg.tab {
		case tabPrompts:
			if m.cfg.promptEditing {
				return []key.Binding{keySave, keyEditor, keyBack}
			}
			return []key.Binding{keyTabLeft, keyTabRight, keyOpen, keySyncMain, keySyncAll}
		case tabKeywords:
			return []key.Binding{keyTabLeft, keyTabRight, keyAdd, keyDelete, keySave}
		case tabRating:
			return []key.Binding{keyTabLeft, keyTabRight, keyOpen, keyAdd, keyDelete, keySave}
		}
	}
	return []key.Binding{keyNextTab, keyQuit}
}
