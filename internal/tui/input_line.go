package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

// renderInputLine draws a text input as one padded line of exactly bodyW columns.
func renderInputLine(bodyW int, inputView string) string {
	bodyW = max(bodyW, 10)
	inputView = strings.NewReplacer("\r", " ", "\n", " ").Replace(inputView)

	line := lipgloss.PlaceHorizontal(bodyW, lipgloss.Left, " "+inputView+" ",
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceBackground(colorInputBg),
	)
	if xansi.StringWidth(line) > bodyW {
		// Reset styling so a cut escape sequence cannot bleed.
		line = xansi.Cut(line, 0, bodyW) + "\x1b[0m"
	}
	return line
}
