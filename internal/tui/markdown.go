package tui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Renderers are keyed by style and wrap width. WithAutoStyle is avoided because
// it queries the terminal and can block.
var mdRenderers, _ = lru.New[string, *glamour.TermRenderer](32)

// renderMarkdown renders job descriptions and proposals. On any renderer error
// the source text is returned unchanged.
func renderMarkdown(md string, width int) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	width = max(width, 10)

	style := markdownStyle()
	key := style + ":" + strconv.Itoa(width)
	r, ok := mdRenderers.Get(key)
	if !ok {
		var err error
		r, err = glamour.NewTermRenderer(
			glamour.WithStyles(markdownStyleConfig(style)),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return md
		}
		mdRenderers.Add(key, r)
	}

	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}

func markdownStyleConfig(style string) ansi.StyleConfig {
	cfg := styles.DarkStyleConfig
	if style == "light" {
		cfg = styles.LightStyleConfig
	}
	fg := mdColor(colorSurfaceFg, style)
	for _, h := range []*ansi.StyleBlock{&cfg.Heading, &cfg.H1, &cfg.H2, &cfg.H3, &cfg.H4, &cfg.H5, &cfg.H6} {
		h.Color = fg
	}
	cfg.Text.Color = fg
	cfg.Code.Color = fg
	cfg.CodeBlock.Color = fg
	if cfg.CodeBlock.BackgroundColor == nil {
		cfg.CodeBlock.BackgroundColor = mdColor(colorControlBg, style)
	}
	cfg.Strong.Color = nil
	cfg.Emph.Color = nil
	f := false
	cfg.BlockQuote.Faint = &f
	zero := uint(0)
	cfg.Document.Margin = &zero
	return cfg
}

// markdownStyle picks "light" or "dark": PITCHDESK_TUI_MD_STYLE wins, then the
// TUI theme preference, then lipgloss background detection.
func markdownStyle() string {
	switch v := strings.ToLower(strings.TrimSpace(os.Getenv("PITCHDESK_TUI_MD_STYLE"))); v {
	case "light", "dark":
		return v
	}
	dark, ok := darkPreference()
	if !ok {
		dark = lipgloss.HasDarkBackground()
	}
	if dark {
		return "dark"
	}
	return "light"
}

func mdColor(c lipgloss.AdaptiveColor, style string) *string {
	s := c.Dark
	if style == "light" {
		s = c.Light
	}
	return &s
}
