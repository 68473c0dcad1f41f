package format

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// Envelope wraps every JSON payload the CLI prints.
type Envelope struct {
	Data any `json:"data"`
	Meta any `json:"meta,omitempty"`
}

// Tabular values can be printed with --format table.
type Tabular interface {
	Header() []string
	Rows(colored bool) [][]string
}

// Write writes output in the requested format.
//
// Supported formats:
// - json (default)
// - table (values implementing Tabular)
func Write(w io.Writer, v any, format string, pretty bool) error {
	switch format {
	case "", "json":
		return WriteJSON(w, v, pretty)
	case "table":
		t, ok := unwrap(v).(Tabular)
		if !ok {
			return fmt.Errorf("table output not supported for %T", unwrap(v))
		}
		return WriteTable(w, t.Header(), t.Rows(UseColor(w)))
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func unwrap(v any) any {
	if e, ok := v.(Envelope); ok {
		return e.Data
	}
	return v
}

// WriteJSON writes strict JSON output for CLI commands.
func WriteJSON(w io.Writer, v any, pretty bool) error {
	var b []byte
	var err error
	if pretty {
		b, err = json.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(b))
	return err
}

func WriteTable(w io.Writer, header []string, rows [][]string) error {
	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoFormat: tw.On},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{ShowHeader: tw.Off},
			},
		}),
	)
	table.Header(header)
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

// UseColor reports whether w is a terminal that should get ANSI colors.
func UseColor(w io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	faint  = color.New(color.Faint)
	red    = color.New(color.FgRed)
)

// Status colors an applied/status word for table cells.
func Status(s string, colored bool) string {
	if !colored {
		return s
	}
	var c *color.Color
	switch s {
	case "yes", "ok", "valid":
		c = green
	case "not_relevant":
		c = faint
	case "expired", "error":
		c = red
	case "no":
		c = yellow
	default:
		return s
	}
	c.EnableColor()
	return c.Sprint(s)
}

// Truncate shortens s to n runes with an ellipsis.
func Truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
