package cli

import (
	"fmt"

	"pitchdesk/internal/docs"
	"pitchdesk/internal/format"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

type topicsView []string

func (t topicsView) Header() []string { return []string{"Topic", "Title"} }

func (t topicsView) Rows(colored bool) [][]string {
	rows := make([][]string, 0, len(t))
	for _, topic := range t {
		rows = append(rows, []string{topic, docs.Title(topic)})
	}
	return rows
}

func newDocsCmd(app *App) *cobra.Command {
	var raw, render bool

	cmd := &cobra.Command{
		Use:   "docs [topic]",
		Short: "Show built-in documentation",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return writeData(cmd, app, topicsView(docs.Topics()))
			}

			topic := args[0]
			body, ok := docs.Get(topic)
			if !ok {
				return writeErr(cmd, fmt.Errorf("unknown docs topic: %q (run `pitchdesk docs` to list topics)", topic))
			}

			switch {
			case render:
				style := "notty"
				if format.UseColor(cmd.OutOrStdout()) {
					style = "auto"
				}
				out, err := glamour.Render(body, style)
				if err != nil {
					return writeErr(cmd, err)
				}
				_, err = fmt.Fprint(cmd.OutOrStdout(), out)
				return err
			case raw:
				_, err := fmt.Fprint(cmd.OutOrStdout(), body)
				return err
			}
			return writeData(cmd, app, map[string]any{"topic": topic, "markdown": body})
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Print raw markdown (no JSON envelope)")
	cmd.Flags().BoolVar(&render, "render", false, "Render markdown for the terminal")

	return cmd
}
