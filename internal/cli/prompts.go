package cli

import (
	"errors"
	"strings"

	"pitchdesk/internal/format"
	"pitchdesk/internal/model"

	"github.com/spf13/cobra"
)

// Sync targets accepted by the generation service; empty means all prompts.
var syncTargets = []string{"", "main_prompt"}

type promptsView []model.Prompt

func (p promptsView) Header() []string { return []string{"Name", "Location", "Text"} }

func (p promptsView) Rows(colored bool) [][]string {
	rows := make([][]string, 0, len(p))
	for _, pr := range p {
		rows = append(rows, []string{pr.Name, pr.Location, format.Truncate(strings.ReplaceAll(pr.Text, "\n", " "), 60)})
	}
	return rows
}

func newPromptsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "prompts",
		Aliases: []string{"prompt"},
		Short:   "List, edit and sync generation prompts",
	}
	cmd.AddCommand(newPromptsListCmd(app))
	cmd.AddCommand(newPromptsSyncCmd(app))
	cmd.AddCommand(newPromptsUpdateCmd(app))
	return cmd
}

func newPromptsListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List prompts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			if err := app.openCLI(ctx); err != nil {
				return writeErr(cmd, err)
			}
			prompts, err := app.gen.Prompts(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeData(cmd, app, promptsView(prompts))
		},
	}
}

func newPromptsSyncCmd(app *App) *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync prompts on the generation service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			if err := app.openCLI(ctx); err != nil {
				return writeErr(cmd, err)
			}
			target = strings.TrimSpace(target)
			valid := false
			for _, t := range syncTargets {
				valid = valid || t == target
			}
			if !valid {
				return writeErr(cmd, errors.New("invalid --target (want main_prompt or empty for all)"))
			}
			if err := app.gen.SyncPrompts(ctx, target); err != nil {
				return writeErr(cmd, err)
			}
			scope := target
			if scope == "" {
				scope = "all"
			}
			return writeData(cmd, app, map[string]any{"synced": scope})
		},
	}

	cmd.Flags().StringVar(&target, "target", "", "Sync only this prompt (main_prompt); empty syncs all")

	return cmd
}

func newPromptsUpdateCmd(app *App) *cobra.Command {
	var text, file string

	cmd := &cobra.Command{
		Use:   "update <location>",
		Short: "Replace the text of a prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			if err := app.openCLI(ctx); err != nil {
				return writeErr(cmd, err)
			}
			if err := requireLogin(app); err != nil {
				return writeErr(cmd, err)
			}
			if file != "" {
				b, err := readFileOrStdin(cmd, file)
				if err != nil {
					return writeErr(cmd, err)
				}
				text = string(b)
			}
			if strings.TrimSpace(text) == "" {
				return writeErr(cmd, errors.New("missing --text (or --file)"))
			}
			location := strings.TrimSpace(args[0])
			if err := app.backend.UpdatePrompt(ctx, location, text); err != nil {
				return writeErr(cmd, err)
			}
			return writeData(cmd, app, map[string]any{"location": location, "updated": true})
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "New prompt text")
	cmd.Flags().StringVar(&file, "file", "", "Read the prompt text from a file (- for stdin)")

	return cmd
}
