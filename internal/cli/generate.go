package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"pitchdesk/internal/api"

	"github.com/spf13/cobra"
)

// errNoDescription matches the message the TUI shows for the same mistake.
var errNoDescription = errors.New("Please enter a job description")

func newGenerateCmd(app *App) *cobra.Command {
	var description, descriptionFile, questions string
	var raw bool

	cmd := &cobra.Command{
		Use:     "generate",
		Aliases: []string{"gen"},
		Short:   "Generate a proposal for a job description",
		Long: strings.TrimSpace(`
Generate a proposal for a job description.

Screening questions are given one per line; blank lines are dropped.
The generation service logs in with the service account from configuration
(generator.username / generator.password) whenever its session is missing
or expired.
`),
		Example: strings.TrimSpace(`
  pitchdesk generate --description "Need a Go developer for a billing API"
  pitchdesk generate --description-file job.txt --questions $'Rate?\nStart date?'
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			if err := app.openCLI(ctx); err != nil {
				return writeErr(cmd, err)
			}
			if descriptionFile != "" {
				b, err := readFileOrStdin(cmd, descriptionFile)
				if err != nil {
					return writeErr(cmd, err)
				}
				description = string(b)
			}
			if strings.TrimSpace(description) == "" {
				return writeErr(cmd, errNoDescription)
			}

			res, err := app.gen.Generate(ctx, api.GenerateRequest{Description: description, Questions: questions})
			if err != nil {
				return writeErr(cmd, err)
			}
			if raw {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), res.Text)
				return err
			}
			return writeData(cmd, app, map[string]any{
				"proposal":           res.Text,
				"screeningQuestions": api.SplitQuestions(questions),
			})
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "Job description")
	cmd.Flags().StringVar(&descriptionFile, "description-file", "", "Read the job description from a file (- for stdin)")
	cmd.Flags().StringVar(&questions, "questions", "", "Screening questions, one per line")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print only the proposal text")

	return cmd
}

func readFileOrStdin(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}
