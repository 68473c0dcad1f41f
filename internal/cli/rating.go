package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"pitchdesk/internal/configedit"
	"pitchdesk/internal/model"

	"github.com/spf13/cobra"
)

type ratingView struct {
	raw json.RawMessage
	rc  *configedit.RatingConfig
}

func (r ratingView) MarshalJSON() ([]byte, error) { return r.raw, nil }

func (r ratingView) Header() []string { return []string{"Section", "Field", "Kind", "Value"} }

func (r ratingView) Rows(colored bool) [][]string {
	rows := [][]string{}
	for _, s := range r.rc.Sections() {
		for _, f := range r.rc.Fields(s) {
			rows = append(rows, []string{s, f.Name, f.Kind.String(), fieldValue(f)})
		}
	}
	return rows
}

func fieldValue(f *configedit.RatingField) string {
	switch f.Kind {
	case configedit.KindRules:
		parts := []string{}
		for _, rule := range f.Rules.Rules() {
			parts = append(parts, fmt.Sprintf("%s %g → %g", rule.Operator, rule.Threshold, rule.Score))
		}
		return strings.Join(parts, "; ")
	case configedit.KindTags:
		return strings.Join(f.Tags.Items(), ", ")
	default:
		return f.Value
	}
}

func newRatingCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rating",
		Short: "Show and edit the generator rating configuration",
	}
	cmd.AddCommand(newRatingShowCmd(app))
	cmd.AddCommand(newRatingSetCmd(app))
	cmd.AddCommand(newRatingRuleCmd(app))
	return cmd
}

// loadRating fetches and parses the current rating configuration.
func loadRating(cmd *cobra.Command, app *App) (ratingView, error) {
	ctx := cmdContext(cmd)
	if err := app.openCLI(ctx); err != nil {
		return ratingView{}, err
	}
	raw, err := app.gen.RatingConfig(ctx)
	if err != nil {
		return ratingView{}, err
	}
	rc, err := configedit.ParseRatingConfig(raw)
	if err != nil {
		return ratingView{}, err
	}
	return ratingView{raw: raw, rc: rc}, nil
}

// saveRating sends the changed fields, if any, and reports what was sent.
func saveRating(cmd *cobra.Command, app *App, rc *configedit.RatingConfig) error {
	if !rc.Dirty() {
		return writeData(cmd, app, map[string]any{"changed": false})
	}
	patch, err := rc.Payload()
	if err != nil {
		return writeErr(cmd, err)
	}
	if err := app.gen.UpdateRatingConfig(cmdContext(cmd), patch); err != nil {
		return writeErr(cmd, err)
	}
	rc.Commit()
	return writeData(cmd, app, map[string]any{"changed": true, "patch": patch})
}

func splitFieldPath(path string) (section, field string, err error) {
	section, field, ok := strings.Cut(strings.TrimSpace(path), ".")
	if !ok || section == "" || field == "" {
		return "", "", fmt.Errorf("invalid field %q (want section.field)", path)
	}
	return section, field, nil
}

func newRatingShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the rating configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := loadRating(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeData(cmd, app, view)
		},
	}
}

func newRatingSetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "set <section.field> <value>",
		Short:   "Change one scalar field",
		Example: "  pitchdesk rating set budget.min_hourly_rate 35",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			section, field, err := splitFieldPath(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			view, err := loadRating(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := view.rc.SetScalar(section, field, args[1]); err != nil {
				return writeErr(cmd, err)
			}
			return saveRating(cmd, app, view.rc)
		},
	}
}

func newRatingRuleCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rule",
		Short: "Add or remove threshold rules of a rule-list field",
	}
	cmd.AddCommand(newRatingRuleAddCmd(app))
	cmd.AddCommand(newRatingRuleRemoveCmd(app))
	return cmd
}

func ruleField(view ratingView, path string) (*configedit.RatingField, error) {
	section, name, err := splitFieldPath(path)
	if err != nil {
		return nil, err
	}
	f, err := view.rc.Field(section, name)
	if err != nil {
		return nil, err
	}
	if f.Kind != configedit.KindRules {
		return nil, fmt.Errorf("%s is not a rule list", path)
	}
	return f, nil
}

func newRatingRuleAddCmd(app *App) *cobra.Command {
	var op, threshold, score string

	cmd := &cobra.Command{
		Use:     "add <section.field>",
		Short:   "Append a rule",
		Example: "  pitchdesk rating rule add client.total_spent --op '>=' --threshold 10000 --score 5",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := model.ParseOperator(op); err != nil {
				return writeErr(cmd, err)
			}
			view, err := loadRating(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			f, err := ruleField(view, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			f.Rules.AddRule()
			i := f.Rules.Len() - 1
			for field, value := range map[configedit.RuleField]string{
				configedit.RuleOperator:  op,
				configedit.RuleThreshold: threshold,
				configedit.RuleScore:     score,
			} {
				if err := f.Rules.UpdateRule(i, field, value); err != nil {
					return writeErr(cmd, err)
				}
			}
			return saveRating(cmd, app, view.rc)
		},
	}

	cmd.Flags().StringVar(&op, "op", string(model.OpGTE), "Operator (> >= < <= ==)")
	cmd.Flags().StringVar(&threshold, "threshold", "0", "Threshold")
	cmd.Flags().StringVar(&score, "score", "0", "Score")

	return cmd
}

func newRatingRuleRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <section.field> <index>",
		Aliases: []string{"remove"},
		Short:   "Remove a rule by its 1-based position",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 1 {
				return writeErr(cmd, errors.New("index must be a positive integer"))
			}
			view, err := loadRating(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			f, err := ruleField(view, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := f.Rules.RemoveRule(n - 1); err != nil {
				return writeErr(cmd, err)
			}
			return saveRating(cmd, app, view.rc)
		},
	}
}
