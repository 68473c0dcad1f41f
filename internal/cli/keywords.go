package cli

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"pitchdesk/internal/configedit"
	"pitchdesk/internal/model"

	"github.com/spf13/cobra"
)

type keywordsView struct {
	sections []string
	data     map[string][]string
}

func (k keywordsView) MarshalJSON() ([]byte, error) { return json.Marshal(k.data) }

func (k keywordsView) Header() []string { return []string{"Section", "Count", "Keywords"} }

func (k keywordsView) Rows(colored bool) [][]string {
	rows := make([][]string, 0, len(k.sections))
	for _, s := range k.sections {
		items := k.data[s]
		rows = append(rows, []string{model.SectionLabel(s), strconv.Itoa(len(items)), strings.Join(items, ", ")})
	}
	return rows
}

func newKeywordsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "keywords",
		Aliases: []string{"kw"},
		Short:   "Show and edit the generator keyword lists",
		Long: "Show and edit the generator keyword lists.\n\nSections: " +
			strings.Join(model.KeywordSections, ", "),
	}
	cmd.AddCommand(newKeywordsShowCmd(app))
	cmd.AddCommand(newKeywordsEditCmd(app))
	return cmd
}

func checkSection(section string) error {
	if slices.Contains(model.KeywordSections, section) {
		return nil
	}
	return errNotFound("keyword section", section)
}

func newKeywordsShowCmd(app *App) *cobra.Command {
	var section string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show keyword lists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			if err := app.openCLI(ctx); err != nil {
				return writeErr(cmd, err)
			}
			data, err := app.gen.Keywords(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			sections := model.KeywordSections
			if section != "" {
				if err := checkSection(section); err != nil {
					return writeErr(cmd, err)
				}
				sections = []string{section}
				data = map[string][]string{section: data[section]}
			}
			return writeData(cmd, app, keywordsView{sections: sections, data: data})
		},
	}

	cmd.Flags().StringVar(&section, "section", "", "Only this section")

	return cmd
}

func newKeywordsEditCmd(app *App) *cobra.Command {
	var section string
	var add, remove []string

	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Add or remove keywords in one section",
		Example: strings.TrimSpace(`
  pitchdesk keywords edit --section preferred_countries --add Germany --add Austria
  pitchdesk keywords edit --section search_keywords --remove php
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			if err := app.openCLI(ctx); err != nil {
				return writeErr(cmd, err)
			}
			if err := checkSection(section); err != nil {
				return writeErr(cmd, err)
			}
			if len(add) == 0 && len(remove) == 0 {
				return writeErr(cmd, fmt.Errorf("nothing to change: pass --add and/or --remove"))
			}

			data, err := app.gen.Keywords(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			sets := configedit.NewKeywordSets(data)
			tags := sets.Section(section)
			for _, v := range remove {
				tags.Remove(v)
			}
			for _, v := range add {
				tags.Add(v)
			}
			if !sets.Dirty() {
				return writeData(cmd, app, map[string]any{"section": section, "changed": false, "keywords": tags.Items()})
			}

			diff := tags.Diff()
			if err := app.gen.UpdateKeywords(ctx, sets.Payload()); err != nil {
				return writeErr(cmd, err)
			}
			sets.Commit()
			return writeData(cmd, app, map[string]any{
				"section":  section,
				"changed":  true,
				"added":    diff.Add,
				"removed":  diff.Remove,
				"keywords": tags.Items(),
			})
		},
	}

	cmd.Flags().StringVar(&section, "section", "", "Keyword section (required)")
	cmd.Flags().StringArrayVar(&add, "add", nil, "Keyword to add (repeatable)")
	cmd.Flags().StringArrayVar(&remove, "remove", nil, "Keyword to remove (repeatable)")
	_ = cmd.MarkFlagRequired("section")

	return cmd
}
