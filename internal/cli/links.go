package cli

import (
	"strconv"
	"strings"

	"pitchdesk/internal/format"
	"pitchdesk/internal/model"

	"github.com/spf13/cobra"
)

type linksView []model.LinkResult

func (l linksView) Header() []string { return []string{"#", "Title", "Link", "Snippet"} }

func (l linksView) Rows(colored bool) [][]string {
	rows := make([][]string, 0, len(l))
	for i, r := range l {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			format.Truncate(r.Title, 40),
			r.Link,
			format.Truncate(r.Snippet, 60),
		})
	}
	return rows
}

func newLinksCmd(app *App) *cobra.Command {
	var k int

	cmd := &cobra.Command{
		Use:     "links <query>",
		Aliases: []string{"search"},
		Short:   "Search reference links for a query",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			if err := app.openCLI(ctx); err != nil {
				return writeErr(cmd, err)
			}
			if k <= 0 {
				k = app.cfg.Search.K
			}
			q := strings.TrimSpace(strings.Join(args, " "))
			links, err := app.gen.SearchLinks(ctx, q, k)
			if err != nil {
				return writeErr(cmd, err)
			}
			if links == nil {
				links = []model.LinkResult{}
			}
			return writeOut(cmd, app, format.Envelope{
				Data: linksView(links),
				Meta: map[string]any{"query": q, "k": k},
			})
		},
	}

	cmd.Flags().IntVar(&k, "k", 0, "Number of links (default: search.k)")

	return cmd
}
