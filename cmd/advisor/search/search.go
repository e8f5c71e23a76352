// Package searchcmder provides the search command for looking up call notes
// directly in the note store.
package searchcmder

import (
	"fmt"
	"io"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	apisearch "github.com/papercomputeco/advisor/api/search"
	"github.com/papercomputeco/advisor/cmd/advisor/wiring"
	"github.com/papercomputeco/advisor/pkg/retrieval"
)

var (
	rankStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	scoreStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	dateStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	previewStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type searchCommander struct {
	query string
	quiet bool

	flagKeys []string
}

const searchLongDesc string = `Search the note store the same way the agent's retrieval tool does.

Returns at most --n-results notes whose distance to the query is within
--similarity-threshold. Lower distance means more relevant.

Use --quiet to print only the observation text the agent would see.

Examples:
  advisor search "debit card replacement"
  advisor search "mortgage" -k 5 -t 0.8`

const searchShortDesc string = "Search call notes"

func NewSearchCmd() *cobra.Command {
	cmder := &searchCommander{}

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: searchShortDesc,
		Long:  searchLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.query = args[0]
			return cmder.run(cmd)
		},
	}

	cmd.Flags().BoolVarP(&cmder.quiet, "quiet", "q", false, "Print only the agent observation text")
	cmder.flagKeys = wiring.AddStoreFlags(cmd)

	return cmd
}

func (c *searchCommander) run(cmd *cobra.Command) error {
	cfg, err := wiring.LoadConfig(cmd, c.flagKeys)
	if err != nil {
		return err
	}
	logger := wiring.NewLogger(cmd)

	deps, err := wiring.NewStore(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	output, err := apisearch.Search(cmd.Context(), c.query, 0, deps.Store, deps.Retrieval, logger)
	if err != nil {
		return err
	}

	printOutput(cmd.OutOrStdout(), output, c.quiet)
	return nil
}

func printOutput(w io.Writer, output *apisearch.SearchOutput, quiet bool) {
	if quiet {
		fmt.Fprintln(w, output.Text)
		return
	}

	if output.NoResult {
		fmt.Fprintln(w, retrieval.NoResultText)
		return
	}

	fmt.Fprintf(w, "\n%s %s %s\n\n",
		headerStyle.Render("Notes for:"),
		dateStyle.Render(fmt.Sprintf("%q", output.Query)),
		dimStyle.Render(fmt.Sprintf("(threshold %.2f)", output.Threshold)),
	)

	for i, r := range output.Results {
		date := r.Date
		if date == "" {
			date = "undated"
		}
		fmt.Fprintf(w, "  %s  %s  %s\n     %s\n\n",
			rankStyle.Render(fmt.Sprintf("#%d", i+1)),
			dateStyle.Render(date),
			scoreStyle.Render(fmt.Sprintf("distance %.4f", r.Distance)),
			previewStyle.Render(r.Text),
		)
	}
}
