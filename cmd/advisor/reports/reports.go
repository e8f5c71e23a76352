// Package reportscmder lists and renders reports saved by "advisor analyze --save".
package reportscmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/advisor/pkg/cliui"
	"github.com/papercomputeco/advisor/pkg/dotdir"
	"github.com/papercomputeco/advisor/pkg/session"
)

const reportsLongDesc string = `List saved call reports, or render one.

Without arguments the saved report names are listed oldest first. With a
name the report is rendered as markdown.

Examples:
  advisor reports
  advisor reports 20260101-093000-1a2b3c4d`

const reportsShortDesc string = "List or show saved call reports"

func NewReportsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports [name]",
		Short: reportsShortDesc,
		Long:  reportsLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			if len(args) == 0 {
				return listReports(cmd.OutOrStdout(), configDir)
			}
			return showReport(cmd.OutOrStdout(), configDir, args[0])
		},
	}

	return cmd
}

func listReports(w io.Writer, configDir string) error {
	names, err := dotdir.NewManager().ListReports(configDir)
	if err != nil {
		return err
	}

	if len(names) == 0 {
		fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("No saved reports."))
		return nil
	}

	fmt.Fprintln(w)
	for _, name := range names {
		fmt.Fprintf(w, "  %s\n", cliui.ValueStyle.Render(name))
	}
	fmt.Fprintln(w)
	return nil
}

func showReport(w io.Writer, configDir, name string) error {
	var report session.Report
	if err := dotdir.NewManager().LoadReport(configDir, name, &report); err != nil {
		return err
	}

	md := report.Markdown()
	rendered, err := cliui.RenderMarkdown(md)
	if err != nil {
		rendered = md
	}
	fmt.Fprint(w, rendered)
	return nil
}
