// Package advisorcmder
package advisorcmder

import (
	"github.com/spf13/cobra"

	analyzecmder "github.com/papercomputeco/advisor/cmd/advisor/analyze"
	configcmder "github.com/papercomputeco/advisor/cmd/advisor/config"
	initcmder "github.com/papercomputeco/advisor/cmd/advisor/init"
	reportscmder "github.com/papercomputeco/advisor/cmd/advisor/reports"
	searchcmder "github.com/papercomputeco/advisor/cmd/advisor/search"
	seedcmder "github.com/papercomputeco/advisor/cmd/advisor/seed"
	servecmder "github.com/papercomputeco/advisor/cmd/advisor/serve"
	versioncmder "github.com/papercomputeco/advisor/cmd/version"
)

const advisorLongDesc string = `Advisor listens to a call between a client advisor and a client and
surfaces relevant notes from previous calls, quoting them verbatim.

Get started:
  advisor init --preset ollama       Write a local .advisor/config.toml
  advisor seed                       Seed the demo notes
  advisor analyze --text "..."       Analyze a single utterance
  advisor analyze --transcript f     Analyze a transcript file
  advisor serve                      Run the API and MCP server`

const advisorShortDesc string = "Advisor - real-time call notes assistant"

func NewAdvisorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "advisor",
		Short:        advisorShortDesc,
		Long:         advisorLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .advisor/ configuration directory")

	// Add subcommands
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(analyzecmder.NewAnalyzeCmd())
	cmd.AddCommand(seedcmder.NewSeedCmd())
	cmd.AddCommand(searchcmder.NewSearchCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(reportscmder.NewReportsCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
