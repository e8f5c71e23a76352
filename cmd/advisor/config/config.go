// Package configcmder provides the config command for managing persistent
// advisor configuration stored in the .advisor/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent advisor configuration.

Configuration is stored as config.toml in the .advisor/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values.

Keys use dotted notation matching the TOML section structure:
  azure.deployment_model, azure.embedding_model, azure.endpoint, azure.api_version,
  agent.provider, agent.target, agent.temperature, agent.max_steps,
  agent.memory_turns, agent.memory_tokens, agent.timeout_seconds, agent.summarize,
  db.provider, db.collection_name, db.persist_path, db.target,
  db.n_results, db.similarity_threshold,
  embedding.provider, embedding.target, embedding.dimensions,
  dispatcher.workers, dispatcher.queue_size,
  events.provider, events.brokers, events.topic,
  api.listen

Legacy flat names (db_n_results, similarity_threshold, ...) are accepted.

Use subcommands to get, set, or list configuration values:
  advisor config set <key> <value>    Set a configuration value
  advisor config get <key>            Get a configuration value
  advisor config list                 List all configuration values

Examples:
  advisor config set db.provider qdrant
  advisor config set db_n_results 5
  advisor config get db.similarity_threshold
  advisor config list`

const configShortDesc string = "Manage persistent advisor configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
