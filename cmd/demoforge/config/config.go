// Package configcmder provides the config command for managing persistent
// demoforge configuration stored in the .demoforge/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent demoforge configuration.

Configuration is stored as config.toml in the .demoforge/ directory and
provides default values for command flags. CLI flags always take precedence
over config file values.

Keys use dotted notation matching the TOML section structure:
  storage.driver, storage.sqlite_path, storage.postgres_dsn,
  api.listen, client.api_target,
  snowflake.account_url, snowflake.database, snowflake.schema,
  snowflake.warehouse, snowflake.agent_name,
  provision.model, provision.row_count, provision.max_chunks,
  events.provider, events.brokers, events.topic,
  worker.count, worker.queue_size

Use subcommands to get, set, or list configuration values:
  demoforge config set <key> <value>    Set a configuration value
  demoforge config get <key>            Get a configuration value
  demoforge config list                 List all configuration values

Examples:
  demoforge config set snowflake.account_url https://myorg-myaccount.snowflakecomputing.com
  demoforge config set provision.row_count 100
  demoforge config get snowflake.warehouse
  demoforge config list`

const configShortDesc string = "Manage persistent demoforge configuration"

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
