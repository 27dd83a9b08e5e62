// Package configcmder provides the config command for managing persistent
// rewind configuration stored in the .rewind/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent rewind configuration.

Configuration is stored as config.toml in the .rewind/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values.

Keys use dotted notation matching the TOML section structure:
  storage.sqlite_path, storage.database_url, storage.cache_size,
  api.listen, api.auth_secret,
  client.api_target,
  events.enabled, events.brokers, events.topic

Use subcommands to get, set, or list configuration values:
  rewind config set <key> <value>    Set a configuration value
  rewind config get <key>            Get a configuration value
  rewind config list                 List all configuration values

Examples:
  rewind config set storage.sqlite_path ./rewind.db
  rewind config set api.listen :5000
  rewind config get client.api_target
  rewind config list`

const configShortDesc string = "Manage persistent rewind configuration"

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
