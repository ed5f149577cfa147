// Package configcmder provides the config command for managing persistent
// clickweb configuration stored in the .clickweb/ directory.
package configcmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/clickweb/pkg/cliui"
	"github.com/papercomputeco/clickweb/pkg/config"
)

const configLongDesc string = `Manage persistent clickweb configuration.

Configuration is stored as config.toml in the .clickweb/ directory and provides
default values for command flags. CLI flags and CLICKWEB_ environment variables
always take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  client.target, client.timeout, client.chunk_size, client.buffered,
  output.format, output.html_path, output.plain,
  log.file

Use subcommands to get, set, or list configuration values:
  clickweb config set <key> <value>    Set a configuration value
  clickweb config get <key>            Get a configuration value
  clickweb config list                 List all configuration values

Examples:
  clickweb config set client.target http://localhost:5000
  clickweb config set output.format tui
  clickweb config get client.timeout
  clickweb config list`

const configShortDesc string = "Manage persistent clickweb configuration"

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

func validKeysError(key string) error {
	return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
		key, strings.Join(config.ValidConfigKeys(), ", "))
}

func printTarget(w io.Writer, cfger *config.Configer) {
	target := cfger.GetTarget()
	if target != "" {
		fmt.Fprintf(w, "\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(target),
		)
	} else {
		fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
	}
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}
