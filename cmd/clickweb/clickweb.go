// Package clickwebcmder is the root of the clickweb command tree.
package clickwebcmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/papercomputeco/clickweb/cmd/clickweb/config"
	initcmder "github.com/papercomputeco/clickweb/cmd/clickweb/init"
	opencmder "github.com/papercomputeco/clickweb/cmd/clickweb/open"
	runcmder "github.com/papercomputeco/clickweb/cmd/clickweb/run"
	versioncmder "github.com/papercomputeco/clickweb/cmd/version"
)

const clickwebLongDesc string = `clickweb runs the commands of a click-web application from the terminal.

Command output is streamed as it is produced, split into the header, body
and footer sections the server marks up.

  clickweb init --target http://notes:5000   Create ./.clickweb/config.toml
  clickweb open add                          Show the form of the "add" command
  clickweb run add --field title=Hello       Run "add" and stream its output
  clickweb run --last                        Run the previous command again`

const clickwebShortDesc string = "clickweb - click-web command runner"

func NewClickwebCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "clickweb",
		Short:        clickwebShortDesc,
		Long:         clickwebLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to the .clickweb/ config directory")

	// Add subcommands
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(opencmder.NewOpenCmd())
	cmd.AddCommand(runcmder.NewRunCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
