// Package initcmder provides the init command for initializing a local .clickweb
// directory in the current working directory.
package initcmder

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/clickweb/pkg/config"
)

const (
	dirName = ".clickweb"
)

const initLongDesc string = `Initialize a new .clickweb/ directory in the current working directory.

Creates a local .clickweb/ directory with a default config.toml. The local
directory takes precedence over ~/.clickweb/ for configuration and for the
record of the last submitted command.

Running init again leaves an existing config.toml untouched unless --target
is given, in which case only client.target is rewritten.

Examples:
  clickweb init
  clickweb init --target http://notes.local:5000`

const initShortDesc string = "Initialize a local .clickweb/ directory"

type initCommander struct {
	target string
}

func NewInitCmd() *cobra.Command {
	cmder := &initCommander{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&cmder.target, "target", "", "click-web server URL to write to client.target")

	return cmd
}

func (c *initCommander) run(w io.Writer) error {
	if c.target != "" {
		u, err := url.Parse(c.target)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid --target %q: expected an absolute URL", c.target)
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}
	dir := filepath.Join(cwd, dirName)

	// The configer creates dir when it is missing.
	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return err
	}

	_, statErr := os.Stat(cfger.GetTarget())
	exists := statErr == nil
	if statErr != nil && !errors.Is(statErr, os.ErrNotExist) {
		return fmt.Errorf("reading config: %w", statErr)
	}

	if exists && c.target == "" {
		fmt.Fprintf(w, "Already initialized: %s\n", dir)
		return nil
	}

	cfg, err := cfger.LoadConfig()
	if err != nil {
		return err
	}
	if c.target != "" {
		cfg.Client.Target = c.target
	}
	if err := cfger.SaveConfig(cfg); err != nil {
		return err
	}

	if exists {
		fmt.Fprintf(w, "Updated client.target in %s\n", cfger.GetTarget())
		return nil
	}
	fmt.Fprintf(w, "Initialized .clickweb directory: %s\n", dir)
	return nil
}
