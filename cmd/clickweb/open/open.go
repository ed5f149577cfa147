// Package opencmder provides the open command, which shows the form of a
// click-web command.
package opencmder

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/clickweb/pkg/clickweb"
	"github.com/papercomputeco/clickweb/pkg/cliui"
	"github.com/papercomputeco/clickweb/pkg/config"
	"github.com/papercomputeco/clickweb/pkg/logger"
)

type openCommander struct {
	target  string
	timeout string
	raw     bool
	debug   bool

	settings config.Settings
}

var openFlags = []string{config.FlagTarget, config.FlagTimeout}

const openLongDesc string = `Show the form of a click-web command.

Fetches the command page and lists its fields with their type, default
value and whether they are required. Field names are the ones accepted
by "clickweb run --field".

Examples:
  clickweb open add
  clickweb open plugins/sync --target https://notes.example.com`

const openShortDesc string = "Show the form of a command"

func NewOpenCmd() *cobra.Command {
	cmder := &openCommander{}

	cmd := &cobra.Command{
		Use:   "open <command>",
		Short: openShortDesc,
		Long:  openLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.ClientFlags, openFlags)

			cmder.settings, err = config.SettingsFromViper(v)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			return cmder.run(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0])
		},
	}

	config.AddStringFlag(cmd, config.ClientFlags, config.FlagTarget, &cmder.target)
	config.AddStringFlag(cmd, config.ClientFlags, config.FlagTimeout, &cmder.timeout)
	cmd.Flags().BoolVar(&cmder.raw, "raw", false, "Print the markdown source instead of rendering it")

	return cmd
}

func (c *openCommander) run(ctx context.Context, stdout, stderr io.Writer, path string) error {
	log := logger.New(logger.WithDebug(c.debug), logger.WithPretty(true), logger.WithWriter(stderr))

	client, err := clickweb.NewClient(c.settings.Target,
		clickweb.WithTimeout(c.settings.Timeout),
		clickweb.WithLogger(log),
	)
	if err != nil {
		return err
	}

	var form *clickweb.Form
	err = cliui.Step(stderr, "Opening "+path, func() error {
		var err error
		form, err = client.OpenCommand(ctx, path)
		return err
	})
	if err != nil {
		return err
	}

	md := FormMarkdown(path, form)
	if c.raw {
		_, err := io.WriteString(stdout, md)
		return err
	}

	render := cliui.RenderPlainMarkdown
	if isTerminal(stdout) {
		render = cliui.RenderMarkdown
	}
	out, err := render(md)
	if err != nil {
		log.Debug("rendering markdown failed", "err", err)
	}
	_, err = io.WriteString(stdout, out)
	return err
}

// FormMarkdown describes form as a markdown document.
func FormMarkdown(path string, form *clickweb.Form) string {
	var b strings.Builder

	title := form.Title
	if title == "" {
		title = path
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	if len(form.Fields) == 0 {
		b.WriteString("This command takes no input.\n")
		return b.String()
	}

	b.WriteString("| field | type | default | required |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, f := range form.Fields {
		fmt.Fprintf(&b, "| `%s` | %s | %s | %s |\n",
			f.Label(), fieldType(f), escapeCell(fieldDefault(f)), yesNo(f.Required))
	}
	return b.String()
}

func fieldType(f clickweb.Field) string {
	switch {
	case f.InputType == "checkbox":
		return "flag"
	case len(f.Options) > 0:
		return "choice of " + strings.Join(f.Options, ", ")
	case f.ID != nil && f.ID.IsVariadic():
		return f.InputType + ", one per line"
	}
	return f.InputType
}

func fieldDefault(f clickweb.Field) string {
	if f.InputType == "checkbox" {
		if f.Checked {
			return "on"
		}
		return "off"
	}
	return f.Value
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return ""
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
