// Package runcmder provides the run command, which submits a click-web
// command and streams its output to the terminal, an HTML file or a TUI.
package runcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/clickweb/pkg/clickweb"
	"github.com/papercomputeco/clickweb/pkg/cliui"
	"github.com/papercomputeco/clickweb/pkg/config"
	"github.com/papercomputeco/clickweb/pkg/dotdir"
	"github.com/papercomputeco/clickweb/pkg/logger"
	"github.com/papercomputeco/clickweb/pkg/section"
	"github.com/papercomputeco/clickweb/pkg/sink"
)

type runCommander struct {
	fields    []string
	last      bool
	configDir string
	debug     bool

	// Registered through the flag registry; read back through viper.
	target    string
	timeout   string
	chunkSize uint
	buffered  bool
	format    string
	htmlPath  string
	plain     bool
	logFile   string

	settings config.Settings
	logger   *slog.Logger
	ddm      *dotdir.Manager
}

var runFlags = []string{
	config.FlagTarget,
	config.FlagTimeout,
	config.FlagChunkSize,
	config.FlagBuffered,
	config.FlagFormat,
	config.FlagHTMLPath,
	config.FlagPlain,
	config.FlagLogFile,
}

const runLongDesc string = `Run a click-web command and stream its output.

The command form is fetched first so that fields can be given by their
command line names. Output is rendered as it arrives: the header and footer
sections the server marks up are shown apart from the command's own output.

Output formats:
  terminal   Write to stdout (default). Styling is dropped when stdout is
             not a color terminal or --plain is set.
  html       Write a standalone HTML page to --html-path.
  tui        Show header, output and footer in a full screen view.
             Press r to run the command again, q to quit.

The last submitted command is recorded in the .clickweb/ directory and can
be repeated with --last.

Examples:
  clickweb run add --field title="Reading list" --field --tag=books
  clickweb run add --field urls=https://a.example --field urls=https://b.example
  clickweb run plugins/sync --field --dry-run --format tui
  clickweb run --last --field --dry-run=false`

const runShortDesc string = "Run a command and stream its output"

func NewRunCmd() *cobra.Command {
	cmder := &runCommander{ddm: dotdir.NewManager()}

	cmd := &cobra.Command{
		Use:   "run [command]",
		Short: runShortDesc,
		Long:  runLongDesc,
		Args:  cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.ClientFlags, runFlags)

			cmder.settings, err = config.SettingsFromViper(v)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return cmder.run(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), args)
		},
	}

	cmd.Flags().StringArrayVarP(&cmder.fields, "field", "F", nil, "Field assignment name=value (repeatable)")
	cmd.Flags().BoolVar(&cmder.last, "last", false, "Repeat the last submitted command")

	config.AddStringFlag(cmd, config.ClientFlags, config.FlagTarget, &cmder.target)
	config.AddStringFlag(cmd, config.ClientFlags, config.FlagTimeout, &cmder.timeout)
	config.AddUintFlag(cmd, config.ClientFlags, config.FlagChunkSize, &cmder.chunkSize)
	config.AddBoolFlag(cmd, config.ClientFlags, config.FlagBuffered, &cmder.buffered)
	config.AddStringFlag(cmd, config.ClientFlags, config.FlagFormat, &cmder.format)
	config.AddStringFlag(cmd, config.ClientFlags, config.FlagHTMLPath, &cmder.htmlPath)
	config.AddBoolFlag(cmd, config.ClientFlags, config.FlagPlain, &cmder.plain)
	config.AddStringFlag(cmd, config.ClientFlags, config.FlagLogFile, &cmder.logFile)

	return cmd
}

func (c *runCommander) run(ctx context.Context, stdout, stderr io.Writer, args []string) error {
	closeLog, err := c.setupLogger(stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	fields, err := parseFieldFlags(c.fields)
	if err != nil {
		return err
	}

	var last *dotdir.LastRun
	if c.last {
		last, err = c.ddm.LoadLastRun(c.configDir)
		if err != nil {
			return fmt.Errorf("loading last run: %w", err)
		}
	}
	path, assignments, err := resolveInvocation(args, fields, last, c.last)
	if err != nil {
		return err
	}

	if c.settings.Format == config.FormatTUI && !(isTerminal(stdout) && term.IsTerminal(int(os.Stdin.Fd()))) {
		return errors.New("the tui output format needs an interactive terminal")
	}

	client, err := clickweb.NewClient(c.settings.Target,
		clickweb.WithTimeout(c.settings.Timeout),
		clickweb.WithLogger(c.logger),
		clickweb.WithBuffered(c.settings.Buffered),
		clickweb.WithChunkSize(c.settings.ChunkSize),
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

	values, err := form.Values(assignments)
	if err != nil {
		return err
	}

	c.recordRun(path, assignments)

	switch c.settings.Format {
	case config.FormatHTML:
		return c.runHTML(ctx, stderr, client, path, form, values)
	case config.FormatTUI:
		return runTUI(ctx, client, path, values)
	default:
		return c.runTerminal(ctx, stdout, stderr, client, path, values)
	}
}

func (c *runCommander) runTerminal(ctx context.Context, stdout, stderr io.Writer, client *clickweb.Client, path string, values url.Values) error {
	plain := c.settings.Plain || termenv.NewOutput(stdout).EnvColorProfile() == termenv.Ascii
	sinks := sink.NewTerminalSet(stdout, sink.WithPlain(plain))

	start := time.Now()
	err := client.Run(ctx, path, values, sinks)
	c.logger.Debug("command finished", "command", path, "elapsed", time.Since(start))

	if err != nil {
		fmt.Fprintf(stderr, "\n  %s %s\n", cliui.FailMark, describeRunError(err))
		return err
	}
	fmt.Fprintf(stderr, "\n  %s %s\n", cliui.SuccessMark,
		cliui.DimStyle.Render("finished in "+cliui.FormatDuration(time.Since(start))))
	return nil
}

func (c *runCommander) runHTML(ctx context.Context, stderr io.Writer, client *clickweb.Client, path string, form *clickweb.Form, values url.Values) error {
	title := form.Title
	if title == "" {
		title = path
	}
	doc := sink.NewDocument(title)

	runErr := cliui.Step(stderr, "Running "+path, func() error {
		return client.Run(ctx, path, values, doc.Set())
	})

	// Whatever arrived before a failure is still written out.
	if err := writeDocument(c.settings.HTMLPath, doc); err != nil {
		return errors.Join(runErr, err)
	}
	fmt.Fprintf(stderr, "  %s %s\n", cliui.KeyStyle.Render("Output:"), cliui.ValueStyle.Render(c.settings.HTMLPath))
	return runErr
}

func writeDocument(path string, doc *sink.Document) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if err := doc.Render(f); err != nil {
		f.Close()
		return fmt.Errorf("writing output file: %w", err)
	}
	return f.Close()
}

func (c *runCommander) setupLogger(stderr io.Writer) (func(), error) {
	pretty := logger.New(logger.WithDebug(c.debug), logger.WithPretty(true), logger.WithWriter(stderr))
	if c.settings.LogFile == "" {
		c.logger = pretty
		return func() {}, nil
	}

	f, err := os.OpenFile(c.settings.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	file := logger.New(logger.WithDebug(true), logger.WithJSON(true), logger.WithWriter(f))
	c.logger = logger.Multi(pretty, file)
	return func() { _ = f.Close() }, nil
}

func (c *runCommander) recordRun(path string, assignments map[string][]string) {
	err := c.ddm.SaveLastRun(&dotdir.LastRun{
		Command:     path,
		Fields:      assignments,
		Target:      c.settings.Target,
		SubmittedAt: time.Now().UTC(),
	}, c.configDir)
	if err != nil {
		c.logger.Warn("could not record run", "err", err)
	}
}

func describeRunError(err error) string {
	var unknown *section.UnknownSectionError
	var status *clickweb.StatusError
	switch {
	case errors.As(err, &unknown):
		return fmt.Sprintf("output aborted: server sent an unknown section %q", unknown.Section)
	case errors.As(err, &status):
		return status.Error()
	case errors.Is(err, context.Canceled):
		return "interrupted"
	}
	return err.Error()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
