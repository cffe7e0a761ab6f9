// Package cli implements the toolbridge command line.
package cli

import (
	"io"
	"os"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/voocel/toolbridge/internal/options"
	"github.com/voocel/toolbridge/pkg/logger"
)

// IOStreams provides the standard names for iostreams.
type IOStreams struct {
	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer
}

// App carries state shared by every command.
type App struct {
	IOStreams

	Options    *options.Options
	loader     *options.Loader
	configFile string
	envFile    string
}

// NewDefaultCommand creates the `toolbridge` command with default arguments.
func NewDefaultCommand() *cobra.Command {
	return NewCommand(IOStreams{In: os.Stdin, Out: os.Stdout, ErrOut: os.Stderr})
}

// NewCommand builds the command tree around streams.
func NewCommand(streams IOStreams) *cobra.Command {
	app := &App{IOStreams: streams, Options: options.NewOptions()}

	cmd := &cobra.Command{
		Use:   "toolbridge",
		Short: "Serve fetch and device tools to models over an in-process MCP engine",
		Long: heredoc.Doc(`
			toolbridge runs an MCP tool engine inside the current process and talks
			to it through an in-memory transport.

			The engine serves the content-fetch tools (fetch_html, fetch_markdown,
			fetch_txt, fetch_json) and the device-capability tools of the host.
			Conversations sent to a model are sanitized first, so that tool
			messages are always paired with the call that requested them.

			Configuration is read from toolbridge.yaml, TOOLBRIDGE_* environment
			variables, a .env file and the flags below.
		`),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.load(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.SetIn(streams.In)
	cmd.SetOut(streams.Out)
	cmd.SetErr(streams.ErrOut)

	flags := cmd.PersistentFlags()
	flags.StringVar(&app.configFile, options.FlagConfig, "", "Path to the config file (default ./toolbridge.yaml).")
	flags.StringVar(&app.envFile, "env-file", ".env", "Path to a .env file, empty to skip.")
	app.Options.AddFlags(flags)

	cmd.AddCommand(
		newToolsCommand(app),
		newCallCommand(app),
		newSanitizeCommand(app),
		newChatCommand(app),
		newVersionCommand(app),
	)
	return cmd
}

func (a *App) load(cmd *cobra.Command) error {
	loader, err := options.NewLoader(cmd.Flags(), a.envFile)
	if err != nil {
		return err
	}
	opts, err := loader.Load(a.configFile)
	if err != nil {
		return err
	}
	if err := logger.Init(opts.Log.Logger()); err != nil {
		return err
	}
	if used := loader.ConfigFileUsed(); used != "" {
		logger.Debug("[CLI] using config %s", used)
	}
	a.loader = loader
	a.Options = opts
	return nil
}

// watch reloads logging settings when the config file changes.
func (a *App) watch() {
	if a.loader == nil {
		return
	}
	a.loader.Watch(func(opts *options.Options) {
		if err := logger.Init(opts.Log.Logger()); err != nil {
			logger.Warn("[CLI] keeping previous log settings: %v", err)
		}
	})
}
