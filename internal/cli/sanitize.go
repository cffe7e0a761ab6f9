package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/voocel/toolbridge/llm"
	"github.com/voocel/toolbridge/pkg/json"
	"github.com/voocel/toolbridge/pkg/logger"
	"github.com/voocel/toolbridge/schema"
)

func newSanitizeCommand(app *App) *cobra.Command {
	var lenient bool

	cmd := &cobra.Command{
		Use:   "sanitize [file]",
		Short: "Repair the tool messages of a chat history",
		Long: heredoc.Doc(`
			Read a JSON array of chat messages and print it with every tool message
			either paired with the assistant call that requested it, turned into an
			assistant message, or dropped when it has no content.

			The history is read from the file argument, or from stdin when the
			argument is missing or "-".
		`),
		Example: heredoc.Doc(`
			toolbridge sanitize history.json
			cat history.json | toolbridge sanitize --lenient
		`),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := app.readInput(args)
			if err != nil {
				return err
			}
			msgs, err := schema.DecodeMessages(data)
			if err != nil {
				return err
			}

			var opts []llm.SanitizeOption
			if lenient || app.Options.Model.LenientToolNames {
				opts = append(opts, llm.WithLenientNameMatch())
			}
			out := llm.SanitizeToolMessages(msgs, opts...)
			logger.Debug("[CLI] sanitized %d messages into %d", len(msgs), len(out))

			encoded, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(app.Out, string(encoded))
			return err
		},
	}
	cmd.Flags().BoolVar(&lenient, "lenient", false, "Pair a tool message without a call id with any open call.")
	return cmd
}

func (a *App) readInput(args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(a.In)
	}
	return os.ReadFile(args[0])
}
