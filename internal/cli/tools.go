package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/gosuri/uitable"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mitchellh/go-wordwrap"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/voocel/toolbridge/internal/bootstrap"
	"github.com/voocel/toolbridge/tools"
)

func newToolsCommand(app *App) *cobra.Command {
	var showSchema bool

	cmd := &cobra.Command{
		Use:   "tools [filter]",
		Short: "List the tools the engine serves",
		Example: heredoc.Doc(`
			# All tools
			toolbridge tools

			# Tools whose name fuzzily matches "fetch"
			toolbridge tools fetch

			# Only the fetch family, with input schemas
			toolbridge tools --server.device=false --schema
		`),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := bootstrap.NewServer(app.Options)
			if err != nil {
				return err
			}
			defer engine.Close()

			list := engine.Registry().List()
			if len(args) == 1 {
				list = lo.Filter(list, func(t tools.Tool, _ int) bool {
					return fuzzy.MatchNormalizedFold(args[0], t.Name())
				})
			}
			return app.printTools(list, showSchema)
		},
	}
	cmd.Flags().BoolVar(&showSchema, "schema", false, "Also print each tool's input schema.")
	return cmd
}

func (a *App) printTools(list []tools.Tool, showSchema bool) error {
	width, _ := terminalWidth(a.Out)
	descWidth := uint(max(width-32, 30))

	table := uitable.New()
	table.Separator = "  "
	table.AddRow("NAME", "CAPABILITIES", "DESCRIPTION")
	for _, t := range list {
		caps := "-"
		if c, ok := t.(tools.Capable); ok && len(c.Capabilities()) > 0 {
			caps = strings.Join(lo.Map(c.Capabilities(), func(c tools.Capability, _ int) string {
				return string(c)
			}), ",")
		}
		table.AddRow(t.Name(), caps, wordwrap.WrapString(t.Description(), descWidth))
		if showSchema {
			table.AddRow("", "", dimColor.Sprint(schemaSummary(t.Schema())))
		}
	}
	_, err := fmt.Fprintln(a.Out, table)
	return err
}

func schemaSummary(s *tools.ToolSchema) string {
	required := lo.Associate(s.Required, func(name string) (string, bool) {
		return name, true
	})
	names := lo.Keys(s.Properties)
	if len(names) == 0 {
		return "(no arguments)"
	}
	slices.Sort(names)
	return strings.Join(lo.Map(names, func(name string, _ int) string {
		typ := "any"
		if prop, ok := s.Properties[name].(map[string]interface{}); ok {
			if t, ok := prop["type"].(string); ok {
				typ = t
			}
		}
		if required[name] {
			return fmt.Sprintf("%s:%s*", name, typ)
		}
		return fmt.Sprintf("%s:%s", name, typ)
	}), " ")
}
