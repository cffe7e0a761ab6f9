package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/voocel/toolbridge/internal/bootstrap"
	"github.com/voocel/toolbridge/pkg/json"
	"github.com/voocel/toolbridge/tools/fetch"
)

// ErrToolFailed is returned when a call produced an error result. The
// result itself has already been printed.
var ErrToolFailed = errors.New("tool call failed")

func newCallCommand(app *App) *cobra.Command {
	var (
		headers  map[string]string
		markdown bool
	)

	cmd := &cobra.Command{
		Use:   "call <tool> [arguments-json]",
		Short: "Call one tool through the in-memory transport",
		Example: heredoc.Doc(`
			# Fetch a page as Markdown
			toolbridge call fetch_markdown '{"url":"https://example.com"}'

			# Shorthand for the url argument, with an extra header
			toolbridge call fetch_json https://api.github.com -H Accept=application/json

			# Device information of this host
			toolbridge call get_device_info
		`),
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			arguments, err := parseArguments(args[1:], headers)
			if err != nil {
				return err
			}

			engine, err := bootstrap.NewServer(app.Options)
			if err != nil {
				return err
			}
			name := args[0]
			if !engine.Registry().Has(name) {
				_ = engine.Close()
				return unknownToolError(name, engine.Registry().Names())
			}

			ctx := cmd.Context()
			b, err := bootstrap.Connect(ctx, engine, Version)
			if err != nil {
				return err
			}
			defer b.Close()

			req := mcp.CallToolRequest{}
			req.Params.Name = name
			req.Params.Arguments = arguments
			res, err := b.Client.CallTool(ctx, req)
			if err != nil {
				return err
			}

			text := strings.Join(lo.Map(res.Content, func(c mcp.Content, _ int) string {
				return mcp.GetTextFromContent(c)
			}), "\n")
			if res.IsError {
				errorColor.Fprintln(app.ErrOut, text)
				return ErrToolFailed
			}
			if markdown || name == fetch.ToolMarkdown {
				text = renderMarkdown(app.Out, text)
			}
			_, err = fmt.Fprintln(app.Out, text)
			return err
		},
	}
	cmd.Flags().StringToStringVarP(&headers, "header", "H", nil, "Request header for fetch tools, as Name=value.")
	cmd.Flags().BoolVar(&markdown, "markdown", false, "Render the result as Markdown when writing to a terminal.")
	return cmd
}

// parseArguments accepts a JSON object or, as a shorthand for fetch tools,
// a bare URL.
func parseArguments(args []string, headers map[string]string) (map[string]any, error) {
	arguments := map[string]any{}
	if len(args) > 0 {
		raw := strings.TrimSpace(args[0])
		switch {
		case strings.HasPrefix(raw, "{"):
			if err := json.Unmarshal([]byte(raw), &arguments); err != nil {
				return nil, fmt.Errorf("invalid arguments json: %w", err)
			}
		case raw != "":
			arguments["url"] = raw
		}
	}
	if len(headers) > 0 {
		merged := map[string]any{}
		if existing, ok := arguments["headers"].(map[string]any); ok {
			merged = existing
		}
		for k, v := range headers {
			merged[k] = v
		}
		arguments["headers"] = merged
	}
	return arguments, nil
}

func unknownToolError(name string, names []string) error {
	candidates := suggest(name, names)
	if len(candidates) == 0 {
		return fmt.Errorf("unknown tool %q, run 'toolbridge tools' to list them", name)
	}
	return fmt.Errorf("unknown tool %q, did you mean %s?", name, strings.Join(candidates, " or "))
}
