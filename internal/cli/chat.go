package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/voocel/toolbridge/internal/bootstrap"
	"github.com/voocel/toolbridge/llm"
	"github.com/voocel/toolbridge/runner"
	"github.com/voocel/toolbridge/schema"
)

func newChatCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Chat with a model that can use the bridge tools",
		Long: heredoc.Doc(`
			Start a conversation with a model. Tool calls requested by the model are
			served by the in-process engine and their results are fed back until
			the model answers.

			When invoked without arguments, read messages from stdin one line at a
			time. Type /clear to reset the conversation and /quit to exit.
		`),
		Example: heredoc.Doc(`
			# Single message
			TOOLBRIDGE_MODEL_API_KEY=sk-... toolbridge chat "Summarize https://go.dev/blog"

			# Interactive, with an Anthropic model
			toolbridge chat --model.model=claude-sonnet-4-20250514
		`),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := bootstrap.NewProvider(app.Options.Model)
			if err != nil {
				return err
			}
			defer provider.Close()

			engine, err := bootstrap.NewServer(app.Options)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			b, err := bootstrap.Connect(ctx, engine, Version)
			if err != nil {
				return err
			}
			defer b.Close()

			var sanitize []llm.SanitizeOption
			if app.Options.Model.LenientToolNames {
				sanitize = append(sanitize, llm.WithLenientNameMatch())
			}
			s := &chatSession{
				app: app,
				runner: runner.New(runner.Config{
					Provider:     provider,
					Client:       b.Client,
					SystemPrompt: app.Options.Model.SystemPrompt,
					MaxTurns:     app.Options.Model.MaxTurns,
					Observer:     &chatObserver{app: app},
					Sanitize:     sanitize,
				}),
			}

			if len(args) == 1 {
				return s.send(ctx, args[0])
			}
			app.watch()
			return s.interactive(ctx)
		},
	}
	return cmd
}

type chatSession struct {
	app     *App
	runner  *runner.Runner
	history []schema.Message
}

func (s *chatSession) send(ctx context.Context, text string) error {
	history := append(s.history, schema.UserMessage(text))
	result, err := s.runner.Run(ctx, history)
	if err != nil {
		return err
	}
	s.history = result.Messages
	_, err = fmt.Fprintln(s.app.Out, renderMarkdown(s.app.Out, result.Message.Content))
	return err
}

func (s *chatSession) interactive(ctx context.Context) error {
	scanner := bufio.NewScanner(s.app.In)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		labelColor.Fprint(s.app.Out, "you> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/clear":
			s.history = nil
			dimColor.Fprintln(s.app.Out, "conversation cleared")
			continue
		}

		if err := s.send(ctx, line); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			errorColor.Fprintf(s.app.ErrOut, "Error: %v\n", err)
		}
	}
}

type chatObserver struct {
	runner.NoopObserver
	app *App
}

func (o *chatObserver) OnToolResult(ctx context.Context, call schema.ToolCall, result string, isError bool) {
	status := "ok"
	if isError {
		status = "error"
	}
	dimColor.Fprintf(o.app.ErrOut, "[tool] %s %s (%d bytes)\n", call.Function.Name, status, len(result))
}
