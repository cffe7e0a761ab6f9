package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "go.uber.org/automaxprocs"

	"github.com/voocel/toolbridge/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewDefaultCommand().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, cli.ErrToolFailed) {
			fmt.Fprintln(os.Stderr, "toolbridge:", err)
		}
		stop()
		os.Exit(1)
	}
}
