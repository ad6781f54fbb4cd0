// Package main is the entry point for the aptprep CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/aptprep/aptprep/cmd/aptprep/commands"
)

func main() {
	if err := run(); err != nil {
		// zerr prints a full error report with metadata when using %+v
		_, _ = fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return commands.New().Execute(ctx)
}
