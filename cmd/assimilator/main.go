// Package main provides the assimilator command-line entry point.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/thebtf/assimilator/internal/cli"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	// Tables go to stdout, so log to stderr
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx, Version); err != nil {
		log.Error().Err(err).Msg("assimilator failed")
		stop()
		os.Exit(1)
	}
}
