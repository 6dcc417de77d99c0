package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gordonpn/trello-slack-relay/internal/app"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Poll the configured boards and relay their activity (default)",
	Args:  cobra.NoArgs,
	RunE:  runRelay,
}

func runRelay(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	relay, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	return relay.Run(ctx)
}
