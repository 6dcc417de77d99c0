package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gordonpn/trello-slack-relay/internal/config"
	"github.com/gordonpn/trello-slack-relay/internal/relay"
)

var checkConfigCmd = &cobra.Command{
	Use:   "check-config",
	Short: "Validate the configuration and print the resolved routing",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printConfig(cmd.OutOrStdout(), cfg)
	},
}

func printConfig(w io.Writer, cfg config.Config) error {
	subscription, err := relay.NewSubscription(cfg.Trello.Events)
	if err != nil {
		return err
	}

	channels := cfg.BoardChannels()
	boards := make([]string, 0, len(channels))
	for board := range channels {
		boards = append(boards, board)
	}
	sort.Strings(boards)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "BOARD\tCHANNEL")
	for _, board := range boards {
		channel := channels[board]
		if channel == "" {
			channel = "(backend default)"
		}
		fmt.Fprintf(tw, "%s\t%s\n", board, channel)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	events := "all"
	if !subscription.All() {
		names := make([]string, 0, len(subscription.Kinds()))
		for _, kind := range subscription.Kinds() {
			names = append(names, string(kind))
		}
		events = strings.Join(names, ",")
		if events == "" {
			events = "none"
		}
	}

	fmt.Fprintf(w, "\nevents:   %s\n", events)
	fmt.Fprintf(w, "backend:  %s\n", cfg.Chat.Backend)
	fmt.Fprintf(w, "interval: %s\n", cfg.Trello.PollInterval)
	return nil
}
