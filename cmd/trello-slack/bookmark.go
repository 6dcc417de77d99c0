package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gordonpn/trello-slack-relay/internal/bookmark"
	"github.com/gordonpn/trello-slack-relay/internal/config"
	"github.com/gordonpn/trello-slack-relay/internal/logging"
	"github.com/gordonpn/trello-slack-relay/internal/metrics"
)

var bookmarkCmd = &cobra.Command{
	Use:   "bookmark",
	Short: "Inspect or override the stored bookmark",
}

var bookmarkShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored bookmark and the store holding it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(store bookmark.Store) error {
			current, err := store.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("load bookmark: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", store.Name(), current)
			return nil
		})
	},
}

var bookmarkSetCmd = &cobra.Command{
	Use:   "set <action-id>",
	Short: "Overwrite the stored bookmark; use 0 to replay from the oldest available action",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		value := strings.TrimSpace(args[0])
		if value == "" {
			return fmt.Errorf("bookmark value must not be empty")
		}

		return withStore(cmd.Context(), func(store bookmark.Store) error {
			previous, err := store.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("load bookmark: %w", err)
			}
			if err := store.Save(cmd.Context(), bookmark.Bookmark(value)); err != nil {
				return fmt.Errorf("save bookmark: %w", err)
			}
			logger.Info().Str("store", store.Name()).Str("previous", previous.String()).Str("bookmark", value).Msg("bookmark overwritten")
			return nil
		})
	},
}

func init() {
	bookmarkCmd.AddCommand(bookmarkShowCmd)
	bookmarkCmd.AddCommand(bookmarkSetCmd)
}

// withStore opens the configured store, runs fn against it and pushes the
// recorded store metrics when a Pushgateway is configured.
func withStore(ctx context.Context, fn func(bookmark.Store) error) error {
	m := metrics.New(cfg.Metrics.PushgatewayURL, cfg.Metrics.JobName, cfg.Metrics.Instance)
	defer func() {
		pushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := m.Push(pushCtx); err != nil {
			logger.Warn().Err(err).Msg("metrics push failed")
		}
	}()

	store, err := openStore(ctx, cfg, logging.Component(logger, "bookmark"), m)
	if err != nil {
		return err
	}
	defer closeStore(store)
	return fn(store)
}

func openStore(ctx context.Context, cfg config.Config, log zerolog.Logger, m *metrics.Metrics) (bookmark.Store, error) {
	return bookmark.Select(ctx, bookmark.Options{
		FilePath: cfg.Bookmark.File,
		RedisURL: cfg.RedisConnURL(),
		Key:      cfg.Bookmark.Key,
	}, log, m)
}

func closeStore(store bookmark.Store) {
	if closer, ok := store.(io.Closer); ok {
		_ = closer.Close()
	}
}
