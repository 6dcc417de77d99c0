// Package app wires the configured components together and owns the process
// lifecycle: store selection, bookmark load, feed construction and the run loop.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/gordonpn/trello-slack-relay/internal/bookmark"
	"github.com/gordonpn/trello-slack-relay/internal/config"
	"github.com/gordonpn/trello-slack-relay/internal/httpapi"
	"github.com/gordonpn/trello-slack-relay/internal/logging"
	"github.com/gordonpn/trello-slack-relay/internal/metrics"
	"github.com/gordonpn/trello-slack-relay/internal/notifications"
	"github.com/gordonpn/trello-slack-relay/internal/relay"
	"github.com/gordonpn/trello-slack-relay/internal/trello"
)

const (
	httpTimeout     = 15 * time.Second
	shutdownTimeout = 15 * time.Second
)

// App is built once at startup and passed to whatever needs it.
type App struct {
	cfg     config.Config
	log     zerolog.Logger
	metrics *metrics.Metrics

	store  bookmark.Store
	trello *trello.Client
	router *relay.Router
	feed   *trello.Feed
}

// New selects the bookmark store, reads the start cursor and builds the feed.
// Nothing is polled until Run.
func New(ctx context.Context, cfg config.Config, log zerolog.Logger) (*App, error) {
	m := metrics.New(cfg.Metrics.PushgatewayURL, cfg.Metrics.JobName, cfg.Metrics.Instance)
	httpClient := &http.Client{Timeout: httpTimeout}

	subscription, err := relay.NewSubscription(cfg.Trello.Events)
	if err != nil {
		return nil, err
	}

	backend, err := NewBackend(cfg, httpClient)
	if err != nil {
		return nil, err
	}

	store, err := bookmark.Select(ctx, bookmark.Options{
		FilePath: cfg.Bookmark.File,
		RedisURL: cfg.RedisConnURL(),
		Key:      cfg.Bookmark.Key,
	}, logging.Component(log, "bookmark"), m)
	if err != nil {
		return nil, fmt.Errorf("select bookmark store: %w", err)
	}

	cursor, err := store.Load(ctx)
	if err != nil {
		closeStore(store)
		return nil, fmt.Errorf("load bookmark from %s: %w", store.Name(), err)
	}

	a := &App{
		cfg:     cfg,
		log:     log,
		metrics: m,
		store:   store,
	}

	a.trello = trello.NewClient(httpClient, trello.ClientConfig{
		BaseURL: cfg.Trello.BaseURL,
		Key:     cfg.Trello.Key,
		Token:   cfg.Trello.Token,
	}, m)

	notifier := relay.NewNotifier(backend, cfg.Slack.Username, cfg.Slack.IconURL, logging.Component(log, "notifier"), m)
	a.router = relay.NewRouter(cfg.BoardChannels(), subscription, a.trello, notifier, logging.Component(log, "router"), m)

	a.feed = trello.NewFeed(a.trello, trello.FeedConfig{
		Boards:   cfg.BoardIDs(),
		Cursor:   string(cursor),
		Interval: cfg.Trello.PollInterval,
	}, logging.Component(log, "feed"), m).
		OnEvent(a.router.Route).
		OnCursor(a.saveCursor)

	log.Info().
		Str("store", store.Name()).
		Str("cursor", cursor.String()).
		Strs("boards", cfg.BoardIDs()).
		Str("backend", backend.Name()).
		Msg("relay initialised")
	return a, nil
}

// NewBackend builds the chat backend selected by cfg.Chat.Backend.
func NewBackend(cfg config.Config, client *http.Client) (notifications.Notifier, error) {
	switch cfg.Chat.Backend {
	case "", config.BackendSlack:
		webhookURL := cfg.Slack.WebhookURL
		if webhookURL == "" {
			webhookURL = notifications.LegacyWebhookURL(cfg.Slack.Domain, cfg.Slack.Token)
		}
		return notifications.NewSlackNotifier(client, webhookURL), nil
	case config.BackendDiscord:
		discord, err := notifications.NewDiscordNotifier(client, cfg.Chat.DiscordWebhookURL)
		if err != nil {
			return nil, err
		}
		return discord, nil
	case config.BackendWebhook:
		return notifications.NewWebhookNotifier(client, cfg.Chat.WebhookURL, cfg.Chat.WebhookToken), nil
	case config.BackendNtfy:
		return notifications.NewNtfyNotifier(client, cfg.Chat.NtfyTopicURL, cfg.Chat.NtfyToken), nil
	}
	return nil, fmt.Errorf("unknown chat backend %q", cfg.Chat.Backend)
}

func (a *App) saveCursor(ctx context.Context, cursor string) error {
	err := a.store.Save(ctx, bookmark.Bookmark(cursor))
	a.metrics.RecordBookmarkSave(err)
	if err != nil {
		a.log.Error().Err(err).Str("store", a.store.Name()).Str("cursor", cursor).Msg("bookmark save failed")
		return err
	}
	return nil
}

// Status implements httpapi.StatusProvider.
func (a *App) Status() httpapi.Status {
	return httpapi.Status{
		Store:  a.store.Name(),
		Cursor: a.feed.Cursor(),
		Boards: a.cfg.BoardIDs(),
	}
}

// Run polls until ctx is cancelled or a fatal error occurs. The ops server,
// when configured, runs alongside and is shut down on return.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	var server *http.Server
	serverErr := make(chan error, 1)
	if a.cfg.HTTPAddr != "" {
		server = &http.Server{
			Addr:              a.cfg.HTTPAddr,
			Handler:           httpapi.NewRouter(a, a.metrics.Handler()),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			a.log.Info().Str("addr", a.cfg.HTTPAddr).Msg("ops server listening")
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- fmt.Errorf("ops server: %w", err)
			}
		}()
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	feedErr := make(chan error, 1)
	go func() {
		feedErr <- a.feed.Run(runCtx)
	}()

	var err error
	select {
	case err = <-feedErr:
	case err = <-serverErr:
		cancel()
		<-feedErr
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if server != nil {
		_ = server.Shutdown(shutdownCtx)
	}
	if pushErr := a.metrics.Push(shutdownCtx); pushErr != nil {
		a.log.Warn().Err(pushErr).Msg("metrics push failed")
	}

	if err != nil {
		a.log.Error().Err(err).Str("cursor", a.feed.Cursor()).Msg("relay stopped")
		return err
	}
	a.log.Info().Str("cursor", a.feed.Cursor()).Msg("relay stopped")
	return nil
}

func (a *App) Close() {
	closeStore(a.store)
}

func closeStore(store bookmark.Store) {
	if closer, ok := store.(io.Closer); ok {
		_ = closer.Close()
	}
}
