package relay

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gordonpn/trello-slack-relay/internal/metrics"
	"github.com/gordonpn/trello-slack-relay/internal/notifications"
)

const (
	DefaultSender  = "Trello"
	DefaultIconURL = "http://i.imgur.com/HJLfIU6.png"
)

// Notifier sends relay messages through a chat backend under a fixed sender
// identity and icon. Delivery is attempted once.
type Notifier struct {
	backend notifications.Notifier
	sender  string
	iconURL string
	log     zerolog.Logger
	metrics *metrics.Metrics
}

func NewNotifier(backend notifications.Notifier, sender, iconURL string, log zerolog.Logger, m *metrics.Metrics) *Notifier {
	if strings.TrimSpace(sender) == "" {
		sender = DefaultSender
	}
	if strings.TrimSpace(iconURL) == "" {
		iconURL = DefaultIconURL
	}
	return &Notifier{backend: backend, sender: sender, iconURL: iconURL, log: log, metrics: m}
}

func (n *Notifier) Notify(ctx context.Context, channel, text string) error {
	return n.NotifyAs(ctx, channel, text, n.sender)
}

func (n *Notifier) NotifyAs(ctx context.Context, channel, text, sender string) error {
	if sender == "" {
		sender = n.sender
	}

	startTime := time.Now()
	err := n.backend.Notify(ctx, notifications.Notification{
		Channel:  channel,
		Text:     text,
		Username: sender,
		IconURL:  n.iconURL,
	})
	elapsed := time.Since(startTime)
	n.metrics.RecordChatPublish(elapsed, err)

	if err != nil {
		n.log.Error().Err(err).Str("backend", n.backend.Name()).Str("channel", channel).Msg("chat delivery failed")
		return fmt.Errorf("notify %s via %s: %w", channel, n.backend.Name(), err)
	}

	n.log.Info().Str("backend", n.backend.Name()).Str("channel", channel).Dur("elapsed", elapsed).Int("bytes", len(text)).Msg("notification sent")
	return nil
}
