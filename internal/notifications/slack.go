package notifications

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/slack-go/slack"
)

type SlackNotifier struct {
	client     *http.Client
	webhookURL string
}

func NewSlackNotifier(client *http.Client, webhookURL string) *SlackNotifier {
	return &SlackNotifier{client: client, webhookURL: strings.TrimSpace(webhookURL)}
}

// LegacyWebhookURL builds the team-scoped incoming webhook URL used by Slack
// integrations configured with a domain and token.
func LegacyWebhookURL(domain, token string) string {
	return fmt.Sprintf("https://%s.slack.com/services/hooks/incoming-webhook?token=%s",
		strings.TrimSpace(domain), url.QueryEscape(strings.TrimSpace(token)))
}

func (s *SlackNotifier) Name() string {
	return "slack"
}

func (s *SlackNotifier) Notify(ctx context.Context, n Notification) error {
	msg := &slack.WebhookMessage{
		Channel:  n.Channel,
		Text:     n.Text,
		Username: n.Username,
		IconURL:  n.IconURL,
	}
	if err := slack.PostWebhookCustomHTTPContext(ctx, s.webhookURL, s.client, msg); err != nil {
		return fmt.Errorf("post slack webhook: %w", err)
	}
	return nil
}
