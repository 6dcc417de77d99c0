package notifications

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// NtfyNotifier publishes each channel to its own topic, derived from the base
// topic URL: https://ntfy.sh/trello + "#eng" -> https://ntfy.sh/trello-eng.
type NtfyNotifier struct {
	client   *http.Client
	topicURL string
	token    string
}

func NewNtfyNotifier(client *http.Client, topicURL, token string) *NtfyNotifier {
	return &NtfyNotifier{client: client, topicURL: strings.TrimSpace(topicURL), token: strings.TrimSpace(token)}
}

func (n *NtfyNotifier) Name() string {
	return "ntfy"
}

func (n *NtfyNotifier) Notify(ctx context.Context, note Notification) error {
	return n.publish(ctx, n.channelTopicURL(note.Channel), note)
}

func (n *NtfyNotifier) channelTopicURL(channel string) string {
	slug := channelTopicSlug(channel)
	if slug == "" {
		return n.topicURL
	}
	base := strings.TrimSuffix(n.topicURL, "-")
	return fmt.Sprintf("%s-%s", base, slug)
}

func (n *NtfyNotifier) publish(ctx context.Context, topicURL string, note Notification) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, topicURL, bytes.NewBufferString(note.Text))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	if n.token != "" {
		req.Header.Set("Authorization", "Bearer "+n.token)
	}
	if note.Username != "" {
		req.Header.Set("Title", note.Username)
	}
	if note.IconURL != "" {
		req.Header.Set("Icon", note.IconURL)
	}
	req.Header.Set("Markdown", "yes")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("post ntfy: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("ntfy status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

func channelTopicSlug(channel string) string {
	channelLower := strings.ToLower(strings.TrimSpace(channel))
	if channelLower == "" {
		return ""
	}
	var b strings.Builder
	for _, r := range channelLower {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
