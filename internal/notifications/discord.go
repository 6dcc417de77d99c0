package notifications

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// DiscordNotifier executes a channel webhook. Discord webhooks are bound to a
// single channel, so Notification.Channel is not used for routing.
type DiscordNotifier struct {
	session *discordgo.Session
	id      string
	token   string
}

func NewDiscordNotifier(client *http.Client, webhookURL string) (*DiscordNotifier, error) {
	id, token, err := parseDiscordWebhook(webhookURL)
	if err != nil {
		return nil, err
	}

	session, err := discordgo.New("")
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Client = client

	return &DiscordNotifier{session: session, id: id, token: token}, nil
}

func (d *DiscordNotifier) Name() string {
	return "discord"
}

func (d *DiscordNotifier) Notify(ctx context.Context, n Notification) error {
	params := &discordgo.WebhookParams{
		Content:   n.Text,
		Username:  n.Username,
		AvatarURL: n.IconURL,
	}
	if _, err := d.session.WebhookExecute(d.id, d.token, false, params, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("post discord webhook: %w", err)
	}
	return nil
}

// parseDiscordWebhook extracts the id and token from
// https://discord.com/api/webhooks/{id}/{token}.
func parseDiscordWebhook(raw string) (string, string, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", "", fmt.Errorf("parse discord webhook url: %w", err)
	}

	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	for i := 0; i+2 < len(parts); i++ {
		if parts[i] == "webhooks" && parts[i+1] != "" && parts[i+2] != "" {
			return parts[i+1], parts[i+2], nil
		}
	}
	return "", "", fmt.Errorf("parse discord webhook url: expected /api/webhooks/{id}/{token}")
}
