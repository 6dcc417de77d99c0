package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// envOverrides lists every setting that can come from the environment. Set
// variables win over the file.
type envOverrides struct {
	TrelloKey          string        `env:"TRELLO_KEY"`
	TrelloToken        string        `env:"TRELLO_TOKEN"`
	TrelloBaseURL      string        `env:"TRELLO_BASE_URL"`
	TrelloEvents       []string      `env:"TRELLO_EVENTS"`
	TrelloPollInterval time.Duration `env:"TRELLO_POLL_INTERVAL"`

	SlackDomain     string `env:"SLACK_DOMAIN"`
	SlackToken      string `env:"SLACK_TOKEN"`
	SlackWebhookURL string `env:"SLACK_WEBHOOK_URL"`
	SlackChannel    string `env:"SLACK_CHANNEL"`
	SlackUsername   string `env:"SLACK_USERNAME"`
	SlackIconURL    string `env:"SLACK_ICON_URL"`

	ChatBackend       string `env:"CHAT_BACKEND"`
	DiscordWebhookURL string `env:"DISCORD_WEBHOOK_URL"`
	WebhookURL        string `env:"WEBHOOK_URL"`
	WebhookToken      string `env:"WEBHOOK_TOKEN"`
	NtfyTopicURL      string `env:"NTFY_TOPIC_URL"`
	NtfyToken         string `env:"NTFY_TOKEN"`

	BookmarkFile string `env:"BOOKMARK_FILE"`
	BookmarkKey  string `env:"BOOKMARK_KEY"`
	RedisToGoURL string `env:"REDISTOGO_URL"`
	RedisURL     string `env:"REDIS_URL"`

	PushgatewayURL string `env:"PROMETHEUS_PUSHGATEWAY_URL"`
	JobName        string `env:"PROMETHEUS_JOB_NAME"`
	Instance       string `env:"PROMETHEUS_GROUPING_KEY"`

	LogLevel  string `env:"LOG_LEVEL"`
	LogFormat string `env:"LOG_FORMAT"`

	HTTPAddr string `env:"HTTP_ADDR"`
}

func (c *Config) applyEnv() error {
	o, err := env.ParseAs[envOverrides]()
	if err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}

	override(&c.Trello.Key, o.TrelloKey)
	override(&c.Trello.Token, o.TrelloToken)
	override(&c.Trello.BaseURL, o.TrelloBaseURL)
	if o.TrelloEvents != nil {
		c.Trello.Events = o.TrelloEvents
	}
	if o.TrelloPollInterval > 0 {
		c.Trello.PollInterval = o.TrelloPollInterval
	}

	override(&c.Slack.Domain, o.SlackDomain)
	override(&c.Slack.Token, o.SlackToken)
	override(&c.Slack.WebhookURL, o.SlackWebhookURL)
	override(&c.Slack.Channel, o.SlackChannel)
	override(&c.Slack.Username, o.SlackUsername)
	override(&c.Slack.IconURL, o.SlackIconURL)

	override(&c.Chat.Backend, o.ChatBackend)
	override(&c.Chat.DiscordWebhookURL, o.DiscordWebhookURL)
	override(&c.Chat.WebhookURL, o.WebhookURL)
	override(&c.Chat.WebhookToken, o.WebhookToken)
	override(&c.Chat.NtfyTopicURL, o.NtfyTopicURL)
	override(&c.Chat.NtfyToken, o.NtfyToken)

	override(&c.Bookmark.File, o.BookmarkFile)
	override(&c.Bookmark.Key, o.BookmarkKey)
	override(&c.Bookmark.RedisToGoURL, o.RedisToGoURL)
	override(&c.Bookmark.RedisURL, o.RedisURL)

	override(&c.Metrics.PushgatewayURL, o.PushgatewayURL)
	override(&c.Metrics.JobName, o.JobName)
	override(&c.Metrics.Instance, o.Instance)

	override(&c.Log.Level, o.LogLevel)
	override(&c.Log.Format, o.LogFormat)

	override(&c.HTTPAddr, o.HTTPAddr)
	return nil
}

func override(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
