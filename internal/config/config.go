// Package config loads the relay configuration from a YAML file, then applies
// environment overrides. Secrets are usually supplied through the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	yaml "go.yaml.in/yaml/v3"

	"github.com/gordonpn/trello-slack-relay/internal/trello"
)

const DefaultPath = "config.yaml"

const (
	BackendSlack   = "slack"
	BackendDiscord = "discord"
	BackendWebhook = "webhook"
	BackendNtfy    = "ntfy"
)

type Config struct {
	Trello   TrelloConfig   `yaml:"trello"`
	Slack    SlackConfig    `yaml:"slack"`
	Chat     ChatConfig     `yaml:"chat"`
	Bookmark BookmarkConfig `yaml:"bookmark"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Log      LogConfig      `yaml:"log"`

	// HTTPAddr serves /healthz, /metrics and /api/status. Empty disables it.
	HTTPAddr string `yaml:"http_addr"`
}

type TrelloConfig struct {
	Key          string        `yaml:"key"`
	Token        string        `yaml:"token"`
	BaseURL      string        `yaml:"base_url"`
	Boards       BoardList     `yaml:"boards"`
	Events       []string      `yaml:"events"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

type SlackConfig struct {
	Domain     string `yaml:"domain"`
	Token      string `yaml:"token"`
	WebhookURL string `yaml:"webhook_url"`
	// Channel is the destination for boards listed without an override.
	Channel  string `yaml:"channel"`
	Username string `yaml:"username"`
	IconURL  string `yaml:"icon_url"`
}

type ChatConfig struct {
	Backend           string `yaml:"backend"`
	DiscordWebhookURL string `yaml:"discord_webhook_url"`
	WebhookURL        string `yaml:"webhook_url"`
	WebhookToken      string `yaml:"webhook_token"`
	NtfyTopicURL      string `yaml:"ntfy_topic_url"`
	NtfyToken         string `yaml:"ntfy_token"`
}

type BookmarkConfig struct {
	File         string `yaml:"file"`
	Key          string `yaml:"key"`
	RedisToGoURL string `yaml:"redistogo_url"`
	RedisURL     string `yaml:"redis_url"`
}

type MetricsConfig struct {
	PushgatewayURL string `yaml:"pushgateway_url"`
	JobName        string `yaml:"job_name"`
	Instance       string `yaml:"instance"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LoadDotEnv reads .env into the process environment when the file exists.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// Load reads the YAML file at path, applies environment overrides and
// validates the result. An empty path means DefaultPath, which may be absent.
func Load(path string) (Config, error) {
	var cfg Config

	required := path != ""
	if path == "" {
		path = DefaultPath
	}

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !required:
	default:
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	c.Chat.Backend = strings.ToLower(strings.TrimSpace(c.Chat.Backend))
	if c.Chat.Backend == "" {
		c.Chat.Backend = BackendSlack
	}
	if c.Trello.PollInterval <= 0 {
		c.Trello.PollInterval = trello.DefaultPollInterval
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c Config) Validate() error {
	var errs []error

	if len(c.Trello.Boards) == 0 {
		errs = append(errs, errors.New("trello.boards: at least one board is required"))
	}
	if strings.TrimSpace(c.Trello.Key) == "" || strings.TrimSpace(c.Trello.Token) == "" {
		errs = append(errs, errors.New("trello key and token are required (TRELLO_KEY, TRELLO_TOKEN)"))
	}
	for _, name := range c.Trello.Events {
		if _, ok := trello.ParseKind(name); !ok {
			errs = append(errs, fmt.Errorf("trello.events: unknown event kind %q", name))
		}
	}

	switch c.Chat.Backend {
	case BackendSlack:
		if c.Slack.WebhookURL == "" && (c.Slack.Domain == "" || c.Slack.Token == "") {
			errs = append(errs, errors.New("slack: webhook_url or domain and token are required"))
		}
	case BackendDiscord:
		if c.Chat.DiscordWebhookURL == "" {
			errs = append(errs, errors.New("chat.discord_webhook_url is required for the discord backend"))
		}
	case BackendWebhook:
		if c.Chat.WebhookURL == "" {
			errs = append(errs, errors.New("chat.webhook_url is required for the webhook backend"))
		}
	case BackendNtfy:
		if c.Chat.NtfyTopicURL == "" {
			errs = append(errs, errors.New("chat.ntfy_topic_url is required for the ntfy backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("chat.backend: unknown backend %q", c.Chat.Backend))
	}

	return errors.Join(errs...)
}

// BoardIDs returns the configured boards in order, without duplicates.
func (c Config) BoardIDs() []string {
	seen := make(map[string]bool, len(c.Trello.Boards))
	ids := make([]string, 0, len(c.Trello.Boards))
	for _, board := range c.Trello.Boards {
		if seen[board.ID] {
			continue
		}
		seen[board.ID] = true
		ids = append(ids, board.ID)
	}
	return ids
}

// BoardChannels resolves every board to its destination channel.
func (c Config) BoardChannels() map[string]string {
	return ResolveChannels(c.Trello.Boards, c.Slack.Channel)
}

func ResolveChannels(boards []BoardEntry, defaultChannel string) map[string]string {
	channels := make(map[string]string, len(boards))
	for _, board := range boards {
		channel := board.Channel
		if channel == "" {
			channel = defaultChannel
		}
		channels[board.ID] = channel
	}
	return channels
}

// RedisConnURL prefers REDISTOGO_URL over REDIS_URL.
func (c Config) RedisConnURL() string {
	return firstNonEmpty(c.Bookmark.RedisToGoURL, c.Bookmark.RedisURL)
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}
