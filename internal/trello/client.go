package trello

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gordonpn/trello-slack-relay/internal/metrics"
	"github.com/gordonpn/trello-slack-relay/internal/ratelimit"
)

const (
	DefaultBaseURL = "https://api.trello.com/1"

	// Trello allows 100 requests per 10 seconds per token; stay under it.
	defaultRateLimit  = 90
	defaultRateWindow = 10 * time.Second

	actionsPageLimit = 1000
	rateLimitKey     = "trello"
)

var ErrUnexpectedStatus = errors.New("unexpected trello status")

type ClientConfig struct {
	BaseURL string
	Key     string
	Token   string
}

type Client struct {
	client  *http.Client
	baseURL string
	key     string
	token   string
	limiter *ratelimit.Limiter
	metrics *metrics.Metrics
}

func NewClient(client *http.Client, cfg ClientConfig, m *metrics.Metrics) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		client:  client,
		baseURL: baseURL,
		key:     strings.TrimSpace(cfg.Key),
		token:   strings.TrimSpace(cfg.Token),
		limiter: ratelimit.New(defaultRateLimit, defaultRateWindow),
		metrics: m,
	}
}

// BoardActions returns the supported actions on a board newer than since,
// newest first as Trello returns them.
func (c *Client) BoardActions(ctx context.Context, boardID, since string) ([]Action, error) {
	query := url.Values{}
	query.Set("filter", joinKinds(Kinds()))
	query.Set("limit", fmt.Sprint(actionsPageLimit))
	if since != "" && since != "0" {
		query.Set("since", since)
	}

	var actions []Action
	if err := c.get(ctx, "/boards/"+url.PathEscape(boardID)+"/actions", query, &actions); err != nil {
		return nil, err
	}
	return actions, nil
}

// ListName looks up the display name of a list.
func (c *Client) ListName(ctx context.Context, listID string) (string, error) {
	query := url.Values{}
	query.Set("fields", "name")

	var list struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := c.get(ctx, "/lists/"+url.PathEscape(listID), query, &list); err != nil {
		return "", fmt.Errorf("lookup list %s: %w", listID, err)
	}
	return list.Name, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	if err := c.limiter.Wait(ctx, rateLimitKey); err != nil {
		return err
	}

	query.Set("key", c.key)
	query.Set("token", c.token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build trello request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	startTime := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.metrics.RecordTrelloRequest(time.Since(startTime), err)
		return fmt.Errorf("get trello %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	elapsed := time.Since(startTime)
	if err != nil {
		c.metrics.RecordTrelloRequest(elapsed, err)
		return fmt.Errorf("read trello %s: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("%w: %s status %d: %s", ErrUnexpectedStatus, path, resp.StatusCode, strings.TrimSpace(string(body)))
		c.metrics.RecordTrelloRequest(elapsed, err)
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		c.metrics.RecordTrelloRequest(elapsed, err)
		return fmt.Errorf("decode trello %s: %w", path, err)
	}

	c.metrics.RecordTrelloRequest(elapsed, nil)
	return nil
}

func joinKinds(kinds []Kind) string {
	parts := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		parts = append(parts, string(kind))
	}
	return strings.Join(parts, ",")
}
