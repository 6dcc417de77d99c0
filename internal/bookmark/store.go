// Package bookmark persists the id of the last Trello action that was relayed,
// so a restart resumes where the previous process stopped.
package bookmark

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gordonpn/trello-slack-relay/internal/metrics"
)

const (
	DefaultFile = "./last.id"
	DefaultKey  = "prevId"
)

// Bookmark is an opaque cursor into the board action ordering.
type Bookmark string

// IsZero reports whether the bookmark points before the first action.
func (b Bookmark) IsZero() bool {
	return b == "" || b == "0"
}

func (b Bookmark) String() string {
	if b == "" {
		return "0"
	}
	return string(b)
}

// Store reads and writes the single bookmark value.
type Store interface {
	Name() string
	Load(ctx context.Context) (Bookmark, error)
	Save(ctx context.Context, b Bookmark) error
}

type Options struct {
	// FilePath is probed once; when it exists the file backend is used.
	FilePath string
	// RedisURL is a redis:// connection string. Empty means localhost:6379.
	RedisURL string
	Key      string
}

// Select probes for the bookmark file and returns the store to use for the
// lifetime of the process. The Redis backend is pinged before it is returned.
func Select(ctx context.Context, opts Options, log zerolog.Logger, m *metrics.Metrics) (Store, error) {
	path := strings.TrimSpace(opts.FilePath)
	if path == "" {
		path = DefaultFile
	}

	if _, err := os.Stat(path); err == nil {
		log.Info().Str("store", "file").Str("path", path).Msg("using bookmark file")
		return NewFileStore(path), nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("probe bookmark file %s: %w", path, err)
	}

	redisOpts, err := RedisOptions(opts.RedisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(redisOpts)
	if err := client.Ping(ctx).Err(); err != nil {
		m.RecordRedisConnectionError()
		_ = client.Close()
		return nil, fmt.Errorf("connect redis at %s: %w", redisOpts.Addr, err)
	}

	log.Info().Str("store", "redis").Str("addr", redisOpts.Addr).Msg("using redis bookmark")
	return NewRedisStore(client, opts.Key, m), nil
}
