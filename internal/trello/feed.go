package trello

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/gordonpn/trello-slack-relay/internal/metrics"
)

const DefaultPollInterval = 30 * time.Second

// ActionSource is the part of the Trello API the feed polls.
type ActionSource interface {
	BoardActions(ctx context.Context, boardID, since string) ([]Action, error)
}

// EventHandler is called once per supported action, in id order.
type EventHandler func(ctx context.Context, ev Event, boardID string) error

// CursorHandler is called every time the feed's maximum processed id grows.
type CursorHandler func(ctx context.Context, cursor string) error

type FeedConfig struct {
	Boards   []string
	Cursor   string
	Interval time.Duration
}

// Feed polls boards and delivers their actions one at a time. Handlers run on
// the polling goroutine, so an event is fully handled before the next one.
type Feed struct {
	source   ActionSource
	boards   []string
	interval time.Duration
	cursor   atomic.Value

	onEvent  EventHandler
	onCursor CursorHandler

	log     zerolog.Logger
	metrics *metrics.Metrics
}

type boardAction struct {
	boardID string
	action  Action
}

func NewFeed(source ActionSource, cfg FeedConfig, log zerolog.Logger, m *metrics.Metrics) *Feed {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	f := &Feed{
		source:   source,
		boards:   append([]string(nil), cfg.Boards...),
		interval: interval,
		log:      log,
		metrics:  m,
	}
	f.cursor.Store(cfg.Cursor)
	return f
}

func (f *Feed) OnEvent(handler EventHandler) *Feed {
	f.onEvent = handler
	return f
}

func (f *Feed) OnCursor(handler CursorHandler) *Feed {
	f.onCursor = handler
	return f
}

// Cursor returns the id of the last processed action. Safe for concurrent use.
func (f *Feed) Cursor() string {
	return f.cursor.Load().(string)
}

// Run polls until ctx is cancelled. Any error from the source or a handler
// stops the feed and is returned.
func (f *Feed) Run(ctx context.Context) error {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		if err := f.Poll(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Poll runs a single cycle: every board is queried with the same since
// cursor, the combined actions are sorted by id and dispatched oldest first.
//
// With several boards, an action can land on an earlier board while a later
// one is being fetched and still sort below the later board's newest id. Every
// board but the last is therefore fetched a second time, and only actions up
// to the first pass's newest id are dispatched; anything newer waits for the
// next cycle.
func (f *Feed) Poll(ctx context.Context) error {
	since := f.Cursor()

	seen := make(map[string]bool)
	var batch []boardAction
	collect := func(boardID string, actions []Action, horizon string) {
		for _, action := range actions {
			if seen[action.ID] {
				continue
			}
			if horizon != "" && CompareIDs(action.ID, horizon) > 0 {
				continue
			}
			seen[action.ID] = true
			batch = append(batch, boardAction{boardID: boardID, action: action})
		}
	}

	horizon := ""
	for _, boardID := range f.boards {
		actions, err := f.fetch(ctx, boardID, since)
		if err != nil {
			return err
		}
		collect(boardID, actions, "")
		for _, action := range actions {
			if CompareIDs(action.ID, horizon) > 0 {
				horizon = action.ID
			}
		}
	}

	if horizon != "" && len(f.boards) > 1 {
		for _, boardID := range f.boards[:len(f.boards)-1] {
			actions, err := f.fetch(ctx, boardID, since)
			if err != nil {
				return err
			}
			collect(boardID, actions, horizon)
		}
	}

	sort.SliceStable(batch, func(i, j int) bool {
		return CompareIDs(batch[i].action.ID, batch[j].action.ID) < 0
	})

	for _, item := range batch {
		if !After(item.action.ID, f.Cursor()) {
			continue
		}
		if err := f.dispatch(ctx, item); err != nil {
			return err
		}
		if err := f.advance(ctx, item.action.ID); err != nil {
			return err
		}
	}

	f.metrics.RecordPoll(len(batch))
	f.log.Debug().Int("actions", len(batch)).Str("cursor", f.Cursor()).Msg("poll complete")
	return nil
}

func (f *Feed) fetch(ctx context.Context, boardID, since string) ([]Action, error) {
	actions, err := f.source.BoardActions(ctx, boardID, since)
	if err != nil {
		return nil, fmt.Errorf("fetch actions for board %s: %w", boardID, err)
	}
	if len(actions) >= actionsPageLimit {
		f.log.Warn().Str("board", boardID).Int("actions", len(actions)).Msg("action page is full, older actions may be skipped")
	}
	return actions, nil
}

func (f *Feed) dispatch(ctx context.Context, item boardAction) error {
	ev, err := FromAction(item.action)
	if err != nil {
		f.log.Warn().Err(err).Str("board", item.boardID).Msg("skipping malformed action")
		return nil
	}
	if ev == nil || f.onEvent == nil {
		return nil
	}
	return f.onEvent(ctx, ev, item.boardID)
}

func (f *Feed) advance(ctx context.Context, id string) error {
	f.cursor.Store(id)
	if f.onCursor == nil {
		return nil
	}
	if err := f.onCursor(ctx, id); err != nil {
		return fmt.Errorf("advance cursor to %s: %w", id, err)
	}
	return nil
}
