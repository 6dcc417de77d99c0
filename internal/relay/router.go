// Package relay turns Trello events into chat messages and routes them to the
// channel configured for their board.
package relay

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/gordonpn/trello-slack-relay/internal/metrics"
	"github.com/gordonpn/trello-slack-relay/internal/trello"
)

var ErrUnmappedBoard = errors.New("board has no channel mapping")

// Sender delivers formatted text to a channel.
type Sender interface {
	Notify(ctx context.Context, channel, text string) error
}

// Router is immutable after construction.
type Router struct {
	channels     map[string]string
	subscription Subscription
	lists        ListNamer
	sender       Sender
	log          zerolog.Logger
	metrics      *metrics.Metrics
}

func NewRouter(channels map[string]string, subscription Subscription, lists ListNamer, sender Sender, log zerolog.Logger, m *metrics.Metrics) *Router {
	copied := make(map[string]string, len(channels))
	for board, channel := range channels {
		copied[board] = channel
	}
	return &Router{
		channels:     copied,
		subscription: subscription,
		lists:        lists,
		sender:       sender,
		log:          log,
		metrics:      m,
	}
}

// Route formats ev and sends it to the channel mapped to boardID. Events of
// unsubscribed kinds and updates that carry nothing to report are dropped.
func (r *Router) Route(ctx context.Context, ev trello.Event, boardID string) error {
	channel, ok := r.channels[boardID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnmappedBoard, boardID)
	}

	kind := string(ev.Kind())
	if !r.subscription.Allows(ev.Kind()) {
		r.metrics.RecordEventSkipped(kind, "unsubscribed")
		return nil
	}

	text, ok, err := r.format(ctx, ev, boardID)
	if err != nil {
		return fmt.Errorf("format %s %s: %w", kind, ev.ID(), err)
	}
	if !ok {
		r.metrics.RecordEventSkipped(kind, "not_reported")
		r.log.Debug().Str("kind", kind).Str("action", ev.ID()).Msg("event produced no notification")
		return nil
	}

	if err := r.sender.Notify(ctx, channel, text); err != nil {
		return err
	}
	r.metrics.RecordEventRouted(kind)
	return nil
}

func (r *Router) format(ctx context.Context, ev trello.Event, boardID string) (string, bool, error) {
	switch ev := ev.(type) {
	case trello.CardCreated:
		return FormatCardCreated(ev, boardID), true, nil
	case trello.CommentAdded:
		return FormatCommentAdded(ev, boardID), true, nil
	case trello.AttachmentAdded:
		return FormatAttachmentAdded(ev, boardID), true, nil
	case trello.CardUpdated:
		return FormatCardMoved(ctx, ev, boardID, r.lists)
	case trello.CheckItemToggled:
		text, ok := FormatCheckItemToggled(ev, boardID)
		return text, ok, nil
	default:
		return "", false, fmt.Errorf("unhandled event kind %s", ev.Kind())
	}
}
