package trello

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/rs/zerolog"
)

type fakeSource struct {
	actions map[string][]Action
	since   []string
	calls   []string
	err     error

	// afterFetch runs once the response for a board has been captured, so it
	// can add actions that only later requests will see.
	afterFetch func(s *fakeSource, boardID string, call int)
}

func (s *fakeSource) BoardActions(_ context.Context, boardID, since string) ([]Action, error) {
	s.since = append(s.since, since)
	s.calls = append(s.calls, boardID)
	if s.err != nil {
		return nil, s.err
	}
	var out []Action
	for _, a := range s.actions[boardID] {
		if After(a.ID, since) {
			out = append(out, a)
		}
	}
	if s.afterFetch != nil {
		s.afterFetch(s, boardID, len(s.calls))
	}
	return out, nil
}

func cardAction(id, kind string) Action {
	return Action{ID: id, Type: kind, Data: ActionData{Card: &ActionCard{ID: "c" + id}}}
}

func TestFeedPollDispatchesInIDOrder(t *testing.T) {
	source := &fakeSource{actions: map[string][]Action{
		"A": {cardAction("13", "createCard"), cardAction("11", "commentCard")},
		"B": {cardAction("12", "createCard"), cardAction("10", "createCard")},
	}}

	var seen []string
	var boards []string
	var cursors []string
	feed := NewFeed(source, FeedConfig{Boards: []string{"A", "B"}, Cursor: "10"}, zerolog.Nop(), nil).
		OnEvent(func(_ context.Context, ev Event, boardID string) error {
			seen = append(seen, ev.ID())
			boards = append(boards, boardID)
			return nil
		}).
		OnCursor(func(_ context.Context, cursor string) error {
			cursors = append(cursors, cursor)
			return nil
		})

	if err := feed.Poll(context.Background()); err != nil {
		t.Fatalf("Poll: %v", err)
	}

	if want := []string{"11", "12", "13"}; !reflect.DeepEqual(seen, want) {
		t.Fatalf("events = %v, want %v", seen, want)
	}
	if want := []string{"A", "B", "A"}; !reflect.DeepEqual(boards, want) {
		t.Fatalf("boards = %v, want %v", boards, want)
	}
	if want := []string{"11", "12", "13"}; !reflect.DeepEqual(cursors, want) {
		t.Fatalf("cursors = %v, want %v", cursors, want)
	}
	if feed.Cursor() != "13" {
		t.Fatalf("Cursor = %q, want 13", feed.Cursor())
	}
	if want := []string{"10", "10", "10"}; !reflect.DeepEqual(source.since, want) {
		t.Fatalf("since = %v, want every board polled from the cycle start", source.since)
	}

	seen = nil
	if err := feed.Poll(context.Background()); err != nil {
		t.Fatalf("second Poll: %v", err)
	}
	if len(seen) != 0 {
		t.Fatalf("second poll redelivered %v", seen)
	}
}

func TestFeedPollCatchesActionsAddedDuringTheCycle(t *testing.T) {
	source := &fakeSource{
		actions: map[string][]Action{
			"B": {cardAction("0003", "createCard")},
		},
		afterFetch: func(s *fakeSource, boardID string, call int) {
			if boardID == "A" && call == 1 {
				s.actions["A"] = append(s.actions["A"], cardAction("0002", "createCard"))
			}
		},
	}

	var seen []string
	feed := NewFeed(source, FeedConfig{Boards: []string{"A", "B"}, Cursor: "0001"}, zerolog.Nop(), nil).
		OnEvent(func(_ context.Context, ev Event, _ string) error {
			seen = append(seen, ev.ID())
			return nil
		})

	if err := feed.Poll(context.Background()); err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if want := []string{"0002", "0003"}; !reflect.DeepEqual(seen, want) {
		t.Fatalf("events = %v, want %v", seen, want)
	}
	if feed.Cursor() != "0003" {
		t.Fatalf("Cursor = %q, want 0003", feed.Cursor())
	}
	if want := []string{"A", "B", "A"}; !reflect.DeepEqual(source.calls, want) {
		t.Fatalf("fetch order = %v, want %v", source.calls, want)
	}
}

func TestFeedPollDefersActionsNewerThanFirstPass(t *testing.T) {
	source := &fakeSource{
		actions: map[string][]Action{
			"B": {cardAction("0003", "createCard")},
		},
		afterFetch: func(s *fakeSource, boardID string, call int) {
			if boardID == "B" && call == 2 {
				s.actions["A"] = append(s.actions["A"],
					cardAction("0002", "createCard"),
					cardAction("0004", "createCard"))
			}
		},
	}

	var seen []string
	feed := NewFeed(source, FeedConfig{Boards: []string{"A", "B"}, Cursor: "0001"}, zerolog.Nop(), nil).
		OnEvent(func(_ context.Context, ev Event, _ string) error {
			seen = append(seen, ev.ID())
			return nil
		})

	if err := feed.Poll(context.Background()); err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if want := []string{"0002", "0003"}; !reflect.DeepEqual(seen, want) {
		t.Fatalf("first cycle events = %v, want %v", seen, want)
	}

	seen = nil
	if err := feed.Poll(context.Background()); err != nil {
		t.Fatalf("second Poll: %v", err)
	}
	if want := []string{"0004"}; !reflect.DeepEqual(seen, want) {
		t.Fatalf("second cycle events = %v, want %v", seen, want)
	}
	if feed.Cursor() != "0004" {
		t.Fatalf("Cursor = %q, want 0004", feed.Cursor())
	}
}

func TestFeedSkipsUnsupportedAndMalformedButAdvances(t *testing.T) {
	source := &fakeSource{actions: map[string][]Action{
		"A": {
			{ID: "1", Type: "deleteCard"},
			{ID: "2", Type: "createCard"},
			cardAction("3", "createCard"),
		},
	}}

	var seen []string
	feed := NewFeed(source, FeedConfig{Boards: []string{"A"}}, zerolog.Nop(), nil).
		OnEvent(func(_ context.Context, ev Event, _ string) error {
			seen = append(seen, ev.ID())
			return nil
		})

	if err := feed.Poll(context.Background()); err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if !reflect.DeepEqual(seen, []string{"3"}) {
		t.Fatalf("events = %v, want [3]", seen)
	}
	if feed.Cursor() != "3" {
		t.Fatalf("Cursor = %q, want 3", feed.Cursor())
	}
}

func TestFeedStopsOnHandlerError(t *testing.T) {
	source := &fakeSource{actions: map[string][]Action{
		"A": {cardAction("1", "createCard"), cardAction("2", "createCard")},
	}}
	boom := errors.New("chat down")

	feed := NewFeed(source, FeedConfig{Boards: []string{"A"}}, zerolog.Nop(), nil).
		OnEvent(func(_ context.Context, ev Event, _ string) error {
			if ev.ID() == "2" {
				return boom
			}
			return nil
		})

	if err := feed.Poll(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("Poll error = %v, want %v", err, boom)
	}
	if feed.Cursor() != "1" {
		t.Fatalf("Cursor = %q, want 1 (failed event must not advance)", feed.Cursor())
	}
}

func TestFeedStopsOnCursorError(t *testing.T) {
	source := &fakeSource{actions: map[string][]Action{"A": {cardAction("1", "createCard")}}}
	boom := errors.New("redis down")

	feed := NewFeed(source, FeedConfig{Boards: []string{"A"}}, zerolog.Nop(), nil).
		OnCursor(func(context.Context, string) error { return boom })

	if err := feed.Poll(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("Poll error = %v, want %v", err, boom)
	}
}

func TestFeedRunReturnsSourceError(t *testing.T) {
	boom := errors.New("trello unavailable")
	feed := NewFeed(&fakeSource{err: boom}, FeedConfig{Boards: []string{"A"}}, zerolog.Nop(), nil)

	if err := feed.Run(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("Run error = %v, want %v", err, boom)
	}
}

func TestFeedRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	source := &fakeSource{}
	feed := NewFeed(source, FeedConfig{Boards: []string{"A"}}, zerolog.Nop(), nil).
		OnCursor(func(context.Context, string) error { return nil })
	cancel()

	if err := feed.Run(ctx); err != nil {
		t.Fatalf("Run after cancel = %v, want nil", err)
	}
}
