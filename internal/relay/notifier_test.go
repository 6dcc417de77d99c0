package relay

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/gordonpn/trello-slack-relay/internal/notifications"
)

type fakeBackend struct {
	got []notifications.Notification
	err error
}

func (b *fakeBackend) Name() string { return "fake" }

func (b *fakeBackend) Notify(_ context.Context, n notifications.Notification) error {
	b.got = append(b.got, n)
	return b.err
}

func TestNotifierDefaults(t *testing.T) {
	backend := &fakeBackend{}
	notifier := NewNotifier(backend, "", "", zerolog.Nop(), nil)

	if err := notifier.Notify(context.Background(), "#general", "hello"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	want := notifications.Notification{Channel: "#general", Text: "hello", Username: DefaultSender, IconURL: DefaultIconURL}
	if len(backend.got) != 1 || backend.got[0] != want {
		t.Fatalf("backend got %+v, want %+v", backend.got, want)
	}
}

func TestNotifierNotifyAs(t *testing.T) {
	backend := &fakeBackend{}
	notifier := NewNotifier(backend, "Board Bot", "https://example.com/i.png", zerolog.Nop(), nil)

	if err := notifier.NotifyAs(context.Background(), "#eng", "hi", "Release Bot"); err != nil {
		t.Fatalf("NotifyAs: %v", err)
	}
	if got := backend.got[0]; got.Username != "Release Bot" || got.IconURL != "https://example.com/i.png" {
		t.Fatalf("notification = %+v", got)
	}
}

func TestNotifierReturnsDeliveryError(t *testing.T) {
	boom := errors.New("channel_not_found")
	backend := &fakeBackend{err: boom}
	notifier := NewNotifier(backend, "", "", zerolog.Nop(), nil)

	err := notifier.Notify(context.Background(), "#missing", "hello")
	if !errors.Is(err, boom) {
		t.Fatalf("Notify error = %v, want %v", err, boom)
	}
	if len(backend.got) != 1 {
		t.Fatalf("backend called %d times, want exactly one attempt", len(backend.got))
	}
}
