package notifications

import "context"

// Notification captures the destination-agnostic message payload.
type Notification struct {
	Channel  string
	Text     string
	Username string
	IconURL  string
}

// Notifier publishes notifications to a single chat backend.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, n Notification) error
}
