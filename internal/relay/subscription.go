package relay

import (
	"fmt"

	"github.com/gordonpn/trello-slack-relay/internal/trello"
)

// Subscription is the set of event kinds the router acts on. The zero value
// subscribes to every kind.
type Subscription struct {
	kinds map[trello.Kind]struct{}
}

func AllKinds() Subscription {
	return Subscription{}
}

// NewSubscription builds an allow-list. A nil slice means every kind; a
// non-nil empty slice subscribes to nothing.
func NewSubscription(names []string) (Subscription, error) {
	if names == nil {
		return AllKinds(), nil
	}

	kinds := make(map[trello.Kind]struct{}, len(names))
	for _, name := range names {
		kind, ok := trello.ParseKind(name)
		if !ok {
			return Subscription{}, fmt.Errorf("unknown event kind %q", name)
		}
		kinds[kind] = struct{}{}
	}
	return Subscription{kinds: kinds}, nil
}

func (s Subscription) All() bool {
	return s.kinds == nil
}

func (s Subscription) Allows(kind trello.Kind) bool {
	if s.kinds == nil {
		return true
	}
	_, ok := s.kinds[kind]
	return ok
}

// Kinds lists the subscribed kinds in a stable order.
func (s Subscription) Kinds() []trello.Kind {
	var out []trello.Kind
	for _, kind := range trello.Kinds() {
		if s.Allows(kind) {
			out = append(out, kind)
		}
	}
	return out
}
