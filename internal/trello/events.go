// Package trello reads board activity from the Trello REST API and turns raw
// actions into a closed set of typed events.
package trello

import (
	"fmt"
	"time"
)

// Kind is the Trello action type an event was parsed from.
type Kind string

const (
	KindCardCreated      Kind = "createCard"
	KindCommentAdded     Kind = "commentCard"
	KindAttachmentAdded  Kind = "addAttachmentToCard"
	KindCardUpdated      Kind = "updateCard"
	KindCheckItemToggled Kind = "updateCheckItemStateOnCard"
)

// Kinds lists every supported kind in a stable order.
func Kinds() []Kind {
	return []Kind{
		KindCardCreated,
		KindCommentAdded,
		KindAttachmentAdded,
		KindCardUpdated,
		KindCheckItemToggled,
	}
}

func ParseKind(raw string) (Kind, bool) {
	for _, kind := range Kinds() {
		if string(kind) == raw {
			return kind, true
		}
	}
	return "", false
}

// Action is a board action as returned by GET /1/boards/{id}/actions.
type Action struct {
	ID            string     `json:"id"`
	Type          string     `json:"type"`
	Date          time.Time  `json:"date"`
	MemberCreator Member     `json:"memberCreator"`
	Data          ActionData `json:"data"`
}

type Member struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Username string `json:"username"`
}

type ActionData struct {
	Card       *ActionCard `json:"card"`
	Board      *BoardRef   `json:"board"`
	Old        *ActionCard `json:"old"`
	Text       string      `json:"text"`
	Attachment *Attachment `json:"attachment"`
	CheckItem  *CheckItem  `json:"checkItem"`
}

// ActionCard carries the card fields of an action. For updateCard the "old"
// object has the same shape but only holds the fields that changed.
type ActionCard struct {
	ID      string  `json:"id"`
	IDShort int     `json:"idShort"`
	Name    string  `json:"name"`
	IDList  *string `json:"idList"`
}

type BoardRef struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ShortLink string `json:"shortLink"`
}

type Attachment struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

type CheckItem struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	State string `json:"state"`
}

type CardRef struct {
	ID      string
	IDShort int
	Name    string
}

// Header is shared by every event.
type Header struct {
	ActionID string
	Actor    string
	Board    BoardRef
	Card     CardRef
}

func (h Header) ID() string { return h.ActionID }

// Event is one of CardCreated, CommentAdded, AttachmentAdded, CardUpdated or
// CheckItemToggled. The set is closed.
type Event interface {
	Kind() Kind
	ID() string
	event()
}

type CardCreated struct {
	Header
}

type CommentAdded struct {
	Header
	Text string
}

type AttachmentAdded struct {
	Header
	Attachment Attachment
}

type CardUpdated struct {
	Header
	// OldListID and NewListID are nil when the update did not report them.
	OldListID *string
	NewListID *string
}

// ListMove reports the source and destination lists when the update moved the
// card between lists.
func (e CardUpdated) ListMove() (from, to string, ok bool) {
	if e.OldListID == nil || e.NewListID == nil {
		return "", "", false
	}
	return *e.OldListID, *e.NewListID, true
}

type CheckItemToggled struct {
	Header
	Item CheckItem
}

const CheckItemComplete = "complete"

func (e CheckItemToggled) Completed() bool {
	return e.Item.State == CheckItemComplete
}

func (CardCreated) Kind() Kind      { return KindCardCreated }
func (CommentAdded) Kind() Kind     { return KindCommentAdded }
func (AttachmentAdded) Kind() Kind  { return KindAttachmentAdded }
func (CardUpdated) Kind() Kind      { return KindCardUpdated }
func (CheckItemToggled) Kind() Kind { return KindCheckItemToggled }

func (CardCreated) event()      {}
func (CommentAdded) event()     {}
func (AttachmentAdded) event()  {}
func (CardUpdated) event()      {}
func (CheckItemToggled) event() {}

// FromAction converts a raw action. It returns (nil, nil) for action types
// outside the supported set.
func FromAction(a Action) (Event, error) {
	kind, ok := ParseKind(a.Type)
	if !ok {
		return nil, nil
	}
	if a.Data.Card == nil {
		return nil, fmt.Errorf("action %s (%s): missing card", a.ID, a.Type)
	}

	header := Header{
		ActionID: a.ID,
		Actor:    a.MemberCreator.FullName,
		Card: CardRef{
			ID:      a.Data.Card.ID,
			IDShort: a.Data.Card.IDShort,
			Name:    a.Data.Card.Name,
		},
	}
	if a.Data.Board != nil {
		header.Board = *a.Data.Board
	}

	switch kind {
	case KindCardCreated:
		return CardCreated{Header: header}, nil
	case KindCommentAdded:
		return CommentAdded{Header: header, Text: a.Data.Text}, nil
	case KindAttachmentAdded:
		if a.Data.Attachment == nil {
			return nil, fmt.Errorf("action %s (%s): missing attachment", a.ID, a.Type)
		}
		return AttachmentAdded{Header: header, Attachment: *a.Data.Attachment}, nil
	case KindCardUpdated:
		ev := CardUpdated{Header: header, NewListID: a.Data.Card.IDList}
		if a.Data.Old != nil {
			ev.OldListID = a.Data.Old.IDList
		}
		return ev, nil
	case KindCheckItemToggled:
		if a.Data.CheckItem == nil {
			return nil, fmt.Errorf("action %s (%s): missing checkItem", a.ID, a.Type)
		}
		return CheckItemToggled{Header: header, Item: *a.Data.CheckItem}, nil
	}
	return nil, fmt.Errorf("action %s: unhandled kind %s", a.ID, kind)
}

// CompareIDs orders action ids. Trello ids are fixed-width hex object ids, so
// a shorter id always sorts first and equal lengths compare bytewise. This
// also orders plain numeric cursors.
func CompareIDs(a, b string) int {
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// After reports whether id is newer than cursor. An empty or "0" cursor
// precedes every id.
func After(id, cursor string) bool {
	if cursor == "" || cursor == "0" {
		return id != ""
	}
	return CompareIDs(id, cursor) > 0
}
