package relay

import (
	"context"
	"fmt"
	"strings"

	"github.com/gordonpn/trello-slack-relay/internal/trello"
)

const (
	truncateAt     = 200
	truncateKeep   = 199
	truncateSuffix = " [...]"
)

var sanitizer = strings.NewReplacer("<", "&lt;", ">", "&gt;")

// Sanitize escapes the angle brackets that would otherwise break Slack link
// markup. Nothing else is changed, so the result is stable under reapplication.
func Sanitize(s string) string {
	return sanitizer.Replace(s)
}

// Truncate shortens text of 200 or more characters to its first 199 followed
// by " [...]".
func Truncate(s string) string {
	runes := []rune(s)
	if len(runes) >= truncateAt {
		return string(runes[:truncateKeep]) + truncateSuffix
	}
	return s
}

func CardURL(cardID, boardID string, idShort int) string {
	return fmt.Sprintf("https://trello.com/card/%s/%s/%d", cardID, boardID, idShort)
}

func BoardURL(boardID string) string {
	return "https://trello.com/b/" + boardID
}

func link(url, label string) string {
	return "<" + url + "|" + label + ">"
}

func cardLink(card trello.CardRef, boardID string) string {
	return link(CardURL(card.ID, boardID, card.IDShort), Sanitize(card.Name))
}

func FormatCardCreated(ev trello.CardCreated, boardID string) string {
	return fmt.Sprintf(":boom: %s created card %s on board %s",
		ev.Actor, cardLink(ev.Card, boardID), link(BoardURL(boardID), ev.Board.Name))
}

func FormatCommentAdded(ev trello.CommentAdded, boardID string) string {
	return fmt.Sprintf(":speech_balloon: %s commented on card %s: %s",
		ev.Actor, cardLink(ev.Card, boardID), Truncate(ev.Text))
}

func FormatAttachmentAdded(ev trello.AttachmentAdded, boardID string) string {
	return fmt.Sprintf(":paperclip: %s added an attachment to card %s: %s",
		ev.Actor, cardLink(ev.Card, boardID), link(ev.Attachment.URL, Sanitize(ev.Attachment.Name)))
}

// ListNamer resolves list ids to display names.
type ListNamer interface {
	ListName(ctx context.Context, listID string) (string, error)
}

// FormatCardMoved reports ok=false for updates that are not list-to-list
// moves. The old list name is looked up before the new one; either failure
// aborts the message.
func FormatCardMoved(ctx context.Context, ev trello.CardUpdated, boardID string, lists ListNamer) (string, bool, error) {
	fromID, toID, ok := ev.ListMove()
	if !ok {
		return "", false, nil
	}

	fromName, err := lists.ListName(ctx, fromID)
	if err != nil {
		return "", false, err
	}
	toName, err := lists.ListName(ctx, toID)
	if err != nil {
		return "", false, err
	}

	return fmt.Sprintf(":arrow_heading_up: %s moved card %s from list %s to list %s",
		ev.Actor, cardLink(ev.Card, boardID), fromName, toName), true, nil
}

// FormatCheckItemToggled reports ok=false unless the item was completed.
func FormatCheckItemToggled(ev trello.CheckItemToggled, boardID string) (string, bool) {
	if !ev.Completed() {
		return "", false
	}
	return fmt.Sprintf(":ballot_box_with_check: %s completed \"%s\" in card %s.",
		ev.Actor, ev.Item.Name, cardLink(ev.Card, boardID)), true
}
