package trello

import (
	"encoding/json"
	"testing"
)

const createCardJSON = `{
  "id": "5f2b8c1e9a1b2c3d4e5f6071",
  "type": "createCard",
  "date": "2024-05-01T10:00:00.000Z",
  "memberCreator": {"id": "m1", "fullName": "Ada Lovelace", "username": "ada"},
  "data": {
    "card": {"id": "c1", "idShort": 12, "name": "Ship <it>", "idList": "l1"},
    "board": {"id": "b1", "name": "Roadmap", "shortLink": "abc"}
  }
}`

func TestFromActionCardCreated(t *testing.T) {
	var action Action
	if err := json.Unmarshal([]byte(createCardJSON), &action); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	ev, err := FromAction(action)
	if err != nil {
		t.Fatalf("FromAction: %v", err)
	}
	created, ok := ev.(CardCreated)
	if !ok {
		t.Fatalf("event = %T, want CardCreated", ev)
	}
	if created.Actor != "Ada Lovelace" || created.Card.IDShort != 12 || created.Board.Name != "Roadmap" {
		t.Fatalf("unexpected event: %+v", created)
	}
	if created.ID() != "5f2b8c1e9a1b2c3d4e5f6071" {
		t.Fatalf("ID = %q", created.ID())
	}
}

func TestFromActionVariants(t *testing.T) {
	for _, tc := range []struct {
		name     string
		raw      string
		wantKind Kind
		wantNil  bool
		wantErr  bool
	}{
		{
			name:     "Comment",
			raw:      `{"id":"1","type":"commentCard","data":{"card":{"id":"c"},"text":"hello"}}`,
			wantKind: KindCommentAdded,
		},
		{
			name:     "Attachment",
			raw:      `{"id":"2","type":"addAttachmentToCard","data":{"card":{"id":"c"},"attachment":{"name":"a.png","url":"https://x/a.png"}}}`,
			wantKind: KindAttachmentAdded,
		},
		{
			name:    "AttachmentMissing",
			raw:     `{"id":"3","type":"addAttachmentToCard","data":{"card":{"id":"c"}}}`,
			wantErr: true,
		},
		{
			name:     "Update",
			raw:      `{"id":"4","type":"updateCard","data":{"card":{"id":"c","idList":"l2"},"old":{"idList":"l1"}}}`,
			wantKind: KindCardUpdated,
		},
		{
			name:     "CheckItem",
			raw:      `{"id":"5","type":"updateCheckItemStateOnCard","data":{"card":{"id":"c"},"checkItem":{"name":"x","state":"complete"}}}`,
			wantKind: KindCheckItemToggled,
		},
		{
			name:    "Unsupported",
			raw:     `{"id":"6","type":"deleteCard","data":{"card":{"id":"c"}}}`,
			wantNil: true,
		},
		{
			name:    "MissingCard",
			raw:     `{"id":"7","type":"createCard","data":{}}`,
			wantErr: true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var action Action
			if err := json.Unmarshal([]byte(tc.raw), &action); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			ev, err := FromAction(action)
			if tc.wantErr {
				if err == nil {
					t.Fatal("FromAction succeeded, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("FromAction: %v", err)
			}
			if tc.wantNil {
				if ev != nil {
					t.Fatalf("event = %T, want nil", ev)
				}
				return
			}
			if ev.Kind() != tc.wantKind {
				t.Fatalf("kind = %s, want %s", ev.Kind(), tc.wantKind)
			}
		})
	}
}

func TestCardUpdatedListMove(t *testing.T) {
	from, to := "l1", "l2"
	for _, tc := range []struct {
		name   string
		ev     CardUpdated
		wantOK bool
	}{
		{name: "BothLists", ev: CardUpdated{OldListID: &from, NewListID: &to}, wantOK: true},
		{name: "NewOnly", ev: CardUpdated{NewListID: &to}},
		{name: "OldOnly", ev: CardUpdated{OldListID: &from}},
		{name: "Neither", ev: CardUpdated{}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			gotFrom, gotTo, ok := tc.ev.ListMove()
			if ok != tc.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tc.wantOK)
			}
			if ok && (gotFrom != from || gotTo != to) {
				t.Fatalf("move = %s -> %s", gotFrom, gotTo)
			}
		})
	}
}

func TestCheckItemCompleted(t *testing.T) {
	if !(CheckItemToggled{Item: CheckItem{State: "complete"}}).Completed() {
		t.Fatal("complete item not reported as completed")
	}
	if (CheckItemToggled{Item: CheckItem{State: "incomplete"}}).Completed() {
		t.Fatal("incomplete item reported as completed")
	}
}

func TestParseKind(t *testing.T) {
	for _, kind := range Kinds() {
		got, ok := ParseKind(string(kind))
		if !ok || got != kind {
			t.Fatalf("ParseKind(%q) = %q, %v", kind, got, ok)
		}
	}
	if _, ok := ParseKind("moveCard"); ok {
		t.Fatal("ParseKind accepted an unsupported kind")
	}
}

func TestCompareIDsAndAfter(t *testing.T) {
	for _, tc := range []struct {
		a, b string
		want int
	}{
		{"5f2b8c1e9a1b2c3d4e5f6071", "5f2b8c1e9a1b2c3d4e5f6072", -1},
		{"5f2b8c1e9a1b2c3d4e5f6072", "5f2b8c1e9a1b2c3d4e5f6071", 1},
		{"55", "55", 0},
		{"9", "10", -1},
		{"42", "55", -1},
	} {
		if got := CompareIDs(tc.a, tc.b); got != tc.want {
			t.Errorf("CompareIDs(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}

	if !After("1", "") || !After("5f2b", "0") {
		t.Error("zero cursor must precede every id")
	}
	if After("42", "42") || After("41", "42") {
		t.Error("After must be strict")
	}
}
