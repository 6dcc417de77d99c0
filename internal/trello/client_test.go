package trello

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientBoardActions(t *testing.T) {
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/boards/b1/actions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		_ = json.NewEncoder(w).Encode([]Action{{ID: "2", Type: "createCard"}, {ID: "1", Type: "commentCard"}})
	}))
	defer server.Close()

	client := NewClient(server.Client(), ClientConfig{BaseURL: server.URL, Key: "k", Token: "t"}, nil)
	actions, err := client.BoardActions(context.Background(), "b1", "42")
	if err != nil {
		t.Fatalf("BoardActions: %v", err)
	}
	if len(actions) != 2 {
		t.Fatalf("got %d actions, want 2", len(actions))
	}
	if gotQuery["since"] != "42" || gotQuery["key"] != "k" || gotQuery["token"] != "t" {
		t.Fatalf("query = %v", gotQuery)
	}
	if gotQuery["filter"] != "createCard,commentCard,addAttachmentToCard,updateCard,updateCheckItemStateOnCard" {
		t.Fatalf("filter = %q", gotQuery["filter"])
	}
}

func TestClientBoardActionsOmitsZeroSince(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("since") {
			t.Errorf("since sent for zero cursor: %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte("[]"))
	}))
	defer server.Close()

	client := NewClient(server.Client(), ClientConfig{BaseURL: server.URL}, nil)
	if _, err := client.BoardActions(context.Background(), "b1", "0"); err != nil {
		t.Fatalf("BoardActions: %v", err)
	}
}

func TestClientListName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/lists/l1":
			_, _ = w.Write([]byte(`{"id":"l1","name":"Doing"}`))
		default:
			http.Error(w, "invalid id", http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewClient(server.Client(), ClientConfig{BaseURL: server.URL}, nil)

	name, err := client.ListName(context.Background(), "l1")
	if err != nil {
		t.Fatalf("ListName: %v", err)
	}
	if name != "Doing" {
		t.Fatalf("name = %q, want Doing", name)
	}

	_, err = client.ListName(context.Background(), "missing")
	if !errors.Is(err, ErrUnexpectedStatus) {
		t.Fatalf("ListName error = %v, want ErrUnexpectedStatus", err)
	}
}
