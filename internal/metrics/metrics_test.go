package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordPoll(3)
	m.RecordTrelloRequest(time.Second, errors.New("boom"))
	m.RecordEventRouted("createCard")
	m.RecordEventSkipped("updateCard", "no_list_change")
	m.RecordChatPublish(time.Second, nil)
	m.RecordBookmarkSave(nil)
	m.RecordRedisConnectionError()
	m.RecordRedisOperationError()
	if m.PushEnabled() {
		t.Fatal("nil metrics reports push enabled")
	}
}

func TestRecordCounters(t *testing.T) {
	m := NewMetrics("", "")

	m.RecordPoll(4)
	m.RecordChatPublish(10*time.Millisecond, nil)
	m.RecordChatPublish(10*time.Millisecond, errors.New("down"))
	m.RecordBookmarkSave(errors.New("disk full"))
	m.RecordEventRouted("commentCard")
	m.RecordEventRouted("commentCard")

	if got := testutil.ToFloat64(m.ActionsFetchedTotal); got != 4 {
		t.Errorf("actions fetched = %v, want 4", got)
	}
	if got := testutil.ToFloat64(m.ChatPublishesTotal); got != 1 {
		t.Errorf("chat publishes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ChatPublishErrorsTotal); got != 1 {
		t.Errorf("chat publish errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ErrorsTotal); got != 2 {
		t.Errorf("errors = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.EventsRoutedTotal.WithLabelValues("commentCard")); got != 2 {
		t.Errorf("routed commentCard = %v, want 2", got)
	}
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := NewMetrics("", "")
	m.RecordPoll(1)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "trello_relay_polls_total 1") {
		t.Fatalf("exposition missing polls counter:\n%s", rec.Body.String())
	}
}

func TestNewEnablesPushOnlyWithURL(t *testing.T) {
	if New("", "job", "host").PushEnabled() {
		t.Fatal("push enabled without gateway URL")
	}
	if !New("http://pushgateway:9091", "", "host-1").PushEnabled() {
		t.Fatal("push disabled with gateway URL")
	}
}
