package metrics

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Metrics holds all Prometheus metrics for the relay.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Trello polling
	PollsTotal           prometheus.Counter
	LastPollTimestamp    prometheus.Gauge
	ActionsFetchedTotal  prometheus.Counter
	TrelloRequestsTotal  prometheus.Counter
	TrelloErrorsTotal    prometheus.Counter
	TrelloRequestSeconds prometheus.Histogram

	// Routing
	EventsRoutedTotal  *prometheus.CounterVec
	EventsSkippedTotal *prometheus.CounterVec

	// Chat delivery
	ChatPublishesTotal      prometheus.Counter
	ChatPublishErrorsTotal  prometheus.Counter
	ChatPublishDurationSecs prometheus.Histogram

	// Bookmark
	BookmarkSavesTotal         prometheus.Counter
	BookmarkSaveErrorsTotal    prometheus.Counter
	RedisConnectionErrorsTotal prometheus.Counter
	RedisOperationErrorsTotal  prometheus.Counter

	ErrorsTotal prometheus.Counter

	registry *prometheus.Registry
	pusher   *push.Pusher
}

// NewMetrics creates a new Metrics instance. Pushing is enabled only when both
// pushgatewayURL and jobName are set.
func NewMetrics(pushgatewayURL, jobName string) *Metrics {
	m := &Metrics{
		PollsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trello_relay_polls_total",
			Help: "Total number of Trello poll cycles",
		}),
		LastPollTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trello_relay_last_poll_timestamp_seconds",
			Help: "Unix timestamp of the last completed poll cycle",
		}),
		ActionsFetchedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trello_relay_actions_fetched_total",
			Help: "Total number of board actions returned by Trello",
		}),
		TrelloRequestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trello_relay_trello_requests_total",
			Help: "Total number of Trello API requests",
		}),
		TrelloErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trello_relay_trello_errors_total",
			Help: "Total number of failed Trello API requests",
		}),
		TrelloRequestSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "trello_relay_trello_request_duration_seconds",
			Help:    "Duration of Trello API requests in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
		}),

		EventsRoutedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trello_relay_events_routed_total",
			Help: "Total number of events that produced a notification, by kind",
		}, []string{"kind"}),
		EventsSkippedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trello_relay_events_skipped_total",
			Help: "Total number of events that produced no notification, by kind and reason",
		}, []string{"kind", "reason"}),

		ChatPublishesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trello_relay_chat_publishes_total",
			Help: "Total number of successful chat publishes",
		}),
		ChatPublishErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trello_relay_chat_publish_errors_total",
			Help: "Total number of chat publish errors",
		}),
		ChatPublishDurationSecs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "trello_relay_chat_publish_duration_seconds",
			Help:    "Duration of chat publish requests in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
		}),

		BookmarkSavesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trello_relay_bookmark_saves_total",
			Help: "Total number of bookmark writes",
		}),
		BookmarkSaveErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trello_relay_bookmark_save_errors_total",
			Help: "Total number of failed bookmark writes",
		}),
		RedisConnectionErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trello_relay_redis_connection_errors_total",
			Help: "Total number of Redis connection errors",
		}),
		RedisOperationErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trello_relay_redis_operation_errors_total",
			Help: "Total number of Redis operation errors (GET, SET)",
		}),

		ErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trello_relay_errors_total",
			Help: "Total number of errors encountered",
		}),
	}

	m.registry = prometheus.NewRegistry()
	m.registry.MustRegister(
		m.PollsTotal,
		m.LastPollTimestamp,
		m.ActionsFetchedTotal,
		m.TrelloRequestsTotal,
		m.TrelloErrorsTotal,
		m.TrelloRequestSeconds,
		m.EventsRoutedTotal,
		m.EventsSkippedTotal,
		m.ChatPublishesTotal,
		m.ChatPublishErrorsTotal,
		m.ChatPublishDurationSecs,
		m.BookmarkSavesTotal,
		m.BookmarkSaveErrorsTotal,
		m.RedisConnectionErrorsTotal,
		m.RedisOperationErrorsTotal,
		m.ErrorsTotal,
	)

	if pushgatewayURL != "" && jobName != "" {
		m.pusher = push.New(pushgatewayURL, jobName).
			Gatherer(m.registry)
	}

	return m
}

// RecordPoll records a completed poll cycle and the number of actions it returned.
func (m *Metrics) RecordPoll(actions int) {
	if m == nil {
		return
	}
	m.PollsTotal.Inc()
	m.ActionsFetchedTotal.Add(float64(actions))
	m.LastPollTimestamp.SetToCurrentTime()
}

// RecordTrelloRequest records one Trello API round trip.
func (m *Metrics) RecordTrelloRequest(duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.TrelloRequestsTotal.Inc()
	m.TrelloRequestSeconds.Observe(duration.Seconds())
	if err != nil {
		m.TrelloErrorsTotal.Inc()
		m.ErrorsTotal.Inc()
	}
}

func (m *Metrics) RecordEventRouted(kind string) {
	if m == nil {
		return
	}
	m.EventsRoutedTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordEventSkipped(kind, reason string) {
	if m == nil {
		return
	}
	m.EventsSkippedTotal.WithLabelValues(kind, reason).Inc()
}

// RecordChatPublish records a chat publish operation
func (m *Metrics) RecordChatPublish(duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.ChatPublishDurationSecs.Observe(duration.Seconds())
	if err != nil {
		m.ChatPublishErrorsTotal.Inc()
		m.ErrorsTotal.Inc()
	} else {
		m.ChatPublishesTotal.Inc()
	}
}

func (m *Metrics) RecordBookmarkSave(err error) {
	if m == nil {
		return
	}
	m.BookmarkSavesTotal.Inc()
	if err != nil {
		m.BookmarkSaveErrorsTotal.Inc()
		m.ErrorsTotal.Inc()
	}
}

// RecordRedisConnectionError records a Redis connection error
func (m *Metrics) RecordRedisConnectionError() {
	if m == nil {
		return
	}
	m.RedisConnectionErrorsTotal.Inc()
	m.ErrorsTotal.Inc()
}

// RecordRedisOperationError records a Redis operation error
func (m *Metrics) RecordRedisOperationError() {
	if m == nil {
		return
	}
	m.RedisOperationErrorsTotal.Inc()
	m.ErrorsTotal.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Push pushes all metrics to the Pushgateway
func (m *Metrics) Push(ctx context.Context) error {
	if m == nil || m.pusher == nil {
		return nil
	}
	if err := m.pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics to Pushgateway: %w", err)
	}
	return nil
}

// PushEnabled reports whether a Pushgateway is configured.
func (m *Metrics) PushEnabled() bool {
	return m != nil && m.pusher != nil
}

// New creates metrics and, when a Pushgateway URL is given, groups pushes by
// instance (defaulting to the hostname).
func New(pushgatewayURL, jobName, instance string) *Metrics {
	if pushgatewayURL == "" {
		return NewMetrics("", "")
	}
	if jobName == "" {
		jobName = "trello-slack-relay"
	}
	if instance == "" {
		instance, _ = os.Hostname()
	}

	m := NewMetrics(pushgatewayURL, jobName)
	if instance != "" {
		m.pusher = m.pusher.Grouping("instance", instance)
	}
	return m
}
