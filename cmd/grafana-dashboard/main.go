package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/dashboard"
	"github.com/grafana/grafana-foundation-sdk/go/prometheus"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

func rateQuery(expr, legend string) *prometheus.DataqueryBuilder {
	return prometheus.NewDataqueryBuilder().
		Expr(expr).
		LegendFormat(legend)
}

func avgDuration(histogram string) string {
	return fmt.Sprintf(`sum(rate(%[1]s_sum[5m])) / sum(rate(%[1]s_count[5m]))`, histogram)
}

func buildDashboard() *dashboard.DashboardBuilder {
	builder := dashboard.NewDashboardBuilder("Trello Relay").
		Uid("trello-slack-relay").
		Tags([]string{"trello", "slack", "relay", "prometheus"}).
		Refresh("1m").
		Time("now-6h", "now").
		Timezone(common.TimeZoneBrowser)

	builder = builder.WithRow(dashboard.NewRowBuilder("Polling"))
	builder = builder.WithPanel(
		timeseries.NewPanelBuilder().
			Title("Polls and actions").
			WithTarget(rateQuery(`sum(rate(trello_relay_polls_total[5m]))`, "polls")).
			WithTarget(rateQuery(`sum(rate(trello_relay_actions_fetched_total[5m]))`, "actions")),
	)
	builder = builder.WithPanel(
		timeseries.NewPanelBuilder().
			Title("Seconds since last poll").
			WithTarget(rateQuery(`time() - max(trello_relay_last_poll_timestamp_seconds)`, "age")),
	)
	builder = builder.WithPanel(
		timeseries.NewPanelBuilder().
			Title("Trello API").
			WithTarget(rateQuery(`sum(rate(trello_relay_trello_requests_total[5m]))`, "requests")).
			WithTarget(rateQuery(`sum(rate(trello_relay_trello_errors_total[5m]))`, "errors")),
	)
	builder = builder.WithPanel(
		timeseries.NewPanelBuilder().
			Title("Trello request duration avg").
			WithTarget(rateQuery(avgDuration("trello_relay_trello_request_duration_seconds"), "avg")),
	)

	builder = builder.WithRow(dashboard.NewRowBuilder("Events"))
	builder = builder.WithPanel(
		timeseries.NewPanelBuilder().
			Title("Events routed by kind").
			WithTarget(rateQuery(`sum by (kind) (rate(trello_relay_events_routed_total[5m]))`, "{{kind}}")),
	)
	builder = builder.WithPanel(
		timeseries.NewPanelBuilder().
			Title("Events skipped by reason").
			WithTarget(rateQuery(`sum by (kind, reason) (rate(trello_relay_events_skipped_total[5m]))`, "{{kind}} / {{reason}}")),
	)

	builder = builder.WithRow(dashboard.NewRowBuilder("Delivery"))
	builder = builder.WithPanel(
		timeseries.NewPanelBuilder().
			Title("Chat publishes").
			WithTarget(rateQuery(`sum(rate(trello_relay_chat_publishes_total[5m]))`, "sent")).
			WithTarget(rateQuery(`sum(rate(trello_relay_chat_publish_errors_total[5m]))`, "failed")),
	)
	builder = builder.WithPanel(
		timeseries.NewPanelBuilder().
			Title("Chat publish duration avg").
			WithTarget(rateQuery(avgDuration("trello_relay_chat_publish_duration_seconds"), "avg")),
	)

	builder = builder.WithRow(dashboard.NewRowBuilder("Bookmark"))
	builder = builder.WithPanel(
		timeseries.NewPanelBuilder().
			Title("Bookmark writes").
			WithTarget(rateQuery(`sum(rate(trello_relay_bookmark_saves_total[5m]))`, "saves")).
			WithTarget(rateQuery(`sum(rate(trello_relay_bookmark_save_errors_total[5m]))`, "failed")),
	)
	builder = builder.WithPanel(
		timeseries.NewPanelBuilder().
			Title("Redis errors").
			WithTarget(rateQuery(`sum(rate(trello_relay_redis_connection_errors_total[5m]))`, "connection")).
			WithTarget(rateQuery(`sum(rate(trello_relay_redis_operation_errors_total[5m]))`, "operation")),
	)
	builder = builder.WithPanel(
		timeseries.NewPanelBuilder().
			Title("Errors").
			WithTarget(rateQuery(`sum(rate(trello_relay_errors_total[5m]))`, "errors")),
	)

	return builder
}

func main() {
	dashboardJSON, err := buildDashboard().Build()
	if err != nil {
		panic(err)
	}

	outputPath := os.Getenv("DASHBOARD_OUT")
	if outputPath == "" {
		outputPath = "dashboard.json"
	}

	payload, err := json.MarshalIndent(dashboardJSON, "", "  ")
	if err != nil {
		panic(err)
	}

	if err := os.WriteFile(outputPath, payload, 0o600); err != nil {
		panic(err)
	}

	fmt.Printf("dashboard written to %s\n", outputPath)
}
