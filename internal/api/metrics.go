package api

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const namespace = "vidmark_api"

// Metrics holds the API's otel instruments. A nil *Metrics disables
// recording, for runs without a telemetry endpoint.
type Metrics struct {
	requestsTotal    metric.Int64Counter
	requestDuration  metric.Float64Histogram
	submissionsTotal metric.Int64Counter
	submissionErrors metric.Int64Counter
}

// NewAPIMetrics registers the API's instruments on the given provider.
func NewAPIMetrics(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter(namespace, metric.WithInstrumentationVersion("v0.1.0"))

	m := new(Metrics)
	var err error

	if m.requestsTotal, err = meter.Int64Counter(
		"requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	); err != nil {
		return nil, err
	}

	if m.requestDuration, err = meter.Float64Histogram(
		"request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
	); err != nil {
		return nil, err
	}

	if m.submissionsTotal, err = meter.Int64Counter(
		"submissions_total",
		metric.WithDescription("Total number of recorded annotations"),
	); err != nil {
		return nil, err
	}

	if m.submissionErrors, err = meter.Int64Counter(
		"submission_errors_total",
		metric.WithDescription("Total number of rejected or failed submissions"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *Metrics) IncRequestsTotal(ctx context.Context, method, path string, status int) {
	if m == nil {
		return
	}
	m.requestsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("path", path),
		attribute.Int("status", status),
	))
}

func (m *Metrics) ObserveRequestDuration(ctx context.Context, method, path string, d time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("path", path),
	))
}

func (m *Metrics) IncSubmissionsTotal(ctx context.Context, taskName string) {
	if m == nil {
		return
	}
	m.submissionsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("task", taskName)))
}

func (m *Metrics) IncSubmissionErrors(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.submissionErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}
