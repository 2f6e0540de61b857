package execution

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// MeterName is the instrumentation scope of every instrument
	MeterName = "github.com/jzx17/goparallel"

	// TracerName is the instrumentation scope of run spans
	TracerName = MeterName
)

// Metrics holds the instruments recorded by pattern invocations
type Metrics struct {
	items          metric.Int64Counter
	callbackErrors metric.Int64Counter
	orderPending   metric.Int64UpDownCounter
	orderStalls    metric.Int64Counter
	runDuration    metric.Float64Histogram
}

// NewMetrics creates metric instruments on the given meter
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	items, err := meter.Int64Counter("goparallel.items",
		metric.WithDescription("Number of items processed by a pattern role"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating goparallel.items counter: %w", err)
	}

	callbackErrors, err := meter.Int64Counter("goparallel.callback.errors",
		metric.WithDescription("Number of failed callback invocations"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating goparallel.callback.errors counter: %w", err)
	}

	orderPending, err := meter.Int64UpDownCounter("goparallel.order.pending",
		metric.WithDescription("Number of out-of-order items waiting for release"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating goparallel.order.pending counter: %w", err)
	}

	orderStalls, err := meter.Int64Counter("goparallel.order.stalls",
		metric.WithDescription("Number of times the driver waited for the reorder window"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating goparallel.order.stalls counter: %w", err)
	}

	runDuration, err := meter.Float64Histogram("goparallel.run.duration",
		metric.WithDescription("Duration of pattern invocations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating goparallel.run.duration histogram: %w", err)
	}

	return &Metrics{
		items:          items,
		callbackErrors: callbackErrors,
		orderPending:   orderPending,
		orderStalls:    orderStalls,
		runDuration:    runDuration,
	}, nil
}

// AddItems records n items handled by role
func (m *Metrics) AddItems(ctx context.Context, pattern, role string, n int64) {
	m.items.Add(ctx, n, metric.WithAttributes(
		attribute.String("pattern", pattern),
		attribute.String("role", role),
	))
}

// RecordCallbackError records a failed callback
func (m *Metrics) RecordCallbackError(ctx context.Context, pattern, role string) {
	m.callbackErrors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("pattern", pattern),
		attribute.String("role", role),
	))
}

// AddPending records a change in buffered out-of-order items
func (m *Metrics) AddPending(ctx context.Context, pattern string, delta int64) {
	m.orderPending.Add(ctx, delta, metric.WithAttributes(attribute.String("pattern", pattern)))
}

// RecordStall records one wait on the reorder window
func (m *Metrics) RecordStall(ctx context.Context, pattern string) {
	m.orderStalls.Add(ctx, 1, metric.WithAttributes(attribute.String("pattern", pattern)))
}

// RecordRun records the duration of one invocation
func (m *Metrics) RecordRun(ctx context.Context, pattern string, backend Backend, duration time.Duration, failed bool) {
	m.runDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("pattern", pattern),
		attribute.String("backend", backend.String()),
		attribute.Bool("failed", failed),
	))
}
