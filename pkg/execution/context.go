package execution

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/jzx17/goparallel/pkg/types"
	"github.com/jzx17/goparallel/pkg/worker"
)

// Option configures a Context
type Option func(*Context)

// WithLogger sets the logger every invocation derives its run logger from
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Context) {
		c.logger = logger
	}
}

// WithMeterProvider sets the provider metric instruments are created on
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(c *Context) {
		c.meterProvider = provider
	}
}

// WithTracerProvider sets the provider run spans are started on
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(c *Context) {
		c.tracerProvider = provider
	}
}

// WithClock sets the clock used for timing
func WithClock(clock types.Clock) Option {
	return func(c *Context) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithErrorHandler sets the handler that sees every captured callback error
// first. Returning nil suppresses the error.
func WithErrorHandler(handler types.ErrorHandler) Option {
	return func(c *Context) {
		c.errorHandler = handler
	}
}

// Context is an immutable execution context. It may back any number of
// concurrent pattern invocations, which share its worker pool.
type Context struct {
	config         Config
	pool           *worker.Pool
	logger         zerolog.Logger
	meterProvider  metric.MeterProvider
	metrics        *Metrics
	tracerProvider trace.TracerProvider
	tracer         trace.Tracer
	clock          types.Clock
	errorHandler   types.ErrorHandler
}

// New validates config and starts the shared worker pool for the parallel backend
func New(config Config, opts ...Option) (*Context, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	c := &Context{
		config: config,
		logger: zerolog.Nop(),
		clock:  types.NewRealClock(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.meterProvider == nil {
		c.meterProvider = otel.GetMeterProvider()
	}

	if c.tracerProvider == nil {
		c.tracerProvider = otel.GetTracerProvider()
	}
	c.tracer = c.tracerProvider.Tracer(TracerName)

	metrics, err := NewMetrics(c.meterProvider.Meter(MeterName))
	if err != nil {
		return nil, fmt.Errorf("creating metrics: %w", err)
	}
	c.metrics = metrics

	if config.Backend == BackendParallel {
		pool, err := worker.NewPool(&worker.PoolConfig{
			PoolSize:  config.Workers,
			QueueSize: config.QueueCapacity,
			LockFree:  config.LockFree,
			Clock:     c.clock,
			Logger:    &c.logger,
		})
		if err != nil {
			return nil, err
		}
		if err := pool.Start(context.Background()); err != nil {
			return nil, err
		}
		c.pool = pool
	}

	c.logger.Debug().
		Int("workers", config.Workers).
		Bool("ordering", config.Ordering).
		Int("queue_capacity", config.QueueCapacity).
		Bool("lockfree", config.LockFree).
		Str("backend", config.Backend.String()).
		Msg("execution context created")
	return c, nil
}

// Default creates a context from DefaultConfig
func Default(opts ...Option) (*Context, error) {
	return New(DefaultConfig(), opts...)
}

// Close stops the shared pool once running invocations have finished their tasks
func (c *Context) Close() error {
	if c.pool == nil {
		return nil
	}
	return c.pool.Close()
}

// Config returns a copy of the configuration
func (c *Context) Config() Config {
	return c.config
}

// Workers returns the configured worker count
func (c *Context) Workers() int {
	return c.config.Workers
}

// Ordered reports whether streaming patterns preserve generator order
func (c *Context) Ordered() bool {
	return c.config.Ordering
}

// QueueCapacity returns the capacity of every inter-role queue
func (c *Context) QueueCapacity() int {
	return c.config.QueueCapacity
}

// LockFree reports whether queues are lock-free
func (c *Context) LockFree() bool {
	return c.config.LockFree
}

// Backend returns the execution backend
func (c *Context) Backend() Backend {
	return c.config.Backend
}

// Sequential reports whether patterns run on the calling goroutine
func (c *Context) Sequential() bool {
	return c.config.Backend == BackendSequential
}

// MaxSkew returns the reorder window, zero when unbounded
func (c *Context) MaxSkew() uint64 {
	return c.config.MaxSkew
}

// MaxDepth returns the divide-and-conquer depth cap, zero when unbounded
func (c *Context) MaxDepth() int {
	return c.config.MaxDepth
}

// Pool returns the shared pool, nil for the sequential backend
func (c *Context) Pool() *worker.Pool {
	return c.pool
}

// Logger returns the base logger
func (c *Context) Logger() zerolog.Logger {
	return c.logger
}

// Metrics returns the metric instruments
func (c *Context) Metrics() *Metrics {
	return c.metrics
}

// Tracer returns the tracer run spans are started on
func (c *Context) Tracer() trace.Tracer {
	return c.tracer
}

// Clock returns the clock
func (c *Context) Clock() types.Clock {
	return c.clock
}

// ErrorHandler returns the configured error handler, if any
func (c *Context) ErrorHandler() types.ErrorHandler {
	return c.errorHandler
}
