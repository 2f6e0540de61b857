package pattern

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	ierrors "github.com/jzx17/goparallel/internal/errors"
	"github.com/jzx17/goparallel/pkg/execution"
	"github.com/jzx17/goparallel/pkg/order"
	"github.com/jzx17/goparallel/pkg/types"
	"github.com/jzx17/goparallel/pkg/worker"
)

// role names the callback a failure came from
type role int

const (
	roleGenerator role = iota
	roleTransform
	rolePredicate
	roleSink
	roleCombine
	roleDivide
	roleSolve
	roleReorder
	numRoles
)

var roleNames = [numRoles]string{
	"generator", "transform", "predicate", "sink", "combine", "divide", "solve", "reorder",
}

func (ro role) String() string {
	if ro < 0 || ro >= numRoles {
		return "unknown"
	}
	return roleNames[ro]
}

// site identifies where a callback runs, for error attribution
type site struct {
	pattern string
	role    role
}

// run is the state of one pattern invocation
type run struct {
	ex      *execution.Context
	pattern string
	id      string
	logger  zerolog.Logger
	errs    *ierrors.Collector
	span    trace.Span
	start   time.Time
	counts  [numRoles]atomic.Int64

	stallOnce sync.Once
}

// newRun prepares an invocation and returns the context its callbacks receive:
// the run logger is reachable through zerolog.Ctx, the clock through
// types.ClockFromContext and the run span through trace.SpanFromContext.
func newRun(ctx context.Context, ex *execution.Context, pattern string, workers int) (*run, context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	r := &run{
		ex:      ex,
		pattern: pattern,
		id:      uuid.NewString(),
		start:   ex.Clock().Now(),
	}
	r.logger = ex.Logger().With().
		Str("pattern", pattern).
		Str("run_id", r.id).
		Int("workers", workers).
		Bool("ordered", ex.Ordered()).
		Str("backend", ex.Backend().String()).
		Logger()
	r.errs = ierrors.NewCollector(
		ierrors.WithHandler(ex.ErrorHandler()),
		ierrors.WithRecordHook(r.logRecorded),
	)

	ctx, r.span = ex.Tracer().Start(ctx, "goparallel."+pattern,
		trace.WithAttributes(
			attribute.String("goparallel.run_id", r.id),
			attribute.Int("goparallel.workers", workers),
			attribute.Bool("goparallel.ordered", ex.Ordered()),
			attribute.String("goparallel.backend", ex.Backend().String()),
		))
	ctx = types.WithClock(r.logger.WithContext(ctx), ex.Clock())
	r.logger.Debug().Msg("run started")
	return r, ctx
}

func (r *run) site(ro role) site {
	return site{pattern: r.pattern, role: ro}
}

// fail records a callback failure
func (r *run) fail(ctx context.Context, s site, seq uint64, err error) {
	r.ex.Metrics().RecordCallbackError(ctx, s.pattern, s.role.String())
	r.errs.Record(types.NewCallbackError(s.pattern, s.role.String(), worker.ID(ctx), seq, err))
}

// logRecorded logs each error the error handler let through
func (r *run) logRecorded(err error) {
	event := r.logger.Warn().Err(err)
	var cbErr *types.CallbackError
	if errors.As(err, &cbErr) {
		event = event.
			Str("role", cbErr.Role).
			Int("worker", cbErr.Worker).
			Uint64("seq", cbErr.Sequence)
	}
	event.Msg("error recorded")
}

// record keeps an error that did not come from a callback, such as a worker loop failure
func (r *run) record(err error) {
	if err != nil {
		r.errs.Record(err)
	}
}

func (r *run) count(ro role) {
	r.counts[ro].Add(1)
}

// uncount takes back a call that produced no item, such as the generator returning End
func (r *run) uncount(ro role) {
	r.counts[ro].Add(-1)
}

// finish reports the invocation and returns every captured error joined
func (r *run) finish(ctx context.Context) error {
	err := r.errs.Err()
	elapsed := r.ex.Clock().Since(r.start)
	metrics := r.ex.Metrics()

	event := r.logger.Debug().Dur("duration", elapsed).Int("errors", r.errs.Len())
	for ro := role(0); ro < numRoles; ro++ {
		if n := r.counts[ro].Load(); n > 0 {
			metrics.AddItems(ctx, r.pattern, ro.String(), n)
			event = event.Int64(ro.String(), n)
		}
	}
	event.Msg("run finished")

	metrics.RecordRun(ctx, r.pattern, r.ex.Backend(), elapsed, err != nil)

	r.span.SetAttributes(attribute.Int("goparallel.errors", r.errs.Len()))
	r.endSpan(err)
	return err
}

// abandon ends a run whose queues or workers could not be set up
func (r *run) abandon(err error) error {
	r.logger.Error().Err(err).Msg("run setup failed")
	r.endSpan(err)
	return err
}

func (r *run) endSpan(err error) {
	if err != nil {
		r.span.RecordError(err)
		r.span.SetStatus(codes.Error, err.Error())
	}
	r.span.End()
}

// reorderOptions wires a reconstructor to the run's metrics and logger
func (r *run) reorderOptions(ctx context.Context) []order.Option {
	metrics := r.ex.Metrics()
	return []order.Option{
		order.WithMaxSkew(r.ex.MaxSkew()),
		order.WithPendingObserver(func(delta int64) {
			metrics.AddPending(ctx, r.pattern, delta)
		}),
		order.WithStallObserver(func(seq, next uint64) {
			metrics.RecordStall(ctx, r.pattern)
			r.stallOnce.Do(func() {
				r.logger.Warn().
					Uint64("seq", seq).
					Uint64("next", next).
					Uint64("max_skew", r.ex.MaxSkew()).
					Msg("reorder window full, generator waiting")
			})
		}),
	}
}

// call runs fn as one unit of work of the calling worker, recording a
// failure or panic against s. It reports whether fn succeeded.
func call[R any](ctx context.Context, r *run, s site, seq uint64, fn func() (R, error)) (R, bool) {
	var out R
	err := worker.Do(ctx, func(context.Context) error {
		var err error
		out, err = fn()
		return err
	})
	r.count(s.role)
	if err != nil {
		r.fail(ctx, s, seq, err)
		var zero R
		return zero, false
	}
	return out, true
}
