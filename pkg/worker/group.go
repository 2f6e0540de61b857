package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/jzx17/goparallel/pkg/types"
)

// LoopFunc is the body run by every worker of a Group. It returns when its
// input is exhausted.
type LoopFunc func(ctx context.Context) error

// GroupOption configures a Group
type GroupOption func(*Group)

// WithClock sets the clock used for worker timing
func WithClock(clock types.Clock) GroupOption {
	return func(g *Group) {
		if clock != nil {
			g.clock = clock
		}
	}
}

// WithLogger sets the logger used for lifecycle events
func WithLogger(logger zerolog.Logger) GroupOption {
	return func(g *Group) {
		g.logger = logger
	}
}

// Group is a fixed gang of identified workers that run the same loop once.
// Worker i is reachable from its callbacks through ID(ctx) == i.
type Group struct {
	name    string
	workers []*Worker
	errs    []error
	clock   types.Clock
	logger  zerolog.Logger

	// state management
	state int32 // 0: created, 1: running, 2: joined
	wg    sync.WaitGroup
}

// NewGroup creates a group of size workers
func NewGroup(name string, size int, opts ...GroupOption) (*Group, error) {
	if size <= 0 {
		return nil, types.NewConfigurationError("workers", size, "must be positive")
	}

	g := &Group{
		name:   name,
		clock:  types.NewRealClock(),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}

	g.workers = make([]*Worker, size)
	g.errs = make([]error, size)
	for i := range g.workers {
		g.workers[i] = newWorker(i, g.clock)
	}
	return g, nil
}

// Init starts every worker on loop. It may be called once.
func (g *Group) Init(ctx context.Context, loop LoopFunc) error {
	if !atomic.CompareAndSwapInt32(&g.state, 0, 1) {
		return fmt.Errorf("group %s: %w", g.name, types.ErrAlreadyStarted)
	}
	if loop == nil {
		return fmt.Errorf("group %s: loop cannot be nil: %w", g.name, types.ErrInvalidInput)
	}

	g.wg.Add(len(g.workers))
	for _, w := range g.workers {
		go g.serve(withWorker(ctx, w), w, loop)
	}

	g.logger.Debug().Str("group", g.name).Int("workers", len(g.workers)).Msg("worker group started")
	return nil
}

func (g *Group) serve(ctx context.Context, w *Worker, loop LoopFunc) {
	defer g.wg.Done()
	defer w.setState(WorkerStateStopped)

	// each worker writes only its own slot
	g.errs[w.id] = Guard(func() error { return loop(ctx) })
}

// Shutdown waits for every worker to return and reports their loop errors joined
func (g *Group) Shutdown() error {
	switch atomic.LoadInt32(&g.state) {
	case 0:
		return fmt.Errorf("group %s is not started", g.name)
	case 2:
		return nil
	}

	g.wg.Wait()
	atomic.StoreInt32(&g.state, 2)
	g.logger.Debug().Str("group", g.name).Msg("worker group joined")
	return errors.Join(g.errs...)
}

// Size returns the number of workers
func (g *Group) Size() int {
	return len(g.workers)
}

// Name returns the group name
func (g *Group) Name() string {
	return g.name
}

// Stats aggregates worker statistics
func (g *Group) Stats() PoolStats {
	return aggregate(g.workers)
}

// GetWorkerStats gets statistics of all Workers
func (g *Group) GetWorkerStats() []WorkerStats {
	return snapshot(g.workers)
}
