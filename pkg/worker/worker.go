package worker

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/jzx17/goparallel/pkg/types"
)

// WorkerState defines the state of a Worker
type WorkerState int32

const (
	// WorkerStateIdle represents idle worker state
	WorkerStateIdle WorkerState = iota
	// WorkerStateWorking represents working worker state
	WorkerStateWorking
	// WorkerStateStopped represents stopped worker state
	WorkerStateStopped
)

// String returns the string representation of WorkerState
func (ws WorkerState) String() string {
	switch ws {
	case WorkerStateIdle:
		return "idle"
	case WorkerStateWorking:
		return "working"
	case WorkerStateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Worker is the identity and bookkeeping of one goroutine owned by a Group or Pool.
// The goroutine itself is started by the owner; a Worker only tracks what runs on it.
type Worker struct {
	id    int
	state atomic.Int32
	clock types.Clock

	processed atomic.Int64
	failed    atomic.Int64
	lastStart atomic.Int64 // unix nanos
	busy      atomic.Int64 // nanos spent inside callbacks
}

func newWorker(id int, clock types.Clock) *Worker {
	if clock == nil {
		clock = types.NewRealClock()
	}
	return &Worker{id: id, clock: clock}
}

// ID returns the index the worker was spawned with
func (w *Worker) ID() int {
	return w.id
}

// State returns the current Worker state
func (w *Worker) State() WorkerState {
	return WorkerState(w.state.Load())
}

func (w *Worker) setState(state WorkerState) {
	w.state.Store(int32(state))
}

// run executes one unit of work on this worker and accounts for it
func (w *Worker) run(ctx context.Context, fn func(ctx context.Context) error) error {
	w.setState(WorkerStateWorking)
	defer w.setState(WorkerStateIdle)

	start := w.clock.Now()
	w.lastStart.Store(start.UnixNano())

	ctx = context.WithValue(ctx, unitKey{}, w)
	err := Guard(func() error { return fn(ctx) })

	w.busy.Add(int64(w.clock.Since(start)))
	if err != nil {
		w.failed.Add(1)
	} else {
		w.processed.Add(1)
	}
	return err
}

// Guard calls fn and converts a panic into a *types.PanicError carrying the stack
func Guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			stack := make([]byte, 4096)
			stack = stack[:runtime.Stack(stack, false)]
			err = &types.PanicError{Value: r, Stack: string(stack)}
		}
	}()
	return fn()
}

// Stats returns a snapshot of the worker's counters
func (w *Worker) Stats() WorkerStats {
	return WorkerStats{
		ID:             w.id,
		State:          w.State(),
		TotalProcessed: w.processed.Load(),
		TotalFailed:    w.failed.Load(),
		LastTaskTime:   time.Unix(0, w.lastStart.Load()),
		BusyTime:       time.Duration(w.busy.Load()),
	}
}

// WorkerStats is a snapshot of one worker's counters
type WorkerStats struct {
	ID             int
	State          WorkerState
	TotalProcessed int64
	TotalFailed    int64
	LastTaskTime   time.Time // start of the most recent unit of work
	BusyTime       time.Duration
}

// IsActive reports whether the worker was running a callback
func (ws WorkerStats) IsActive() bool {
	return ws.State == WorkerStateWorking
}

// ErrorRate is the share of units of work that failed, 0 when none ran
func (ws WorkerStats) ErrorRate() float64 {
	total := ws.TotalProcessed + ws.TotalFailed
	if total == 0 {
		return 0
	}
	return float64(ws.TotalFailed) / float64(total)
}

// Utilization is the share of window the worker spent inside callbacks
func (ws WorkerStats) Utilization(window time.Duration) float64 {
	if window <= 0 {
		return 0
	}
	return min(float64(ws.BusyTime)/float64(window), 1)
}

// PoolStats aggregates the statistics of a group or pool
type PoolStats struct {
	// PoolSize is the number of workers
	PoolSize int

	// ActiveWorkers is the number of workers currently running a callback
	ActiveWorkers int

	// QueueSize is the number of tasks waiting in the queue, pools only
	QueueSize int

	// QueueCapacity is the capacity of the task queue, pools only
	QueueCapacity int

	// Completed is the number of units of work that finished without error:
	// tasks for a pool, callbacks for a group
	Completed int64

	// Failed is the number of units of work that returned an error or panicked
	Failed int64
}

// aggregate sums the statistics of workers
func aggregate(workers []*Worker) PoolStats {
	stats := PoolStats{PoolSize: len(workers)}
	for _, w := range workers {
		ws := w.Stats()
		if ws.IsActive() {
			stats.ActiveWorkers++
		}
		stats.Completed += ws.TotalProcessed
		stats.Failed += ws.TotalFailed
	}
	return stats
}

// snapshot returns the statistics of every worker
func snapshot(workers []*Worker) []WorkerStats {
	stats := make([]WorkerStats, len(workers))
	for i, w := range workers {
		stats[i] = w.Stats()
	}
	return stats
}
