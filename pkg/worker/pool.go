package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/jzx17/goparallel/pkg/queue"
	"github.com/jzx17/goparallel/pkg/types"
)

// PoolConfig defines configuration for the shared worker pool
type PoolConfig struct {
	// PoolSize is the size of the worker pool
	PoolSize int

	// QueueSize is the task queue size
	QueueSize int

	// LockFree selects the lock-free task queue
	LockFree bool

	// Clock for time operations (optional, defaults to real clock)
	Clock types.Clock

	// Logger receives lifecycle events (optional, defaults to a no-op logger)
	Logger *zerolog.Logger
}

// DefaultPoolConfig returns default configuration
func DefaultPoolConfig() *PoolConfig {
	return &PoolConfig{
		PoolSize:  10,
		QueueSize: 100,
		Clock:     types.NewRealClock(),
	}
}

// Pool is a fixed-size pool shared by every invocation of an execution context.
// Submit never blocks: a task that does not fit the queue stays pending and is
// run by whoever waits on it, so tasks may wait on tasks they submitted.
type Pool struct {
	config  *PoolConfig
	workers []*Worker
	tasks   queue.Queue[*Future]
	logger  zerolog.Logger
	baseCtx context.Context

	// state management
	state     int32 // 0: stopped, 1: running, 2: closed
	wg        sync.WaitGroup
	closeOnce sync.Once
	inlined   int64
}

// NewPool creates a new pool
func NewPool(config *PoolConfig) (*Pool, error) {
	if config == nil {
		config = DefaultPoolConfig()
	}

	if config.PoolSize <= 0 {
		return nil, types.NewConfigurationError("workers", config.PoolSize, "must be positive")
	}
	tasks, err := queue.New[*Future](config.QueueSize, config.LockFree)
	if err != nil {
		return nil, err
	}

	if config.Clock == nil {
		config.Clock = types.NewRealClock()
	}
	logger := zerolog.Nop()
	if config.Logger != nil {
		logger = *config.Logger
	}

	workers := make([]*Worker, config.PoolSize)
	for i := range workers {
		workers[i] = newWorker(i, config.Clock)
	}

	return &Pool{
		config:  config,
		workers: workers,
		tasks:   tasks,
		logger:  logger,
	}, nil
}

// Start starts the worker goroutines
func (p *Pool) Start(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&p.state, 0, 1) {
		if atomic.LoadInt32(&p.state) == 1 {
			return fmt.Errorf("worker pool: %w", types.ErrAlreadyStarted)
		}
		return types.ErrPoolClosed
	}

	p.baseCtx = ctx
	p.wg.Add(len(p.workers))
	for _, w := range p.workers {
		go p.serve(w)
	}

	p.logger.Debug().Int("workers", len(p.workers)).Int("queue_capacity", p.tasks.Cap()).Msg("worker pool started")
	return nil
}

func (p *Pool) serve(w *Worker) {
	defer p.wg.Done()
	defer w.setState(WorkerStateStopped)

	for {
		item := p.tasks.Pop()
		f, ok := item.Get()
		if !ok {
			return
		}
		if f.claim() {
			f.execute(withWorker(f.ctx, w))
		}
	}
}

// Submit schedules fn and returns its future. A nil ctx runs fn under the
// context the pool was started with.
func (p *Pool) Submit(ctx context.Context, fn func(ctx context.Context) error) *Future {
	if ctx == nil {
		ctx = p.baseCtx
		if ctx == nil {
			ctx = context.Background()
		}
	}
	f := newFuture(ctx, fn)
	if fn == nil {
		f.claim()
		f.finish(fmt.Errorf("task %s has no execution function: %w", f.id, types.ErrInvalidInput))
		return f
	}

	if atomic.LoadInt32(&p.state) != 1 {
		atomic.AddInt64(&p.inlined, 1)
		return f
	}
	if ok, err := p.tasks.TryPush(f); !ok || err != nil {
		atomic.AddInt64(&p.inlined, 1)
	}
	return f
}

// Close stops accepting tasks and waits for queued ones to finish
func (p *Pool) Close() error {
	var closeErr error

	p.closeOnce.Do(func() {
		wasRunning := atomic.SwapInt32(&p.state, 2) == 1
		closeErr = p.tasks.Close()
		if wasRunning {
			p.wg.Wait()
		}
		p.logger.Debug().Int64("inlined", atomic.LoadInt64(&p.inlined)).Msg("worker pool closed")
	})

	return closeErr
}

// Size returns the worker pool size
func (p *Pool) Size() int {
	return p.config.PoolSize
}

// Inlined returns how many submitted tasks did not fit the queue
func (p *Pool) Inlined() int64 {
	return atomic.LoadInt64(&p.inlined)
}

// Stats gets basic worker pool statistics
func (p *Pool) Stats() PoolStats {
	stats := aggregate(p.workers)
	stats.QueueSize = p.tasks.Len()
	stats.QueueCapacity = p.tasks.Cap()
	return stats
}

// GetWorkerStats gets statistics of all Workers
func (p *Pool) GetWorkerStats() []WorkerStats {
	return snapshot(p.workers)
}
