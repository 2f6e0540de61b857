package worker

import "context"

type workerKey struct{}

// unitKey marks a context as inside a unit of work of the stored worker
type unitKey struct{}

// withWorker binds w to every callback run under ctx. Set once when the goroutine is spawned.
func withWorker(ctx context.Context, w *Worker) context.Context {
	return context.WithValue(ctx, workerKey{}, w)
}

// FromContext returns the worker running the calling goroutine
func FromContext(ctx context.Context) (*Worker, bool) {
	w, ok := ctx.Value(workerKey{}).(*Worker)
	return w, ok
}

// ID returns the index of the worker running the calling goroutine, or -1 when
// the caller is not a worker (the driver, or a task inlined by Future.Wait on the caller).
func ID(ctx context.Context) int {
	if w, ok := FromContext(ctx); ok {
		return w.id
	}
	return -1
}

// Do runs fn as one unit of work of the calling worker. Panics are recovered.
// Outside a worker fn still runs, only without statistics. A Do nested in a
// unit of work of the same worker, such as a callback inside a pool task, is
// part of that unit and is not counted again.
func Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if w, ok := FromContext(ctx); ok && !inUnit(ctx, w) {
		return w.run(ctx, fn)
	}
	return Guard(func() error { return fn(ctx) })
}

func inUnit(ctx context.Context, w *Worker) bool {
	u, ok := ctx.Value(unitKey{}).(*Worker)
	return ok && u == w
}
