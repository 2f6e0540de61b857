/*
Package pattern implements parallel execution patterns on top of an execution.Context.

# Streaming patterns

Farm, StreamFilter and Pipeline pull items from a Generator on the calling
goroutine, tag each with a sequence number and push it into a bounded queue.
Worker groups pop, apply the callback and push to the next queue; a single sink
worker hands results to the Sink. Closing a queue is the end-of-stream signal:
every consumer observes it once, and the last worker of a stage closes the next
queue.

With ordering enabled, the sink restores generator order through an
order.Reconstructor. Items that fail or are filtered out travel on as
placeholders so the reconstructor never waits for them.

	ex, err := execution.New(execution.DefaultConfig())
	if err != nil {
		return err
	}
	defer ex.Close()

	var out []int
	err = pattern.Farm(ctx, ex, types.FromSlice(input),
		pattern.Transform(func(x int) int { return x * 2 }),
		types.Collect(&out))

# Data-parallel patterns

Map, Map2, MapZip and MapReduce split their input into contiguous chunks, one
per worker. Chunk 0 runs on the caller and the rest on the context's shared
pool. MapReduce combines partial results in chunk order, so a combiner that is
neither associative nor commutative still yields a deterministic result.

DivideAndConquer submits subproblems to the shared pool and combines results in
subproblem order. A subproblem nobody picked up yet is solved by the goroutine
waiting for it, so deep recursion never exhausts the pool.

# Errors

Callback errors and panics never stop an invocation. Each is wrapped in a
*types.CallbackError naming the pattern, role, worker and sequence number, and
all of them are returned joined once every goroutine of the invocation has
finished. An execution.WithErrorHandler hook may suppress or replace them.

# Observability

Every invocation gets a run id, a child logger reachable through zerolog.Ctx
and an OpenTelemetry span named goparallel.<pattern> on the context's tracer.
Callbacks receive the logger, tagged with the run id, and the span through
their context.

# Backends

Under execution.BackendSequential every pattern runs on the calling goroutine
in generator order. Its results are the reference the parallel backend matches.
*/
package pattern
