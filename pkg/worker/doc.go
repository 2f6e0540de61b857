/*
Package worker provides the two kinds of worker sets used by the parallel patterns.

# Overview

Both kinds own a fixed number of goroutines, each bound to a Worker that records
its state and statistics. A callback can find the worker it runs on through
ID(ctx), which is a single context lookup.

# Core Components

## Group

A Group is created per pattern invocation. Every worker runs the same LoopFunc
once; Init starts them and Shutdown joins them:

	group, err := worker.NewGroup("farm", 4)
	if err != nil {
		return err
	}
	if err := group.Init(ctx, loop); err != nil {
		return err
	}
	return group.Shutdown()

Streaming roles (farm workers, filter workers, the reorder sink) run on groups
because they block on queues for the whole invocation.

## Pool

A Pool is owned by an execution context and shared by all invocations. It runs
independent tasks: Map chunks, MapReduce partial folds and divide-and-conquer
subproblems. Submit never blocks. A task that did not fit the queue, or that no
worker picked up yet, is run by the goroutine calling Future.Wait, so a task may
submit subtasks and wait for them without exhausting the pool.

	f := pool.Submit(ctx, func(ctx context.Context) error {
		return solve(ctx, part)
	})
	err := f.Wait()

# Error Handling

Loop and task panics are recovered into *types.PanicError with the goroutine
stack attached. Group.Shutdown joins the errors of all loops.
*/
package worker
