// Package retry provides an explicit retry decorator for pattern callbacks.
//
// Patterns never retry a failed callback on their own. Wrapping a callback with
// Wrap opts a single stage into retries:
//
//	fetch := retry.Wrap(fetchRecord, retry.NewExponentialBackoffRetry(4, 10*time.Millisecond, 2))
//	err := pattern.Farm(ctx, ex, gen, fetch, sink)
//
// Key Features:
//
// 1. Retry policies:
//   - NewFixedDelayRetry: the same delay before every retry
//   - NewExponentialBackoffRetry: the delay grows by a multiplier
//   - NewLinearBackoffRetry: the delay grows by a fixed increment
//   - NewPolicy: any DelayFunc
//
// 2. Retry conditions:
//   - DefaultRetryCondition: only errors marked with types.RetryableError
//   - AnyError: everything except recovered panics
//
// 3. Timing:
//   - Delays run on the clock carried by the callback context, which inside a
//     pattern is the execution context's clock
//   - WithJitter and WithMaxDelay shape the delay
//
// 4. Observation:
//   - Each retry is logged at debug level on the logger carried by the context
//   - WithStats and WithOnRetry expose attempt counts
//
// When every attempt fails the last error is returned wrapped in an
// *ExhaustedError, and the pattern records it like any other callback failure.
package retry
