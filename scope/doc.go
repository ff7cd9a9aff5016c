// Package scope provides structured-concurrency supervision primitives.
// A Scope owns the tasks it launches, shares one cancellation signal with
// all of them, and applies a failure policy: FailFast cancels siblings and
// propagates the first failure from the join point, Supervise delivers
// failures to a handler while siblings run on, and Detach lets failures
// escape asynchronously the way bare goroutine launches do.
//
// Cancellation is cooperative: a task observes it only at its own
// suspension points (context-aware waits). A loop that never polls the
// scope context is not preemptible and will outlive Cancel.
package scope
