// Package task layers typed results over scope task handles. A Task[R]
// couples a scope.TaskHandle with a result slot so callers can await a
// value instead of just an error.
package task

import (
	"context"

	"github.com/NetPo4ki/go-supervise/scope"
)

// Task is a handle to a launched unit of work producing an R.
type Task[R any] struct {
	handle *scope.TaskHandle
	result R // written once by the work goroutine before the handle closes
}

// Go launches work in s and returns a typed handle. The work's failure is
// routed by the scope's policy exactly as with scope.Go; a per-launch
// handler may be attached via scope.WithHandler.
func Go[R any](s *scope.Scope, work func(ctx context.Context) (R, error), opts ...scope.TaskOption) *Task[R] {
	t := &Task[R]{}
	t.handle = s.Go(func(ctx context.Context) error {
		r, err := work(ctx)
		if err != nil {
			return err
		}
		t.result = r
		return nil
	}, opts...)
	return t
}

// Handle returns the underlying scope handle.
func (t *Task[R]) Handle() *scope.TaskHandle { return t.handle }

// Await blocks until the task is terminal or ctx is cancelled. On
// Completed it returns the result; on Failed the stored work failure; on
// Cancelled the stored cancellation error.
func (t *Task[R]) Await(ctx context.Context) (R, error) {
	if err := t.handle.Wait(ctx); err != nil {
		var zero R
		return zero, err
	}
	return t.result, nil
}

// Sum awaits every task in launch order and adds up the results,
// substituting zero for any task that did not complete. It returns the
// first non-nil error it saw alongside the partial sum.
func Sum(ctx context.Context, tasks ...*Task[int]) (int, error) {
	var total int
	var firstErr error
	for _, t := range tasks {
		v, err := t.Await(ctx)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		total += v
	}
	return total, firstErr
}
