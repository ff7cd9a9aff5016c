package scope

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/google/uuid"
)

// TaskState tracks a task through its lifecycle. Terminal states are
// immutable: once a handle reaches Completed, Failed or Cancelled it
// never transitions again.
type TaskState int32

const (
	StatePending TaskState = iota
	StateRunning
	StateCompleted
	StateFailed
	StateCancelled
)

func (s TaskState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state is final.
func (s TaskState) Terminal() bool {
	switch s {
	case StateCompleted, StateFailed, StateCancelled:
		return true
	default:
		return false
	}
}

func allowedTransition(from, to TaskState) bool {
	switch from {
	case StatePending:
		return to == StateRunning || to == StateCancelled
	case StateRunning:
		return to.Terminal()
	default:
		return false
	}
}

// TaskOption configures a single launch.
type TaskOption func(*TaskHandle)

// WithHandler attaches a failure handler to this launch only. A failure of
// this task is delivered to h instead of the scope's policy; it never
// triggers fail-fast cancellation of siblings. The handler observes the
// error exactly once and must not block.
func WithHandler(h func(error)) TaskOption {
	return func(t *TaskHandle) { t.handler = h }
}

// TaskHandle is a unit of concurrent work owned by a Scope. The zero value
// is not usable; handles are created by Scope.Go.
type TaskHandle struct {
	id      uuid.UUID
	seq     uint64
	state   atomic.Int32
	done    chan struct{}
	err     error // write-once before done closes
	handler func(error)
}

func newHandle(seq uint64, opts ...TaskOption) *TaskHandle {
	h := &TaskHandle{id: uuid.New(), seq: seq, done: make(chan struct{})}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ID returns the task's unique identifier.
func (t *TaskHandle) ID() uuid.UUID { return t.id }

// Seq returns the task's launch sequence within its scope, starting at 1.
// Launch order determines result-aggregation order.
func (t *TaskHandle) Seq() uint64 { return t.seq }

// State returns the current lifecycle state.
func (t *TaskHandle) State() TaskState { return TaskState(t.state.Load()) }

// Done is closed when the task reaches a terminal state.
func (t *TaskHandle) Done() <-chan struct{} { return t.done }

// Err returns the stored error once the task is terminal: nil for
// Completed, the work failure for Failed, a context error for Cancelled.
// Before the terminal state it returns nil.
func (t *TaskHandle) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Wait blocks until the task is terminal or ctx is cancelled. It returns
// the task's stored error, or ctx.Err() if the caller gave up first.
func (t *TaskHandle) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *TaskHandle) transition(from, to TaskState) bool {
	if !allowedTransition(from, to) {
		return false
	}
	return t.state.CompareAndSwap(int32(from), int32(to))
}

// finish moves the handle to a terminal state and releases waiters.
// It is a no-op if the handle is already terminal.
func (t *TaskHandle) finish(to TaskState, err error) bool {
	if !to.Terminal() {
		return false
	}
	from := t.State()
	if from.Terminal() || !t.transition(from, to) {
		return false
	}
	t.err = err
	close(t.done)
	return true
}

// classify maps a work function's return into a terminal state.
// Context errors mean the task observed cancellation mid-wait.
func classify(err error) TaskState {
	switch {
	case err == nil:
		return StateCompleted
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return StateCancelled
	default:
		return StateFailed
	}
}
