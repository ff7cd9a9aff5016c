package scope

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Policy decides what an unhandled child failure does to the rest of the
// scope.
type Policy int

const (
	// FailFast cancels all siblings on the first unhandled failure and
	// surfaces that failure from Wait.
	FailFast Policy = iota
	// Supervise routes every unhandled failure to the scope's supervisor
	// callback; siblings run to natural completion and Wait returns nil.
	// Without a supervisor callback the first failure is still recorded
	// and returned from Wait, but siblings are never cancelled.
	Supervise
	// Detach makes children independently rooted: a failure escapes
	// asynchronously to the unhandled hook and neither cancels siblings
	// nor surfaces from Wait. This reproduces the fire-and-forget launch
	// style where a join-site try/catch never observes the error.
	Detach
)

type Option func(*Options)

type Options struct {
	PanicAsError   bool
	Observer       Observer
	MaxConcurrency int
	Supervisor     func(error)
	Unhandled      func(error)
}

func defaultOptions() Options { return Options{PanicAsError: true} }

func WithPanicAsError(v bool) Option { return func(o *Options) { o.PanicAsError = v } }

func WithObserver(obs Observer) Option { return func(o *Options) { o.Observer = obs } }

func WithMaxConcurrency(n int) Option { return func(o *Options) { o.MaxConcurrency = n } }

// WithSupervisor sets the scope-level failure handler used by the Supervise
// policy. The handler observes each unhandled child failure exactly once;
// it never retries or resumes the failed task.
func WithSupervisor(h func(error)) Option { return func(o *Options) { o.Supervisor = h } }

// WithUnhandled sets the hook that receives failures escaping a Detach
// scope. The hook runs on the failing task's goroutine, asynchronously
// relative to any caller waiting on the scope.
func WithUnhandled(h func(error)) Option { return func(o *Options) { o.Unhandled = h } }

// Observer receives lifecycle callbacks from scopes and their tasks.
type Observer interface {
	ScopeCreated(ctx context.Context)
	ScopeCancelled(ctx context.Context, cause error)
	ScopeJoined(ctx context.Context, wait time.Duration)
	TaskStarted(ctx context.Context)
	TaskFinished(ctx context.Context, dur time.Duration, state TaskState, err error)
}

// Scope owns a set of child tasks, a shared cancellation signal, and a
// failure policy. All children launched via Go share the scope's context;
// cancelling the scope cancels the whole subtree.
type Scope struct {
	ctx      context.Context
	cancel   context.CancelFunc
	policy   Policy
	wg       sync.WaitGroup
	mu       sync.Mutex
	firstErr error
	canceled bool
	children []*TaskHandle
	seq      atomic.Uint64

	opts Options
	obs  Observer
	lim  Limiter
}

func New(parent context.Context, policy Policy, optFns ...Option) *Scope {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	s := &Scope{ctx: ctx, cancel: cancel, policy: policy, opts: defaultOptions()}
	for _, fn := range optFns {
		fn(&s.opts)
	}
	s.obs = s.opts.Observer
	if s.opts.MaxConcurrency > 0 {
		s.lim = newSemaphoreLimiter(s.opts.MaxConcurrency)
	}
	if s.obs != nil {
		s.obs.ScopeCreated(ctx)
	}
	return s
}

func (s *Scope) Context() context.Context { return s.ctx }

func (s *Scope) Policy() Policy { return s.policy }

// Go launches fn as a child task and returns its handle. Launch order is
// recorded on the handle and determines the order of Children. A nil fn
// returns a nil handle.
func (s *Scope) Go(fn func(ctx context.Context) error, topts ...TaskOption) *TaskHandle {
	if fn == nil {
		return nil
	}
	h := newHandle(s.seq.Add(1), topts...)
	s.mu.Lock()
	s.children = append(s.children, h)
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if s.lim != nil {
			if err := s.lim.Acquire(s.ctx); err != nil {
				h.finish(StateCancelled, err)
				return
			}
			defer s.lim.Release()
		}
		defer func() {
			if r := recover(); r != nil {
				err := fmt.Errorf("panic: %v", r)
				if s.opts.PanicAsError {
					state := s.settle(h, err)
					if s.obs != nil {
						s.obs.TaskFinished(s.ctx, 0, state, err)
					}
				} else {
					h.finish(StateFailed, err)
					if s.obs != nil {
						s.obs.TaskFinished(s.ctx, 0, StateFailed, err)
					}
					panic(r)
				}
			}
		}()

		h.transition(StatePending, StateRunning)
		var start time.Time
		if s.obs != nil {
			start = time.Now()
			s.obs.TaskStarted(s.ctx)
		}

		err := fn(s.ctx)
		state := s.settle(h, err)
		if s.obs != nil {
			s.obs.TaskFinished(s.ctx, time.Since(start), state, err)
		}
	}()
	return h
}

// settle finalizes a task handle and routes a failure: the per-launch
// handler wins, then the scope policy.
func (s *Scope) settle(h *TaskHandle, err error) TaskState {
	state := classify(err)
	h.finish(state, err)
	if state == StateCancelled && s.policy == FailFast {
		// A fail-fast join propagates cancellation to its caller unless a
		// failure already claimed the error slot.
		s.fail(err)
		return state
	}
	if state != StateFailed {
		return state
	}
	switch {
	case h.handler != nil:
		h.handler(err)
	case s.policy == Supervise && s.opts.Supervisor != nil:
		s.opts.Supervisor(err)
	case s.policy == Detach && s.opts.Unhandled != nil:
		s.opts.Unhandled(err)
	default:
		s.fail(err)
	}
	return state
}

// Cancel signals cancellation to all current and future children. It is
// idempotent; the first call wins the cause.
func (s *Scope) Cancel(err error) {
	s.mu.Lock()
	wasCanceled := s.canceled
	s.canceled = true
	if s.firstErr == nil && err != nil {
		s.firstErr = err
	}
	cause := s.firstErr
	s.mu.Unlock()

	s.cancel()
	if !wasCanceled && s.obs != nil {
		s.obs.ScopeCancelled(s.ctx, cause)
	}
}

// Wait joins the scope: it returns only after every child has reached a
// terminal state, then reports the first recorded unhandled error.
func (s *Scope) Wait() error {
	var start time.Time
	if s.obs != nil {
		start = time.Now()
	}
	s.wg.Wait()
	if s.obs != nil {
		s.obs.ScopeJoined(s.ctx, time.Since(start))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.firstErr
}

// Children returns the scope's task handles in launch order.
func (s *Scope) Children() []*TaskHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*TaskHandle, len(s.children))
	copy(out, s.children)
	return out
}

func (s *Scope) fail(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	if s.firstErr == nil {
		s.firstErr = err
	}
	shouldCancel := s.policy == FailFast
	cause := s.firstErr
	s.mu.Unlock()
	if shouldCancel {
		s.Cancel(cause)
	}
}

// Child derives a scope whose context descends from s; cancelling s
// cancels the child and its subtree.
func (s *Scope) Child(policy Policy, optFns ...Option) *Scope {
	childOpts := s.opts
	for _, fn := range optFns {
		fn(&childOpts)
	}
	ctx, cancel := context.WithCancel(s.ctx)
	cs := &Scope{ctx: ctx, cancel: cancel, policy: policy, opts: childOpts, obs: childOpts.Observer}
	if childOpts.MaxConcurrency > 0 {
		cs.lim = newSemaphoreLimiter(childOpts.MaxConcurrency)
	}
	if cs.obs != nil {
		cs.obs.ScopeCreated(ctx)
	}
	return cs
}
