// Package scenario packages six canonical supervision patterns over scopes
// and tasks, each with a deterministic observable outcome. Every scenario
// launches two simulated work units: task-a sleeps the slow duration and
// completes with value 1, catching cancellation mid-sleep where the pattern
// allows; task-b sleeps the fast duration and then fails with a fixed work
// failure. The patterns differ only in where (and whether) that failure is
// caught.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/NetPo4ki/go-supervise/clock"
	"github.com/NetPo4ki/go-supervise/scope"
	"github.com/NetPo4ki/go-supervise/task"
)

// ErrWorkFailure is the fixed failure raised by task-b after its delay.
var ErrWorkFailure = errors.New("work failure: invalid argument")

// ErrUnknownScenario is returned by Run for names outside "1".."6".
var ErrUnknownScenario = errors.New("unknown scenario")

// Option configures a Runner.
type Option func(*Runner)

// WithClock replaces the delay source used by simulated work.
func WithClock(c clock.Clock) Option { return func(r *Runner) { r.clk = c } }

// WithSink sets the lifecycle log sink.
func WithSink(s Sink) Option { return func(r *Runner) { r.sink = s } }

// WithDurations sets the slow (task-a) and fast (task-b) simulated delays.
func WithDurations(slow, fast time.Duration) Option {
	return func(r *Runner) { r.slow, r.fast = slow, fast }
}

// WithWatchdog bounds how long Run waits on the runaway scenario before
// reporting that it never completes.
func WithWatchdog(d time.Duration) Option { return func(r *Runner) { r.watchdog = d } }

// WithTicInterval sets the runaway loop's logging period.
func WithTicInterval(d time.Duration) Option { return func(r *Runner) { r.tic = d } }

// WithObserver attaches a scope observer to every scope the runner builds.
func WithObserver(obs scope.Observer) Option { return func(r *Runner) { r.obs = obs } }

// Runner executes supervision scenarios under one root scope. CancelAll
// cancels the root and, through it, every scope a scenario built.
type Runner struct {
	root *scope.Scope
	clk  clock.Clock
	sink Sink
	obs  scope.Observer

	slow     time.Duration
	fast     time.Duration
	watchdog time.Duration
	tic      time.Duration

	runaway atomic.Pointer[scope.TaskHandle]
}

// New builds a Runner with 5s/2s simulated delays and a 1s runaway
// watchdog unless overridden.
func New(opts ...Option) *Runner {
	r := &Runner{
		clk:      clock.System(),
		sink:     Discard,
		slow:     5 * time.Second,
		fast:     2 * time.Second,
		watchdog: time.Second,
		tic:      100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(r)
	}
	var rootOpts []scope.Option
	if r.obs != nil {
		rootOpts = append(rootOpts, scope.WithObserver(r.obs))
	}
	r.root = scope.New(context.Background(), scope.Detach, rootOpts...)
	return r
}

// Run executes the named scenario ("1".."6") and reports its outcome.
// Scenarios 1-5 return once their outcome is settled and all launched work
// has wound down, bounded by the slow duration. Scenario 6 returns
// KindNever after the watchdog window; its task keeps running.
func (r *Runner) Run(ctx context.Context, name string) (Outcome, error) {
	switch name {
	case "1":
		return r.runFlat(ctx, false)
	case "2":
		return r.runFlat(ctx, true)
	case "3":
		return r.runSupervised(ctx)
	case "4":
		return r.runScoped(ctx)
	case "5":
		return r.runLocalRecover(ctx)
	case "6":
		return r.runRunaway(ctx)
	default:
		return Outcome{}, fmt.Errorf("%w: %q", ErrUnknownScenario, name)
	}
}

// CancelAll cancels the root scope and everything launched under it.
// Idempotent; the runaway scenario's task accepts the signal but never
// observes it.
func (r *Runner) CancelAll() {
	r.root.Cancel(context.Canceled)
}

// RunawayAlive reports whether a previously launched runaway task is still
// running.
func (r *Runner) RunawayAlive() bool {
	h := r.runaway.Load()
	return h != nil && !h.State().Terminal()
}

func (r *Runner) newScope(policy scope.Policy, opts ...scope.Option) *scope.Scope {
	if r.obs != nil {
		opts = append(opts, scope.WithObserver(r.obs))
	}
	return scope.New(r.root.Context(), policy, opts...)
}

// slowWork is task-a: sleep the slow duration, complete with 1. When
// cancelled mid-sleep it logs the catch and substitutes 1, unless fatal,
// in which case the cancellation propagates and the task ends Cancelled.
func (r *Runner) slowWork(fatal bool) func(context.Context) (int, error) {
	return func(ctx context.Context) (int, error) {
		r.sink(msgLaunch + " task-a")
		if err := r.clk.Sleep(ctx, r.slow); err != nil {
			r.sink(msgCatch + " task-a")
			if fatal {
				return 0, err
			}
			return 1, nil
		}
		r.sink(msgFinish + " task-a")
		return 1, nil
	}
}

// failingWork is task-b: sleep the fast duration, then fail.
func (r *Runner) failingWork() func(context.Context) (int, error) {
	return func(ctx context.Context) (int, error) {
		r.sink(msgLaunch + " task-b")
		if err := r.clk.Sleep(ctx, r.fast); err != nil {
			r.sink(msgCatch + " task-b")
			return 0, err
		}
		return 0, ErrWorkFailure
	}
}

// redirect hops work onto another goroutine lane. It creates no join
// boundary: the failure still belongs to the launching task. Entry and
// exit are suspension points.
func redirect[R any](work func(context.Context) (R, error)) func(context.Context) (R, error) {
	return func(ctx context.Context) (R, error) {
		type result struct {
			v   R
			err error
		}
		ch := make(chan result, 1)
		go func() {
			v, err := work(ctx)
			ch <- result{v, err}
		}()
		select {
		case out := <-ch:
			return out.v, out.err
		case <-ctx.Done():
			var zero R
			return zero, ctx.Err()
		}
	}
}

// recovered wraps work with a local catch that substitutes 0 for any
// failure, so nothing ever escapes this branch.
func (r *Runner) recovered(work func(context.Context) (int, error)) func(context.Context) (int, error) {
	return func(ctx context.Context) (int, error) {
		v, err := work(ctx)
		if err != nil {
			r.sink(msgCatch + " task-b local")
			return 0, nil
		}
		return v, nil
	}
}

// Scenarios 1 and 2: two independently rooted launches. The caller's
// try/catch wraps the launch site, but the failure escapes asynchronously
// on the failing task's own goroutine, so the catch never fires and the
// outcome is an unhandled error. With useRedirect the work bodies hop
// through a dispatch redirection first; that changes nothing, because
// redirection is not a join boundary.
func (r *Runner) runFlat(ctx context.Context, useRedirect bool) (Outcome, error) {
	escaped := make(chan error, 2)
	s := r.newScope(scope.Detach, scope.WithUnhandled(func(err error) { escaped <- err }))

	slow := r.slowWork(false)
	fail := r.failingWork()
	if useRedirect {
		slow = redirect(slow)
		fail = redirect(fail)
	}

	var a *task.Task[int]
	launchErr := func() error {
		a = task.Go(s, slow)
		task.Go(s, fail)
		return nil // nothing synchronous can fail here
	}()
	if launchErr != nil {
		// Dead branch: reproduces the catch that never fires.
		r.sink(msgCatch + " join")
	}

	select {
	case err := <-escaped:
		r.sink(msgUnhandled)
		// task-a is still running; join it before returning so the run
		// is bounded by the slow duration.
		if _, aerr := a.Await(ctx); aerr != nil && ctx.Err() != nil {
			return Outcome{}, ctx.Err()
		}
		return Outcome{Kind: KindUnhandled, Err: err}, nil
	case <-s.Context().Done():
		// Root cancellation: both tasks wind down without a failure.
		return Outcome{}, s.Context().Err()
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

// Scenario 3: flat launch with a supervisor handler attached to the
// failing launch. The handler observes the failure exactly once; the
// caller's catch never fires and task-a keeps running uninterrupted.
func (r *Runner) runSupervised(ctx context.Context) (Outcome, error) {
	escaped := make(chan error, 2)
	handled := make(chan error, 1)
	s := r.newScope(scope.Detach, scope.WithUnhandled(func(err error) { escaped <- err }))

	a := task.Go(s, r.slowWork(false))
	task.Go(s, r.failingWork(), scope.WithHandler(func(err error) {
		r.sink(msgCatch + " supervisor")
		handled <- err
	}))

	select {
	case err := <-handled:
		if _, aerr := a.Await(ctx); aerr != nil && ctx.Err() != nil {
			return Outcome{}, ctx.Err()
		}
		select {
		case esc := <-escaped:
			return Outcome{}, fmt.Errorf("failure escaped past the handler: %w", esc)
		default:
		}
		return Outcome{Kind: KindCaught, Tag: TagSupervisor, Err: err}, nil
	case err := <-escaped:
		return Outcome{}, fmt.Errorf("failure escaped past the handler: %w", err)
	case <-s.Context().Done():
		return Outcome{}, s.Context().Err()
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

// Scenario 4: children launched inside a fail-fast join scope. The join
// converts task-b's failure into an error the caller's catch does see, and
// task-a is actively cancelled first.
func (r *Runner) runScoped(ctx context.Context) (Outcome, error) {
	s := r.newScope(scope.FailFast)
	a := task.Go(s, r.slowWork(true))
	b := task.Go(s, r.failingWork())

	if err := s.Wait(); err != nil {
		r.sink(msgCatch + " join")
		return Outcome{Kind: KindCaught, Tag: TagScope, Err: err}, nil
	}
	sum, err := task.Sum(ctx, a, b)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Kind: KindSum, Sum: sum}, nil
}

// Scenario 5: flat launch where the failing branch catches its own error
// and substitutes 0. Nothing escapes; task-a is never cancelled and the
// sum counts its natural completion.
func (r *Runner) runLocalRecover(ctx context.Context) (Outcome, error) {
	escaped := make(chan error, 2)
	s := r.newScope(scope.Detach, scope.WithUnhandled(func(err error) { escaped <- err }))

	a := task.Go(s, r.slowWork(false))
	b := task.Go(s, r.recovered(r.failingWork()))

	sum, err := task.Sum(ctx, a, b)
	if err != nil {
		// Dead branch: the local catch already absorbed the failure.
		r.sink(msgCatch + " join")
		return Outcome{}, err
	}
	select {
	case esc := <-escaped:
		return Outcome{}, fmt.Errorf("failure escaped a locally recovered branch: %w", esc)
	default:
	}
	return Outcome{Kind: KindSum, Sum: sum}, nil
}

// Scenario 6: a single task looping without ever polling its context.
// Cancellation is accepted but never observed; the task outlives both the
// watchdog and CancelAll, by design. This documents that the scope's
// cancellation signal is advisory, not preemptive.
func (r *Runner) runRunaway(ctx context.Context) (Outcome, error) {
	s := r.newScope(scope.Detach)
	h := s.Go(func(context.Context) error {
		for {
			r.sink(msgTic)
			time.Sleep(r.tic)
		}
	})
	r.runaway.Store(h)

	select {
	case <-h.Done():
		return Outcome{}, errors.New("runaway task terminated unexpectedly")
	case <-time.After(r.watchdog):
		return Outcome{Kind: KindNever}, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}
