package scope

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestTaskStateStringsAndTerminal(t *testing.T) {
	t.Parallel()
	cases := []struct {
		state    TaskState
		name     string
		terminal bool
	}{
		{StatePending, "pending", false},
		{StateRunning, "running", false},
		{StateCompleted, "completed", true},
		{StateFailed, "failed", true},
		{StateCancelled, "cancelled", true},
	}
	for _, c := range cases {
		if c.state.String() != c.name {
			t.Errorf("String() = %q, want %q", c.state.String(), c.name)
		}
		if c.state.Terminal() != c.terminal {
			t.Errorf("%s.Terminal() = %v, want %v", c.name, c.state.Terminal(), c.terminal)
		}
	}
}

func TestAllowedTransitions(t *testing.T) {
	t.Parallel()
	allow := [][2]TaskState{
		{StatePending, StateRunning},
		{StatePending, StateCancelled},
		{StateRunning, StateCompleted},
		{StateRunning, StateFailed},
		{StateRunning, StateCancelled},
	}
	deny := [][2]TaskState{
		{StatePending, StateCompleted},
		{StatePending, StateFailed},
		{StateCompleted, StateRunning},
		{StateFailed, StateCompleted},
		{StateCancelled, StateRunning},
		{StateCompleted, StateFailed},
	}
	for _, tr := range allow {
		if !allowedTransition(tr[0], tr[1]) {
			t.Errorf("%s -> %s should be allowed", tr[0], tr[1])
		}
	}
	for _, tr := range deny {
		if allowedTransition(tr[0], tr[1]) {
			t.Errorf("%s -> %s should be rejected", tr[0], tr[1])
		}
	}
}

func TestFinishIsTerminalOnce(t *testing.T) {
	t.Parallel()
	h := newHandle(1)
	h.transition(StatePending, StateRunning)
	first := errors.New("first")
	if !h.finish(StateFailed, first) {
		t.Fatal("first finish should succeed")
	}
	if h.finish(StateCompleted, nil) {
		t.Fatal("second finish must be rejected")
	}
	if h.State() != StateFailed {
		t.Fatalf("terminal state mutated: %s", h.State())
	}
	if !errors.Is(h.Err(), first) {
		t.Fatalf("stored error mutated: %v", h.Err())
	}
	if h.finish(StateRunning, nil) {
		t.Fatal("finish must reject non-terminal targets")
	}
}

func TestHandleWaitAndErr(t *testing.T) {
	t.Parallel()
	h := newHandle(1)
	if h.Err() != nil {
		t.Fatalf("Err before terminal should be nil, got %v", h.Err())
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := h.Wait(ctx); err != context.DeadlineExceeded {
		t.Fatalf("Wait on pending handle should time out with caller's error, got %v", err)
	}

	h.transition(StatePending, StateRunning)
	boom := errors.New("boom")
	h.finish(StateFailed, boom)
	if err := h.Wait(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("Wait should return stored error, got %v", err)
	}
	select {
	case <-h.Done():
	default:
		t.Fatal("Done should be closed after finish")
	}
}

func TestHandleIdentity(t *testing.T) {
	t.Parallel()
	a := newHandle(1)
	b := newHandle(2)
	if a.ID() == b.ID() {
		t.Fatal("handles should get distinct ids")
	}
	if a.Seq() != 1 || b.Seq() != 2 {
		t.Fatalf("unexpected sequences: %d, %d", a.Seq(), b.Seq())
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()
	if got := classify(nil); got != StateCompleted {
		t.Fatalf("nil -> %s, want completed", got)
	}
	if got := classify(context.Canceled); got != StateCancelled {
		t.Fatalf("context.Canceled -> %s, want cancelled", got)
	}
	if got := classify(fmt.Errorf("wait aborted: %w", context.Canceled)); got != StateCancelled {
		t.Fatalf("wrapped cancel -> %s, want cancelled", got)
	}
	if got := classify(context.DeadlineExceeded); got != StateCancelled {
		t.Fatalf("deadline -> %s, want cancelled", got)
	}
	if got := classify(errors.New("boom")); got != StateFailed {
		t.Fatalf("failure -> %s, want failed", got)
	}
}
