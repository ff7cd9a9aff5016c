package prom

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/goleak"

	"github.com/NetPo4ki/go-supervise/scope"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestObserverCountsLifecycle(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	obs := New(reg)

	s := scope.New(context.Background(), scope.FailFast, scope.WithObserver(obs))
	s.Go(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	s.Go(func(_ context.Context) error {
		time.Sleep(10 * time.Millisecond)
		return errors.New("boom")
	})
	if err := s.Wait(); err == nil {
		t.Fatal("expected error from fail-fast scope")
	}

	if got := testutil.ToFloat64(obs.tasksStarted); got != 2 {
		t.Fatalf("tasks started = %v, want 2", got)
	}
	if got := testutil.ToFloat64(obs.tasksFinished.WithLabelValues("failed")); got != 1 {
		t.Fatalf("failed tasks = %v, want 1", got)
	}
	if got := testutil.ToFloat64(obs.tasksFinished.WithLabelValues("cancelled")); got != 1 {
		t.Fatalf("cancelled tasks = %v, want 1", got)
	}
	if got := testutil.ToFloat64(obs.activeTasks); got != 0 {
		t.Fatalf("active tasks = %v, want 0 after join", got)
	}
	if got := testutil.ToFloat64(obs.scopesCreated); got != 1 {
		t.Fatalf("scopes created = %v, want 1", got)
	}
	if got := testutil.ToFloat64(obs.scopesCancelled); got != 1 {
		t.Fatalf("scopes cancelled = %v, want 1", got)
	}
}

func TestObserverPreInitializedLabels(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	obs := New(reg)
	for _, state := range []string{"completed", "failed", "cancelled"} {
		if got := testutil.ToFloat64(obs.tasksFinished.WithLabelValues(state)); got != 0 {
			t.Fatalf("label %q should start at 0, got %v", state, got)
		}
	}
}
