package clock

import (
	"context"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestSleepCompletes(t *testing.T) {
	t.Parallel()
	c := System()
	start := time.Now()
	if err := c.Sleep(context.Background(), 20*time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Fatalf("sleep returned too early: %v", elapsed)
	}
}

func TestSleepAbortsOnCancel(t *testing.T) {
	t.Parallel()
	c := System()
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	start := time.Now()
	err := c.Sleep(ctx, 5*time.Second)
	if err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("sleep did not abort promptly: %v", elapsed)
	}
}

func TestSleepZeroDuration(t *testing.T) {
	t.Parallel()
	c := System()
	if err := c.Sleep(context.Background(), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.Sleep(ctx, 0); err != context.Canceled {
		t.Fatalf("expected context.Canceled on cancelled ctx, got %v", err)
	}
}

func TestNowAdvances(t *testing.T) {
	t.Parallel()
	c := System()
	a := c.Now()
	time.Sleep(5 * time.Millisecond)
	if b := c.Now(); !b.After(a) {
		t.Fatalf("Now did not advance: %v then %v", a, b)
	}
}
