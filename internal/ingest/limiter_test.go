package ingest

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLimiterAcquireRelease(t *testing.T) {
	l := NewLimiter(2, 50*time.Millisecond)
	ctx := context.Background()

	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("first Acquire: %v", err)
	}
	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("second Acquire: %v", err)
	}
	if got := l.Active(); got != 2 {
		t.Errorf("Active() = %d, want 2", got)
	}
	if got := l.Available(); got != 0 {
		t.Errorf("Available() = %d, want 0", got)
	}

	if err := l.Acquire(ctx); !errors.Is(err, ErrTooManyIngests) {
		t.Errorf("Acquire on a full limiter = %v, want ErrTooManyIngests", err)
	}

	l.Release()
	if got := l.Available(); got != 1 {
		t.Errorf("Available() after Release = %d, want 1", got)
	}
	l.Release()
}

func TestLimiterWaitsForSlot(t *testing.T) {
	l := NewLimiter(1, time.Second)
	ctx := context.Background()

	if err := l.Acquire(ctx); err != nil {
		t.Fatal(err)
	}
	go func() {
		time.Sleep(20 * time.Millisecond)
		l.Release()
	}()

	if err := l.Acquire(ctx); err != nil {
		t.Errorf("Acquire after release = %v, want nil", err)
	}
	l.Release()
}

func TestLimiterHonoursCancellation(t *testing.T) {
	l := NewLimiter(1, time.Second)
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer l.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Acquire(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Acquire with cancelled context = %v, want context.Canceled", err)
	}
}

func TestLimiterDefaults(t *testing.T) {
	l := NewLimiter(0, 0)
	if got := l.Available(); got != DefaultMaxConcurrent {
		t.Errorf("Available() = %d, want %d", got, DefaultMaxConcurrent)
	}
}

func TestWaitForDrain(t *testing.T) {
	l := NewLimiter(1, time.Second)
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := l.WaitForDrain(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("WaitForDrain with an active ingest = %v, want deadline exceeded", err)
	}

	l.Release()
	if err := l.WaitForDrain(context.Background()); err != nil {
		t.Errorf("WaitForDrain when idle = %v, want nil", err)
	}
}
