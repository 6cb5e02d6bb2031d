package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeTimer struct {
	requested time.Duration
	fire      chan time.Time
	stopped   int
}

func stubTimer(t *testing.T) *fakeTimer {
	t.Helper()

	orig := newTimer
	t.Cleanup(func() { newTimer = orig })

	ft := &fakeTimer{fire: make(chan time.Time, 1)}
	newTimer = func(d time.Duration) (<-chan time.Time, func() bool) {
		ft.requested = d
		return ft.fire, func() bool {
			ft.stopped++
			return true
		}
	}
	return ft
}

func TestWaitFor(t *testing.T) {
	ft := stubTimer(t)
	ft.fire <- time.Now()

	if err := WaitFor(context.Background(), 3*time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ft.requested != 3*time.Second {
		t.Fatalf("expected 3s timer, got %s", ft.requested)
	}
	if ft.stopped != 1 {
		t.Fatalf("expected timer to be stopped once, got %d", ft.stopped)
	}
}

func TestWaitForCancelled(t *testing.T) {
	ft := stubTimer(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := WaitFor(ctx, time.Minute); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if ft.stopped != 1 {
		t.Fatalf("expected pending timer to be stopped on cancel, got %d stops", ft.stopped)
	}

	if err := WaitFor(ctx, 0); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled for zero wait, got %v", err)
	}
	if ft.stopped != 1 {
		t.Fatalf("expected no timer for zero wait, got %d stops", ft.stopped)
	}
}

func TestWaitForRealTimer(t *testing.T) {
	start := time.Now()
	if err := WaitFor(context.Background(), 10*time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 10*time.Millisecond {
		t.Fatalf("returned after %s", elapsed)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := WaitFor(ctx, time.Hour); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestBackoff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		base    time.Duration
		attempt int
		expect  time.Duration
	}{
		{name: "first retry", base: time.Second, attempt: 0, expect: time.Second},
		{name: "third retry", base: time.Second, attempt: 2, expect: 3 * time.Second},
		{name: "disabled", base: 0, attempt: 4, expect: 0},
		{name: "negative attempt", base: time.Second, attempt: -1, expect: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Backoff(tt.base, tt.attempt); got != tt.expect {
				t.Fatalf("expected %s, got %s", tt.expect, got)
			}
		})
	}
}
