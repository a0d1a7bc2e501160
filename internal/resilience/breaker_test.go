package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errBackend = errors.New("backend down")

func failing(context.Context) error { return errBackend }
func succeeding(context.Context) error { return nil }

func TestBreaker_OpensAfterMaxFailures(t *testing.T) {
	b := NewBreaker(3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := b.Execute(ctx, failing); !errors.Is(err, errBackend) {
			t.Fatalf("attempt %d: err = %v, want backend error", i, err)
		}
	}
	if err := b.Execute(ctx, failing); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("err = %v, want ErrCircuitOpen", err)
	}
}

func TestBreaker_SuccessResetsFailures(t *testing.T) {
	b := NewBreaker(3, time.Minute)
	ctx := context.Background()

	_ = b.Execute(ctx, failing)
	_ = b.Execute(ctx, failing)
	if err := b.Execute(ctx, succeeding); err != nil {
		t.Fatalf("err = %v, want nil", err)
	}
	// Two more failures should not open the circuit after the reset.
	_ = b.Execute(ctx, failing)
	_ = b.Execute(ctx, failing)
	if err := b.Execute(ctx, succeeding); errors.Is(err, ErrCircuitOpen) {
		t.Fatal("circuit opened despite reset")
	}
}

func TestBreaker_HalfOpenAfterCooldown(t *testing.T) {
	b := NewBreaker(1, time.Minute)
	now := time.Now()
	b.now = func() time.Time { return now }
	ctx := context.Background()

	_ = b.Execute(ctx, failing)
	if err := b.Execute(ctx, succeeding); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("err = %v, want ErrCircuitOpen", err)
	}

	now = now.Add(2 * time.Minute)
	if err := b.Execute(ctx, succeeding); err != nil {
		t.Fatalf("half-open probe failed: %v", err)
	}
	// A success in half-open closes the circuit again.
	if err := b.Execute(ctx, succeeding); err != nil {
		t.Fatalf("err = %v, want nil", err)
	}
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	b := NewBreaker(1, time.Minute)
	now := time.Now()
	b.now = func() time.Time { return now }
	ctx := context.Background()

	_ = b.Execute(ctx, failing)
	now = now.Add(2 * time.Minute)
	_ = b.Execute(ctx, failing) // half-open probe fails
	if err := b.Execute(ctx, succeeding); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("err = %v, want ErrCircuitOpen after failed probe", err)
	}
}

func TestBreaker_ContextErrorNotCounted(t *testing.T) {
	b := NewBreaker(1, time.Minute)
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	if err := b.Execute(cancelled, succeeding); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if err := b.Execute(context.Background(), succeeding); err != nil {
		t.Fatalf("circuit affected by context error: %v", err)
	}
}

func TestRetry_EventualSuccess(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), 3, time.Millisecond, func(context.Context) error {
		attempts++
		if attempts < 3 {
			return Transient(errBackend)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("err = %v, want nil", err)
	}
	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
}

func TestRetry_NonTransientAbortsImmediately(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), 5, time.Millisecond, func(context.Context) error {
		attempts++
		return errBackend
	})
	if !errors.Is(err, errBackend) {
		t.Fatalf("err = %v, want backend error", err)
	}
	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1", attempts)
	}
}
