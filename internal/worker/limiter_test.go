package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_AllowsBurst(t *testing.T) {
	lim := NewLimiter(1, 3)

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := lim.Wait(context.Background(), "https://example.com/page"); err != nil {
			t.Fatal(err)
		}
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("burst of 3 took %v, should be immediate", elapsed)
	}
}

func TestLimiter_ThrottlesBeyondBurst(t *testing.T) {
	lim := NewLimiter(10, 1)

	// First request is free, the second waits ~100ms.
	if err := lim.Wait(context.Background(), "https://example.com/"); err != nil {
		t.Fatal(err)
	}
	start := time.Now()
	if err := lim.Wait(context.Background(), "https://example.com/"); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("second request waited only %v", elapsed)
	}
}

func TestLimiter_HostsAreIndependent(t *testing.T) {
	lim := NewLimiter(0.001, 1)

	if err := lim.Wait(context.Background(), "https://a.example.com/"); err != nil {
		t.Fatal(err)
	}
	// A different host has its own budget and must not inherit a's debt.
	start := time.Now()
	if err := lim.Wait(context.Background(), "https://b.example.com/"); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("second host waited %v", elapsed)
	}
}

func TestLimiter_ContextCancel(t *testing.T) {
	lim := NewLimiter(0.001, 1)
	if err := lim.Wait(context.Background(), "https://example.com/"); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := lim.Wait(ctx, "https://example.com/"); err == nil {
		t.Fatal("expected a context error while over budget")
	}
}

func TestLimiter_BadURL(t *testing.T) {
	lim := NewLimiter(1, 1)
	if err := lim.Wait(context.Background(), "://not a url"); err == nil {
		t.Fatal("expected a parse error")
	}
}
