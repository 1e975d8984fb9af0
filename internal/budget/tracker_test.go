package budget

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

var testCosts = map[int]float64{1: 0.001, 2: 0.01, 3: 0.05}

func TestReserve_WithinLimit(t *testing.T) {
	tr := NewTracker(1.0, testCosts, 2)

	if err := tr.Reserve(3); err != nil {
		t.Fatalf("Reserve(3): %v", err)
	}
	if got := tr.Spent(); got != 0.05 {
		t.Errorf("spent = %f, want 0.05", got)
	}
	if got := tr.Remaining(); got != 0.95 {
		t.Errorf("remaining = %f, want 0.95", got)
	}
}

func TestReserve_ZeroBudget(t *testing.T) {
	tr := NewTracker(0, testCosts, 2)

	for tier := 1; tier <= 3; tier++ {
		err := tr.Reserve(tier)
		if err == nil {
			t.Fatalf("Reserve(%d): expected budget error, got nil", tier)
		}
		var exceeded *ExceededError
		if !errors.As(err, &exceeded) {
			t.Errorf("Reserve(%d): expected *ExceededError, got %T", tier, err)
		}
	}
	if tr.Spent() != 0 {
		t.Errorf("spent = %f, want 0", tr.Spent())
	}
}

func TestReserve_ExhaustsExactly(t *testing.T) {
	tr := NewTracker(0.02, testCosts, 2)

	if err := tr.Reserve(2); err != nil {
		t.Fatalf("first Reserve(2): %v", err)
	}
	if err := tr.Reserve(2); err != nil {
		t.Fatalf("second Reserve(2): %v", err)
	}
	// Third would overrun.
	if err := tr.Reserve(2); err == nil {
		t.Fatal("third Reserve(2): expected budget error")
	}
	// A cheaper tier that still fits is allowed? 0.02 spent of 0.02, so no.
	if err := tr.Reserve(1); err == nil {
		t.Fatal("Reserve(1) after exhaustion: expected budget error")
	}
}

func TestAcquire_CapsInFlight(t *testing.T) {
	const maxConcurrent = 3
	tr := NewTracker(100, testCosts, maxConcurrent)

	var inFlight, peak int32
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := tr.Acquire(context.Background())
			if err != nil {
				t.Errorf("Acquire: %v", err)
				return
			}
			defer release()

			n := atomic.AddInt32(&inFlight, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&peak); got > maxConcurrent {
		t.Errorf("peak in-flight = %d, want <= %d", got, maxConcurrent)
	}
}

func TestAcquire_CancelledContext(t *testing.T) {
	tr := NewTracker(100, testCosts, 1)

	release, err := tr.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := tr.Acquire(ctx); err == nil {
		t.Fatal("expected context error while pool is full")
	}
}

func TestRelease_Idempotent(t *testing.T) {
	tr := NewTracker(100, testCosts, 1)

	release, err := tr.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	release()
	release() // second call must not free a phantom slot

	release2, err := tr.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire after release: %v", err)
	}
	defer release2()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := tr.Acquire(ctx); err == nil {
		t.Fatal("expected pool to be full again")
	}
}
