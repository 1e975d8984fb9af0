package dedup

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"eventscout/internal/model"
	"eventscout/internal/store"
)

func TestCheckURL_FreshURL(t *testing.T) {
	g := NewGate(store.NewMemoryStore())
	if err := g.CheckURL(context.Background(), "https://lu.ma/abc123"); err != nil {
		t.Fatalf("CheckURL on empty store: %v", err)
	}
}

func TestCheckURL_RejectsAccepted(t *testing.T) {
	g := NewGate(store.NewMemoryStore())
	g.Accept("https://lu.ma/abc123")

	err := g.CheckURL(context.Background(), "https://lu.ma/abc123")
	var dup *DuplicateError
	if !errors.As(err, &dup) {
		t.Fatalf("expected *DuplicateError, got %v", err)
	}
	if dup.Reason != "url" {
		t.Errorf("reason = %q, want url", dup.Reason)
	}
}

func TestCheckURL_RejectsStored(t *testing.T) {
	st := store.NewMemoryStore()
	ev := &model.Event{
		Name:         "Stored Event",
		CanonicalURL: "https://lu.ma/stored",
		SourceURL:    "https://lu.ma/stored",
		Status:       model.StatusSuccess,
		ExtractedAt:  time.Now(),
	}
	if err := st.InsertEvent(context.Background(), ev); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	g := NewGate(st)
	var dup *DuplicateError
	if err := g.CheckURL(context.Background(), "https://lu.ma/stored"); !errors.As(err, &dup) {
		t.Fatalf("expected duplicate for stored URL, got %v", err)
	}

	// second check hits the seen-set instead of the store, same outcome
	if err := g.CheckURL(context.Background(), "https://lu.ma/stored"); !errors.As(err, &dup) {
		t.Fatalf("expected duplicate on repeat check, got %v", err)
	}
}

func TestCheckFingerprint(t *testing.T) {
	st := store.NewMemoryStore()
	start := time.Date(2026, 9, 12, 18, 0, 0, 0, time.UTC)
	ev := &model.Event{
		Name:         "GopherCon Party",
		StartTime:    &start,
		CanonicalURL: "https://lu.ma/party",
		SourceURL:    "https://lu.ma/party",
		Status:       model.StatusSuccess,
		ExtractedAt:  time.Now(),
	}
	if err := st.InsertEvent(context.Background(), ev); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	g := NewGate(st)
	ctx := context.Background()

	// Same event under a different URL: fingerprint catches it.
	err := g.CheckFingerprint(ctx, "https://example.com/mirror", ev.Fingerprint())
	var dup *DuplicateError
	if !errors.As(err, &dup) {
		t.Fatalf("expected fingerprint duplicate, got %v", err)
	}
	if dup.Reason != "fingerprint" {
		t.Errorf("reason = %q, want fingerprint", dup.Reason)
	}

	if err := g.CheckFingerprint(ctx, "https://example.com/x", ""); err != nil {
		t.Errorf("empty fingerprint should pass, got %v", err)
	}
	if err := g.CheckFingerprint(ctx, "https://example.com/x", "Other|2026-01-01"); err != nil {
		t.Errorf("unknown fingerprint should pass, got %v", err)
	}
}

// Two workers racing on the same canonical URL: exactly one accept.
func TestGate_SerializesPerURL(t *testing.T) {
	g := NewGate(store.NewMemoryStore())
	const url = "https://lu.ma/raced"

	var accepted int32
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := g.Lock(url)
			defer unlock()

			if err := g.CheckURL(context.Background(), url); err != nil {
				return // duplicate
			}
			// simulate the extract+insert window
			time.Sleep(time.Millisecond)
			g.Accept(url)
			atomic.AddInt32(&accepted, 1)
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&accepted); got != 1 {
		t.Errorf("accepted = %d, want exactly 1", got)
	}
}

func TestSeenSet_TTLAndEviction(t *testing.T) {
	s := newSeenSet(2, 50*time.Millisecond)

	s.Mark("a")
	s.Mark("b")
	if !s.Seen("a") || !s.Seen("b") {
		t.Fatal("expected both keys present")
	}

	s.Mark("c") // capacity 2: evicts least-recently-used
	present := 0
	for _, k := range []string{"a", "b", "c"} {
		if s.Seen(k) {
			present++
		}
	}
	if present != 2 {
		t.Errorf("expected 2 keys after eviction, got %d", present)
	}

	time.Sleep(60 * time.Millisecond)
	if s.Seen("c") {
		t.Error("expected TTL expiry")
	}
}
