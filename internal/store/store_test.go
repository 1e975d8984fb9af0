package store

import (
	"context"
	"testing"
	"time"

	"eventscout/internal/model"
)

func sampleEvent(url string) *model.Event {
	start := time.Date(2026, 9, 12, 18, 0, 0, 0, time.UTC)
	return &model.Event{
		Name:         "Go Meetup September",
		Description:  "Monthly Go meetup",
		Location:     "San Francisco, CA",
		StartTime:    &start,
		Speakers:     []string{"A. Speaker"},
		SourceURL:    url + "?utm_source=x",
		CanonicalURL: url,
		Platform:     "luma",
		Completeness: 0.8,
		SourceTier:   1,
		Status:       model.StatusSuccess,
		ExtractedAt:  time.Now().UTC(),
	}
}

func testStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	ev := sampleEvent("https://lu.ma/abc123")
	if err := s.InsertEvent(ctx, ev); err != nil {
		t.Fatalf("InsertEvent: %v", err)
	}

	got, found, err := s.FindByCanonicalURL(ctx, "https://lu.ma/abc123")
	if err != nil {
		t.Fatalf("FindByCanonicalURL: %v", err)
	}
	if !found {
		t.Fatal("expected stored event to be found")
	}
	if got.Name != ev.Name {
		t.Errorf("name = %q, want %q", got.Name, ev.Name)
	}
	if got.StartTime == nil || !got.StartTime.Equal(*ev.StartTime) {
		t.Errorf("start time = %v, want %v", got.StartTime, ev.StartTime)
	}

	// Duplicate canonical URL must be rejected at the storage layer too.
	if err := s.InsertEvent(ctx, ev); err == nil {
		t.Error("expected error inserting duplicate canonical URL")
	}

	has, err := s.HasFingerprint(ctx, ev.Fingerprint())
	if err != nil {
		t.Fatalf("HasFingerprint: %v", err)
	}
	if !has {
		t.Error("expected fingerprint to be present")
	}

	has, err = s.HasFingerprint(ctx, "Other Event|2026-01-01")
	if err != nil {
		t.Fatalf("HasFingerprint: %v", err)
	}
	if has {
		t.Error("unexpected fingerprint match")
	}

	count, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}

	_, found, err = s.FindByCanonicalURL(ctx, "https://lu.ma/nope")
	if err != nil {
		t.Fatalf("FindByCanonicalURL miss: %v", err)
	}
	if found {
		t.Error("expected miss for unknown URL")
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	testStore(t, s)
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer s.Close()
	testStore(t, s)
}
