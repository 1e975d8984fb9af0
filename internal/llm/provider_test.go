package llm

import (
	"testing"
	"time"

	"eventscout/internal/model"
)

func TestParseFields_PlainJSON(t *testing.T) {
	resp := `{"name": "Go Meetup", "description": "Monthly meetup.", "location": "Berlin",
		"start_time": "2026-09-12T18:00:00Z", "end_time": "", "speakers": ["A"], "sponsors": []}`

	fields, err := ParseFields(resp)
	if err != nil {
		t.Fatalf("ParseFields: %v", err)
	}
	if fields.Name != "Go Meetup" {
		t.Errorf("name = %q", fields.Name)
	}
	if fields.StartTime != "2026-09-12T18:00:00Z" {
		t.Errorf("start_time = %q", fields.StartTime)
	}
}

func TestParseFields_CodeFenceAndProse(t *testing.T) {
	resp := "Here is the extraction:\n```json\n{\"name\": \"DevCon\", \"speakers\": []}\n```\nDone."
	fields, err := ParseFields(resp)
	if err != nil {
		t.Fatalf("ParseFields: %v", err)
	}
	if fields.Name != "DevCon" {
		t.Errorf("name = %q, want DevCon", fields.Name)
	}
}

func TestParseFields_NoJSON(t *testing.T) {
	if _, err := ParseFields("I could not find an event."); err == nil {
		t.Fatal("expected error for response without JSON")
	}
}

func TestApply_FillsGapsOnly(t *testing.T) {
	start := time.Date(2026, 9, 12, 18, 0, 0, 0, time.UTC)
	ev := &model.Event{
		Name:      "Parsed Name",
		StartTime: &start,
	}

	fields := RefinedFields{
		Name:      "Model Name",
		Location:  "Berlin",
		StartTime: "2027-01-01T00:00:00Z",
		EndTime:   "2026-09-12T20:00:00Z",
		Speakers:  []string{" A. Speaker ", ""},
	}
	fields.Apply(ev)

	if ev.Name != "Parsed Name" {
		t.Errorf("parser name overwritten: %q", ev.Name)
	}
	if !ev.StartTime.Equal(start) {
		t.Errorf("parser start time overwritten: %v", ev.StartTime)
	}
	if ev.Location != "Berlin" {
		t.Errorf("location not filled: %q", ev.Location)
	}
	if ev.EndTime == nil || ev.EndTime.Hour() != 20 {
		t.Errorf("end time not filled: %v", ev.EndTime)
	}
	if len(ev.Speakers) != 1 || ev.Speakers[0] != "A. Speaker" {
		t.Errorf("speakers = %v", ev.Speakers)
	}
}

func TestNewProvider_Unknown(t *testing.T) {
	if _, err := NewProvider(Config{Provider: "bard"}); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestNewProvider_Disabled(t *testing.T) {
	p, err := NewProvider(Config{Provider: ""})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != nil {
		t.Fatal("expected nil provider when disabled")
	}
}
