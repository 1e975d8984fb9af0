package extract

import (
	"testing"
	"time"

	"eventscout/internal/model"
)

const lumaStyleHTML = `<!DOCTYPE html>
<html>
<head>
<title>Fallback Title</title>
<script type="application/ld+json">
{
  "@context": "https://schema.org",
  "@type": "SocialEvent",
  "name": "AI Builders Night",
  "description": "An evening of demos and lightning talks.",
  "startDate": "2026-09-12T18:00:00-07:00",
  "endDate": "2026-09-12T21:00:00-07:00",
  "location": {
    "@type": "Place",
    "name": "The Foundry SF",
    "address": {"streetAddress": "123 Mission St", "addressLocality": "San Francisco"}
  },
  "performer": [
    {"@type": "Person", "name": "Jane Doe"},
    {"@type": "Person", "name": "John Smith"}
  ],
  "sponsor": {"@type": "Organization", "name": "Acme Corp"}
}
</script>
</head>
<body><main>Join us for AI Builders Night!</main></body>
</html>`

func TestParsePage_JSONLD(t *testing.T) {
	page, err := ParsePage(lumaStyleHTML, "https://lu.ma/abc123")
	if err != nil {
		t.Fatalf("ParsePage: %v", err)
	}
	ev := page.Event

	if ev.Name != "AI Builders Night" {
		t.Errorf("name = %q", ev.Name)
	}
	if ev.Location != "The Foundry SF" {
		t.Errorf("location = %q", ev.Location)
	}
	if ev.StartTime == nil {
		t.Fatal("start time not parsed")
	}
	want := time.Date(2026, 9, 12, 18, 0, 0, 0, time.FixedZone("", -7*3600))
	if !ev.StartTime.Equal(want) {
		t.Errorf("start time = %v, want %v", ev.StartTime, want)
	}
	if len(ev.Speakers) != 2 || ev.Speakers[0] != "Jane Doe" {
		t.Errorf("speakers = %v", ev.Speakers)
	}
	if len(ev.Sponsors) != 1 || ev.Sponsors[0] != "Acme Corp" {
		t.Errorf("sponsors = %v", ev.Sponsors)
	}
	if page.Text == "" {
		t.Error("expected visible text")
	}
}

func TestParsePage_GraphWrapper(t *testing.T) {
	html := `<html><head><script type="application/ld+json">
	{"@context": "https://schema.org", "@graph": [
		{"@type": "WebPage", "name": "ignore me"},
		{"@type": "Event", "name": "Graph Event", "startDate": "2026-03-01"}
	]}
	</script></head><body></body></html>`

	page, err := ParsePage(html, "https://example.com/e")
	if err != nil {
		t.Fatalf("ParsePage: %v", err)
	}
	if page.Event.Name != "Graph Event" {
		t.Errorf("name = %q, want Graph Event", page.Event.Name)
	}
	if page.Event.StartTime == nil {
		t.Error("date-only startDate not parsed")
	}
}

func TestParsePage_MetaFallback(t *testing.T) {
	html := `<html><head>
	<title>Raw Title | Site</title>
	<meta property="og:title" content="Community Meetup">
	<meta property="og:description" content="Monthly community gathering.">
	</head>
	<body><time datetime="2026-05-01T19:00:00Z">May 1</time><p>details</p></body></html>`

	page, err := ParsePage(html, "https://example.com/meetup")
	if err != nil {
		t.Fatalf("ParsePage: %v", err)
	}
	ev := page.Event
	if ev.Name != "Community Meetup" {
		t.Errorf("name = %q, want og:title value", ev.Name)
	}
	if ev.Description != "Monthly community gathering." {
		t.Errorf("description = %q", ev.Description)
	}
	if ev.StartTime == nil {
		t.Error("time[datetime] not parsed")
	}
}

func TestParsePage_BareHTML(t *testing.T) {
	page, err := ParsePage("<html><head><title>Just a Page</title></head><body>text</body></html>", "https://example.com/x")
	if err != nil {
		t.Fatalf("ParsePage: %v", err)
	}
	if page.Event.Name != "Just a Page" {
		t.Errorf("name = %q, want title fallback", page.Event.Name)
	}
	if page.Event.StartTime != nil {
		t.Error("unexpected start time")
	}
}

func TestCompleteness(t *testing.T) {
	if got := Completeness(&model.Event{}); got != 0 {
		t.Errorf("empty event completeness = %f, want 0", got)
	}

	start := time.Now()
	end := start.Add(2 * time.Hour)
	full := &model.Event{
		Name:        "E",
		Description: "d",
		Location:    "l",
		StartTime:   &start,
		EndTime:     &end,
		Speakers:    []string{"s"},
		Sponsors:    []string{"o"},
	}
	if got := Completeness(full); got < 0.99 || got > 1.0 {
		t.Errorf("full event completeness = %f, want 1.0", got)
	}

	partial := &model.Event{Name: "E", StartTime: &start}
	got := Completeness(partial)
	if got <= 0 || got >= 1 {
		t.Errorf("partial completeness = %f, want in (0,1)", got)
	}
}
