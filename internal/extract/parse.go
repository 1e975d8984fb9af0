package extract

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"eventscout/internal/model"
)

// dateLayouts covers the timestamp formats event platforms emit in
// JSON-LD. Tried in order.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParsedPage is the structured output of one HTML parse.
type ParsedPage struct {
	Event *model.Event // fields filled from markup; zero-valued when absent
	Text  string       // visible page text, for LLM refinement
}

// ParsePage extracts event fields from HTML. JSON-LD Event markup wins;
// OpenGraph/meta tags fill what's left; the visible text is kept for
// downstream refinement.
func ParsePage(html, sourceURL string) (*ParsedPage, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	ev := &model.Event{SourceURL: sourceURL}

	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(i int, s *goquery.Selection) bool {
		if applyJSONLD(ev, s.Text()) {
			return false // first Event block wins
		}
		return true
	})

	applyMetaTags(ev, doc)

	return &ParsedPage{
		Event: ev,
		Text:  visibleText(doc),
	}, nil
}

// jsonldEvent mirrors the schema.org Event fields we consume. Location,
// performer and sponsor come in several shapes, so they stay raw.
type jsonldEvent struct {
	Type        json.RawMessage `json:"@type"`
	Graph       []jsonldEvent   `json:"@graph"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	StartDate   string          `json:"startDate"`
	EndDate     string          `json:"endDate"`
	Location    json.RawMessage `json:"location"`
	Performer   json.RawMessage `json:"performer"`
	Sponsor     json.RawMessage `json:"sponsor"`
	Organizer   json.RawMessage `json:"organizer"`
}

// applyJSONLD fills ev from a JSON-LD block. Returns true when the block
// held an Event.
func applyJSONLD(ev *model.Event, raw string) bool {
	raw = strings.TrimSpace(raw)

	var nodes []jsonldEvent
	if strings.HasPrefix(raw, "[") {
		if err := json.Unmarshal([]byte(raw), &nodes); err != nil {
			return false
		}
	} else {
		var single jsonldEvent
		if err := json.Unmarshal([]byte(raw), &single); err != nil {
			return false
		}
		nodes = append(nodes, single)
		nodes = append(nodes, single.Graph...)
	}

	for _, node := range nodes {
		if !isEventType(node.Type) {
			continue
		}
		fillFromJSONLD(ev, node)
		return true
	}
	return false
}

func isEventType(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var single string
	if json.Unmarshal(raw, &single) == nil {
		return strings.Contains(single, "Event")
	}
	var many []string
	if json.Unmarshal(raw, &many) == nil {
		for _, t := range many {
			if strings.Contains(t, "Event") {
				return true
			}
		}
	}
	return false
}

func fillFromJSONLD(ev *model.Event, node jsonldEvent) {
	ev.Name = strings.TrimSpace(node.Name)
	ev.Description = strings.TrimSpace(node.Description)
	ev.StartTime = parseDate(node.StartDate)
	ev.EndTime = parseDate(node.EndDate)
	ev.Location = parsePlace(node.Location)
	ev.Speakers = parseNames(node.Performer)
	ev.Sponsors = parseNames(node.Sponsor)
	if len(ev.Sponsors) == 0 {
		ev.Sponsors = parseNames(node.Organizer)
	}
}

// parsePlace handles location as a string, a Place object, or a list.
func parsePlace(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if json.Unmarshal(raw, &s) == nil {
		return strings.TrimSpace(s)
	}

	var place struct {
		Name    string          `json:"name"`
		Address json.RawMessage `json:"address"`
	}
	if json.Unmarshal(raw, &place) == nil {
		if place.Name != "" {
			return strings.TrimSpace(place.Name)
		}
		var addr string
		if json.Unmarshal(place.Address, &addr) == nil {
			return strings.TrimSpace(addr)
		}
		var postal struct {
			StreetAddress   string `json:"streetAddress"`
			AddressLocality string `json:"addressLocality"`
		}
		if json.Unmarshal(place.Address, &postal) == nil {
			parts := []string{}
			if postal.StreetAddress != "" {
				parts = append(parts, postal.StreetAddress)
			}
			if postal.AddressLocality != "" {
				parts = append(parts, postal.AddressLocality)
			}
			return strings.Join(parts, ", ")
		}
	}

	var places []json.RawMessage
	if json.Unmarshal(raw, &places) == nil && len(places) > 0 {
		return parsePlace(places[0])
	}

	return ""
}

// parseNames handles performer/sponsor as an object, a string, or a list.
func parseNames(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var s string
	if json.Unmarshal(raw, &s) == nil {
		if s = strings.TrimSpace(s); s != "" {
			return []string{s}
		}
		return nil
	}

	var obj struct {
		Name string `json:"name"`
	}
	if json.Unmarshal(raw, &obj) == nil && obj.Name != "" {
		return []string{strings.TrimSpace(obj.Name)}
	}

	var list []json.RawMessage
	if json.Unmarshal(raw, &list) == nil {
		var names []string
		for _, item := range list {
			names = append(names, parseNames(item)...)
		}
		return names
	}

	return nil
}

func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// applyMetaTags fills gaps from OpenGraph and standard meta tags.
func applyMetaTags(ev *model.Event, doc *goquery.Document) {
	if ev.Name == "" {
		if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
			ev.Name = strings.TrimSpace(og)
		}
	}
	if ev.Name == "" {
		ev.Name = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if ev.Description == "" {
		if og, ok := doc.Find(`meta[property="og:description"]`).Attr("content"); ok {
			ev.Description = strings.TrimSpace(og)
		}
	}
	if ev.Description == "" {
		if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
			ev.Description = strings.TrimSpace(desc)
		}
	}
	if ev.StartTime == nil {
		if dt, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok {
			ev.StartTime = parseDate(dt)
		}
	}
}

// visibleText flattens the page body to text for LLM refinement,
// dropping script/style content.
func visibleText(doc *goquery.Document) string {
	body := doc.Find("body").Clone()
	body.Find("script, style, noscript").Remove()

	text := body.Text()
	fields := strings.Fields(text)
	return strings.Join(fields, " ")
}

// fieldWeights drive the completeness score. Name and start time carry
// the most signal for downstream consumers.
var fieldWeights = []struct {
	weight float64
	filled func(*model.Event) bool
}{
	{0.30, func(e *model.Event) bool { return e.Name != "" }},
	{0.20, func(e *model.Event) bool { return e.StartTime != nil }},
	{0.15, func(e *model.Event) bool { return e.Location != "" }},
	{0.15, func(e *model.Event) bool { return e.Description != "" }},
	{0.10, func(e *model.Event) bool { return e.EndTime != nil }},
	{0.05, func(e *model.Event) bool { return len(e.Speakers) > 0 }},
	{0.05, func(e *model.Event) bool { return len(e.Sponsors) > 0 }},
}

// Completeness scores how much of the event record is populated, 0.0-1.0.
func Completeness(ev *model.Event) float64 {
	score := 0.0
	for _, f := range fieldWeights {
		if f.filled(ev) {
			score += f.weight
		}
	}
	return score
}
