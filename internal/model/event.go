package model

import "time"

// Status is the terminal outcome of an extraction attempt.
type Status string

const (
	StatusSuccess        Status = "success"
	StatusFailed         Status = "failed"
	StatusDuplicate      Status = "rejected_duplicate"
	StatusBudgetExceeded Status = "budget_exceeded"
)

// Event is a single extracted event record.
type Event struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`

	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`

	Speakers []string `json:"speakers,omitempty"`
	Sponsors []string `json:"sponsors,omitempty"`

	SourceURL    string `json:"source_url"`    // URL as discovered
	CanonicalURL string `json:"canonical_url"` // URL after resolution + canonicalization
	Platform     string `json:"platform,omitempty"`

	Completeness float64 `json:"completeness"` // 0.0-1.0, fraction of populated fields (weighted)
	SourceTier   int     `json:"source_tier"`  // tier that produced this record (1/2/3)
	Status       Status  `json:"status"`
	Error        string  `json:"error,omitempty"` // populated when Status == failed

	DiscoveredLinks []string  `json:"discovered_links,omitempty"` // links seen during tier-3 rendering
	ExtractedAt     time.Time `json:"extracted_at"`
}

// Fingerprint returns the name+date key used as a secondary dedup check.
// Empty when the event lacks either component.
func (e *Event) Fingerprint() string {
	if e.Name == "" || e.StartTime == nil {
		return ""
	}
	return e.Name + "|" + e.StartTime.UTC().Format("2006-01-02")
}
