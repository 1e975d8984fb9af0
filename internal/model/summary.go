package model

import "time"

// BatchSummary is the end-of-batch report. A batch always produces one,
// even when every seed URL failed.
type BatchSummary struct {
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Duration   time.Duration `json:"duration"`

	Discovered    int `json:"discovered"` // seed URLs submitted
	Succeeded     int `json:"succeeded"`
	Failed        int `json:"failed"`
	Duplicates    int `json:"duplicates"`
	BudgetSkipped int `json:"budget_skipped"`

	TotalCost       float64 `json:"total_cost"`
	BudgetRemaining float64 `json:"budget_remaining"`

	ByPlatform map[string]int `json:"by_platform,omitempty"`
	ByTier     map[int]int    `json:"by_tier,omitempty"` // successful extractions per tier

	Events []*Event `json:"events"`
}

// Add folds one finished event into the summary counters.
func (s *BatchSummary) Add(ev *Event) {
	s.Events = append(s.Events, ev)
	switch ev.Status {
	case StatusSuccess:
		s.Succeeded++
		if s.ByTier == nil {
			s.ByTier = make(map[int]int)
		}
		s.ByTier[ev.SourceTier]++
	case StatusDuplicate:
		s.Duplicates++
	case StatusBudgetExceeded:
		s.BudgetSkipped++
	default:
		s.Failed++
	}
	if ev.Platform != "" {
		if s.ByPlatform == nil {
			s.ByPlatform = make(map[string]int)
		}
		s.ByPlatform[ev.Platform]++
	}
}
