package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"eventscout/internal/model"
)

// Reporter renders batch summaries and single events to stdout and JSON.
type Reporter struct {
	verbose bool
}

// NewReporter creates a reporter.
func NewReporter(verbose bool) *Reporter {
	return &Reporter{verbose: verbose}
}

// WriteJSON writes the batch summary to a file as indented JSON.
func (r *Reporter) WriteJSON(summary *model.BatchSummary, path string) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	if r.verbose {
		fmt.Printf("✓ Wrote JSON: %s\n", path)
	}
	return nil
}

// PrintSummary prints the human-readable batch summary to stdout.
func (r *Reporter) PrintSummary(summary *model.BatchSummary) {
	fmt.Println()
	fmt.Println("Batch Summary")
	fmt.Println("=============")
	fmt.Printf("URLs discovered:  %d\n", summary.Discovered)
	fmt.Printf("Succeeded:        %d\n", summary.Succeeded)
	fmt.Printf("Failed:           %d\n", summary.Failed)
	fmt.Printf("Duplicates:       %d\n", summary.Duplicates)
	fmt.Printf("Budget skipped:   %d\n", summary.BudgetSkipped)
	fmt.Printf("Cost:             $%.4f (remaining $%.4f)\n", summary.TotalCost, summary.BudgetRemaining)
	fmt.Printf("Duration:         %s\n", summary.Duration.Round(10*time.Millisecond))

	if len(summary.ByTier) > 0 {
		fmt.Println("\nBy tier:")
		tiers := make([]int, 0, len(summary.ByTier))
		for tier := range summary.ByTier {
			tiers = append(tiers, tier)
		}
		sort.Ints(tiers)
		for _, tier := range tiers {
			fmt.Printf("  tier %d: %d\n", tier, summary.ByTier[tier])
		}
	}
	if len(summary.ByPlatform) > 0 {
		fmt.Println("\nBy platform:")
		platforms := make([]string, 0, len(summary.ByPlatform))
		for platform := range summary.ByPlatform {
			platforms = append(platforms, platform)
		}
		sort.Strings(platforms)
		for _, platform := range platforms {
			fmt.Printf("  %s: %d\n", platform, summary.ByPlatform[platform])
		}
	}

	if r.verbose {
		for _, ev := range summary.Events {
			if ev.Status != model.StatusSuccess && ev.Error != "" {
				fmt.Printf("  %s %s: %s\n", ev.Status, ev.SourceURL, ev.Error)
			}
		}
	}
}

// PrintEvent prints a single extracted event to stdout.
func (r *Reporter) PrintEvent(ev *model.Event) {
	fmt.Printf("Status:       %s\n", ev.Status)
	fmt.Printf("URL:          %s\n", ev.CanonicalURL)
	if ev.Status != model.StatusSuccess {
		if ev.Error != "" {
			fmt.Printf("Reason:       %s\n", ev.Error)
		}
		return
	}
	fmt.Printf("Name:         %s\n", ev.Name)
	if ev.StartTime != nil {
		fmt.Printf("Starts:       %s\n", ev.StartTime.Format(time.RFC3339))
	}
	if ev.EndTime != nil {
		fmt.Printf("Ends:         %s\n", ev.EndTime.Format(time.RFC3339))
	}
	if ev.Location != "" {
		fmt.Printf("Location:     %s\n", ev.Location)
	}
	if len(ev.Speakers) > 0 {
		fmt.Printf("Speakers:     %v\n", ev.Speakers)
	}
	if len(ev.Sponsors) > 0 {
		fmt.Printf("Sponsors:     %v\n", ev.Sponsors)
	}
	fmt.Printf("Platform:     %s (tier %d)\n", ev.Platform, ev.SourceTier)
	fmt.Printf("Completeness: %.2f\n", ev.Completeness)
	if r.verbose && ev.Description != "" {
		fmt.Printf("\n%s\n", ev.Description)
	}
}

// WriteEventJSON writes one event to a file as indented JSON.
func (r *Reporter) WriteEventJSON(ev *model.Event, path string) error {
	data, err := json.MarshalIndent(ev, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	if r.verbose {
		fmt.Printf("✓ Wrote JSON: %s\n", path)
	}
	return nil
}
