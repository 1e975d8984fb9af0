package extract

import (
	"context"
	"fmt"
	"os"

	"eventscout/internal/classify"
	"eventscout/internal/fetch"
	"eventscout/internal/llm"
	"eventscout/internal/model"
	"eventscout/internal/resolve"
)

// Tier2 is the enhanced HTTP path: fetch with retries, the structured
// parse, then optional LLM refinement over the visible page text to fill
// fields the markup lacks.
type Tier2 struct {
	fetcher *fetch.Fetcher
	refiner *llm.Refiner // nil disables refinement
}

// NewTier2 creates the enhanced-HTTP strategy.
func NewTier2(fetcher *fetch.Fetcher, refiner *llm.Refiner) *Tier2 {
	return &Tier2{fetcher: fetcher, refiner: refiner}
}

func (t *Tier2) Name() string { return "enhanced-http" }
func (t *Tier2) Tier() int    { return 2 }

func (t *Tier2) Extract(ctx context.Context, resolved *resolve.Resolved, cls classify.Classification) (*model.Event, error) {
	result, err := t.fetcher.FetchWithRetry(ctx, resolved.CanonicalURL)
	if err != nil {
		return nil, err
	}

	page, err := ParsePage(result.HTML, resolved.SourceURL)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	if t.refiner.IsEnabled() {
		if err := t.refiner.Refine(ctx, page.Event, page.Text); err != nil {
			// refinement is best-effort; the parsed fields still stand
			fmt.Fprintf(os.Stderr, "Warning: LLM refinement failed: %v\n", err)
		}
	}

	return page.Event, nil
}
