package extract

import (
	"context"
	"fmt"

	"eventscout/internal/classify"
	"eventscout/internal/fetch"
	"eventscout/internal/model"
	"eventscout/internal/resolve"
)

// minTier1Completeness is the bar a structured parse must clear for the
// fast path to count as a hit; thinner results fall through to tier 2.
const minTier1Completeness = 0.5

// Tier1 is the fast path: one HTTP fetch plus structured-markup parsing.
// It only succeeds on pages with real JSON-LD/meta event data.
type Tier1 struct {
	fetcher *fetch.Fetcher
}

// NewTier1 creates the direct-parse strategy.
func NewTier1(fetcher *fetch.Fetcher) *Tier1 {
	return &Tier1{fetcher: fetcher}
}

func (t *Tier1) Name() string { return "direct-parse" }
func (t *Tier1) Tier() int    { return 1 }

func (t *Tier1) Extract(ctx context.Context, resolved *resolve.Resolved, cls classify.Classification) (*model.Event, error) {
	result, err := t.fetcher.Fetch(ctx, resolved.CanonicalURL)
	if err != nil {
		return nil, err
	}

	page, err := ParsePage(result.HTML, resolved.SourceURL)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	if score := Completeness(page.Event); score < minTier1Completeness {
		return nil, fmt.Errorf("structured markup too thin (completeness %.2f)", score)
	}

	return page.Event, nil
}
