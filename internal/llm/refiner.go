package llm

import (
	"context"
	"fmt"

	"eventscout/internal/model"
)

// maxRefineInput caps the page text sent to a provider, roughly one
// model context worth of characters.
const maxRefineInput = 12000

// Refiner fills gaps in a parsed event from raw page text. A nil Refiner
// (or one with no provider) is a no-op.
type Refiner struct {
	provider Provider
	config   Config
}

// NewRefiner creates a refiner, or (nil, nil) when no provider is configured.
func NewRefiner(config Config) (*Refiner, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, nil
	}
	return &Refiner{provider: provider, config: config}, nil
}

// IsEnabled reports whether refinement will run.
func (r *Refiner) IsEnabled() bool {
	return r != nil && r.provider != nil
}

// Refine asks the provider to fill missing event fields from page text.
// Parser-derived fields are never overwritten.
func (r *Refiner) Refine(ctx context.Context, ev *model.Event, pageText string) error {
	if !r.IsEnabled() {
		return nil
	}
	if len(pageText) > maxRefineInput {
		pageText = pageText[:maxRefineInput]
	}

	resp, err := r.provider.Refine(ctx, RefineRequest{
		Text:      pageText,
		SourceURL: ev.SourceURL,
	})
	if err != nil {
		return fmt.Errorf("refine via %s: %w", r.provider.Name(), err)
	}

	resp.Fields.Apply(ev)
	return nil
}
