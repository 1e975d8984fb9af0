package extract

import (
	"context"
	"fmt"
	"os"

	"eventscout/internal/browser"
	"eventscout/internal/classify"
	"eventscout/internal/llm"
	"eventscout/internal/model"
	"eventscout/internal/resolve"
)

// Renderer is the browser backend for tier 3.
type Renderer interface {
	Render(ctx context.Context, url string) (*browser.RenderResult, error)
}

// Tier3 renders the page in headless Chrome, then runs the same parse and
// refinement path as tier 2 on the rendered DOM. Links discovered during
// rendering are attached to the event for future seeding.
type Tier3 struct {
	renderer Renderer
	refiner  *llm.Refiner // nil disables refinement
}

// NewTier3 creates the browser-automation strategy.
func NewTier3(renderer Renderer, refiner *llm.Refiner) *Tier3 {
	return &Tier3{renderer: renderer, refiner: refiner}
}

func (t *Tier3) Name() string { return "browser" }
func (t *Tier3) Tier() int    { return 3 }

func (t *Tier3) Extract(ctx context.Context, resolved *resolve.Resolved, cls classify.Classification) (*model.Event, error) {
	rendered, err := t.renderer.Render(ctx, resolved.CanonicalURL)
	if err != nil {
		return nil, err
	}

	page, err := ParsePage(rendered.HTML, resolved.SourceURL)
	if err != nil {
		return nil, fmt.Errorf("parse rendered page: %w", err)
	}

	if t.refiner.IsEnabled() {
		if err := t.refiner.Refine(ctx, page.Event, page.Text); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: LLM refinement failed: %v\n", err)
		}
	}

	page.Event.DiscoveredLinks = rendered.Links
	return page.Event, nil
}
