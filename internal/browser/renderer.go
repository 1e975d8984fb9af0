// Package browser drives headless Chrome for pages that only render
// client-side. It is the tier-3 extraction backend.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// RenderResult is the rendered page plus links discovered in it.
type RenderResult struct {
	HTML       string
	FinalURL   string
	Links      []string // absolute hrefs found in the rendered DOM
	RenderTime time.Duration
}

// Options configures the renderer.
type Options struct {
	UserAgent  string
	ChromePath string // empty = auto-detect
	Headless   bool
	WaitAfter  time.Duration // settle time after load for late JS
}

// DefaultOptions returns renderer defaults.
func DefaultOptions() Options {
	return Options{
		UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		Headless:  true,
		WaitAfter: 2 * time.Second,
	}
}

// Renderer renders pages in headless Chrome.
type Renderer struct {
	opts Options
}

// NewRenderer creates a renderer with the given options.
func NewRenderer(opts Options) *Renderer {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultOptions().UserAgent
	}
	return &Renderer{opts: opts}
}

// collectLinksJS gathers absolute anchor hrefs from the rendered DOM.
const collectLinksJS = `Array.from(document.querySelectorAll('a[href]'))
	.map(a => a.href)
	.filter(h => h.startsWith('http'))
	.slice(0, 200)`

// Render navigates to targetURL, waits for the page to settle, and returns
// the rendered HTML with discovered links. The caller's ctx bounds the
// whole render, including browser startup.
func (r *Renderer) Render(ctx context.Context, targetURL string) (*RenderResult, error) {
	start := time.Now()

	allocOpts := []chromedp.ExecAllocatorOption{
		chromedp.NoDefaultBrowserCheck,
		chromedp.NoFirstRun,
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(r.opts.UserAgent),
		chromedp.WindowSize(1920, 1080),
	}
	if r.opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", "new"))
	}
	if r.opts.ChromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(r.opts.ChromePath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	var html, finalURL string
	var links []string

	err := chromedp.Run(browserCtx,
		network.SetExtraHTTPHeaders(network.Headers(map[string]interface{}{
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.9",
		})),
		chromedp.Navigate(targetURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(r.opts.WaitAfter),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		chromedp.Location(&finalURL),
		chromedp.Evaluate(collectLinksJS, &links),
	)
	if err != nil {
		return nil, fmt.Errorf("browser render: %w", err)
	}

	return &RenderResult{
		HTML:       html,
		FinalURL:   finalURL,
		Links:      links,
		RenderTime: time.Since(start),
	}, nil
}
