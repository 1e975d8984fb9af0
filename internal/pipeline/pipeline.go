package pipeline

import (
	"context"
	"fmt"
	"time"

	"eventscout/internal/browser"
	"eventscout/internal/budget"
	"eventscout/internal/cache"
	"eventscout/internal/classify"
	"eventscout/internal/dedup"
	"eventscout/internal/extract"
	"eventscout/internal/fetch"
	"eventscout/internal/llm"
	"eventscout/internal/model"
	"eventscout/internal/resolve"
	"eventscout/internal/store"
	"eventscout/internal/util"
)

// Pipeline orchestrates the complete extraction of one URL: resolution,
// classification, dedup gating, tiered extraction and persistence. One
// pipeline serves a whole batch; the budget tracker and dedup gate are
// shared across all URLs it processes.
type Pipeline struct {
	resolver *resolve.Resolver
	router   *extract.Router
	gate     *dedup.Gate
	tracker  *budget.Tracker
	store    store.Store
	save     bool
}

// NewPipeline wires a pipeline from the configuration. The store is
// injected so callers control its lifetime; a nil st disables
// persistence but keeps in-batch dedup working on a throwaway store.
func NewPipeline(cfg *model.Config, st store.Store) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	save := cfg.Store.Save && st != nil
	if st == nil {
		st = store.NewMemoryStore()
	}

	resolver := resolve.NewResolver(
		cfg.HTTP.Timeout, cfg.HTTP.UserAgent, cfg.HTTP.MaxRedirects,
		cfg.HTTP.InsecureTLS, cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy,
	)

	fetcher := fetch.NewFetcher(
		cfg.HTTP.Timeout, cfg.HTTP.UserAgent, cfg.HTTP.MaxBodyBytes,
		cfg.HTTP.InsecureTLS, cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy,
	)
	if cfg.RateLimiting.RequestsPerSecond > 0 {
		fetcher = fetcher.WithLimiter(fetch.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize))
	}
	if cfg.HTTP.RespectRobots {
		fetcher = fetcher.WithRobots(util.NewRobotsChecker(cfg.HTTP.UserAgent, cfg.HTTP.Timeout))
	}
	if cfg.Cache.Enabled {
		if cfg.Cache.Dir != "" {
			fetcher = fetcher.WithCache(cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL))
		} else {
			fetcher = fetcher.WithCache(cache.NewMemoryCache(cfg.Cache.MemoryTTL, 5*time.Minute))
		}
	}

	// LLM refinement is optional; a broken provider config downgrades
	// tiers 2/3 to parse-only rather than failing the pipeline.
	var refiner *llm.Refiner
	if cfg.LLM.Provider != "" {
		r, err := llm.NewRefiner(llm.ConfigFromModel(cfg.LLM))
		if err != nil {
			fmt.Printf("Warning: Failed to initialize LLM provider: %v\n", err)
		} else {
			refiner = r
		}
	}

	var strategies []extract.Strategy
	if cfg.Tiers.Tier1Enabled {
		strategies = append(strategies, extract.NewTier1(fetcher))
	}
	if cfg.Tiers.Tier2Enabled {
		strategies = append(strategies, extract.NewTier2(fetcher, refiner))
	}
	if cfg.Tiers.Tier3Enabled {
		renderer := browser.NewRenderer(browser.Options{
			UserAgent:  cfg.HTTP.UserAgent,
			ChromePath: cfg.Browser.ChromePath,
			Headless:   cfg.Browser.Headless,
			WaitAfter:  cfg.Browser.WaitAfter,
		})
		strategies = append(strategies, extract.NewTier3(renderer, refiner))
	}

	router := extract.NewRouter(strategies, map[int]time.Duration{
		1: cfg.Tiers.Tier1Timeout,
		2: cfg.Tiers.Tier2Timeout,
		3: cfg.Tiers.Tier3Timeout,
	})

	tracker := budget.NewTracker(cfg.Budget.Limit, map[int]float64{
		1: cfg.Budget.Tier1Cost,
		2: cfg.Budget.Tier2Cost,
		3: cfg.Budget.Tier3Cost,
	}, cfg.Concurrency.Workers)

	return &Pipeline{
		resolver: resolver,
		router:   router,
		gate:     dedup.NewGate(st),
		tracker:  tracker,
		store:    st,
		save:     save,
	}, nil
}

// ExtractURL processes a single URL end to end. It always returns an
// event with a terminal status; per-URL failures never escape as errors
// so one bad URL cannot take down a batch.
func (p *Pipeline) ExtractURL(ctx context.Context, rawURL string) *model.Event {
	release, err := p.tracker.Acquire(ctx)
	if err != nil {
		return terminal(rawURL, rawURL, "", model.StatusFailed, err)
	}
	defer release()

	resolved, err := p.resolver.Resolve(ctx, rawURL)
	if err != nil {
		return terminal(rawURL, "", "", model.StatusFailed, err)
	}

	cls, err := classify.Classify(resolved.CanonicalURL)
	if err != nil {
		return terminal(rawURL, resolved.CanonicalURL, "", model.StatusFailed, err)
	}

	// Serialize concurrent work on the same canonical URL so exactly one
	// worker extracts and the rest observe the duplicate.
	unlock := p.gate.Lock(resolved.CanonicalURL)
	defer unlock()

	if err := p.gate.CheckURL(ctx, resolved.CanonicalURL); err != nil {
		return terminal(rawURL, resolved.CanonicalURL, cls.Platform, model.StatusDuplicate, err)
	}

	ev := p.router.Run(ctx, resolved, cls, p.tracker)
	if ev.Status != model.StatusSuccess {
		return ev
	}

	if err := p.gate.CheckFingerprint(ctx, resolved.CanonicalURL, ev.Fingerprint()); err != nil {
		ev.Status = model.StatusDuplicate
		ev.Error = err.Error()
		return ev
	}

	p.gate.Accept(resolved.CanonicalURL)

	if p.save {
		if err := p.store.InsertEvent(ctx, ev); err != nil {
			// the extraction stands; surface the persistence problem
			ev.Error = fmt.Sprintf("persist: %v", err)
		}
	}
	return ev
}

// Spent returns the budget consumed so far.
func (p *Pipeline) Spent() float64 { return p.tracker.Spent() }

// Remaining returns the budget left.
func (p *Pipeline) Remaining() float64 { return p.tracker.Remaining() }

func terminal(sourceURL, canonicalURL, platform string, status model.Status, cause error) *model.Event {
	ev := &model.Event{
		SourceURL:    sourceURL,
		CanonicalURL: canonicalURL,
		Platform:     platform,
		Status:       status,
		ExtractedAt:  time.Now().UTC(),
	}
	if cause != nil {
		ev.Error = cause.Error()
	}
	return ev
}
