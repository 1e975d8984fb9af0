package extract

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eventscout/internal/budget"
	"eventscout/internal/classify"
	"eventscout/internal/fetch"
	"eventscout/internal/model"
	"eventscout/internal/resolve"
)

// Strategy is one extraction tier.
type Strategy interface {
	// Name identifies the strategy in errors and logs
	Name() string

	// Tier returns 1, 2 or 3
	Tier() int

	// Extract produces an event from a resolved URL. The returned event
	// carries only content fields; the router fills routing metadata.
	Extract(ctx context.Context, resolved *resolve.Resolved, cls classify.Classification) (*model.Event, error)
}

// TierError wraps one tier's failure; the router converts it into a
// fallback attempt rather than letting it escape.
type TierError struct {
	Tier     int
	Strategy string
	Err      error
}

func (e *TierError) Error() string {
	return fmt.Sprintf("tier %d (%s): %v", e.Tier, e.Strategy, e.Err)
}

func (e *TierError) Unwrap() error { return e.Err }

// Router walks the enabled strategies from the classified tier upward.
// Tier N failure falls back to tier N+1; only exhausting the chain yields
// a failed event. Budget charges happen before every attempt.
type Router struct {
	strategies []Strategy // ascending tier order
	timeouts   map[int]time.Duration
}

// NewRouter creates a router over the enabled strategies. strategies must
// be sorted by tier; timeouts maps tier -> per-attempt timeout.
func NewRouter(strategies []Strategy, timeouts map[int]time.Duration) *Router {
	return &Router{strategies: strategies, timeouts: timeouts}
}

// Run routes one URL through the tier chain. tracker may be nil (no
// budget accounting). The returned event always has a terminal status;
// Run never returns an error to keep per-URL failures isolated.
func (r *Router) Run(ctx context.Context, resolved *resolve.Resolved, cls classify.Classification, tracker *budget.Tracker) *model.Event {
	var lastErr error
	attempted := false

	for _, strategy := range r.strategies {
		if strategy.Tier() < cls.Tier {
			continue // below the classified entry tier
		}
		if ctx.Err() != nil {
			lastErr = ctx.Err()
			break
		}

		if tracker != nil {
			if err := tracker.Reserve(strategy.Tier()); err != nil {
				var exceeded *budget.ExceededError
				if errors.As(err, &exceeded) && !attempted {
					return r.finish(resolved, cls, &model.Event{}, 0, model.StatusBudgetExceeded, err)
				}
				// budget ran out mid-fallback: report what we have
				lastErr = err
				break
			}
		}
		attempted = true

		ev, err := r.attempt(ctx, strategy, resolved, cls)
		if err == nil {
			return r.finish(resolved, cls, ev, strategy.Tier(), model.StatusSuccess, nil)
		}
		lastErr = &TierError{Tier: strategy.Tier(), Strategy: strategy.Name(), Err: err}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no enabled strategy for tier %d", cls.Tier)
	}
	return r.finish(resolved, cls, &model.Event{}, 0, model.StatusFailed, lastErr)
}

// attempt runs one strategy under its tier timeout, retrying transient
// failures once before reporting the tier as failed.
func (r *Router) attempt(ctx context.Context, strategy Strategy, resolved *resolve.Resolved, cls classify.Classification) (*model.Event, error) {
	run := func() (*model.Event, error) {
		attemptCtx := ctx
		if timeout := r.timeouts[strategy.Tier()]; timeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		return strategy.Extract(attemptCtx, resolved, cls)
	}

	ev, err := run()
	if err != nil && fetch.IsTransient(err) && ctx.Err() == nil {
		ev, err = run()
	}
	if err != nil {
		return nil, err
	}
	if ev.Name == "" {
		return nil, fmt.Errorf("no event name found")
	}
	return ev, nil
}

// finish stamps routing metadata onto the event.
func (r *Router) finish(resolved *resolve.Resolved, cls classify.Classification, ev *model.Event, tier int, status model.Status, cause error) *model.Event {
	ev.SourceURL = resolved.SourceURL
	ev.CanonicalURL = resolved.CanonicalURL
	ev.Platform = cls.Platform
	ev.SourceTier = tier
	ev.Status = status
	ev.ExtractedAt = time.Now().UTC()
	if status == model.StatusSuccess {
		ev.Completeness = Completeness(ev)
	}
	if cause != nil {
		ev.Error = cause.Error()
	}
	return ev
}
