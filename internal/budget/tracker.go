package budget

import (
	"context"
	"fmt"
	"sync"
)

// ExceededError reports an attempt skipped because it would overrun the
// batch budget. It is a per-task outcome, not a batch failure.
type ExceededError struct {
	Tier  int
	Cost  float64
	Spent float64
	Limit float64
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("budget exceeded: tier %d costs %.4f, spent %.4f of %.4f", e.Tier, e.Cost, e.Spent, e.Limit)
}

// Tracker caps total spend and in-flight task count for one batch.
// All state is per-tracker; batches never share spend.
type Tracker struct {
	mu    sync.Mutex
	limit float64
	spent float64
	costs map[int]float64 // tier -> cost per attempt

	slots chan struct{} // in-flight slot gate, FIFO under contention
}

// NewTracker creates a tracker with the given budget limit, per-tier cost
// table, and in-flight cap.
func NewTracker(limit float64, costs map[int]float64, maxConcurrent int) *Tracker {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	copied := make(map[int]float64, len(costs))
	for tier, cost := range costs {
		copied[tier] = cost
	}
	return &Tracker{
		limit: limit,
		costs: copied,
		slots: make(chan struct{}, maxConcurrent),
	}
}

// Acquire blocks until an in-flight slot is free (or ctx is done).
// The returned release func must be called exactly once.
func (t *Tracker) Acquire(ctx context.Context) (release func(), err error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case t.slots <- struct{}{}:
	}

	var once sync.Once
	return func() {
		once.Do(func() { <-t.slots })
	}, nil
}

// Reserve charges the cost of one attempt at the given tier. When the
// charge would overrun the limit nothing is spent and *ExceededError is
// returned; the caller reports the task as budget_exceeded.
func (t *Tracker) Reserve(tier int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	cost := t.costs[tier]
	if t.spent+cost > t.limit {
		return &ExceededError{Tier: tier, Cost: cost, Spent: t.spent, Limit: t.limit}
	}
	t.spent += cost
	return nil
}

// Cost returns the configured cost of one attempt at tier.
func (t *Tracker) Cost(tier int) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.costs[tier]
}

// Spent returns the running total.
func (t *Tracker) Spent() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.spent
}

// Remaining returns the unspent budget.
func (t *Tracker) Remaining() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	remaining := t.limit - t.spent
	if remaining < 0 {
		return 0
	}
	return remaining
}
