package worker

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"eventscout/internal/model"
)

// Extractor processes one URL end to end and always yields an event
// with a terminal status.
type Extractor interface {
	ExtractURL(ctx context.Context, url string) *model.Event
}

// BudgetReporter is implemented by extractors that track spend; the
// batch summary picks the figures up when available.
type BudgetReporter interface {
	Spent() float64
	Remaining() float64
}

type extractJob struct {
	url       string
	extractor Extractor
}

func (j *extractJob) Execute(ctx context.Context) Result {
	return &ExtractResult{URL: j.url, Event: j.extractor.ExtractURL(ctx, j.url)}
}

// ExtractResult wraps one finished event for the pool.
type ExtractResult struct {
	URL   string
	Event *model.Event
}

// GetError reports extraction failure; duplicates and budget skips are
// expected outcomes, not errors.
func (r *ExtractResult) GetError() error {
	if r.Event != nil && r.Event.Status == model.StatusFailed {
		return errors.New(r.Event.Error)
	}
	return nil
}

// BatchProcessor fans a URL list out over a bounded worker pool and
// folds the finished events into a BatchSummary.
type BatchProcessor struct {
	extractor Extractor
	workers   int
	timeout   time.Duration // 0 = no batch deadline
}

// NewBatchProcessor creates a batch processor.
func NewBatchProcessor(extractor Extractor, workers int, timeout time.Duration) *BatchProcessor {
	return &BatchProcessor{
		extractor: extractor,
		workers:   workers,
		timeout:   timeout,
	}
}

// ProcessURLs runs the whole list and always returns a summary, even
// when every URL failed or the batch deadline cut processing short.
func (b *BatchProcessor) ProcessURLs(ctx context.Context, urls []string) *model.BatchSummary {
	summary := &model.BatchSummary{
		StartedAt:  time.Now().UTC(),
		Discovered: len(urls),
	}

	if len(urls) > 0 {
		if b.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, b.timeout)
			defer cancel()
		}

		pool := NewPool(ctx, b.workers)
		pool.Start()

		// Submit from a goroutine while this one drains results: the
		// pool buffers hold workers*2 entries, so submitting the whole
		// list up front would stall on any larger batch.
		go func() {
			for _, url := range urls {
				pool.Submit(&extractJob{url: url, extractor: b.extractor})
			}
			pool.Done()
		}()

		for _, result := range pool.Collect() {
			if er, ok := result.(*ExtractResult); ok && er.Event != nil {
				summary.Add(er.Event)
			}
		}
	}

	if reporter, ok := b.extractor.(BudgetReporter); ok {
		summary.TotalCost = reporter.Spent()
		summary.BudgetRemaining = reporter.Remaining()
	}

	summary.FinishedAt = time.Now().UTC()
	summary.Duration = summary.FinishedAt.Sub(summary.StartedAt)
	return summary
}

// ProcessFile reads seed URLs from a file and processes them.
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) (*model.BatchSummary, error) {
	urls, err := ReadURLsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read URLs: %w", err)
	}
	return b.ProcessURLs(ctx, urls), nil
}

// ReadURLsFromFile reads seed URLs, one per line. Blank lines and
// #-comments are skipped; exact duplicate lines collapse to one.
func ReadURLsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var urls []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			urls = append(urls, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}
	return urls, nil
}
