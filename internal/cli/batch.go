package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"eventscout/internal/pipeline"
	"eventscout/internal/worker"
)

var (
	concurrency  int
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Extract events from a file of URLs in parallel",
	Long: `Batch processes seed URLs concurrently:
- Read URLs from the input file (one per line, # comments allowed)
- Process URLs in parallel with a bounded worker pool
- Share one dedup gate and budget across the whole batch
- Print a summary and optionally write it as JSON

Example:
  eventscout batch urls.txt
  eventscout batch urls.txt --workers 8 --budget 2.50
  eventscout batch urls.txt --json summary.json --timeout 5m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "workers", 4, "number of concurrent workers")
	batchCmd.Flags().DurationVar(&batchTimeout, "batch-timeout", 10*time.Minute, "total timeout for the batch (0 = none)")
	batchCmd.Flags().StringVar(&outJSON, "json", "", "write the batch summary to a JSON file")
	addExtractionFlags(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("workers") {
		cfg.Concurrency.Workers = concurrency
	}
	cfg.Concurrency.BatchTimeout = batchTimeout

	fmt.Fprintf(os.Stderr, "Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "Budget:       $%.2f\n", cfg.Budget.Limit)
	fmt.Fprintf(os.Stderr, "Timeout:      %v\n", cfg.Concurrency.BatchTimeout)
	if cfg.LLM.Provider != "" {
		fmt.Fprintf(os.Stderr, "LLM:          %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
	}
	fmt.Fprintln(os.Stderr)

	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = st.Close() }()

	p, err := pipeline.NewPipeline(cfg, st)
	if err != nil {
		return err
	}

	processor := worker.NewBatchProcessor(p, cfg.Concurrency.Workers, cfg.Concurrency.BatchTimeout)

	summary, err := processor.ProcessFile(context.Background(), file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	reporter := pipeline.NewReporter(verbose)
	reporter.PrintSummary(summary)

	if outJSON != "" {
		if err := reporter.WriteJSON(summary, outJSON); err != nil {
			return err
		}
	}
	return nil
}
