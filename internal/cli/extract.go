package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"eventscout/internal/model"
	"eventscout/internal/pipeline"
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract <url>",
	Short: "Extract event data from a single URL",
	Long: `Extract resolves one URL, classifies the hosting platform and routes
it through the extraction tiers until one yields a usable event:

- Follow redirects and strip tracking parameters
- Skip URLs whose canonical form was already extracted
- Parse structured markup (JSON-LD, Open Graph, meta tags)
- Fall back to LLM refinement and headless-browser rendering as needed

Example:
  eventscout extract https://lu.ma/abc123
  eventscout extract https://example.com/party --json event.json
  eventscout extract https://meetup.com/g/events/1 --llm --llm-provider openai`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringVar(&outJSON, "json", "", "write the extracted event to a JSON file")
	addExtractionFlags(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	url := args[0]

	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Extracting: %s\n", url)
		fmt.Fprintf(os.Stderr, "Timeout: %v\n", cfg.HTTP.Timeout)
		fmt.Fprintf(os.Stderr, "Cache: %v\n", cfg.Cache.Enabled)
		fmt.Fprintln(os.Stderr)
	}

	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = st.Close() }()

	p, err := pipeline.NewPipeline(cfg, st)
	if err != nil {
		return err
	}

	ev := p.ExtractURL(context.Background(), url)

	reporter := pipeline.NewReporter(verbose)
	reporter.PrintEvent(ev)

	if outJSON != "" {
		if err := reporter.WriteEventJSON(ev, outJSON); err != nil {
			return err
		}
	}

	if ev.Status == model.StatusFailed {
		return fmt.Errorf("extraction failed: %s", ev.Error)
	}
	return nil
}
