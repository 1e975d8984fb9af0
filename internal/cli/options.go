package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"eventscout/internal/model"
	"eventscout/internal/store"
)

// Flags shared by extract and batch.
var (
	outJSON     string
	timeout     time.Duration
	userAgent   string
	maxBytes    int64
	noCache     bool
	noRobots    bool
	insecureTLS bool
	httpProxy   string
	httpsProxy  string
	noBrowser   bool
	noSave      bool
	storeDriver string
	storePath   string
	budgetLimit float64
	llmEnabled  bool
	llmProvider string
	llmModel    string
)

func addExtractionFlags(cmd *cobra.Command) {
	// HTTP flags
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "per-request HTTP timeout")
	cmd.Flags().StringVar(&userAgent, "ua", model.DefaultConfig().HTTP.UserAgent, "HTTP User-Agent")
	cmd.Flags().Int64Var(&maxBytes, "max-bytes", 2_000_000, "max response bytes to read")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh fetch)")
	cmd.Flags().BoolVar(&noRobots, "no-robots", false, "skip robots.txt checks")
	cmd.Flags().BoolVar(&insecureTLS, "insecure", false, "skip TLS certificate verification (use for self-signed certs)")
	cmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	cmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")

	// Tier and budget flags
	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "disable tier-3 headless browser extraction")
	cmd.Flags().Float64Var(&budgetLimit, "budget", model.DefaultConfig().Budget.Limit, "extraction budget for this run (dollars)")

	// Store flags
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not persist accepted events")
	cmd.Flags().StringVar(&storeDriver, "store", "", "store driver (sqlite, memory)")
	cmd.Flags().StringVar(&storePath, "store-path", "", "sqlite database path (default: ~/.eventscout/events.db)")

	// LLM flags
	cmd.Flags().BoolVar(&llmEnabled, "llm", false, "enable LLM refinement in tiers 2 and 3")
	cmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, anthropic, ollama)")
	cmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name (empty = provider default)")
}

// buildConfig assembles the run configuration: defaults, then config
// file / EVENTSCOUT_* env values via viper, then explicit flags on top.
func buildConfig(cmd *cobra.Command) (*model.Config, error) {
	cfg := model.DefaultConfig()

	if viper.IsSet("budget.limit") {
		cfg.Budget.Limit = viper.GetFloat64("budget.limit")
	}
	if viper.IsSet("concurrency.workers") {
		cfg.Concurrency.Workers = viper.GetInt("concurrency.workers")
	}
	if viper.IsSet("rate_limiting.requests_per_second") {
		cfg.RateLimiting.RequestsPerSecond = viper.GetFloat64("rate_limiting.requests_per_second")
	}
	if viper.IsSet("llm.provider") {
		cfg.LLM.Provider = viper.GetString("llm.provider")
	}
	if viper.IsSet("llm.model") {
		cfg.LLM.Model = viper.GetString("llm.model")
	}
	if viper.IsSet("store.driver") {
		cfg.Store.Driver = viper.GetString("store.driver")
	}
	if viper.IsSet("store.path") {
		cfg.Store.Path = viper.GetString("store.path")
	}
	if viper.IsSet("browser.chrome_path") {
		cfg.Browser.ChromePath = viper.GetString("browser.chrome_path")
	}

	cfg.HTTP.Timeout = timeout
	cfg.HTTP.UserAgent = userAgent
	cfg.HTTP.MaxBodyBytes = maxBytes
	cfg.HTTP.InsecureTLS = insecureTLS
	cfg.HTTP.HTTPProxy = httpProxy
	cfg.HTTP.HTTPSProxy = httpsProxy
	cfg.HTTP.RespectRobots = !noRobots
	cfg.Cache.Enabled = !noCache
	cfg.Output.Verbose = verbose

	if cmd.Flags().Changed("budget") {
		cfg.Budget.Limit = budgetLimit
	}
	if noBrowser {
		cfg.Tiers.Tier3Enabled = false
	}
	if noSave {
		cfg.Store.Save = false
	}
	if storeDriver != "" {
		cfg.Store.Driver = storeDriver
	}
	if storePath != "" {
		cfg.Store.Path = storePath
	}

	if llmEnabled {
		cfg.LLM.Provider = llmProvider
		cfg.LLM.Model = llmModel

		// API keys come from the environment, never from config files
		switch llmProvider {
		case "openai":
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
			if cfg.LLM.APIKey == "" {
				return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
			}
		case "anthropic", "claude":
			cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
			if cfg.LLM.APIKey == "" {
				return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
			}
		case "ollama":
			// Ollama doesn't need an API key
			if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
				cfg.LLM.BaseURL = baseURL
			}
		}
	} else if !viper.IsSet("llm.provider") {
		cfg.LLM.Provider = ""
	}

	if home, err := os.UserHomeDir(); err == nil {
		base := filepath.Join(home, ".eventscout")
		if cfg.Cache.Enabled && cfg.Cache.Dir == "" {
			cfg.Cache.Dir = filepath.Join(base, "cache")
		}
		if cfg.Store.Path == "" {
			cfg.Store.Path = filepath.Join(base, "events.db")
		}
	}

	return cfg, cfg.Validate()
}

// openStore opens the configured persistence backend.
func openStore(cfg *model.Config) (store.Store, error) {
	switch cfg.Store.Driver {
	case "memory":
		return store.NewMemoryStore(), nil
	case "sqlite", "":
		if cfg.Store.Path == "" {
			return store.NewMemoryStore(), nil
		}
		if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
		return store.NewSQLiteStore(cfg.Store.Path)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
