package model

import "time"

// Config is the full runtime configuration.
// Hierarchy: CLI flags > EVENTSCOUT_* env vars > config file > defaults.
type Config struct {
	HTTP         HTTPConfig         `yaml:"http" json:"http"`
	Cache        CacheConfig        `yaml:"cache" json:"cache"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" json:"concurrency"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" json:"rate_limiting"`
	Budget       BudgetConfig       `yaml:"budget" json:"budget"`
	Tiers        TierConfig         `yaml:"tiers" json:"tiers"`
	Browser      BrowserConfig      `yaml:"browser" json:"browser"`
	LLM          LLMConfig          `yaml:"llm" json:"llm"`
	Store        StoreConfig        `yaml:"store" json:"store"`
	Output       OutputConfig       `yaml:"output" json:"output"`
}

// HTTPConfig controls outbound HTTP behavior for tiers 1/2 and resolution.
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" json:"timeout"`
	UserAgent     string        `yaml:"user_agent" json:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" json:"max_body_bytes"`
	MaxRedirects  int           `yaml:"max_redirects" json:"max_redirects"`
	InsecureTLS   bool          `yaml:"insecure_tls" json:"insecure_tls"`
	HTTPProxy     string        `yaml:"http_proxy" json:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy" json:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy" json:"no_proxy"`
	RespectRobots bool          `yaml:"respect_robots" json:"respect_robots"`
}

// CacheConfig controls the layered HTML fetch cache.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" json:"enabled"`
	Dir       string        `yaml:"dir" json:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" json:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" json:"disk_ttl"`
}

// ConcurrencyConfig bounds the batch worker pool.
type ConcurrencyConfig struct {
	Workers      int           `yaml:"workers" json:"workers"`
	BatchTimeout time.Duration `yaml:"batch_timeout" json:"batch_timeout"`
}

// RateLimitingConfig is the per-domain outbound request limit.
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" json:"burst_size"`
}

// BudgetConfig caps total spend across a batch. Costs are in the same
// currency unit as Limit (dollars in practice).
type BudgetConfig struct {
	Limit     float64 `yaml:"limit" json:"limit"`
	Tier1Cost float64 `yaml:"tier1_cost" json:"tier1_cost"`
	Tier2Cost float64 `yaml:"tier2_cost" json:"tier2_cost"`
	Tier3Cost float64 `yaml:"tier3_cost" json:"tier3_cost"`
}

// TierConfig enables/disables extraction tiers and sets per-tier timeouts.
type TierConfig struct {
	Tier1Enabled bool          `yaml:"tier1_enabled" json:"tier1_enabled"`
	Tier2Enabled bool          `yaml:"tier2_enabled" json:"tier2_enabled"`
	Tier3Enabled bool          `yaml:"tier3_enabled" json:"tier3_enabled"`
	Tier1Timeout time.Duration `yaml:"tier1_timeout" json:"tier1_timeout"`
	Tier2Timeout time.Duration `yaml:"tier2_timeout" json:"tier2_timeout"`
	Tier3Timeout time.Duration `yaml:"tier3_timeout" json:"tier3_timeout"`
}

// BrowserConfig controls the tier-3 headless Chrome renderer.
type BrowserConfig struct {
	ChromePath string        `yaml:"chrome_path" json:"chrome_path"` // empty = auto-detect
	Headless   bool          `yaml:"headless" json:"headless"`
	WaitAfter  time.Duration `yaml:"wait_after" json:"wait_after"` // settle time after load
}

// LLMConfig configures the optional extraction refiner.
type LLMConfig struct {
	Provider  string `yaml:"provider" json:"provider"` // openai, anthropic, ollama, "" = disabled
	Model     string `yaml:"model" json:"model"`
	APIKey    string `yaml:"-" json:"-"` // from env only, never serialized
	BaseURL   string `yaml:"base_url" json:"base_url"`
	Timeout   int    `yaml:"timeout" json:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" json:"max_tokens"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Driver string `yaml:"driver" json:"driver"` // sqlite, memory
	Path   string `yaml:"path" json:"path"`     // sqlite file path
	Save   bool   `yaml:"save" json:"save"`     // persist accepted events
}

// OutputConfig controls reporting.
type OutputConfig struct {
	Verbose bool   `yaml:"verbose" json:"verbose"`
	JSON    string `yaml:"json" json:"json"` // batch summary JSON path ("" = skip)
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "eventscout/0.2 (+https://github.com/eventscout/eventscout)",
			MaxBodyBytes:  2_000_000,
			MaxRedirects:  5,
			RespectRobots: true,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       "", // resolved to ~/.eventscout/cache at startup
			MemoryTTL: 15 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers:      4,
			BatchTimeout: 10 * time.Minute,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2.0,
			BurstSize:         5,
		},
		Budget: BudgetConfig{
			Limit:     5.0,
			Tier1Cost: 0.001,
			Tier2Cost: 0.01,
			Tier3Cost: 0.05,
		},
		Tiers: TierConfig{
			Tier1Enabled: true,
			Tier2Enabled: true,
			Tier3Enabled: true,
			Tier1Timeout: 15 * time.Second,
			Tier2Timeout: 30 * time.Second,
			Tier3Timeout: 90 * time.Second,
		},
		Browser: BrowserConfig{
			Headless:  true,
			WaitAfter: 2 * time.Second,
		},
		LLM: LLMConfig{
			Provider:  "",
			Timeout:   30,
			MaxTokens: 1000,
		},
		Store: StoreConfig{
			Driver: "sqlite",
			Path:   "", // resolved to ~/.eventscout/events.db at startup
			Save:   true,
		},
		Output: OutputConfig{},
	}
}

// Validate rejects configurations the batch cannot run with.
func (c *Config) Validate() error {
	if c.Budget.Limit < 0 {
		return &ConfigError{Field: "budget.limit", Reason: "must be >= 0"}
	}
	if c.Budget.Tier1Cost < 0 || c.Budget.Tier2Cost < 0 || c.Budget.Tier3Cost < 0 {
		return &ConfigError{Field: "budget.tier costs", Reason: "must be >= 0"}
	}
	if c.Concurrency.Workers < 0 {
		return &ConfigError{Field: "concurrency.workers", Reason: "must be >= 0"}
	}
	return nil
}

// ConfigError reports fundamentally invalid configuration. It is the only
// error a batch run itself returns; per-URL failures are carried on events.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return "invalid config: " + e.Field + ": " + e.Reason
}
