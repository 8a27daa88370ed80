package model

import "time"

// Config holds the complete runtime configuration. Defaults come from
// DefaultConfig; the CLI layers config file, SETTLEWATCH_* environment
// variables, and flags on top. Credentials are environment-only and never
// written to a config file.
type Config struct {
	Source      SourceConfig      `yaml:"source" mapstructure:"source"`
	HTTP        HTTPConfig        `yaml:"http" mapstructure:"http"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Storage     StorageConfig     `yaml:"storage" mapstructure:"storage"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
}

// SourceConfig describes the listings site being scraped.
type SourceConfig struct {
	ListingsURL       string  `yaml:"listings_url" mapstructure:"listings_url"`
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url"` // origin used to absolutize relative image paths
	Pages             int     `yaml:"pages" mapstructure:"pages"`       // listing pages to fetch (?page=N)
	RespectRobots     bool    `yaml:"respect_robots" mapstructure:"respect_robots"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
}

// HTTPConfig configures the fetcher.
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	MaxRetries   int           `yaml:"max_retries" mapstructure:"max_retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff" mapstructure:"retry_backoff"`
	InsecureTLS  bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`
	HTTPProxy    string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// CacheConfig configures the HTML snapshot cache.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"` // empty means memory-only
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// StorageConfig configures the Postgres upserter. DSN is read from the
// environment (SETTLEWATCH_PG_DSN), never from the config file.
type StorageConfig struct {
	DSN            string        `yaml:"-" mapstructure:"-"`
	Schema         string        `yaml:"schema" mapstructure:"schema"`
	Table          string        `yaml:"table" mapstructure:"table"`
	ConflictColumn string        `yaml:"conflict_column" mapstructure:"conflict_column"`
	BatchSize      int           `yaml:"batch_size" mapstructure:"batch_size"`
	MaxConns       int           `yaml:"max_conns" mapstructure:"max_conns"`
	Timeout        time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// ErrorRateAbort aborts the run when more than this fraction of a batch
	// fails to persist, to avoid silently completing with a corrupt dataset.
	ErrorRateAbort float64 `yaml:"error_rate_abort" mapstructure:"error_rate_abort"`
}

// ConcurrencyConfig bounds parallelism within a run.
type ConcurrencyConfig struct {
	PageWorkers int `yaml:"page_workers" mapstructure:"page_workers"`
}

// LLMConfig configures the optional category classifier. Disabled unless a
// provider is set; a failing classifier never affects a record.
type LLMConfig struct {
	Provider       string `yaml:"provider" mapstructure:"provider"` // "openai" or ""
	Model          string `yaml:"model" mapstructure:"model"`
	APIKey         string `yaml:"-" mapstructure:"-"`
	BaseURL        string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
}

// OutputConfig controls operator-facing output.
type OutputConfig struct {
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			ListingsURL:       "https://www.classaction.org/settlements",
			BaseURL:           "https://www.classaction.org",
			Pages:             1,
			RespectRobots:     true,
			RequestsPerSecond: 1,
			Burst:             2,
		},
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "settlewatch/0.1 (+https://github.com/settlewatch/settlewatch)",
			MaxBodyBytes: 4_000_000,
			MaxRetries:   3,
			RetryBackoff: 2 * time.Second,
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: 15 * time.Minute,
			DiskTTL:   6 * time.Hour,
		},
		Storage: StorageConfig{
			Schema:         "public",
			Table:          "settlements",
			ConflictColumn: "source_id",
			BatchSize:      100,
			MaxConns:       2,
			Timeout:        30 * time.Second,
			ErrorRateAbort: 0.5,
		},
		Concurrency: ConcurrencyConfig{
			PageWorkers: 2,
		},
		LLM: LLMConfig{
			Provider:       "",
			TimeoutSeconds: 20,
		},
	}
}
