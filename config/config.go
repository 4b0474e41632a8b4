package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the deep research runner
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Browser   BrowserConfig   `mapstructure:"browser"`
	Search    SearchConfig    `mapstructure:"search"`
	MCP       MCPConfig       `mapstructure:"mcp"`
	Agents    AgentsConfig    `mapstructure:"agents"`
	Runtime   RuntimeConfig   `mapstructure:"runtime"`
	Server    ServerConfig    `mapstructure:"server"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug           bool   `mapstructure:"debug"`
	LogLevel        string `mapstructure:"log_level"`
	DownloadsFolder string `mapstructure:"downloads_folder"`
	LogBufferLines  int    `mapstructure:"log_buffer_lines"`
}

// LLMConfig contains the completion API settings
type LLMConfig struct {
	BaseURL             string        `mapstructure:"base_url"`
	APIKey              string        `mapstructure:"api_key"`
	DefaultModel        string        `mapstructure:"default_model"`
	MaxCompletionTokens int           `mapstructure:"max_completion_tokens"`
	Temperature         float64       `mapstructure:"temperature"`
	ReasoningEffort     string        `mapstructure:"reasoning_effort"`
	Timeout             time.Duration `mapstructure:"timeout"`
	MaxRetries          int           `mapstructure:"max_retries"`
}

func (l LLMConfig) Validate() error {
	if strings.TrimSpace(l.DefaultModel) == "" {
		return fmt.Errorf("llm.default_model is required")
	}
	if l.MaxCompletionTokens <= 0 {
		return fmt.Errorf("llm.max_completion_tokens must be > 0")
	}
	return nil
}

// BrowserConfig controls the text browser tool
type BrowserConfig struct {
	ViewportSize   int           `mapstructure:"viewport_size"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	UserAgent      string        `mapstructure:"user_agent"`
	UseChromedp    bool          `mapstructure:"use_chromedp"`
}

func (b BrowserConfig) Validate() error {
	if b.ViewportSize <= 0 {
		return fmt.Errorf("browser.viewport_size must be > 0")
	}
	if b.MaxRetries < 0 {
		return fmt.Errorf("browser.max_retries cannot be negative")
	}
	return nil
}

// SearchConfig selects the web search provider
type SearchConfig struct {
	Provider        string `mapstructure:"provider"` // serper, brave, searxng
	SerperAPIKey    string `mapstructure:"serper_api_key"`
	BraveAPIKey     string `mapstructure:"brave_api_key"`
	SearxNGURL      string `mapstructure:"searxng_url"`
	SearxNGUsername string `mapstructure:"searxng_username"`
	SearxNGPassword string `mapstructure:"searxng_password"`
	MaxResults      int    `mapstructure:"max_results"`
}

func (s SearchConfig) Validate() error {
	switch s.Provider {
	case "serper", "brave", "searxng":
	default:
		return fmt.Errorf("search.provider must be one of serper, brave, searxng")
	}
	if s.Provider == "searxng" && strings.TrimSpace(s.SearxNGURL) == "" {
		return fmt.Errorf("search.searxng_url is required for the searxng provider")
	}
	return nil
}

// MCPConfig points at an external stdio tool server; empty command disables it
type MCPConfig struct {
	Command     string        `mapstructure:"command"`
	Args        []string      `mapstructure:"args"`
	Env         []string      `mapstructure:"env"`
	ToolTimeout time.Duration `mapstructure:"tool_timeout"`
}

// AgentsConfig contains step budgets for both agent loops
type AgentsConfig struct {
	SearchMaxSteps   int `mapstructure:"search_max_steps"`
	ManagerMaxSteps  int `mapstructure:"manager_max_steps"`
	PlanningInterval int `mapstructure:"planning_interval"`
	TextLimit        int `mapstructure:"text_limit"`
}

func (a AgentsConfig) Validate() error {
	if a.SearchMaxSteps <= 0 || a.ManagerMaxSteps <= 0 {
		return fmt.Errorf("agents step budgets must be > 0")
	}
	if a.PlanningInterval <= 0 {
		return fmt.Errorf("agents.planning_interval must be > 0")
	}
	return nil
}

// RuntimeConfig controls the invocation pool and page cache
type RuntimeConfig struct {
	PoolSize     int           `mapstructure:"pool_size"`
	CacheEnabled bool          `mapstructure:"cache_enabled"`
	RedisAddr    string        `mapstructure:"redis_addr"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
}

func (r RuntimeConfig) Validate() error {
	if r.PoolSize <= 0 {
		return fmt.Errorf("runtime.pool_size must be > 0")
	}
	return nil
}

// ServerConfig contains HTTP server settings for the web UI
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// TelemetryConfig toggles the prometheus endpoint
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Normalize fills credentials from plain environment variables when the
// config file leaves them empty. Plain env vars always win for secrets so
// the UI key update path works without touching the config file.
func (c *Config) Normalize() {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("SERPER_API_KEY"); v != "" {
		c.Search.SerperAPIKey = v
	}
	if v := os.Getenv("BRAVE_API_KEY"); v != "" {
		c.Search.BraveAPIKey = v
	}
	if v := os.Getenv("SEARXNG_URL"); v != "" {
		c.Search.SearxNGURL = v
	}
	if v := os.Getenv("SEARXNG_USERNAME"); v != "" {
		c.Search.SearxNGUsername = v
	}
	if v := os.Getenv("SEARXNG_PASSWORD"); v != "" {
		c.Search.SearxNGPassword = v
	}
}

// Load reads config from file (JSON) plus DEEPRESEARCH_* env vars.
// A missing config file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")

	v.SetDefault("general.debug", false)
	v.SetDefault("general.log_level", "info")
	v.SetDefault("general.downloads_folder", "downloads_folder")
	v.SetDefault("general.log_buffer_lines", 2000)

	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.default_model", "o1")
	v.SetDefault("llm.max_completion_tokens", 4096)
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.reasoning_effort", "high")
	v.SetDefault("llm.timeout", "120s")
	v.SetDefault("llm.max_retries", 2)

	v.SetDefault("browser.viewport_size", 5120)
	v.SetDefault("browser.request_timeout", "150s")
	v.SetDefault("browser.max_retries", 2)
	v.SetDefault("browser.user_agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36 Edg/119.0.0.0")
	v.SetDefault("browser.use_chromedp", false)

	v.SetDefault("search.provider", "serper")
	v.SetDefault("search.max_results", 10)

	v.SetDefault("mcp.tool_timeout", "60s")

	v.SetDefault("agents.search_max_steps", 10)
	v.SetDefault("agents.manager_max_steps", 12)
	v.SetDefault("agents.planning_interval", 4)
	v.SetDefault("agents.text_limit", 100000)

	v.SetDefault("runtime.pool_size", 4)
	v.SetDefault("runtime.cache_enabled", false)
	v.SetDefault("runtime.cache_ttl", "1h")

	v.SetDefault("server.address", ":8080")

	v.SetDefault("telemetry.enabled", true)

	if path == "" {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("DEEPRESEARCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	cfg.Normalize()

	if err := cfg.LLM.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Browser.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Search.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Agents.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Runtime.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
