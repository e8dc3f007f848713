package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger       LoggerConfig       `mapstructure:"logger" yaml:"logger"`
	Browser      BrowserConfig      `mapstructure:"browser" yaml:"browser"`
	Agent        AgentConfig        `mapstructure:"agent" yaml:"agent"`
	Verification VerificationConfig `mapstructure:"verification" yaml:"verification"`
	Server       ServerConfig       `mapstructure:"server" yaml:"server"`
	Store        StoreConfig        `mapstructure:"store" yaml:"store"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// BrowserConfig holds settings for the driven browser instance.
type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless" yaml:"headless"`
	IgnoreTLSErrors   bool          `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	Args              []string      `mapstructure:"args" yaml:"args"`
	UserAgent         string        `mapstructure:"user_agent" yaml:"user_agent"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	DashboardURL      string        `mapstructure:"dashboard_url" yaml:"dashboard_url"`
}

// AgentConfig holds settings for the browser-driving agent and its LLM.
type AgentConfig struct {
	LLM            LLMConfig     `mapstructure:"llm" yaml:"llm"`
	MaxSteps       int           `mapstructure:"max_steps" yaml:"max_steps"`
	CommandTimeout time.Duration `mapstructure:"command_timeout" yaml:"command_timeout"`
}

// LLMConfig defines the configuration for the language model client.
type LLMConfig struct {
	Model             string        `mapstructure:"model" yaml:"model"`
	APIKey            string        `mapstructure:"api_key" yaml:"-"`
	Endpoint          string        `mapstructure:"endpoint" yaml:"endpoint"`
	APITimeout        time.Duration `mapstructure:"api_timeout" yaml:"api_timeout"`
	Temperature       float64       `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens         int           `mapstructure:"max_tokens" yaml:"max_tokens"`
	RequestsPerMinute float64       `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
}

// VerificationConfig tunes the manual-verification gate.
type VerificationConfig struct {
	WaitBudget   time.Duration `mapstructure:"wait_budget" yaml:"wait_budget"`
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
}

// ServerConfig holds settings for the chat API server.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr" yaml:"addr"`
	TokenSecret  string        `mapstructure:"token_secret" yaml:"-"`
	TokenTTL     time.Duration `mapstructure:"token_ttl" yaml:"token_ttl"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
}

// StoreConfig holds the optional transcript store connection details.
// The store is disabled when URL is empty.
type StoreConfig struct {
	URL string `mapstructure:"url" yaml:"-"`
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "hireflow")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Browser --
	// Verification challenges must be solvable by a human, so the browser
	// window is visible by default.
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.navigation_timeout", "90s")
	v.SetDefault("browser.dashboard_url", "https://employers.indeed.com/")
	v.SetDefault("browser.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36")

	// -- Agent --
	v.SetDefault("agent.llm.model", "gemini-2.5-flash")
	v.SetDefault("agent.llm.api_timeout", "60s")
	v.SetDefault("agent.llm.temperature", 0.2)
	v.SetDefault("agent.llm.max_tokens", 4096)
	v.SetDefault("agent.llm.requests_per_minute", 30)
	v.SetDefault("agent.max_steps", 25)
	v.SetDefault("agent.command_timeout", "5m")

	// -- Verification --
	v.SetDefault("verification.wait_budget", "30s")
	v.SetDefault("verification.poll_interval", "2s")

	// -- Server --
	v.SetDefault("server.addr", ":8765")
	v.SetDefault("server.token_ttl", "24h")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
}

// NewFromViper creates a validated configuration instance from a viper object.
func NewFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Bind environment variables for sensitive data.
	v.BindEnv("agent.llm.api_key", "GEMINI_API_KEY")
	v.BindEnv("server.token_secret", "HIREFLOW_TOKEN_SECRET")
	v.BindEnv("store.url", "HIREFLOW_STORE_URL")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Viper occasionally misses bound env vars on nested keys during Unmarshal.
	if cfg.Agent.LLM.APIKey == "" {
		cfg.Agent.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// NewDefaultConfig creates a configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Agent.MaxSteps <= 0 {
		return fmt.Errorf("agent.max_steps must be a positive integer")
	}
	if c.Agent.CommandTimeout <= 0 {
		return fmt.Errorf("agent.command_timeout must be a positive duration")
	}
	if c.Verification.WaitBudget <= 0 {
		return fmt.Errorf("verification.wait_budget must be a positive duration")
	}
	if c.Verification.PollInterval <= 0 {
		return fmt.Errorf("verification.poll_interval must be a positive duration")
	}
	if c.Verification.PollInterval > c.Verification.WaitBudget {
		return fmt.Errorf("verification.poll_interval must not exceed verification.wait_budget")
	}
	if c.Browser.DashboardURL == "" {
		return fmt.Errorf("browser.dashboard_url is a required configuration field")
	}
	return nil
}
