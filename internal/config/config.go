package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all configuration for the site generator and its build worker
type Config struct {
	// Site layout
	DataDir     string `env:"DATA_DIR" envDefault:"data"`
	TemplateDir string `env:"TEMPLATE_DIR" envDefault:"templates"`
	StaticDir   string `env:"STATIC_DIR" envDefault:"static"`
	OutDir      string `env:"OUT_DIR" envDefault:"dist"`

	// Build configuration
	DefaultLanguage string `env:"DEFAULT_LANGUAGE" envDefault:"en"`
	BuildWorkers    int    `env:"BUILD_WORKERS" envDefault:"4"`
	CleanOutDir     bool   `env:"CLEAN_OUT_DIR" envDefault:"true"`
	BuildFilter     string `env:"BUILD_FILTER"`
	FailOnWarning   bool   `env:"FAIL_ON_WARNING" envDefault:"false"`

	// Template configuration
	MarkdownFlavor  string `env:"MARKDOWN_FLAVOR" envDefault:"subset"`
	JSONIndent      int    `env:"JSON_INDENT" envDefault:"6"`
	MaxPartialDepth int    `env:"MAX_PARTIAL_DEPTH" envDefault:"32"`

	// Worker configuration
	WorkerID string `env:"WORKER_ID" envDefault:"sitegen-1"`

	// Redis configuration
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASS" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Stream configuration
	StreamKey     string        `env:"STREAM_KEY" envDefault:"sitegen.build"`
	ConsumerGroup string        `env:"CONSUMER_GROUP" envDefault:"sitegen-workers"`
	ResultStream  string        `env:"RESULT_STREAM" envDefault:"sitegen.built"`
	LastBuildKey  string        `env:"LAST_BUILD_KEY" envDefault:"sitegen:build:last"`
	BlockTime     time.Duration `env:"BLOCK_TIME" envDefault:"1s"`
	BuildTimeout  time.Duration `env:"BUILD_TIMEOUT" envDefault:"5m"`

	// LLM configuration
	LLMProvider  string        `env:"LLM_PROVIDER" envDefault:"anthropic"`
	LLMAPIKey    string        `env:"LLM_API_KEY"`
	LLMModel     string        `env:"LLM_MODEL" envDefault:"claude-sonnet-4-20250514"`
	LLMTimeout   time.Duration `env:"LLM_TIMEOUT" envDefault:"60s"`
	LLMMaxTokens int           `env:"LLM_MAX_TOKENS" envDefault:"4096"`

	// Health check configuration
	HealthPort int `env:"HEALTH_PORT" envDefault:"8082"`

	// Logging configuration
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("DATA_DIR is required")
	}

	if c.TemplateDir == "" {
		return fmt.Errorf("TEMPLATE_DIR is required")
	}

	if c.OutDir == "" {
		return fmt.Errorf("OUT_DIR is required")
	}

	if c.DefaultLanguage == "" {
		return fmt.Errorf("DEFAULT_LANGUAGE is required")
	}

	if c.BuildWorkers <= 0 {
		return fmt.Errorf("BUILD_WORKERS must be positive")
	}

	if c.MarkdownFlavor != "subset" && c.MarkdownFlavor != "gfm" {
		return fmt.Errorf("MARKDOWN_FLAVOR must be one of: subset, gfm")
	}

	if c.JSONIndent < 0 || c.JSONIndent > 16 {
		return fmt.Errorf("JSON_INDENT must be between 0 and 16")
	}

	if c.MaxPartialDepth <= 0 {
		return fmt.Errorf("MAX_PARTIAL_DEPTH must be positive")
	}

	if c.WorkerID == "" {
		return fmt.Errorf("WORKER_ID is required")
	}

	if c.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR is required")
	}

	if c.StreamKey == "" {
		return fmt.Errorf("STREAM_KEY is required")
	}

	if c.ConsumerGroup == "" {
		return fmt.Errorf("CONSUMER_GROUP is required")
	}

	if c.ResultStream == "" {
		return fmt.Errorf("RESULT_STREAM is required")
	}

	if c.BlockTime <= 0 {
		return fmt.Errorf("BLOCK_TIME must be positive")
	}

	if c.BuildTimeout <= 0 {
		return fmt.Errorf("BUILD_TIMEOUT must be positive")
	}

	if c.LLMProvider == "" {
		return fmt.Errorf("LLM_PROVIDER is required")
	}

	// LLM_API_KEY is only checked when translate runs

	if c.LLMModel == "" {
		return fmt.Errorf("LLM_MODEL is required")
	}

	if c.LLMTimeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT must be positive")
	}

	if c.LLMMaxTokens <= 0 {
		return fmt.Errorf("LLM_MAX_TOKENS must be positive")
	}

	if c.HealthPort <= 0 || c.HealthPort > 65535 {
		return fmt.Errorf("HEALTH_PORT must be between 1 and 65535")
	}

	if !isValidLogLevel(c.LogLevel) {
		return fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error")
	}

	if c.LogFormat != "json" && c.LogFormat != "console" {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}

	return nil
}

// isValidLogLevel checks if the log level is valid
func isValidLogLevel(level string) bool {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	return validLevels[level]
}

// Indent returns the {{json}} indent string
func (c *Config) Indent() string {
	b := make([]byte, c.JSONIndent)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}

// String returns a string representation of the config (without sensitive data)
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{DataDir=%s, TemplateDir=%s, StaticDir=%s, OutDir=%s, DefaultLanguage=%s, "+
			"BuildWorkers=%d, BuildFilter=%q, MarkdownFlavor=%s, WorkerID=%s, RedisAddr=%s, RedisDB=%d, "+
			"StreamKey=%s, ConsumerGroup=%s, LLMProvider=%s, LLMModel=%s, HealthPort=%d, LogLevel=%s}",
		c.DataDir,
		c.TemplateDir,
		c.StaticDir,
		c.OutDir,
		c.DefaultLanguage,
		c.BuildWorkers,
		c.BuildFilter,
		c.MarkdownFlavor,
		c.WorkerID,
		c.RedisAddr,
		c.RedisDB,
		c.StreamKey,
		c.ConsumerGroup,
		c.LLMProvider,
		c.LLMModel,
		c.HealthPort,
		c.LogLevel,
	)
}
