// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Supported model providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config holds all application configuration.
type Config struct {
	DBPath          string
	Provider        string // "openai" or "anthropic"
	ModelName       string // provider model id, empty = adapter default
	DispatchTimeout time.Duration
	LogLevel        string // debug, info, warn, error
	LogFormat       string // text or json
	CallLog         CallLogConfig
}

// CallLogConfig controls NDJSON call logging.
type CallLogConfig struct {
	Enabled   bool
	Dir       string
	QueueSize int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	queueSize := getEnvInt("CALL_LOG_QUEUE_SIZE", 1000)
	if queueSize <= 0 {
		queueSize = 1000
	}

	cfg := &Config{
		DBPath:          getEnv("DB_PATH", "./data/clinic.db"),
		Provider:        strings.ToLower(getEnv("MODEL_PROVIDER", ProviderOpenAI)),
		ModelName:       getEnv("MODEL_NAME", ""),
		DispatchTimeout: getEnvDuration("DISPATCH_TIMEOUT", 10*time.Second),
		LogLevel:        strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:       strings.ToLower(getEnv("LOG_FORMAT", "text")),
		CallLog: CallLogConfig{
			Enabled:   getEnvBool("CALL_LOG_ENABLED", true),
			Dir:       getEnv("CALL_LOG_DIR", "./data/logs/calls"),
			QueueSize: queueSize,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.Provider != ProviderOpenAI && c.Provider != ProviderAnthropic {
		return fmt.Errorf("MODEL_PROVIDER must be %q or %q", ProviderOpenAI, ProviderAnthropic)
	}
	if c.DispatchTimeout <= 0 {
		return fmt.Errorf("DISPATCH_TIMEOUT must be > 0")
	}
	if c.CallLog.Enabled && c.CallLog.Dir == "" {
		return fmt.Errorf("CALL_LOG_DIR cannot be empty when call logging is enabled")
	}
	if c.CallLog.QueueSize <= 0 {
		return fmt.Errorf("CALL_LOG_QUEUE_SIZE must be > 0")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
