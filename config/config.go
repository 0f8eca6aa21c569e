package config

import (
	"fmt"
	"strings"

	"accrual/database"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL      string `mapstructure:"DATABASE_URL"`
	DatabaseName     string `mapstructure:"DATABASE_NAME"`
	DatabaseMaxConns int32  `mapstructure:"DATABASE_MAX_CONNS"`

	// Logging
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"` // "text" or "json"

	// Batch behaviour
	BatchConcurrency int  `mapstructure:"BATCH_CONCURRENCY"`
	VerifyStrict     bool `mapstructure:"VERIFY_STRICT"`

	// Metrics
	MetricsExporter             string `mapstructure:"METRICS_EXPORTER"` // "none", "console" or "otlp"
	MetricsOTLPEndpoint         string `mapstructure:"METRICS_OTLP_ENDPOINT"`
	MetricsServiceName          string `mapstructure:"METRICS_SERVICE_NAME"`
	MetricsExportIntervalMillis int    `mapstructure:"METRICS_EXPORT_INTERVAL_MS"`

	// Event forwarding, disabled when empty
	NATSURL string `mapstructure:"NATS_URL"`

	// Environment
	Environment string `mapstructure:"ENVIRONMENT"` // "development", "production" or "test"
}

var defaults = map[string]any{
	"DATABASE_URL":               "",
	"DATABASE_NAME":              "",
	"DATABASE_MAX_CONNS":         0,
	"LOG_LEVEL":                  "info",
	"LOG_FORMAT":                 "text",
	"BATCH_CONCURRENCY":          4,
	"VERIFY_STRICT":              true,
	"METRICS_EXPORTER":           "none",
	"METRICS_OTLP_ENDPOINT":      "localhost:4317",
	"METRICS_SERVICE_NAME":       "accrual",
	"METRICS_EXPORT_INTERVAL_MS": 10000,
	"NATS_URL":                   "",
	"ENVIRONMENT":                "development",
}

// flagKeys maps command-line flags to the configuration keys they override
var flagKeys = map[string]string{
	"database-url": "DATABASE_URL",
	"log-level":    "LOG_LEVEL",
	"log-format":   "LOG_FORMAT",
	"concurrency":  "BATCH_CONCURRENCY",
	"strict":       "VERIFY_STRICT",
}

// Load builds the configuration from defaults, the environment and any of
// flags that were set. Flags take precedence over the environment. flags may
// be nil.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	if flags != nil {
		for name, key := range flagKeys {
			flag := flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Environment != "test" && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid LOG_FORMAT %q, expected text or json", c.LogFormat)
	}

	switch c.MetricsExporter {
	case "none", "console", "otlp":
	default:
		return fmt.Errorf("invalid METRICS_EXPORTER %q, expected none, console or otlp", c.MetricsExporter)
	}

	if c.BatchConcurrency < 1 {
		return fmt.Errorf("BATCH_CONCURRENCY must be at least 1, got %d", c.BatchConcurrency)
	}
	if c.MetricsExportIntervalMillis <= 0 {
		return fmt.Errorf("METRICS_EXPORT_INTERVAL_MS must be positive, got %d", c.MetricsExportIntervalMillis)
	}

	return nil
}

// ConnectionURL returns the database URL with DatabaseName applied
func (c *Config) ConnectionURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// MetricsEnabled reports whether an exporter is configured
func (c *Config) MetricsEnabled() bool {
	return c.MetricsExporter != "none"
}
