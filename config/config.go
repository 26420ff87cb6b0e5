package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	catalyst "github.com/customercatalyst/catalyst-go"
	"github.com/customercatalyst/catalyst-go/adapters"
)

// Config is the file/env/flag view of the SDK settings used by the CLI.
type Config struct {
	APIKey     string `mapstructure:"api_key"`
	Endpoint   string `mapstructure:"endpoint"`
	ServiceKey string `mapstructure:"service_key"`

	MaxRequestsPerSecond int `mapstructure:"max_requests_per_second"`
	MaxBatchSize         int `mapstructure:"max_batch_size"`

	HTTPTimeout   time.Duration `mapstructure:"http_timeout"`
	BeaconTimeout time.Duration `mapstructure:"beacon_timeout"`

	IncludeCreatedAt bool `mapstructure:"include_created_at"`

	FatalPatterns []string `mapstructure:"fatal_patterns"`
	FatalCodes    []string `mapstructure:"fatal_codes"`

	Log LogConfig `mapstructure:"log"`
}

// LogConfig selects the zap logger built by NewLogger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DefaultConfig returns the settings used when nothing overrides them.
func DefaultConfig() *Config {
	return &Config{
		Endpoint:             catalyst.DefaultEndpoint,
		MaxRequestsPerSecond: catalyst.DefaultMaxRequestsPerSecond,
		MaxBatchSize:         catalyst.DefaultMaxBatchSize,
		HTTPTimeout:          adapters.DefaultHTTPTimeout,
		BeaconTimeout:        catalyst.DefaultBeaconTimeout,
		Log: LogConfig{
			Level:  string(adapters.LogLevelInfo),
			Format: string(adapters.LogFormatText),
		},
	}
}

// Validate rejects settings the SDK cannot run with. The API key is not
// checked here since not every command needs one.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return errors.New("endpoint is required")
	}
	if c.MaxRequestsPerSecond <= 0 {
		return fmt.Errorf("max_requests_per_second must be positive, got %d", c.MaxRequestsPerSecond)
	}
	if c.MaxBatchSize <= 0 {
		return fmt.Errorf("max_batch_size must be positive, got %d", c.MaxBatchSize)
	}
	if c.HTTPTimeout < 0 {
		return fmt.Errorf("http_timeout cannot be negative, got %s", c.HTTPTimeout)
	}
	if c.BeaconTimeout <= 0 {
		return fmt.Errorf("beacon_timeout must be positive, got %s", c.BeaconTimeout)
	}
	if _, err := adapters.ParseLogLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if _, err := adapters.ParseLogFormat(c.Log.Format); err != nil {
		return fmt.Errorf("log.format: %w", err)
	}
	return nil
}

// NewLogger builds the zap logger described by c.Log.
func (c *Config) NewLogger() (*adapters.ZapLoggerAdapter, error) {
	level, err := adapters.ParseLogLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	format, err := adapters.ParseLogFormat(c.Log.Format)
	if err != nil {
		return nil, err
	}
	return adapters.NewZapLoggerAdapter(level, format), nil
}

// HubConfig maps c onto the SDK hub settings.
func (c *Config) HubConfig(logger catalyst.LoggerAdapter, metrics *catalyst.Metrics) catalyst.HubConfig {
	return catalyst.HubConfig{
		Endpoint:             c.Endpoint,
		ServiceKey:           c.ServiceKey,
		MaxRequestsPerSecond: c.MaxRequestsPerSecond,
		MaxBatchSize:         c.MaxBatchSize,
		HTTPTimeout:          c.HTTPTimeout,
		BeaconTimeout:        c.BeaconTimeout,
		IncludeCreatedAt:     c.IncludeCreatedAt,
		FatalPatterns:        c.FatalPatterns,
		FatalCodes:           c.FatalCodes,
		LoggerAdapter:        logger,
		Metrics:              metrics,
	}
}

// ClientConfig maps c onto the SDK client settings for hub.
func (c *Config) ClientConfig(hub *catalyst.Hub) catalyst.ClientConfig {
	return catalyst.ClientConfig{
		APIKey: c.APIKey,
		Hub:    hub,
	}
}
