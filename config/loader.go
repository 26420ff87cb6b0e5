package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DefaultEnvPrefix prefixes every environment variable, e.g. CATALYST_API_KEY.
const DefaultEnvPrefix = "CATALYST"

// flagKeys maps command-line flags to config keys.
var flagKeys = map[string]string{
	"api-key":                 "api_key",
	"endpoint":                "endpoint",
	"service-key":             "service_key",
	"max-requests-per-second": "max_requests_per_second",
	"max-batch-size":          "max_batch_size",
	"http-timeout":            "http_timeout",
	"beacon-timeout":          "beacon_timeout",
	"include-created-at":      "include_created_at",
	"fatal-patterns":          "fatal_patterns",
	"fatal-codes":             "fatal_codes",
	"log-level":               "log.level",
	"log-format":              "log.format",
}

// Loader reads Config with precedence: flags > ENV > file > defaults.
type Loader struct {
	configFile string
	envPrefix  string
	flags      *pflag.FlagSet
}

// NewLoader creates a loader. configFile may be empty; envPrefix defaults to
// DefaultEnvPrefix.
func NewLoader(configFile, envPrefix string) *Loader {
	if envPrefix == "" {
		envPrefix = DefaultEnvPrefix
	}
	return &Loader{
		configFile: configFile,
		envPrefix:  envPrefix,
	}
}

// WithFlags makes flags registered by BindFlags override other sources when set.
func (l *Loader) WithFlags(flags *pflag.FlagSet) *Loader {
	l.flags = flags
	return l
}

// Load is shorthand for NewLoader(configFile, envPrefix).Load().
func Load(configFile, envPrefix string) (*Config, error) {
	return NewLoader(configFile, envPrefix).Load()
}

// Load merges all sources and validates the result.
func (l *Loader) Load() (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", l.configFile, err)
		}
	}

	v.SetEnvPrefix(l.envPrefix)
	if err := l.bindEnvVars(v); err != nil {
		return nil, err
	}

	if l.flags != nil {
		for name, key := range flagKeys {
			flag := l.flags.Lookup(name)
			if flag == nil || !flag.Changed {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("failed to bind flag --%s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func (l *Loader) bindEnvVars(v *viper.Viper) error {
	for _, key := range flagKeys {
		env := l.envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("failed to bind env %s: %w", env, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("api_key", cfg.APIKey)
	v.SetDefault("endpoint", cfg.Endpoint)
	v.SetDefault("service_key", cfg.ServiceKey)
	v.SetDefault("max_requests_per_second", cfg.MaxRequestsPerSecond)
	v.SetDefault("max_batch_size", cfg.MaxBatchSize)
	v.SetDefault("http_timeout", cfg.HTTPTimeout)
	v.SetDefault("beacon_timeout", cfg.BeaconTimeout)
	v.SetDefault("include_created_at", cfg.IncludeCreatedAt)
	v.SetDefault("fatal_patterns", cfg.FatalPatterns)
	v.SetDefault("fatal_codes", cfg.FatalCodes)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
}

// BindFlags registers one flag per config key on flags.
func BindFlags(flags *pflag.FlagSet) {
	defaults := DefaultConfig()

	flags.String("api-key", defaults.APIKey, "tenant API key (org_...)")
	flags.String("endpoint", defaults.Endpoint, "ingestion endpoint URL")
	flags.String("service-key", defaults.ServiceKey, "service key sent as apikey and bearer token")
	flags.Int("max-requests-per-second", defaults.MaxRequestsPerSecond, "maximum ingestion requests per second")
	flags.Int("max-batch-size", defaults.MaxBatchSize, "maximum events per request")
	flags.Duration("http-timeout", defaults.HTTPTimeout, "timeout for one ingestion request")
	flags.Duration("beacon-timeout", defaults.BeaconTimeout, "timeout for the shutdown beacon")
	flags.Bool("include-created-at", defaults.IncludeCreatedAt, "send p_created_at with each event")
	flags.StringSlice("fatal-patterns", defaults.FatalPatterns, "error text that stops the SDK")
	flags.StringSlice("fatal-codes", defaults.FatalCodes, "response error codes that stop the SDK")
	flags.String("log-level", defaults.Log.Level, "log level (debug, info, warn, error, none)")
	flags.String("log-format", defaults.Log.Format, "log format (text, json)")
}
