package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the wrapped service.
type Config struct {
	// Upstream Garmin session (obtained by the login layer)
	GarminToken   string `mapstructure:"garmin_token"`
	GarminBaseURL string `mapstructure:"garmin_base_url"`

	// Gemini text generation; insights are skipped when no key is set
	GeminiAPIKey  string `mapstructure:"gemini_api_key"`
	GeminiModel   string `mapstructure:"gemini_model"`
	GeminiBaseURL string `mapstructure:"gemini_base_url"`

	// Cache backend selection: "local" or "nats"
	CacheBackend string `mapstructure:"cache_backend"`
	CacheDir     string `mapstructure:"cache_dir"`
	NATSURL      string `mapstructure:"nats_url"`
	NATSBucket   string `mapstructure:"nats_bucket"`

	// Overall time budget for one orchestration run
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`

	// Who and when to generate for
	User string `mapstructure:"user"`
	Year int    `mapstructure:"-"`
}

// Load reads configuration from environment variables and optional config file.
// Environment variables take precedence over config file values.
//
// Expected environment variables:
//   - GARMIN_TOKEN (required)
//   - WRAPPED_USER (required)
//   - WRAPPED_YEAR (optional, defaults to the current year)
//   - GARMIN_BASE_URL (optional, defaults to production)
//   - GEMINI_API_KEY (optional; insights disabled when unset)
//   - GEMINI_MODEL, GEMINI_BASE_URL (optional)
//   - CACHE_BACKEND (optional, "local" or "nats", defaults to "local")
//   - CACHE_DIR (optional, local backend root)
//   - NATS_URL, NATS_BUCKET (optional, nats backend)
//   - FETCH_TIMEOUT (optional, e.g. "60s")
func Load() (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix("")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("garmin_base_url", "https://connectapi.garmin.com")
	v.SetDefault("gemini_model", "gemini-2.5-flash-lite")
	v.SetDefault("gemini_base_url", "https://generativelanguage.googleapis.com")
	v.SetDefault("cache_backend", "local")
	v.SetDefault("cache_dir", "./cache")
	v.SetDefault("nats_url", "nats://127.0.0.1:4222")
	v.SetDefault("nats_bucket", "garmin-wrapped")
	v.SetDefault("fetch_timeout", "60s")
	v.SetDefault("year", time.Now().Year())

	// Optionally read from config file if it exists
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.garminwrapped")
	_ = v.ReadInConfig()

	// Bind environment variables
	v.BindEnv("garmin_token", "GARMIN_TOKEN")
	v.BindEnv("garmin_base_url", "GARMIN_BASE_URL")
	v.BindEnv("gemini_api_key", "GEMINI_API_KEY")
	v.BindEnv("gemini_model", "GEMINI_MODEL")
	v.BindEnv("gemini_base_url", "GEMINI_BASE_URL")
	v.BindEnv("cache_backend", "CACHE_BACKEND")
	v.BindEnv("cache_dir", "CACHE_DIR")
	v.BindEnv("nats_url", "NATS_URL")
	v.BindEnv("nats_bucket", "NATS_BUCKET")
	v.BindEnv("fetch_timeout", "FETCH_TIMEOUT")
	v.BindEnv("user", "WRAPPED_USER")
	v.BindEnv("year", "WRAPPED_YEAR")

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	// Environment values arrive as strings; GetInt casts either way
	config.Year = v.GetInt("year")

	// Validate required fields
	var missing []string
	if config.GarminToken == "" {
		missing = append(missing, "GARMIN_TOKEN")
	}
	if config.User == "" {
		missing = append(missing, "WRAPPED_USER")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	if config.CacheBackend != "local" && config.CacheBackend != "nats" {
		return nil, fmt.Errorf("invalid cache backend %q: must be \"local\" or \"nats\"", config.CacheBackend)
	}
	if config.FetchTimeout <= 0 {
		return nil, fmt.Errorf("fetch timeout must be positive, got %s", config.FetchTimeout)
	}
	if config.Year < 2000 || config.Year > 2100 {
		return nil, fmt.Errorf("invalid year %d", config.Year)
	}

	return config, nil
}
