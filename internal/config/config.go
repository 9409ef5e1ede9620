package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	DatabaseURL string `env:"DATABASE_URL"`
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Redis Config
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Alert dispatch webhook
	WebhookURL        string        `env:"WEBHOOK_URL"`
	WebhookSecret     string        `env:"WEBHOOK_SECRET"`
	WebhookTimeout    time.Duration `env:"WEBHOOK_TIMEOUT" envDefault:"10s"`
	WebhookMaxRetries int           `env:"WEBHOOK_MAX_RETRIES" envDefault:"3"`
	WebhookBaseDelay  time.Duration `env:"WEBHOOK_BASE_DELAY" envDefault:"1s"`

	// Connectivity probe
	ProbeURL      string        `env:"PROBE_URL" envDefault:"https://connectivitycheck.gstatic.com/generate_204"`
	ProbeInterval time.Duration `env:"PROBE_INTERVAL" envDefault:"30s"`
	ProbeTimeout  time.Duration `env:"PROBE_TIMEOUT" envDefault:"5s"`

	// Upstream data providers
	OverpassURL     string        `env:"OVERPASS_URL" envDefault:"https://overpass-api.de/api/interpreter"`
	OverpassTimeout time.Duration `env:"OVERPASS_TIMEOUT" envDefault:"30s"`
	WeatherURL      string        `env:"WEATHER_URL" envDefault:"https://api.open-meteo.com/v1/forecast"`
	WeatherTimeout  time.Duration `env:"WEATHER_TIMEOUT" envDefault:"10s"`
	WeatherCacheTTL time.Duration `env:"WEATHER_CACHE_TTL" envDefault:"10m"`

	// Web push for drain summaries
	VAPIDPublicKey   string `env:"VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey  string `env:"VAPID_PRIVATE_KEY"`
	PushSubscription string `env:"PUSH_SUBSCRIPTION"`
	PushSubscriber   string `env:"PUSH_SUBSCRIBER"`

	// API Keys for authentication
	APIKeys []string `env:"API_KEYS"`
}

// LoadConfig reads the configuration from environment variables and an
// optional .env file.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &Config{
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		HTTPPort:          getEnv("HTTP_PORT", "8080"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:           getEnvAsInt("REDIS_DB", 0),
		WebhookURL:        os.Getenv("WEBHOOK_URL"),
		WebhookSecret:     os.Getenv("WEBHOOK_SECRET"),
		WebhookTimeout:    getEnvAsDuration("WEBHOOK_TIMEOUT", 10*time.Second),
		WebhookMaxRetries: getEnvAsInt("WEBHOOK_MAX_RETRIES", 3),
		WebhookBaseDelay:  getEnvAsDuration("WEBHOOK_BASE_DELAY", time.Second),
		ProbeURL:          getEnv("PROBE_URL", "https://connectivitycheck.gstatic.com/generate_204"),
		ProbeInterval:     getEnvAsDuration("PROBE_INTERVAL", 30*time.Second),
		ProbeTimeout:      getEnvAsDuration("PROBE_TIMEOUT", 5*time.Second),
		OverpassURL:       getEnv("OVERPASS_URL", "https://overpass-api.de/api/interpreter"),
		OverpassTimeout:   getEnvAsDuration("OVERPASS_TIMEOUT", 30*time.Second),
		WeatherURL:        getEnv("WEATHER_URL", "https://api.open-meteo.com/v1/forecast"),
		WeatherTimeout:    getEnvAsDuration("WEATHER_TIMEOUT", 10*time.Second),
		WeatherCacheTTL:   getEnvAsDuration("WEATHER_CACHE_TTL", 10*time.Minute),
		VAPIDPublicKey:    os.Getenv("VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey:   os.Getenv("VAPID_PRIVATE_KEY"),
		PushSubscription:  os.Getenv("PUSH_SUBSCRIPTION"),
		PushSubscriber:    os.Getenv("PUSH_SUBSCRIBER"),
	}

	apiKeysStr := os.Getenv("API_KEYS")
	if apiKeysStr != "" {
		cfg.APIKeys = strings.Split(apiKeysStr, ",")
		for i, key := range cfg.APIKeys {
			cfg.APIKeys[i] = strings.TrimSpace(key)
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	return cfg, nil
}

// getEnv returns the environment variable value or the default.
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt returns the environment variable as int or the default.
func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsDuration returns the environment variable as time.Duration or the default.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if durationValue, err := time.ParseDuration(value); err == nil {
			return durationValue
		}
	}
	return defaultValue
}
