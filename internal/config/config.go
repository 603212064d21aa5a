package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the full application configuration, populated from
// environment variables at process startup.
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Queue     QueueConfig
	Seed      SeedConfig
}

type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Port        string
	Version     string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MinConns int
}

type RedisConfig struct {
	Host     string
	Password string
	DB       int
}

// JWTConfig carries the RSA keypair used to sign/verify access tokens.
// Keys live on disk as PEM files so rotation doesn't require an
// inline secret in the environment.
type JWTConfig struct {
	PrivateKeyPath     string
	PublicKeyPath      string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	Issuer             string
}

// CacheConfig configures the namespace cache (C2).
type CacheConfig struct {
	DefaultTTL      time.Duration
	MinHealthyCards int
}

// RateLimitConfig configures the token-bucket refill window shared by
// every policy bucket (C4); per-endpoint capacities live in the
// ratelimit package's policy table.
type RateLimitConfig struct {
	Window time.Duration
}

// QueueConfig tunes the background dispatcher's poll loop (C5/C6).
type QueueConfig struct {
	PollInterval        time.Duration
	MaxMessagesPerCycle int
}

// SeedConfig points at the upstream catalog API consumed at startup
// and via the admin reload endpoint (C13).
type SeedConfig struct {
	SourceURL string
	Timeout   time.Duration
}

// Load reads configuration from environment variables, applying the
// same defaults the API and worker binaries share.
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "CardVault API"),
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("APP_PORT", "8080"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "cardvault"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 25),
			MinConns: getEnvInt("DB_MIN_CONNS", 5),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			PrivateKeyPath:     getEnv("JWT_PRIVATE_KEY_PATH", "./certs/jwt_private.pem"),
			PublicKeyPath:      getEnv("JWT_PUBLIC_KEY_PATH", "./certs/jwt_public.pem"),
			AccessTokenExpiry:  time.Duration(getEnvInt("JWT_ACCESS_EXPIRY_MIN", 15)) * time.Minute,
			RefreshTokenExpiry: time.Duration(getEnvInt("JWT_REFRESH_EXPIRY_HOURS", 72)) * time.Hour,
			Issuer:             getEnv("JWT_ISSUER", "cardvault-backend"),
		},
		Cache: CacheConfig{
			DefaultTTL:      time.Duration(getEnvInt("CACHE_DEFAULT_TTL_MIN", 60)) * time.Minute,
			MinHealthyCards: getEnvInt("CACHE_MIN_HEALTHY_CARDS", 1),
		},
		RateLimit: RateLimitConfig{
			Window: time.Duration(getEnvInt("RATE_LIMIT_WINDOW_SEC", 60)) * time.Second,
		},
		Queue: QueueConfig{
			PollInterval:        time.Duration(getEnvInt("QUEUE_POLL_INTERVAL_SEC", 5)) * time.Second,
			MaxMessagesPerCycle: getEnvInt("QUEUE_MAX_MESSAGES_PER_CYCLE", 10),
		},
		Seed: SeedConfig{
			SourceURL: getEnv("SEED_SOURCE_URL", ""),
			Timeout:   time.Duration(getEnvInt("SEED_TIMEOUT_SEC", 30)) * time.Second,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that production deployments carry the settings that
// matter for correctness and security.
func (c *Config) Validate() error {
	if c.App.Environment == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD must be set in production")
		}
		if _, err := os.Stat(c.JWT.PrivateKeyPath); err != nil {
			return fmt.Errorf("JWT_PRIVATE_KEY_PATH must point to a readable RSA private key: %w", err)
		}
		if _, err := os.Stat(c.JWT.PublicKeyPath); err != nil {
			return fmt.Errorf("JWT_PUBLIC_KEY_PATH must point to a readable RSA public key: %w", err)
		}
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
