package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all externally supplied settings for the service
type Config struct {
	Port           string
	DatabasePath   string
	CacheType      string // "memory" or "redis"
	RedisAddr      string
	PasswordHasher string // "sha256" (source behavior) or "bcrypt"
	JWT            JWTConfig
	Omdb           OmdbConfig
	Breaker        BreakerConfig
}

// JWTConfig holds token signing settings (HMAC-SHA256 symmetric key)
type JWTConfig struct {
	Key      string
	Issuer   string
	Audience string
	TTL      time.Duration
}

// OmdbConfig holds settings for the external movie database API
type OmdbConfig struct {
	BaseURL     string
	APIKey      string
	Timeout     time.Duration
	RetryCount  int
	BackoffBase float64 // Seconds; waits are BackoffBase^attempt (2 -> 2s, 4s, 8s)
}

// BreakerConfig holds circuit breaker settings for the upstream API
type BreakerConfig struct {
	FailureThreshold int
	Cooldown         time.Duration
}

// Load reads configuration from environment variables with an optional .env
// file. Defaults are suitable for local development except OMDB_API_KEY,
// which the upstream requires.
func Load() (*Config, error) {
	godotenv.Load()

	timeoutSec, err := getEnvInt("OMDB_TIMEOUT_SECONDS", 30)
	if err != nil {
		return nil, err
	}
	retryCount, err := getEnvInt("OMDB_RETRY_COUNT", 3)
	if err != nil {
		return nil, err
	}
	backoffBase, err := getEnvInt("OMDB_RETRY_BACKOFF_SECONDS", 2)
	if err != nil {
		return nil, err
	}
	failureThreshold, err := getEnvInt("BREAKER_FAILURE_THRESHOLD", 5)
	if err != nil {
		return nil, err
	}
	cooldownSec, err := getEnvInt("BREAKER_COOLDOWN_SECONDS", 30)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:           getEnv("HTTP_PORT", "8080"),
		DatabasePath:   getEnv("DATABASE_PATH", "./film_selector.db"),
		CacheType:      getEnv("CACHE_TYPE", "memory"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		PasswordHasher: getEnv("PASSWORD_HASHER", "sha256"),
		JWT: JWTConfig{
			Key:      getEnv("JWT_KEY", "dev-only-film-selector-signing-key-2024"),
			Issuer:   getEnv("JWT_ISSUER", "FilmSelectorApi"),
			Audience: getEnv("JWT_AUDIENCE", "FilmSelectorClient"),
			TTL:      24 * time.Hour,
		},
		Omdb: OmdbConfig{
			BaseURL:     getEnv("OMDB_BASE_URL", "http://www.omdbapi.com"),
			APIKey:      getEnv("OMDB_API_KEY", ""),
			Timeout:     time.Duration(timeoutSec) * time.Second,
			RetryCount:  retryCount,
			BackoffBase: float64(backoffBase),
		},
		Breaker: BreakerConfig{
			FailureThreshold: failureThreshold,
			Cooldown:         time.Duration(cooldownSec) * time.Second,
		},
	}

	return cfg, nil
}

// getEnv returns an environment variable or a default if unset
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getEnvInt returns an integer environment variable or a default if unset
func getEnvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
