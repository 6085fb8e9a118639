package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Cache backends accepted by CACHE_BACKEND.
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// BLS upstream configuration.
	BLSAPIURL   string
	BLSSeriesID string
	BLSTimeout  time.Duration

	// Cache configuration.
	CacheBackend       string
	CacheTTL           time.Duration
	CacheSweepInterval time.Duration
	RedisAddr          string
	RedisPassword      string
	RedisDB            int

	// FetchDedup collapses concurrent fetches of the same year into one call.
	FetchDedup bool

	// Kafka record publishing (opt-in).
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	blsTimeout, err := parsePositiveDuration("BLS_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parsePositiveDuration("CACHE_TTL", "24h")
	if err != nil {
		return nil, err
	}
	sweepInterval, err := parsePositiveDuration("CACHE_SWEEP_INTERVAL", "10m")
	if err != nil {
		return nil, err
	}

	redisDB, err := strconv.Atoi(sharedcfg.EnvOrDefault("REDIS_DB", "0"))
	if err != nil || redisDB < 0 {
		return nil, errors.New("invalid REDIS_DB")
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		BLSAPIURL:   sharedcfg.EnvOrDefault("BLS_API_URL", "https://api.bls.gov/publicAPI/v2/timeseries/data/"),
		BLSSeriesID: sharedcfg.EnvOrDefault("BLS_SERIES_ID", "LAUCN040010000000005"),
		BLSTimeout:  blsTimeout,

		CacheBackend:       sharedcfg.EnvOrDefault("CACHE_BACKEND", CacheBackendMemory),
		CacheTTL:           cacheTTL,
		CacheSweepInterval: sweepInterval,
		RedisAddr:          sharedcfg.EnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		RedisDB:            redisDB,

		FetchDedup: os.Getenv("FETCH_DEDUP") == "true",

		KafkaEnabled: os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "cpi-records"),
	}

	if cfg.BLSAPIURL == "" {
		return nil, errors.New("BLS_API_URL is required")
	}
	if cfg.BLSSeriesID == "" {
		return nil, errors.New("BLS_SERIES_ID is required")
	}
	switch cfg.CacheBackend {
	case CacheBackendMemory:
	case CacheBackendRedis:
		if cfg.RedisAddr == "" {
			return nil, errors.New("CACHE_BACKEND is redis but REDIS_ADDR is not set")
		}
	default:
		return nil, fmt.Errorf("invalid CACHE_BACKEND %q: want %s or %s", cfg.CacheBackend, CacheBackendMemory, CacheBackendRedis)
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
		}
		if cfg.KafkaTopic == "" {
			return nil, errors.New("KAFKA_ENABLED is true but KAFKA_TOPIC is empty")
		}
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}
