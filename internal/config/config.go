package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config captures all runtime configuration derived from environment variables.
type Config struct {
	Port                string
	BackendURL          string
	BackendTimeoutSecs  int
	BookingTimeoutSecs  int
	SessionTTLSecs      int
	SessionSweepSecs    int
	RedisURL            string
	CatalogCacheTTLSecs int
	QRSize              int
	DBURL               string
	ReadTimeoutSecs     int
	WriteTimeoutSecs    int
	IdleTimeoutSecs     int
	DBMaxConns          int
	DBMinConns          int
	DBMaxIdleSecs       int
	DBMaxLifeSecs       int
	DBConnTimeoutSecs   int
	DBStatementCache    int
	ShutdownTimeoutSecs int
	SessionLockStripes  int
}

// LoadDotEnv loads KEY=VALUE files into the environment without overriding
// variables that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// Load reads configuration from environment variables, applying defaults and validation.
// DB_URL and REDIS_URL are optional; without them sessions live in memory and
// catalog reads are not cached.
func Load() (Config, error) {
	cfg := Config{
		Port:                getEnv("PORT", "8080"),
		BackendURL:          os.Getenv("BACKEND_URL"),
		BackendTimeoutSecs:  getEnvInt("BACKEND_TIMEOUT_SECS", 15),
		BookingTimeoutSecs:  getEnvInt("BOOKING_REQUEST_TIMEOUT_SECS", 10),
		SessionTTLSecs:      getEnvInt("SESSION_TTL_SECS", 1800),
		SessionSweepSecs:    getEnvInt("SESSION_SWEEP_SECS", 60),
		RedisURL:            os.Getenv("REDIS_URL"),
		CatalogCacheTTLSecs: getEnvInt("CATALOG_CACHE_TTL_SECS", 60),
		QRSize:              getEnvInt("QR_SIZE", 256),
		DBURL:               os.Getenv("DB_URL"),
		ReadTimeoutSecs:     getEnvInt("SERVER_READ_TIMEOUT", 15),
		WriteTimeoutSecs:    getEnvInt("SERVER_WRITE_TIMEOUT", 30),
		IdleTimeoutSecs:     getEnvInt("SERVER_IDLE_TIMEOUT", 60),
		DBMaxConns:          getEnvInt("DB_MAX_CONNS", 10),
		DBMinConns:          getEnvInt("DB_MIN_CONNS", 1),
		DBMaxIdleSecs:       getEnvInt("DB_MAX_CONN_IDLE_SECS", 300),
		DBMaxLifeSecs:       getEnvInt("DB_MAX_CONN_LIFETIME_SECS", 3600),
		DBConnTimeoutSecs:   getEnvInt("DB_CONN_TIMEOUT_SECS", 10),
		DBStatementCache:    getEnvInt("DB_STATEMENT_CACHE_CAPACITY", 256),
		ShutdownTimeoutSecs: getEnvInt("SHUTDOWN_TIMEOUT_SECS", 10),
		SessionLockStripes:  getEnvInt("SESSION_LOCK_STRIPES", 64),
	}

	if cfg.BackendURL == "" {
		return Config{}, fmt.Errorf("BACKEND_URL is required")
	}
	positive := []struct {
		key string
		val int
	}{
		{"BACKEND_TIMEOUT_SECS", cfg.BackendTimeoutSecs},
		{"BOOKING_REQUEST_TIMEOUT_SECS", cfg.BookingTimeoutSecs},
		{"SESSION_TTL_SECS", cfg.SessionTTLSecs},
		{"SESSION_SWEEP_SECS", cfg.SessionSweepSecs},
		{"CATALOG_CACHE_TTL_SECS", cfg.CatalogCacheTTLSecs},
		{"QR_SIZE", cfg.QRSize},
		{"SESSION_LOCK_STRIPES", cfg.SessionLockStripes},
	}
	for _, p := range positive {
		if p.val <= 0 {
			return Config{}, fmt.Errorf("%s must be positive", p.key)
		}
	}

	if cfg.DBURL != "" {
		if cfg.DBMaxConns <= 0 {
			return Config{}, fmt.Errorf("DB_MAX_CONNS must be positive")
		}
		if cfg.DBMinConns < 0 {
			return Config{}, fmt.Errorf("DB_MIN_CONNS must be non-negative")
		}
		if cfg.DBMinConns > cfg.DBMaxConns {
			return Config{}, fmt.Errorf("DB_MIN_CONNS cannot exceed DB_MAX_CONNS")
		}
		if cfg.DBStatementCache < 0 {
			return Config{}, fmt.Errorf("DB_STATEMENT_CACHE_CAPACITY must be non-negative")
		}
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}
