// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for the databases, always absolute
	Port     int
	LogLevel string
	DevMode  bool

	// BaseCurrency is the currency everything is reported in.
	BaseCurrency string
	// USDFallbackRate is used when the FX lookup fails entirely.
	USDFallbackRate float64

	// Cache TTLs for external lookups
	QuoteTTL        time.Duration
	FxRateTTL       time.Duration
	FundamentalsTTL time.Duration
	HistoryTTL      time.Duration

	Backup BackupConfig
}

// BackupConfig holds database backup configuration.
// S3 upload is enabled only when Bucket is set; otherwise backups
// stay on local disk.
type BackupConfig struct {
	Bucket    string
	Region    string
	Endpoint  string // Optional custom endpoint (S3-compatible stores)
	AccessKey string
	SecretKey string
}

// S3Enabled reports whether backups should be uploaded to S3.
func (b BackupConfig) S3Enabled() bool {
	return b.Bucket != ""
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("TITANIUM_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:      absDataDir,
		Port:         getEnvAsInt("PORT", 8080),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		DevMode:      getEnvAsBool("DEV_MODE", false),
		BaseCurrency: getEnv("BASE_CURRENCY", "BRL"),
		// 5.85 mirrors the fallback the tool has always shipped with.
		USDFallbackRate: getEnvAsFloat("USD_BRL_FALLBACK", 5.85),
		QuoteTTL:        getEnvAsDuration("QUOTE_TTL", 10*time.Minute),
		FxRateTTL:       getEnvAsDuration("FX_RATE_TTL", time.Hour),
		FundamentalsTTL: getEnvAsDuration("FUNDAMENTALS_TTL", 24*time.Hour),
		HistoryTTL:      getEnvAsDuration("HISTORY_TTL", 24*time.Hour),
		Backup: BackupConfig{
			Bucket:    getEnv("BACKUP_S3_BUCKET", ""),
			Region:    getEnv("BACKUP_S3_REGION", "auto"),
			Endpoint:  getEnv("BACKUP_S3_ENDPOINT", ""),
			AccessKey: getEnv("BACKUP_S3_ACCESS_KEY", ""),
			SecretKey: getEnv("BACKUP_S3_SECRET_KEY", ""),
		},
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
