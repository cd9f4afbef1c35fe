package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Server
	Port        string
	Environment string
	LogLevel    string

	// Redis (optional; upload job records fall back to process memory)
	RedisURL string

	// NATS (optional; empty disables event publishing)
	NATSURL string

	// CORS
	CORSAllowedOrigins string

	// Upload behavior
	UploadDelay   time.Duration // simulated upstream latency, fixed per deployment
	MaxUploadSize int64         // bytes
	JobTTL        time.Duration // how long async job records are kept

	// Pagination
	DefaultPageSize int
	MaxPageSize     int
}

func Load() *Config {
	uploadDelayMs, _ := strconv.Atoi(getEnv("UPLOAD_DELAY_MS", "1000"))
	maxUploadMB, _ := strconv.Atoi(getEnv("MAX_UPLOAD_SIZE_MB", "50"))
	jobTTLHours, _ := strconv.Atoi(getEnv("JOB_TTL_HOURS", "24"))
	defaultPageSize, _ := strconv.Atoi(getEnv("DEFAULT_PAGE_SIZE", "20"))
	maxPageSize, _ := strconv.Atoi(getEnv("MAX_PAGE_SIZE", "100"))

	return &Config{
		// Server
		Port:        getEnv("PORT", "8087"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", ""),

		// Redis
		RedisURL: getEnv("REDIS_URL", ""),

		// NATS
		NATSURL: getEnv("NATS_URL", ""),

		// CORS
		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),

		// Upload behavior
		UploadDelay:   time.Duration(uploadDelayMs) * time.Millisecond,
		MaxUploadSize: int64(maxUploadMB) * 1024 * 1024,
		JobTTL:        time.Duration(jobTTLHours) * time.Hour,

		// Pagination
		DefaultPageSize: defaultPageSize,
		MaxPageSize:     maxPageSize,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
