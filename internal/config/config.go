// Package config loads service settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds settings shared by the api, worker and cli binaries.
type Config struct {
	Port           string
	LogLevel       string
	LogFormat      string
	AllowedOrigins []string

	GCPProject string
	BQDataset  string
	GCSBucket  string

	JobQueueSize  int
	JobWorkers    int
	JobMaxRetries int

	ReportTTL         time.Duration
	MaxStatementBytes int64

	NotionToken      string
	NotionReviewDBID string
}

// ErrMissingProject is returned by RequireStore when no GCP project is set.
var ErrMissingProject = errors.New("GCP_PROJECT is required")

// Load reads .env (if present) and the environment. Malformed numeric or
// duration values fall back to defaults and are reported through log.
func Load(log zerolog.Logger) *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file loaded, using environment only")
	}

	return &Config{
		Port:              getEnv("PORT", "8080"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "console"),
		AllowedOrigins:    getList("CORS_ORIGINS", []string{"*"}),
		GCPProject:        getEnv("GCP_PROJECT", ""),
		BQDataset:         getEnv("BQ_DATASET", "household"),
		GCSBucket:         getEnv("GCS_BUCKET", ""),
		JobQueueSize:      getInt(log, "JOB_QUEUE_SIZE", 100),
		JobWorkers:        getInt(log, "JOB_WORKERS", 2),
		JobMaxRetries:     getInt(log, "JOB_MAX_RETRIES", 3),
		ReportTTL:         getDuration(log, "REPORT_TTL", 24*time.Hour),
		MaxStatementBytes: int64(getInt(log, "MAX_STATEMENT_BYTES", 5*1024*1024)),
		NotionToken:       getEnv("NOTION_TOKEN", ""),
		NotionReviewDBID:  getEnv("NOTION_REVIEW_DB_ID", ""),
	}
}

// RequireStore checks the settings needed to reach BigQuery.
func (c *Config) RequireStore() error {
	if c.GCPProject == "" {
		return ErrMissingProject
	}
	return nil
}

// NotionEnabled reports whether review-queue publishing is configured.
func (c *Config) NotionEnabled() bool {
	return c.NotionToken != "" && c.NotionReviewDBID != ""
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getList(key string, fallback []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func getInt(log zerolog.Logger, key string, fallback int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		log.Warn().Str("key", key).Str("value", raw).Int("default", fallback).Msg("Invalid integer setting, using default")
		return fallback
	}
	return v
}

func getDuration(log zerolog.Logger, key string, fallback time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		log.Warn().Str("key", key).Str("value", raw).Dur("default", fallback).Msg("Invalid duration setting, using default")
		return fallback
	}
	return v
}
